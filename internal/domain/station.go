package domain

import "errors"

// ErrNoLocationFound is returned when station resolution matches no rows
// of the inventory. A run cannot proceed without at least one station.
var ErrNoLocationFound = errors.New("no weather station found for location")

// StationDescriptor identifies one weather-recording site from the federal
// station inventory. Immutable once fetched.
type StationDescriptor struct {
	Name      string
	StationID int64
	Province  string
}
