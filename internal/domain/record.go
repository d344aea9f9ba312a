package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Well-known column names present in every climate record. The remaining
// measurement columns are derived from each fetched table's header row, so
// their names vary between stations and months.
const (
	ColCity           = "city"
	ColProvince       = "province"
	ColStationID      = "station_id"
	ColStationName    = "station_name"
	ColYear           = "year"
	ColMonth          = "month"
	ColDay            = "day"
	ColMonthlyDataURL = "monthly_data_url"
)

// Field is one named column value in a climate record.
type Field struct {
	Name  string
	Value Value
}

// ClimateRecord holds the ordered columns scraped for one station-day.
// Order matches the schema derived from the source table header; the
// schema is consistent across rows within one fetched table but not
// across tables.
type ClimateRecord struct {
	Fields []Field
}

// NewClimateRecord assembles a record by zipping a schema with a value
// list positionally. The lengths must match.
func NewClimateRecord(schema []string, values []Value) (ClimateRecord, error) {
	if len(schema) != len(values) {
		return ClimateRecord{}, fmt.Errorf("schema has %d columns but row has %d values", len(schema), len(values))
	}
	fields := make([]Field, len(schema))
	for i, name := range schema {
		fields[i] = Field{Name: name, Value: values[i]}
	}
	return ClimateRecord{Fields: fields}, nil
}

// Get returns the value of the named column and whether it exists.
func (r ClimateRecord) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Richness counts the fields carrying meaningful non-zero numeric signal.
// Best-station reconciliation prefers the richer of two candidate records
// for the same date.
func (r ClimateRecord) Richness() int {
	n := 0
	for _, f := range r.Fields {
		if f.Value.HasNonZeroDigits() {
			n++
		}
	}
	return n
}

var leadingDigitsRe = regexp.MustCompile(`\d+`)

// Int returns the named column as an integer. String values fall back to
// their first run of digits, matching how day cells are read from the
// source table.
func (r ClimateRecord) Int(name string) (int64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		return int64(v.Float), true
	default:
		digits := leadingDigitsRe.FindString(v.Str)
		if digits == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

// Str returns the named column's string form, or "" when absent.
func (r ClimateRecord) Str(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return v.String()
}
