package domain

// ReconcileMode selects the retention policy when multiple stations report
// for the same city.
type ReconcileMode int

const (
	// AllStations keeps one record per (station, day). Keys never collide
	// because each station-month is visited exactly once.
	AllStations ReconcileMode = iota

	// BestStation keeps one record per day, selected by richness. Records
	// from different stations compete for the same date key.
	BestStation
)

// InsertOutcome reports what Insert did with a candidate record.
type InsertOutcome int

const (
	// OutcomeInserted means the record filled an empty slot.
	OutcomeInserted InsertOutcome = iota
	// OutcomeReplaced means the record evicted a poorer existing record.
	OutcomeReplaced
	// OutcomeDiscarded means an existing record of equal or greater
	// richness was kept instead.
	OutcomeDiscarded
)

// MapKey identifies one record slot. In best-station mode the station
// fields stay zero so all stations compete for the same date; the records
// themselves keep their real station columns either way.
type MapKey struct {
	StationName string
	StationID   int64
	Year        int
	Month       int
	Day         int
}

// ClimateDataMap accumulates extracted records under the active
// reconciliation mode. Records are replaced, never mutated, and become
// read-only once handed to persistence.
type ClimateDataMap struct {
	mode ReconcileMode
	recs map[MapKey]ClimateRecord
	keys []MapKey // insertion order, for deterministic iteration
}

// NewClimateDataMap creates an empty map with the given mode.
func NewClimateDataMap(mode ReconcileMode) *ClimateDataMap {
	return &ClimateDataMap{
		mode: mode,
		recs: make(map[MapKey]ClimateRecord),
	}
}

// Insert reconciles one extracted record into the map. In all-station mode
// every record is kept under its own station-day key. In best-station mode
// the candidate replaces an existing record for the same date only when
// its richness is strictly greater; ties keep the earlier record.
func (m *ClimateDataMap) Insert(rec ClimateRecord) InsertOutcome {
	key := m.keyFor(rec)

	existing, ok := m.recs[key]
	if !ok {
		m.recs[key] = rec
		m.keys = append(m.keys, key)
		return OutcomeInserted
	}

	if m.mode == BestStation && rec.Richness() > existing.Richness() {
		m.recs[key] = rec
		return OutcomeReplaced
	}
	return OutcomeDiscarded
}

// Len returns the number of retained records.
func (m *ClimateDataMap) Len() int { return len(m.recs) }

// Records returns the retained records in first-insertion order of their keys.
func (m *ClimateDataMap) Records() []ClimateRecord {
	out := make([]ClimateRecord, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.recs[k])
	}
	return out
}

func (m *ClimateDataMap) keyFor(rec ClimateRecord) MapKey {
	year, _ := rec.Int(ColYear)
	month, _ := rec.Int(ColMonth)
	day, _ := rec.Int(ColDay)

	key := MapKey{Year: int(year), Month: int(month), Day: int(day)}
	if m.mode == AllStations {
		key.StationName = rec.Str(ColStationName)
		key.StationID, _ = rec.Int(ColStationID)
	}
	return key
}
