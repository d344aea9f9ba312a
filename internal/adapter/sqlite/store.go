// Package sqlite persists reconciled climate records into a relational
// table with insert-or-update semantics.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/climate-scraper/internal/domain"
)

// DefaultTable is the sink table name.
const DefaultTable = "gov_of_canada_weather_data"

// column describes one sink table column. Key columns form the composite
// primary key used for the update fallback's filter.
type column struct {
	name    string
	sqlType string
	key     bool
	text    bool
}

// tableColumns is the fixed sink schema, in DDL order. Scraped measurement
// columns outside this list are not persisted; missing ones are defaulted.
var tableColumns = []column{
	{name: domain.ColCity, sqlType: "TEXT", key: true, text: true},
	{name: domain.ColProvince, sqlType: "TEXT", text: true},
	{name: domain.ColStationID, sqlType: "INTEGER"},
	{name: domain.ColStationName, sqlType: "TEXT", key: true, text: true},
	{name: domain.ColMonthlyDataURL, sqlType: "TEXT", text: true},
	{name: domain.ColYear, sqlType: "INTEGER", key: true},
	{name: domain.ColMonth, sqlType: "INTEGER", key: true},
	{name: domain.ColDay, sqlType: "INTEGER", key: true},
	{name: "max_temp", sqlType: "NUMERIC(5,2)"},
	{name: "min_temp", sqlType: "NUMERIC(5,2)"},
	{name: "mean_temp", sqlType: "NUMERIC(5,2)"},
	{name: "extr_max_temp", sqlType: "NUMERIC(5,2)"},
	{name: "extr_min_temp", sqlType: "NUMERIC(5,2)"},
	{name: "cool_deg_days", sqlType: "NUMERIC(5,2)"},
	{name: "heat_deg_days", sqlType: "NUMERIC(5,2)"},
	{name: "total_rain", sqlType: "NUMERIC(5,2)"},
	{name: "total_snow", sqlType: "NUMERIC(5,2)"},
	{name: "total_prec", sqlType: "NUMERIC(5,2)"},
	{name: "snow_on_grnd", sqlType: "NUMERIC(5,2)"},
	{name: "dir_of_max_gust", sqlType: "NUMERIC(5,2)"},
	{name: "spd_of_max_gust", sqlType: "TEXT", text: true},
}

// legendSentinels mark cells the portal flags as estimated or missing;
// they carry no measurement value and are stored as 0.
var legendSentinels = []string{"LegendMM", "LegendTT"}

// Store writes climate records to a SQLite database over one connection.
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger

	insertSQL string
	updateSQL string
}

// Open connects to the database at path, creating the sink table when it
// does not exist. With recreate set, any existing table is dropped first.
func Open(path, table string, recreate bool, logger *slog.Logger) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// One scoped connection for the whole run.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	s := &Store{
		db:        db,
		table:     table,
		logger:    logger,
		insertSQL: buildInsertSQL(table),
		updateSQL: buildUpdateSQL(table),
	}

	if recreate {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			db.Close()
			return nil, fmt.Errorf("drop table %s: %w", table, err)
		}
		logger.Info("sink table dropped", "table", table)
	}

	if _, err := db.Exec(buildCreateSQL(table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes one record. An INSERT violating the composite primary key
// falls back to an UPDATE of every non-key column filtered by the key
// columns. The returned flag reports whether the update path ran.
func (s *Store) Upsert(ctx context.Context, rec domain.ClimateRecord) (updated bool, err error) {
	insertArgs := make([]any, 0, len(tableColumns))
	for _, col := range tableColumns {
		insertArgs = append(insertArgs, columnValue(rec, col))
	}

	if _, err := s.db.ExecContext(ctx, s.insertSQL, insertArgs...); err != nil {
		if !isConstraintViolation(err) {
			return false, fmt.Errorf("insert record: %w", err)
		}
		return true, s.update(ctx, rec)
	}
	return false, nil
}

func (s *Store) update(ctx context.Context, rec domain.ClimateRecord) error {
	var args []any
	for _, col := range tableColumns {
		if !col.key {
			args = append(args, columnValue(rec, col))
		}
	}
	for _, col := range tableColumns {
		if col.key {
			args = append(args, columnValue(rec, col))
		}
	}

	if _, err := s.db.ExecContext(ctx, s.updateSQL, args...); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// columnValue maps one sink column to its driver value. Columns absent
// from the record default to empty text or 0; measurement values that are
// empty or carry a legend sentinel degrade to 0.
func columnValue(rec domain.ClimateRecord, col column) any {
	v, ok := rec.Get(col.name)
	if !ok {
		if col.text {
			return ""
		}
		return int64(0)
	}

	if col.text {
		return v.String()
	}

	switch v.Kind {
	case domain.KindInt:
		return v.Int
	case domain.KindFloat:
		return v.Float
	default:
		return sanitizeMeasurement(v.Str)
	}
}

// sanitizeMeasurement converts string-valued measurement cells to driver
// values. Empty and sentinel-marked cells become 0; numeric-looking text
// (a legend prefix kept by coercion) is passed through for the database to
// store in the decimal column.
func sanitizeMeasurement(s string) any {
	if strings.TrimSpace(s) == "" {
		return int64(0)
	}
	for _, sentinel := range legendSentinels {
		if strings.Contains(s, sentinel) {
			return int64(0)
		}
	}
	return s
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func buildCreateSQL(table string) string {
	defs := make([]string, 0, len(tableColumns)+1)
	keys := make([]string, 0, 5)
	for _, col := range tableColumns {
		defs = append(defs, col.name+" "+col.sqlType)
		if col.key {
			keys = append(keys, col.name)
		}
	}
	defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	return "CREATE TABLE IF NOT EXISTS " + table + " (" + strings.Join(defs, ", ") + ")"
}

func buildInsertSQL(table string) string {
	names := make([]string, 0, len(tableColumns))
	marks := make([]string, 0, len(tableColumns))
	for _, col := range tableColumns {
		names = append(names, col.name)
		marks = append(marks, "?")
	}
	return "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

func buildUpdateSQL(table string) string {
	var sets, wheres []string
	for _, col := range tableColumns {
		if col.key {
			wheres = append(wheres, col.name+" = ?")
		} else {
			sets = append(sets, col.name+" = ?")
		}
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(wheres, " AND ")
}
