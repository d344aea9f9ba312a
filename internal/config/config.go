// Package config holds the run settings for one scrape.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds all scraper settings. Defaults come from environment
// variables; the CLI flags override them.
type Config struct {
	City     string
	Province string

	// Inclusive date range, (StartYear, StartMonth) .. (EndYear, EndMonth).
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int

	// AllStationData keeps one record per station-day; when false the run
	// keeps only the richest record per day across stations.
	AllStationData bool
	Verbose        bool

	DBPath        string
	DBTable       string
	RecreateTable bool

	InventoryAddr string
	InventoryUser string
	InventoryPath string

	HTTPTimeout time.Duration
	FTPTimeout  time.Duration

	// MetricsAddr enables the health/metrics HTTP listener when non-empty.
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Default returns a Config populated from environment variables with the
// date range defaulting to the current year.
func Default() *Config {
	year := clock.Now().Year()

	return &Config{
		City:           os.Getenv("SCRAPER_CITY"),
		Province:       os.Getenv("SCRAPER_PROVINCE"),
		StartYear:      year,
		StartMonth:     1,
		EndYear:        year,
		EndMonth:       12,
		AllStationData: true,
		DBPath:         envOrDefault("SCRAPER_DB_PATH", "climate_data.db"),
		DBTable:        os.Getenv("SCRAPER_DB_TABLE"),
		InventoryAddr:  os.Getenv("SCRAPER_INVENTORY_ADDR"),
		InventoryUser:  os.Getenv("SCRAPER_INVENTORY_USER"),
		InventoryPath:  os.Getenv("SCRAPER_INVENTORY_PATH"),
		HTTPTimeout:    30 * time.Second,
		FTPTimeout:     30 * time.Second,
		MetricsAddr:    os.Getenv("SCRAPER_METRICS_ADDR"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "text"),
	}
}

// Validate checks the cross-field constraints a flag parser cannot.
func (c *Config) Validate() error {
	if c.City == "" {
		return errors.New("city is required")
	}
	if c.StartMonth < 1 || c.StartMonth > 12 {
		return fmt.Errorf("start month %d out of range [1, 12]", c.StartMonth)
	}
	if c.EndMonth < 1 || c.EndMonth > 12 {
		return fmt.Errorf("end month %d out of range [1, 12]", c.EndMonth)
	}
	if c.StartYear > c.EndYear {
		return fmt.Errorf("start year %d after end year %d", c.StartYear, c.EndYear)
	}
	if c.StartYear == c.EndYear && c.StartMonth > c.EndMonth {
		return fmt.Errorf("start month %d after end month %d within year %d", c.StartMonth, c.EndMonth, c.StartYear)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.FTPTimeout <= 0 {
		return errors.New("ftp timeout must be positive")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
