// Command scraper downloads Government of Canada historical daily climate
// data for a city and writes the reconciled records to a SQLite database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-scraper/internal/adapter/climateweb"
	httpadapter "github.com/couchcryptid/climate-scraper/internal/adapter/http"
	"github.com/couchcryptid/climate-scraper/internal/adapter/inventory"
	"github.com/couchcryptid/climate-scraper/internal/adapter/sqlite"
	"github.com/couchcryptid/climate-scraper/internal/config"
	"github.com/couchcryptid/climate-scraper/internal/observability"
	"github.com/couchcryptid/climate-scraper/internal/pipeline"
	"github.com/couchcryptid/climate-scraper/internal/station"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "climate-scraper",
		Short: "Scrape Government of Canada historical daily climate data",
		Long: `climate-scraper resolves the weather stations reporting for a city,
fetches each station's daily data report page for every month in the
requested range, and stores the extracted records in a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.City, "city", cfg.City, "city to scrape (required)")
	flags.StringVar(&cfg.Province, "province", cfg.Province, "province name to disambiguate the city")
	flags.IntVar(&cfg.StartYear, "start-year", cfg.StartYear, "first year of the range")
	flags.IntVar(&cfg.StartMonth, "start-month", cfg.StartMonth, "first month of the first year")
	flags.IntVar(&cfg.EndYear, "end-year", cfg.EndYear, "last year of the range")
	flags.IntVar(&cfg.EndMonth, "end-month", cfg.EndMonth, "last month of the last year")
	flags.BoolVar(&cfg.AllStationData, "all-station-data", cfg.AllStationData, "keep one record per station-day instead of the richest per day")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log per-page progress at info level")
	flags.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database file")
	flags.StringVar(&cfg.DBTable, "db-table", cfg.DBTable, "destination table name")
	flags.BoolVar(&cfg.RecreateTable, "recreate-table", cfg.RecreateTable, "drop and recreate the destination table before writing")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "listen address for health and metrics endpoints (disabled when empty)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	inv := inventory.NewClient(cfg.InventoryAddr, cfg.InventoryUser, "", cfg.InventoryPath, cfg.FTPTimeout, logger)
	resolver := station.NewResolver(inv, logger)
	fetcher := climateweb.NewClient(cfg.HTTPTimeout, logger)

	store, err := sqlite.Open(cfg.DBPath, cfg.DBTable, cfg.RecreateTable, logger)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}()

	p := pipeline.New(resolver, fetcher, store, logger, metrics, pipeline.Options{
		City:           cfg.City,
		Province:       cfg.Province,
		StartYear:      cfg.StartYear,
		StartMonth:     cfg.StartMonth,
		EndYear:        cfg.EndYear,
		EndMonth:       cfg.EndMonth,
		AllStationData: cfg.AllStationData,
		Verbose:        cfg.Verbose,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("scrape failed", "error", runErr)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	return runErr
}
