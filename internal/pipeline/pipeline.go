// Package pipeline orchestrates one scrape run: resolve stations, walk the
// date range, fetch and extract each station-month, reconcile, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-scraper/internal/domain"
	"github.com/couchcryptid/climate-scraper/internal/observability"
	"github.com/couchcryptid/climate-scraper/internal/scraper"
)

// StationResolver finds the stations reporting for a city.
type StationResolver interface {
	Resolve(ctx context.Context, city, province string) ([]domain.StationDescriptor, error)
}

// PageFetcher retrieves one daily-data page by URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// RecordStore persists one reconciled record, reporting whether the write
// fell back to the duplicate-key update path.
type RecordStore interface {
	Upsert(ctx context.Context, rec domain.ClimateRecord) (updated bool, err error)
}

// Options carry the scrape parameters for one run.
type Options struct {
	City     string
	Province string

	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int

	// AllStationData selects all-station retention; otherwise best-station.
	AllStationData bool

	// Verbose raises per-fetch progress logging from debug to info.
	Verbose bool
}

// Pipeline runs the scrape sequentially: one fetch at a time, one shared
// accumulating map. The bounded fan-out (months x stations) does not need
// parallelism for correctness.
type Pipeline struct {
	resolver StationResolver
	fetcher  PageFetcher
	store    RecordStore
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
	ready    atomic.Bool
}

// New creates a Pipeline with the given collaborators.
func New(resolver StationResolver, fetcher PageFetcher, store RecordStore, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// CheckReadiness returns nil once the run has fetched at least one page.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("scrape has not fetched any pages yet")
	}
	return nil
}

// Run executes one complete scrape. Station resolution failures are fatal;
// individual station-month fetch or parse misses are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.ScrapeRunning.Set(1)
	defer p.metrics.ScrapeRunning.Set(0)

	stations, err := p.resolver.Resolve(ctx, p.opts.City, p.opts.Province)
	if err != nil {
		return err
	}
	p.logger.Info("stations resolved",
		"city", p.opts.City,
		"province", p.opts.Province,
		"stations", len(stations),
	)

	dataMap, err := p.scrape(ctx, stations)
	if err != nil {
		return err
	}
	p.logger.Info("scrape finished", "records", dataMap.Len())

	return p.persist(ctx, dataMap)
}

func (p *Pipeline) scrape(ctx context.Context, stations []domain.StationDescriptor) (*domain.ClimateDataMap, error) {
	mode := domain.BestStation
	if p.opts.AllStationData {
		mode = domain.AllStations
	}
	dataMap := domain.NewClimateDataMap(mode)

	for year := p.opts.StartYear; year <= p.opts.EndYear; year++ {
		firstMonth, lastMonth := p.monthBounds(year)
		for month := firstMonth; month <= lastMonth; month++ {
			for _, station := range stations {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("scrape aborted: %w", err)
				}
				p.scrapeStationMonth(ctx, dataMap, station, year, month)
			}
		}
	}
	return dataMap, nil
}

// monthBounds returns the month sub-range for one year of the inclusive
// range: the start month applies only in the first year, the end month
// only in the last.
func (p *Pipeline) monthBounds(year int) (first, last int) {
	first, last = 1, 12
	if year == p.opts.StartYear {
		first = p.opts.StartMonth
	}
	if year == p.opts.EndYear {
		last = p.opts.EndMonth
	}
	return first, last
}

func (p *Pipeline) scrapeStationMonth(ctx context.Context, dataMap *domain.ClimateDataMap, station domain.StationDescriptor, year, month int) {
	provinceCode, ok := domain.ProvinceCode(station.Province)
	if !ok {
		p.logger.Warn("unknown province, skipping station",
			"station", station.Name,
			"province", station.Province,
		)
		return
	}

	url := scraper.DailyDataURL(station.StationID, provinceCode, year, month)
	p.logProgress("scraping climate data",
		"station_id", station.StationID,
		"station_name", station.Name,
		"year", year,
		"month", month,
		"url", url,
	)

	start := time.Now()
	page, err := p.fetcher.FetchPage(ctx, url)
	if err != nil {
		// One missing station-month is expected, not exceptional.
		p.metrics.FetchErrors.Inc()
		p.logger.Warn("fetch failed, skipping station-month",
			"station_id", station.StationID,
			"year", year,
			"month", month,
			"error", err,
		)
		return
	}
	p.metrics.PagesFetched.Inc()
	p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	records := scraper.Extract(page, scraper.MonthRequest{
		City:     p.opts.City,
		Province: station.Province,
		Station:  station,
		Year:     year,
		Month:    month,
		URL:      url,
	})
	if len(records) == 0 {
		p.metrics.EmptyMonths.Inc()
		p.logProgress("no report table for station-month",
			"station_id", station.StationID,
			"year", year,
			"month", month,
		)
		return
	}
	p.metrics.RowsExtracted.Add(float64(len(records)))

	for _, rec := range records {
		switch dataMap.Insert(rec) {
		case domain.OutcomeInserted:
			p.metrics.RecordsInserted.Inc()
		case domain.OutcomeReplaced:
			p.metrics.RecordsReplaced.Inc()
		case domain.OutcomeDiscarded:
			p.metrics.RecordsDiscarded.Inc()
		}
	}
}

func (p *Pipeline) persist(ctx context.Context, dataMap *domain.ClimateDataMap) error {
	if p.store == nil {
		p.logger.Info("no store configured, skipping persistence")
		return nil
	}

	stored, updated := 0, 0
	for _, rec := range dataMap.Records() {
		wasUpdate, err := p.store.Upsert(ctx, rec)
		if err != nil {
			return fmt.Errorf("persist climate data: %w", err)
		}
		p.metrics.RowsStored.Inc()
		stored++
		if wasUpdate {
			p.metrics.RowsUpdated.Inc()
			updated++
		}
	}

	p.logger.Info("records persisted", "stored", stored, "updated", updated)
	return nil
}

// logProgress writes per-fetch progress at info in verbose mode and debug
// otherwise.
func (p *Pipeline) logProgress(msg string, args ...any) {
	if p.opts.Verbose {
		p.logger.Info(msg, args...)
		return
	}
	p.logger.Debug(msg, args...)
}
