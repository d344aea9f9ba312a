package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-scraper/internal/domain"
	"github.com/couchcryptid/climate-scraper/internal/observability"
)

type stubResolver struct {
	stations []domain.StationDescriptor
	err      error
}

func (s *stubResolver) Resolve(context.Context, string, string) ([]domain.StationDescriptor, error) {
	return s.stations, s.err
}

// stubFetcher serves canned pages by URL and records the order of requests.
type stubFetcher struct {
	pages map[string]string
	errs  map[string]error
	urls  []string
}

func (f *stubFetcher) FetchPage(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

type memStore struct {
	records []domain.ClimateRecord
	err     error
}

func (s *memStore) Upsert(_ context.Context, rec domain.ClimateRecord) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.records = append(s.records, rec)
	return false, nil
}

func reportPage(monthName string, year int, days ...string) string {
	var rows strings.Builder
	for i, temp := range days {
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td></tr>\n", i+1, temp)
	}
	return fmt.Sprintf(`<table>
<caption>Daily Data Report for %s %d</caption>
<thead>
<tr><th>DAY</th><th><a>Max Temp</a></th></tr>
<tr><th colspan="2"></th></tr>
</thead>
<tbody>
%s</tbody>
</table>`, monthName, year, rows.String())
}

func testPipeline(resolver StationResolver, fetcher PageFetcher, store RecordStore, opts Options) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(resolver, fetcher, store, logger, observability.NewMetricsForTesting(), opts)
}

func torontoStation() domain.StationDescriptor {
	return domain.StationDescriptor{Name: "TORONTO CITY", StationID: 5051, Province: "ONTARIO"}
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("scrapes every month of the range in order", func(t *testing.T) {
		resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
		fetcher := &stubFetcher{pages: map[string]string{}}
		store := &memStore{}

		p := testPipeline(resolver, fetcher, store, Options{
			City:           "Toronto",
			StartYear:      2018,
			StartMonth:     11,
			EndYear:        2019,
			EndMonth:       2,
			AllStationData: true,
		})

		require.NoError(t, p.Run(ctx))

		// Nov 2018, Dec 2018, Jan 2019, Feb 2019.
		require.Len(t, fetcher.urls, 4)
		assert.Contains(t, fetcher.urls[0], "Month=11&Year=2018")
		assert.Contains(t, fetcher.urls[1], "Month=12&Year=2018")
		assert.Contains(t, fetcher.urls[2], "Month=1&Year=2019")
		assert.Contains(t, fetcher.urls[3], "Month=2&Year=2019")
	})

	t.Run("extracted records reach the store", func(t *testing.T) {
		resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
		fetcher := &stubFetcher{pages: map[string]string{}}
		store := &memStore{}

		p := testPipeline(resolver, fetcher, store, Options{
			City:           "Toronto",
			StartYear:      2019,
			StartMonth:     3,
			EndYear:        2019,
			EndMonth:       3,
			AllStationData: true,
		})

		url := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5051&Prov=ON&Month=3&Year=2019"
		fetcher.pages[url] = reportPage("March", 2019, "2.3", "-1.0")

		require.NoError(t, p.Run(ctx))

		require.Len(t, store.records, 2)
		assert.Equal(t, "Toronto", store.records[0].Str(domain.ColCity))
		assert.Equal(t, "TORONTO CITY", store.records[0].Str(domain.ColStationName))
	})

	t.Run("no stations is fatal", func(t *testing.T) {
		resolver := &stubResolver{err: fmt.Errorf("resolve: %w", domain.ErrNoLocationFound)}
		p := testPipeline(resolver, &stubFetcher{}, &memStore{}, Options{City: "Nowhere"})

		err := p.Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoLocationFound)
	})

	t.Run("fetch failure skips the station-month", func(t *testing.T) {
		resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
		badURL := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5051&Prov=ON&Month=3&Year=2019"
		goodURL := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5051&Prov=ON&Month=4&Year=2019"
		fetcher := &stubFetcher{
			pages: map[string]string{goodURL: reportPage("April", 2019, "8.0")},
			errs:  map[string]error{badURL: errors.New("gateway timeout")},
		}
		store := &memStore{}

		p := testPipeline(resolver, fetcher, store, Options{
			City:           "Toronto",
			StartYear:      2019,
			StartMonth:     3,
			EndYear:        2019,
			EndMonth:       4,
			AllStationData: true,
		})

		require.NoError(t, p.Run(ctx))
		require.Len(t, store.records, 1)
		month, _ := store.records[0].Int(domain.ColMonth)
		assert.Equal(t, int64(4), month)
	})

	t.Run("best-station mode keeps the richer record per day", func(t *testing.T) {
		stations := []domain.StationDescriptor{
			{Name: "TORONTO CITY", StationID: 5051, Province: "ONTARIO"},
			{Name: "TORONTO INTL A", StationID: 5097, Province: "ONTARIO"},
		}
		resolver := &stubResolver{stations: stations}

		cityURL := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5051&Prov=ON&Month=3&Year=2019"
		intlURL := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5097&Prov=ON&Month=3&Year=2019"
		fetcher := &stubFetcher{pages: map[string]string{
			// The city station reports a missing observation, the airport a value.
			cityURL: reportPage("March", 2019, "M"),
			intlURL: reportPage("March", 2019, "4.5"),
		}}
		store := &memStore{}

		p := testPipeline(resolver, fetcher, store, Options{
			City:           "Toronto",
			StartYear:      2019,
			StartMonth:     3,
			EndYear:        2019,
			EndMonth:       3,
			AllStationData: false,
		})

		require.NoError(t, p.Run(ctx))

		require.Len(t, store.records, 1)
		assert.Equal(t, "TORONTO INTL A", store.records[0].Str(domain.ColStationName))
	})

	t.Run("persistence failure aborts the run", func(t *testing.T) {
		resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
		url := "https://climate.weather.gc.ca/climate_data/daily_data_e.html?StationID=5051&Prov=ON&Month=3&Year=2019"
		fetcher := &stubFetcher{pages: map[string]string{url: reportPage("March", 2019, "2.3")}}
		store := &memStore{err: errors.New("disk full")}

		p := testPipeline(resolver, fetcher, store, Options{
			City:           "Toronto",
			StartYear:      2019,
			StartMonth:     3,
			EndYear:        2019,
			EndMonth:       3,
			AllStationData: true,
		})

		err := p.Run(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "persist climate data")
	})

	t.Run("cancelled context stops the scrape", func(t *testing.T) {
		resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
		p := testPipeline(resolver, &stubFetcher{}, &memStore{}, Options{
			City:           "Toronto",
			StartYear:      2019,
			StartMonth:     1,
			EndYear:        2019,
			EndMonth:       12,
			AllStationData: true,
		})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := p.Run(cancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipeline_CheckReadiness(t *testing.T) {
	ctx := context.Background()

	resolver := &stubResolver{stations: []domain.StationDescriptor{torontoStation()}}
	fetcher := &stubFetcher{pages: map[string]string{}}
	p := testPipeline(resolver, fetcher, &memStore{}, Options{
		City:           "Toronto",
		StartYear:      2019,
		StartMonth:     3,
		EndYear:        2019,
		EndMonth:       3,
		AllStationData: true,
	})

	require.Error(t, p.CheckReadiness(ctx))

	require.NoError(t, p.Run(ctx))
	assert.NoError(t, p.CheckReadiness(ctx))
}
