package station

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-scraper/internal/domain"
)

type stubInventory struct {
	stations []domain.StationDescriptor
	err      error
}

func (s *stubInventory) ListStations(context.Context) ([]domain.StationDescriptor, error) {
	return s.stations, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInventory() *stubInventory {
	return &stubInventory{stations: []domain.StationDescriptor{
		{Name: "TORONTO", StationID: 5051, Province: "ONTARIO"},
		{Name: "TORONTO CITY CENTRE", StationID: 48549, Province: "ONTARIO"},
		{Name: "TORONTOVILLE", StationID: 99999, Province: "ONTARIO"},
		{Name: "OTTAWA CDA", StationID: 4333, Province: "ONTARIO"},
		{Name: "VANCOUVER INTL A", StationID: 889, Province: "BRITISH COLUMBIA"},
	}}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("exact and prefixed names match", func(t *testing.T) {
		r := NewResolver(testInventory(), discardLogger())

		matches, err := r.Resolve(ctx, "Toronto", "")
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, int64(5051), matches[0].StationID)
		assert.Equal(t, int64(48549), matches[1].StationID)
	})

	t.Run("suffix without separator does not match", func(t *testing.T) {
		r := NewResolver(testInventory(), discardLogger())

		matches, err := r.Resolve(ctx, "Toronto", "")
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, "TORONTOVILLE", m.Name)
		}
	})

	t.Run("province filter applies", func(t *testing.T) {
		r := NewResolver(testInventory(), discardLogger())

		matches, err := r.Resolve(ctx, "Vancouver", "British Columbia")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, int64(889), matches[0].StationID)
	})

	t.Run("no station for city", func(t *testing.T) {
		r := NewResolver(testInventory(), discardLogger())

		_, err := r.Resolve(ctx, "Saskatoon", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoLocationFound)
	})

	t.Run("city matches but province does not", func(t *testing.T) {
		r := NewResolver(testInventory(), discardLogger())

		_, err := r.Resolve(ctx, "Toronto", "Quebec")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoLocationFound)
	})

	t.Run("inventory failure is wrapped", func(t *testing.T) {
		inv := &stubInventory{err: errors.New("ftp connection refused")}
		r := NewResolver(inv, discardLogger())

		_, err := r.Resolve(ctx, "Toronto", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list station inventory")
		assert.NotErrorIs(t, err, domain.ErrNoLocationFound)
	})
}
