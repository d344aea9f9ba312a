// Package station resolves a city name to the weather stations that report
// for it, using the federal station inventory.
package station

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/climate-scraper/internal/domain"
)

// InventoryLister fetches the full station inventory. One call is made per
// resolution; the inventory source owns caching decisions, if any.
type InventoryLister interface {
	ListStations(ctx context.Context) ([]domain.StationDescriptor, error)
}

// Resolver filters the station inventory down to the stations matching a
// city and optional province.
type Resolver struct {
	inventory InventoryLister
	logger    *slog.Logger
}

// NewResolver creates a Resolver backed by the given inventory source.
func NewResolver(inventory InventoryLister, logger *slog.Logger) *Resolver {
	return &Resolver{inventory: inventory, logger: logger}
}

// Resolve returns the stations whose name equals the city or starts with
// the city followed by a space (suffixed names like "TORONTO CITY" count).
// A non-empty province further filters by province name. Both comparisons
// are case-insensitive. An empty result is domain.ErrNoLocationFound.
func (r *Resolver) Resolve(ctx context.Context, city, province string) ([]domain.StationDescriptor, error) {
	stations, err := r.inventory.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list station inventory: %w", err)
	}

	cityUpper := strings.ToUpper(strings.TrimSpace(city))
	provinceUpper := strings.ToUpper(strings.TrimSpace(province))

	var matches []domain.StationDescriptor
	for _, s := range stations {
		name := strings.ToUpper(s.Name)
		if name != cityUpper && !strings.HasPrefix(name, cityUpper+" ") {
			continue
		}
		if provinceUpper != "" && strings.ToUpper(s.Province) != provinceUpper {
			continue
		}
		matches = append(matches, s)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("resolve city %q province %q: %w", city, province, domain.ErrNoLocationFound)
	}

	r.logger.Debug("resolved stations",
		"city", city,
		"province", province,
		"inventory_size", len(stations),
		"matches", len(matches),
	)
	return matches, nil
}
