package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"marketselect/internal/kpi"
	"marketselect/internal/types"
)

// cityHistory fetches the full period history of one city from a live source.
type cityHistory interface {
	QueryCityRecords(ctx context.Context, city string) ([]types.MarketRecord, error)
}

// Results bundles one full pipeline run. Everything is computed once and read
// thereafter; the interactive loop and the JSON API both serve from it.
type Results struct {
	Ranked      []types.RankedMarket      `json:"ranked"`
	Excluded    []types.ExcludedCity      `json:"excluded"`
	ProForma    types.ProForma            `json:"pro_forma"`
	Sensitivity []types.SensitivityResult `json:"sensitivity"`

	// History is set when the data came from the database, so that
	// interactive lookups recompute a city's KPIs from fresh rows.
	History cityHistory `json:"-"`
}

// refreshedKPI recomputes a city's KPIs from the live source when one is
// available. Any failure falls back to the cached values from the ranking run.
func refreshedKPI(hist cityHistory, cached types.CityKPI) types.CityKPI {
	if hist == nil {
		return cached
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recs, err := hist.QueryCityRecords(ctx, cached.City)
	if err != nil {
		slog.Warn("city history refresh failed, using cached KPIs", "city", cached.City, "error", err)
		return cached
	}
	kpis, _ := kpi.Compute(recs)
	for _, k := range kpis {
		if normalize(k.City) == normalize(cached.City) {
			return k
		}
	}
	slog.Warn("city history refresh returned no usable rows, using cached KPIs", "city", cached.City)
	return cached
}

// findCity looks up a ranked market by normalized city name.
func (r *Results) findCity(city string) (types.RankedMarket, bool) {
	norm := normalize(city)
	for _, m := range r.Ranked {
		if normalize(m.City) == norm {
			return m, true
		}
	}
	return types.RankedMarket{}, false
}

// normalize produces a canonical form of a city-name key.
func normalize(city string) string {
	city = strings.ToUpper(strings.TrimSpace(city))
	city = strings.ReplaceAll(city, ",", "")
	city = strings.Join(strings.Fields(city), " ") // collapse whitespace
	return city
}
