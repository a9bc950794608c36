package kpi

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"marketselect/internal/types"
)

// Compute derives per-city KPIs from the loaded market records. Cities whose
// rent history cannot support a CAGR (non-positive baseline or a single
// period) are excluded with a warning rather than failing the run; the
// exclusions are returned so the report can surface them.
func Compute(records []types.MarketRecord) ([]types.CityKPI, []types.ExcludedCity) {
	byCity := make(map[string][]types.MarketRecord)
	var order []string
	for _, r := range records {
		if _, ok := byCity[r.City]; !ok {
			order = append(order, r.City)
		}
		byCity[r.City] = append(byCity[r.City], r)
	}
	sort.Strings(order)

	var kpis []types.CityKPI
	var excluded []types.ExcludedCity
	for _, city := range order {
		k, err := computeCity(city, byCity[city])
		if err != nil {
			slog.Warn("excluding city from KPI calculation", "city", city, "reason", err)
			excluded = append(excluded, types.ExcludedCity{City: city, Reason: err.Error()})
			continue
		}
		kpis = append(kpis, k)
	}
	return kpis, excluded
}

// computeCity derives the KPIs for a single city from its period history.
func computeCity(city string, recs []types.MarketRecord) (types.CityKPI, error) {
	// Sort by period; on duplicate periods the later record wins.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Period < recs[j].Period })
	deduped := recs[:0:0]
	for _, r := range recs {
		if n := len(deduped); n > 0 && deduped[n-1].Period == r.Period {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	recs = deduped

	first, last := recs[0], recs[len(recs)-1]
	years := last.Period - first.Period

	cagr, err := CAGR(first.GrossRent, last.GrossRent, float64(years))
	if err != nil {
		return types.CityKPI{}, err
	}

	var vacancySum, expenseSum float64
	expensePeriods := 0
	for _, r := range recs {
		vacancySum += r.VacancyRate
		income := r.GrossIncome
		if income <= 0 {
			income = r.GrossRent
		}
		if income > 0 {
			expenseSum += r.OperatingExpenses / income
			expensePeriods++
		}
	}
	avgExpense := 0.0
	if expensePeriods > 0 {
		avgExpense = expenseSum / float64(expensePeriods)
	}

	return types.CityKPI{
		City:            city,
		RentCAGR:        cagr,
		AvgVacancy:      vacancySum / float64(len(recs)),
		AvgExpenseRatio: avgExpense,
		Periods:         len(recs),
		FirstPeriod:     first.Period,
		LastPeriod:      last.Period,
		Latitude:        last.Latitude,
		Longitude:       last.Longitude,
	}, nil
}

// CAGR computes the compound annual growth rate from start to end over the
// given number of years. It is undefined for non-positive endpoints or a
// non-positive span.
func CAGR(start, end, years float64) (float64, error) {
	if years <= 0 {
		return 0, fmt.Errorf("cannot compute CAGR over %v years", years)
	}
	if start <= 0 {
		return 0, fmt.Errorf("cannot compute CAGR from a non-positive baseline rent %v", start)
	}
	if end <= 0 {
		return 0, fmt.Errorf("cannot compute CAGR to a non-positive final rent %v", end)
	}
	return math.Pow(end/start, 1/years) - 1, nil
}
