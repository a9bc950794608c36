package rank

import (
	"sort"

	"marketselect/internal/config"
	"marketselect/internal/types"
)

// neutralScore is assigned on a dimension where every candidate is identical
// (including the single-city case), so min-max scaling never divides by zero.
const neutralScore = 0.5

// Rank normalizes each KPI dimension across the candidate set and produces a
// total ordering by weighted composite score. Rent growth scores up; vacancy
// and expense scores are inverted so lower raw values score higher. Ties on
// the composite are broken by city name ascending so the ordering is
// deterministic.
func Rank(kpis []types.CityKPI, weights config.WeightsConfig) []types.RankedMarket {
	if len(kpis) == 0 {
		return nil
	}

	rentScores := minMaxScale(pick(kpis, func(k types.CityKPI) float64 { return k.RentCAGR }), false)
	vacScores := minMaxScale(pick(kpis, func(k types.CityKPI) float64 { return k.AvgVacancy }), true)
	expScores := minMaxScale(pick(kpis, func(k types.CityKPI) float64 { return k.AvgExpenseRatio }), true)

	ranked := make([]types.RankedMarket, len(kpis))
	for i, k := range kpis {
		ranked[i] = types.RankedMarket{
			CityKPI:         k,
			RentGrowthScore: rentScores[i],
			VacancyScore:    vacScores[i],
			ExpenseScore:    expScores[i],
			Composite: weights.RentGrowth*rentScores[i] +
				weights.Vacancy*vacScores[i] +
				weights.Expense*expScores[i],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].City < ranked[j].City
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Top returns the best-ranked market, or false for an empty ranking.
func Top(ranked []types.RankedMarket) (types.RankedMarket, bool) {
	if len(ranked) == 0 {
		return types.RankedMarket{}, false
	}
	return ranked[0], true
}

// minMaxScale maps values onto [0,1]. With invert set, lower raw values map
// to higher scores. A degenerate dimension (max == min) scales every value to
// the neutral score.
func minMaxScale(values []float64, invert bool) []float64 {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	scaled := make([]float64, len(values))
	if max == min {
		for i := range scaled {
			scaled[i] = neutralScore
		}
		return scaled
	}
	for i, v := range values {
		s := (v - min) / (max - min)
		if invert {
			s = 1 - s
		}
		scaled[i] = s
	}
	return scaled
}

func pick(kpis []types.CityKPI, f func(types.CityKPI) float64) []float64 {
	out := make([]float64, len(kpis))
	for i, k := range kpis {
		out[i] = f(k)
	}
	return out
}
