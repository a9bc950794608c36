package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketselect/internal/config"
	"marketselect/internal/types"
)

var testWeights = config.WeightsConfig{RentGrowth: 0.5, Vacancy: 0.3, Expense: 0.2}

func kpiRow(city string, cagr, vacancy, expense float64) types.CityKPI {
	return types.CityKPI{City: city, RentCAGR: cagr, AvgVacancy: vacancy, AvgExpenseRatio: expense}
}

func TestRank(t *testing.T) {
	t.Run("total order by composite", func(t *testing.T) {
		kpis := []types.CityKPI{
			kpiRow("Weak", 0.01, 0.10, 0.50),
			kpiRow("Strong", 0.05, 0.04, 0.35),
			kpiRow("Middle", 0.03, 0.07, 0.42),
		}
		ranked := Rank(kpis, testWeights)
		require.Len(t, ranked, 3)

		assert.Equal(t, "Strong", ranked[0].City)
		assert.Equal(t, "Middle", ranked[1].City)
		assert.Equal(t, "Weak", ranked[2].City)
		for i, r := range ranked {
			assert.Equal(t, i+1, r.Rank)
		}
		// Higher composite always ranks above lower.
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].Composite, ranked[i].Composite)
		}
	})

	t.Run("lower vacancy and expense score higher", func(t *testing.T) {
		kpis := []types.CityKPI{
			kpiRow("Lean", 0.03, 0.04, 0.35),
			kpiRow("Heavy", 0.03, 0.09, 0.50),
		}
		ranked := Rank(kpis, testWeights)
		require.Len(t, ranked, 2)
		assert.Equal(t, "Lean", ranked[0].City)
		assert.Greater(t, ranked[0].VacancyScore, ranked[1].VacancyScore)
		assert.Greater(t, ranked[0].ExpenseScore, ranked[1].ExpenseScore)
	})

	t.Run("single city normalizes to neutral", func(t *testing.T) {
		ranked := Rank([]types.CityKPI{kpiRow("Only", 0.04, 0.05, 0.40)}, testWeights)
		require.Len(t, ranked, 1)
		r := ranked[0]
		assert.Equal(t, 1, r.Rank)
		assert.Equal(t, neutralScore, r.RentGrowthScore)
		assert.Equal(t, neutralScore, r.VacancyScore)
		assert.Equal(t, neutralScore, r.ExpenseScore)
		want := neutralScore * (testWeights.RentGrowth + testWeights.Vacancy + testWeights.Expense)
		assert.InDelta(t, want, r.Composite, 1e-12)
	})

	t.Run("identical cities tie-break by name", func(t *testing.T) {
		kpis := []types.CityKPI{
			kpiRow("Zeta", 0.03, 0.05, 0.40),
			kpiRow("Alpha", 0.03, 0.05, 0.40),
			kpiRow("Mid", 0.03, 0.05, 0.40),
		}
		ranked := Rank(kpis, testWeights)
		require.Len(t, ranked, 3)
		assert.Equal(t, "Alpha", ranked[0].City)
		assert.Equal(t, "Mid", ranked[1].City)
		assert.Equal(t, "Zeta", ranked[2].City)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, Rank(nil, testWeights))
	})
}

func TestRankScaleInvariance(t *testing.T) {
	kpis := []types.CityKPI{
		kpiRow("A", 0.010, 0.10, 0.50),
		kpiRow("B", 0.050, 0.04, 0.35),
		kpiRow("C", 0.030, 0.07, 0.42),
		kpiRow("D", 0.022, 0.05, 0.47),
	}
	base := Rank(kpis, testWeights)

	// Multiplying one raw dimension by a positive constant must not change
	// the resulting rank order.
	for _, scale := range []float64{0.1, 3, 1000} {
		scaled := make([]types.CityKPI, len(kpis))
		copy(scaled, kpis)
		for i := range scaled {
			scaled[i].AvgVacancy *= scale
		}
		got := Rank(scaled, testWeights)
		require.Len(t, got, len(base))
		for i := range base {
			assert.Equal(t, base[i].City, got[i].City, "scale=%v", scale)
			assert.Equal(t, base[i].Rank, got[i].Rank, "scale=%v", scale)
		}
	}
}

func TestMinMaxScale(t *testing.T) {
	t.Run("maps onto unit interval", func(t *testing.T) {
		got := minMaxScale([]float64{2, 4, 6}, false)
		assert.Equal(t, []float64{0, 0.5, 1}, got)
	})
	t.Run("invert flips the scale", func(t *testing.T) {
		got := minMaxScale([]float64{2, 4, 6}, true)
		assert.Equal(t, []float64{1, 0.5, 0}, got)
	})
	t.Run("degenerate dimension is neutral", func(t *testing.T) {
		got := minMaxScale([]float64{5, 5, 5}, false)
		assert.Equal(t, []float64{neutralScore, neutralScore, neutralScore}, got)
	})
}

func TestTop(t *testing.T) {
	_, ok := Top(nil)
	assert.False(t, ok)

	ranked := Rank([]types.CityKPI{
		kpiRow("A", 0.01, 0.08, 0.5),
		kpiRow("B", 0.05, 0.04, 0.4),
	}, testWeights)
	top, ok := Top(ranked)
	require.True(t, ok)
	assert.Equal(t, "B", top.City)
	assert.Equal(t, 1, top.Rank)
}
