package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketselect/internal/types"
)

func TestCAGR(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		end     float64
		years   float64
		want    float64
		wantErr bool
	}{
		{"rent 1000 to 1200 over 5 years", 1000, 1200, 5, 0.03714, false},
		{"flat rent", 1500, 1500, 4, 0, false},
		{"declining rent", 1200, 1000, 5, -0.03581, false},
		{"doubling over one year", 100, 200, 1, 1.0, false},
		{"zero baseline", 0, 1200, 5, 0, true},
		{"negative baseline", -10, 1200, 5, 0, true},
		{"zero final value", 1000, 0, 5, 0, true},
		{"zero years", 1000, 1200, 0, 0, true},
		{"negative years", 1000, 1200, -3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CAGR(tt.start, tt.end, tt.years)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestCAGRClosedForm(t *testing.T) {
	// CAGR must match the closed-form formula within floating-point tolerance
	// for any positive endpoints and span.
	cases := [][3]float64{
		{800, 1333, 7},
		{1, 2, 10},
		{2500, 2510, 1},
	}
	for _, c := range cases {
		got, err := CAGR(c[0], c[1], c[2])
		require.NoError(t, err)
		want := math.Pow(c[1]/c[0], 1/c[2]) - 1
		assert.InEpsilon(t, want, got, 1e-12)
	}
}

func rec(city string, period int, rent, vacancy, opex float64) types.MarketRecord {
	return types.MarketRecord{
		City:              city,
		Period:            period,
		GrossRent:         rent,
		VacancyRate:       vacancy,
		OperatingExpenses: opex,
		GrossIncome:       rent,
	}
}

func TestCompute(t *testing.T) {
	t.Run("single city", func(t *testing.T) {
		records := []types.MarketRecord{
			rec("Fort Worth", 2019, 1000, 0.05, 400),
			rec("Fort Worth", 2021, 1100, 0.07, 430),
			rec("Fort Worth", 2024, 1200, 0.06, 470),
		}
		kpis, excluded := Compute(records)
		require.Len(t, kpis, 1)
		assert.Empty(t, excluded)

		k := kpis[0]
		assert.Equal(t, "Fort Worth", k.City)
		assert.Equal(t, 3, k.Periods)
		assert.Equal(t, 2019, k.FirstPeriod)
		assert.Equal(t, 2024, k.LastPeriod)
		assert.InDelta(t, 0.03714, k.RentCAGR, 0.0001) // 1000 -> 1200 over 5 years
		assert.InDelta(t, 0.06, k.AvgVacancy, 1e-9)    // [5%, 7%, 6%] -> 6%
		expWant := (400.0/1000 + 430.0/1100 + 470.0/1200) / 3
		assert.InDelta(t, expWant, k.AvgExpenseRatio, 1e-9)
	})

	t.Run("cities are excluded, not fatal", func(t *testing.T) {
		records := []types.MarketRecord{
			rec("Arlington", 2020, 900, 0.08, 350),
			rec("Arlington", 2024, 1000, 0.06, 380),
			rec("Zero Base", 2020, 0, 0.05, 100),
			rec("Zero Base", 2024, 1200, 0.05, 400),
			rec("One Period", 2024, 1100, 0.04, 420),
		}
		kpis, excluded := Compute(records)
		require.Len(t, kpis, 1)
		assert.Equal(t, "Arlington", kpis[0].City)

		require.Len(t, excluded, 2)
		names := []string{excluded[0].City, excluded[1].City}
		assert.Contains(t, names, "Zero Base")
		assert.Contains(t, names, "One Period")
		for _, e := range excluded {
			assert.NotEmpty(t, e.Reason)
		}
	})

	t.Run("duplicate period keeps last record", func(t *testing.T) {
		records := []types.MarketRecord{
			rec("Keller", 2020, 1000, 0.05, 400),
			rec("Keller", 2024, 1100, 0.05, 440),
			rec("Keller", 2024, 1300, 0.05, 500), // restatement wins
		}
		kpis, excluded := Compute(records)
		require.Len(t, kpis, 1)
		assert.Empty(t, excluded)
		assert.Equal(t, 2, kpis[0].Periods)
		want := math.Pow(1300.0/1000.0, 1.0/4.0) - 1
		assert.InDelta(t, want, kpis[0].RentCAGR, 1e-12)
	})

	t.Run("unsorted input is sorted by period", func(t *testing.T) {
		records := []types.MarketRecord{
			rec("Denton", 2024, 1200, 0.06, 480),
			rec("Denton", 2019, 1000, 0.05, 400),
		}
		kpis, _ := Compute(records)
		require.Len(t, kpis, 1)
		assert.InDelta(t, 0.03714, kpis[0].RentCAGR, 0.0001)
	})

	t.Run("empty input", func(t *testing.T) {
		kpis, excluded := Compute(nil)
		assert.Empty(t, kpis)
		assert.Empty(t, excluded)
	})
}
