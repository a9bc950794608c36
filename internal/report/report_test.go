package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"marketselect/internal/types"
)

func sampleRanked() []types.RankedMarket {
	return []types.RankedMarket{
		{
			CityKPI:   types.CityKPI{City: "Fort Worth", RentCAGR: 0.037, AvgVacancy: 0.06, AvgExpenseRatio: 0.4, Periods: 3},
			Composite: 0.81, Rank: 1, RentGrowthScore: 1, VacancyScore: 0.5, ExpenseScore: 0.7,
		},
		{
			CityKPI:   types.CityKPI{City: "Arlington", RentCAGR: 0.021, AvgVacancy: 0.08, AvgExpenseRatio: 0.45, Periods: 3},
			Composite: 0.35, Rank: 2, RentGrowthScore: 0, VacancyScore: 0.2, ExpenseScore: 0.1,
		},
	}
}

func sampleProForma() types.ProForma {
	return types.ProForma{
		Assumptions: types.Assumptions{
			City: "Fort Worth", AcquisitionCost: 1000000, Units: 10,
			MonthlyRentPerUnit: 1000, LTV: 0.7, InterestRate: 0.065,
			LoanTermYears: 30, HorizonYears: 2, ExitCapRate: 0.06, DiscountRate: 0.08,
		},
		Years: []types.ProFormaYear{
			{Year: 1, GrossPotentialIncome: 120000, VacancyLoss: 7200, EffectiveGrossIncome: 112800,
				OperatingExpenses: 45120, NOI: 67680, DebtService: 53100, CashFlow: 14580,
				CumulativeCashFlow: 14580, DSCR: 1.27},
			{Year: 2, GrossPotentialIncome: 123600, VacancyLoss: 7416, EffectiveGrossIncome: 116184,
				OperatingExpenses: 46473, NOI: 69711, DebtService: 53100, CashFlow: 16611,
				CumulativeCashFlow: 31191, DSCR: 1.31},
		},
		LoanAmount: 700000, InitialEquity: 300000, ExitValue: 1161850, LoanBalance: 683000,
		IRR: 0.142, IRRValid: true, NPV: 48000, PaybackYear: 0, PaybackAchieved: false,
		NOIMarginYear1: 0.6, CashOnCashYear1: 0.0486, AvgDSCR: 1.29,
	}
}

func sampleSensitivity() []types.SensitivityResult {
	return []types.SensitivityResult{
		{RentGrowthDelta: -0.01, ExitCapDelta: 0, IRR: 0.10, IRRValid: true, NPV: 10000, PaybackYear: 0},
		{RentGrowthDelta: 0, ExitCapDelta: 0, IRR: 0.14, IRRValid: true, NPV: 48000, PaybackYear: 0},
		{RentGrowthDelta: 0.01, ExitCapDelta: 0, IRRValid: false, NPV: 90000, PaybackYear: 9, PaybackAchieved: true},
	}
}

func TestRenderRanking(t *testing.T) {
	var buf bytes.Buffer
	RenderRanking(&buf, sampleRanked(), []types.ExcludedCity{{City: "Zero Base", Reason: "cannot compute CAGR from a non-positive baseline rent 0"}})

	out := buf.String()
	assert.Contains(t, out, "Fort Worth")
	assert.Contains(t, out, "Arlington")
	assert.Contains(t, out, "Zero Base")
	assert.Contains(t, out, "Excluded")
	// Top market is highlighted.
	assert.Contains(t, out, colorGreen)
}

func TestRenderProForma(t *testing.T) {
	var buf bytes.Buffer
	RenderProForma(&buf, sampleProForma())

	out := buf.String()
	assert.Contains(t, out, "Fort Worth")
	assert.Contains(t, out, "IRR")
	assert.Contains(t, out, "14.20%")
	assert.Contains(t, out, "not achieved within 2 years")

	achieved := sampleProForma()
	achieved.PaybackYear = 9
	achieved.PaybackAchieved = true
	buf.Reset()
	RenderProForma(&buf, achieved)
	assert.Contains(t, buf.String(), "year 9")
}

func TestRenderSensitivity(t *testing.T) {
	var buf bytes.Buffer
	RenderSensitivity(&buf, sampleSensitivity())

	out := buf.String()
	assert.Contains(t, out, "Sensitivity")
	assert.Contains(t, out, "14.00%")
	assert.Contains(t, out, "n/a")

	buf.Reset()
	RenderSensitivity(&buf, nil)
	assert.Empty(t, buf.String())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Strip the UTF-8 BOM before parsing.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteRanking(sampleRanked()))
	require.NoError(t, w.WriteProForma(sampleProForma()))
	require.NoError(t, w.WriteSensitivity(sampleSensitivity()))

	t.Run("ranking", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "ranking.csv"))
		require.Len(t, rows, 3) // header + 2 cities
		assert.Equal(t, "Rank", rows[0][0])
		assert.Equal(t, "Fort Worth", rows[1][1])
	})

	t.Run("pro forma", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "pro_forma.csv"))
		require.Len(t, rows, 3) // header + 2 years
		assert.Equal(t, "Year", rows[0][0])
	})

	t.Run("sensitivity", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "sensitivity.csv"))
		require.Len(t, rows, 4) // header + 3 cells
		// Invalid IRR exports as an empty cell, not a bogus number.
		assert.Equal(t, "", rows[3][4])
		assert.Equal(t, "9", rows[3][6])
		assert.Equal(t, "not achieved", rows[1][6])
	})

	t.Run("files carry a BOM", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "ranking.csv"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	})
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteWorkbook(dir, sampleRanked(), sampleProForma(), sampleSensitivity()))

	wb, err := excelize.OpenFile(filepath.Join(dir, "market_analysis.xlsx"))
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "Ranking")
	assert.Contains(t, sheets, "ProForma")
	assert.Contains(t, sheets, "Sensitivity")

	rows, err := wb.GetRows("Ranking")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "City", rows[0][1])
	assert.Equal(t, "Fort Worth", rows[1][1])
}

func TestComma(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567.4, "1,234,567"},
		{-53100, "-53,100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, comma(tt.in), "input %v", tt.in)
	}
}
