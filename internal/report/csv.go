package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"marketselect/internal/types"
)

// CSVWriter exports pipeline results as CSV files under a single output
// directory.
type CSVWriter struct {
	outputDir string
	bom       bool // prefix files with a UTF-8 BOM so Excel opens them cleanly
}

// NewCSVWriter creates a CSV writer rooted at outputDir.
func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir, bom: true}
}

// WriteRanking writes ranking.csv.
func (w *CSVWriter) WriteRanking(ranked []types.RankedMarket) error {
	headers := []string{"Rank", "City", "Rent_CAGR", "Avg_Vacancy", "Avg_Expense_Ratio",
		"Rent_Growth_Score", "Vacancy_Score", "Expense_Score", "Composite", "Periods"}
	records := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		records = append(records, []string{
			strconv.Itoa(r.Rank), r.City,
			f(r.RentCAGR), f(r.AvgVacancy), f(r.AvgExpenseRatio),
			f(r.RentGrowthScore), f(r.VacancyScore), f(r.ExpenseScore),
			f(r.Composite), strconv.Itoa(r.Periods),
		})
	}
	return w.write("ranking.csv", headers, records)
}

// WriteProForma writes pro_forma.csv for the selected scenario.
func (w *CSVWriter) WriteProForma(pf types.ProForma) error {
	headers := []string{"Year", "Gross_Potential_Income", "Vacancy_Loss",
		"Effective_Gross_Income", "Operating_Expenses", "NOI", "Debt_Service",
		"Cash_Flow", "Cumulative_Cash_Flow", "DSCR"}
	records := make([][]string, 0, len(pf.Years))
	for _, y := range pf.Years {
		records = append(records, []string{
			strconv.Itoa(y.Year), f(y.GrossPotentialIncome), f(y.VacancyLoss),
			f(y.EffectiveGrossIncome), f(y.OperatingExpenses), f(y.NOI),
			f(y.DebtService), f(y.CashFlow), f(y.CumulativeCashFlow), f(y.DSCR),
		})
	}
	return w.write("pro_forma.csv", headers, records)
}

// WriteSensitivity writes sensitivity.csv, one row per grid cell.
func (w *CSVWriter) WriteSensitivity(results []types.SensitivityResult) error {
	headers := []string{"Rent_Growth_Delta", "Exit_Cap_Delta", "Rent_Growth",
		"Exit_Cap_Rate", "IRR", "NPV", "Payback_Year", "Payback_Achieved"}
	records := make([][]string, 0, len(results))
	for _, r := range results {
		irr := ""
		if r.IRRValid {
			irr = f(r.IRR)
		}
		payback := "not achieved"
		if r.PaybackAchieved {
			payback = strconv.Itoa(r.PaybackYear)
		}
		records = append(records, []string{
			f(r.RentGrowthDelta), f(r.ExitCapDelta), f(r.RentGrowth),
			f(r.ExitCapRate), irr, f(r.NPV), payback,
			strconv.FormatBool(r.PaybackAchieved),
		})
	}
	return w.write("sensitivity.csv", headers, records)
}

func (w *CSVWriter) write(name string, headers []string, records [][]string) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(w.outputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if w.bom {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	slog.Info("wrote CSV report", "path", path, "records", len(records))
	return nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
