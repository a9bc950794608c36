package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"marketselect/internal/types"
)

// WriteWorkbook exports the full analysis as one Excel workbook with Ranking,
// ProForma, and Sensitivity sheets.
func WriteWorkbook(outputDir string, ranked []types.RankedMarket, pf types.ProForma, results []types.SensitivityResult) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, "market_analysis.xlsx")

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", "Ranking"); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRankingSheet(wb, ranked); err != nil {
		return err
	}

	if _, err := wb.NewSheet("ProForma"); err != nil {
		return fmt.Errorf("failed to add ProForma sheet: %w", err)
	}
	if err := writeProFormaSheet(wb, pf); err != nil {
		return err
	}

	if _, err := wb.NewSheet("Sensitivity"); err != nil {
		return fmt.Errorf("failed to add Sensitivity sheet: %w", err)
	}
	if err := writeSensitivitySheet(wb, results); err != nil {
		return err
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	slog.Info("wrote Excel workbook", "path", path)
	return nil
}

func writeRankingSheet(wb *excelize.File, ranked []types.RankedMarket) error {
	headers := []interface{}{"Rank", "City", "Rent CAGR", "Avg Vacancy", "Avg Expense Ratio",
		"Rent Growth Score", "Vacancy Score", "Expense Score", "Composite", "Periods"}
	if err := wb.SetSheetRow("Ranking", "A1", &headers); err != nil {
		return fmt.Errorf("failed to write ranking header: %w", err)
	}
	for i, r := range ranked {
		row := []interface{}{r.Rank, r.City, r.RentCAGR, r.AvgVacancy, r.AvgExpenseRatio,
			r.RentGrowthScore, r.VacancyScore, r.ExpenseScore, r.Composite, r.Periods}
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow("Ranking", cell, &row); err != nil {
			return fmt.Errorf("failed to write ranking row: %w", err)
		}
	}
	return nil
}

func writeProFormaSheet(wb *excelize.File, pf types.ProForma) error {
	headers := []interface{}{"Year", "GPI", "Vacancy Loss", "EGI", "OpEx", "NOI",
		"Debt Service", "Cash Flow", "Cumulative Cash Flow", "DSCR"}
	if err := wb.SetSheetRow("ProForma", "A1", &headers); err != nil {
		return fmt.Errorf("failed to write pro forma header: %w", err)
	}
	row := 2
	for _, y := range pf.Years {
		vals := []interface{}{y.Year, y.GrossPotentialIncome, y.VacancyLoss,
			y.EffectiveGrossIncome, y.OperatingExpenses, y.NOI, y.DebtService,
			y.CashFlow, y.CumulativeCashFlow, y.DSCR}
		if err := wb.SetSheetRow("ProForma", fmt.Sprintf("A%d", row), &vals); err != nil {
			return fmt.Errorf("failed to write pro forma row: %w", err)
		}
		row++
	}

	// Summary block below the projection table.
	row++
	summary := [][2]interface{}{
		{"City", pf.Assumptions.City},
		{"Initial Equity", pf.InitialEquity},
		{"Loan Amount", pf.LoanAmount},
		{"Exit Value", pf.ExitValue},
		{"IRR", pf.IRR},
		{"NPV", pf.NPV},
		{"Payback Year", pf.PaybackYear},
		{"Payback Achieved", pf.PaybackAchieved},
		{"NOI Margin Yr1", pf.NOIMarginYear1},
		{"Cash-on-Cash Yr1", pf.CashOnCashYear1},
		{"Avg DSCR", pf.AvgDSCR},
	}
	for _, kv := range summary {
		vals := []interface{}{kv[0], kv[1]}
		if err := wb.SetSheetRow("ProForma", fmt.Sprintf("A%d", row), &vals); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		row++
	}
	return nil
}

func writeSensitivitySheet(wb *excelize.File, results []types.SensitivityResult) error {
	headers := []interface{}{"Rent Growth Delta", "Exit Cap Delta", "Rent Growth",
		"Exit Cap Rate", "IRR", "NPV", "Payback Year", "Payback Achieved"}
	if err := wb.SetSheetRow("Sensitivity", "A1", &headers); err != nil {
		return fmt.Errorf("failed to write sensitivity header: %w", err)
	}
	for i, r := range results {
		var irr interface{}
		if r.IRRValid {
			irr = r.IRR
		} else {
			irr = "n/a"
		}
		row := []interface{}{r.RentGrowthDelta, r.ExitCapDelta, r.RentGrowth,
			r.ExitCapRate, irr, r.NPV, r.PaybackYear, r.PaybackAchieved}
		if err := wb.SetSheetRow("Sensitivity", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write sensitivity row: %w", err)
		}
	}
	return nil
}
