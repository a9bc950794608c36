package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"marketselect/internal/types"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// RenderRanking prints the ranked cities as an aligned table, highlighting the
// top market, followed by any cities excluded from KPI calculation.
func RenderRanking(w io.Writer, ranked []types.RankedMarket, excluded []types.ExcludedCity) {
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "%-4s %-20s %9s %9s %9s %9s %9s\n",
		"Rank", "City", "CAGR", "Vacancy", "ExpRatio", "Score", "Periods")
	for _, r := range ranked {
		line := fmt.Sprintf("%-4d %-20s %8.2f%% %8.2f%% %8.2f%% %9.4f %9d",
			r.Rank, r.City, r.RentCAGR*100, r.AvgVacancy*100, r.AvgExpenseRatio*100,
			r.Composite, r.Periods)
		if r.Rank == 1 {
			line = colorGreen + line + colorReset
		}
		fmt.Fprintln(w, line)
	}
	if len(excluded) > 0 {
		fmt.Fprintln(w)
		for _, e := range excluded {
			fmt.Fprintf(w, "%sExcluded%s %-20s : %s\n", colorRed, colorReset, e.City, e.Reason)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

// RenderProForma prints the year-by-year projection and the summary return
// metrics for one scenario.
func RenderProForma(w io.Writer, pf types.ProForma) {
	a := pf.Assumptions
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Feasibility: %s | %d units @ $%.0f/mo, $%s acquisition\n",
		a.City, a.Units, a.MonthlyRentPerUnit, comma(a.AcquisitionCost))
	fmt.Fprintf(w, "Financing: %.0f%% LTV @ %.2f%% / %dy  (equity $%s, debt $%s)\n",
		a.LTV*100, a.InterestRate*100, a.LoanTermYears,
		comma(pf.InitialEquity), comma(pf.LoanAmount))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%4s %12s %11s %12s %12s %12s %11s\n",
		"Year", "GPI", "VacLoss", "OpEx", "NOI", "DebtSvc", "CashFlow")
	for _, y := range pf.Years {
		fmt.Fprintf(w, "%4d %12s %11s %12s %12s %12s %11s\n",
			y.Year, comma(y.GrossPotentialIncome), comma(y.VacancyLoss),
			comma(y.OperatingExpenses), comma(y.NOI), comma(y.DebtService),
			comma(y.CashFlow))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Exit value (%.2f%% cap) : $%s (loan balance $%s)\n",
		a.ExitCapRate*100, comma(pf.ExitValue), comma(pf.LoanBalance))
	if pf.IRRValid {
		fmt.Fprintf(w, "IRR                   : %.2f%%\n", pf.IRR*100)
	} else {
		fmt.Fprintf(w, "IRR                   : n/a (no sign change in cash flows)\n")
	}
	fmt.Fprintf(w, "NPV @ %.1f%%            : $%s\n", a.DiscountRate*100, comma(pf.NPV))
	if pf.PaybackAchieved {
		fmt.Fprintf(w, "Payback               : year %d (nominal cash flow)\n", pf.PaybackYear)
	} else {
		fmt.Fprintf(w, "Payback               : %snot achieved within %d years%s\n",
			colorRed, a.HorizonYears, colorReset)
	}
	fmt.Fprintf(w, "NOI margin (yr 1)     : %.1f%%\n", pf.NOIMarginYear1*100)
	fmt.Fprintf(w, "Cash-on-cash (yr 1)   : %.2f%%\n", pf.CashOnCashYear1*100)
	if pf.AvgDSCR > 0 {
		fmt.Fprintf(w, "Avg DSCR              : %.2f\n", pf.AvgDSCR)
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

// RenderSensitivity prints the sensitivity grid as an IRR matrix, rent-growth
// deltas down, exit-cap deltas across.
func RenderSensitivity(w io.Writer, results []types.SensitivityResult) {
	if len(results) == 0 {
		return
	}

	var rentDeltas, capDeltas []float64
	seenRent := map[float64]bool{}
	seenCap := map[float64]bool{}
	for _, r := range results {
		if !seenRent[r.RentGrowthDelta] {
			seenRent[r.RentGrowthDelta] = true
			rentDeltas = append(rentDeltas, r.RentGrowthDelta)
		}
		if !seenCap[r.ExitCapDelta] {
			seenCap[r.ExitCapDelta] = true
			capDeltas = append(capDeltas, r.ExitCapDelta)
		}
	}
	cell := map[[2]float64]types.SensitivityResult{}
	for _, r := range results {
		cell[[2]float64{r.RentGrowthDelta, r.ExitCapDelta}] = r
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintln(w, "Sensitivity: IRR by rent growth (rows) x exit cap (cols)")
	fmt.Fprintf(w, "%12s", "")
	for _, dc := range capDeltas {
		fmt.Fprintf(w, " %+9.0fbp", dc*10000)
	}
	fmt.Fprintln(w)
	for _, dg := range rentDeltas {
		fmt.Fprintf(w, "%+10.2f%% ", dg*100)
		for _, dc := range capDeltas {
			r, ok := cell[[2]float64{dg, dc}]
			switch {
			case !ok || !r.IRRValid:
				fmt.Fprintf(w, " %10s", "n/a")
			case r.IRR < 0:
				fmt.Fprintf(w, " %s%9.2f%%%s", colorRed, r.IRR*100, colorReset)
			default:
				fmt.Fprintf(w, " %9.2f%%", r.IRR*100)
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

// comma formats a float as a whole-dollar figure with thousands separators.
func comma(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
