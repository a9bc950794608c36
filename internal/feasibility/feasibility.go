package feasibility

import (
	"log/slog"
	"math"

	"marketselect/internal/config"
	"marketselect/internal/types"
)

// Run projects the pro forma for one scenario. It never fails: scenarios
// whose cash flows never recover the equity simply report payback as not
// achieved, and an IRR without a sign change in the cash-flow vector is
// flagged invalid instead of iterating forever.
func Run(a types.Assumptions) types.ProForma {
	loan := a.AcquisitionCost * a.LTV
	equity := a.AcquisitionCost - loan
	annualDebtService := annualPayment(loan, a.InterestRate, a.LoanTermYears)

	pf := types.ProForma{
		Assumptions:   a,
		LoanAmount:    loan,
		InitialEquity: equity,
	}

	cumulative := 0.0
	dscrSum := 0.0
	dscrYears := 0
	for t := 1; t <= a.HorizonYears; t++ {
		gpi := float64(a.Units) * a.MonthlyRentPerUnit * 12 * math.Pow(1+a.RentGrowth, float64(t-1))
		vacancyLoss := gpi * a.VacancyRate
		egi := gpi - vacancyLoss
		opex := egi * a.ExpenseRatio * math.Pow(1+a.OpExGrowth, float64(t-1))
		noi := egi - opex

		ds := annualDebtService
		if t > a.LoanTermYears {
			ds = 0 // loan fully amortized before the horizon ends
		}
		cashFlow := noi - ds
		cumulative += cashFlow

		// DSCR is undefined without debt service (all-cash deals, years past
		// the loan term); report 0 so the struct stays JSON-marshalable.
		dscr := 0.0
		if ds > 0 {
			dscr = noi / ds
			dscrSum += dscr
			dscrYears++
		}

		pf.Years = append(pf.Years, types.ProFormaYear{
			Year:                 t,
			GrossPotentialIncome: gpi,
			VacancyLoss:          vacancyLoss,
			EffectiveGrossIncome: egi,
			OperatingExpenses:    opex,
			NOI:                  noi,
			DebtService:          ds,
			CashFlow:             cashFlow,
			CumulativeCashFlow:   cumulative,
			DSCR:                 dscr,
		})
	}

	finalNOI := pf.Years[len(pf.Years)-1].NOI
	pf.ExitValue = finalNOI / a.ExitCapRate
	pf.LoanBalance = loanBalance(loan, a.InterestRate, a.LoanTermYears, a.HorizonYears)

	// Payback on nominal operating cash flow against the equity invested.
	// Sale proceeds are deliberately excluded here; they show up in IRR/NPV.
	for _, y := range pf.Years {
		if y.CumulativeCashFlow >= equity {
			pf.PaybackYear = y.Year
			pf.PaybackAchieved = true
			break
		}
	}

	flows := equityCashFlows(pf)
	pf.IRR, pf.IRRValid = irr(flows)
	pf.NPV = npv(a.DiscountRate, flows)

	y1 := pf.Years[0]
	if y1.EffectiveGrossIncome > 0 {
		pf.NOIMarginYear1 = y1.NOI / y1.EffectiveGrossIncome
	}
	if equity > 0 {
		pf.CashOnCashYear1 = y1.CashFlow / equity
	}
	if dscrYears > 0 {
		pf.AvgDSCR = dscrSum / float64(dscrYears)
	}

	return pf
}

// Sensitivity re-runs the model over the configured grid of perturbed
// assumptions. Each cell gets an independent copy of the base assumptions, so
// results match a direct single-scenario run cell for cell.
func Sensitivity(base types.Assumptions, grid config.SensitivityConfig) []types.SensitivityResult {
	results := make([]types.SensitivityResult, 0, len(grid.RentGrowthDeltas)*len(grid.ExitCapDeltas))
	for _, dg := range grid.RentGrowthDeltas {
		for _, dc := range grid.ExitCapDeltas {
			perturbed := base
			perturbed.RentGrowth += dg
			perturbed.ExitCapRate += dc
			if perturbed.ExitCapRate <= 0 {
				slog.Warn("skipping sensitivity cell with non-positive exit cap rate",
					"rent_growth_delta", dg, "exit_cap_delta", dc)
				continue
			}
			pf := Run(perturbed)
			results = append(results, types.SensitivityResult{
				RentGrowthDelta: dg,
				ExitCapDelta:    dc,
				RentGrowth:      perturbed.RentGrowth,
				ExitCapRate:     perturbed.ExitCapRate,
				IRR:             pf.IRR,
				IRRValid:        pf.IRRValid,
				NPV:             pf.NPV,
				PaybackYear:     pf.PaybackYear,
				PaybackAchieved: pf.PaybackAchieved,
			})
		}
	}
	return results
}

// equityCashFlows builds the investor cash-flow vector: equity out at year 0,
// operating cash flow each year, and net sale proceeds (exit value less the
// remaining loan balance) added to the final year.
func equityCashFlows(pf types.ProForma) []float64 {
	flows := make([]float64, 0, len(pf.Years)+1)
	flows = append(flows, -pf.InitialEquity)
	for _, y := range pf.Years {
		flows = append(flows, y.CashFlow)
	}
	flows[len(flows)-1] += pf.ExitValue - pf.LoanBalance
	return flows
}

// annualPayment returns the yearly debt service for a monthly-amortizing loan.
func annualPayment(principal, annualRate float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}
	months := float64(termYears * 12)
	if annualRate == 0 {
		return principal / float64(termYears)
	}
	r := annualRate / 12
	monthly := principal * r / (1 - math.Pow(1+r, -months))
	return monthly * 12
}

// loanBalance returns the outstanding principal after the given number of
// years of scheduled monthly payments.
func loanBalance(principal, annualRate float64, termYears, afterYears int) float64 {
	if principal <= 0 || termYears <= 0 || afterYears >= termYears {
		return 0
	}
	monthsPaid := float64(afterYears * 12)
	totalMonths := float64(termYears * 12)
	if annualRate == 0 {
		return principal * (1 - monthsPaid/totalMonths)
	}
	r := annualRate / 12
	monthly := principal * r / (1 - math.Pow(1+r, -totalMonths))
	growth := math.Pow(1+r, monthsPaid)
	return principal*growth - monthly*(growth-1)/r
}

// npv discounts the cash-flow vector at the given rate; flows[0] is year 0.
func npv(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

// irr finds the rate where npv crosses zero, via bisection on [-0.99, 10].
// The second return is false when the flows have no sign change in that
// bracket (all-positive or all-negative scenarios have no meaningful IRR).
func irr(flows []float64) (float64, bool) {
	lo, hi := -0.99, 10.0
	npvLo, npvHi := npv(lo, flows), npv(hi, flows)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || npvLo*npvHi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		v := npv(mid, flows)
		if math.Abs(v) < 1e-9 {
			return mid, true
		}
		if v*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = v
		}
	}
	return (lo + hi) / 2, true
}
