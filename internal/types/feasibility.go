package types

// Assumptions are the financial inputs to the feasibility model. A sensitivity
// run perturbs an independent copy; the base set is never mutated.
type Assumptions struct {
	City string `json:"city" yaml:"city"`

	AcquisitionCost    float64 `json:"acquisition_cost" yaml:"acquisition_cost"`
	Units              int     `json:"units" yaml:"units"`
	MonthlyRentPerUnit float64 `json:"monthly_rent_per_unit" yaml:"monthly_rent_per_unit"`

	RentGrowth   float64 `json:"rent_growth" yaml:"rent_growth"`     // annual, fraction
	VacancyRate  float64 `json:"vacancy_rate" yaml:"vacancy_rate"`   // fraction of GPI
	ExpenseRatio float64 `json:"expense_ratio" yaml:"expense_ratio"` // fraction of EGI
	OpExGrowth   float64 `json:"opex_growth" yaml:"opex_growth"`     // annual, fraction

	LTV           float64 `json:"ltv" yaml:"ltv"` // loan-to-value, 0-1
	InterestRate  float64 `json:"interest_rate" yaml:"interest_rate"`
	LoanTermYears int     `json:"loan_term_years" yaml:"loan_term_years"`

	HorizonYears int     `json:"horizon_years" yaml:"horizon_years"`
	ExitCapRate  float64 `json:"exit_cap_rate" yaml:"exit_cap_rate"`
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`
}

// ProFormaYear is one projected operating year.
type ProFormaYear struct {
	Year                 int     `json:"year"` // 1-based
	GrossPotentialIncome float64 `json:"gross_potential_income"`
	VacancyLoss          float64 `json:"vacancy_loss"`
	EffectiveGrossIncome float64 `json:"effective_gross_income"`
	OperatingExpenses    float64 `json:"operating_expenses"`
	NOI                  float64 `json:"noi"`
	DebtService          float64 `json:"debt_service"`
	CashFlow             float64 `json:"cash_flow"`
	CumulativeCashFlow   float64 `json:"cumulative_cash_flow"`
	DSCR                 float64 `json:"dscr"` // 0 in years without debt service
}

// ProForma is the full projection for one scenario.
type ProForma struct {
	Assumptions Assumptions    `json:"assumptions"`
	Years       []ProFormaYear `json:"years"`

	LoanAmount    float64 `json:"loan_amount"`
	InitialEquity float64 `json:"initial_equity"`
	ExitValue     float64 `json:"exit_value"`
	LoanBalance   float64 `json:"loan_balance_at_exit"`

	IRR             float64 `json:"irr"`
	IRRValid        bool    `json:"irr_valid"`
	NPV             float64 `json:"npv"`
	PaybackYear     int     `json:"payback_year"` // 0 when not achieved
	PaybackAchieved bool    `json:"payback_achieved"`

	NOIMarginYear1  float64 `json:"noi_margin_year1"`
	CashOnCashYear1 float64 `json:"cash_on_cash_year1"`
	AvgDSCR         float64 `json:"avg_dscr"`
}

// SensitivityResult is one cell of the sensitivity grid: the return metrics of
// an independent model run under perturbed assumptions.
type SensitivityResult struct {
	RentGrowthDelta float64 `json:"rent_growth_delta"`
	ExitCapDelta    float64 `json:"exit_cap_delta"`
	RentGrowth      float64 `json:"rent_growth"`
	ExitCapRate     float64 `json:"exit_cap_rate"`

	IRR             float64 `json:"irr"`
	IRRValid        bool    `json:"irr_valid"`
	NPV             float64 `json:"npv"`
	PaybackYear     int     `json:"payback_year"`
	PaybackAchieved bool    `json:"payback_achieved"`
}
