package types

// MarketRecord is one observed period of market statistics for a single city.
// Records are immutable once loaded; all derived figures live in CityKPI.
type MarketRecord struct {
	City              string  `json:"city"`
	Period            int     `json:"period"` // calendar year of the observation
	GrossRent         float64 `json:"gross_rent"`
	VacancyRate       float64 `json:"vacancy_rate"` // fraction, 0-1
	OperatingExpenses float64 `json:"operating_expenses"`
	GrossIncome       float64 `json:"gross_income"`

	// Optional coordinates for metro-boundary filtering. Zero means unknown.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// CityKPI holds the derived indicators for one city, computed once from its
// MarketRecord history.
type CityKPI struct {
	City            string  `json:"city"`
	RentCAGR        float64 `json:"rent_cagr"`
	AvgVacancy      float64 `json:"avg_vacancy"`
	AvgExpenseRatio float64 `json:"avg_expense_ratio"`
	Periods         int     `json:"periods"`
	FirstPeriod     int     `json:"first_period"`
	LastPeriod      int     `json:"last_period"`

	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// RankedMarket is a CityKPI plus its normalized sub-scores and final rank.
// Sub-scores are 0-1 with 1 best on every dimension (vacancy and expense are
// inverted during normalization).
type RankedMarket struct {
	CityKPI

	RentGrowthScore float64 `json:"rent_growth_score"`
	VacancyScore    float64 `json:"vacancy_score"`
	ExpenseScore    float64 `json:"expense_score"`
	Composite       float64 `json:"composite"`
	Rank            int     `json:"rank"` // 1 = best
}

// ExcludedCity records a city dropped from KPI calculation together with the
// reason, so the run summary can surface it instead of silently losing it.
type ExcludedCity struct {
	City   string `json:"city"`
	Reason string `json:"reason"`
}
