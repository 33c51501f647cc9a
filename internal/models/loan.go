package models

// LoanConfiguration holds the parameters of a single mortgage calculation
type LoanConfiguration struct {
	ProgramID           string  `json:"program_id"`
	Price               float64 `json:"price"`
	DownPayment         float64 `json:"down_payment"`
	DownPaymentRatio    float64 `json:"down_payment_ratio"`
	TermYears           int     `json:"term_years"`
	InterestRate        float64 `json:"interest_rate"`
	MinDownPaymentRatio float64 `json:"min_down_payment_ratio"`
	MaxDownPaymentRatio float64 `json:"max_down_payment_ratio"`
	MinPrice            float64 `json:"min_price"`
	MaxPrice            float64 `json:"max_price"`
	MinYears            int     `json:"min_years"`
	MaxYears            int     `json:"max_years"`
}

// MinDownPayment returns the smallest down payment allowed for the current price
func (c LoanConfiguration) MinDownPayment() float64 {
	return c.Price * c.MinDownPaymentRatio
}

// MaxDownPayment returns the largest down payment allowed for the current price
func (c LoanConfiguration) MaxDownPayment() float64 {
	return c.Price * c.MaxDownPaymentRatio
}

// Months returns the loan term in months
func (c LoanConfiguration) Months() int {
	return c.TermYears * 12
}

// LoanResult is derived from a LoanConfiguration and never stored on its own
type LoanResult struct {
	RatePercent       float64 `json:"rate_percent"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalInterestPaid float64 `json:"total_interest_paid"`
	PrincipalFinanced float64 `json:"principal_financed"`
	TotalPaid         float64 `json:"total_paid"`
	Months            int     `json:"months"`
}
