package mortgage

import (
	"math"
	"time"

	"github.com/Dan9191/mortgage-service/internal/models"
)

// MonthlyPayment returns the annuity payment for principal at annualRate over months.
// A zero rate degenerates to principal split evenly.
func MonthlyPayment(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	monthlyRate := annualRate / 12
	if monthlyRate == 0 {
		return principal / float64(months)
	}
	generalRate := math.Pow(1+monthlyRate, float64(months))
	return principal * monthlyRate * generalRate / (generalRate - 1)
}

// Calculate derives the loan result from a configuration
func Calculate(cfg models.LoanConfiguration) models.LoanResult {
	principal := cfg.Price - cfg.DownPayment
	months := cfg.Months()
	payment := MonthlyPayment(principal, cfg.InterestRate, months)
	total := payment * float64(months)

	return models.LoanResult{
		RatePercent:       cfg.InterestRate * 100,
		MonthlyPayment:    payment,
		TotalInterestPaid: total - principal,
		PrincipalFinanced: principal,
		TotalPaid:         total,
		Months:            months,
	}
}

// Schedule builds the month-by-month amortization table starting one month after start
func Schedule(cfg models.LoanConfiguration, start time.Time) []models.PaymentSchedule {
	months := cfg.Months()
	if months <= 0 {
		return nil
	}

	monthlyRate := cfg.InterestRate / 12
	balance := cfg.Price - cfg.DownPayment
	payment := MonthlyPayment(balance, cfg.InterestRate, months)

	rows := make([]models.PaymentSchedule, 0, months)
	for i := 1; i <= months; i++ {
		interest := balance * monthlyRate
		principal := payment - interest
		amount := payment
		// Last row absorbs the rounding drift
		if i == months {
			principal = balance
			amount = principal + interest
		}
		balance -= principal
		if balance < 0 {
			balance = 0
		}

		rows = append(rows, models.PaymentSchedule{
			Month:       i,
			PaymentDate: start.AddDate(0, i, 0),
			Payment:     amount,
			Principal:   principal,
			Interest:    interest,
			Balance:     balance,
		})
	}
	return rows
}
