package mortgage

import (
	"errors"
	"fmt"
	"math"

	"github.com/Dan9191/mortgage-service/internal/models"
)

// Bounds and defaults of a new calculation
const (
	MinPrice            = 375_000.0
	MaxPrice            = 100_000_000.0
	MinYears            = 1
	MaxYears            = 30
	MinDownPaymentRatio = 0.15
	MaxDownPaymentRatio = 0.9

	DefaultPrice       = 12_000_000.0
	DefaultDownPayment = 6_000_000.0
	DefaultTermYears   = 10
)

var (
	ErrUnknownOrigin  = errors.New("unknown update origin")
	ErrUnknownProgram = errors.New("unknown program")
)

// Model owns a loan configuration and its last computed result.
// It is not safe for concurrent use; callers serialize access.
type Model struct {
	catalog *Catalog
	data    models.LoanConfiguration
	results models.LoanResult
}

// NewModel creates a model with default parameters and the catalog's default program
func NewModel(catalog *Catalog) *Model {
	program := catalog.Default()
	m := &Model{
		catalog: catalog,
		data: models.LoanConfiguration{
			ProgramID:           program.ID,
			Price:               DefaultPrice,
			DownPayment:         DefaultDownPayment,
			TermYears:           DefaultTermYears,
			InterestRate:        program.Rate,
			MinDownPaymentRatio: minRatioFor(program),
			MaxDownPaymentRatio: MaxDownPaymentRatio,
			MinPrice:            MinPrice,
			MaxPrice:            MaxPrice,
			MinYears:            MinYears,
			MaxYears:            MaxYears,
		},
	}
	m.data = normalize(m.data)
	m.results = Calculate(m.data)
	return m
}

// Restore rebuilds a model from a previously saved configuration.
// Bounds and program terms always come from the catalog, not from the saved blob.
func Restore(catalog *Catalog, saved models.LoanConfiguration) (*Model, error) {
	program, ok := catalog.Lookup(saved.ProgramID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, saved.ProgramID)
	}
	m := NewModel(catalog)
	m.data.ProgramID = program.ID
	m.data.InterestRate = program.Rate
	m.data.MinDownPaymentRatio = minRatioFor(program)
	m.data.Price = saved.Price
	m.data.DownPayment = saved.DownPayment
	m.data.TermYears = saved.TermYears
	m.data = normalize(m.data)
	m.results = Calculate(m.data)
	return m, nil
}

// Data returns a copy of the current configuration
func (m *Model) Data() models.LoanConfiguration {
	return m.data
}

// Results returns a snapshot of the last computed result
func (m *Model) Results() models.LoanResult {
	return m.results
}

// Programs returns the catalog the model selects programs from
func (m *Model) Programs() []models.Program {
	return m.catalog.All()
}

// SetData applies an update produced by the control named in u.Origin.
// Fields the origin does not own are ignored. On error the model is unchanged.
func (m *Model) SetData(u models.Update) error {
	next := m.data

	switch u.Origin {
	case models.OriginRadioProgram:
		if u.ProgramID == nil {
			return fmt.Errorf("%w: no program selected", ErrUnknownProgram)
		}
		program, ok := m.catalog.Lookup(*u.ProgramID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownProgram, *u.ProgramID)
		}
		next.ProgramID = program.ID
		next.InterestRate = program.Rate
		next.MinDownPaymentRatio = minRatioFor(program)

	case models.OriginCostInput, models.OriginCostSlider:
		if u.Price != nil {
			next.Price = clamp(*u.Price, next.MinPrice, next.MaxPrice)
		}

	case models.OriginPaymentInput:
		if u.DownPayment != nil {
			payment := *u.DownPayment
			ratio := payment / next.Price
			switch {
			case math.IsNaN(ratio) || ratio < next.MinDownPaymentRatio:
				payment = next.MinDownPayment()
			case ratio > next.MaxDownPaymentRatio:
				payment = next.MaxDownPayment()
			}
			next.DownPayment = payment
		}

	case models.OriginPaymentSlider:
		if u.PaymentPercent != nil {
			ratio := clamp(*u.PaymentPercent/100, next.MinDownPaymentRatio, next.MaxDownPaymentRatio)
			next.DownPayment = next.Price * ratio
		}

	case models.OriginTimeInput, models.OriginTimeSlider:
		if u.TermYears != nil {
			years := clamp(*u.TermYears, float64(next.MinYears), float64(next.MaxYears))
			next.TermYears = int(math.Round(years))
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOrigin, u.Origin)
	}

	m.data = normalize(next)
	m.results = Calculate(m.data)
	return nil
}

// normalize re-establishes the price, term and down payment bounds and the derived ratio
func normalize(c models.LoanConfiguration) models.LoanConfiguration {
	c.Price = clamp(c.Price, c.MinPrice, c.MaxPrice)
	if c.TermYears < c.MinYears {
		c.TermYears = c.MinYears
	}
	if c.TermYears > c.MaxYears {
		c.TermYears = c.MaxYears
	}
	c.DownPayment = clamp(c.DownPayment, c.MinDownPayment(), c.MaxDownPayment())
	c.DownPaymentRatio = c.DownPayment / c.Price
	return c
}

// clamp bounds v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
