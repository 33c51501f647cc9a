package mortgage

import (
	"math"
	"testing"
	"time"

	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func ptr[T any](v T) *T { return &v }

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return NewModel(MustDefaultCatalog())
}

func assertInvariants(t *testing.T, c models.LoanConfiguration) {
	t.Helper()
	assert.GreaterOrEqual(t, c.Price, c.MinPrice)
	assert.LessOrEqual(t, c.Price, c.MaxPrice)
	assert.GreaterOrEqual(t, c.TermYears, c.MinYears)
	assert.LessOrEqual(t, c.TermYears, c.MaxYears)
	ratio := c.DownPayment / c.Price
	assert.GreaterOrEqual(t, ratio+tolerance, c.MinDownPaymentRatio)
	assert.LessOrEqual(t, ratio-tolerance, c.MaxDownPaymentRatio)
	assert.InDelta(t, ratio, c.DownPaymentRatio, tolerance)
}

func TestNewModel_Defaults(t *testing.T) {
	m := newTestModel(t)
	data := m.Data()

	assert.Equal(t, "base", data.ProgramID)
	assert.Equal(t, 12_000_000.0, data.Price)
	assert.Equal(t, 6_000_000.0, data.DownPayment)
	assert.Equal(t, 10, data.TermYears)
	assert.Equal(t, 0.10, data.InterestRate)
	assert.Equal(t, 0.5, data.DownPaymentRatio)
	assertInvariants(t, data)
}

func TestResults_ExampleScenario(t *testing.T) {
	m := newTestModel(t)
	res := m.Results()

	assert.Equal(t, 120, res.Months)
	assert.InDelta(t, 10.0, res.RatePercent, tolerance)
	assert.InDelta(t, 6_000_000.0, res.PrincipalFinanced, tolerance)
	assert.InDelta(t, 79_290.44, res.MonthlyPayment, 0.01)
	assert.InDelta(t, res.MonthlyPayment*120-6_000_000, res.TotalInterestPaid, 1e-6)
}

func TestResults_MatchFormula(t *testing.T) {
	cases := []struct {
		price, payment, years float64
		program               string
	}{
		{price: 375_000, payment: 100_000, years: 1, program: "base"},
		{price: 5_000_000, payment: 1_000_000, years: 15, program: "it"},
		{price: 99_000_000, payment: 80_000_000, years: 30, program: "gov"},
	}

	for _, tc := range cases {
		m := newTestModel(t)
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginRadioProgram, ProgramID: ptr(tc.program)}))
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostInput, Price: ptr(tc.price)}))
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(tc.payment)}))
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeSlider, TermYears: ptr(tc.years)}))

		data := m.Data()
		principal := data.Price - data.DownPayment
		r := data.InterestRate / 12
		n := float64(data.TermYears * 12)
		g := math.Pow(1+r, n)
		want := principal * r * g / (g - 1)

		assert.InDelta(t, want, m.Results().MonthlyPayment, 1e-6, "program %s", tc.program)
		assertInvariants(t, data)
	}
}

func TestSetData_CostClampIdempotent(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostInput, Price: ptr(500_000_000.0)}))
	once := m.Data()
	onceResults := m.Results()
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostInput, Price: ptr(500_000_000.0)}))

	assert.Equal(t, MaxPrice, once.Price)
	assert.Equal(t, once, m.Data())
	assert.Equal(t, onceResults, m.Results())
}

func TestSetData_CostReclampsDownPayment(t *testing.T) {
	m := newTestModel(t)
	// 6M down payment exceeds 90% of 1M
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostSlider, Price: ptr(1_000_000.0)}))

	data := m.Data()
	assert.InDelta(t, 900_000.0, data.DownPayment, 1e-6)
	assert.InDelta(t, 0.9, data.DownPaymentRatio, tolerance)
	assertInvariants(t, data)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostInput, Price: ptr(90_000_000.0)}))
	data = m.Data()
	assert.InDelta(t, 13_500_000.0, data.DownPayment, 1e-6)
	assertInvariants(t, data)
}

func TestSetData_CostBelowMin(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginCostInput, Price: ptr(10.0)}))
	assert.Equal(t, MinPrice, m.Data().Price)
	assertInvariants(t, m.Data())
}

func TestSetData_PaymentInput(t *testing.T) {
	t.Run("in bounds is kept as typed", func(t *testing.T) {
		m := newTestModel(t)
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(3_333_333.0)}))
		assert.Equal(t, 3_333_333.0, m.Data().DownPayment)
		assertInvariants(t, m.Data())
	})

	t.Run("below min snaps to min", func(t *testing.T) {
		m := newTestModel(t)
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(100.0)}))
		assert.InDelta(t, 1_800_000.0, m.Data().DownPayment, 1e-6)
		assertInvariants(t, m.Data())
	})

	t.Run("above max snaps to max", func(t *testing.T) {
		m := newTestModel(t)
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(20_000_000.0)}))
		assert.InDelta(t, 10_800_000.0, m.Data().DownPayment, 1e-6)
		assertInvariants(t, m.Data())
	})

	t.Run("NaN snaps to min", func(t *testing.T) {
		m := newTestModel(t)
		require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(math.NaN())}))
		assert.InDelta(t, 1_800_000.0, m.Data().DownPayment, 1e-6)
	})
}

func TestSetData_PaymentSlider(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentSlider, PaymentPercent: ptr(25.0)}))
	assert.InDelta(t, 3_000_000.0, m.Data().DownPayment, 1e-6)
	assert.InDelta(t, 0.25, m.Data().DownPaymentRatio, tolerance)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentSlider, PaymentPercent: ptr(5.0)}))
	assert.InDelta(t, 0.15, m.Data().DownPaymentRatio, tolerance)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentSlider, PaymentPercent: ptr(100.0)}))
	assert.InDelta(t, 0.9, m.Data().DownPaymentRatio, tolerance)
}

func TestSetData_Term(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeInput, TermYears: ptr(45.0)}))
	assert.Equal(t, MaxYears, m.Data().TermYears)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeSlider, TermYears: ptr(0.0)}))
	assert.Equal(t, MinYears, m.Data().TermYears)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeInput, TermYears: ptr(math.NaN())}))
	assert.Equal(t, MinYears, m.Data().TermYears)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeInput, TermYears: ptr(12.6)}))
	assert.Equal(t, 13, m.Data().TermYears)
	assert.Equal(t, 156, m.Results().Months)
}

func TestSetData_ZeroProgram(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginRadioProgram, ProgramID: ptr("zero")}))
	assert.Equal(t, 0.0, m.Data().MinDownPaymentRatio)

	require.NoError(t, m.SetData(models.Update{Origin: models.OriginPaymentInput, DownPayment: ptr(0.0)}))
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeInput, TermYears: ptr(20.0)}))

	res := m.Results()
	assert.Equal(t, 12_000_000.0, res.PrincipalFinanced)
	assert.Equal(t, 12_000_000.0/float64(20*12), res.MonthlyPayment)
	assert.False(t, math.IsNaN(res.MonthlyPayment))
	assert.False(t, math.IsNaN(res.TotalInterestPaid))

	// Leaving the zero-down program restores the 15% floor
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginRadioProgram, ProgramID: ptr("gov")}))
	assert.Equal(t, MinDownPaymentRatio, m.Data().MinDownPaymentRatio)
	assert.InDelta(t, 1_800_000.0, m.Data().DownPayment, 1e-6)
	assertInvariants(t, m.Data())
}

func TestSetData_Errors(t *testing.T) {
	m := newTestModel(t)
	before := m.Data()

	err := m.SetData(models.Update{Origin: "nope", Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrUnknownOrigin)

	err = m.SetData(models.Update{Origin: models.OriginRadioProgram, ProgramID: ptr("missing")})
	assert.ErrorIs(t, err, ErrUnknownProgram)

	err = m.SetData(models.Update{Origin: models.OriginRadioProgram})
	assert.ErrorIs(t, err, ErrUnknownProgram)

	assert.Equal(t, before, m.Data())
}

func TestResults_IsSnapshot(t *testing.T) {
	m := newTestModel(t)
	res := m.Results()
	res.MonthlyPayment = -1
	assert.NotEqual(t, -1.0, m.Results().MonthlyPayment)
}

func TestRestore(t *testing.T) {
	catalog := MustDefaultCatalog()
	saved := models.LoanConfiguration{
		ProgramID:   "it",
		Price:       8_000_000,
		DownPayment: 100, // below the 15% floor
		TermYears:   99,
		// tampered bounds must be ignored
		MaxPrice: 1e12,
		MaxYears: 99,
	}
	m, err := Restore(catalog, saved)
	require.NoError(t, err)

	data := m.Data()
	assert.Equal(t, 0.047, data.InterestRate)
	assert.Equal(t, MaxYears, data.TermYears)
	assert.InDelta(t, 1_200_000.0, data.DownPayment, 1e-6)
	assertInvariants(t, data)

	_, err = Restore(catalog, models.LoanConfiguration{ProgramID: "gone"})
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestNewCatalog_Validation(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog([]models.Program{{ID: "a", Rate: 0.1}, {ID: "a", Rate: 0.2}})
	assert.Error(t, err)

	_, err = NewCatalog([]models.Program{{ID: "a", Rate: -0.1}})
	assert.Error(t, err)

	c, err := NewCatalog([]models.Program{{ID: "promo", Rate: 0.03}})
	require.NoError(t, err)
	assert.Equal(t, "promo", c.Default().ID)
}

func TestSchedule(t *testing.T) {
	m := newTestModel(t)
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	rows := Schedule(m.Data(), start)

	require.Len(t, rows, 120)
	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), rows[0].PaymentDate)
	assert.Equal(t, 0.0, rows[len(rows)-1].Balance)

	var interest, principal float64
	for _, row := range rows {
		interest += row.Interest
		principal += row.Principal
	}
	assert.InDelta(t, m.Results().PrincipalFinanced, principal, 1e-3)
	assert.InDelta(t, m.Results().TotalInterestPaid, interest, 1e-3)
	assert.InDelta(t, 50_000.0, rows[0].Interest, 1e-6)
}

func TestSchedule_ZeroRate(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginRadioProgram, ProgramID: ptr("zero")}))
	require.NoError(t, m.SetData(models.Update{Origin: models.OriginTimeInput, TermYears: ptr(1.0)}))

	rows := Schedule(m.Data(), time.Now())
	require.Len(t, rows, 12)
	for _, row := range rows {
		assert.Equal(t, 0.0, row.Interest)
		assert.InDelta(t, 500_000.0, row.Principal, 1e-6)
	}
}
