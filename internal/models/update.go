package models

// Origin identifies the control that produced an update
type Origin string

const (
	OriginRadioProgram  Origin = "radioProgram"
	OriginCostInput     Origin = "costInput"
	OriginCostSlider    Origin = "costSlider"
	OriginPaymentInput  Origin = "paymentInput"
	OriginPaymentSlider Origin = "paymentSlider"
	OriginTimeInput     Origin = "timeInput"
	OriginTimeSlider    Origin = "timeSlider"
)

// Origins lists every known control origin in render order
var Origins = []Origin{
	OriginRadioProgram,
	OriginCostInput,
	OriginCostSlider,
	OriginPaymentInput,
	OriginPaymentSlider,
	OriginTimeInput,
	OriginTimeSlider,
}

// Valid reports whether o is a known origin
func (o Origin) Valid() bool {
	for _, known := range Origins {
		if o == known {
			return true
		}
	}
	return false
}

// Update is a partial change to a LoanConfiguration tagged with its origin.
// Nil fields are left untouched.
type Update struct {
	Origin         Origin   `json:"onUpdate"`
	ProgramID      *string  `json:"program_id,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	DownPayment    *float64 `json:"down_payment,omitempty"`
	PaymentPercent *float64 `json:"payment_percent,omitempty"`
	TermYears      *float64 `json:"term_years,omitempty"`
}
