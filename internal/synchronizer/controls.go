package synchronizer

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Dan9191/mortgage-service/internal/models"
)

// Control kinds
const (
	KindRadio  = "radio"
	KindInput  = "input"
	KindSlider = "slider"
)

// State is a snapshot of what a control currently shows
type State struct {
	ID      models.Origin `json:"id"`
	Kind    string        `json:"kind"`
	Value   string        `json:"value"`
	Number  float64       `json:"number"`
	Min     float64       `json:"min,omitempty"`
	Max     float64       `json:"max,omitempty"`
	Step    float64       `json:"step,omitempty"`
	Options []string      `json:"options,omitempty"`
}

// Control is one input on the calculator form
type Control interface {
	ID() models.Origin
	// Edit records a user edit and returns the update to dispatch
	Edit(raw string) models.Update
	// Sync redraws the control from the model
	Sync(data models.LoanConfiguration, res models.LoanResult)
	State() State
}

// field selects the configuration parameter a control is bound to
type field int

const (
	fieldCost field = iota
	fieldPayment
	fieldTime
)

func updateFor(origin models.Origin, f field, v float64) models.Update {
	u := models.Update{Origin: origin}
	switch f {
	case fieldCost:
		u.Price = &v
	case fieldPayment:
		if origin == models.OriginPaymentSlider {
			u.PaymentPercent = &v
		} else {
			u.DownPayment = &v
		}
	case fieldTime:
		u.TermYears = &v
	}
	return u
}

// ParseNumber reads a slider value. Sliders report plain numbers with a dot
// decimal mark; stray whitespace, commas and underscores are skipped.
// Anything else yields NaN.
func ParseNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' || r == '_' {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ProgramRadio selects the mortgage program
type ProgramRadio struct {
	selected string
	options  []string
}

// NewProgramRadio creates a radio group over program IDs
func NewProgramRadio(programs []models.Program) *ProgramRadio {
	r := &ProgramRadio{}
	for _, p := range programs {
		r.options = append(r.options, p.ID)
	}
	return r
}

func (r *ProgramRadio) ID() models.Origin { return models.OriginRadioProgram }

func (r *ProgramRadio) Edit(raw string) models.Update {
	r.selected = strings.TrimSpace(raw)
	id := r.selected
	return models.Update{Origin: models.OriginRadioProgram, ProgramID: &id}
}

func (r *ProgramRadio) Sync(data models.LoanConfiguration, _ models.LoanResult) {
	r.selected = data.ProgramID
}

func (r *ProgramRadio) State() State {
	return State{
		ID:      models.OriginRadioProgram,
		Kind:    KindRadio,
		Value:   r.selected,
		Options: append([]string(nil), r.options...),
	}
}

// NumberInput is a free-text numeric entry; text is written and read in one locale
type NumberInput struct {
	origin models.Origin
	field  field
	format func(float64) string
	parse  func(string) float64
	text   string
	value  float64
}

func newNumberInput(origin models.Origin, f field, format func(float64) string, parse func(string) float64) *NumberInput {
	return &NumberInput{origin: origin, field: f, format: format, parse: parse}
}

func (in *NumberInput) ID() models.Origin { return in.origin }

func (in *NumberInput) Edit(raw string) models.Update {
	in.text = raw
	in.value = in.parse(raw)
	return updateFor(in.origin, in.field, in.value)
}

func (in *NumberInput) Sync(data models.LoanConfiguration, _ models.LoanResult) {
	switch in.field {
	case fieldCost:
		in.value = data.Price
	case fieldPayment:
		in.value = data.DownPayment
	case fieldTime:
		in.value = float64(data.TermYears)
	}
	in.text = in.format(in.value)
}

func (in *NumberInput) State() State {
	return State{ID: in.origin, Kind: KindInput, Value: in.text, Number: in.value}
}

// RangeSlider is a bounded slider; it never holds a value outside its range
type RangeSlider struct {
	origin   models.Origin
	field    field
	value    float64
	min, max float64
	step     float64
}

func newRangeSlider(origin models.Origin, f field, step float64) *RangeSlider {
	return &RangeSlider{origin: origin, field: f, step: step}
}

func (s *RangeSlider) ID() models.Origin { return s.origin }

func (s *RangeSlider) Edit(raw string) models.Update {
	v := ParseNumber(raw)
	switch {
	case math.IsNaN(v), v < s.min:
		v = s.min
	case v > s.max:
		v = s.max
	}
	s.value = v
	return updateFor(s.origin, s.field, v)
}

func (s *RangeSlider) Sync(data models.LoanConfiguration, _ models.LoanResult) {
	switch s.field {
	case fieldCost:
		s.min, s.max = data.MinPrice, data.MaxPrice
		s.value = data.Price
	case fieldPayment:
		s.min, s.max = data.MinDownPaymentRatio*100, data.MaxDownPaymentRatio*100
		s.value = data.DownPaymentRatio * 100
	case fieldTime:
		s.min, s.max = float64(data.MinYears), float64(data.MaxYears)
		s.value = float64(data.TermYears)
	}
}

func (s *RangeSlider) State() State {
	return State{
		ID:     s.origin,
		Kind:   KindSlider,
		Value:  strconv.FormatFloat(s.value, 'f', -1, 64),
		Number: s.value,
		Min:    s.min,
		Max:    s.max,
		Step:   s.step,
	}
}
