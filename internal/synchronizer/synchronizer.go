package synchronizer

import (
	"errors"
	"fmt"

	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/sirupsen/logrus"
)

// ErrUnknownControl is returned for an origin that has no control on the form
var ErrUnknownControl = errors.New("unknown control")

// Event describes one completed dispatch
type Event struct {
	Origin   models.Origin            `json:"onUpdate"`
	Data     models.LoanConfiguration `json:"data"`
	Results  models.LoanResult        `json:"results"`
	View     view.Rendered            `json:"view"`
	Resynced []State                  `json:"resynced"`
}

// Synchronizer keeps the paired controls of the form consistent with the model.
// Every update is applied to the model and then rebroadcast to all controls
// except the one that produced it.
type Synchronizer struct {
	model     *mortgage.Model
	view      *view.View
	controls  []Control
	byID      map[models.Origin]Control
	rendered  view.Rendered
	observers []func(Event)
	log       *logrus.Logger
}

// New builds the calculator form around model and draws every control
func New(model *mortgage.Model, v *view.View, log *logrus.Logger) *Synchronizer {
	f := v.Formatter()
	controls := []Control{
		NewProgramRadio(model.Programs()),
		newNumberInput(models.OriginCostInput, fieldCost, f.Number, f.ParseNumber),
		newRangeSlider(models.OriginCostSlider, fieldCost, 100_000),
		newNumberInput(models.OriginPaymentInput, fieldPayment, f.Number, f.ParseNumber),
		newRangeSlider(models.OriginPaymentSlider, fieldPayment, 1),
		newNumberInput(models.OriginTimeInput, fieldTime, f.Number, f.ParseNumber),
		newRangeSlider(models.OriginTimeSlider, fieldTime, 1),
	}

	s := &Synchronizer{
		model:    model,
		view:     v,
		controls: controls,
		byID:     make(map[models.Origin]Control, len(controls)),
		log:      log,
	}
	for _, c := range controls {
		s.byID[c.ID()] = c
	}
	s.resync("")
	return s
}

// Model returns the model the form is bound to
func (s *Synchronizer) Model() *mortgage.Model {
	return s.model
}

// Subscribe registers fn to be called after every successful dispatch
func (s *Synchronizer) Subscribe(fn func(Event)) {
	s.observers = append(s.observers, fn)
}

// Edit simulates a user typing raw into the control identified by origin
func (s *Synchronizer) Edit(origin models.Origin, raw string) (Event, error) {
	c, ok := s.byID[origin]
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownControl, origin)
	}
	return s.dispatch(c.Edit(raw))
}

// Dispatch applies an update event and resyncs every control except its origin
func (s *Synchronizer) Dispatch(u models.Update) (Event, error) {
	if _, ok := s.byID[u.Origin]; !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownControl, u.Origin)
	}
	return s.dispatch(u)
}

func (s *Synchronizer) dispatch(u models.Update) (Event, error) {
	if err := s.model.SetData(u); err != nil {
		s.log.WithFields(logrus.Fields{"origin": u.Origin}).Warnf("Rejected update: %v", err)
		// The origin already shows the rejected input; put it back in line with the model
		s.byID[u.Origin].Sync(s.model.Data(), s.model.Results())
		return Event{}, fmt.Errorf("failed to apply update: %w", err)
	}

	ev := Event{
		Origin:   u.Origin,
		Data:     s.model.Data(),
		Results:  s.model.Results(),
		Resynced: s.resync(u.Origin),
	}
	ev.View = s.rendered

	s.log.WithFields(logrus.Fields{
		"origin":          u.Origin,
		"price":           ev.Data.Price,
		"down_payment":    ev.Data.DownPayment,
		"term_years":      ev.Data.TermYears,
		"monthly_payment": ev.Results.MonthlyPayment,
	}).Debug("Model updated")

	for _, fn := range s.observers {
		fn(ev)
	}
	return ev, nil
}

// resync redraws every control other than skip and re-renders the results
func (s *Synchronizer) resync(skip models.Origin) []State {
	data, res := s.model.Data(), s.model.Results()
	states := make([]State, 0, len(s.controls))
	for _, c := range s.controls {
		if c.ID() == skip {
			continue
		}
		c.Sync(data, res)
		states = append(states, c.State())
	}
	s.rendered = s.view.Render(res)
	return states
}

// Commit handles the change event of a control: the control itself is redrawn
// so that it shows the value the model settled on.
func (s *Synchronizer) Commit(origin models.Origin) (State, error) {
	c, ok := s.byID[origin]
	if !ok {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownControl, origin)
	}
	c.Sync(s.model.Data(), s.model.Results())
	return c.State(), nil
}

// States returns the state of every control in form order
func (s *Synchronizer) States() []State {
	states := make([]State, 0, len(s.controls))
	for _, c := range s.controls {
		states = append(states, c.State())
	}
	return states
}

// State returns the state of a single control
func (s *Synchronizer) State(origin models.Origin) (State, bool) {
	c, ok := s.byID[origin]
	if !ok {
		return State{}, false
	}
	return c.State(), true
}

// View returns the last rendered results
func (s *Synchronizer) View() view.Rendered {
	return s.rendered
}
