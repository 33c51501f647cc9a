package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/synchronizer"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Snapshot is everything a page needs to draw a calculator
type Snapshot struct {
	ID       string                   `json:"id"`
	Data     models.LoanConfiguration `json:"data"`
	Results  models.LoanResult        `json:"results"`
	View     view.Rendered            `json:"view"`
	Controls []synchronizer.State     `json:"controls"`
}

// calculator is one live session. mu serializes events the way a single UI thread would.
type calculator struct {
	mu       sync.Mutex
	form     *synchronizer.Synchronizer
	dirty    bool
	deleted  bool
	lastSeen time.Time
	savedAt  time.Time
}

// Manager owns live calculators and persists their configuration
type Manager struct {
	store   Store
	catalog *mortgage.Catalog
	view    *view.View
	ttl     time.Duration
	log     *logrus.Logger
	now     func() time.Time

	mu   sync.Mutex
	live map[string]*calculator
}

// NewManager initializes a session manager
func NewManager(store Store, catalog *mortgage.Catalog, v *view.View, ttl time.Duration, log *logrus.Logger) *Manager {
	return &Manager{
		store:   store,
		catalog: catalog,
		view:    v,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		live:    make(map[string]*calculator),
	}
}

func (m *Manager) newCalculator(model *mortgage.Model) *calculator {
	now := m.now()
	c := &calculator{
		form:     synchronizer.New(model, m.view, m.log),
		lastSeen: now,
		savedAt:  now,
	}
	c.form.Subscribe(func(synchronizer.Event) { c.dirty = true })
	return c
}

// Create starts a calculator with default parameters
func (m *Manager) Create(ctx context.Context) (Snapshot, error) {
	id := uuid.NewString()
	c := m.newCalculator(mortgage.NewModel(m.catalog))

	if err := m.store.Save(ctx, id, c.form.Model().Data(), m.ttl); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}

	m.mu.Lock()
	m.live[id] = c
	m.mu.Unlock()

	m.log.WithField("session", id).Info("Session created")
	return snapshot(id, c.form), nil
}

// lookup returns the live calculator for id, restoring it from the store if needed
func (m *Manager) lookup(ctx context.Context, id string) (*calculator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.live[id]; ok {
		return c, nil
	}

	saved, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	model, err := mortgage.Restore(m.catalog, saved)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	c := m.newCalculator(model)
	// age of the stored blob is unknown; refresh it on first use
	c.savedAt = time.Time{}
	m.live[id] = c
	m.log.WithField("session", id).Debug("Session restored from store")
	return c, nil
}

// with runs fn on the calculator under its lock. The configuration is saved
// when fn changed it, or when the stored copy is past half its TTL so that a
// session that is only read does not expire under a visitor.
func (m *Manager) with(ctx context.Context, id string, fn func(*synchronizer.Synchronizer) error) error {
	c, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleted {
		return ErrNotFound
	}
	now := m.now()
	c.lastSeen = now

	fnErr := fn(c.form)
	if c.dirty || now.Sub(c.savedAt) >= m.ttl/2 {
		if err := m.store.Save(ctx, id, c.form.Model().Data(), m.ttl); err != nil {
			return fmt.Errorf("failed to save session %s: %w", id, err)
		}
		c.dirty = false
		c.savedAt = now
	}
	return fnErr
}

// Get returns the current state of a session
func (m *Manager) Get(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(ctx, id, func(form *synchronizer.Synchronizer) error {
		snap = snapshot(id, form)
		return nil
	})
	return snap, err
}

// Edit applies a user edit of one control
func (m *Manager) Edit(ctx context.Context, id string, origin models.Origin, raw string) (synchronizer.Event, error) {
	var ev synchronizer.Event
	err := m.with(ctx, id, func(form *synchronizer.Synchronizer) error {
		var err error
		ev, err = form.Edit(origin, raw)
		return err
	})
	return ev, err
}

// Commit handles the change event of one control
func (m *Manager) Commit(ctx context.Context, id string, origin models.Origin) (synchronizer.State, error) {
	var st synchronizer.State
	err := m.with(ctx, id, func(form *synchronizer.Synchronizer) error {
		var err error
		st, err = form.Commit(origin)
		return err
	})
	return st, err
}

// Schedule returns the amortization schedule of a session starting at start
func (m *Manager) Schedule(ctx context.Context, id string, start time.Time) ([]models.PaymentSchedule, error) {
	var rows []models.PaymentSchedule
	err := m.with(ctx, id, func(form *synchronizer.Synchronizer) error {
		rows = mortgage.Schedule(form.Model().Data(), start)
		return nil
	})
	return rows, err
}

// Delete drops a session everywhere. It waits for an in-flight event on the
// session so that a pending save cannot bring the session back, and holds the
// manager lock so that the session is not restored meanwhile.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.live[id]; ok {
		delete(m.live, id)
		c.mu.Lock()
		c.deleted = true
		c.mu.Unlock()
	}
	return m.store.Delete(ctx, id)
}

// EvictIdle unloads calculators not touched for longer than idle.
// Their configuration stays in the store until it expires.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, c := range m.live {
		if !c.mu.TryLock() {
			continue
		}
		if c.lastSeen.Before(cutoff) {
			delete(m.live, id)
			evicted++
		}
		c.mu.Unlock()
	}

	if purger, ok := m.store.(interface{ Purge() int }); ok {
		if n := purger.Purge(); n > 0 {
			m.log.Infof("Purged %d expired sessions", n)
		}
	}
	return evicted
}

// Live returns the number of calculators held in memory
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// IsNotFound reports whether err means the session does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func snapshot(id string, form *synchronizer.Synchronizer) Snapshot {
	return Snapshot{
		ID:       id,
		Data:     form.Model().Data(),
		Results:  form.Model().Results(),
		View:     form.View(),
		Controls: form.States(),
	}
}
