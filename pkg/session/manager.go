package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// Run is one wizard run owned by the Manager.
type Run struct {
	ID        string
	Engine    *wizard.Engine
	Notifier  *ports.RecordingNotifier
	Help      *HelpRecorder
	CreatedAt time.Time
}

// RunOption configures a Run at Start.
type RunOption func(*Run)

// WithHelp attaches the recorder the engine was given through wizard.WithHelp.
func WithHelp(h *HelpRecorder) RunOption {
	return func(r *Run) {
		r.Help = h
	}
}

// FormStep returns the current step as a form, if it is one.
func (r *Run) FormStep() (*dsl.FormStep, bool) {
	fs, ok := r.Engine.Current().(*dsl.FormStep)
	return fs, ok
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager stores runs and serializes access to each of them.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	runs  map[string]*Run

	newID  func() string
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:  make(map[string]*lockEntry),
		runs:   make(map[string]*Run),
		newID:  uuid.NewString,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start registers a run for engine and returns it. notes should be the
// notifier the engine was built with, so hosts can drain its messages.
func (m *Manager) Start(engine *wizard.Engine, notes *ports.RecordingNotifier, opts ...RunOption) *Run {
	run := &Run{
		ID:        m.newID(),
		Engine:    engine,
		Notifier:  notes,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(run)
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	m.logger.Debug("wizard run started", "run_id", run.ID, "wizard", engine.Title())
	return run
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

func (m *Manager) lookup(id string) (*Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	return run, ok
}

// WithLock runs fn while holding the lock of run id.
// Returns domain.ErrRunNotFound if the id is unknown.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(ctx context.Context, run *Run) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	run, ok := m.lookup(id)
	if !ok {
		return domain.ErrRunNotFound
	}
	return fn(ctx, run)
}

// Remove drops a run. Removing an unknown id is not an error.
func (m *Manager) Remove(ctx context.Context, id string) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	m.mu.Lock()
	delete(m.runs, id)
	m.mu.Unlock()

	m.logger.Debug("wizard run removed", "run_id", id)
	return nil
}

// List returns the ids of all runs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
