package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
)

// Status is the lifecycle state of a wizard run.
type Status string

const (
	StatusActive    Status = "active"    // AtStep(i)
	StatusFinished  Status = "finished"  // confirmed, terminal
	StatusCancelled Status = "cancelled" // discarded, terminal
)

// CompletionFunc is the optional global hook run before the wizard finishes.
// Returning an error keeps the wizard open.
type CompletionFunc func(ctx context.Context, settings *domain.Settings) error

// Engine drives one run of a step chain.
type Engine struct {
	title     string
	steps     []Step
	index     int
	status    Status
	settings  *domain.Settings
	snapshots []map[string]any // settings as they were just before step i was last left
	visited   []int

	notifier   ports.Notifier
	completion CompletionFunc
	builder    ports.SettingsBuilder
	hooks      domain.WizardHooks
	help       ports.HelpProvider
	helpTopic  string
	logger     *slog.Logger
	seed       map[string]any
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTitle sets the wizard title used in notifications and events.
func WithTitle(title string) Option {
	return func(e *Engine) {
		e.title = title
	}
}

// WithSettings seeds the run. The seed is deep-copied; the caller's map is
// left untouched whatever happens to the run.
func WithSettings(seed map[string]any) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithNotifier sets the side channel used to report rejected transitions.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithCompletion registers the global completion hook.
func WithCompletion(fn CompletionFunc) Option {
	return func(e *Engine) {
		e.completion = fn
	}
}

// WithBuilder hands the finalized settings to an external builder.
func WithBuilder(b ports.SettingsBuilder) Option {
	return func(e *Engine) {
		e.builder = b
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.WizardHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithHelp wires contextual help. The topic defaults to the step label.
func WithHelp(h ports.HelpProvider, topic string) Option {
	return func(e *Engine) {
		e.help = h
		e.helpTopic = topic
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine positioned at the root step.
// It fails with a *domain.ConfigurationError if root is nil or the chain is cyclic.
func New(root Step, opts ...Option) (*Engine, error) {
	e := &Engine{
		status:   StatusActive,
		notifier: ports.NopNotifier{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	steps, err := collectChain(root)
	if err != nil {
		return nil, err
	}

	e.steps = steps
	e.snapshots = make([]map[string]any, len(steps))
	e.settings = domain.NewSettings(e.seed)
	e.seed = nil
	if e.title == "" {
		e.title = steps[0].Label()
	}

	e.enter(context.Background(), 0)
	return e, nil
}

// collectChain walks the linked steps once and freezes their order.
func collectChain(root Step) ([]Step, error) {
	if isNil(root) {
		return nil, &domain.ConfigurationError{Component: "wizard", Reason: "root step is nil"}
	}

	seen := make(map[Step]int)
	var steps []Step
	for step := root; !isNil(step); step = step.Next() {
		if !reflect.TypeOf(step).Comparable() {
			return nil, &domain.ConfigurationError{
				Component: "wizard",
				Reason:    fmt.Sprintf("step %d (%T) is not comparable; use pointer steps", len(steps), step),
			}
		}
		if at, ok := seen[step]; ok {
			return nil, &domain.ConfigurationError{
				Component: "wizard",
				Reason:    fmt.Sprintf("step chain loops back to step %d (%s)", at, step.Label()),
			}
		}
		seen[step] = len(steps)
		steps = append(steps, step)
	}
	return steps, nil
}

func isNil(step Step) bool {
	if step == nil {
		return true
	}
	v := reflect.ValueOf(step)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Next leaves the current step through its advance guard.
// It returns false with a nil error when the guard rejected the move; the
// reason was reported through the notifier.
func (e *Engine) Next(ctx context.Context) (bool, error) {
	if e.terminal() {
		return false, domain.ErrWizardTerminated
	}

	step := e.steps[e.index]
	before := e.settings.Snapshot()

	if err := step.OnNext(e.settings); err != nil {
		e.reject(ctx, step, err)
		return false, nil
	}

	step.StoreSettings(e.settings)
	e.snapshots[e.index] = before
	e.logWrite(step, before)

	if e.index == len(e.steps)-1 {
		return e.complete(ctx, step)
	}

	e.emit(ctx, e.hooks.OnStepLeave, domain.EventStepLeave, "next")
	e.enter(ctx, e.index+1)
	return true, nil
}

// Back returns to the previous step. No guard runs and nothing is written
// back; the settings are rewound to how they were before that step was left.
func (e *Engine) Back(ctx context.Context) bool {
	if e.terminal() || e.index == 0 {
		return false
	}

	e.emit(ctx, e.hooks.OnStepLeave, domain.EventStepLeave, "back")

	e.index--
	if snap := e.snapshots[e.index]; snap != nil {
		e.settings.Restore(snap)
	}
	e.visited = append(e.visited, e.index)

	e.logger.Debug("wizard moved back", "wizard", e.title, "step", e.index, "label", e.steps[e.index].Label())
	e.emit(ctx, e.hooks.OnStepEnter, domain.EventStepEnter, "back")
	return true
}

// Finish confirms the run from the current step if its finish guard accepts.
func (e *Engine) Finish(ctx context.Context) (bool, error) {
	if e.terminal() {
		return false, domain.ErrWizardTerminated
	}

	step := e.steps[e.index]
	if !step.CanFinish(e.settings) {
		e.logger.Debug("finish refused by step", "wizard", e.title, "step", e.index, "label", step.Label())
		return false, nil
	}

	before := e.settings.Snapshot()
	step.StoreSettings(e.settings)
	e.snapshots[e.index] = before
	e.logWrite(step, before)

	return e.complete(ctx, step)
}

// Cancel discards the run. It always succeeds and never writes anything back.
func (e *Engine) Cancel(ctx context.Context) {
	if e.terminal() {
		return
	}

	e.status = StatusCancelled
	e.settings = nil
	e.snapshots = nil

	e.logger.Debug("wizard cancelled", "wizard", e.title, "step", e.index)
	e.emit(ctx, e.hooks.OnCancel, domain.EventWizardCancel, "")
}

// Help shows contextual help for the current step.
func (e *Engine) Help() {
	if e.help == nil {
		return
	}
	topic := e.helpTopic
	if topic == "" {
		topic = e.steps[e.index].Label()
	}
	e.help.ShowHelp(topic)
}

func (e *Engine) complete(ctx context.Context, step Step) (bool, error) {
	if e.completion != nil {
		if err := e.completion(ctx, e.settings); err != nil {
			return false, e.failCompletion(ctx, err)
		}
	}
	if e.builder != nil {
		if err := e.builder.Build(ctx, e.settings); err != nil {
			return false, e.failCompletion(ctx, err)
		}
	}

	e.emit(ctx, e.hooks.OnStepLeave, domain.EventStepLeave, "finish")
	e.status = StatusFinished
	e.snapshots = nil

	e.logger.Debug("wizard finished", "wizard", e.title, "step", e.index, "label", step.Label())
	e.emit(ctx, e.hooks.OnFinish, domain.EventWizardFinish, "")
	return true, nil
}

func (e *Engine) failCompletion(ctx context.Context, err error) error {
	e.logger.Warn("wizard completion failed", "wizard", e.title, "err", err)
	e.notifier.NotifyError(e.title, err.Error())
	e.emit(ctx, e.hooks.OnValidationFailed, domain.EventValidationFailed, err.Error())
	return &CompletionError{Wizard: e.title, Err: err}
}

func (e *Engine) reject(ctx context.Context, step Step, err error) {
	e.logger.Debug("advance refused by step", "wizard", e.title, "step", e.index, "label", step.Label(), "err", err)
	e.notifier.NotifyError(step.Label(), err.Error())
	e.emit(ctx, e.hooks.OnValidationFailed, domain.EventValidationFailed, err.Error())
}

func (e *Engine) enter(ctx context.Context, index int) {
	e.index = index
	e.visited = append(e.visited, index)
	e.steps[index].ReadSettings(e.settings)
	e.emit(ctx, e.hooks.OnStepEnter, domain.EventStepEnter, "")
}

func (e *Engine) logWrite(step Step, before map[string]any) {
	changed := domain.Diff(domain.NewSettings(before), e.settings)
	if changed.Empty() {
		return
	}
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	e.logger.Debug("step stored settings", "wizard", e.title, "label", step.Label(), "keys", keys)
}

func (e *Engine) emit(ctx context.Context, hook func(context.Context, *domain.WizardEvent), typ domain.EventType, msg string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.WizardEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
		},
		Wizard:    e.title,
		StepIndex: e.index,
		StepLabel: e.steps[e.index].Label(),
		Message:   msg,
	})
}

func (e *Engine) terminal() bool {
	return e.status != StatusActive
}

// Title returns the wizard title.
func (e *Engine) Title() string { return e.title }

// Status returns the lifecycle state.
func (e *Engine) Status() Status { return e.status }

// Index returns the current step index.
func (e *Engine) Index() int { return e.index }

// Len returns the number of steps.
func (e *Engine) Len() int { return len(e.steps) }

// Current returns the current step.
func (e *Engine) Current() Step { return e.steps[e.index] }

// Steps returns the frozen chain.
func (e *Engine) Steps() []Step {
	out := make([]Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// Visited returns the indices entered so far, in order.
func (e *Engine) Visited() []int {
	out := make([]int, len(e.visited))
	copy(out, e.visited)
	return out
}

// Settings returns the live settings bag; nil once cancelled.
func (e *Engine) Settings() *domain.Settings { return e.settings }

// Result returns the confirmed settings. ok is false unless the run finished.
func (e *Engine) Result() (*domain.Settings, bool) {
	if e.status != StatusFinished {
		return nil, false
	}
	return e.settings, true
}

// CanGoBack reports whether Back would move.
func (e *Engine) CanGoBack() bool {
	return !e.terminal() && e.index > 0
}

// CanAdvance reports whether the Next control should be enabled.
// The advance guard itself still runs on Next.
func (e *Engine) CanAdvance() bool {
	if e.terminal() {
		return false
	}
	if a, ok := e.steps[e.index].(Advancer); ok {
		return a.CanAdvance(e.settings)
	}
	return true
}

// CanFinish reports whether the current step accepts Finish.
func (e *Engine) CanFinish() bool {
	if e.terminal() {
		return false
	}
	return e.steps[e.index].CanFinish(e.settings)
}
