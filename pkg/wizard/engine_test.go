package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldStep owns one key. The value typed by the "user" lives in input and is
// only written back on StoreSettings.
type fieldStep struct {
	wizard.BaseStep
	key   string
	input string

	reads, stores int
	guard         func(input string) error
}

func newFieldStep(label, key string, next wizard.Step) *fieldStep {
	return &fieldStep{BaseStep: wizard.NewBaseStep(label, "", next), key: key}
}

func (s *fieldStep) ReadSettings(settings *domain.Settings) {
	s.reads++
	s.input = settings.String(s.key)
}

func (s *fieldStep) OnNext(settings *domain.Settings) error {
	if s.guard != nil {
		return s.guard(s.input)
	}
	return nil
}

func (s *fieldStep) StoreSettings(settings *domain.Settings) {
	s.stores++
	settings.Set(s.key, s.input)
}

func (s *fieldStep) CanAdvance(settings *domain.Settings) bool {
	return s.guard == nil || s.guard(s.input) == nil
}

// chain builds a → b → c.
func chain() (*fieldStep, *fieldStep, *fieldStep) {
	c := newFieldStep("c", "kc", nil)
	b := newFieldStep("b", "kb", c)
	a := newFieldStep("a", "ka", b)
	return a, b, c
}

func TestEngine_New(t *testing.T) {
	t.Run("nil root", func(t *testing.T) {
		_, err := wizard.New(nil)
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("typed nil root", func(t *testing.T) {
		var root *fieldStep
		_, err := wizard.New(root)
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("cycle", func(t *testing.T) {
		a, _, c := chain()
		c.SetNext(a)
		_, err := wizard.New(a)
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "loops back to step 0")
	})

	t.Run("reads the first step", func(t *testing.T) {
		a, _, _ := chain()
		e, err := wizard.New(a, wizard.WithSettings(map[string]any{"ka": "seeded"}))
		require.NoError(t, err)

		assert.Equal(t, 3, e.Len())
		assert.Equal(t, 0, e.Index())
		assert.Equal(t, wizard.StatusActive, e.Status())
		assert.Equal(t, "a", e.Title())
		assert.Equal(t, 1, a.reads)
		assert.Equal(t, "seeded", a.input)
		assert.False(t, e.CanGoBack())
	})
}

func TestEngine_NextWalksToFinish(t *testing.T) {
	a, b, c := chain()
	e, err := wizard.New(a, wizard.WithTitle("Routing"))
	require.NoError(t, err)
	ctx := context.Background()

	a.input, b.input, c.input = "1", "2", "3"

	// b and c read their (empty) keys on entry, so type after entering.
	ok, err := e.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	b.input = "2"

	ok, err = e.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	c.input = "3"

	ok, err = e.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, wizard.StatusFinished, e.Status())
	assert.Equal(t, []int{0, 1, 2}, e.Visited())

	result, done := e.Result()
	require.True(t, done)
	assert.Equal(t, "1", result.String("ka"))
	assert.Equal(t, "2", result.String("kb"))
	assert.Equal(t, "3", result.String("kc"))

	assert.Equal(t, 1, a.stores)
	assert.Equal(t, 1, b.stores)
	assert.Equal(t, 1, c.stores)

	_, err = e.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrWizardTerminated)
	_, err = e.Finish(ctx)
	assert.ErrorIs(t, err, domain.ErrWizardTerminated)
	assert.False(t, e.Back(ctx))
}

func TestEngine_BackRestoresSettings(t *testing.T) {
	a, b, _ := chain()
	e, err := wizard.New(a, wizard.WithSettings(map[string]any{"ka": "old"}))
	require.NoError(t, err)
	ctx := context.Background()

	before := e.Settings().Clone()

	a.input = "new"
	ok, err := e.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", e.Settings().String("ka"))

	require.True(t, e.Back(ctx))
	assert.Equal(t, 0, e.Index())
	assert.True(t, before.Equal(e.Settings()), "settings should be rewound")

	// The view keeps what was typed; it is not re-read.
	assert.Equal(t, 1, a.reads)
	assert.Equal(t, "new", a.input)

	// Leaving again writes back again.
	ok, err = e.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, a.stores)
	assert.Equal(t, "new", e.Settings().String("ka"))
	assert.Equal(t, 2, b.reads)

	assert.Equal(t, []int{0, 1, 0, 1}, e.Visited())
	assert.False(t, e.Back(ctx) && e.Back(ctx), "cannot go back past the first step")
	assert.Equal(t, 0, e.Index())
}

func TestEngine_CancelLeavesSeedUntouched(t *testing.T) {
	seed := map[string]any{
		"ka":   "keep",
		"tags": []any{"x", "y"},
	}
	a, _, _ := chain()

	var cancelled int
	e, err := wizard.New(a,
		wizard.WithSettings(seed),
		wizard.WithLifecycleHooks(domain.WizardHooks{
			OnCancel: func(ctx context.Context, ev *domain.WizardEvent) { cancelled++ },
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	a.input = "changed"
	_, err = e.Next(ctx)
	require.NoError(t, err)
	e.Settings().Set("tags", []any{"z"})

	e.Cancel(ctx)
	e.Cancel(ctx)

	assert.Equal(t, wizard.StatusCancelled, e.Status())
	assert.Equal(t, 1, cancelled)
	assert.Nil(t, e.Settings())
	_, done := e.Result()
	assert.False(t, done)

	assert.Equal(t, "keep", seed["ka"])
	assert.Equal(t, []any{"x", "y"}, seed["tags"])

	_, err = e.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrWizardTerminated)
}

func TestEngine_GuardRejects(t *testing.T) {
	a, _, _ := chain()
	a.guard = func(input string) error {
		if input == "" {
			return errors.New("Header name may not be empty")
		}
		return nil
	}

	notes := &ports.RecordingNotifier{}
	var failures []string
	e, err := wizard.New(a,
		wizard.WithNotifier(notes),
		wizard.WithLifecycleHooks(domain.WizardHooks{
			OnValidationFailed: func(ctx context.Context, ev *domain.WizardEvent) {
				failures = append(failures, ev.Message)
			},
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, e.CanAdvance())

	ok, err := e.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, e.Index())
	assert.Equal(t, 0, a.stores, "a rejected step writes nothing")
	assert.False(t, e.Settings().Has("ka"))

	last, found := notes.Last()
	require.True(t, found)
	assert.True(t, last.Error)
	assert.Equal(t, "a", last.Title)
	assert.Equal(t, "Header name may not be empty", last.Message)
	assert.Equal(t, []string{"Header name may not be empty"}, failures)

	a.input = "X-Policy"
	assert.True(t, e.CanAdvance())
	ok, err = e.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, e.Index())
}

func TestEngine_Finish(t *testing.T) {
	t.Run("early exit from a finishable step", func(t *testing.T) {
		a, b, c := chain()
		b.SetFinishable(true)
		e, err := wizard.New(a)
		require.NoError(t, err)
		ctx := context.Background()

		assert.False(t, e.CanFinish())
		ok, err := e.Finish(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, wizard.StatusActive, e.Status())

		a.input = "1"
		_, err = e.Next(ctx)
		require.NoError(t, err)
		b.input = "2"

		require.True(t, e.CanFinish())
		ok, err = e.Finish(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, wizard.StatusFinished, e.Status())
		assert.Equal(t, 0, c.reads, "steps after the exit point are never entered")
		assert.Equal(t, 0, c.stores)

		result, _ := e.Result()
		assert.Equal(t, "2", result.String("kb"))
		assert.False(t, result.Has("kc"))
	})

	t.Run("last step finishes by default", func(t *testing.T) {
		only := newFieldStep("only", "k", nil)
		e, err := wizard.New(only)
		require.NoError(t, err)

		only.input = "v"
		ok, err := e.Finish(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, only.stores)
	})
}

func TestEngine_CompletionFailure(t *testing.T) {
	a, b, _ := chain()
	b.SetNext(nil)

	notes := &ports.RecordingNotifier{}
	reject := true
	var built *domain.Settings
	e, err := wizard.New(a,
		wizard.WithTitle("Add Header"),
		wizard.WithNotifier(notes),
		wizard.WithCompletion(func(ctx context.Context, s *domain.Settings) error {
			if reject {
				return errors.New("connection unavailable")
			}
			return nil
		}),
		wizard.WithBuilder(ports.SettingsBuilderFunc(func(ctx context.Context, s *domain.Settings) error {
			built = s.Clone()
			return nil
		})),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Next(ctx)
	require.NoError(t, err)
	b.input = "value"

	ok, err := e.Next(ctx)
	assert.False(t, ok)
	var compErr *wizard.CompletionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "Add Header", compErr.Wizard)
	assert.EqualError(t, errors.Unwrap(err), "connection unavailable")

	assert.Equal(t, wizard.StatusActive, e.Status())
	assert.Equal(t, 1, e.Index())
	assert.Nil(t, built)
	last, _ := notes.Last()
	assert.Equal(t, "connection unavailable", last.Message)

	reject = false
	ok, err = e.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, built)
	assert.Equal(t, "value", built.String("kb"))
	assert.Equal(t, 2, b.stores)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	a, _, _ := chain()

	var entered, left []string
	var finished int
	hooks := domain.WizardHooks{
		OnStepEnter: func(ctx context.Context, ev *domain.WizardEvent) {
			entered = append(entered, ev.StepLabel)
		},
		OnStepLeave: func(ctx context.Context, ev *domain.WizardEvent) {
			left = append(left, ev.StepLabel+":"+ev.Message)
		},
		OnFinish: func(ctx context.Context, ev *domain.WizardEvent) {
			finished++
			assert.Equal(t, domain.EventWizardFinish, ev.Type)
		},
	}

	e, err := wizard.New(a, wizard.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Next(ctx)
	require.NoError(t, err)
	e.Back(ctx)
	_, err = e.Next(ctx)
	require.NoError(t, err)
	_, err = e.Next(ctx)
	require.NoError(t, err)
	_, err = e.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "a", "b", "c"}, entered)
	assert.Equal(t, []string{"a:next", "b:back", "a:next", "b:next", "c:finish"}, left)
	assert.Equal(t, 1, finished)
}

type helpRecorder struct{ topics []string }

func (h *helpRecorder) ShowHelp(topic string) { h.topics = append(h.topics, topic) }

func TestEngine_Help(t *testing.T) {
	a, _, _ := chain()
	h := &helpRecorder{}
	e, err := wizard.New(a, wizard.WithHelp(h, ""))
	require.NoError(t, err)

	e.Help()
	_, _ = e.Next(context.Background())
	e.Help()
	assert.Equal(t, []string{"a", "b"}, h.topics)

	fixed, err := wizard.New(newFieldStep("x", "k", nil), wizard.WithHelp(h, "policy.routing"))
	require.NoError(t, err)
	fixed.Help()
	assert.Equal(t, "policy.routing", h.topics[2])
}

// injectStep edits a typed map it finds in the bag in place.
type injectStep struct {
	wizard.BaseStep
}

func (s *injectStep) OnNext(settings *domain.Settings) error {
	if headers, ok := settings.Get("headers"); ok {
		headers.(map[string]string)["X-Injected"] = "1"
	}
	return nil
}

func TestEngine_TypedSeedIsIsolated(t *testing.T) {
	ctx := context.Background()
	newEngine := func(seed map[string]any) *wizard.Engine {
		last := newFieldStep("last", "k", nil)
		first := &injectStep{BaseStep: wizard.NewBaseStep("first", "", last)}
		e, err := wizard.New(first, wizard.WithSettings(seed))
		require.NoError(t, err)
		return e
	}

	t.Run("cancel", func(t *testing.T) {
		seed := map[string]any{"headers": map[string]string{"A": "1"}, "ports": []int{80}}
		e := newEngine(seed)

		ok, err := e.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		e.Cancel(ctx)

		assert.Equal(t, map[string]any{"headers": map[string]string{"A": "1"}, "ports": []int{80}}, seed)
	})

	t.Run("back", func(t *testing.T) {
		e := newEngine(map[string]any{"headers": map[string]string{"A": "1"}})

		ok, err := e.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, e.Back(ctx))

		headers, _ := e.Settings().Get("headers")
		assert.Equal(t, map[string]string{"A": "1"}, headers)
	})
}
