package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter        EventType = "step_enter"
	EventStepLeave        EventType = "step_leave"
	EventValidationFailed EventType = "validation_failed"
	EventWizardFinish     EventType = "wizard_finish"
	EventWizardCancel     EventType = "wizard_cancel"

	EventAssertionEdited EventType = "assertion_edited"
	EventAssertionAdded  EventType = "assertion_added"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// WizardEvent describes a wizard transition.
type WizardEvent struct {
	EventBase
	Wizard    string `json:"wizard"`
	StepIndex int    `json:"step_index"`
	StepLabel string `json:"step_label"`
	Message   string `json:"message,omitempty"`
}

// AssertionEvent describes a change to an assertion in the policy tree.
type AssertionEvent struct {
	EventBase
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"`
}

// WizardHooks defines callbacks for wizard observability.
type WizardHooks struct {
	OnStepEnter        func(context.Context, *WizardEvent)
	OnStepLeave        func(context.Context, *WizardEvent)
	OnValidationFailed func(context.Context, *WizardEvent)
	OnFinish           func(context.Context, *WizardEvent)
	OnCancel           func(context.Context, *WizardEvent)
}

// ChainHooks fans every callback out to all hooks, in order.
func ChainHooks(hooks ...WizardHooks) WizardHooks {
	pick := func(get func(WizardHooks) func(context.Context, *WizardEvent)) func(context.Context, *WizardEvent) {
		var fns []func(context.Context, *WizardEvent)
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *WizardEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}

	return WizardHooks{
		OnStepEnter:        pick(func(h WizardHooks) func(context.Context, *WizardEvent) { return h.OnStepEnter }),
		OnStepLeave:        pick(func(h WizardHooks) func(context.Context, *WizardEvent) { return h.OnStepLeave }),
		OnValidationFailed: pick(func(h WizardHooks) func(context.Context, *WizardEvent) { return h.OnValidationFailed }),
		OnFinish:           pick(func(h WizardHooks) func(context.Context, *WizardEvent) { return h.OnFinish }),
		OnCancel:           pick(func(h WizardHooks) func(context.Context, *WizardEvent) { return h.OnCancel }),
	}
}
