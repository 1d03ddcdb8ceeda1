package wizard

import "github.com/aretw0/policydesk/pkg/domain"

// Step is one page of a wizard.
type Step interface {
	// Label is the short name shown in the step list.
	Label() string

	// Description is the longer explanatory text (markdown allowed).
	Description() string

	// Next returns the successor step, or nil for the final step.
	Next() Step

	// ReadSettings initializes the step's view from the shared settings.
	// A step must not assume keys written by a later step exist.
	ReadSettings(settings *domain.Settings)

	// OnNext is the advance guard. A non-nil error keeps the wizard on this
	// step; the error message is shown to the user.
	OnNext(settings *domain.Settings) error

	// CanFinish is the finish guard.
	CanFinish(settings *domain.Settings) bool

	// StoreSettings writes the step's own keys back into the settings.
	StoreSettings(settings *domain.Settings)
}

// Advancer is implemented by steps that can tell, without side effects,
// whether the Next control should be enabled.
type Advancer interface {
	CanAdvance(settings *domain.Settings) bool
}

// BaseStep provides the default Step behavior. Embed it and override what
// the step needs.
type BaseStep struct {
	label       string
	description string
	next        Step
	finishable  bool
}

// NewBaseStep creates a BaseStep linked to next (nil for the final step).
func NewBaseStep(label, description string, next Step) BaseStep {
	return BaseStep{label: label, description: description, next: next}
}

func (b *BaseStep) Label() string       { return b.label }
func (b *BaseStep) Description() string { return b.description }
func (b *BaseStep) Next() Step          { return b.next }

// SetNext links the successor. The chain is frozen when an Engine is built,
// so this only has an effect before New.
func (b *BaseStep) SetNext(next Step) {
	b.next = next
}

// SetFinishable marks the step as a valid early exit point.
func (b *BaseStep) SetFinishable(finishable bool) {
	b.finishable = finishable
}

func (b *BaseStep) ReadSettings(settings *domain.Settings)  {}
func (b *BaseStep) OnNext(settings *domain.Settings) error  { return nil }
func (b *BaseStep) StoreSettings(settings *domain.Settings) {}

// CanFinish accepts when the step was marked finishable or is the last step.
func (b *BaseStep) CanFinish(settings *domain.Settings) bool {
	return b.finishable || b.next == nil
}
