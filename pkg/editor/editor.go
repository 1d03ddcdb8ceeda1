package editor

import (
	"context"

	"github.com/aretw0/policydesk/pkg/domain"
)

// PropertyEditor binds a form to an assertion of type T.
type PropertyEditor[T domain.Assertion] interface {
	// SetData populates the form from obj. It never fails and may be called
	// again to re-sync.
	SetData(obj T)

	// GetData validates the form and writes it into obj. On failure it
	// returns a *domain.ValidationError and leaves obj untouched.
	GetData(obj T) (T, error)
}

// Checker is implemented by editors that can validate their current content
// without committing it. Sessions use it to enable the confirm control.
type Checker interface {
	Validate() error
}

// FieldSource is implemented by editors that expose their form as named
// string fields, so generic hosts can drive them.
type FieldSource interface {
	Fields() []Field
	SetField(name, value string) error
}

// Opener is the type-erased view of a Session.
type Opener interface {
	Title() string
	Kind() domain.Kind
	ReadOnly() bool
	Fields() []Field
	SetField(name, value string) error
	ConfirmEnabled() bool
	ValidationMessage() string
	Confirm(ctx context.Context) (bool, error)
	Cancel(ctx context.Context)
	IsConfirmed() bool
	DialogResult() Result
}

// Factory opens an editor session on obj.
type Factory func(ctx context.Context, obj domain.Assertion, cfg SessionConfig, opts ...SessionOption) (Opener, error)

// NewFactory adapts a typed editor constructor to a Factory. The returned
// Factory rejects objects that are not of type T.
func NewFactory[T domain.Assertion](newEditor func(ctx context.Context) (PropertyEditor[T], error)) Factory {
	return func(ctx context.Context, obj domain.Assertion, cfg SessionConfig, opts ...SessionOption) (Opener, error) {
		typed, ok := obj.(T)
		if !ok {
			return nil, &domain.ConfigurationError{
				Component: "editor",
				Reason:    "unexpected assertion type " + typeName(obj),
			}
		}
		ed, err := newEditor(ctx)
		if err != nil {
			return nil, err
		}
		return NewSession(cfg, ed, typed, opts...)
	}
}
