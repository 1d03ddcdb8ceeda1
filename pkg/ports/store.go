package ports

import (
	"context"

	"github.com/aretw0/policydesk/pkg/domain"
)

// AssertionStore persists confirmed assertions.
// The core never calls it before an editor session was confirmed.
type AssertionStore interface {
	// Save persists the assertion under id, replacing any previous value.
	Save(ctx context.Context, id string, assertion domain.Assertion) error

	// Load retrieves an assertion.
	// Returns domain.ErrAssertionNotFound if the id does not exist.
	Load(ctx context.Context, id string) (domain.Assertion, error)

	// Delete removes the assertion stored under id.
	Delete(ctx context.Context, id string) error

	// List returns the stored ids.
	List(ctx context.Context) ([]string, error)
}

// AssertionCodec converts assertions to and from their wire form.
type AssertionCodec interface {
	Encode(assertion domain.Assertion) ([]byte, error)
	Decode(data []byte) (domain.Assertion, error)
}

// SettingsBuilder consumes the finalized settings of a confirmed wizard run.
type SettingsBuilder interface {
	Build(ctx context.Context, settings *domain.Settings) error
}

// SettingsBuilderFunc adapts a function to SettingsBuilder.
type SettingsBuilderFunc func(ctx context.Context, settings *domain.Settings) error

func (f SettingsBuilderFunc) Build(ctx context.Context, settings *domain.Settings) error {
	return f(ctx, settings)
}
