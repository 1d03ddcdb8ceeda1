package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestAsValidation(t *testing.T) {
	ve := domain.NewValidationError("name", "%s may not be empty", "Header name")
	wrapped := fmt.Errorf("editor: %w", ve)

	got, ok := domain.AsValidation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "name", got.Field)
	assert.Equal(t, "Header name may not be empty", got.Error())

	_, ok = domain.AsValidation(errors.New("plain"))
	assert.False(t, ok)
}

func TestLookupError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &domain.LookupError{Source: "connections", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connections")
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.WizardHooks{OnFinish: func(_ context.Context, _ *domain.WizardEvent) { calls = append(calls, "a") }}
	b := domain.WizardHooks{OnFinish: func(_ context.Context, _ *domain.WizardEvent) { calls = append(calls, "b") }}

	h := domain.ChainHooks(a, b)
	assert.Nil(t, h.OnCancel)

	h.OnFinish(context.Background(), &domain.WizardEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
}
