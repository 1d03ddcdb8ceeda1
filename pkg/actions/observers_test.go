package actions_test

import (
	"context"
	"testing"

	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestObservers(t *testing.T) {
	var obs actions.Observers
	var got []string

	unsubA := obs.Subscribe(func(ctx context.Context, ev *domain.AssertionEvent) {
		got = append(got, "a:"+string(ev.Kind))
	})
	obs.Subscribe(func(ctx context.Context, ev *domain.AssertionEvent) {
		got = append(got, "b:"+string(ev.Kind))
		// Registered during delivery: only sees later events.
		obs.Subscribe(func(ctx context.Context, ev *domain.AssertionEvent) {
			got = append(got, "late:"+string(ev.Kind))
		})
	})

	ctx := context.Background()
	obs.Notify(ctx, &domain.AssertionEvent{Kind: "x"})
	assert.Equal(t, []string{"a:x", "b:x"}, got)

	unsubA()
	unsubA()
	got = nil
	obs.Notify(ctx, &domain.AssertionEvent{Kind: "y"})
	assert.Equal(t, []string{"b:y", "late:y"}, got)
	assert.Equal(t, 3, obs.Len())
}
