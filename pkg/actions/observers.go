package actions

import (
	"context"

	"github.com/aretw0/policydesk/pkg/domain"
)

// Observer receives assertion change notifications.
type Observer func(ctx context.Context, event *domain.AssertionEvent)

type subscription struct {
	id int
	fn Observer
}

// Observers is an ordered list of callbacks. Notify delivers synchronously,
// in registration order, to the observers registered when it is called.
// It is not safe for concurrent use.
type Observers struct {
	nextID int
	subs   []subscription
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observers) Subscribe(fn Observer) (unsubscribe func()) {
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscription{id: id, fn: fn})

	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers event to every current observer.
func (o *Observers) Notify(ctx context.Context, event *domain.AssertionEvent) {
	current := make([]subscription, len(o.subs))
	copy(current, o.subs)
	for _, s := range current {
		s.fn(ctx, event)
	}
}

// Len returns the number of registered observers.
func (o *Observers) Len() int {
	return len(o.subs)
}
