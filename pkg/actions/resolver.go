package actions

import (
	"context"
	"log/slog"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
)

// Invoker performs a standard action on a node.
type Invoker func(ctx context.Context, node domain.Node, id domain.ActionID) error

// Resolver derives the action set of tree nodes from kind metadata.
type Resolver struct {
	registry  *registry.Registry
	base      BaseContributor
	filters   []Filter
	open      OpenFunc
	invoke    Invoker
	localizer ports.Localizer
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBase replaces the standard base contributor.
func WithBase(base BaseContributor) Option {
	return func(r *Resolver) {
		r.base = base
	}
}

// WithFilter appends a filter after the default ones.
func WithFilter(f Filter) Option {
	return func(r *Resolver) {
		r.filters = append(r.filters, f)
	}
}

// WithOpen sets how the default properties action opens an editor.
func WithOpen(open OpenFunc) Option {
	return func(r *Resolver) {
		r.open = open
	}
}

// WithInvoker attaches an implementation to the base actions.
func WithInvoker(invoke Invoker) Option {
	return func(r *Resolver) {
		r.invoke = invoke
	}
}

// WithLocalizer resolves action names and descriptions before they are
// returned. The English text is the lookup key.
func WithLocalizer(l ports.Localizer) Option {
	return func(r *Resolver) {
		r.localizer = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver over reg.
func NewResolver(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:  reg,
		base:      StandardBase{},
		filters:   append([]Filter(nil), DefaultFilters...),
		localizer: ports.IdentityLocalizer{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Preferred returns the default action of node, if its kind defines one.
func (r *Resolver) Preferred(node domain.Node) (domain.Action, bool) {
	kind := node.Assertion().Kind()
	d, err := r.registry.Lookup(kind)
	if err != nil {
		r.logger.Warn("no metadata for node", "kind", kind, "path", node.Path(), "err", err)
		return domain.Action{}, false
	}

	factory := d.ActionFactory
	if factory == nil && d.EditorFactory != nil {
		factory = PropertiesActionFactory(d, r.open)
	}
	if factory == nil {
		return domain.Action{}, false
	}
	return factory.PreferredAction(node)
}

// Resolve returns a fresh action set for node: the preferred action first,
// then the base actions in their original order, minus filtered ones.
func (r *Resolver) Resolve(node domain.Node) []domain.Action {
	var candidates []domain.Action
	if preferred, ok := r.Preferred(node); ok {
		candidates = append(candidates, preferred)
	}

	for _, a := range r.base.Contribute(node) {
		if r.invoke != nil && a.Invoke == nil {
			a.Invoke = r.bind(node, a.ID)
		}
		candidates = append(candidates, a)
	}

	out := make([]domain.Action, 0, len(candidates))
	for _, a := range candidates {
		if r.keep(node, a) {
			a.Name = r.localizer.Resolve(a.Name)
			if a.Description != "" {
				a.Description = r.localizer.Resolve(a.Description)
			}
			out = append(out, a)
		}
	}

	r.logger.Debug("resolved actions", "kind", node.Assertion().Kind(), "path", node.Path(), "count", len(out))
	return out
}

func (r *Resolver) keep(node domain.Node, a domain.Action) bool {
	for _, f := range r.filters {
		if !f(node, a) {
			return false
		}
	}
	return true
}

func (r *Resolver) bind(node domain.Node, id domain.ActionID) func(context.Context) error {
	return func(ctx context.Context) error {
		return r.invoke(ctx, node, id)
	}
}
