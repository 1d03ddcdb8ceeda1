package policydesk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/editor"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// EditorHandler presents an editor opened by a properties action.
type EditorHandler func(ctx context.Context, session editor.Opener) error

// Console is the high-level entry point of the library.
type Console struct {
	registry  *registry.Registry
	resolver  *actions.Resolver
	observers *actions.Observers
	notifier  ports.Notifier
	locator   ports.ServiceLocator
	store     ports.AssertionStore
	hooks     domain.WizardHooks
	localizer ports.Localizer
	logger    *slog.Logger

	editorHandler EditorHandler
	resolverOpts  []actions.Option
}

// Option defines a functional option for configuring the Console.
type Option func(*Console)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// WithNotifier sets the user-facing side channel shared by wizards and editors.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Console) {
		c.notifier = n
	}
}

// WithServiceLocator gives editors access to the admin registries.
func WithServiceLocator(l ports.ServiceLocator) Option {
	return func(c *Console) {
		c.locator = l
	}
}

// WithStore commits every confirmed editor session to store, keyed by node path.
func WithStore(store ports.AssertionStore) Option {
	return func(c *Console) {
		c.store = store
	}
}

// WithWizardHooks registers observability hooks on every wizard.
func WithWizardHooks(hooks domain.WizardHooks) Option {
	return func(c *Console) {
		c.hooks = hooks
	}
}

// WithLocalizer translates action names and editor titles.
func WithLocalizer(l ports.Localizer) Option {
	return func(c *Console) {
		c.localizer = l
	}
}

// WithRegistry replaces the default kind registry. The Console freezes it.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Console) {
		c.registry = reg
	}
}

// WithEditorHandler makes properties actions invokable: the opened session
// is passed to handler.
func WithEditorHandler(handler EditorHandler) Option {
	return func(c *Console) {
		c.editorHandler = handler
	}
}

// WithResolverOptions forwards options to the action resolver.
func WithResolverOptions(opts ...actions.Option) Option {
	return func(c *Console) {
		c.resolverOpts = append(c.resolverOpts, opts...)
	}
}

// New creates a Console. Without WithRegistry, the kinds of package
// assertions are registered.
func New(opts ...Option) (*Console, error) {
	c := &Console{
		observers: &actions.Observers{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.notifier == nil {
		c.notifier = ports.NopNotifier{}
	}
	if c.localizer == nil {
		c.localizer = ports.IdentityLocalizer{}
	}
	if c.registry == nil {
		c.registry = registry.NewRegistry()
		if err := assertions.RegisterDefaults(c.registry, c.locator, c.notifier, c.logger); err != nil {
			return nil, fmt.Errorf("failed to register assertion kinds: %w", err)
		}
	}
	c.registry.Freeze()

	resolverOpts := []actions.Option{actions.WithLogger(c.logger), actions.WithLocalizer(c.localizer)}
	if c.editorHandler != nil {
		resolverOpts = append(resolverOpts, actions.WithOpen(c.openProperties))
	}
	resolverOpts = append(resolverOpts, c.resolverOpts...)
	c.resolver = actions.NewResolver(c.registry, resolverOpts...)

	return c, nil
}

// Registry returns the frozen kind registry.
func (c *Console) Registry() *registry.Registry { return c.registry }

// Resolver returns the action resolver.
func (c *Console) Resolver() *actions.Resolver { return c.resolver }

// Observers returns the assertion change notification list.
func (c *Console) Observers() *actions.Observers { return c.observers }

// Actions returns the action set of node.
func (c *Console) Actions(node domain.Node) []domain.Action {
	return c.resolver.Resolve(node)
}

// NewWizard starts a wizard run on the chain rooted at root. The Console's
// notifier, hooks and logger apply unless overridden by opts.
func (c *Console) NewWizard(root wizard.Step, opts ...wizard.Option) (*wizard.Engine, error) {
	base := []wizard.Option{
		wizard.WithNotifier(c.notifier),
		wizard.WithLifecycleHooks(c.hooks),
		wizard.WithLogger(c.logger),
	}
	return wizard.New(root, append(base, opts...)...)
}

// LoadWizard builds a wizard from the YAML definition at path.
func (c *Console) LoadWizard(path string, opts ...wizard.Option) (*wizard.Engine, error) {
	b, err := dsl.LoadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := b.Chain()
	if err != nil {
		return nil, err
	}
	return c.NewWizard(root, append([]wizard.Option{wizard.WithTitle(b.Title())}, opts...)...)
}

// Edit opens the property editor of node. Nodes inside an included fragment
// are always opened read-only.
func (c *Console) Edit(ctx context.Context, node domain.Node, readOnly bool) (editor.Opener, error) {
	a := node.Assertion()
	d, err := c.registry.Lookup(a.Kind())
	if err != nil {
		return nil, err
	}
	if d.EditorFactory == nil {
		return nil, fmt.Errorf("assertion kind '%s' has no property editor", a.Kind())
	}

	cfg := editor.SessionConfig{
		Title:           c.localizer.Resolve(actions.PropertiesActionName(d)),
		Modal:           true,
		EscapeDismisses: true,
		ReadOnly:        readOnly || node.IsDescendantOfInclude(),
	}
	opts := []editor.SessionOption{
		editor.WithNotifier(c.notifier),
		editor.WithLogger(c.logger),
		editor.WithOnConfirm(func(ctx context.Context, obj domain.Assertion) {
			c.observers.Notify(ctx, &domain.AssertionEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAssertionEdited},
				Kind:      obj.Kind(),
				Path:      node.Path(),
			})
		}),
	}
	if c.store != nil {
		opts = append(opts, editor.WithStore(c.store, node.Path()))
	}

	c.logger.Debug("opening property editor", "kind", a.Kind(), "path", node.Path(), "read_only", cfg.ReadOnly)
	return d.EditorFactory(ctx, a, cfg, opts...)
}

func (c *Console) openProperties(ctx context.Context, node domain.Node) error {
	session, err := c.Edit(ctx, node, false)
	if err != nil {
		return err
	}
	return c.editorHandler(ctx, session)
}
