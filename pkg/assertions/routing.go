package assertions

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/editor"
	"github.com/aretw0/policydesk/pkg/ports"
)

// RoutingEditor edits an HTTPRouting. Its connection and password choices
// come from the service locator when the editor is created.
type RoutingEditor struct {
	*editor.FormEditor
	connections []string
	passwords   []string
}

// NewRoutingEditor creates a routing form. A failed lookup is reported
// through notifier and leaves that choice list empty.
func NewRoutingEditor(ctx context.Context, locator ports.ServiceLocator, notifier ports.Notifier, logger *slog.Logger) *RoutingEditor {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := &RoutingEditor{FormEditor: editor.NewFormEditor(
		editor.Field{Name: "url", Label: "URL", Required: true},
		editor.Field{Name: "connection", Label: "Connection"},
		editor.Field{Name: "password", Label: "Password"},
	)}

	if locator != nil {
		e.connections = lookupNames(ctx, "connections", locator.Connections, notifier, logger)
		e.passwords = lookupNames(ctx, "passwords", locator.SecurePasswords, notifier, logger)
	}
	e.SetChoices("connection", e.connections)
	e.SetChoices("password", e.passwords)
	return e
}

func lookupNames(ctx context.Context, source string, fn func(context.Context) ([]string, error), notifier ports.Notifier, logger *slog.Logger) []string {
	names, err := fn(ctx)
	if err != nil {
		lookupErr := &domain.LookupError{Source: source, Err: err}
		logger.Warn("registry lookup failed", "source", source, "err", lookupErr)
		notifier.NotifyError("HTTP Routing", lookupErr.Error())
		return nil
	}
	return names
}

// Connections returns the choices offered for the connection field.
func (e *RoutingEditor) Connections() []string {
	return append([]string(nil), e.connections...)
}

// Passwords returns the secure password names offered for the password field.
func (e *RoutingEditor) Passwords() []string {
	return append([]string(nil), e.passwords...)
}

func (e *RoutingEditor) SetData(obj *HTTPRouting) {
	_ = e.SetField("url", obj.URL)
	_ = e.SetField("connection", obj.Connection)
	_ = e.SetField("password", obj.Password)
}

func (e *RoutingEditor) GetData(obj *HTTPRouting) (*HTTPRouting, error) {
	if err := e.Validate(); err != nil {
		return obj, err
	}
	raw := editor.Trimmed(e.Value("url"))
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return obj, domain.NewValidationError("url", "URL must be an absolute http or https address")
	}
	obj.URL = raw
	obj.Connection = editor.Trimmed(e.Value("connection"))
	obj.Password = editor.Trimmed(e.Value("password"))
	return obj, nil
}

func routingFactory(locator ports.ServiceLocator, notifier ports.Notifier, logger *slog.Logger) editor.Factory {
	return editor.NewFactory(func(ctx context.Context) (editor.PropertyEditor[*HTTPRouting], error) {
		return NewRoutingEditor(ctx, locator, notifier, logger), nil
	})
}
