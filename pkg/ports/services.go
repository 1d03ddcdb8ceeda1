package ports

import "context"

// ServiceLocator gives editors access to the external admin registries they
// need to populate choice lists. It is passed explicitly into constructors
// instead of being fetched from a process-wide session.
type ServiceLocator interface {
	// Connections lists the names of the configured outbound connections.
	Connections(ctx context.Context) ([]string, error)

	// SecurePasswords lists the names of stored secure passwords.
	SecurePasswords(ctx context.Context) ([]string, error)
}

// StaticLocator is a ServiceLocator backed by fixed lists.
type StaticLocator struct {
	ConnectionNames []string
	PasswordNames   []string
}

func (s StaticLocator) Connections(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.ConnectionNames...), nil
}

func (s StaticLocator) SecurePasswords(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.PasswordNames...), nil
}

// HelpProvider shows contextual help for a topic.
type HelpProvider interface {
	ShowHelp(topic string)
}

// Localizer resolves display strings by key.
type Localizer interface {
	Resolve(key string) string
}

// IdentityLocalizer returns keys unchanged.
type IdentityLocalizer struct{}

func (IdentityLocalizer) Resolve(key string) string { return key }

// CatalogLocalizer resolves keys from a fixed message table. Unknown keys
// are returned unchanged.
type CatalogLocalizer map[string]string

func (c CatalogLocalizer) Resolve(key string) string {
	if text, ok := c[key]; ok && text != "" {
		return text
	}
	return key
}
