package assertions

import (
	"log/slog"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
)

// Descriptors returns the metadata of every kind in this package.
func Descriptors(locator ports.ServiceLocator, notifier ports.Notifier, logger *slog.Logger) []registry.Descriptor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return []registry.Descriptor{
		{
			Kind:          KindAddHeader,
			ShortName:     "add header",
			Description:   "Add, replace or remove an HTTP header.",
			EditorFactory: headerFactory(),
		},
		{
			Kind:                 KindHTTPRouting,
			ShortName:            "HTTP routing",
			Description:          "Route the request to a back-end service.",
			PropertiesActionName: "HTTP Routing Properties",
			EditorFactory:        routingFactory(locator, notifier, logger),
		},
		{
			Kind:          KindIdentityConstraint,
			ShortName:     "identity constraint",
			Description:   "Restrict the following assertion to one identity.",
			EditorFactory: identityFactory(),
		},
		{
			Kind:        KindAll,
			ShortName:   "all",
			Description: "All child assertions must evaluate to true.",
			Composite:   true,
		},
		{
			Kind:        KindOneOrMore,
			ShortName:   "at least one",
			Description: "At least one child assertion must evaluate to true.",
			Composite:   true,
		},
		{
			Kind:        KindInclude,
			ShortName:   "include",
			Description: "Include a shared policy fragment.",
			Composite:   true,
		},
	}
}

// RegisterDefaults registers every kind of this package on reg.
func RegisterDefaults(reg *registry.Registry, locator ports.ServiceLocator, notifier ports.Notifier, logger *slog.Logger) error {
	for _, d := range Descriptors(locator, notifier, logger) {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
