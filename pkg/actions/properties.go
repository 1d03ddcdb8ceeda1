package actions

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/registry"
)

// OpenFunc opens the property editor of a node.
type OpenFunc func(ctx context.Context, node domain.Node) error

var titleCaser = cases.Title(language.English)

// PropertiesActionName is the default properties action label of a kind,
// e.g. "Add Header Properties".
func PropertiesActionName(d registry.Descriptor) string {
	if d.PropertiesActionName != "" {
		return d.PropertiesActionName
	}
	return titleCaser.String(d.ShortName) + " Properties"
}

// PropertiesActionDesc is the default properties action description.
func PropertiesActionDesc(d registry.Descriptor) string {
	if d.PropertiesActionDesc != "" {
		return d.PropertiesActionDesc
	}
	return fmt.Sprintf("Change the properties of the %s assertion.", d.ShortName)
}

// PropertiesActionFactory yields the properties action of d for every node.
// open may be nil for display-only resolution.
func PropertiesActionFactory(d registry.Descriptor, open OpenFunc) domain.ActionFactory {
	return domain.ActionFactoryFunc(func(node domain.Node) (domain.Action, bool) {
		action := domain.Action{
			ID:          domain.ActionProperties,
			Name:        PropertiesActionName(d),
			Description: PropertiesActionDesc(d),
		}
		if open != nil {
			action.Invoke = func(ctx context.Context) error {
				return open(ctx, node)
			}
		}
		return action, true
	})
}
