package actions

import "github.com/aretw0/policydesk/pkg/domain"

// Filter reports whether action stays in the set for node.
type Filter func(node domain.Node, action domain.Action) bool

// NoIdentityOnComposite drops add-identity-constraint from composite nodes.
func NoIdentityOnComposite(node domain.Node, action domain.Action) bool {
	return !(node.IsComposite() && action.ID == domain.ActionAddIdentityConstraint)
}

// NoEditingInInclude drops editing actions from nodes nested in an included
// policy fragment.
func NoEditingInInclude(node domain.Node, action domain.Action) bool {
	return !(node.IsDescendantOfInclude() && action.Editing)
}

// DefaultFilters are always applied, before any filter passed with WithFilter.
var DefaultFilters = []Filter{NoIdentityOnComposite, NoEditingInInclude}
