package actions

import "github.com/aretw0/policydesk/pkg/domain"

// BaseContributor supplies the standard actions of a node.
type BaseContributor interface {
	Contribute(node domain.Node) []domain.Action
}

// BaseContributorFunc adapts a function to BaseContributor.
type BaseContributorFunc func(node domain.Node) []domain.Action

func (f BaseContributorFunc) Contribute(node domain.Node) []domain.Action {
	return f(node)
}

// StandardBase contributes the clipboard, ordering and enablement actions,
// the add-child actions for composites, and add-identity-constraint.
type StandardBase struct{}

func (StandardBase) Contribute(node domain.Node) []domain.Action {
	out := []domain.Action{
		{ID: domain.ActionCut, Name: "Cut"},
		{ID: domain.ActionCopy, Name: "Copy"},
		{ID: domain.ActionPaste, Name: "Paste"},
		{ID: domain.ActionDelete, Name: "Delete", Editing: true},
		{ID: domain.ActionMoveUp, Name: "Move Up", Editing: true},
		{ID: domain.ActionMoveDown, Name: "Move Down", Editing: true},
		{ID: domain.ActionDisable, Name: "Disable", Editing: true},
		{ID: domain.ActionEnable, Name: "Enable", Editing: true},
	}
	if node.IsComposite() {
		out = append(out,
			domain.Action{ID: domain.ActionAddAll, Name: "Add 'All' Folder", Editing: true},
			domain.Action{ID: domain.ActionAddOneOrMore, Name: "Add 'At least one' Folder", Editing: true},
		)
	}
	out = append(out, domain.Action{
		ID:          domain.ActionAddIdentityConstraint,
		Name:        "Add Identity Constraint",
		Description: "Restrict the assertion to a specific identity.",
		Editing:     true,
	})
	return out
}
