package domain

import "context"

// ActionID identifies an operation offered on a tree node.
type ActionID string

// Standard action identifiers.
const (
	ActionProperties            ActionID = "properties"
	ActionCut                   ActionID = "cut"
	ActionCopy                  ActionID = "copy"
	ActionPaste                 ActionID = "paste"
	ActionDelete                ActionID = "delete"
	ActionMoveUp                ActionID = "move-up"
	ActionMoveDown              ActionID = "move-down"
	ActionDisable               ActionID = "disable"
	ActionEnable                ActionID = "enable"
	ActionAddAll                ActionID = "add-all"
	ActionAddOneOrMore          ActionID = "add-one-or-more"
	ActionAddIdentityConstraint ActionID = "add-identity-constraint"
)

// Action is one operation available on a node.
type Action struct {
	ID          ActionID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`

	// Editing marks actions that change policy structure; they are hidden on
	// nodes nested in an included fragment.
	Editing bool `json:"editing,omitempty"`

	// Invoke performs the action. Nil for display-only actions.
	Invoke func(ctx context.Context) error `json:"-"`
}

// Perform runs the action if it carries an implementation.
func (a Action) Perform(ctx context.Context) error {
	if a.Invoke == nil {
		return nil
	}
	return a.Invoke(ctx)
}

// ActionFactory supplies the preferred (default) action of a node.
// It replaces untyped metadata lookups with a typed capability.
type ActionFactory interface {
	PreferredAction(node Node) (Action, bool)
}

// ActionFactoryFunc adapts a plain function to ActionFactory.
type ActionFactoryFunc func(node Node) (Action, bool)

func (f ActionFactoryFunc) PreferredAction(node Node) (Action, bool) {
	return f(node)
}
