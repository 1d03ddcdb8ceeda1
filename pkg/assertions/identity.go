package assertions

import (
	"context"

	"github.com/aretw0/policydesk/pkg/editor"
)

// IdentityEditor edits an IdentityConstraint.
type IdentityEditor struct {
	*editor.FormEditor
}

func NewIdentityEditor() *IdentityEditor {
	return &IdentityEditor{FormEditor: editor.NewFormEditor(
		editor.Field{Name: "identity", Label: "Identity", Required: true},
	)}
}

func (e *IdentityEditor) SetData(obj *IdentityConstraint) {
	_ = e.SetField("identity", obj.Identity)
}

func (e *IdentityEditor) GetData(obj *IdentityConstraint) (*IdentityConstraint, error) {
	if err := e.Validate(); err != nil {
		return obj, err
	}
	obj.Identity = editor.Trimmed(e.Value("identity"))
	return obj, nil
}

func identityFactory() editor.Factory {
	return editor.NewFactory(func(ctx context.Context) (editor.PropertyEditor[*IdentityConstraint], error) {
		return NewIdentityEditor(), nil
	})
}
