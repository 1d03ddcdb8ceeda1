package assertions

import (
	"context"

	"github.com/aretw0/policydesk/pkg/editor"
)

// HeaderEditor edits an AddHeader.
type HeaderEditor struct {
	*editor.FormEditor
}

// NewHeaderEditor creates an empty header form.
func NewHeaderEditor() *HeaderEditor {
	return &HeaderEditor{FormEditor: editor.NewFormEditor(
		editor.Field{Name: "name", Label: "Header name", Required: true},
		editor.Field{Name: "value", Label: "Header value"},
		editor.Field{
			Name:     "operation",
			Label:    "Operation",
			Choices:  []string{OperationAdd, OperationReplace, OperationRemove},
			Required: true,
		},
	)}
}

func (e *HeaderEditor) SetData(obj *AddHeader) {
	op := obj.Operation
	if op == "" {
		op = OperationAdd
	}
	_ = e.SetField("name", obj.Name)
	_ = e.SetField("value", obj.Value)
	_ = e.SetField("operation", op)
}

func (e *HeaderEditor) GetData(obj *AddHeader) (*AddHeader, error) {
	if err := e.Validate(); err != nil {
		return obj, err
	}
	obj.Name = editor.Trimmed(e.Value("name"))
	obj.Value = e.Value("value")
	obj.Operation = editor.Trimmed(e.Value("operation"))
	if obj.Operation == OperationRemove {
		obj.Value = ""
	}
	return obj, nil
}

func headerFactory() editor.Factory {
	return editor.NewFactory(func(ctx context.Context) (editor.PropertyEditor[*AddHeader], error) {
		return NewHeaderEditor(), nil
	})
}
