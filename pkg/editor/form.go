package editor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/policydesk/pkg/domain"
)

// Field is one named form control.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Required bool     `json:"required,omitempty"`
	Secret   bool     `json:"secret,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

// FormEditor is a set of string fields. Leaf editors embed it and map the
// fields to and from their assertion in SetData/GetData.
type FormEditor struct {
	fields []*Field
	byName map[string]*Field
}

// NewFormEditor creates a form with the given fields, in display order.
func NewFormEditor(fields ...Field) *FormEditor {
	f := &FormEditor{byName: make(map[string]*Field, len(fields))}
	for i := range fields {
		field := fields[i]
		field.Choices = slices.Clone(field.Choices)
		f.fields = append(f.fields, &field)
		f.byName[field.Name] = &field
	}
	return f
}

// Fields returns a copy of the form fields.
func (f *FormEditor) Fields() []Field {
	out := make([]Field, 0, len(f.fields))
	for _, field := range f.fields {
		c := *field
		c.Choices = slices.Clone(field.Choices)
		out = append(out, c)
	}
	return out
}

// Field returns the current value of a field.
func (f *FormEditor) Field(name string) (string, bool) {
	field, ok := f.byName[name]
	if !ok {
		return "", false
	}
	return field.Value, true
}

// Value returns the current value of a field, or "" if unknown.
func (f *FormEditor) Value(name string) string {
	v, _ := f.Field(name)
	return v
}

// SetField changes a field value. Unknown names are an error.
func (f *FormEditor) SetField(name, value string) error {
	field, ok := f.byName[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	field.Value = value
	return nil
}

// SetChoices replaces the choice list of a field.
func (f *FormEditor) SetChoices(name string, choices []string) {
	if field, ok := f.byName[name]; ok {
		field.Choices = slices.Clone(choices)
	}
}

// Validate checks required fields and choice membership in display order.
// Choice lists that are empty are not enforced.
func (f *FormEditor) Validate() error {
	for _, field := range f.fields {
		value := strings.TrimSpace(field.Value)
		if field.Required {
			if err := Required(field.Label, value); err != nil {
				return withField(err, field.Name)
			}
		}
		if value != "" && len(field.Choices) > 0 {
			if err := OneOf(field.Label, value, field.Choices); err != nil {
				return withField(err, field.Name)
			}
		}
	}
	return nil
}

func withField(err error, name string) error {
	if ve, ok := domain.AsValidation(err); ok {
		ve.Field = name
	}
	return err
}
