package dsl

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/editor"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// FormStep is a wizard step made of string fields. Field values typed by the
// user are held as pending input until the engine stores the step.
type FormStep struct {
	wizard.BaseStep

	id     string
	fields []FieldSpec
	input  map[string]string

	advance        *vm.Program
	advanceMessage string
	finish         *vm.Program
}

func newFormStep(id, label, description string, fields []FieldSpec) *FormStep {
	s := &FormStep{
		BaseStep: wizard.NewBaseStep(label, description, nil),
		id:       id,
		fields:   fields,
		input:    make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		s.input[f.Name] = toString(f.Default)
	}
	return s
}

// ID returns the step identifier.
func (s *FormStep) ID() string { return s.id }

// Fields returns the field specs.
func (s *FormStep) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Input returns the pending value of a field.
func (s *FormStep) Input(name string) string {
	return s.input[name]
}

// Inputs returns a copy of all pending values.
func (s *FormStep) Inputs() map[string]string {
	return maps.Clone(s.input)
}

// SetInput sets the pending value of a field.
func (s *FormStep) SetInput(name, value string) error {
	if _, ok := s.input[name]; !ok {
		return fmt.Errorf("step '%s' has no field '%s'", s.id, name)
	}
	s.input[name] = value
	return nil
}

// SetInputs sets several pending values at once. Every name is checked
// before any value changes, so an unknown field leaves the step untouched.
func (s *FormStep) SetInputs(values map[string]string) error {
	names := slices.Sorted(maps.Keys(values))
	for _, name := range names {
		if _, ok := s.input[name]; !ok {
			return fmt.Errorf("step '%s' has no field '%s'", s.id, name)
		}
	}
	for _, name := range names {
		s.input[name] = values[name]
	}
	return nil
}

// ReadSettings loads the step's own fields, falling back to their defaults.
func (s *FormStep) ReadSettings(settings *domain.Settings) {
	for _, f := range s.fields {
		if v, ok := settings.Get(f.Name); ok {
			s.input[f.Name] = toString(v)
			continue
		}
		s.input[f.Name] = toString(f.Default)
	}
}

// OnNext checks the field rules and then the advance condition.
func (s *FormStep) OnNext(settings *domain.Settings) error {
	if err := s.validateFields(); err != nil {
		return err
	}

	if s.advance != nil {
		ok, err := s.eval(s.advance, settings)
		if err != nil {
			return domain.NewValidationError("", "%s", err.Error())
		}
		if !ok {
			return domain.NewValidationError("", "%s", s.advanceMessage)
		}
	}
	return nil
}

// validateFields checks required fields and choices in declaration order.
func (s *FormStep) validateFields() error {
	for _, f := range s.fields {
		value := strings.TrimSpace(s.input[f.Name])
		if f.Required {
			if err := editor.Required(f.Label, value); err != nil {
				return err
			}
		}
		if value != "" && len(f.Choices) > 0 {
			if err := editor.OneOf(f.Label, value, f.Choices); err != nil {
				return err
			}
		}
	}
	return nil
}

// CanAdvance reports whether OnNext would accept the current input.
func (s *FormStep) CanAdvance(settings *domain.Settings) bool {
	return s.OnNext(settings) == nil
}

// CanFinish requires valid fields, then evaluates the finish condition or
// falls back to the finishable flag and last-step rule.
func (s *FormStep) CanFinish(settings *domain.Settings) bool {
	if s.validateFields() != nil {
		return false
	}
	if s.finish != nil {
		ok, err := s.eval(s.finish, settings)
		return err == nil && ok
	}
	return s.BaseStep.CanFinish(settings)
}

// StoreSettings writes the step's own fields.
func (s *FormStep) StoreSettings(settings *domain.Settings) {
	for _, f := range s.fields {
		settings.Set(f.Name, s.input[f.Name])
	}
}

func (s *FormStep) eval(program *vm.Program, settings *domain.Settings) (bool, error) {
	input := make(map[string]any, len(s.input))
	for k, v := range s.input {
		input[k] = v
	}
	env := map[string]any{
		"settings": settings.Snapshot(),
		"input":    input,
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition of step '%s': %w", s.id, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	}
	var out string
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		return fmt.Sprint(v)
	}
	return out
}
