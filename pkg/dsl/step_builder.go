package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/policydesk/pkg/domain"
)

// FieldSpec describes one form field of a step.
type FieldSpec struct {
	Name     string
	Label    string
	Required bool
	Default  any
	Choices  []string
	Secret   bool
}

// FieldOption configures a FieldSpec.
type FieldOption func(*FieldSpec)

// Required rejects advancing while the field is blank.
func Required() FieldOption {
	return func(f *FieldSpec) { f.Required = true }
}

// Default sets the value used when the settings do not hold the field yet.
func Default(v any) FieldOption {
	return func(f *FieldSpec) { f.Default = v }
}

// Choices restricts the field to a fixed list.
func Choices(choices ...string) FieldOption {
	return func(f *FieldSpec) { f.Choices = slices.Clone(choices) }
}

// Secret marks the field for masked input.
func Secret() FieldOption {
	return func(f *FieldSpec) { f.Secret = true }
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	id             string
	label          string
	description    string
	fields         []FieldSpec
	advanceWhen    string
	advanceMessage string
	finishWhen     string
	finishable     bool
}

// Label sets the short step label.
func (s *StepBuilder) Label(label string) *StepBuilder {
	s.label = label
	return s
}

// Describe sets the step description. Markdown is allowed.
func (s *StepBuilder) Describe(description string) *StepBuilder {
	s.description = description
	return s
}

// Field adds a form field. The field name is also its settings key.
func (s *StepBuilder) Field(name, label string, opts ...FieldOption) *StepBuilder {
	f := FieldSpec{Name: name, Label: label}
	if f.Label == "" {
		f.Label = name
	}
	for _, opt := range opts {
		opt(&f)
	}
	s.fields = append(s.fields, f)
	return s
}

// AdvanceWhen adds a condition checked by Next after the field rules.
// message is shown when it evaluates to false.
func (s *StepBuilder) AdvanceWhen(condition, message string) *StepBuilder {
	s.advanceWhen = condition
	s.advanceMessage = message
	return s
}

// FinishWhen makes the step a finish point whenever condition holds.
func (s *StepBuilder) FinishWhen(condition string) *StepBuilder {
	s.finishWhen = condition
	return s
}

// Finishable makes the step an unconditional finish point.
func (s *StepBuilder) Finishable() *StepBuilder {
	s.finishable = true
	return s
}

func (s *StepBuilder) build() (*FormStep, error) {
	seen := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		if f.Name == "" || seen[f.Name] {
			return nil, &domain.ConfigurationError{
				Component: "wizard definition",
				Reason:    fmt.Sprintf("step '%s' has an empty or repeated field name '%s'", s.id, f.Name),
			}
		}
		seen[f.Name] = true
	}

	advance, err := compileCondition(s.id, "advance", s.advanceWhen)
	if err != nil {
		return nil, err
	}
	finish, err := compileCondition(s.id, "finish", s.finishWhen)
	if err != nil {
		return nil, err
	}

	message := s.advanceMessage
	if message == "" && advance != nil {
		message = fmt.Sprintf("%s is not complete", s.label)
	}

	step := newFormStep(s.id, s.label, s.description, slices.Clone(s.fields))
	step.advance = advance
	step.advanceMessage = message
	step.finish = finish
	step.SetFinishable(s.finishable)
	return step, nil
}
