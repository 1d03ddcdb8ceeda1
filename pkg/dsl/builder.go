package dsl

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// Builder manages the construction of a step chain.
type Builder struct {
	title string
	steps []*StepBuilder
	byID  map[string]*StepBuilder
}

// New creates a new wizard builder.
func New(title string) *Builder {
	return &Builder{
		title: title,
		byID:  make(map[string]*StepBuilder),
	}
}

// Title returns the wizard title.
func (b *Builder) Title() string {
	return b.title
}

// Step appends a step to the chain.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.byID[id]; ok {
		return sb
	}
	sb := &StepBuilder{id: id, label: id}
	b.steps = append(b.steps, sb)
	b.byID[id] = sb
	return sb
}

// Build compiles the steps into a linked chain, in declaration order.
func (b *Builder) Build() ([]*FormStep, error) {
	if len(b.steps) == 0 {
		return nil, &domain.ConfigurationError{Component: "wizard definition", Reason: "no steps defined"}
	}

	owner := make(map[string]string)
	out := make([]*FormStep, len(b.steps))
	for i, sb := range b.steps {
		step, err := sb.build()
		if err != nil {
			return nil, err
		}
		for _, f := range sb.fields {
			if prev, dup := owner[f.Name]; dup {
				return nil, &domain.ConfigurationError{
					Component: "wizard definition",
					Reason:    fmt.Sprintf("field '%s' is declared by steps '%s' and '%s'", f.Name, prev, sb.id),
				}
			}
			owner[f.Name] = sb.id
		}
		out[i] = step
	}

	for i := len(out) - 2; i >= 0; i-- {
		out[i].SetNext(out[i+1])
	}
	return out, nil
}

// Chain builds the steps and returns the root, ready for wizard.New.
func (b *Builder) Chain() (wizard.Step, error) {
	steps, err := b.Build()
	if err != nil {
		return nil, err
	}
	return steps[0], nil
}

var conditionEnv = map[string]any{
	"settings": map[string]any{},
	"input":    map[string]any{},
}

func compileCondition(stepID, kind, source string) (*vm.Program, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(conditionEnv), expr.AsBool())
	if err != nil {
		return nil, &domain.ConfigurationError{
			Component: "wizard definition",
			Reason:    fmt.Sprintf("step '%s' has an invalid %s condition: %v", stepID, kind, err),
		}
	}
	return program, nil
}
