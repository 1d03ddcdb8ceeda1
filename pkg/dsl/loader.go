package dsl

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the serialized form of a wizard.
type Definition struct {
	Title string           `yaml:"title" json:"title"`
	Steps []StepDefinition `yaml:"steps" json:"steps"`
}

// StepDefinition is the serialized form of one step.
type StepDefinition struct {
	ID             string            `yaml:"id" json:"id"`
	Label          string            `yaml:"label,omitempty" json:"label,omitempty"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	Fields         []FieldDefinition `yaml:"fields,omitempty" json:"fields,omitempty"`
	AdvanceWhen    string            `yaml:"advance_when,omitempty" json:"advance_when,omitempty"`
	AdvanceMessage string            `yaml:"advance_message,omitempty" json:"advance_message,omitempty"`
	FinishWhen     string            `yaml:"finish_when,omitempty" json:"finish_when,omitempty"`
	Finishable     bool              `yaml:"finishable,omitempty" json:"finishable,omitempty"`
}

// FieldDefinition is the serialized form of one field.
type FieldDefinition struct {
	Name     string   `yaml:"name" json:"name"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any      `yaml:"default,omitempty" json:"default,omitempty"`
	Choices  []string `yaml:"choices,omitempty" json:"choices,omitempty"`
	Secret   bool     `yaml:"secret,omitempty" json:"secret,omitempty"`
}

// Builder converts the definition into a Builder.
func (d Definition) Builder() *Builder {
	b := New(d.Title)
	for _, sd := range d.Steps {
		sb := b.Step(sd.ID)
		if sd.Label != "" {
			sb.Label(sd.Label)
		}
		sb.Describe(sd.Description)
		for _, fd := range sd.Fields {
			var opts []FieldOption
			if fd.Required {
				opts = append(opts, Required())
			}
			if fd.Default != nil {
				opts = append(opts, Default(fd.Default))
			}
			if len(fd.Choices) > 0 {
				opts = append(opts, Choices(fd.Choices...))
			}
			if fd.Secret {
				opts = append(opts, Secret())
			}
			sb.Field(fd.Name, fd.Label, opts...)
		}
		if sd.AdvanceWhen != "" {
			sb.AdvanceWhen(sd.AdvanceWhen, sd.AdvanceMessage)
		}
		if sd.FinishWhen != "" {
			sb.FinishWhen(sd.FinishWhen)
		}
		if sd.Finishable {
			sb.Finishable()
		}
	}
	return b
}

// LoadYAML parses a wizard definition. JSON input is accepted as well.
func LoadYAML(r io.Reader) (*Builder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read wizard definition: %w", err)
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse wizard definition: %w", err)
	}
	if def.Title == "" {
		def.Title = "Wizard"
	}
	return def.Builder(), nil
}

// LoadFile parses the wizard definition stored at path.
func LoadFile(path string) (*Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wizard definition: %w", err)
	}
	defer f.Close()

	return LoadYAML(f)
}
