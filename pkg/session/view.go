package session

import (
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/wizard"
)

const mask = "********"

// FieldView is the presentation of one form field.
type FieldView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Required bool     `json:"required,omitempty"`
	Secret   bool     `json:"secret,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

// View is a transport-neutral picture of a run, shared by the HTTP and MCP adapters.
type View struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Status        wizard.Status        `json:"status"`
	Index         int                  `json:"index"`
	Steps         int                  `json:"steps"`
	Step          string               `json:"step"`
	Description   string               `json:"description,omitempty"`
	Fields        []FieldView          `json:"fields,omitempty"`
	CanGoBack     bool                 `json:"can_go_back"`
	CanAdvance    bool                 `json:"can_advance"`
	CanFinish     bool                 `json:"can_finish"`
	Notifications []ports.Notification `json:"notifications,omitempty"`
	Help          *Help                `json:"help,omitempty"`
	Settings      map[string]any       `json:"settings,omitempty"`
}

// View renders the run and drains its pending notifications and help.
// Secret values are masked in both the fields and the settings.
func (r *Run) View() View {
	e := r.Engine
	step := e.Current()
	v := View{
		ID:          r.ID,
		Title:       e.Title(),
		Status:      e.Status(),
		Index:       e.Index(),
		Steps:       e.Len(),
		Step:        step.Label(),
		Description: step.Description(),
		CanGoBack:   e.CanGoBack(),
		CanAdvance:  e.CanAdvance(),
		CanFinish:   e.CanFinish(),
	}
	if r.Notifier != nil {
		v.Notifications = r.Notifier.Drain()
	}
	if r.Help != nil {
		if topic, ok := r.Help.Take(); ok {
			v.Help = &Help{Topic: topic, Text: step.Description()}
		}
	}

	if fs, ok := step.(*dsl.FormStep); ok {
		for _, f := range fs.Fields() {
			value := fs.Input(f.Name)
			if f.Secret && value != "" {
				value = mask
			}
			v.Fields = append(v.Fields, FieldView{
				Name:     f.Name,
				Label:    f.Label,
				Value:    value,
				Required: f.Required,
				Secret:   f.Secret,
				Choices:  f.Choices,
			})
		}
	}

	if s := e.Settings(); s != nil {
		v.Settings = s.Snapshot()
		for _, key := range secretKeys(e) {
			if _, ok := v.Settings[key]; ok {
				v.Settings[key] = mask
			}
		}
	}
	return v
}

func secretKeys(e *wizard.Engine) []string {
	var keys []string
	for _, step := range e.Steps() {
		fs, ok := step.(*dsl.FormStep)
		if !ok {
			continue
		}
		for _, f := range fs.Fields() {
			if f.Secret {
				keys = append(keys, f.Name)
			}
		}
	}
	return keys
}
