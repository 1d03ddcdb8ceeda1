package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/policydesk/pkg/editor"
)

// Edit drives a property editor session: every field is prompted, then an
// empty line confirms and :cancel dismisses. A rejected confirm shows the
// validation message and prompts again. End of input cancels the session.
// It has the shape of a policydesk.EditorHandler.
func (r *Runner) Edit(ctx context.Context, s editor.Opener) error {
	h := r.Handler
	title := s.Title()
	if s.ReadOnly() {
		title += " (read-only)"
	}

	for {
		fmt.Fprintln(h.Writer)
		fmt.Fprintln(h.Writer, h.out.String(title).Bold())

		if s.ReadOnly() {
			for _, f := range s.Fields() {
				fmt.Fprintf(h.Writer, "  %s: %s\n", f.Label, displayValue(f))
			}
			s.Cancel(ctx)
			return nil
		}

		cmd, err := r.fillEditor(ctx, s)
		if err == nil && cmd == "" {
			cmd, err = h.Input(ctx, "confirm [enter] / :cancel > ")
		}
		if errors.Is(err, io.EOF) {
			s.Cancel(ctx)
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(cmd) {
		case CommandCancel, "c":
			s.Cancel(ctx)
			h.SystemOutput("changes discarded")
			return nil
		case "", CommandFinish, CommandNext:
		default:
			h.SystemOutput(fmt.Sprintf("unknown command %q", cmd))
			continue
		}

		ok, err := s.Confirm(ctx)
		if err != nil {
			return err
		}
		if ok {
			h.SystemOutput("saved")
			return nil
		}
		if msg := s.ValidationMessage(); msg != "" {
			fmt.Fprintln(h.Writer, h.out.String("✗ "+msg).Foreground(h.out.Color("#f87171")))
		}
	}
}

func (r *Runner) fillEditor(ctx context.Context, s editor.Opener) (string, error) {
	for _, f := range s.Fields() {
		prompt := f.Label
		if len(f.Choices) > 0 {
			prompt += " (" + strings.Join(f.Choices, "/") + ")"
		}
		if v := displayValue(f); v != "" {
			prompt += " [" + v + "]"
		}
		if f.Required {
			prompt += " *"
		}

		line, err := r.Handler.Input(ctx, prompt+": ")
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, ":") {
			return line, nil
		}
		if line == "" {
			continue
		}
		if err := s.SetField(f.Name, line); err != nil {
			return "", err
		}
	}
	return "", nil
}

func displayValue(f editor.Field) string {
	if f.Secret && f.Value != "" {
		return "********"
	}
	return f.Value
}
