package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// Commands accepted at any prompt.
const (
	CommandNext   = ":next"
	CommandBack   = ":back"
	CommandFinish = ":finish"
	CommandCancel = ":cancel"
	CommandHelp   = ":help"
)

// Runner drives a wizard from a line-based terminal.
type Runner struct {
	Handler *TextHandler
	Logger  *slog.Logger

	step wizard.Step
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithHandler configures the text handler.
func WithHandler(h *TextHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// NewRunner creates a Runner on Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run drives engine until it finishes or is cancelled. notes must be the
// notifier the engine reports to; its messages are printed after every move.
// End of input cancels the run.
func (r *Runner) Run(ctx context.Context, engine *wizard.Engine, notes *ports.RecordingNotifier) (wizard.Status, error) {
	h := r.Handler

	for engine.Status() == wizard.StatusActive {
		step := engine.Current()
		r.step = step
		h.Heading(engine.Title(), step.Label(), engine.Index(), engine.Len())
		h.Content(step.Description())
		h.SystemOutput(r.hint(engine))

		cmd, err := r.fill(ctx, step)
		if err == nil && cmd == "" {
			cmd, err = h.Input(ctx, "> ")
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				engine.Cancel(ctx)
				h.SystemOutput("input closed, wizard cancelled")
				return engine.Status(), nil
			}
			return engine.Status(), err
		}

		if err := r.apply(ctx, engine, cmd); err != nil {
			return engine.Status(), err
		}
		if notes != nil {
			for _, n := range notes.Drain() {
				h.Notify(n)
			}
		}
	}

	r.Logger.Debug("wizard run ended", "wizard", engine.Title(), "status", engine.Status())
	return engine.Status(), nil
}

// fill prompts for each field of a form step. A command typed at a field
// prompt stops the form and is returned.
func (r *Runner) fill(ctx context.Context, step wizard.Step) (string, error) {
	fs, ok := step.(*dsl.FormStep)
	if !ok {
		return "", nil
	}

	for _, f := range fs.Fields() {
		current := fs.Input(f.Name)
		prompt := f.Label
		if len(f.Choices) > 0 {
			prompt += " (" + strings.Join(f.Choices, "/") + ")"
		}
		if current != "" && !f.Secret {
			prompt += " [" + current + "]"
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
		if err := fs.SetInput(f.Name, line); err != nil {
			return "", err
		}
	}
	return "", nil
}

func (r *Runner) apply(ctx context.Context, engine *wizard.Engine, cmd string) error {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "", CommandNext, "n":
		// On the last step Next runs the guard and then completes.
		_, err := engine.Next(ctx)
		return swallowCompletion(err)
	case CommandBack, "b":
		if !engine.Back(ctx) {
			r.Handler.SystemOutput("already at the first step")
		}
	case CommandFinish, "f":
		return r.finish(ctx, engine)
	case CommandCancel, "c":
		engine.Cancel(ctx)
	case CommandHelp, "h", "?":
		engine.Help()
	default:
		r.Handler.SystemOutput(fmt.Sprintf("unknown command %q", cmd))
	}
	return nil
}

// finish reports a refused finish and swallows completion failures, which
// the engine already reported through the notifier.
func (r *Runner) finish(ctx context.Context, engine *wizard.Engine) error {
	ok, err := engine.Finish(ctx)
	if err == nil && !ok {
		r.Handler.SystemOutput("this step cannot finish the wizard yet")
	}
	return swallowCompletion(err)
}

func swallowCompletion(err error) error {
	var completion *wizard.CompletionError
	if errors.As(err, &completion) {
		return nil
	}
	return err
}

// ShowHelp prints help for the step being prompted. Pass the Runner to
// wizard.WithHelp to serve the :help command.
func (r *Runner) ShowHelp(topic string) {
	h := r.Handler
	h.SystemOutput("Help: " + topic)
	if r.step == nil {
		return
	}
	h.Content(r.step.Description())

	if fs, ok := r.step.(*dsl.FormStep); ok {
		for _, f := range fs.Fields() {
			line := "  " + f.Name + ": " + f.Label
			if f.Required {
				line += " (required)"
			}
			if len(f.Choices) > 0 {
				line += " one of " + strings.Join(f.Choices, ", ")
			}
			h.SystemOutput(line)
		}
	}
	h.SystemOutput(CommandNext + " accept the step  " + CommandBack + " previous step  " +
		CommandFinish + " finish now  " + CommandCancel + " discard the run")
}

func (r *Runner) hint(engine *wizard.Engine) string {
	var cmds []string
	cmds = append(cmds, "enter/"+CommandNext)
	if engine.CanGoBack() {
		cmds = append(cmds, CommandBack)
	}
	if engine.CanFinish() {
		cmds = append(cmds, CommandFinish)
	}
	cmds = append(cmds, CommandCancel, CommandHelp)
	return strings.Join(cmds, "  ")
}
