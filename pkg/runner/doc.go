/*
Package runner drives a wizard from a line-based terminal.

For every step the runner prints a heading and the step description, then
prompts for each form field. An empty line keeps the current value. Commands
start with a colon and are accepted at any prompt:

	:next    advance (also: an empty line at the final prompt)
	:back    return to the previous step
	:finish  finish from the current step, if it allows it
	:cancel  discard the run
	:help    show contextual help

Notifications raised by the engine (refused moves, failed completion) are
printed after every command. End of input cancels the run.

# Usage

	notes := &ports.RecordingNotifier{}
	engine, _ := console.LoadWizard("wizard.yaml", wizard.WithNotifier(notes))

	r := runner.NewRunner(runner.WithHandler(
		runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer())),
	))
	status, err := r.Run(ctx, engine, notes)
*/
package runner
