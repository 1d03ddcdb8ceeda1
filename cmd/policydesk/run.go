package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/internal/presentation/graph"
	"github.com/aretw0/policydesk/internal/presentation/tui"
	"github.com/aretw0/policydesk/pkg/adapters/process"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/runner"
	"github.com/aretw0/policydesk/pkg/wizard"
)

var runCmd = &cobra.Command{
	Use:   "run <wizard.yaml>",
	Short: "Run a configuration wizard in the terminal",
	Long: `Loads a wizard definition and walks it interactively. Field prompts accept
values or commands (:next, :back, :finish, :cancel, :help). When the wizard
finishes, the collected settings are printed as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showGraph, _ := cmd.Flags().GetBool("graph")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var handlerOpts []runner.TextHandlerOption
		interactive := tui.IsInteractive()
		if interactive {
			tui.PrintBanner(cmd.OutOrStdout(), policydesk.Version)
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		} else {
			handlerOpts = append(handlerOpts, runner.WithColorProfile(termenv.Ascii))
		}
		r := runner.NewRunner(
			runner.WithLogger(a.logger),
			runner.WithHandler(runner.NewTextHandler(cmd.InOrStdin(), cmd.OutOrStdout(), handlerOpts...)),
		)

		console, err := a.console(policydesk.WithEditorHandler(r.Edit))
		if err != nil {
			return err
		}

		notes := &ports.RecordingNotifier{}
		wizardOpts := []wizard.Option{wizard.WithNotifier(notes), wizard.WithHelp(r, "")}
		if a.cfg.Builder.Enabled() {
			wizardOpts = append(wizardOpts, wizard.WithBuilder(process.NewBuilder(a.cfg.Builder, process.WithLogger(a.logger))))
		}
		engine, err := console.LoadWizard(args[0], wizardOpts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		status, err := r.Run(ctx, engine, notes)
		if err != nil {
			return err
		}
		if showGraph {
			fmt.Fprintln(cmd.OutOrStdout(), graph.GenerateWizardMermaid(engine))
		}

		settings, ok := engine.Result()
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "wizard %s\n", status)
			return nil
		}
		out, err := yaml.Marshal(settings.Snapshot())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("graph", false, "Print the visited path as a Mermaid diagram when the run ends")
}
