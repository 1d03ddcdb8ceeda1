package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/internal/presentation/graph"
	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/runner"
)

var actionsCmd = &cobra.Command{
	Use:   "actions <policy.json> [path]",
	Short: "List or invoke the actions of a policy node",
	Long: `Resolves the actions offered on the node at path (default "0", the root)
of a JSON policy document. With --invoke the action is performed: structural
actions edit the policy, the properties action opens the property editor.
The edited policy is printed, or written back with --write.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "0"
		if len(args) > 1 {
			path = args[1]
		}
		invoke, _ := cmd.Flags().GetString("invoke")
		write, _ := cmd.Flags().GetBool("write")
		showGraph, _ := cmd.Flags().GetBool("graph")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		codec := assertions.JSONCodec{}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		decoded, err := codec.Decode(data)
		if err != nil {
			return err
		}
		root, ok := decoded.(domain.Composite)
		if !ok {
			return fmt.Errorf("policy root must be a composite, got '%s'", decoded.Kind())
		}
		tree := assertions.NewTree(root)

		r := runner.NewRunner(
			runner.WithLogger(a.logger),
			runner.WithHandler(runner.NewTextHandler(cmd.InOrStdin(), cmd.OutOrStdout())),
		)
		console, err := a.console(
			policydesk.WithEditorHandler(r.Edit),
			policydesk.WithResolverOptions(actions.WithInvoker(tree.Apply)),
		)
		if err != nil {
			return err
		}

		node, err := tree.Find(path)
		if err != nil {
			return err
		}
		list := console.Actions(node)

		if showGraph {
			fmt.Fprintln(cmd.OutOrStdout(), graph.GeneratePolicyMermaid(tree, &graph.Overlay{Current: node.Path()}))
		}

		if invoke == "" {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, act := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", act.ID, act.Name, act.Description)
			}
			return w.Flush()
		}

		var chosen *domain.Action
		for i := range list {
			if string(list[i].ID) == invoke {
				chosen = &list[i]
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("action '%s' is not available on '%s'", invoke, path)
		}
		if err := chosen.Perform(cmd.Context()); err != nil {
			return err
		}

		out, err := codec.Encode(tree.Root().Assertion())
		if err != nil {
			return err
		}
		if write {
			return os.WriteFile(args[0], out, 0o644)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.Flags().String("invoke", "", "Action ID to perform on the node")
	actionsCmd.Flags().Bool("write", false, "Write the edited policy back to the file")
	actionsCmd.Flags().Bool("graph", false, "Print the policy tree as a Mermaid diagram")
}
