package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the registered assertion kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		console, err := a.console()
		if err != nil {
			return err
		}

		reg := console.Registry()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tNAME\tCOMPOSITE\tEDITOR\tDESCRIPTION")
		for _, k := range reg.Kinds() {
			d := reg.MustLookup(k)
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", d.Kind, d.ShortName, d.Composite, d.EditorFactory != nil, d.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
