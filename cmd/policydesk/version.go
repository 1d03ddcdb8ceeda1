package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/policydesk"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of policydesk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "policydesk version %s\n", strings.TrimSpace(policydesk.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
