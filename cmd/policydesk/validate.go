package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/policydesk/internal/validator"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check policies and wizard definitions for consistency",
	Long: `Validates each file by extension: .json files are policy documents, .yaml
and .yml files are wizard definitions.`,
	Args: cobra.MinimumNArgs(1),
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

		failed := 0
		for _, path := range args {
			var err error
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				err = validator.ValidateWizard(path)
			case ".json":
				err = validatePolicyFile(console.Registry(), path)
			default:
				err = fmt.Errorf("unsupported file type")
			}

			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d files", failed, len(args))
		}
		return nil
	},
}

func validatePolicyFile(reg *registry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	decoded, err := assertions.JSONCodec{}.Decode(data)
	if err != nil {
		return err
	}
	root, ok := decoded.(domain.Composite)
	if !ok {
		return fmt.Errorf("policy root must be a composite, got '%s'", decoded.Kind())
	}
	return validator.ValidatePolicy(reg, assertions.NewTree(root))
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
