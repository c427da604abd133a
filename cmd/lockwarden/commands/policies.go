package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockwarden/lockwarden/pkg/policy"
)

func newPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Inspect loaded policies and filters",
	}

	cmd.AddCommand(newPoliciesListCommand())
	cmd.AddCommand(newPoliciesValidateCommand())

	return cmd
}

func newPoliciesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List policies from the configured policy paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			loader := policy.NewLoader(logger)
			policies, err := loader.LoadFromPaths(cmd.Context(), cfg.PolicyPaths)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(policies)
			}

			if len(policies) == 0 {
				fmt.Println("No policies loaded (set policy_paths in the config file)")
				return nil
			}
			for _, p := range policies {
				state := "enabled"
				if p.Disabled {
					state = "disabled"
				}
				kind := p.Filter
				if p.Rego != "" {
					kind = "rego"
				}
				fmt.Printf("%-30s %-10s %-12s %s\n", p.Name, state, kind, p.Source)
			}
			return nil
		},
	}
}

func newPoliciesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate policy documents, including Rego compilation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			loader := policy.NewLoader(logger)
			policies, err := loader.LoadFromPaths(cmd.Context(), cfg.PolicyPaths)
			if err != nil {
				return err
			}

			evaluator := policy.NewEvaluator(logger)
			if err := evaluator.RegisterRegoPolicies(cmd.Context(), policies); err != nil {
				return err
			}

			fmt.Printf("%d policies valid\n", len(policies))
			return nil
		},
	}
}
