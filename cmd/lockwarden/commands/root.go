package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lockwarden",
		Short: "Lockwarden - resource-lock-aware policy evaluation engine",
		Long: `Lockwarden evaluates cloud resource snapshots against lock-aware policies.

Given a snapshot of resources and their dependency edges, it derives which
resources are protected by management locks and at what level, selects
resources matching named filters, and gates proposed mutating actions
(delete, write, update) before they reach the provider.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newEvaluateCommand())
	rootCmd.AddCommand(newAuthorizeCommand())
	rootCmd.AddCommand(newPoliciesCommand())
	rootCmd.AddCommand(newProvidersCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
