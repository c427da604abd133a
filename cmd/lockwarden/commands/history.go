package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockwarden/lockwarden/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded evaluation cycles and decisions",
	}

	cmd.AddCommand(newHistoryCyclesCommand())
	cmd.AddCommand(newHistoryDecisionsCommand())

	return cmd
}

// openStore opens the configured audit store for read access.
func openStore(cmd *cobra.Command) (*stores.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("no store configured (set store.path in the config file)")
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(cmd.Context()); err != nil {
		return nil, err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func newHistoryCyclesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List recent evaluation cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			cycles, err := store.ListCycles(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cycles)
			}

			for _, c := range cycles {
				status := "ok"
				if c.Error != nil {
					status = "error"
				}
				fmt.Printf("%s  %-8s %-24s resources=%d locked=%d matched=%d [%s]\n",
					c.ID, c.Provider, c.Filter, c.ResourceCount, c.LockedCount, c.MatchedCount, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum cycles to list")
	return cmd
}

func newHistoryDecisionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decisions CYCLE_ID",
		Short: "List decisions recorded for a cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			decisions, err := store.ListDecisions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(decisions)
			}

			for _, d := range decisions {
				verdict := "ALLOW"
				if !d.Allowed {
					verdict = "DENY"
				}
				fmt.Printf("%s %-6s on %-50s level=%-12s %s\n", verdict, d.Action, d.Resource, d.Level, d.Reason)
			}
			return nil
		},
	}
}
