package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

func newAuthorizeCommand() *cobra.Command {
	var (
		providerName string
		snapshotPath string
	)

	cmd := &cobra.Command{
		Use:   "authorize RESOURCE ACTION",
		Short: "Check whether an action on a resource is permitted",
		Long: `Authorize builds the lock index from a provider snapshot and renders the
allow/deny decision for a proposed action (read, write, update, delete) on a
resource. The command exits non-zero when the action is denied, so it can
gate scripted provider calls.`,
		Example: `  lockwarden authorize Microsoft.Compute/disks/cctestvm-disk delete --snapshot ./snapshot.yaml`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resourceID := args[0]
			action, err := engine.ParseAction(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if providerName != "" {
				cfg.Provider = providerName
			}
			if snapshotPath != "" {
				if cfg.ProviderConfig == nil {
					cfg.ProviderConfig = make(map[string]string)
				}
				cfg.ProviderConfig["path"] = snapshotPath
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			r, cleanup, err := buildRunner(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			// An authorization check is still a full cycle: the index must
			// come from a fresh snapshot.
			cycle, err := r.Evaluate(cmd.Context(), cfg.Provider, cfg.ProviderConfig, "locked")
			if err != nil {
				return err
			}

			d, err := r.Authorize(cmd.Context(), cycle, resourceID, action)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(d); err != nil {
					return err
				}
			} else if d.Allowed {
				fmt.Printf("ALLOW %s on %s (lock: %s)\n", d.Action, d.Resource, d.Level)
			} else {
				fmt.Printf("DENY %s on %s: %s\n", d.Action, d.Resource, d.Reason)
			}

			if !d.Allowed {
				return fmt.Errorf("action denied: %s", d.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "snapshot provider name (default from config)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot document path (file provider)")

	return cmd
}
