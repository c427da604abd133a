package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockwarden/lockwarden/pkg/providers"
)

func newProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect registered snapshot providers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := providers.Default.List()

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(names)
			}

			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	})

	return cmd
}
