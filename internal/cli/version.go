package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sndeals/pkg/sndeals"
)

const modulePath = "github.com/mesh-intelligence/sndeals"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sndeals version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "sndeals v%s\nmodule: %s\n", sndeals.Version, modulePath)
			return nil
		},
	}
}
