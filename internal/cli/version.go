package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "plannah", version.String())
		},
	}
}
