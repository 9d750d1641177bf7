package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLockCmd builds "lock" or "unlock".
func newLockCmd(opts *rootOptions, lock bool) *cobra.Command {
	use, short, state := "unlock", "Allow structural edits again", "unlocked"
	if lock {
		use, short, state = "lock", "Block structural edits to the plan", "locked"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  "A locked plan can still be viewed and task progress can still be updated.",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			var err error
			if lock {
				err = e.ctrl.Lock(cmd.Context())
			} else {
				err = e.ctrl.Unlock(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan is %s.\n", state)
			return nil
		}),
	}
}
