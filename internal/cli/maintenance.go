package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the plan with the built-in master plan",
		Long:  "Clears the progress of every current task, the lock flag and the panel layout.",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			out := cmd.OutOrStdout()
			if !force {
				p := e.ctrl.Plan()
				fmt.Fprintf(out, "This will replace %q and clear the progress of %d tasks. Continue? [y/N] ", p.Title, p.TaskCount())
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(strings.ToLower(response))
				if response != "y" && response != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}
			if err := e.ctrl.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Plan reset to %q.\n", e.ctrl.Plan().Title)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func newPruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete saved progress of tasks that are no longer in the plan",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			n, err := e.ctrl.Prune(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed saved progress of %d tasks.\n", n)
			return nil
		}),
	}
}
