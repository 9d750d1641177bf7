package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent changes to the plan",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			events, err := e.ws.Journal().Read(limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tEVENT\tDETAILS")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\n", formatAge(ev.Timestamp), ev.Event, formatData(ev.Data))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events to show (0 for all)")
	return cmd
}

// formatAge returns a human-readable relative time string.
func formatAge(t time.Time) string {
	duration := timeNow().Sub(t)

	if duration < time.Minute {
		return "just now"
	}

	minutes := int(duration.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	hours := int(duration.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	days := hours / 24
	return fmt.Sprintf("%dd ago", days)
}

// formatData renders event data as sorted key=value pairs.
func formatData(data map[string]any) string {
	keys := slices.Sorted(maps.Keys(data))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}
