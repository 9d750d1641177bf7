package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/transfer"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format       string
		withProgress bool
		out          string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the plan, or the plan with all progress, to a file",
		Long: `Writes manufacturing-plan.<format> into --out (default: the current
directory). With --progress it writes manufacturing-progress-complete.json,
which carries every task's saved progress and can be imported back.
Use --out - to print to stdout.`,
		Args: cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			var (
				exp transfer.Export
				err error
			)
			if withProgress {
				if cmd.Flags().Changed("format") && format != string(transfer.FormatJSON) {
					return fmt.Errorf("progress exports are always JSON")
				}
				exp, err = transfer.ExportProgress(cmd.Context(), e.ctrl.Plan(), e.store, timeNow(), e.logger)
			} else {
				f, ferr := transfer.ParseFormat(format)
				if ferr != nil {
					return ferr
				}
				exp, err = transfer.ExportPlan(e.ctrl.Plan(), f)
			}
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(exp.Data)
				return err
			}
			path, err := transfer.Write(afero.NewOsFs(), out, exp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s)\n", path, exp.MIMEType)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "yaml, json or toml")
	cmd.Flags().BoolVarP(&withProgress, "progress", "p", false, "include saved task progress (JSON)")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "directory to write to, or - for stdout")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the plan with one from a YAML, JSON or TOML file",
		Long: `Replaces the plan and clears the progress of every current task. A full
progress export restores the progress it carries. Reads stdin with --file -.`,
		Args: cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, args []string, e *env) error {
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			res, err := e.ctrl.Import(cmd.Context(), text)
			if err != nil {
				return err
			}
			p := e.ctrl.Plan()
			return report(cmd.OutOrStdout(), res, fmt.Sprintf("Imported %q with %d phases and %d tasks", p.Title, len(p.Phases), p.TaskCount()))
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "file to import, or - for stdin")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}
