package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a plannah workspace in the current directory",
		Long:  "Creates the data directory and stores the built-in master plan in it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if isInitialized(cfg.DataDir) {
		return fmt.Errorf("plannah is already initialized in %s", cfg.DataDir)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.DataDir, err)
	}

	e, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.ws.SavePlan(cmd.Context(), e.ctrl.Plan()); err != nil {
		return err
	}
	if err := addToGitignore(gitignoreEntries(cfg.DataDir)); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Initialized plannah in", cfg.DataDir)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run: plannah show")
	fmt.Fprintln(out, "  2. Import your own plan: plannah import --file plan.yaml")
	fmt.Fprintln(out, "  3. Open the planner: plannah")
	return nil
}

// gitignoreEntries are the workspace files that should never be committed.
func gitignoreEntries(dataDir string) []string {
	dir := filepath.ToSlash(filepath.Clean(dataDir))
	return []string{dir + "/session.lock", dir + "/*.log"}
}
