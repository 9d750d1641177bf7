package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/workspace"
)

func newDeinitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "deinit",
		Short: "Remove the plannah workspace",
		Long:  "Removes the data directory with the plan and all task progress. This action cannot be undone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeinit(cmd, opts, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func runDeinit(cmd *cobra.Command, opts *rootOptions, force bool) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	dir := cfg.DataDir

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("plannah is not initialized in %s", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}

	held, err := workspace.NewSessionLock(dir).IsHeld()
	if err != nil {
		return err
	}
	if held {
		return fmt.Errorf("%w: close the planner before removing the workspace", workspace.ErrSessionActive)
	}

	entryCount, totalSize, err := calculateDirStats(dir)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	if !force {
		fmt.Fprintf(out, "This will delete %s (%d entries, %s). Continue? [y/N] ", dir, entryCount, formatSize(totalSize))

		reader := bufio.NewReader(cmd.InOrStdin())
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := removeFromGitignore(gitignoreEntries(dir)); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	fmt.Fprintln(out, "The plannah workspace has been removed.")
	return nil
}

// calculateDirStats counts stored entries and sums file sizes under dir.
func calculateDirStats(dir string) (entryCount int, totalSize int64, err error) {
	entries, readErr := os.ReadDir(filepath.Join(dir, "store"))
	if readErr == nil {
		entryCount = len(entries)
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	return
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1fKB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
