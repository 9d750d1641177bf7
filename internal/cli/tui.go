package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/tui"
	"github.com/pablasso/plannah/internal/workspace"
)

// runTUI opens the interactive planner. Only one session may hold the
// workspace at a time.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	e, err := openEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	lock := e.ws.SessionLock()
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Warn("failed to release session lock", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	changes, err := e.ws.WatchPlan(ctx, workspace.DefaultWatchDelay)
	if err != nil {
		if !errors.Is(err, workspace.ErrNotWatchable) {
			return err
		}
		e.logger.Info("plan reloading disabled", "backend", e.cfg.Storage.Backend)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	e.logger.Info("planner started", "data_dir", e.cfg.DataDir)
	defer e.logger.Info("planner stopped")
	return tui.Run(ctx, tui.Options{
		Controller:       e.ctrl,
		Logger:           e.logger,
		AutosaveInterval: e.cfg.Editor.AutosaveInterval,
		AttachmentDelay:  e.cfg.Editor.AttachmentSaveDelay,
		ExportDir:        cwd,
		Changes:          changes,
		Now:              timeNow,
	})
}
