package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/config"
	"github.com/pablasso/plannah/internal/kv"
	"github.com/pablasso/plannah/internal/logging"
	"github.com/pablasso/plannah/internal/taskstore"
	"github.com/pablasso/plannah/internal/workspace"
)

// env is an opened workspace with everything a command needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend kv.Backend
	ws      *workspace.Workspace
	store   *taskstore.LocalStore
	ctrl    *app.Controller
	closers []io.Closer
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	return config.Load(opts.configFile, cmd.Flags())
}

// isInitialized checks for the workspace directory.
func isInitialized(dataDir string) bool {
	info, err := os.Stat(dataDir)
	return err == nil && info.IsDir()
}

func requireInitialized(dataDir string) error {
	if !isInitialized(dataDir) {
		return fmt.Errorf("plannah is not initialized in %s. Run 'plannah init' first", dataDir)
	}
	return nil
}

// openEnv loads the configuration and opens the workspace it names.
func openEnv(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := requireInitialized(cfg.DataDir); err != nil {
		return nil, err
	}
	return openWorkspace(cmd.Context(), cfg)
}

func openWorkspace(ctx context.Context, cfg *config.Config) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &env{cfg: cfg}

	logger, logFile, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.closers = append(e.closers, logFile)

	backend, err := kv.Open(kv.Options{
		Backend:    cfg.Storage.Backend,
		Dir:        cfg.DataDir,
		SQLitePath: cfg.Storage.SQLitePath,
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	e.backend = backend
	e.closers = append(e.closers, backend)

	e.ws = workspace.New(backend, cfg.DataDir, logger)
	e.store = taskstore.NewLocalStore(backend)
	e.ctrl, err = app.Open(ctx, e.ws, e.store, app.Options{Logger: logger})
	if err != nil {
		e.Close()
		return nil, err
	}
	logger.Debug("workspace opened", "data_dir", cfg.DataDir, "backend", cfg.Storage.Backend)
	return e, nil
}

// Close releases storage and the log file, newest first.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// withEnv opens the workspace, runs fn and closes the workspace.
func withEnv(opts *rootOptions, fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, opts)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd, args, e)
	}
}
