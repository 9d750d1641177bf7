package tui

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/pablasso/plannah/internal/app"
	"github.com/pablasso/plannah/internal/detail"
)

// Options configures the planner.
type Options struct {
	Controller *app.Controller
	Logger     *slog.Logger

	// AutosaveInterval and AttachmentDelay tune the detail form.
	AutosaveInterval time.Duration
	AttachmentDelay  time.Duration

	// ExportDir receives progress exports; the import picker starts there.
	ExportDir string
	Fs        afero.Fs

	// Changes fires when the stored plan changed outside this session.
	// Nil disables reloading.
	Changes <-chan struct{}

	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = detail.DefaultAutosaveInterval
	}
	if o.AttachmentDelay <= 0 {
		o.AttachmentDelay = detail.DefaultAttachmentDelay
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
