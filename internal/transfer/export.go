// Package transfer converts plans to and from the YAML, JSON and TOML
// documents users exchange.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

// Format is a plan document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ExportVersion tags progress documents this version can replay.
const ExportVersion = "1.0"

// ProgressFilename is the name of a progress export.
const ProgressFilename = "manufacturing-progress-complete.json"

// Export is a rendered document ready to be written out.
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ProgressDocument is a plan together with the saved state of its tasks.
type ProgressDocument struct {
	plan.Plan     `yaml:",inline"`
	ProgressData  map[string]plan.TaskState `json:"progressData" yaml:"progressData" toml:"progressData"`
	ExportedAt    string                    `json:"exportedAt" yaml:"exportedAt" toml:"exportedAt"`
	ExportVersion string                    `json:"exportVersion" yaml:"exportVersion" toml:"exportVersion"`
}

// ParseFormat accepts yaml, yml, json and toml.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want yaml, json or toml)", s)
}

// ExportPlan renders the static plan. Runtime task state is never included.
func ExportPlan(p *plan.Plan, f Format) (Export, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return Export{}, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return Export{}, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return Export{Filename: "manufacturing-plan.yaml", MIMEType: "text/yaml", Data: buf.Bytes()}, nil
	case FormatJSON:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return Export{}, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return Export{Filename: "manufacturing-plan.json", MIMEType: "application/json", Data: data}, nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return Export{}, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return Export{Filename: "manufacturing-plan.toml", MIMEType: "application/toml", Data: buf.Bytes()}, nil
	}
	return Export{}, fmt.Errorf("unsupported format %q", f)
}

// ExportProgress renders p plus the saved state of every task that has one.
// Tasks whose state cannot be loaded are left out.
func ExportProgress(ctx context.Context, p *plan.Plan, store taskstore.Store, now time.Time, logger *slog.Logger) (Export, error) {
	doc := ProgressDocument{
		Plan:          *p.Clone(),
		ProgressData:  taskstore.Snapshot(ctx, store, p, logger),
		ExportedAt:    now.UTC().Format(time.RFC3339),
		ExportVersion: ExportVersion,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode progress: %w", err)
	}
	return Export{Filename: ProgressFilename, MIMEType: "application/json", Data: data}, nil
}

// Write saves e under dir with its fixed filename and returns the path.
func Write(fsys afero.Fs, dir string, e Export) (string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, e.Filename)
	if err := afero.WriteFile(fsys, path, e.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
