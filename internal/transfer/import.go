package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pablasso/plannah/internal/plan"
	"github.com/pablasso/plannah/internal/taskstore"
)

var (
	ErrInvalidFormat    = errors.New("invalid YAML or JSON format")
	ErrInvalidStructure = errors.New("invalid manufacturing plan structure")
)

// decoder parses text into v. Decoders are tried in order.
type decoder struct {
	name   string
	decode func(text string, v any) error
}

var decoders = []decoder{
	{"yaml", func(text string, v any) error { return yaml.Unmarshal([]byte(text), v) }},
	{"json", func(text string, v any) error { return json.Unmarshal([]byte(text), v) }},
	{"toml", func(text string, v any) error { _, err := toml.Decode(text, v); return err }},
}

// Parse decodes a plan document. The first decoder that yields an object
// with a string title and a phases list wins. When no decoder parses the
// text ErrInvalidFormat is returned; when something parsed but had the wrong
// shape, ErrInvalidStructure.
func Parse(text string) (*ProgressDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidFormat
	}
	parsed := false
	var lastErr error
	for _, d := range decoders {
		var raw any
		if err := d.decode(text, &raw); err != nil {
			continue
		}
		parsed = true
		if err := checkShape(raw); err != nil {
			lastErr = err
			continue
		}
		var doc ProgressDocument
		if err := d.decode(text, &doc); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrInvalidStructure, err)
			continue
		}
		return &doc, nil
	}
	if !parsed {
		return nil, ErrInvalidFormat
	}
	return nil, lastErr
}

func checkShape(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ErrInvalidStructure
	}
	if title, ok := obj["title"].(string); !ok || title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidStructure)
	}
	switch obj["phases"].(type) {
	case []any, []map[string]any:
		return nil
	}
	return fmt.Errorf("%w: missing phases", ErrInvalidStructure)
}

// Decoded is an import ready to apply: the plan with missing ids filled and
// the progress it carries, nil unless it is a recognized full export.
type Decoded struct {
	Plan     *plan.Plan
	Progress map[string]plan.TaskState
}

// Decode parses text and fills missing ids. Every task's PhaseID is set
// from the phase holding it.
func Decode(text string, now time.Time) (*Decoded, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	p := doc.Plan.Clone()
	fillIDs(p, now)
	d := &Decoded{Plan: p}
	if doc.ExportVersion == ExportVersion {
		d.Progress = doc.ProgressData
	}
	return d, nil
}

// ReplaceState purges the state of every task in current, when non-nil,
// then saves progress back.
func ReplaceState(ctx context.Context, store taskstore.Store, current *plan.Plan, progress map[string]plan.TaskState) error {
	if current != nil {
		if err := taskstore.Purge(ctx, store, current.TaskIDs()); err != nil {
			return fmt.Errorf("failed to clear task state: %w", err)
		}
	}
	for id, st := range progress {
		if err := store.SaveState(ctx, id, st); err != nil {
			return fmt.Errorf("failed to restore progress: %w", err)
		}
	}
	return nil
}

func fillIDs(p *plan.Plan, now time.Time) {
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.ID == "" {
			ph.ID = p.NewPhaseID(now)
		}
		if ph.Tasks == nil {
			ph.Tasks = []plan.Task{}
		}
		for j := range ph.Tasks {
			if ph.Tasks[j].ID == "" {
				ph.Tasks[j].ID = p.NewTaskID(ph.ID, now)
			}
		}
	}
	p.Normalize()
}
