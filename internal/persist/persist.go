// Package persist is the reference auto-persist collaborator described in
// spec §4.2 ("Auto-persist hook"): the core exposes a project_changed
// signal plus an opaque serialisable value; this collaborator debounces
// and writes. The core itself makes no filesystem calls. Debouncing is
// grounded on bep/debounce, present in the teacher's dependency closure.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/sirupsen/logrus"
)

// Writer persists an opaque project snapshot. A real implementation might
// serialize to the project-file-on-disk format (spec §6, "collaborator
// decision"); it is intentionally abstract here.
type Writer func(p *editmodel.Project) error

// FileWriter returns a Writer that JSON-encodes the project and writes it
// to path, creating parent directories as needed. Grounded on the
// teacher's SaveConfig (MarshalIndent + MkdirAll + WriteFile to a
// well-known config path), generalized from arbitrary config data to a
// project snapshot.
func FileWriter(path string) Writer {
	return func(p *editmodel.Project) error {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("persist: marshaling project %s: %w", p.ID, err)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("persist: creating directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("persist: writing %s: %w", path, err)
		}
		return nil
	}
}

// AutoPersister subscribes to an Engine's change notifications and writes
// the latest snapshot after a quiet period, collapsing bursts of edits
// (e.g. a drag operation emitting many trims) into a single write.
type AutoPersister struct {
	write    Writer
	debounce func(func())
	log      *logrus.Entry

	mu      sync.Mutex
	pending *editmodel.Project
}

// New constructs an AutoPersister that waits for `window` of quiet time
// before writing.
func New(write Writer, window time.Duration, log *logrus.Entry) *AutoPersister {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AutoPersister{
		write:    write,
		debounce: debounce.New(window),
		log:      log.WithField("component", "persist"),
	}
}

// Attach registers this persister as a ChangeListener on the engine.
func (p *AutoPersister) Attach(e *editmodel.Engine) {
	e.Subscribe(func(old, next *editmodel.Project) {
		p.OnProjectChanged(old, next)
	})
}

// OnProjectChanged is the engine ChangeListener entry point: it records
// the latest snapshot and schedules a debounced write.
func (p *AutoPersister) OnProjectChanged(_, next *editmodel.Project) {
	p.mu.Lock()
	p.pending = next
	p.mu.Unlock()

	p.debounce(func() {
		p.mu.Lock()
		snap := p.pending
		p.mu.Unlock()
		if snap == nil {
			return
		}
		if err := p.write(snap); err != nil {
			p.log.WithError(err).WithField("project_id", snap.ID).Error("auto-persist write failed")
			return
		}
		p.log.WithField("project_id", snap.ID).Debug("auto-persist write completed")
	})
}
