// Package server exposes the engine over the command/event boundary
// described in spec §6: commands consumed from a UI collaborator,
// events pushed back over a websocket stream. It generalizes the
// teacher's httpserver.go (mux + CORS middleware + JSON command
// dispatch over /msg) from ad-hoc Davinci-sync messages to the
// engine's own command/event set, and its playback loop from Wails'
// EventsEmit push model to a gorilla/websocket broadcast hub.
package server

import (
	"sync"
	"time"

	"github.com/oliwoli/castcut/internal/bundle"
	"github.com/oliwoli/castcut/internal/config"
	"github.com/oliwoli/castcut/internal/cursor"
	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/oliwoli/castcut/internal/eventindex"
	"github.com/oliwoli/castcut/internal/persist"
	"github.com/oliwoli/castcut/internal/resolver"
	"github.com/sirupsen/logrus"
)

// Session holds one open bundle/project/resolver triple. The reference
// server supports a single active session, the way the teacher's App
// struct holds one Davinci project at a time.
type Session struct {
	log *logrus.Entry
	mu  sync.Mutex

	cfg     *config.Config
	engine  *editmodel.Engine
	indexer *eventindex.Builder

	bundle   *bundle.RecordingBundle
	bundleID string
	index    *eventindex.Index

	resolver *resolver.Resolver
	clock    *manualClock

	openTask *Task

	persister *persist.AutoPersister

	broadcast func(Event)
	tickStop  chan struct{}
}

// NewSession constructs an empty Session; no bundle or project is loaded
// until the corresponding commands arrive. broadcast pushes frame_state
// and end_of_stream events emitted by the tick loop (spec §6); it may be
// nil in tests that only exercise Dispatch directly. cfg supplies the
// Cursor Smoother spring constants, click-fade window, audio-drift resync
// threshold and auto-persist debounce/path; nil falls back to
// resolver.DefaultOptions() and does not attach an AutoPersister, the way
// a unit test that never touches disk would want it.
func NewSession(log *logrus.Entry, broadcast func(Event), cfg *config.Config) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if broadcast == nil {
		broadcast = func(Event) {}
	}
	engine := editmodel.NewEngine(log)
	s := &Session{
		log:       log.WithField("component", "server.session"),
		cfg:       cfg,
		engine:    engine,
		indexer:   &eventindex.Builder{},
		broadcast: broadcast,
	}
	if cfg != nil && cfg.ProjectPersistPath != "" {
		window := time.Duration(cfg.AutoPersistDebounceMS) * time.Millisecond
		s.persister = persist.New(persist.FileWriter(cfg.ProjectPersistPath), window, log)
		s.persister.Attach(engine)
	}
	return s
}

// resolverOptions builds the Resolver Options a new Resolver anchors to,
// from s.cfg when present, falling back to resolver.DefaultOptions().
func (s *Session) resolverOptions() resolver.Options {
	opts := resolver.DefaultOptions()
	if s.cfg == nil {
		return opts
	}
	opts.CursorParams = cursor.Params{
		Stiffness: s.cfg.SpringStiffness,
		Damping:   s.cfg.SpringDamping,
		Mass:      s.cfg.SpringMass,
	}
	opts.ClickFadeMS = s.cfg.ClickFadeMS
	opts.AudioDriftThresholdMS = s.cfg.AudioDriftThresholdMS
	return opts
}

// manualClock is the reference MediaClock (spec §6 "Media interface"): no
// real media player is wired in this repo, so it tracks source time as a
// plain counter plus the wall-clock time elapsed since Play or the last
// Seek while playing; Pause folds that elapsed time into the counter. A real
// UI collaborator replaces this with a clock bound to an actual decoder.
type manualClock struct {
	meta     resolver.MediaMetadata
	startedAt time.Time
	playing  bool
	sourceMS int64
}

func newManualClock(meta resolver.MediaMetadata) *manualClock {
	return &manualClock{meta: meta}
}

func (c *manualClock) Seek(sourceMS int64) {
	c.sourceMS = sourceMS
	c.startedAt = time.Now()
}

func (c *manualClock) Play() {
	c.playing = true
	c.startedAt = time.Now()
}

func (c *manualClock) Pause() {
	c.sourceMS = c.CurrentTimeMS()
	c.playing = false
}

func (c *manualClock) CurrentTimeMS() int64 {
	if !c.playing {
		return c.sourceMS
	}
	return c.sourceMS + time.Since(c.startedAt).Milliseconds()
}

func (c *manualClock) Metadata() resolver.MediaMetadata { return c.meta }
