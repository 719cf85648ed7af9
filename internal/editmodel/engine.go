package editmodel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oliwoli/castcut/internal/timeline"
	"github.com/sirupsen/logrus"
)

// ChangeListener is notified, synchronously, after every successful
// mutation. old is nil for the very first publish (project creation).
type ChangeListener func(old, new *Project)

// Engine is the single writer of project state. Readers call Snapshot to
// get the current immutable *Project via an atomically-published pointer;
// a reader holding an older snapshot remains correct but stale, per the
// concurrency model in spec §5 — there is no lock on the read path.
type Engine struct {
	current   atomic.Pointer[Project]
	writeMu   sync.Mutex // serializes mutators; never held across I/O
	listeners []ChangeListener
	listenMu  sync.RWMutex
	log       *logrus.Entry
}

// NewEngine constructs an Engine with no project loaded.
func NewEngine(log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{log: log.WithField("component", "editmodel")}
}

// Snapshot returns the current project, or nil if none has been published.
func (e *Engine) Snapshot() *Project {
	return e.current.Load()
}

// LoadSnapshot publishes an externally-constructed Project verbatim (spec
// §6 "load_project"), the persistence primitive's counterpart to
// Snapshot/snapshot_project. The caller is responsible for the snapshot
// already satisfying S1/S2/L/M — LoadSnapshot does not re-validate, the
// way a deserializer trusts its own prior serialization.
func (e *Engine) LoadSnapshot(p *Project) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.publish(p)
}

// Subscribe registers a listener for project_changed notifications.
func (e *Engine) Subscribe(l ChangeListener) {
	e.listenMu.Lock()
	defer e.listenMu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) publish(next *Project) {
	old := e.current.Swap(next)
	e.listenMu.RLock()
	listeners := append([]ChangeListener(nil), e.listeners...)
	e.listenMu.RUnlock()
	for _, l := range listeners {
		l(old, next)
	}
	e.log.WithField("project_id", next.ID).Debug("project_changed")
}

func newID() string { return uuid.NewString() }

// CreateEmptyProject initializes a project with no scenes.
func (e *Engine) CreateEmptyProject(cfg ProjectConfig) *Project {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	p := &Project{
		ID:        newID(),
		CreatedAt: time.Now(),
		Config:    cfg,
		Scenes:    nil,
	}
	e.publish(p)
	return p
}

// CreateFromRecording seeds one default Scene: a full-duration slice on
// each track and one full-duration screen-with-camera layout.
func (e *Engine) CreateFromRecording(cfg ProjectConfig, recordingDurationMS int64) *Project {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	screenSlice := timeline.Slice{
		ID: newID(), SourceStartMS: 0, SourceEndMS: recordingDurationMS, TimeScale: 1, Volume: 1,
	}
	cameraSlice := timeline.Slice{
		ID: newID(), SourceStartMS: 0, SourceEndMS: recordingDurationMS, TimeScale: 1, Volume: 1,
	}
	layout := Layout{
		ID: newID(), StartMS: 0, EndMS: recordingDurationMS,
		Type: LayoutScreenWithCamera, CameraSize: 0.28, CameraPosition: [2]float64{0.82, 0.82},
	}
	scene := Scene{
		ID:           newID(),
		Name:         "Scene 1",
		Type:         SceneRecording,
		ScreenSlices: []Slice{screenSlice},
		CameraSlices: []Slice{cameraSlice},
		Layouts:      []Layout{layout},
	}

	p := &Project{
		ID:          newID(),
		CreatedAt:   time.Now(),
		Config:      cfg,
		Scenes:      []Scene{scene},
		ActiveScene: 0,
	}
	e.publish(p)
	return p
}

// replaceScene returns a new Project with scenes[idx] replaced by next,
// sharing every other Scene value with the prior project (structural
// sharing across revisions, per spec §3 Lifecycle).
func replaceScene(p *Project, idx int, next Scene) *Project {
	cp := p.shallowCopy()
	cp.Scenes[idx] = next
	return &cp
}

func findSceneIndex(p *Project, sceneID string) (int, bool) {
	for i, s := range p.Scenes {
		if s.ID == sceneID {
			return i, true
		}
	}
	return -1, false
}
