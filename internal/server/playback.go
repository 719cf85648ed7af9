package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/oliwoli/castcut/internal/eventindex"
	"github.com/oliwoli/castcut/internal/resolver"
)

// DefaultViewport is used until a UI collaborator reports its real render
// surface via a future command; spec §4.5 leaves viewport sizing to the
// caller.
var DefaultViewport = resolver.Viewport{Width: 1920, Height: 1080}

type openBundlePayload struct {
	Path string `json:"path"`
}

type taskStatusPayload struct {
	TaskID string `json:"task_id"`
}

// handleOpenBundle dispatches the slow part of opening a bundle — reading
// video.json/sidecars off disk and building an Input-Event Index — onto a
// background Task instead of running it on the command-handling path
// (spec §5). It returns immediately with a task_id; the caller learns the
// outcome from the bundle_opened or error event the task broadcasts when
// it commits. Opening a second bundle cancels whatever open_bundle task
// was still in flight, since only the latest one matters (spec §5
// "latest-wins").
func (s *Session) handleOpenBundle(raw json.RawMessage) (Response, *Event) {
	var p openBundlePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errResponse(err), nil
	}

	s.mu.Lock()
	if s.openTask != nil {
		s.openTask.Cancel()
	}
	task := newTask(uuid.NewString())
	s.openTask = task
	s.mu.Unlock()

	go s.runOpenBundle(task, p.Path)
	return okResponse(map[string]interface{}{"task_id": task.ID, "status": "pending"}), nil
}

// runOpenBundle runs entirely off the Session lock: loadBundle and
// eventindex.Builder.Build do the real (and in a real deployment,
// slow) work. Only the final commit touches shared Session state.
func (s *Session) runOpenBundle(task *Task, path string) {
	b, err := loadBundle(path)
	var idx *eventindex.Index
	if err == nil {
		idx, err = s.indexer.Build(path, func() ([]eventindex.MouseMove, []eventindex.MouseClick, error) {
			return b.MouseMoves, b.MouseClicks, nil
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task.markDone()
	if task.Cancelled() {
		s.broadcast(Event{Type: EventErrorEvent, Payload: &ErrorInfo{
			Kind:    string(editmodel.KindCancelled),
			Message: fmt.Sprintf("open_bundle %q cancelled", path),
		}})
		return
	}
	if err != nil {
		s.broadcast(Event{Type: EventErrorEvent, Payload: &ErrorInfo{Kind: "BundleInvalid", Message: err.Error()}})
		return
	}

	s.bundle = b
	s.bundleID = path
	s.index = idx
	if s.openTask == task {
		s.openTask = nil
	}
	s.broadcast(Event{Type: EventBundleOpened, Payload: map[string]interface{}{
		"bundle_id": path, "duration_ms": b.Video.DurationMS,
	}})
}

// handleCancelTask requests cancellation of an in-flight background task
// (currently only open_bundle produces one). Cancelling an unknown or
// already-finished task_id is refused with NotFound rather than silently
// ignored.
func (s *Session) handleCancelTask(raw json.RawMessage) (Response, *Event) {
	var p taskStatusPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errResponse(err), nil
	}
	// Held for the whole check-then-cancel sequence, the same lock
	// runOpenBundle's commit holds, so a cancel can never race a commit:
	// whichever of the two reaches s.mu first decides the outcome.
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.openTask
	if task == nil || task.ID != p.TaskID || task.Done() {
		return errResponse(editmodel.NewError(editmodel.KindNotFound, "no in-flight task %q", p.TaskID)), nil
	}
	task.Cancel()
	return okResponse(map[string]interface{}{"task_id": task.ID, "status": "cancelling"}), nil
}

func (s *Session) handleCreateProject(raw json.RawMessage) (Response, *Event) {
	if s.bundle == nil {
		return errResponse(editmodel.NewError(editmodel.KindNotFound, "no bundle open")), nil
	}
	var p struct {
		Config editmodel.ProjectConfig `json:"config"`
	}
	_ = json.Unmarshal(raw, &p)

	proj := s.engine.CreateFromRecording(p.Config, s.bundle.Video.DurationMS)
	s.startResolver(proj)
	return okResponse(proj), &Event{Type: EventProjectChanged, Payload: proj}
}

func (s *Session) handleLoadProject(raw json.RawMessage) (Response, *Event) {
	var proj editmodel.Project
	if err := json.Unmarshal(raw, &proj); err != nil {
		return errResponse(err), nil
	}
	s.engine.LoadSnapshot(&proj)
	s.startResolver(&proj)
	return okResponse(&proj), &Event{Type: EventProjectChanged, Payload: &proj}
}

func (s *Session) handleSnapshotProject() (Response, *Event) {
	proj := s.engine.Snapshot()
	if proj == nil {
		return errResponse(editmodel.NewError(editmodel.KindNotFound, "no project loaded")), nil
	}
	raw, err := json.Marshal(proj)
	if err != nil {
		return errResponse(err), nil
	}
	return okResponse(json.RawMessage(raw)), nil
}

func (s *Session) startResolver(proj *editmodel.Project) {
	scene, ok := proj.ActiveSceneValue()
	if !ok {
		return
	}
	meta := resolver.MediaMetadata{FPS: 60, DurationMS: scene.TotalOutputDurationMS()}
	if s.bundle != nil {
		meta.FPS = s.bundle.Video.FPS
		meta.Width = s.bundle.Video.Width
		meta.Height = s.bundle.Video.Height
	}
	s.clock = newManualClock(meta)
	opts := s.resolverOptions()
	if s.bundle != nil {
		opts.AudioDriftMS = s.bundle.AudioDriftMS()
	}
	s.resolver = resolver.NewWithOptions(s.clock, s.index, scene, DefaultViewport, opts)
}

func (s *Session) reanchorResolver(proj *editmodel.Project) {
	if s.resolver == nil {
		return
	}
	scene, ok := proj.ActiveSceneValue()
	if !ok {
		return
	}
	s.resolver.UpdateScene(scene)
}

func (s *Session) resolverOrErr(fn func(*resolver.Resolver) (*resolver.FrameState, error)) (*resolver.FrameState, error) {
	if s.resolver == nil {
		return nil, editmodel.NewError(editmodel.KindNotFound, "no project loaded")
	}
	return fn(s.resolver)
}

func (s *Session) handlePlaybackResult(fs *resolver.FrameState, err error) (Response, *Event) {
	if err != nil {
		return errResponse(err), nil
	}
	ev := &Event{Type: EventFrameState, Payload: fs}
	if fs.EndOfStream {
		return okResponse(fs), &Event{Type: EventEndOfStream, Payload: nil}
	}
	return okResponse(fs), ev
}

// handlePlaybackPlay starts the Resolver's tick loop (spec §6
// "frame_state(FrameState) — one per tick while playing"). The loop ticks
// at the bundle's reported fps, the only source of frame cadence the core
// has since no real MediaClock is wired into this reference server.
func (s *Session) handlePlaybackPlay() (Response, *Event) {
	fs, err := s.resolverOrErr(func(r *resolver.Resolver) (*resolver.FrameState, error) {
		return r.Play()
	})
	if err != nil {
		return errResponse(err), nil
	}
	s.startTickLoop()
	return okResponse(fs), &Event{Type: EventFrameState, Payload: fs}
}

func (s *Session) startTickLoop() {
	s.stopTickLoop()
	stop := make(chan struct{})
	s.tickStop = stop

	fps := 60.0
	if s.clock != nil && s.clock.meta.FPS > 0 {
		fps = s.clock.meta.FPS
	}
	interval := time.Duration(1000.0/fps*float64(time.Millisecond)) + 1

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fs, err := s.resolver.Tick()
				s.mu.Unlock()
				if err != nil {
					s.broadcast(Event{Type: EventErrorEvent, Payload: &ErrorInfo{Kind: "Unknown", Message: err.Error()}})
					return
				}
				if fs.EndOfStream {
					s.broadcast(Event{Type: EventEndOfStream})
					return
				}
				s.broadcast(Event{Type: EventFrameState, Payload: fs})
			}
		}
	}()
}

func (s *Session) stopTickLoop() {
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

func (s *Session) handlePlaybackPause() (Response, *Event) {
	if s.resolver == nil {
		return errResponse(editmodel.NewError(editmodel.KindNotFound, "no project loaded")), nil
	}
	s.stopTickLoop()
	s.resolver.Pause()
	return okResponse(nil), nil
}

type seekPayload struct {
	TOutMS int64 `json:"t_out_ms"`
}

func (s *Session) handlePlaybackSeek(raw json.RawMessage) (Response, *Event) {
	var p seekPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errResponse(err), nil
	}
	return s.handlePlaybackResult(s.resolverOrErr(func(r *resolver.Resolver) (*resolver.FrameState, error) {
		return r.Seek(p.TOutMS)
	}))
}

type stepPayload struct {
	Dir int `json:"dir"`
}

func (s *Session) handlePlaybackStep(raw json.RawMessage) (Response, *Event) {
	var p stepPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errResponse(err), nil
	}
	if p.Dir != 1 && p.Dir != -1 {
		return errResponse(fmt.Errorf("server: step dir must be +1 or -1, got %d", p.Dir)), nil
	}
	return s.handlePlaybackResult(s.resolverOrErr(func(r *resolver.Resolver) (*resolver.FrameState, error) {
		return r.StepFrame(p.Dir)
	}))
}
