package server

import (
	"encoding/json"
	"fmt"

	"github.com/oliwoli/castcut/internal/bundle"
	"github.com/oliwoli/castcut/internal/editmodel"
)

// Command mirrors the teacher's PythonMessage{Type, Payload}: the payload
// is left as raw JSON until the type names which struct to decode it into.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Response is the generic command reply. Data is command-specific; Error is
// set, and Data omitted, on failure.
type Response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries spec §7's {kind, message} error shape over the wire.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errResponse(err error) Response {
	kind := "Unknown"
	if e, ok := err.(*editmodel.Error); ok {
		kind = string(e.Kind)
	} else if e, ok := err.(*bundle.Error); ok {
		kind = string(e.Kind)
	}
	return Response{OK: false, Error: &ErrorInfo{Kind: kind, Message: err.Error()}}
}

func okResponse(data interface{}) Response {
	return Response{OK: true, Data: data}
}

// Dispatch decodes and runs one Command against the session, returning the
// Response to send back to the caller and, for commands whose effect the
// caller should also observe as a push event (edits, playback transitions),
// the event to broadcast. Dispatch serializes all access to the Resolver
// and Edit Model against the tick loop's own goroutine: spec §5 assumes a
// single cooperative loop drives both, a guarantee an HTTP server with
// concurrent request goroutines has to provide explicitly.
func (s *Session) Dispatch(cmd Command) (Response, *Event) {
	// open_bundle and cancel_task manage s.mu themselves — open_bundle
	// hands the slow work to a background Task and only locks briefly to
	// record it, and cancel_task locks it while it checks and flips that
	// Task's flag. Routing
	// them through the lock below would deadlock against their own
	// locking.
	switch cmd.Type {
	case "open_bundle":
		return s.handleOpenBundle(cmd.Payload)
	case "cancel_task":
		return s.handleCancelTask(cmd.Payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch cmd.Type {
	case "create_project_from_bundle":
		return s.handleCreateProject(cmd.Payload)
	case "load_project":
		return s.handleLoadProject(cmd.Payload)
	case "snapshot_project":
		return s.handleSnapshotProject()
	case "edit.split_all_tracks_at":
		return handleEdit(s, cmd.Payload, func(p editSplitPayload) (*editmodel.Project, error) {
			return s.engine.SplitAllTracksAt(p.SceneID, p.TOutMS)
		})
	case "edit.remove_clip":
		return handleEdit(s, cmd.Payload, func(p editRemoveClipPayload) (*editmodel.Project, error) {
			return s.engine.RemoveClip(p.SceneID, p.SliceID)
		})
	case "edit.update_slice":
		return handleEdit(s, cmd.Payload, func(p editUpdateSlicePayload) (*editmodel.Project, error) {
			return s.engine.UpdateSlice(p.SceneID, p.Track, p.SliceID, p.Patch)
		})
	case "edit.reorder":
		return handleEdit(s, cmd.Payload, func(p editReorderPayload) (*editmodel.Project, error) {
			return s.engine.Reorder(p.SceneID, p.Track, p.From, p.To)
		})
	case "edit.add_layout":
		return handleEdit(s, cmd.Payload, func(p editAddLayoutPayload) (*editmodel.Project, error) {
			return s.engine.AddLayout(p.SceneID, p.Layout)
		})
	case "edit.update_layout":
		return handleEdit(s, cmd.Payload, func(p editUpdateLayoutPayload) (*editmodel.Project, error) {
			return s.engine.UpdateLayout(p.SceneID, p.LayoutID, p.Patch)
		})
	case "edit.remove_layout":
		return handleEdit(s, cmd.Payload, func(p editRemoveLayoutPayload) (*editmodel.Project, error) {
			return s.engine.RemoveLayout(p.SceneID, p.LayoutID)
		})
	case "edit.split_layout":
		return handleEdit(s, cmd.Payload, func(p editSplitLayoutPayload) (*editmodel.Project, error) {
			return s.engine.SplitLayout(p.SceneID, p.LayoutID, p.AtMS)
		})
	case "playback.play":
		return s.handlePlaybackPlay()
	case "playback.pause":
		return s.handlePlaybackPause()
	case "playback.seek":
		return s.handlePlaybackSeek(cmd.Payload)
	case "playback.step":
		return s.handlePlaybackStep(cmd.Payload)
	default:
		return errResponse(fmt.Errorf("server: unknown command %q", cmd.Type)), nil
	}
}

// --- edit.* payloads ----------------------------------------------------

type editSplitPayload struct {
	SceneID string `json:"scene_id"`
	TOutMS  int64  `json:"t_out_ms"`
}

type editRemoveClipPayload struct {
	SceneID string `json:"scene_id"`
	SliceID string `json:"slice_id"`
}

type editUpdateSlicePayload struct {
	SceneID string                 `json:"scene_id"`
	Track   editmodel.Track        `json:"track"`
	SliceID string                 `json:"slice_id"`
	Patch   editmodel.SlicePatch   `json:"patch"`
}

type editReorderPayload struct {
	SceneID string          `json:"scene_id"`
	Track   editmodel.Track `json:"track"`
	From    int             `json:"from"`
	To      int             `json:"to"`
}

type editAddLayoutPayload struct {
	SceneID string           `json:"scene_id"`
	Layout  editmodel.Layout `json:"layout"`
}

type editUpdateLayoutPayload struct {
	SceneID  string                `json:"scene_id"`
	LayoutID string                `json:"layout_id"`
	Patch    editmodel.LayoutPatch `json:"patch"`
}

type editRemoveLayoutPayload struct {
	SceneID  string `json:"scene_id"`
	LayoutID string `json:"layout_id"`
}

type editSplitLayoutPayload struct {
	SceneID  string `json:"scene_id"`
	LayoutID string `json:"layout_id"`
	AtMS     int64  `json:"at_ms"`
}

// handleEdit decodes payload into P, runs op against the session, and on
// success re-anchors the Resolver to the new snapshot (spec §4.5
// UpdateScene) and reports a project_changed event alongside the Response.
func handleEdit[P any](s *Session, raw json.RawMessage, op func(P) (*editmodel.Project, error)) (Response, *Event) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return errResponse(err), nil
	}
	proj, err := op(p)
	if err != nil {
		return errResponse(err), nil
	}
	s.reanchorResolver(proj)
	return okResponse(proj), &Event{Type: EventProjectChanged, Payload: proj}
}
