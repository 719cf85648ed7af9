package bundle

import (
	"encoding/json"
	"os"

	"github.com/oliwoli/castcut/internal/eventindex"
)

// The bundle's on-disk sidecar encoding is a collaborator decision (spec
// §6, "State on disk"); this package picks one concrete, conventional
// layout so the loader below has something real to parse:
//   video.json          — VideoMeta (+ optional webcam/mic/system_audio paths)
//   mouse_moves.json     — []moveDTO, sorted ascending by process_time_ms
//   mouse_clicks.json    — []clickDTO, sorted ascending by process_time_ms

type moveDTO struct {
	ProcessTimeMS int64   `json:"process_time_ms"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	CursorID      string  `json:"cursor_id"`
}

type clickDTO struct {
	ProcessTimeMS int64  `json:"process_time_ms"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Button        string `json:"button"`
	Phase         string `json:"phase"`
}

// LoadMouseMoves parses a mouse-move sidecar and validates invariant M.
func LoadMouseMoves(path string) ([]eventindex.MouseMove, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr("reading mouse-move sidecar %q: %v", path, err)
	}
	var dtos []moveDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, newErr("parsing mouse-move sidecar %q: %v", path, err)
	}
	out := make([]eventindex.MouseMove, len(dtos))
	for i, d := range dtos {
		out[i] = eventindex.MouseMove{ProcessTimeMS: d.ProcessTimeMS, X: d.X, Y: d.Y, CursorID: d.CursorID}
	}
	if !eventindex.IsSorted(out, nil) {
		return nil, newErr("mouse-move sidecar %q violates monotonicity invariant M", path)
	}
	return out, nil
}

// LoadMouseClicks parses a mouse-click sidecar and validates invariant M.
func LoadMouseClicks(path string) ([]eventindex.MouseClick, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr("reading mouse-click sidecar %q: %v", path, err)
	}
	var dtos []clickDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, newErr("parsing mouse-click sidecar %q: %v", path, err)
	}
	out := make([]eventindex.MouseClick, len(dtos))
	for i, d := range dtos {
		phase := eventindex.PhaseDown
		if d.Phase == string(eventindex.PhaseUp) {
			phase = eventindex.PhaseUp
		}
		out[i] = eventindex.MouseClick{ProcessTimeMS: d.ProcessTimeMS, X: d.X, Y: d.Y, Button: d.Button, Phase: phase}
	}
	if !eventindex.IsSorted(nil, out) {
		return nil, newErr("mouse-click sidecar %q violates monotonicity invariant M", path)
	}
	return out, nil
}
