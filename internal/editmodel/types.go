// Package editmodel holds the authoritative project data and the mutation
// operations that preserve its invariants. It is the single writer of
// project state (see spec §5): every successful mutation publishes a new
// immutable snapshot, and unchanged aggregates are shared between
// revisions so concurrent readers always see a consistent view.
package editmodel

import (
	"time"

	"github.com/oliwoli/castcut/internal/timeline"
)

// MinLayoutMS is the shortest a Layout interval may be (invariant S2).
const MinLayoutMS int64 = 100

// SceneType distinguishes the three kinds of Scene.
type SceneType string

const (
	SceneRecording  SceneType = "recording"
	SceneTitle      SceneType = "title"
	SceneTransition SceneType = "transition"
)

// LayoutType is the compositional layout active over a Layout interval.
type LayoutType string

const (
	LayoutScreenOnly      LayoutType = "screen-only"
	LayoutCameraOnly      LayoutType = "camera-only"
	LayoutScreenWithCamera LayoutType = "screen-with-camera"
	LayoutSideBySide      LayoutType = "side-by-side"
)

// Slice is a track selection: an alias of the time-algebra Slice, which
// already carries the ID and per-slice flags the edit model uses.
type Slice = timeline.Slice

// Layout is an interval of output time specifying screen/camera composition.
type Layout struct {
	ID             string
	StartMS        int64
	EndMS          int64
	Type           LayoutType
	CameraSize     float64    // fraction of container width, (0,1]
	CameraPosition [2]float64 // normalized [0,1]x[0,1]
}

func (l Layout) DurationMS() int64 { return l.EndMS - l.StartMS }

// ZoomRange's playback effect is out of scope (spec §9, open question 4);
// the shape is carried through unchanged so persisted projects round-trip.
type ZoomRange struct {
	ID      string
	StartMS int64
	EndMS   int64
	Scale   float64
}

// Scene groups the screen/camera slice tracks, the layouts composing them,
// and zoom ranges, for one continuous output segment.
type Scene struct {
	ID                    string
	Name                  string
	Type                  SceneType
	RecordingSessionIndex int
	ScreenSlices          []Slice
	CameraSlices          []Slice
	Layouts               []Layout
	ZoomRanges            []ZoomRange
}

// TotalOutputDurationMS is derived from the screen track (invariant T).
func (s Scene) TotalOutputDurationMS() int64 {
	return timeline.TotalOutputDuration(s.ScreenSlices)
}

// CursorConfig, CameraConfig, AudioConfig are opaque render-time knobs the
// core carries but never interprets (collaborator decisions).
type CursorConfig struct {
	Multiplier float64 // natural-size multiplier; renderer decides meaning (open question 3)
}

type CameraConfig struct {
	Shape string // e.g. "rounded" | "circle"; renderer concern
}

type AudioConfig struct {
	MicVolume    float64
	SystemVolume float64
}

// ProjectConfig holds project-wide, non-timeline settings.
type ProjectConfig struct {
	Background        string
	Padding           float64
	Shadow            bool
	Cursor            CursorConfig
	Camera            CameraConfig
	Audio             AudioConfig
	RecordingStartMS  int64
	RecordingEndMS    int64
	OutputAspectRatio float64
}

// Project is the top-level aggregate. Project values are treated as
// immutable once published: mutation always produces a new Project with
// untouched Scenes shared by reference with the prior value.
type Project struct {
	ID          string
	CreatedAt   time.Time
	Config      ProjectConfig
	Scenes      []Scene
	ActiveScene int
}

func (p Project) ActiveSceneValue() (Scene, bool) {
	if p.ActiveScene < 0 || p.ActiveScene >= len(p.Scenes) {
		return Scene{}, false
	}
	return p.Scenes[p.ActiveScene], true
}

// shallowCopy returns a Project with a new, independent Scenes slice header
// (so callers can replace one element without mutating the original's
// backing array) while every Scene value itself is still shared until it,
// specifically, needs to change.
func (p Project) shallowCopy() Project {
	cp := p
	cp.Scenes = append([]Scene(nil), p.Scenes...)
	return cp
}

func (s Scene) shallowCopy() Scene {
	cp := s
	cp.ScreenSlices = append([]Slice(nil), s.ScreenSlices...)
	cp.CameraSlices = append([]Slice(nil), s.CameraSlices...)
	cp.Layouts = append([]Layout(nil), s.Layouts...)
	cp.ZoomRanges = append([]ZoomRange(nil), s.ZoomRanges...)
	return cp
}
