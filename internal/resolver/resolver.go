// Package resolver implements the Playback Clock & Resolver (spec §4.5):
// the single stateful orchestrator that advances output time, maps it
// through a Scene's slices and layouts, drives the Cursor Smoother, and
// publishes an immutable FrameState on every tick.
package resolver

import (
	"fmt"
	"math"
	"time"

	"github.com/oliwoli/castcut/internal/cursor"
	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/oliwoli/castcut/internal/eventindex"
	"github.com/oliwoli/castcut/internal/telemetry"
	"github.com/oliwoli/castcut/internal/timeline"
)

// ClickFadeMS bounds how long a click stays in FrameState.RecentClicks.
const ClickFadeMS int64 = 500

// MediaMetadata is what a MediaClock reports about the media it plays.
type MediaMetadata struct {
	FPS        float64
	Width      int
	Height     int
	DurationMS int64
}

// MediaClock is the abstract media collaborator the Resolver drives. It is
// fire-and-forget: Seek/Play/Pause never block, and the Resolver tolerates
// out-of-order completion by re-issuing against the desired time each tick
// (spec §5).
type MediaClock interface {
	Seek(sourceMS int64)
	Play()
	Pause()
	CurrentTimeMS() int64
	Metadata() MediaMetadata
}

// SmoothedPoint is the cursor entry in a FrameState; nil when the active
// slice hides the cursor or no move sample exists at the source time. The
// active layout does not hide it.
type SmoothedPoint struct {
	X, Y       float64
	RawX, RawY float64
	CursorID   string
}

// ClickInfo is one recent click annotated with its age for fade-out.
type ClickInfo struct {
	X, Y   float64
	Button string
	AgeMS  int64
}

// FrameState is the immutable snapshot published on every tick and seek.
type FrameState struct {
	TOutMS       int64
	SliceIndex   int
	SourceTimeMS int64
	ActiveLayout LayoutRenderInfo
	Cursor       *SmoothedPoint
	RecentClicks []ClickInfo
	EndOfStream  bool
	Warning      string
}

// Resolver is the only stateful orchestrator in the core (spec §4.5). All
// of its state — sliceIndex, playing, smoother — is touched only from the
// caller's single loop, so no locks are required.
type Resolver struct {
	media    MediaClock
	events   *eventindex.Index
	smoother *cursor.Smoother
	viewport Viewport

	scene      editmodel.Scene
	sliceIndex int
	playing    bool
	lastTickAt time.Time

	clickFadeMS           int64
	audioDriftMS          int64
	audioDriftThresholdMS int64

	now func() time.Time
}

// Viewport is the render target size the Resolver lays clips out into.
type Viewport struct {
	Width, Height float64
	// CameraAspect is the camera track's native width/height ratio, used
	// to size the camera rect in screen-with-camera layouts.
	CameraAspect float64
}

// Options carries the collaborator-tunable knobs spec §4.4/§4.5/§7 leave
// to configuration rather than fixing as constants: the Cursor Smoother's
// spring constants, how long a click stays in RecentClicks, and the
// audio-drift resync policy threshold. DefaultOptions reproduces the
// spec's documented defaults; a caller with an internal/config.Config
// overrides from there.
type Options struct {
	CursorParams          cursor.Params
	ClickFadeMS           int64
	AudioDriftMS          int64
	AudioDriftThresholdMS int64
}

// DefaultOptions returns the spec-documented defaults this package used to
// hardcode as package-level constants.
func DefaultOptions() Options {
	return Options{
		CursorParams:          cursor.DefaultParams(),
		ClickFadeMS:           ClickFadeMS,
		AudioDriftThresholdMS: AudioDriftThresholdMS,
	}
}

// New constructs a Resolver for one Scene with DefaultOptions. smoother
// starts unreset; the first Seek or playback start establishes its
// position per reset condition 2 (spec §4.4).
func New(media MediaClock, events *eventindex.Index, scene editmodel.Scene, viewport Viewport) *Resolver {
	return NewWithOptions(media, events, scene, viewport, DefaultOptions())
}

// NewWithOptions is New with explicit Options, the entry point a
// collaborator wires internal/config.Config's spring/click-fade/drift
// knobs through.
func NewWithOptions(media MediaClock, events *eventindex.Index, scene editmodel.Scene, viewport Viewport, opts Options) *Resolver {
	if viewport.CameraAspect <= 0 {
		viewport.CameraAspect = 16.0 / 9.0
	}
	return &Resolver{
		media:                 media,
		events:                events,
		smoother:              cursor.New(opts.CursorParams),
		viewport:              viewport,
		scene:                 scene,
		now:                   time.Now,
		clickFadeMS:           opts.ClickFadeMS,
		audioDriftMS:          opts.AudioDriftMS,
		audioDriftThresholdMS: opts.AudioDriftThresholdMS,
	}
}

// UpdateScene swaps in a new Scene snapshot (on project_changed) and
// re-anchors slice_index/source_time to the output time the Resolver was
// last at, since slice boundaries may have moved.
func (r *Resolver) UpdateScene(scene editmodel.Scene) {
	tOut := r.currentTOut()
	r.scene = scene
	r.seekInternal(tOut, false)
}

func (r *Resolver) currentTOut() int64 {
	slices := r.scene.ScreenSlices
	if len(slices) == 0 || r.sliceIndex < 0 || r.sliceIndex >= len(slices) {
		return 0
	}
	return timeline.SourceToOutput(slices, r.sliceIndex, r.media.CurrentTimeMS())
}

// Play transitions to playing and resets the smoother to the current
// source time's raw sample (reset condition 2).
func (r *Resolver) Play() (*FrameState, error) {
	r.playing = true
	r.media.Play()
	r.lastTickAt = r.now()
	return r.tickAt(r.media.CurrentTimeMS(), true)
}

// Pause stops ticking; the last published FrameState remains valid.
func (r *Resolver) Pause() {
	r.playing = false
	r.media.Pause()
}

// Tick advances by the real wall-clock delta since the previous tick.
func (r *Resolver) Tick() (*FrameState, error) {
	start := time.Now()
	telemetry.ResolveCalls.WithLabelValues("tick").Inc()
	defer func() { telemetry.TickDuration.Observe(time.Since(start).Seconds()) }()

	if !r.playing {
		return r.tickAt(r.media.CurrentTimeMS(), false)
	}
	sourceTime := r.media.CurrentTimeMS()
	return r.tickAt(sourceTime, false)
}

func (r *Resolver) tickAt(sourceTime int64, forceReset bool) (*FrameState, error) {
	slices := r.scene.ScreenSlices
	if len(slices) == 0 {
		return nil, editmodel.NewError(editmodel.KindNotFound, "scene has no slices")
	}
	if r.sliceIndex < 0 {
		r.sliceIndex = 0
	}
	crossedBoundary := false
	for r.sliceIndex < len(slices) && sourceTime >= slices[r.sliceIndex].SourceEndMS {
		if r.sliceIndex+1 >= len(slices) {
			r.playing = false
			r.media.Pause()
			fs := r.buildFrameState(sourceTime, 0, true)
			fs.EndOfStream = true
			return fs, nil
		}
		r.sliceIndex++
		sourceTime = slices[r.sliceIndex].SourceStartMS
		r.media.Seek(sourceTime)
		crossedBoundary = true
	}

	wallDT := 0.0
	now := r.now()
	if r.playing && !forceReset && !crossedBoundary {
		wallDT = now.Sub(r.lastTickAt).Seconds()
	}
	r.lastTickAt = now

	fs := r.buildFrameState(sourceTime, wallDT, forceReset || crossedBoundary)
	return fs, nil
}

func (r *Resolver) buildFrameState(sourceTime int64, wallDT float64, forceReset bool) *FrameState {
	slices := r.scene.ScreenSlices
	tOut := timeline.SourceToOutput(slices, r.sliceIndex, sourceTime)
	layout := FindLayoutAt(r.scene.Layouts, tOut)
	renderInfo := ComputeLayoutRect(layout, r.viewport)

	hideCursor := r.sliceIndex < len(slices) && slices[r.sliceIndex].HideCursor
	var pt *SmoothedPoint
	if !hideCursor && r.events != nil {
		disableSmoothing := r.sliceIndex < len(slices) && slices[r.sliceIndex].DisableCursorSmoothing
		pt = r.resolveCursor(sourceTime, wallDT, forceReset, disableSmoothing)
	}

	clicks := r.recentClicks(sourceTime)

	warning := ""
	if NeedsResync(r.audioDriftMS, r.audioDriftThresholdMS) {
		warning = fmt.Sprintf("audio drift %dms exceeds resync threshold %dms", r.audioDriftMS, r.audioDriftThresholdMS)
	}

	return &FrameState{
		TOutMS:       tOut,
		SliceIndex:   r.sliceIndex,
		SourceTimeMS: sourceTime,
		ActiveLayout: renderInfo,
		Cursor:       pt,
		RecentClicks: clicks,
		Warning:      warning,
	}
}

// resolveCursor is the single resolve function the design notes call for
// (spec §9): one function takes (source_time, wall_dt); a paused call
// supplies wall_dt == 0, and a seek, playback start or slice-boundary
// crossing additionally sets forceReset == true.
func (r *Resolver) resolveCursor(sourceTime int64, wallDT float64, forceReset, disableSmoothing bool) *SmoothedPoint {
	sample, ok := r.events.InterpolatedAt(sourceTime)
	if !ok {
		return nil
	}
	if disableSmoothing {
		return &SmoothedPoint{X: sample.X, Y: sample.Y, RawX: sample.X, RawY: sample.Y, CursorID: sample.CursorID}
	}

	var out cursor.Output
	if forceReset {
		out = r.smoother.Reset(sample.X, sample.Y, sample.CursorID)
	} else {
		out = r.smoother.Step(cursor.Point{X: sample.X, Y: sample.Y}, sample.CursorID, wallDT)
	}
	return &SmoothedPoint{X: out.X, Y: out.Y, RawX: out.RawX, RawY: out.RawY, CursorID: out.CursorID}
}

func (r *Resolver) recentClicks(sourceTime int64) []ClickInfo {
	if r.events == nil {
		return nil
	}
	raw := r.events.RecentClicks(sourceTime, r.clickFadeMS)
	out := make([]ClickInfo, len(raw))
	for i, c := range raw {
		out[i] = ClickInfo{X: c.X, Y: c.Y, Button: c.Button, AgeMS: c.AgeMS}
	}
	return out
}

// Seek clamps to [0,total_output_duration], relocates slice_index/source
// time, commands the media clock, force-resets the smoother, and publishes
// a paused-semantics FrameState (no tick advance).
func (r *Resolver) Seek(tOut int64) (*FrameState, error) {
	telemetry.ResolveCalls.WithLabelValues("seek").Inc()
	return r.seekInternal(tOut, true)
}

func (r *Resolver) seekInternal(tOut int64, resetSmoother bool) (*FrameState, error) {
	slices := r.scene.ScreenSlices
	tOut = timeline.ClampOutputTime(slices, tOut)
	i, src := timeline.OutputToSource(slices, tOut)
	if i == -1 {
		return nil, editmodel.NewError(editmodel.KindNotFound, "scene has no slices")
	}
	r.sliceIndex = i
	r.media.Seek(src)
	r.lastTickAt = r.now()
	return r.buildFrameState(src, 0, resetSmoother), nil
}

// StepFrame seeks by one frame duration, derived from the media's reported
// fps, in the given direction (+1 or -1). The frame duration stays in
// float64 until the target output time is formed; rounding to an integer
// ms happens once, at that final boundary, not on the delta itself (spec
// §4.1).
func (r *Resolver) StepFrame(dir int) (*FrameState, error) {
	telemetry.ResolveCalls.WithLabelValues("step_frame").Inc()
	meta := r.media.Metadata()
	fps := meta.FPS
	if fps <= 0 {
		fps = 30
	}
	delta := 1000.0 / fps
	curTOut := r.currentTOut()
	target := int64(math.RoundToEven(float64(curTOut) + float64(dir)*delta))
	return r.seekInternal(target, true)
}
