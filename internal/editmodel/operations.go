package editmodel

import (
	"sort"

	"github.com/oliwoli/castcut/internal/telemetry"
	"github.com/oliwoli/castcut/internal/timeline"
)

// recordMutation reports one edit.* mutation's outcome to
// telemetry.EditMutations, so InvariantViolation/NotFound refusal rates are
// observable per operation (spec §7's error taxonomy applied as a metric).
func recordMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "refused"
	}
	telemetry.EditMutations.WithLabelValues(op, outcome).Inc()
}

func (e *Engine) snapshotOrErr() (*Project, error) {
	p := e.Snapshot()
	if p == nil {
		return nil, newErr(KindNotFound, "no project loaded")
	}
	return p, nil
}

func spliceOne(slices []Slice, idx int, replacement ...Slice) []Slice {
	out := make([]Slice, 0, len(slices)-1+len(replacement))
	out = append(out, slices[:idx]...)
	out = append(out, replacement...)
	out = append(out, slices[idx+1:]...)
	return out
}

// SplitAllTracksAt implements the split_all_tracks_at operation (spec §4.2).
// It locates the clip covering t_out on the screen track, derives the
// matching index on the camera track (the two are positionally linked),
// and replaces the slice at that index with two slices on BOTH tracks.
func (e *Engine) SplitAllTracksAt(sceneID string, tOut int64) (proj *Project, err error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer func() { recordMutation("split_all_tracks_at", err) }()

	p, err := e.snapshotOrErr()
	if err != nil {
		return nil, err
	}
	idx, ok := findSceneIndex(p, sceneID)
	if !ok {
		return nil, newErr(KindNotFound, "scene %s not found", sceneID)
	}
	scene := p.Scenes[idx]

	total := scene.TotalOutputDurationMS()
	if tOut < 0 || tOut > total {
		return nil, newErr(KindOutOfRange, "split time %dms outside [0,%d]", tOut, total)
	}

	screenIdx, screenSrc := timeline.OutputToSource(scene.ScreenSlices, tOut)
	cameraIdx, cameraSrc := timeline.OutputToSource(scene.CameraSlices, tOut)
	if screenIdx == -1 || cameraIdx == -1 {
		return nil, newErr(KindNotFound, "no clip covers t_out=%d", tOut)
	}
	if screenIdx != cameraIdx {
		return nil, newErr(KindInvariantViolation, "track linking broken: screen clip %d, camera clip %d", screenIdx, cameraIdx)
	}

	splitAt := func(slices []Slice, clipIdx int, srcAtSplit int64) (Slice, Slice, error) {
		s := slices[clipIdx]
		lo := s.SourceStartMS + timeline.MinSliceMS
		hi := s.SourceEndMS - timeline.MinSliceMS
		if srcAtSplit < lo || srcAtSplit > hi {
			return Slice{}, Slice{}, newErr(KindInvariantViolation,
				"split at %dms would leave a slice shorter than MIN_SLICE_MS on clip %d", srcAtSplit, clipIdx)
		}
		s1, s2 := s, s
		s1.ID, s2.ID = newID(), newID()
		s1.SourceEndMS = srcAtSplit
		s2.SourceStartMS = srcAtSplit
		return s1, s2, nil
	}

	screenA, screenB, err := splitAt(scene.ScreenSlices, screenIdx, screenSrc)
	if err != nil {
		return nil, err
	}
	cameraA, cameraB, err := splitAt(scene.CameraSlices, cameraIdx, cameraSrc)
	if err != nil {
		return nil, err
	}

	next := scene.shallowCopy()
	next.ScreenSlices = spliceOne(scene.ScreenSlices, screenIdx, screenA, screenB)
	next.CameraSlices = spliceOne(scene.CameraSlices, cameraIdx, cameraA, cameraB)
	// Splitting does not change total output duration, so layouts are untouched.

	if err := validateScene(next); err != nil {
		return nil, err
	}
	proj = replaceScene(p, idx, next)
	e.publish(proj)
	return proj, nil
}

// RemoveClip removes the clip (by any slice ID on either track) positionally
// from both tracks, ripples subsequent layouts left by the removed clip's
// output duration, and refuses if either track would become empty.
func (e *Engine) RemoveClip(sceneID, anySliceID string) (proj *Project, err error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer func() { recordMutation("remove_clip", err) }()

	p, err := e.snapshotOrErr()
	if err != nil {
		return nil, err
	}
	sceneIdx, ok := findSceneIndex(p, sceneID)
	if !ok {
		return nil, newErr(KindNotFound, "scene %s not found", sceneID)
	}
	scene := p.Scenes[sceneIdx]

	clipIdx := indexOfSlice(scene.ScreenSlices, anySliceID)
	if clipIdx == -1 {
		clipIdx = indexOfSlice(scene.CameraSlices, anySliceID)
	}
	if clipIdx == -1 {
		return nil, newErr(KindNotFound, "slice %s not found in scene %s", anySliceID, sceneID)
	}
	if len(scene.ScreenSlices) <= 1 {
		return nil, newErr(KindInvariantViolation, "removing this clip would leave a track empty")
	}

	screenInfos := timeline.RenderInfos(scene.ScreenSlices)
	remStart, remEnd := screenInfos[clipIdx].OutputStartMS, screenInfos[clipIdx].OutputEndMS

	next := scene.shallowCopy()
	next.ScreenSlices = append(scene.ScreenSlices[:clipIdx:clipIdx], scene.ScreenSlices[clipIdx+1:]...)
	next.CameraSlices = append(scene.CameraSlices[:clipIdx:clipIdx], scene.CameraSlices[clipIdx+1:]...)
	newTotal := next.TotalOutputDurationMS()
	next.Layouts = repairLayoutsRipple(rippleAdjust(scene.Layouts, remStart, remEnd, remStart), newTotal)

	if err := validateScene(next); err != nil {
		return nil, err
	}
	proj = replaceScene(p, sceneIdx, next)
	e.publish(proj)
	return proj, nil
}

func indexOfSlice(slices []Slice, id string) int {
	for i, s := range slices {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// SlicePatch is the mutable subset of a Slice that UpdateSlice may change.
type SlicePatch struct {
	SourceStartMS          *int64
	SourceEndMS            *int64
	TimeScale              *float64
	Volume                 *float64
	HideCursor             *bool
	DisableCursorSmoothing *bool
}

// Track selects which per-scene track an operation targets.
type Track int

const (
	TrackScreen Track = iota
	TrackCamera
)

// UpdateSlice applies a trim patch to one slice on one track. It does NOT
// re-link tracks — trims act per-track (spec §4.2) — but refuses if the
// result violates S1.
func (e *Engine) UpdateSlice(sceneID string, track Track, sliceID string, patch SlicePatch) (proj *Project, err error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer func() { recordMutation("update_slice", err) }()

	p, err := e.snapshotOrErr()
	if err != nil {
		return nil, err
	}
	sceneIdx, ok := findSceneIndex(p, sceneID)
	if !ok {
		return nil, newErr(KindNotFound, "scene %s not found", sceneID)
	}
	scene := p.Scenes[sceneIdx]

	slices := scene.ScreenSlices
	if track == TrackCamera {
		slices = scene.CameraSlices
	}
	idx := indexOfSlice(slices, sliceID)
	if idx == -1 {
		return nil, newErr(KindNotFound, "slice %s not found on track", sliceID)
	}

	before := timeline.RenderInfos(slices)[idx]
	oldDur := before.OutputDurationMS

	patched := slices[idx]
	if patch.SourceStartMS != nil {
		patched.SourceStartMS = *patch.SourceStartMS
	}
	if patch.SourceEndMS != nil {
		patched.SourceEndMS = *patch.SourceEndMS
	}
	if patch.TimeScale != nil {
		patched.TimeScale = *patch.TimeScale
	}
	if patch.Volume != nil {
		patched.Volume = *patch.Volume
	}
	if patch.HideCursor != nil {
		patched.HideCursor = *patch.HideCursor
	}
	if patch.DisableCursorSmoothing != nil {
		patched.DisableCursorSmoothing = *patch.DisableCursorSmoothing
	}
	if err := validateSlice(patched); err != nil {
		return nil, err
	}

	newSlices := append(append([]Slice(nil), slices[:idx]...), patched)
	newSlices = append(newSlices, slices[idx+1:]...)

	next := scene.shallowCopy()
	if track == TrackScreen {
		next.ScreenSlices = newSlices
		newDur := timeline.RenderInfos(newSlices)[idx].OutputDurationMS
		if newDur != oldDur {
			rangeStart := before.OutputStartMS
			newTotal := next.TotalOutputDurationMS()
			next.Layouts = repairLayoutsRipple(rippleAdjust(scene.Layouts, rangeStart, before.OutputEndMS, rangeStart+newDur), newTotal)
		}
	} else {
		next.CameraSlices = newSlices
	}

	// Trims are per-track and deliberately do not re-validate track linking.
	for _, s := range next.ScreenSlices {
		if err := validateSlice(s); err != nil {
			return nil, err
		}
	}
	for _, s := range next.CameraSlices {
		if err := validateSlice(s); err != nil {
			return nil, err
		}
	}
	if err := validateLayouts(next.Layouts, next.TotalOutputDurationMS()); err != nil {
		return nil, err
	}

	proj = replaceScene(p, sceneIdx, next)
	e.publish(proj)
	return proj, nil
}

// Reorder moves a slice positionally within one track.
func (e *Engine) Reorder(sceneID string, track Track, from, to int) (proj *Project, err error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer func() { recordMutation("reorder", err) }()

	p, err := e.snapshotOrErr()
	if err != nil {
		return nil, err
	}
	sceneIdx, ok := findSceneIndex(p, sceneID)
	if !ok {
		return nil, newErr(KindNotFound, "scene %s not found", sceneID)
	}
	scene := p.Scenes[sceneIdx]

	slices := scene.ScreenSlices
	if track == TrackCamera {
		slices = scene.CameraSlices
	}
	if from < 0 || from >= len(slices) || to < 0 || to >= len(slices) {
		return nil, newErr(KindOutOfRange, "reorder indices [%d -> %d] out of range for %d slices", from, to, len(slices))
	}

	reordered := append([]Slice(nil), slices...)
	moved := reordered[from]
	reordered = append(reordered[:from], reordered[from+1:]...)
	tail := append([]Slice{moved}, reordered[to:]...)
	reordered = append(reordered[:to], tail...)

	next := scene.shallowCopy()
	if track == TrackScreen {
		next.ScreenSlices = reordered
	} else {
		next.CameraSlices = reordered
	}
	proj = replaceScene(p, sceneIdx, next)
	e.publish(proj)
	return proj, nil
}

// --- Layout operations -----------------------------------------------

// AddLayout inserts a new layout and repairs S2.
func (e *Engine) AddLayout(sceneID string, layout Layout) (*Project, error) {
	return e.editLayouts("add_layout", sceneID, func(layouts []Layout) ([]Layout, error) {
		if layout.ID == "" {
			layout.ID = newID()
		}
		return append(append([]Layout(nil), layouts...), layout), nil
	})
}

// LayoutPatch is the mutable subset of a Layout that UpdateLayout may change.
type LayoutPatch struct {
	StartMS        *int64
	EndMS          *int64
	Type           *LayoutType
	CameraSize     *float64
	CameraPosition *[2]float64
}

// UpdateLayout applies a patch to an existing layout and repairs S2.
func (e *Engine) UpdateLayout(sceneID, layoutID string, patch LayoutPatch) (*Project, error) {
	return e.editLayouts("update_layout", sceneID, func(layouts []Layout) ([]Layout, error) {
		out := append([]Layout(nil), layouts...)
		idx := -1
		for i, l := range out {
			if l.ID == layoutID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, newErr(KindNotFound, "layout %s not found", layoutID)
		}
		l := out[idx]
		if patch.StartMS != nil {
			l.StartMS = *patch.StartMS
		}
		if patch.EndMS != nil {
			l.EndMS = *patch.EndMS
		}
		if patch.Type != nil {
			l.Type = *patch.Type
		}
		if patch.CameraSize != nil {
			l.CameraSize = *patch.CameraSize
		}
		if patch.CameraPosition != nil {
			l.CameraPosition = *patch.CameraPosition
		}
		out[idx] = l
		return out, nil
	})
}

// RemoveLayout deletes a layout and repairs S2 by extending neighbours.
func (e *Engine) RemoveLayout(sceneID, layoutID string) (*Project, error) {
	return e.editLayouts("remove_layout", sceneID, func(layouts []Layout) ([]Layout, error) {
		out := make([]Layout, 0, len(layouts))
		found := false
		for _, l := range layouts {
			if l.ID == layoutID {
				found = true
				continue
			}
			out = append(out, l)
		}
		if !found {
			return nil, newErr(KindNotFound, "layout %s not found", layoutID)
		}
		return out, nil
	})
}

// SplitLayout splits one layout into two at atMS (output time), refusing if
// either resulting half would be shorter than MIN_LAYOUT_MS.
func (e *Engine) SplitLayout(sceneID, layoutID string, atMS int64) (*Project, error) {
	return e.editLayouts("split_layout", sceneID, func(layouts []Layout) ([]Layout, error) {
		out := make([]Layout, 0, len(layouts)+1)
		found := false
		for _, l := range layouts {
			if l.ID != layoutID {
				out = append(out, l)
				continue
			}
			found = true
			if atMS-l.StartMS < MinLayoutMS || l.EndMS-atMS < MinLayoutMS {
				return nil, newErr(KindInvariantViolation, "split at %d would create a layout shorter than MIN_LAYOUT_MS", atMS)
			}
			a, b := l, l
			a.ID, b.ID = newID(), newID()
			a.EndMS = atMS
			b.StartMS = atMS
			out = append(out, a, b)
		}
		if !found {
			return nil, newErr(KindNotFound, "layout %s not found", layoutID)
		}
		return out, nil
	})
}

// editLayouts is the shared plumbing for the four layout operations: fetch
// the scene, apply the pure transform, re-sort, repair S2 (refusing rather
// than silently merging if repair would violate MIN_LAYOUT_MS), validate,
// publish.
func (e *Engine) editLayouts(op, sceneID string, transform func([]Layout) ([]Layout, error)) (proj *Project, err error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer func() { recordMutation(op, err) }()

	p, err := e.snapshotOrErr()
	if err != nil {
		return nil, err
	}
	sceneIdx, ok := findSceneIndex(p, sceneID)
	if !ok {
		return nil, newErr(KindNotFound, "scene %s not found", sceneID)
	}
	scene := p.Scenes[sceneIdx]

	layouts, err := transform(scene.Layouts)
	if err != nil {
		return nil, err
	}
	repaired, err := repairLayoutsContiguous(layouts, scene.TotalOutputDurationMS())
	if err != nil {
		return nil, err
	}

	next := scene.shallowCopy()
	next.Layouts = repaired
	if err := validateLayouts(next.Layouts, next.TotalOutputDurationMS()); err != nil {
		return nil, err
	}

	proj = replaceScene(p, sceneIdx, next)
	e.publish(proj)
	return proj, nil
}

// repairLayoutsContiguous forces the layout list into a contiguous cover of
// [0,total] by extending neighbours across gaps and clipping the earlier
// neighbour across overlaps, refusing if any resulting layout would fall
// below MIN_LAYOUT_MS (spec §4.2: "...clipping or refusing...").
func repairLayoutsContiguous(layouts []Layout, total int64) ([]Layout, error) {
	if len(layouts) == 0 {
		if total == 0 {
			return layouts, nil
		}
		return nil, newErr(KindInvariantViolation, "no layouts remain to cover total_output_duration=%d", total)
	}
	out := append([]Layout(nil), layouts...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartMS < out[j].StartMS })
	out[0].StartMS = 0
	for i := 1; i < len(out); i++ {
		if out[i].StartMS != out[i-1].EndMS {
			out[i-1].EndMS = out[i].StartMS
		}
	}
	out[len(out)-1].EndMS = total
	for _, l := range out {
		if l.DurationMS() < MinLayoutMS {
			return nil, newErr(KindInvariantViolation, "layout %s would be %dms after repair, below MIN_LAYOUT_MS", l.ID, l.DurationMS())
		}
	}
	return out, nil
}

// rippleAdjust is used when a slice-track mutation (split/remove/trim)
// changes total_output_duration: the interval [rangeStart,rangeOldEnd) on
// the output timeline is replaced by one of length rangeNewEnd-rangeStart.
// Boundaries before the range are untouched; boundaries at or after the old
// end shift by the delta; boundaries strictly inside the replaced range
// collapse to its new end, since their original content no longer exists.
// This ripple behavior is not specified for slice ops in spec §4.2 (only
// explicit layout operations describe S2 repair); we extend the same
// "repair, don't refuse" policy here since refusing every edit that
// shortens a scene would make trimming unusable. See DESIGN.md.
func rippleAdjust(layouts []Layout, rangeStart, rangeOldEnd, rangeNewEnd int64) []Layout {
	delta := rangeNewEnd - rangeOldEnd
	mapPt := func(x int64) int64 {
		switch {
		case x <= rangeStart:
			return x
		case x >= rangeOldEnd:
			return x + delta
		default:
			return rangeNewEnd
		}
	}
	out := make([]Layout, 0, len(layouts))
	for _, l := range layouts {
		nl := l
		nl.StartMS = mapPt(l.StartMS)
		nl.EndMS = mapPt(l.EndMS)
		if nl.EndMS > nl.StartMS {
			out = append(out, nl)
		}
	}
	return out
}

// repairLayoutsRipple restores contiguity/coverage after rippleAdjust,
// merging any fragment left shorter than MIN_LAYOUT_MS into its neighbour
// instead of refusing (see rippleAdjust doc).
func repairLayoutsRipple(layouts []Layout, total int64) []Layout {
	if len(layouts) == 0 {
		if total <= 0 {
			return nil
		}
		return []Layout{{ID: newID(), StartMS: 0, EndMS: total, Type: LayoutScreenOnly, CameraSize: 1}}
	}
	out := append([]Layout(nil), layouts...)
	out[0].StartMS = 0
	out[len(out)-1].EndMS = total
	for i := 1; i < len(out); i++ {
		out[i].StartMS = out[i-1].EndMS
	}
	changed := true
	for changed && len(out) > 1 {
		changed = false
		for i, l := range out {
			if l.DurationMS() < MinLayoutMS {
				if i == 0 {
					out[1].StartMS = out[0].StartMS
				} else {
					out[i-1].EndMS = l.EndMS
				}
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}
