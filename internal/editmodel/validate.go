package editmodel

import "github.com/oliwoli/castcut/internal/timeline"

// validateSlice checks invariant S1 for a single slice.
func validateSlice(s Slice) error {
	if s.SourceStartMS < 0 {
		return newErr(KindInvariantViolation, "slice %s: source_start_ms %d < 0", s.ID, s.SourceStartMS)
	}
	if s.SourceEndMS-s.SourceStartMS < timeline.MinSliceMS {
		return newErr(KindInvariantViolation, "slice %s: duration %dms below MIN_SLICE_MS", s.ID, s.SourceEndMS-s.SourceStartMS)
	}
	if s.TimeScale <= 0 {
		return newErr(KindInvariantViolation, "slice %s: time_scale %v must be > 0", s.ID, s.TimeScale)
	}
	return nil
}

// validateTrackLinking checks invariant L: equal length and, for every
// position, equal OUTPUT duration between the two tracks.
func validateTrackLinking(screen, camera []Slice) error {
	if len(screen) != len(camera) {
		return newErr(KindInvariantViolation, "track linking: screen has %d slices, camera has %d", len(screen), len(camera))
	}
	screenInfos := timeline.RenderInfos(screen)
	cameraInfos := timeline.RenderInfos(camera)
	for i := range screenInfos {
		if screenInfos[i].OutputDurationMS != cameraInfos[i].OutputDurationMS {
			return newErr(KindInvariantViolation,
				"track linking: clip %d output duration mismatch (screen=%dms camera=%dms)",
				i, screenInfos[i].OutputDurationMS, cameraInfos[i].OutputDurationMS)
		}
	}
	return nil
}

// validateLayouts checks invariant S2: contiguous, non-overlapping,
// covering [0, total], each at least MinLayoutMS long.
func validateLayouts(layouts []Layout, total int64) error {
	if len(layouts) == 0 {
		if total == 0 {
			return nil
		}
		return newErr(KindInvariantViolation, "layouts: empty but total_output_duration=%d", total)
	}
	if layouts[0].StartMS != 0 {
		return newErr(KindInvariantViolation, "layouts: first layout starts at %d, not 0", layouts[0].StartMS)
	}
	for i, l := range layouts {
		if l.DurationMS() < MinLayoutMS {
			return newErr(KindInvariantViolation, "layout %s: duration %dms below MIN_LAYOUT_MS", l.ID, l.DurationMS())
		}
		if i > 0 && l.StartMS != layouts[i-1].EndMS {
			return newErr(KindInvariantViolation, "layouts: gap/overlap between layout %d (end=%d) and %d (start=%d)",
				i-1, layouts[i-1].EndMS, i, l.StartMS)
		}
	}
	if last := layouts[len(layouts)-1]; last.EndMS != total {
		return newErr(KindInvariantViolation, "layouts: last layout ends at %d, total_output_duration is %d", last.EndMS, total)
	}
	return nil
}

func validateScene(s Scene) error {
	for _, sl := range s.ScreenSlices {
		if err := validateSlice(sl); err != nil {
			return err
		}
	}
	for _, sl := range s.CameraSlices {
		if err := validateSlice(sl); err != nil {
			return err
		}
	}
	if err := validateTrackLinking(s.ScreenSlices, s.CameraSlices); err != nil {
		return err
	}
	return validateLayouts(s.Layouts, s.TotalOutputDurationMS())
}
