package resolver

import (
	"sort"

	"github.com/oliwoli/castcut/internal/editmodel"
)

// innerGapPx is the small gap between the two halves of a side-by-side
// layout (spec §4.5 step 4; value derived from Scenario E's worked example:
// a 1600px-wide viewport yields two 796px halves, i.e. an 8px gap).
const innerGapPx = 8

// cameraPaddingPx is the fixed padding screen-with-camera clamps the
// camera rect's center within (spec §4.5 step 4).
const cameraPaddingPx = 16

// Rect is an axis-aligned rectangle in viewport pixels.
type Rect struct {
	X, Y, W, H float64
}

// LayoutRenderInfo is what the Resolver publishes per tick describing the
// active composition.
type LayoutRenderInfo struct {
	Type          editmodel.LayoutType
	ScreenRect    Rect
	CameraRect    Rect
	ScreenVisible bool
	CameraVisible bool
}

// FindLayoutAt returns the layout covering output time t (half-open
// intervals: [start, end)). Layouts are contiguous and sorted by
// construction (invariant S2), so a binary search suffices.
func FindLayoutAt(layouts []editmodel.Layout, t int64) editmodel.Layout {
	if len(layouts) == 0 {
		return editmodel.Layout{Type: editmodel.LayoutScreenOnly}
	}
	i := sort.Search(len(layouts), func(i int) bool { return layouts[i].EndMS > t })
	if i >= len(layouts) {
		i = len(layouts) - 1
	}
	return layouts[i]
}

// ComputeLayoutRect computes the screen/camera rects for one layout over a
// viewport, per the four cases in spec §4.5 step 4.
func ComputeLayoutRect(layout editmodel.Layout, vp Viewport) LayoutRenderInfo {
	vw, vh := vp.Width, vp.Height
	info := LayoutRenderInfo{Type: layout.Type}

	switch layout.Type {
	case editmodel.LayoutCameraOnly:
		info.CameraVisible = true
		info.CameraRect = Rect{X: 0, Y: 0, W: vw, H: vh}

	case editmodel.LayoutSideBySide:
		info.ScreenVisible = true
		info.CameraVisible = true
		halfW := (vw - innerGapPx) / 2
		info.ScreenRect = Rect{X: 0, Y: 0, W: halfW, H: vh}
		info.CameraRect = Rect{X: halfW + innerGapPx, Y: 0, W: halfW, H: vh}

	case editmodel.LayoutScreenWithCamera:
		info.ScreenVisible = true
		info.CameraVisible = true
		info.ScreenRect = Rect{X: 0, Y: 0, W: vw, H: vh}
		info.CameraRect = screenWithCameraRect(layout, vp)

	case editmodel.LayoutScreenOnly:
		fallthrough
	default:
		info.ScreenVisible = true
		info.ScreenRect = Rect{X: 0, Y: 0, W: vw, H: vh}
	}
	return info
}

func screenWithCameraRect(layout editmodel.Layout, vp Viewport) Rect {
	vw, vh := vp.Width, vp.Height
	camSize := layout.CameraSize
	if camSize <= 0 {
		camSize = 0.28
	}
	camW := camSize * vw
	camH := camW / vp.CameraAspect

	centerX := layout.CameraPosition[0] * vw
	centerY := layout.CameraPosition[1] * vh
	x := centerX - camW/2
	y := centerY - camH/2

	x = clamp(x, cameraPaddingPx, vw-cameraPaddingPx-camW)
	y = clamp(y, cameraPaddingPx, vh-cameraPaddingPx-camH)

	return Rect{X: x, Y: y, W: camW, H: camH}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
