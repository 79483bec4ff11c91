package geometry

import (
	"math"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// Coordinate transforms
// ============================================================

// Zoom scale limits exposed by the editor.
const (
	MinScale = 0.5
	MaxScale = 2.0
)

// DefaultPixelToMM is the fixed pixel-to-millimeter factor applied by the
// physical-unit transform unless the configuration overrides it.
const DefaultPixelToMM = 17.12

// ClampScale snaps a requested zoom factor into the supported range.
func ClampScale(scale float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, scale))
}

// ToImageSpace maps a pointer position under the given zoom scale to
// image-pixel coordinates. Rounding is nearest-integer so zoom round-trips
// stay close to the original pixel. No clamping to image bounds happens
// here; that is enforced later by the state machine and by export.
func ToImageSpace(pointerX, pointerY, scale float64) models.Point {
	return models.Point{
		X: int(math.Round(pointerX / scale)),
		Y: int(math.Round(pointerY / scale)),
	}
}

// ToPhysical maps one pixel-space coordinate into the physical unit
// system relative to the boundary origin on that axis. The coordinate is
// clamped to [0, span] before scaling, so out-of-boundary points collapse
// to the boundary edge rather than overshoot in physical units.
func ToPhysical(pixel, origin, span, factor float64) int {
	rel := pixel - origin
	if rel < 0 {
		rel = 0
	}
	if rel > span {
		rel = span
	}
	return int(math.Floor(rel * factor))
}

// BoundsFromDrag builds the boundary box from the two drag corners. The
// result is independent of which corner the drag started from.
func BoundsFromDrag(a, b models.Point) models.BoundingBox {
	return models.BoundingBox{
		Xmin: float64(min(a.X, b.X)),
		Ymin: float64(min(a.Y, b.Y)),
		Xmax: float64(max(a.X, b.X)),
		Ymax: float64(max(a.Y, b.Y)),
	}
}
