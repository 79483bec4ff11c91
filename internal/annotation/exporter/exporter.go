package exporter

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"room-annotator/internal/annotation/geometry"
	"room-annotator/internal/annotation/models"
)

// ============================================================
// Export / upload transform
// ============================================================

// FileName builds the timestamped download name for a plain export.
func FileName(roomName string, now time.Time) string {
	if roomName == "" {
		roomName = "image"
	}
	return fmt.Sprintf("%s_%s.json", roomName, now.Format("20060102_150405"))
}

// ExportFile serializes the room as-is, in pixel space, wrapped in the
// one-element array envelope and annotated with the active image's
// filename and dimensions. No coordinate transform is applied.
func ExportFile(r models.Room, img models.ImageInfo, now time.Time) (string, []byte, error) {
	out := r.Clone()
	out.Image = &models.ImageInfo{
		Filename: img.Filename,
		Width:    img.Width,
		Height:   img.Height,
	}

	data, err := json.MarshalIndent([]models.Room{out}, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal export: %w", err)
	}
	return FileName(r.RoomName, now), data, nil
}

// PhysicalRoom rescales the pixel-space room into the physical unit
// system relative to its boundary box. The transform is one-directional:
// the caller keeps the pixel-space room as the source of truth and only
// sends the result to the backend.
//
// Image X spans become physical depth and image Y spans become physical
// width; the axes are intentionally swapped.
func PhysicalRoom(r models.Room, factor float64) (models.Room, error) {
	if r.SchoolType == "" || r.SchoolType == "unset" || r.SchoolType == "unknown" {
		return models.Room{}, fmt.Errorf("%w: school_type", models.ErrMissingRequiredField)
	}
	box := r.Dimensions
	if box == nil || (box.SpanX() == 0 && box.SpanY() == 0) {
		return models.Room{}, fmt.Errorf("%w: room boundary", models.ErrMissingRequiredField)
	}

	out := r.Clone()
	out.Width = int(math.Round(box.SpanY() * factor))
	out.Depth = int(math.Round(box.SpanX() * factor))
	out.Dimensions = &models.BoundingBox{
		Xmin: 0,
		Ymin: 0,
		Xmax: float64(out.Depth),
		Ymax: float64(out.Width),
	}
	out.Doors = physicalPoints(r.Doors, *box, factor)
	out.Windows = physicalPoints(r.Windows, *box, factor)
	for i, f := range out.Furniture {
		out.Furniture[i].ItemPositions = physicalPoints(f.ItemPositions, *box, factor)
	}
	return out, nil
}

// physicalPoints remaps each point axis-independently, clamped to the
// boundary span before scaling.
func physicalPoints(points []models.Point, box models.BoundingBox, factor float64) []models.Point {
	out := make([]models.Point, 0, len(points))
	for _, p := range points {
		out = append(out, models.Point{
			X:           geometry.ToPhysical(float64(p.X), box.Xmin, box.SpanX(), factor),
			Y:           geometry.ToPhysical(float64(p.Y), box.Ymin, box.SpanY(), factor),
			Orientation: p.Orientation,
		})
	}
	return out
}
