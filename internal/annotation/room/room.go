package room

import (
	"fmt"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// Room update operations
// ============================================================
//
// Every operation takes a Room value and returns a fresh deep copy with
// the edit applied. Callers replace their snapshot wholesale, so no
// observer ever sees a partially applied edit.

// Kinds of indexed position sequences a room owns.
const (
	KindDoor      = "door"
	KindWindow    = "window"
	KindFurniture = "furniture"
)

// New returns the all-default room created implicitly on the first
// add-furniture action.
func New() models.Room {
	return models.Room{
		RoomName:   "New Room",
		Purpose:    "unknown",
		Shape:      models.ShapeRectangle,
		Dimensions: nil,
		Doors:      []models.Point{},
		Windows:    []models.Point{},
		SchoolType: "unknown",
		StudentNum: 0,
		Furniture:  []models.FurnitureItem{},
		Image:      &models.ImageInfo{},
	}
}

// AddFurniture appends a new furniture item with no positions. The code
// must be non-empty and unique within the room.
func AddFurniture(r models.Room, itemType, code string) (models.Room, error) {
	if code == "" {
		return r, fmt.Errorf("%w: furniture code", models.ErrMissingRequiredField)
	}
	if r.FindFurniture(code) >= 0 {
		return r, fmt.Errorf("%w: %q", models.ErrDuplicateCode, code)
	}
	out := r.Clone()
	out.Furniture = append(out.Furniture, models.FurnitureItem{
		ItemType:      itemType,
		ItemCode:      code,
		ItemPositions: []models.Point{},
	})
	return out, nil
}

// RenameFurniture changes the type and code of the item at index. The new
// code is checked against the other items only; renaming an item to its
// own current code is allowed.
func RenameFurniture(r models.Room, index int, newType, newCode string) (models.Room, error) {
	if index < 0 || index >= len(r.Furniture) {
		return r, fmt.Errorf("%w: furniture index %d", models.ErrStaleTarget, index)
	}
	if newCode == "" {
		return r, fmt.Errorf("%w: furniture code", models.ErrMissingRequiredField)
	}
	if existing := r.FindFurniture(newCode); existing >= 0 && existing != index {
		return r, fmt.Errorf("%w: %q", models.ErrDuplicateCode, newCode)
	}
	out := r.Clone()
	if newType != "" {
		out.Furniture[index].ItemType = newType
	}
	out.Furniture[index].ItemCode = newCode
	return out, nil
}

// RemoveFurniture deletes the item with the given code together with all
// of its positions. The second return reports whether the code existed.
func RemoveFurniture(r models.Room, code string) (models.Room, bool) {
	index := r.FindFurniture(code)
	if index < 0 {
		return r, false
	}
	out := r.Clone()
	out.Furniture = append(out.Furniture[:index], out.Furniture[index+1:]...)
	return out, true
}

// AppendFurniturePosition places one point for the item with the given
// code. A vanished code yields ErrStaleTarget and no mutation.
func AppendFurniturePosition(r models.Room, code string, p models.Point) (models.Room, error) {
	index := r.FindFurniture(code)
	if index < 0 {
		return r, fmt.Errorf("%w: furniture %q", models.ErrStaleTarget, code)
	}
	out := r.Clone()
	out.Furniture[index].ItemPositions = append(out.Furniture[index].ItemPositions, p)
	return out, nil
}

// AppendOpening places one door or window point.
func AppendOpening(r models.Room, kind string, p models.Point) (models.Room, error) {
	out := r.Clone()
	switch kind {
	case KindDoor:
		out.Doors = append(out.Doors, p)
	case KindWindow:
		out.Windows = append(out.Windows, p)
	default:
		return r, fmt.Errorf("%w: opening kind %q", models.ErrStaleTarget, kind)
	}
	return out, nil
}

// RemovePosition deletes one entry from an indexed sequence: a furniture
// position (itemIndex selects the item), a door, or a window.
func RemovePosition(r models.Room, kind string, itemIndex, posIndex int) (models.Room, error) {
	out := r.Clone()
	switch kind {
	case KindFurniture:
		if itemIndex < 0 || itemIndex >= len(out.Furniture) {
			return r, fmt.Errorf("%w: furniture index %d", models.ErrStaleTarget, itemIndex)
		}
		positions := out.Furniture[itemIndex].ItemPositions
		if posIndex < 0 || posIndex >= len(positions) {
			return r, fmt.Errorf("%w: position index %d", models.ErrStaleTarget, posIndex)
		}
		out.Furniture[itemIndex].ItemPositions = append(positions[:posIndex], positions[posIndex+1:]...)
	case KindDoor:
		if posIndex < 0 || posIndex >= len(out.Doors) {
			return r, fmt.Errorf("%w: door index %d", models.ErrStaleTarget, posIndex)
		}
		out.Doors = append(out.Doors[:posIndex], out.Doors[posIndex+1:]...)
	case KindWindow:
		if posIndex < 0 || posIndex >= len(out.Windows) {
			return r, fmt.Errorf("%w: window index %d", models.ErrStaleTarget, posIndex)
		}
		out.Windows = append(out.Windows[:posIndex], out.Windows[posIndex+1:]...)
	default:
		return r, fmt.Errorf("%w: kind %q", models.ErrStaleTarget, kind)
	}
	return out, nil
}

// SetBoundary commits a drawn boundary box.
func SetBoundary(r models.Room, box models.BoundingBox) models.Room {
	out := r.Clone()
	out.Dimensions = &box
	return out
}

// ClearBoundary resets the boundary to undrawn. The room itself survives.
func ClearBoundary(r models.Room) models.Room {
	out := r.Clone()
	out.Dimensions = nil
	return out
}

// SetName updates the room name.
func SetName(r models.Room, name string) models.Room {
	out := r.Clone()
	out.RoomName = name
	return out
}

// SetShape updates the shape tag, coercing unknown values to "other".
func SetShape(r models.Room, shape string) models.Room {
	out := r.Clone()
	out.Shape = models.NormalizeShape(shape)
	return out
}

// SetSchoolType updates the school-type selection required for upload.
func SetSchoolType(r models.Room, schoolType string) models.Room {
	out := r.Clone()
	out.SchoolType = schoolType
	return out
}
