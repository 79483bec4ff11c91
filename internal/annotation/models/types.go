package models

// ============================================================
// Geometry primitives
// ============================================================

// Point is a placed annotation in image-pixel space. Orientation is an
// angle in degrees, 0 when unset.
type Point struct {
	X           int `json:"x"`
	Y           int `json:"y"`
	Orientation int `json:"orientation"`
}

// BoundingBox is the axis-aligned room outline in pixel space. A nil box
// on the Room means the boundary has not been drawn yet.
type BoundingBox struct {
	Xmin float64 `json:"xmin"`
	Ymin float64 `json:"ymin"`
	Xmax float64 `json:"xmax"`
	Ymax float64 `json:"ymax"`
}

// SpanX returns the boundary width along the image X axis.
func (b BoundingBox) SpanX() float64 { return b.Xmax - b.Xmin }

// SpanY returns the boundary height along the image Y axis.
func (b BoundingBox) SpanY() float64 { return b.Ymax - b.Ymin }

// ============================================================
// Room aggregate
// ============================================================

// Room shapes recognized on import; anything else is coerced to ShapeOther.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
	ShapeOther     = "other"
)

// FurnitureItem is a named object type with zero or more placed positions.
// The code is unique within a room; the model operations enforce that.
type FurnitureItem struct {
	ItemType      string  `json:"item_type"`
	ItemCode      string  `json:"item_code"`
	ItemPositions []Point `json:"item_positions"`
}

// ImageInfo carries the backing image metadata attached to exports.
type ImageInfo struct {
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Room is the root aggregate of one annotated floor plan. Width and Depth
// stay zero in pixel space and are only filled by the physical-unit
// transform at the upload boundary.
type Room struct {
	RoomName   string          `json:"room_name"`
	Purpose    string          `json:"purpose"`
	Shape      string          `json:"shape"`
	Dimensions *BoundingBox    `json:"dimensions"`
	Width      int             `json:"width"`
	Depth      int             `json:"depth"`
	Doors      []Point         `json:"doors"`
	Windows    []Point         `json:"windows"`
	SchoolType string          `json:"school_type"`
	StudentNum int             `json:"student_num"`
	Furniture  []FurnitureItem `json:"furniture"`
	Image      *ImageInfo      `json:"image,omitempty"`
}

// Clone deep-copies the room so that mutations never alias a snapshot
// already handed to an observer.
func (r Room) Clone() Room {
	out := r
	if r.Dimensions != nil {
		box := *r.Dimensions
		out.Dimensions = &box
	}
	if r.Image != nil {
		img := *r.Image
		out.Image = &img
	}
	out.Doors = append([]Point(nil), r.Doors...)
	out.Windows = append([]Point(nil), r.Windows...)
	out.Furniture = make([]FurnitureItem, len(r.Furniture))
	for i, f := range r.Furniture {
		f.ItemPositions = append([]Point(nil), f.ItemPositions...)
		out.Furniture[i] = f
	}
	return out
}

// FindFurniture returns the index of the item with the given code, -1 if
// no such item exists.
func (r Room) FindFurniture(code string) int {
	for i, f := range r.Furniture {
		if f.ItemCode == code {
			return i
		}
	}
	return -1
}

// NormalizeShape coerces unknown shape tags to ShapeOther.
func NormalizeShape(shape string) string {
	switch shape {
	case ShapeRectangle, ShapeCircle:
		return shape
	default:
		return ShapeOther
	}
}
