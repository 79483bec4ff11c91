package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// Import validator / normalizer
// ============================================================
//
// Accepts an externally supplied JSON array of room records, repairs what
// can be repaired (shape tags, missing collections), and rejects the rest.
// Past the duplicate-code confirmation the import is all-or-nothing: any
// geometry or furniture violation leaves the session untouched.

// SchemaVariant selects the wire format the validator expects. The legacy
// variant carries quantity counters kept in lockstep with tuple position
// arrays; the current variant derives counts from the arrays themselves.
type SchemaVariant string

const (
	VariantCurrent SchemaVariant = "current"
	VariantLegacy  SchemaVariant = "legacy"
)

// ParseVariant maps a configuration string to a schema variant, falling
// back to the current one.
func ParseVariant(s string) SchemaVariant {
	if SchemaVariant(s) == VariantLegacy {
		return VariantLegacy
	}
	return VariantCurrent
}

type Importer struct {
	variant     SchemaVariant
	imageWidth  float64
	imageHeight float64
}

// New builds an importer validating against the given reference image
// dimensions. Zero dimensions mean no image is loaded yet; the record's
// own image metadata is used instead.
func New(variant SchemaVariant, imageWidth, imageHeight float64) *Importer {
	return &Importer{variant: variant, imageWidth: imageWidth, imageHeight: imageHeight}
}

// Result is a successfully normalized import. Codes is the replacement
// for the session's known furniture code set. Duplicates is only filled
// when the record contains colliding codes.
type Result struct {
	Room       models.Room
	Codes      []string
	Duplicates []string
}

// Import runs the full validation pipeline on one uploaded file. A record
// with duplicate furniture codes fails with ErrDuplicateCode unless the
// operator confirmed continuation; the returned Result then still carries
// the offending codes so they can be surfaced.
func (imp *Importer) Import(data []byte, confirmDuplicates bool) (*Result, error) {
	// Structural check: a non-empty JSON array.
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: array must not be empty", models.ErrMalformedInput)
	}

	// Only the first record is used; the array is a serialization
	// envelope of size 1.
	wire, err := imp.decode(records[0])
	if err != nil {
		return nil, err
	}

	// Duplicate furniture codes are a recoverable condition.
	duplicates := duplicateCodes(wire.Furniture)
	if len(duplicates) > 0 && !confirmDuplicates {
		return &Result{Duplicates: duplicates},
			fmt.Errorf("%w: %s", models.ErrDuplicateCode, strings.Join(duplicates, ", "))
	}

	// Repair: coerce unknown shapes, fill missing collections.
	wire.Shape = models.NormalizeShape(wire.Shape)
	if wire.Doors == nil {
		wire.Doors = []wirePoint{}
	}
	if wire.Windows == nil {
		wire.Windows = []wirePoint{}
	}
	if wire.Furniture == nil {
		wire.Furniture = []wireFurniture{}
	}

	if err := imp.validateGeometry(wire); err != nil {
		return nil, err
	}
	if err := imp.validateFurniture(wire); err != nil {
		return nil, err
	}

	room := wire.toRoom()
	return &Result{
		Room:       room,
		Codes:      uniqueCodes(room),
		Duplicates: duplicates,
	}, nil
}

// ============================================================
// Wire formats
// ============================================================

// wirePoint keeps coordinates as floats so that non-integer positions can
// be reported as geometry violations instead of decode failures. bad is
// set by the legacy migration for tuples of the wrong arity.
type wirePoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Orientation float64 `json:"orientation"`

	bad bool
}

type wireFurniture struct {
	ItemType      string      `json:"item_type"`
	ItemCode      string      `json:"item_code"`
	ItemQuantity  *int        `json:"item_quantity,omitempty"`
	ItemPositions []wirePoint `json:"item_positions"`
}

type wireRoom struct {
	RoomName   string              `json:"room_name"`
	Purpose    string              `json:"purpose"`
	Shape      string              `json:"shape"`
	Dimensions *models.BoundingBox `json:"dimensions"`
	Doors      []wirePoint         `json:"doors"`
	Windows    []wirePoint         `json:"windows"`
	SchoolType string              `json:"school_type"`
	StudentNum int                 `json:"student_num"`
	Furniture  []wireFurniture     `json:"furniture"`
	Image      *models.ImageInfo   `json:"image"`
}

func (w *wireRoom) toRoom() models.Room {
	room := models.Room{
		RoomName:   w.RoomName,
		Purpose:    w.Purpose,
		Shape:      w.Shape,
		Dimensions: w.Dimensions,
		Doors:      toPoints(w.Doors),
		Windows:    toPoints(w.Windows),
		SchoolType: w.SchoolType,
		StudentNum: w.StudentNum,
		Furniture:  make([]models.FurnitureItem, 0, len(w.Furniture)),
		Image:      w.Image,
	}
	for _, f := range w.Furniture {
		room.Furniture = append(room.Furniture, models.FurnitureItem{
			ItemType:      f.ItemType,
			ItemCode:      f.ItemCode,
			ItemPositions: toPoints(f.ItemPositions),
		})
	}
	return room
}

func toPoints(wire []wirePoint) []models.Point {
	points := make([]models.Point, 0, len(wire))
	for _, p := range wire {
		points = append(points, models.Point{
			X:           int(p.X),
			Y:           int(p.Y),
			Orientation: int(p.Orientation),
		})
	}
	return points
}

// ============================================================
// Legacy schema migration
// ============================================================

type legacyOpenings struct {
	Quantity  int         `json:"quantity"`
	Positions [][]float64 `json:"positions"`
}

type legacyFurniture struct {
	ItemType      string      `json:"item_type"`
	ItemCode      string      `json:"item_code"`
	ItemQuantity  *int        `json:"item_quantity"`
	ItemPositions [][]float64 `json:"item_positions"`
}

type legacyRoom struct {
	RoomName   string              `json:"room_name"`
	Purpose    string              `json:"purpose"`
	Shape      string              `json:"shape"`
	Dimensions *models.BoundingBox `json:"dimensions"`
	Doors      *legacyOpenings     `json:"doors"`
	Windows    *legacyOpenings     `json:"windows"`
	SchoolType string              `json:"school_type"`
	StudentNum int                 `json:"student_num"`
	Furniture  []legacyFurniture   `json:"furniture"`
	Image      *models.ImageInfo   `json:"image"`
}

func (imp *Importer) decode(raw json.RawMessage) (*wireRoom, error) {
	if imp.variant == VariantLegacy {
		var legacy legacyRoom
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
		}
		return migrateLegacy(&legacy), nil
	}
	var wire wireRoom
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	return &wire, nil
}

// migrateLegacy rewrites a counter-bearing record into the current wire
// form in one pass. Quantity counters are carried along so the count
// consistency check still applies to this variant.
func migrateLegacy(legacy *legacyRoom) *wireRoom {
	wire := &wireRoom{
		RoomName:   legacy.RoomName,
		Purpose:    legacy.Purpose,
		Shape:      legacy.Shape,
		Dimensions: legacy.Dimensions,
		SchoolType: legacy.SchoolType,
		StudentNum: legacy.StudentNum,
		Image:      legacy.Image,
	}
	if legacy.Doors != nil {
		wire.Doors = tuplesToPoints(legacy.Doors.Positions)
	}
	if legacy.Windows != nil {
		wire.Windows = tuplesToPoints(legacy.Windows.Positions)
	}
	for _, f := range legacy.Furniture {
		wire.Furniture = append(wire.Furniture, wireFurniture{
			ItemType:      f.ItemType,
			ItemCode:      f.ItemCode,
			ItemQuantity:  f.ItemQuantity,
			ItemPositions: tuplesToPoints(f.ItemPositions),
		})
	}
	return wire
}

func tuplesToPoints(tuples [][]float64) []wirePoint {
	points := make([]wirePoint, 0, len(tuples))
	for _, t := range tuples {
		if len(t) != 2 {
			points = append(points, wirePoint{bad: true})
			continue
		}
		points = append(points, wirePoint{X: t[0], Y: t[1]})
	}
	return points
}

// ============================================================
// Validation
// ============================================================

func (imp *Importer) referenceDims(wire *wireRoom) (float64, float64) {
	w, h := imp.imageWidth, imp.imageHeight
	if w <= 0 && wire.Image != nil && wire.Image.Width > 0 {
		w = float64(wire.Image.Width)
	}
	if h <= 0 && wire.Image != nil && wire.Image.Height > 0 {
		h = float64(wire.Image.Height)
	}
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

func (imp *Importer) validateGeometry(wire *wireRoom) error {
	width, height := imp.referenceDims(wire)

	if d := wire.Dimensions; d != nil {
		if d.Xmin < 0 || d.Ymin < 0 || d.Xmax > width || d.Ymax > height ||
			d.Xmax < d.Xmin || d.Ymax < d.Ymin {
			return fmt.Errorf("%w: dimensions must satisfy 0 <= xmin <= xmax <= %g and 0 <= ymin <= ymax <= %g",
				models.ErrInvalidGeometry, width, height)
		}
	}

	if err := validatePositions(wire.Doors, "door", width, height); err != nil {
		return err
	}
	if err := validatePositions(wire.Windows, "window", width, height); err != nil {
		return err
	}
	for _, f := range wire.Furniture {
		label := fmt.Sprintf("furniture %s", f.ItemCode)
		if err := validatePositions(f.ItemPositions, label, width, height); err != nil {
			return err
		}
	}
	return nil
}

func validatePositions(positions []wirePoint, label string, width, height float64) error {
	for i, p := range positions {
		if p.bad {
			return fmt.Errorf("%w: %s position %d must be an [x, y] pair",
				models.ErrInvalidGeometry, label, i)
		}
		if p.X != math.Trunc(p.X) || p.Y != math.Trunc(p.Y) {
			return fmt.Errorf("%w: %s position %d must have integer coordinates",
				models.ErrInvalidGeometry, label, i)
		}
		if p.X < 0 || p.X > width || p.Y < 0 || p.Y > height {
			return fmt.Errorf("%w: %s position %d must satisfy 0 <= x <= %g and 0 <= y <= %g",
				models.ErrInvalidGeometry, label, i, width, height)
		}
	}
	return nil
}

func (imp *Importer) validateFurniture(wire *wireRoom) error {
	for i, f := range wire.Furniture {
		if f.ItemCode == "" {
			return fmt.Errorf("%w: furniture %d is missing item_code", models.ErrMalformedInput, i)
		}
		if imp.variant == VariantLegacy {
			if f.ItemQuantity == nil {
				return fmt.Errorf("%w: furniture %s is missing item_quantity", models.ErrMalformedInput, f.ItemCode)
			}
			if *f.ItemQuantity != len(f.ItemPositions) {
				return fmt.Errorf("%w: furniture %s declares quantity %d but has %d positions",
					models.ErrQuantityMismatch, f.ItemCode, *f.ItemQuantity, len(f.ItemPositions))
			}
		}
	}
	return nil
}

// ============================================================
// Code helpers
// ============================================================

func duplicateCodes(furniture []wireFurniture) []string {
	seen := map[string]int{}
	for _, f := range furniture {
		seen[f.ItemCode]++
	}
	var dups []string
	reported := map[string]bool{}
	for _, f := range furniture {
		if seen[f.ItemCode] > 1 && !reported[f.ItemCode] {
			dups = append(dups, f.ItemCode)
			reported[f.ItemCode] = true
		}
	}
	return dups
}

// uniqueCodes returns the record's furniture codes with duplicates
// collapsed, preserving first-seen order. This set replaces, not merges,
// the session's known codes.
func uniqueCodes(room models.Room) []string {
	seen := map[string]bool{}
	codes := []string{}
	for _, f := range room.Furniture {
		if f.ItemCode == "" || seen[f.ItemCode] {
			continue
		}
		seen[f.ItemCode] = true
		codes = append(codes, f.ItemCode)
	}
	return codes
}
