package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"room-annotator/internal/annotation/geometry"
	"room-annotator/internal/annotation/models"
	"room-annotator/internal/annotation/room"
)

// ============================================================
// Annotation session
// ============================================================
//
// A session is the transient editing context: the room record, the loaded
// images, the zoom scale, and the interaction state machine that decides
// what a pointer event means. All mutation of the record is copy-and-
// replace; a snapshot handed out once is never written again.

type Mode string

const (
	ModeNone         Mode = "none"
	ModeDrawBoundary Mode = "drawBoundary"
	ModePoint        Mode = "point"
)

type TargetKind string

const (
	TargetNone      TargetKind = "none"
	TargetRoom      TargetKind = "room"
	TargetDoor      TargetKind = "door"
	TargetWindow    TargetKind = "window"
	TargetFurniture TargetKind = "furniture"
)

// Target is the currently selected annotation subject. Code is only set
// for furniture targets.
type Target struct {
	Kind TargetKind `json:"kind"`
	Code string     `json:"code,omitempty"`
}

type Session struct {
	mu sync.Mutex

	token      string
	generation string

	// rooms is a container of one: the serialization envelope keeps the
	// array shape, the editor only ever touches index 0.
	rooms      []models.Room
	knownCodes []string

	images  []models.ImageInfo
	current int

	scale  float64
	mode   Mode
	target Target

	dragStart *models.Point
	dragEnd   *models.Point
}

func newSession(token string) *Session {
	return &Session{
		token:      token,
		generation: uuid.NewString(),
		scale:      1.0,
		mode:       ModeNone,
		target:     Target{Kind: TargetNone},
	}
}

// Token returns the session identifier handed to the client.
func (s *Session) Token() string { return s.token }

// ============================================================
// State snapshot
// ============================================================

// State is the read-only view of a session returned to clients.
type State struct {
	Token         string             `json:"token"`
	Rooms         []models.Room      `json:"rooms"`
	FurnitureList []string           `json:"furniture_list"`
	Images        []models.ImageInfo `json:"images"`
	CurrentImage  int                `json:"current_image"`
	Scale         float64            `json:"scale"`
	Mode          Mode               `json:"mode"`
	Target        Target             `json:"target"`
}

// Snapshot copies the current state. The returned rooms are deep copies.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r.Clone())
	}
	return State{
		Token:         s.token,
		Rooms:         rooms,
		FurnitureList: append([]string(nil), s.knownCodes...),
		Images:        append([]models.ImageInfo(nil), s.images...),
		CurrentImage:  s.current,
		Scale:         s.scale,
		Mode:          s.mode,
		Target:        s.target,
	}
}

// Reset discards the session content and bumps the generation token so a
// late-arriving image decode cannot resurrect the discarded state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation = uuid.NewString()
	s.rooms = nil
	s.knownCodes = nil
	s.images = nil
	s.current = 0
	s.scale = 1.0
	s.mode = ModeNone
	s.target = Target{Kind: TargetNone}
	s.dragStart = nil
	s.dragEnd = nil
}

// ============================================================
// State machine
// ============================================================

// SelectTarget arms the interaction mode for the chosen subject: the room
// target enters boundary drawing, everything else enters point placement.
// Re-selecting the room while already drawing is a no-op re-entry.
func (s *Session) SelectTarget(t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t.Kind {
	case TargetRoom:
		if s.mode == ModeDrawBoundary {
			return nil
		}
		s.mode = ModeDrawBoundary
		s.target = Target{Kind: TargetRoom}
		s.dragStart = nil
		s.dragEnd = nil
	case TargetDoor, TargetWindow:
		s.mode = ModePoint
		s.target = Target{Kind: t.Kind}
	case TargetFurniture:
		if len(s.rooms) == 0 || s.rooms[0].FindFurniture(t.Code) < 0 {
			return fmt.Errorf("%w: furniture %q", models.ErrStaleTarget, t.Code)
		}
		s.mode = ModePoint
		s.target = t
	case TargetNone:
		s.mode = ModeNone
		s.target = Target{Kind: TargetNone}
	default:
		return fmt.Errorf("%w: target %q", models.ErrStaleTarget, t.Kind)
	}
	return nil
}

// PointerDown starts a boundary drag. Ignored outside boundary mode.
func (s *Session) PointerDown(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDrawBoundary || len(s.rooms) == 0 {
		return
	}
	p := geometry.ToImageSpace(x, y, s.scale)
	s.dragStart = &p
	s.dragEnd = nil
}

// PointerMove records the live end point of a boundary drag for preview.
// The record itself is not touched.
func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDrawBoundary || s.dragStart == nil {
		return
	}
	p := geometry.ToImageSpace(x, y, s.scale)
	s.dragEnd = &p
}

// PointerUp commits the dragged boundary. Which corner the drag started
// from does not matter. An up with no prior down is a no-op; the machine
// stays in boundary mode and can draw again.
func (s *Session) PointerUp() (committed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDrawBoundary || s.dragStart == nil || s.dragEnd == nil || len(s.rooms) == 0 {
		s.dragStart = nil
		s.dragEnd = nil
		return false
	}
	box := geometry.BoundsFromDrag(*s.dragStart, *s.dragEnd)
	s.rooms[0] = room.SetBoundary(s.rooms[0], box)
	s.dragStart = nil
	s.dragEnd = nil
	return true
}

// FinishBoundary flips the mode back to idle after a committed boundary.
// The state machine itself loops; one-shot drawing is caller policy.
func (s *Session) FinishBoundary() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeDrawBoundary {
		s.mode = ModeNone
		s.target = Target{Kind: TargetNone}
	}
}

// Click places one point for the selected target, orientation 0, and
// stays armed so several points can be placed in sequence. A furniture
// code deleted since selection yields ErrStaleTarget and no mutation.
func (s *Session) Click(x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModePoint || len(s.rooms) == 0 {
		return nil
	}
	p := geometry.ToImageSpace(x, y, s.scale)

	var (
		next models.Room
		err  error
	)
	switch s.target.Kind {
	case TargetDoor:
		next, err = room.AppendOpening(s.rooms[0], room.KindDoor, p)
	case TargetWindow:
		next, err = room.AppendOpening(s.rooms[0], room.KindWindow, p)
	case TargetFurniture:
		next, err = room.AppendFurniturePosition(s.rooms[0], s.target.Code, p)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	s.rooms[0] = next
	return nil
}

// ============================================================
// Record edits
// ============================================================

// ensureRoom creates the implicit default room on the first furniture
// action. Callers hold the lock.
func (s *Session) ensureRoom() {
	if len(s.rooms) == 0 {
		s.rooms = []models.Room{room.New()}
	}
}

// AddFurniture registers a new furniture item and arms point placement
// for it. The code must not collide with any known code.
func (s *Session) AddFurniture(itemType, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, known := range s.knownCodes {
		if known == code {
			return fmt.Errorf("%w: %q", models.ErrDuplicateCode, code)
		}
	}
	s.ensureRoom()
	next, err := room.AddFurniture(s.rooms[0], itemType, code)
	if err != nil {
		return err
	}
	s.rooms[0] = next
	s.knownCodes = append(s.knownCodes, code)
	s.mode = ModePoint
	s.target = Target{Kind: TargetFurniture, Code: code}
	return nil
}

// RenameFurniture updates the item at index, keeping the known code set
// and the current selection consistent with the new code.
func (s *Session) RenameFurniture(index int, newType, newCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) == 0 {
		return fmt.Errorf("%w: no room loaded", models.ErrStaleTarget)
	}
	if index < 0 || index >= len(s.rooms[0].Furniture) {
		return fmt.Errorf("%w: furniture index %d", models.ErrStaleTarget, index)
	}
	oldCode := s.rooms[0].Furniture[index].ItemCode
	if newCode != oldCode {
		for _, known := range s.knownCodes {
			if known == newCode {
				return fmt.Errorf("%w: %q", models.ErrDuplicateCode, newCode)
			}
		}
	}

	next, err := room.RenameFurniture(s.rooms[0], index, newType, newCode)
	if err != nil {
		return err
	}
	s.rooms[0] = next
	for i, known := range s.knownCodes {
		if known == oldCode {
			s.knownCodes[i] = newCode
		}
	}
	if s.target.Kind == TargetFurniture && s.target.Code == oldCode {
		s.target.Code = newCode
	}
	return nil
}

// RemoveFurniture deletes the item and all its positions atomically. If
// the deleted code was the active target the selection is cleared.
func (s *Session) RemoveFurniture(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) == 0 {
		return fmt.Errorf("%w: no room loaded", models.ErrStaleTarget)
	}
	next, ok := room.RemoveFurniture(s.rooms[0], code)
	if !ok {
		return fmt.Errorf("%w: furniture %q", models.ErrStaleTarget, code)
	}
	s.rooms[0] = next

	kept := s.knownCodes[:0]
	for _, known := range s.knownCodes {
		if known != code {
			kept = append(kept, known)
		}
	}
	s.knownCodes = kept
	if s.target.Kind == TargetFurniture && s.target.Code == code {
		s.mode = ModeNone
		s.target = Target{Kind: TargetNone}
	}
	return nil
}

// RemovePosition deletes one indexed entry from a door, window, or
// furniture position sequence.
func (s *Session) RemovePosition(kind string, itemIndex, posIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) == 0 {
		return fmt.Errorf("%w: no room loaded", models.ErrStaleTarget)
	}
	next, err := room.RemovePosition(s.rooms[0], kind, itemIndex, posIndex)
	if err != nil {
		return err
	}
	s.rooms[0] = next
	return nil
}

// ClearBoundary resets the boundary to undrawn; the room record stays.
func (s *Session) ClearBoundary() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) == 0 {
		return fmt.Errorf("%w: no room loaded", models.ErrStaleTarget)
	}
	s.rooms[0] = room.ClearBoundary(s.rooms[0])
	return nil
}

// UpdateRoom applies the simple field edits exposed by the sidebar.
func (s *Session) UpdateRoom(name, shape, schoolType *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) == 0 {
		return fmt.Errorf("%w: no room loaded", models.ErrStaleTarget)
	}
	r := s.rooms[0]
	if name != nil {
		r = room.SetName(r, *name)
	}
	if shape != nil {
		r = room.SetShape(r, *shape)
	}
	if schoolType != nil {
		r = room.SetSchoolType(r, *schoolType)
	}
	s.rooms[0] = r
	return nil
}

// ApplyImport replaces the session record and the known code set with the
// normalized import result. Nothing is merged.
func (s *Session) ApplyImport(r models.Room, codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = []models.Room{r}
	s.knownCodes = append([]string(nil), codes...)
}

// Rooms returns a deep copy of the record array for export and upload.
func (s *Session) Rooms() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r.Clone())
	}
	return rooms
}

// ============================================================
// View controls
// ============================================================

// SetZoom clamps and applies the zoom scale.
func (s *Session) SetZoom(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = geometry.ClampScale(scale)
}

// CurrentImage returns the displayed image, if any is loaded.
func (s *Session) CurrentImage() (models.ImageInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) == 0 {
		return models.ImageInfo{}, false
	}
	return s.images[s.current], true
}

// NextImage advances the displayed image with wrap-around.
func (s *Session) NextImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) > 0 {
		s.current = (s.current + 1) % len(s.images)
	}
}

// PrevImage steps the displayed image back with wrap-around.
func (s *Session) PrevImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) > 0 {
		s.current = (s.current - 1 + len(s.images)) % len(s.images)
	}
}
