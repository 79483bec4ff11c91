package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"room-annotator/internal/annotation/session"
)

// ============================================================
// Annotation editing
// ============================================================

type selectRequest struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

// SelectTarget arms the interaction state machine for a subject.
func (h *AnnotationHandler) SelectTarget(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req selectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	target := session.Target{Kind: session.TargetKind(req.Kind), Code: req.Code}
	if err := s.SelectTarget(target); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

type pointerRequest struct {
	Event string  `json:"event"` // down, move, up, click
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Pointer feeds one pointer event into the state machine. After a
// committed boundary the mode is flipped back to idle: boundary drawing
// is one-shot per selection from the editor's perspective even though the
// machine itself would loop.
func (h *AnnotationHandler) Pointer(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req pointerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	switch req.Event {
	case "down":
		s.PointerDown(req.X, req.Y)
	case "move":
		s.PointerMove(req.X, req.Y)
	case "up":
		if s.PointerUp() {
			s.FinishBoundary()
		}
	case "click":
		if err := s.Click(req.X, req.Y); err != nil {
			log.Printf("[SESSION] Click ignored: %v", err)
			return fail(c, err)
		}
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown pointer event"})
	}
	return c.JSON(s.Snapshot())
}

type furnitureRequest struct {
	ItemType string `json:"item_type"`
	ItemCode string `json:"item_code"`
}

// AddFurniture registers a new furniture item and arms point placement.
func (h *AnnotationHandler) AddFurniture(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req furnitureRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	if req.ItemCode == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "item_code is required"})
	}

	if err := s.AddFurniture(req.ItemType, req.ItemCode); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

// RenameFurniture changes an item's type and code by index.
func (h *AnnotationHandler) RenameFurniture(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid furniture index"})
	}

	var req furnitureRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	if err := s.RenameFurniture(index, req.ItemType, req.ItemCode); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

// RemoveFurniture deletes an item and all its positions.
func (h *AnnotationHandler) RemoveFurniture(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	if err := s.RemoveFurniture(c.Params("code")); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

type removePositionRequest struct {
	Kind      string `json:"kind"` // door, window, furniture
	ItemIndex int    `json:"item_index"`
	PosIndex  int    `json:"pos_index"`
}

// RemovePosition deletes one placed point by index.
func (h *AnnotationHandler) RemovePosition(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req removePositionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	if err := s.RemovePosition(req.Kind, req.ItemIndex, req.PosIndex); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

// ClearBoundary resets the room outline to undrawn.
func (h *AnnotationHandler) ClearBoundary(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	if err := s.ClearBoundary(); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}

type roomUpdateRequest struct {
	RoomName   *string `json:"room_name"`
	Shape      *string `json:"shape"`
	SchoolType *string `json:"school_type"`
}

// UpdateRoom applies the simple field edits from the sidebar.
func (h *AnnotationHandler) UpdateRoom(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req roomUpdateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	if err := s.UpdateRoom(req.RoomName, req.Shape, req.SchoolType); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Snapshot())
}
