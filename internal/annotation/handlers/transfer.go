package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"room-annotator/internal/annotation/exporter"
	"room-annotator/internal/annotation/importer"
	"room-annotator/internal/annotation/models"
)

// ============================================================
// Import / Export / Upload
// ============================================================

// importPayload extracts the uploaded file content: either a multipart
// "file" part or the raw request body.
func importPayload(c fiber.Ctx) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	if len(c.Body()) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	return c.Body(), nil
}

// Import validates an uploaded annotation file and replaces the session
// record with it. Duplicate furniture codes yield a 409 with the
// offending codes; retrying with ?confirm=true proceeds despite them.
func (h *AnnotationHandler) Import(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	data, err := importPayload(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var width, height float64
	if img, ok := s.CurrentImage(); ok {
		width, height = float64(img.Width), float64(img.Height)
	}

	confirm := c.Query("confirm") == "true"
	imp := importer.New(h.variant, width, height)
	result, err := imp.Import(data, confirm)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateCode) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"error":      err.Error(),
				"duplicates": result.Duplicates,
			})
		}
		log.Printf("[IMPORT] Rejected: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.ApplyImport(result.Room, result.Codes)
	log.Printf("[IMPORT] Applied room %q with %d furniture codes", result.Room.RoomName, len(result.Codes))
	return c.JSON(s.Snapshot())
}

// Export serializes the room as-is plus the active image metadata, under
// a timestamped file name. A copy is kept server-side per session.
func (h *AnnotationHandler) Export(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	rooms := s.Rooms()
	img, hasImage := s.CurrentImage()
	if len(rooms) == 0 || !hasImage {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "no data or image to export"})
	}

	filename, data, err := exporter.ExportFile(rooms[0], img, time.Now())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.exports.SaveExport(s.Token(), filename, data); err != nil {
		// The download still proceeds; only the server-side copy is lost.
		log.Printf("[EXPORT] Failed to persist copy: %v", err)
	}

	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

// Upload converts the room into physical units and posts it to the
// roomstore. Validation failures block the action before any network
// call; remote failures surface the backend detail verbatim.
func (h *AnnotationHandler) Upload(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	rooms := s.Rooms()
	if len(rooms) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "no annotation to upload"})
	}

	physical, err := exporter.PhysicalRoom(rooms[0], h.factor)
	if err != nil {
		return fail(c, err)
	}

	ids, err := h.backend.UploadRooms(context.Background(), []models.Room{physical})
	if err != nil {
		log.Printf("[UPLOAD] Failed: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[UPLOAD] Stored %d rooms", len(ids))
	return c.JSON(fiber.Map{"inserted_ids": ids})
}

type extractRequest struct {
	Filenames []string `json:"filenames"`
}

// Extract submits filenames to the extraction service and merges the
// result into the session through the regular import pipeline, with
// doors and windows forced empty on receipt.
func (h *AnnotationHandler) Extract(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req extractRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	if len(req.Filenames) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "filenames required"})
	}

	rooms, err := h.backend.Extract(context.Background(), req.Filenames)
	if err != nil {
		log.Printf("[EXTRACT] Failed: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	for i := range rooms {
		rooms[i].Doors = []models.Point{}
		rooms[i].Windows = []models.Point{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "invalid extraction result"})
	}

	var width, height float64
	if img, ok := s.CurrentImage(); ok {
		width, height = float64(img.Width), float64(img.Height)
	}

	imp := importer.New(importer.VariantCurrent, width, height)
	result, err := imp.Import(data, c.Query("confirm") == "true")
	if err != nil {
		if errors.Is(err, models.ErrDuplicateCode) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"error":      err.Error(),
				"duplicates": result.Duplicates,
			})
		}
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.ApplyImport(result.Room, result.Codes)
	return c.JSON(s.Snapshot())
}

// ListExports returns the filenames of the server-side export copies kept
// for this session.
func (h *AnnotationHandler) ListExports(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	names, err := h.exports.ListExports(s.Token())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"exports": names})
}

// ============================================================
// Auxiliary lookups
// ============================================================

type fuzzyRequest struct {
	Codes []string `json:"codes"`
}

// FuzzyFurniture forwards a ranked catalog lookup to the roomstore.
// Failures degrade to an empty result set, never an error.
func (h *AnnotationHandler) FuzzyFurniture(c fiber.Ctx) error {
	var req fuzzyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	return c.JSON(h.backend.FuzzyFurniture(context.Background(), req.Codes))
}

// RoomNames lists the stored rooms; failures degrade to an empty list.
func (h *AnnotationHandler) RoomNames(c fiber.Ctx) error {
	return c.JSON(h.backend.RoomNames(context.Background()))
}
