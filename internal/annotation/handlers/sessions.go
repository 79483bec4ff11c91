package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"room-annotator/internal/annotation/session"
)

// ============================================================
// Session lifecycle
// ============================================================

// CreateSession opens a fresh annotation session.
func (h *AnnotationHandler) CreateSession(c fiber.Ctx) error {
	s := h.sessions.Create()
	log.Printf("[SESSION] Created %s", s.Token())
	return c.Status(http.StatusCreated).JSON(s.Snapshot())
}

// GetSession returns the current session state.
func (h *AnnotationHandler) GetSession(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}
	return c.JSON(s.Snapshot())
}

// ResetSession discards the session content. Image decodes still in
// flight are invalidated by the generation bump.
func (h *AnnotationHandler) ResetSession(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}
	s.Reset()
	log.Printf("[SESSION] Reset %s", s.Token())
	return c.JSON(s.Snapshot())
}

// UploadImages registers the selected floor-plan images. The session only
// flips to the new image set once every file has decoded.
func (h *AnnotationHandler) UploadImages(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "images required in multipart/form-data"})
	}

	var files []session.ImageFile
	for _, header := range form.File["images"] {
		f, err := header.Open()
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "failed to open " + header.Filename})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "failed to read " + header.Filename})
		}
		files = append(files, session.ImageFile{Name: header.Filename, Data: data})
	}

	if err := s.RegisterImages(files); err != nil {
		log.Printf("[SESSION] Image registration failed: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[SESSION] Registered %d images for %s", len(files), s.Token())
	return c.JSON(s.Snapshot())
}

// NextImage advances the displayed image with wrap-around.
func (h *AnnotationHandler) NextImage(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}
	s.NextImage()
	return c.JSON(s.Snapshot())
}

// PrevImage steps the displayed image back with wrap-around.
func (h *AnnotationHandler) PrevImage(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}
	s.PrevImage()
	return c.JSON(s.Snapshot())
}

type zoomRequest struct {
	Scale float64 `json:"scale"`
}

// SetZoom applies a new zoom scale, clamped to the supported range.
func (h *AnnotationHandler) SetZoom(c fiber.Ctx) error {
	s, ok := h.resolve(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req zoomRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	s.SetZoom(req.Scale)
	return c.JSON(s.Snapshot())
}
