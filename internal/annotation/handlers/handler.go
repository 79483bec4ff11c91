package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"room-annotator/internal/annotation/backend"
	"room-annotator/internal/annotation/importer"
	"room-annotator/internal/annotation/models"
	"room-annotator/internal/annotation/session"
	"room-annotator/internal/annotation/storage"
)

// ============================================================
// Annotation Handler
// ============================================================

type AnnotationHandler struct {
	sessions *session.Manager
	backend  *backend.Client
	exports  *storage.ExportStorage
	factor   float64
	variant  importer.SchemaVariant
}

func NewAnnotationHandler(sessions *session.Manager, client *backend.Client, exports *storage.ExportStorage, factor float64, variant importer.SchemaVariant) *AnnotationHandler {
	return &AnnotationHandler{
		sessions: sessions,
		backend:  client,
		exports:  exports,
		factor:   factor,
		variant:  variant,
	}
}

// resolve looks up the session addressed by the :token route parameter.
func (h *AnnotationHandler) resolve(c fiber.Ctx) (*session.Session, bool) {
	s, ok := h.sessions.Get(c.Params("token"))
	return s, ok
}

func sessionNotFound(c fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
}

// fail maps a pipeline error onto a status code and a user-visible
// message. Every validation failure is resolved here, at the boundary.
func fail(c fiber.Ctx, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, models.ErrDuplicateCode):
		status = http.StatusConflict
	case errors.Is(err, models.ErrStaleTarget):
		status = http.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
