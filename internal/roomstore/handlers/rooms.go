package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"room-annotator/internal/annotation/models"
	"room-annotator/internal/roomstore/repository"
)

// ============================================================
// Roomstore Handlers
// ============================================================

// fuzzyLimit caps how many catalog candidates are returned per code.
const fuzzyLimit = 15

type RoomsHandler struct {
	repo *repository.Repository
}

func NewRoomsHandler(repo *repository.Repository) *RoomsHandler {
	return &RoomsHandler{repo: repo}
}

// PostRooms stores an uploaded physical-unit room array and responds with
// the inserted record identifiers. Failures carry a detail message the
// annotator surfaces verbatim.
func (h *RoomsHandler) PostRooms(c fiber.Ctx) error {
	log.Printf("[ROOMSTORE] Upload request, %d bytes", len(c.Body()))

	var rooms []models.Room
	if err := json.Unmarshal(c.Body(), &rooms); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"detail": "body must be a JSON array of rooms"})
	}
	if len(rooms) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"detail": "rooms array must not be empty"})
	}
	for _, room := range rooms {
		if room.RoomName == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"detail": "room_name is required"})
		}
	}

	ids, err := h.repo.InsertRooms(context.Background(), rooms)
	if err != nil {
		log.Printf("[ROOMSTORE] Insert failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to store rooms"})
	}

	log.Printf("[ROOMSTORE] Stored %d rooms", len(ids))
	return c.JSON(fiber.Map{"inserted_ids": ids})
}

// GetRoomNames lists the stored rooms as {id, name} pairs.
func (h *RoomsHandler) GetRoomNames(c fiber.Ctx) error {
	rooms, err := h.repo.ListRoomNames(context.Background())
	if err != nil {
		log.Printf("[ROOMSTORE] List failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to list rooms"})
	}
	return c.JSON(rooms)
}

type fuzzyRequest struct {
	Codes []string `json:"codes"`
}

// PostFuzzyFurniture ranks the catalog against every queried code.
func (h *RoomsHandler) PostFuzzyFurniture(c fiber.Ctx) error {
	var req fuzzyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"detail": "invalid JSON payload"})
	}

	catalog, err := h.repo.Catalog(context.Background())
	if err != nil {
		log.Printf("[ROOMSTORE] Catalog load failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to load catalog"})
	}

	out := make(map[string][]repository.Match, len(req.Codes))
	for _, code := range req.Codes {
		out[code] = repository.Rank(catalog, code, fuzzyLimit)
	}
	return c.JSON(out)
}
