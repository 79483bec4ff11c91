package main

import (
	"fmt"
	"log"
	"time"

	"room-annotator/internal/annotation/backend"
	"room-annotator/internal/annotation/handlers"
	"room-annotator/internal/annotation/importer"
	"room-annotator/internal/annotation/session"
	"room-annotator/internal/annotation/storage"
	"room-annotator/internal/common/config"
	"room-annotator/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Annotator Service
// ============================================================

func main() {
	cfg := config.Load()

	sessions := session.NewManager()
	client := backend.New(cfg.RoomstoreURL, cfg.ExtractorURL)
	exports := storage.NewExportStorage(cfg.ExportDir)
	variant := importer.ParseVariant(cfg.SchemaVariant)
	handler := handlers.NewAnnotationHandler(sessions, client, exports, cfg.PixelMMFactor, variant)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Annotator Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Session Routes
	// ============================================================

	app.Post("/sessions", handler.CreateSession)
	app.Get("/sessions/:token", handler.GetSession)
	app.Post("/sessions/:token/reset", handler.ResetSession)
	app.Post("/sessions/:token/images", handler.UploadImages)
	app.Post("/sessions/:token/images/next", handler.NextImage)
	app.Post("/sessions/:token/images/prev", handler.PrevImage)
	app.Post("/sessions/:token/zoom", handler.SetZoom)

	// ============================================================
	// Annotation Routes
	// ============================================================

	app.Post("/sessions/:token/select", handler.SelectTarget)
	app.Post("/sessions/:token/pointer", handler.Pointer)
	app.Post("/sessions/:token/furniture", handler.AddFurniture)
	app.Put("/sessions/:token/furniture/:index", handler.RenameFurniture)
	app.Delete("/sessions/:token/furniture/:code", handler.RemoveFurniture)
	app.Delete("/sessions/:token/positions", handler.RemovePosition)
	app.Delete("/sessions/:token/boundary", handler.ClearBoundary)
	app.Put("/sessions/:token/room", handler.UpdateRoom)

	// ============================================================
	// Transfer Routes
	// ============================================================

	app.Post("/sessions/:token/import", handler.Import)
	app.Get("/sessions/:token/export", handler.Export)
	app.Get("/sessions/:token/exports", handler.ListExports)
	app.Post("/sessions/:token/upload", handler.Upload)
	app.Post("/sessions/:token/extract", handler.Extract)
	app.Post("/fuzzy_furniture", handler.FuzzyFurniture)
	app.Get("/room_names", handler.RoomNames)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Annotator Service on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Roomstore at %s, extractor at %s", cfg.RoomstoreURL, cfg.ExtractorURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
