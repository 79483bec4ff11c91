package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Annotator
	PixelMMFactor float64
	SchemaVariant string
	RoomstoreURL  string
	ExtractorURL  string
	ExportDir     string

	// Roomstore
	DBPath         string
	MigrationsPath string
}

// Load reads the configuration from environment variables, after picking
// up a .env file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		PixelMMFactor: getEnvAsFloat("PIXEL_MM_FACTOR", 17.12),
		SchemaVariant: getEnv("SCHEMA_VARIANT", "current"),
		RoomstoreURL:  getEnv("ROOMSTORE_URL", "http://localhost:8000"),
		ExtractorURL:  getEnv("EXTRACTOR_URL", "http://localhost:8500"),
		ExportDir:     getEnv("EXPORT_DIR", "data/exports"),

		DBPath:         getEnv("ROOMSTORE_DB_PATH", "data/db/roomstore.db"),
		MigrationsPath: getEnv("ROOMSTORE_MIGRATIONS", "migrations/001_init_roomstore.sql"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
