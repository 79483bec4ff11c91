package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init runs the migrations and seeds the furniture catalog.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return r.ensureCatalog(ctx)
}

// InsertRooms stores the physical-unit rooms in one transaction and
// returns their generated identifiers.
func (r *Repository) InsertRooms(ctx context.Context, rooms []models.Room) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		payload, err := json.Marshal(room)
		if err != nil {
			return nil, fmt.Errorf("marshal room %q: %w", room.RoomName, err)
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
            INSERT INTO rooms (id, room_name, school_type, payload)
            VALUES (?, ?, ?, ?)
        `, id, room.RoomName, room.SchoolType, string(payload))
		if err != nil {
			return nil, fmt.Errorf("insert room %q: %w", room.RoomName, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// StoredRoom is one entry of the room listing.
type StoredRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListRoomNames returns all stored rooms as {id, name} pairs.
func (r *Repository) ListRoomNames(ctx context.Context) ([]StoredRoom, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, room_name FROM rooms ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredRoom{}
	for rows.Next() {
		var room StoredRoom
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// CatalogItem is one furniture catalog entry with its dimensions in mm.
type CatalogItem struct {
	Code string
	W    int
	D    int
	H    int
}

// Catalog loads the full furniture catalog.
func (r *Repository) Catalog(ctx context.Context) ([]CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT code, width, depth, height FROM furniture_catalog
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CatalogItem{}
	for rows.Next() {
		var item CatalogItem
		if err := rows.Scan(&item.Code, &item.W, &item.D, &item.H); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ============================================================
// Migrations & Seeding
// ============================================================

func (r *Repository) runMigrations(migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// ensureCatalog seeds a baseline furniture catalog so fuzzy lookups have
// something to rank against on a fresh database.
func (r *Repository) ensureCatalog(ctx context.Context) error {
	seed := []CatalogItem{
		{Code: "SB-1200", W: 1200, D: 330, H: 900},
		{Code: "SB-1800", W: 1800, D: 330, H: 900},
		{Code: "SB-T600", W: 600, D: 330, H: 900},
		{Code: "DESK-0650", W: 650, D: 450, H: 700},
		{Code: "CHAIR-0380", W: 380, D: 420, H: 760},
		{Code: "LOCKER-0900", W: 900, D: 500, H: 1800},
		{Code: "UMB-0450", W: 450, D: 450, H: 650},
		{Code: "CLN-0600", W: 600, D: 450, H: 1800},
	}
	for _, item := range seed {
		_, err := r.db.ExecContext(ctx, `
            INSERT OR IGNORE INTO furniture_catalog (code, width, depth, height)
            VALUES (?, ?, ?, ?)
        `, item.Code, item.W, item.D, item.H)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

// OpenSQLite opens the sqlite database at the given path.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
