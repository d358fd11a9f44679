package db

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Defaults for a freshly created room document
const (
	DefaultContent  = "// Start coding!"
	DefaultLanguage = "javascript"
	DefaultTheme    = "vs-dark"
)

type Database struct {
	db *sql.DB
}

// The persisted record for one room
type Room struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Partial update of a room record. Nil fields are left untouched.
type RoomFields struct {
	Content  *string
	Language *string
	Theme    *string
}

func New(dbPath string) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Printf("Database initialized at %s", dbPath)
	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		language TEXT NOT NULL,
		theme TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// GetRoom returns the room record, or nil if no record exists
func (d *Database) GetRoom(ctx context.Context, id string) (*Room, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT id, content, language, theme, created_at, updated_at FROM rooms WHERE id = ?",
		id,
	)

	var room Room
	err := row.Scan(&room.ID, &room.Content, &room.Language, &room.Theme, &room.CreatedAt, &room.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom inserts a record with default content, language and theme.
// An existing record with that ID is left untouched and returned, so two
// clients racing to create the same room converge on one record.
func (d *Database) CreateRoom(ctx context.Context, id string) (*Room, error) {
	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO rooms (id, content, language, theme) VALUES (?, ?, ?, ?)",
		id, DefaultContent, DefaultLanguage, DefaultTheme,
	)
	if err != nil {
		return nil, err
	}
	return d.GetRoom(ctx, id)
}

// UpdateRoom overwrites only the provided fields and bumps updated_at
func (d *Database) UpdateRoom(ctx context.Context, id string, fields RoomFields) error {
	set := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if fields.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *fields.Content)
	}
	if fields.Language != nil {
		set = append(set, "language = ?")
		args = append(args, *fields.Language)
	}
	if fields.Theme != nil {
		set = append(set, "theme = ?")
		args = append(args, *fields.Theme)
	}
	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	_, err := d.db.ExecContext(ctx,
		"UPDATE rooms SET "+strings.Join(set, ", ")+" WHERE id = ?",
		args...,
	)
	return err
}

func (d *Database) ListRooms(ctx context.Context, limit, offset int) ([]Room, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, content, language, theme, created_at, updated_at FROM rooms ORDER BY updated_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Content, &room.Language, &room.Theme, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (d *Database) RoomCount(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&count)
	return count, err
}
