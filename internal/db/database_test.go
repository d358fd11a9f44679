package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "devcollab-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func strPtr(s string) *string {
	return &s
}

func TestDatabaseCreation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if db == nil {
		t.Fatal("Database should not be nil")
	}
}

func TestCreateRoomDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	room, err := db.CreateRoom(ctx, "test-room")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	if room == nil {
		t.Fatal("Created room should not be nil")
	}
	if room.ID != "test-room" {
		t.Errorf("Expected room ID 'test-room', got '%s'", room.ID)
	}
	if room.Content != DefaultContent {
		t.Errorf("Expected default content '%s', got '%s'", DefaultContent, room.Content)
	}
	if room.Language != DefaultLanguage {
		t.Errorf("Expected default language '%s', got '%s'", DefaultLanguage, room.Language)
	}
	if room.Theme != DefaultTheme {
		t.Errorf("Expected default theme '%s', got '%s'", DefaultTheme, room.Theme)
	}
}

func TestGetRoomAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	room, err := db.GetRoom(context.Background(), "non-existent")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if room != nil {
		t.Error("Non-existent room should return nil")
	}
}

func TestCreateRoomPreservesExisting(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := db.CreateRoom(ctx, "test-room"); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	if err := db.UpdateRoom(ctx, "test-room", RoomFields{Content: strPtr("x = 1")}); err != nil {
		t.Fatalf("Failed to update room: %v", err)
	}

	// A second create must not reset the edited content to defaults
	room, err := db.CreateRoom(ctx, "test-room")
	if err != nil {
		t.Fatalf("Failed to re-create room: %v", err)
	}
	if room.Content != "x = 1" {
		t.Errorf("Expected existing content 'x = 1', got '%s'", room.Content)
	}
}

func TestUpdateRoomPartial(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := db.CreateRoom(ctx, "test-room"); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if err := db.UpdateRoom(ctx, "test-room", RoomFields{Language: strPtr("go")}); err != nil {
		t.Fatalf("Failed to update language: %v", err)
	}

	room, err := db.GetRoom(ctx, "test-room")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if room.Language != "go" {
		t.Errorf("Expected language 'go', got '%s'", room.Language)
	}
	if room.Content != DefaultContent {
		t.Errorf("Updating language should not touch content, got '%s'", room.Content)
	}
	if room.Theme != DefaultTheme {
		t.Errorf("Updating language should not touch theme, got '%s'", room.Theme)
	}
}

func TestUpdateRoomLastWriteWins(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := db.CreateRoom(ctx, "test-room"); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	for _, content := range []string{"a", "b", "c"} {
		if err := db.UpdateRoom(ctx, "test-room", RoomFields{Content: strPtr(content)}); err != nil {
			t.Fatalf("Failed to update content: %v", err)
		}
	}

	room, err := db.GetRoom(ctx, "test-room")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if room.Content != "c" {
		t.Errorf("Expected last written content 'c', got '%s'", room.Content)
	}
}

func TestUpdateRoomNoFields(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := db.CreateRoom(ctx, "test-room"); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if err := db.UpdateRoom(ctx, "test-room", RoomFields{}); err != nil {
		t.Errorf("Empty update should be a no-op, got %v", err)
	}
}

func TestListRooms(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := db.CreateRoom(ctx, "room-"+string(rune('a'+i))); err != nil {
			t.Fatalf("Failed to create room: %v", err)
		}
	}

	rooms, err := db.ListRooms(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 5 {
		t.Errorf("Expected 5 rooms, got %d", len(rooms))
	}

	rooms, err = db.ListRooms(ctx, 2, 0)
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms with limit, got %d", len(rooms))
	}

	rooms, err = db.ListRooms(ctx, 2, 3)
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms with offset, got %d", len(rooms))
	}
}

func TestRoomCount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.CreateRoom(ctx, "count-room-"+string(rune('a'+i))); err != nil {
			t.Fatalf("Failed to create room: %v", err)
		}
	}

	count, err := db.RoomCount(ctx)
	if err != nil {
		t.Fatalf("Failed to count rooms: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 rooms, got %d", count)
	}
}
