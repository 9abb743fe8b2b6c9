package database

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/rishikanthc/zendown/internal/notes"
)

func newMigrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:zendown_db_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&notes.Note{}, &migrationRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func insertLegacyNote(t *testing.T, db *gorm.DB, id, title string, path any) {
	t.Helper()
	err := db.Exec(
		"INSERT INTO note (id, title, content, created_on, modified_on, canonical_path) VALUES (?, ?, ?, ?, ?, ?)",
		id, title, "content", time.Unix(1700000000, 0).UTC(), time.Unix(1700000000, 0).UTC(), path,
	).Error
	if err != nil {
		t.Fatalf("failed to insert legacy row: %v", err)
	}
}

func TestBackfillCanonicalPaths(t *testing.T) {
	db := newMigrationTestDB(t)

	insertLegacyNote(t, db, "note-1", "My First Note", nil)
	insertLegacyNote(t, db, "note-2", "Claimed Path", "claimed-path")
	insertLegacyNote(t, db, "note-3", "Claimed  Path!", nil)
	insertLegacyNote(t, db, "note-4", "!!!", nil)

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths := map[string]any{}
	type row struct {
		ID            string
		CanonicalPath *string
	}
	var rows []row
	if err := db.Model(&notes.Note{}).Select("id", "canonical_path").Find(&rows).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		if r.CanonicalPath == nil {
			paths[r.ID] = nil
		} else {
			paths[r.ID] = *r.CanonicalPath
		}
	}

	if paths["note-1"] != "my-first-note" {
		t.Fatalf("expected backfilled path, got %v", paths["note-1"])
	}
	if paths["note-2"] != "claimed-path" {
		t.Fatalf("existing path must be untouched, got %v", paths["note-2"])
	}
	if paths["note-3"] != nil {
		t.Fatalf("a row colliding with a claimed path must be skipped, got %v", paths["note-3"])
	}
	if paths["note-4"] != nil {
		t.Fatalf("a row with an unslugifiable title must be skipped, got %v", paths["note-4"])
	}
}

func TestApplyMigrationsRunsOnce(t *testing.T) {
	db := newMigrationTestDB(t)
	insertLegacyNote(t, db, "note-1", "Only Once", nil)

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Clear the backfilled path; a re-run must not restore it because the
	// migration is recorded as applied.
	if err := db.Exec("UPDATE note SET canonical_path = NULL WHERE id = ?", "note-1").Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var path *string
	if err := db.Model(&notes.Note{}).Select("canonical_path").Where("id = ?", "note-1").Scan(&path).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != nil {
		t.Fatalf("recorded migration must not re-run, got %v", *path)
	}

	var count int64
	if err := db.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one migration record, got %d", count)
	}
}

func TestOpenSQLiteInitializesSchema(t *testing.T) {
	dsn := fmt.Sprintf("file:zendown_open_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenSQLite(dsn, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	for _, table := range []string{"note", "user", "session", "db_migrations"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %q to exist", table)
		}
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", nil); err == nil {
		t.Fatalf("expected an error for a blank path")
	}
}
