package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/duet-app/duet/internal/database"
	"github.com/duet-app/duet/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProfile(t *testing.T, db *sql.DB, username string) *model.Profile {
	t.Helper()
	ps := NewProfileStore(db)
	p, err := ps.Create(fmt.Sprintf("%s@example.com", username), username, username, "x")
	if err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
	return p
}
