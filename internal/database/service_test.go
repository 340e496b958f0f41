package database

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	service := newService(db)
	if err := service.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return service, cleanup
}

func TestInitSchema_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.InitSchema(context.Background()); err != nil {
		t.Fatalf("Second InitSchema failed: %v", err)
	}
	if err := service.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal("amount", "12.50")
	if err != nil {
		t.Fatalf("parseDecimal failed: %v", err)
	}
	if d.String() != "12.5" {
		t.Errorf("Expected 12.5, got %s", d.String())
	}

	if _, err := parseDecimal("amount", "abc"); err == nil {
		t.Error("Expected error for invalid decimal")
	}
}
