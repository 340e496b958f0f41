package common

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tour-settlement-go/internal/database"
	"tour-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testCatalog = `
tours:
  - id: spiti-2030-06
    name: Spiti Valley
    price_per_head: "5000"
    adult_price: "5000"
    child_price: "3500.50"
    gst_percent: "5"
    occupancy: 20
    start_date: "2030-06-01"
terms:
  - type: general
    version: "1.0"
    content: General terms
    active: true
  - type: tour
    tour_id: spiti-2030-06
    version: "1.0"
    content: Spiti terms
    active: true
agents:
  - name: Asha
    email: asha@example.com
    pincode: "560001"
    year: 2025
  - name: Ravi
    email: ravi@example.com
    pincode: "110001"
    year: 2025
    parent: asha@example.com
`

func setupCatalogDb(t *testing.T) *database.Service {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "catalog.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestApplyCatalog(t *testing.T) {
	ctx := context.Background()
	db := setupCatalogDb(t)

	catalog, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog failed: %v", err)
	}

	// Second run must not duplicate agents or terms
	for i := 0; i < 2; i++ {
		if err := ApplyCatalog(ctx, db, catalog); err != nil {
			t.Fatalf("ApplyCatalog run %d failed: %v", i+1, err)
		}
	}

	tour, err := db.GetTour(ctx, "spiti-2030-06")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if !tour.ChildPrice.Equal(decimal.RequireFromString("3500.50")) {
		t.Errorf("expected child price 3500.50, got %s", tour.ChildPrice)
	}
	if tour.RemainingOccupancy != 20 {
		t.Errorf("expected 20 seats, got %d", tour.RemainingOccupancy)
	}

	if _, err := db.GetActiveTerms(ctx, models.TermsTypeTour, "spiti-2030-06"); err != nil {
		t.Errorf("expected active tour terms: %v", err)
	}

	agents, err := db.GetAgents(ctx)
	if err != nil {
		t.Fatalf("GetAgents failed: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}

	infos, err := InitializeAgents(ctx, db, "", zap.NewNop())
	if err != nil {
		t.Fatalf("InitializeAgents failed: %v", err)
	}
	var parent, child AgentInfo
	for _, info := range infos {
		switch info.Email {
		case "asha@example.com":
			parent = info
		case "ravi@example.com":
			child = info
		}
	}
	if parent.AgentId != "TA5600012025001" {
		t.Errorf("unexpected parent agent id %s", parent.AgentId)
	}
	if child.ParentAgentId != parent.AgentId {
		t.Errorf("child parent = %s, want %s", child.ParentAgentId, parent.AgentId)
	}

	single, err := InitializeAgents(ctx, db, parent.AgentId, zap.NewNop())
	if err != nil || len(single) != 1 {
		t.Errorf("expected single agent lookup, got %v (%v)", single, err)
	}
}

func TestParseCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"tour without id", "tours:\n  - name: x\n    occupancy: 1\n    start_date: \"2030-01-01\"\n"},
		{"tour without occupancy", "tours:\n  - id: t1\n    start_date: \"2030-01-01\"\n"},
		{"bad start date", "tours:\n  - id: t1\n    occupancy: 1\n    start_date: soon\n"},
		{"unknown terms type", "terms:\n  - type: privacy\n    version: \"1\"\n"},
		{"agent without email", "agents:\n  - name: x\n"},
		{"malformed yaml", "tours: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyCatalogUnknownParent(t *testing.T) {
	db := setupCatalogDb(t)
	catalog := &Catalog{Agents: []AgentEntry{
		{Name: "Ravi", Email: "ravi@example.com", Pincode: "110001", Year: 2025, Parent: "nobody@example.com"},
	}}
	if err := ApplyCatalog(context.Background(), db, catalog); err == nil {
		t.Fatal("expected error for unknown parent")
	}
}

func TestIsIgnorableSyncErrorTable(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"sync /dev/stderr: inappropriate ioctl for device", true},
		{"sync /dev/stdout: inappropriate ioctl for device", true},
		{"disk full", false},
	}
	for _, tt := range tests {
		if got := isIgnorableSyncError(errString(tt.msg)); got != tt.want {
			t.Errorf("isIgnorableSyncError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
