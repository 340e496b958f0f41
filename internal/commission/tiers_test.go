package commission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRate_DefaultTable(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name       string
		percentage string
		level      int
		expected   string
	}{
		{"top tier level 1", "65", 1, "10"},
		{"top tier level 2", "80", 2, "5"},
		{"middle tier level 1", "45", 1, "8.5"},
		{"middle tier level 2", "64.99", 2, "3.5"},
		{"base tier level 1", "44.99", 1, "7"},
		{"base tier level 2", "0", 2, "2.5"},
		{"unknown level", "70", 3, "0"},
		{"level zero", "70", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Rate(decimal.RequireFromString(tt.percentage), tt.level)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Rate(%s, %d) = %s, want %s", tt.percentage, tt.level, got, tt.expected)
			}
		})
	}
}

func TestUpdatedPercentage(t *testing.T) {
	tests := []struct {
		name      string
		given     int
		occupancy int
		expected  string
	}{
		{"half", 10, 20, "50"},
		{"all", 20, 20, "100"},
		{"zero occupancy", 5, 0, "0"},
		{"negative occupancy", 5, -3, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdatedPercentage(tt.given, tt.occupancy)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("UpdatedPercentage(%d, %d) = %s, want %s", tt.given, tt.occupancy, got, tt.expected)
			}
		})
	}
}

func TestAmount_RoundsToPaise(t *testing.T) {
	got := Amount(decimal.RequireFromString("999.99"), decimal.RequireFromString("8.5"))
	if !got.Equal(decimal.RequireFromString("85")) {
		t.Errorf("Expected 85, got %s", got)
	}

	got = Amount(decimal.NewFromInt(10000), decimal.RequireFromString("8.5"))
	if !got.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Expected 850, got %s", got)
	}
}

func TestNewTable_Validation(t *testing.T) {
	d := decimal.NewFromInt
	tests := []struct {
		name  string
		tiers []Tier
	}{
		{"empty", nil},
		{"no floor", []Tier{{Threshold: d(50), Level1: d(5), Level2: d(1)}}},
		{"two floors", []Tier{{Threshold: d(0), Level1: d(5)}, {Threshold: d(0), Level1: d(6)}}},
		{"threshold above 100", []Tier{{Threshold: d(0)}, {Threshold: d(101)}}},
		{"negative rate", []Tier{{Threshold: d(0), Level1: d(-1)}}},
		{"duplicate threshold", []Tier{{Threshold: d(0)}, {Threshold: d(50)}, {Threshold: d(50)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.tiers); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadTable_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiers.yaml")
	content := `tiers:
  - threshold: 0
    level1: 6
    level2: 2
  - threshold: 50
    level1: 9.5
    level2: 4
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write tiers file: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if got := table.Rate(decimal.NewFromInt(60), 1); !got.Equal(decimal.RequireFromString("9.5")) {
		t.Errorf("Expected 9.5, got %s", got)
	}
	if got := table.Rate(decimal.NewFromInt(10), 2); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected 2, got %s", got)
	}
}

func TestLoadTable_EmptyPathUsesDefault(t *testing.T) {
	table, err := LoadTable("")
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if got := table.Rate(decimal.NewFromInt(70), 1); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected 10, got %s", got)
	}
}
