package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

func seedTour(t *testing.T, service *Service, occupancy int) {
	t.Helper()
	err := service.UpsertTour(context.Background(), models.Tour{
		Id:           "tour1",
		Name:         "Spiti Valley",
		PricePerHead: decimal.NewFromInt(10000),
		GSTPercent:   decimal.NewFromInt(5),
		Occupancy:    occupancy,
		StartDate:    time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpsertTour failed: %v", err)
	}
}

func TestUpsertTour_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTour(t, service, 20)

	tour, err := service.GetTour(context.Background(), "tour1")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if tour.RemainingOccupancy != 20 {
		t.Errorf("Expected remaining 20, got %d", tour.RemainingOccupancy)
	}
	if !tour.PricePerHead.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected price 10000, got %s", tour.PricePerHead)
	}
	if !tour.StartDate.Equal(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start date %s", tour.StartDate)
	}
}

func TestDecrementRemainingOccupancy(t *testing.T) {
	tests := []struct {
		name      string
		occupancy int
		decrement int
		expected  int
	}{
		{"partial", 20, 3, 17},
		{"exact", 3, 3, 0},
		{"floored at zero", 2, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, cleanup := setupTestDb(t)
			defer cleanup()
			seedTour(t, service, tt.occupancy)

			tour, err := service.DecrementRemainingOccupancy(context.Background(), "tour1", tt.decrement)
			if err != nil {
				t.Fatalf("DecrementRemainingOccupancy failed: %v", err)
			}
			if tour.RemainingOccupancy != tt.expected {
				t.Errorf("Expected remaining %d, got %d", tt.expected, tour.RemainingOccupancy)
			}
		})
	}
}

func TestDecrementRemainingOccupancy_UnknownTour(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.DecrementRemainingOccupancy(context.Background(), "missing", 1)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
