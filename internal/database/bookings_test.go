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

func checkoutParams(customerId, tourId string) store.CheckoutParams {
	return store.CheckoutParams{
		Tour: models.TourSnapshot{
			TourId:    tourId,
			Name:      "Spiti Valley",
			StartDate: time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		Customer: models.CustomerSnapshot{CustomerId: customerId, Name: "Asha", Email: "asha@example.com"},
		AgentId:  "TA5600012025001",
		Travelers: []models.Traveler{
			{Name: "Asha", Age: 34, Gender: "F"},
			{Name: "Ravi", Age: 9, Gender: "M"},
		},
	}
}

func TestFindOrCreateBooking_CreatesOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	first, created, err := service.FindOrCreateBooking(ctx, checkoutParams("cust1", "tour1"))
	if err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}
	if !created {
		t.Fatal("Expected first checkout to create a booking")
	}
	if first.Status != models.BookingPending || first.Version != 1 {
		t.Errorf("Unexpected new booking state: status=%s version=%d", first.Status, first.Version)
	}
	for _, traveler := range first.Travelers {
		if traveler.Id == "" {
			t.Error("Expected traveler ids to be assigned")
		}
	}

	second, created, err := service.FindOrCreateBooking(ctx, checkoutParams("cust1", "tour1"))
	if err != nil {
		t.Fatalf("Second FindOrCreateBooking failed: %v", err)
	}
	if created {
		t.Error("Expected second checkout to find the existing booking")
	}
	if second.BookingId != first.BookingId {
		t.Errorf("Expected booking %s, got %s", first.BookingId, second.BookingId)
	}
}

func TestUpdateBooking_VersionCheck(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	booking, _, err := service.FindOrCreateBooking(ctx, checkoutParams("cust1", "tour1"))
	if err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}
	stale := *booking

	booking.Status = models.BookingConfirmed
	booking.Payment.PaidAmount = decimal.NewFromInt(850)
	if err := service.UpdateBooking(ctx, booking); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	if booking.Version != 2 {
		t.Errorf("Expected version 2, got %d", booking.Version)
	}

	stale.Status = models.BookingCancelled
	err = service.UpdateBooking(ctx, &stale)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	stored, err := service.GetBookingByBookingId(ctx, booking.BookingId)
	if err != nil {
		t.Fatalf("GetBookingByBookingId failed: %v", err)
	}
	if stored.Status != models.BookingConfirmed {
		t.Errorf("Expected confirmed, got %s", stored.Status)
	}
	if !stored.Payment.PaidAmount.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Expected paid amount 850, got %s", stored.Payment.PaidAmount)
	}
}

func TestGetBookingByBookingId_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetBookingByBookingId(context.Background(), "BKMISSING")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListPendingCancellations(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	pending, _, err := service.FindOrCreateBooking(ctx, checkoutParams("cust1", "tour1"))
	if err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}
	if _, _, err := service.FindOrCreateBooking(ctx, checkoutParams("cust2", "tour1")); err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}

	pending.Travelers[0].Cancellation.Requested = true
	if err := service.UpdateBooking(ctx, pending); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}

	bookings, err := service.ListPendingCancellations(ctx)
	if err != nil {
		t.Fatalf("ListPendingCancellations failed: %v", err)
	}
	if len(bookings) != 1 || bookings[0].BookingId != pending.BookingId {
		t.Fatalf("Expected only %s pending, got %+v", pending.BookingId, bookings)
	}
}
