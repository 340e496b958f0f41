package settlement

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tour-settlement-go/internal/agreement"
	"tour-settlement-go/internal/commission"
	"tour-settlement-go/internal/database"
	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/locks"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

var tourStart = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db        *database.Service
	processor *Processor
	booking   *models.Booking
	root      *models.Agent
	child     *models.Agent
}

func setupFixture(t *testing.T, occupancy int, ledger store.WalletLedger) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "settlement.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.UpsertTour(ctx, models.Tour{
		Id:           "tour1",
		Name:         "Spiti Valley",
		PricePerHead: decimal.NewFromInt(10000),
		GSTPercent:   decimal.NewFromInt(5),
		Occupancy:    occupancy,
		StartDate:    tourStart,
	}); err != nil {
		t.Fatalf("UpsertTour failed: %v", err)
	}

	root, err := db.CreateAgent(ctx, store.CreateAgentParams{Name: "Meera", Pincode: "560001", Year: 2025})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
	child, err := db.CreateAgent(ctx, store.CreateAgentParams{Name: "Dev", Pincode: "110001", Year: 2025, ParentAgentId: root.AgentId})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	booking, _, err := db.FindOrCreateBooking(ctx, store.CheckoutParams{
		Tour:     models.TourSnapshot{TourId: "tour1", Name: "Spiti Valley", StartDate: tourStart},
		Customer: models.CustomerSnapshot{CustomerId: "cust1", Name: "Asha"},
		Travelers: []models.Traveler{
			{Name: "Asha", Age: 34},
			{Name: "Ravi", Age: 9},
		},
	})
	if err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}

	if ledger == nil {
		ledger = db
	}
	processor := NewProcessor(db, ledger, agreement.NewRecorder(db),
		commission.NewCalculator(commission.DefaultTable(), db), locks.NewKeyed(), "INR")

	return &fixture{db: db, processor: processor, booking: booking, root: root, child: child}
}

func (f *fixture) event(agentId string, given, actualOccupancy int) models.PaymentEvent {
	return models.PaymentEvent{
		Event:     models.EventPaymentCaptured,
		PaymentId: "pay_1",
		Amount:    decimal.NewFromInt(10000),
		Currency:  "INR",
		Method:    "upi",
		CreatedAt: time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC),
		Notes: models.PaymentNotes{
			BookingId:       f.booking.BookingId,
			TourId:          "tour1",
			TourName:        "Spiti Valley",
			AgentId:         agentId,
			PricePerHead:    decimal.NewFromInt(5000),
			ActualOccupancy: actualOccupancy,
			GivenOccupancy:  given,
			GST:             decimal.NewFromInt(5),
			FinalAmount:     decimal.NewFromInt(10500),
		},
	}
}

func walletBalance(t *testing.T, f *fixture, agentId string) decimal.Decimal {
	t.Helper()
	balance, err := f.db.GetWalletBalance(context.Background(), agentId, "INR")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	return balance
}

func TestSettle_NoAgent(t *testing.T) {
	f := setupFixture(t, 20, nil)
	ctx := context.Background()

	result, err := f.processor.Settle(ctx, f.event("", 2, 20))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(result.Transaction.Commissions) != 0 {
		t.Errorf("Expected no commissions, got %+v", result.Transaction.Commissions)
	}

	booking, err := f.db.GetBookingByBookingId(ctx, f.booking.BookingId)
	if err != nil {
		t.Fatalf("GetBookingByBookingId failed: %v", err)
	}
	if booking.Status != models.BookingConfirmed || booking.Payment.Status != models.PaymentPaid {
		t.Errorf("Expected confirmed and paid, got %s/%s", booking.Status, booking.Payment.Status)
	}
	if !booking.Payment.TotalAmount.Equal(decimal.NewFromInt(10500)) {
		t.Errorf("Expected total 10500, got %s", booking.Payment.TotalAmount)
	}
	if booking.Payment.TransactionId != "pay_1" {
		t.Errorf("Expected transaction id pay_1, got %s", booking.Payment.TransactionId)
	}
	if len(booking.Payment.Breakdown) != 2 || !booking.Payment.Breakdown[1].Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Unexpected breakdown %+v", booking.Payment.Breakdown)
	}

	tour, err := f.db.GetTour(ctx, "tour1")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if tour.RemainingOccupancy != 18 {
		t.Errorf("Expected remaining 18, got %d", tour.RemainingOccupancy)
	}
}

func TestSettle_AgentWithoutParent(t *testing.T) {
	f := setupFixture(t, 20, nil)

	// 10 of 20 onboarded is 50%, which pays 8.5% at level 1
	result, err := f.processor.Settle(context.Background(), f.event(f.root.AgentId, 10, 20))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	commissions := result.Transaction.Commissions
	if len(commissions) != 1 {
		t.Fatalf("Expected 1 commission record, got %d", len(commissions))
	}
	if commissions[0].Level != 1 || !commissions[0].Amount.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Unexpected commission %+v", commissions[0])
	}
	if got := walletBalance(t, f, f.root.AgentId); !got.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Expected wallet 850, got %s", got)
	}
	if !result.Booking.Agent.Commission.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Expected booking agent commission 850, got %s", result.Booking.Agent.Commission)
	}

	stats, err := f.db.GetOrCreateAgentTourStats(context.Background(), store.StatsKey{
		AgentId: f.root.AgentId, TourId: "tour1", TourStartDate: tourStart,
	})
	if err != nil {
		t.Fatalf("GetOrCreateAgentTourStats failed: %v", err)
	}
	if stats.CustomerGiven != 10 || !stats.PaymentReceived || stats.Adults != 1 || stats.Children != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestSettle_AgentWithParent(t *testing.T) {
	f := setupFixture(t, 20, nil)

	// 4 of 20 is 20%: 7% to the agent, 2.5% to the parent
	result, err := f.processor.Settle(context.Background(), f.event(f.child.AgentId, 4, 20))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	commissions := result.Transaction.Commissions
	if len(commissions) != 2 {
		t.Fatalf("Expected 2 commission records, got %d", len(commissions))
	}
	if got := walletBalance(t, f, f.child.AgentId); !got.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Expected level 1 wallet 700, got %s", got)
	}
	if got := walletBalance(t, f, f.root.AgentId); !got.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected level 2 wallet 250, got %s", got)
	}
}

func TestSettle_ReplayIsIdempotent(t *testing.T) {
	f := setupFixture(t, 20, nil)
	ctx := context.Background()
	event := f.event(f.root.AgentId, 10, 20)

	if _, err := f.processor.Settle(ctx, event); err != nil {
		t.Fatalf("First Settle failed: %v", err)
	}
	result, err := f.processor.Settle(ctx, event)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !result.Replayed {
		t.Error("Expected replay to be reported")
	}

	if got := walletBalance(t, f, f.root.AgentId); !got.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Replay changed wallet to %s", got)
	}
	tour, err := f.db.GetTour(ctx, "tour1")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if tour.RemainingOccupancy != 10 {
		t.Errorf("Expected remaining 10, got %d", tour.RemainingOccupancy)
	}
}

func TestSettle_InventoryFlooredAtZero(t *testing.T) {
	f := setupFixture(t, 2, nil)

	if _, err := f.processor.Settle(context.Background(), f.event("", 5, 2)); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	tour, err := f.db.GetTour(context.Background(), "tour1")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if tour.RemainingOccupancy != 0 {
		t.Errorf("Expected remaining 0, got %d", tour.RemainingOccupancy)
	}
}

func TestSettle_Errors(t *testing.T) {
	f := setupFixture(t, 20, nil)

	missingBooking := f.event("", 2, 20)
	missingBooking.Notes.BookingId = "BKMISSING"

	missingTourName := f.event("", 2, 20)
	missingTourName.Notes.TourName = ""

	wrongTour := f.event("", 2, 20)
	wrongTour.Notes.TourId = "tour2"

	tests := []struct {
		name  string
		event models.PaymentEvent
		check func(error) bool
	}{
		{"missing booking", missingBooking, domain.IsNotFound},
		{"missing tour name", missingTourName, domain.IsValidation},
		{"tour mismatch", wrongTour, domain.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.processor.Settle(context.Background(), tt.event)
			if !tt.check(err) {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}

func TestSettle_UnknownAgentIsWarning(t *testing.T) {
	f := setupFixture(t, 20, nil)

	result, err := f.processor.Settle(context.Background(), f.event("TA9999992025001", 2, 20))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning for the unknown agent")
	}
	if len(result.Transaction.Commissions) != 0 {
		t.Errorf("Expected no commissions, got %+v", result.Transaction.Commissions)
	}
}

// flakyLedger fails the first credit and then delegates.
type flakyLedger struct {
	store.WalletLedger
	failures int
}

func (l *flakyLedger) CreditWallet(ctx context.Context, params store.CreditWalletParams) (*models.WalletEntry, error) {
	if l.failures > 0 {
		l.failures--
		return nil, errors.New("ledger unavailable")
	}
	return l.WalletLedger.CreditWallet(ctx, params)
}

func TestSettle_FailedCreditCompletesOnReplay(t *testing.T) {
	ledger := &flakyLedger{failures: 1}
	f := setupFixture(t, 20, ledger)
	ledger.WalletLedger = f.db
	ctx := context.Background()
	event := f.event(f.root.AgentId, 10, 20)

	_, err := f.processor.Settle(ctx, event)
	if !domain.IsInternal(err) {
		t.Fatalf("Expected internal error for failed credit, got %v", err)
	}
	if got := walletBalance(t, f, f.root.AgentId); !got.IsZero() {
		t.Fatalf("Expected empty wallet after failure, got %s", got)
	}

	result, err := f.processor.Settle(ctx, event)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !result.Replayed {
		t.Error("Expected replay")
	}
	if got := walletBalance(t, f, f.root.AgentId); !got.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Expected wallet 850 after replay, got %s", got)
	}
}

func TestSettle_ZeroGivenLeavesInventory(t *testing.T) {
	f := setupFixture(t, 20, nil)
	ctx := context.Background()

	result, err := f.processor.Settle(ctx, f.event("", 0, 20))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	tour, err := f.db.GetTour(ctx, "tour1")
	if err != nil {
		t.Fatalf("GetTour failed: %v", err)
	}
	if tour.RemainingOccupancy != 20 {
		t.Errorf("Expected remaining 20, got %d", tour.RemainingOccupancy)
	}
	if base := result.Booking.Payment.Breakdown[0].Amount; !base.IsZero() {
		t.Errorf("Expected zero base price, got %s", base)
	}
}

func TestSettle_ZeroActualOccupancyUsesFloorTier(t *testing.T) {
	f := setupFixture(t, 20, nil)
	ctx := context.Background()

	// No percentage can be computed, so the 0% tier pays 7%
	result, err := f.processor.Settle(ctx, f.event(f.root.AgentId, 10, 0))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	commissions := result.Transaction.Commissions
	if len(commissions) != 1 || !commissions[0].Amount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("Expected one commission of 700, got %+v", commissions)
	}

	stats, err := f.db.GetOrCreateAgentTourStats(ctx, store.StatsKey{
		AgentId: f.root.AgentId, TourId: "tour1", TourStartDate: tourStart,
	})
	if err != nil {
		t.Fatalf("GetOrCreateAgentTourStats failed: %v", err)
	}
	if !stats.CommissionRate.Equal(decimal.NewFromInt(7)) || stats.CustomerGiven != 10 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestSettle_StatsAccumulateAcrossBookings(t *testing.T) {
	f := setupFixture(t, 20, nil)
	ctx := context.Background()

	if _, err := f.processor.Settle(ctx, f.event(f.root.AgentId, 2, 20)); err != nil {
		t.Fatalf("First Settle failed: %v", err)
	}

	second, _, err := f.db.FindOrCreateBooking(ctx, store.CheckoutParams{
		Tour:      models.TourSnapshot{TourId: "tour1", Name: "Spiti Valley", StartDate: tourStart},
		Customer:  models.CustomerSnapshot{CustomerId: "cust2", Name: "Kiran"},
		Travelers: []models.Traveler{{Name: "Kiran", Age: 41}},
	})
	if err != nil {
		t.Fatalf("FindOrCreateBooking failed: %v", err)
	}
	event := f.event(f.root.AgentId, 1, 20)
	event.PaymentId = "pay_2"
	event.Notes.BookingId = second.BookingId
	if _, err := f.processor.Settle(ctx, event); err != nil {
		t.Fatalf("Second Settle failed: %v", err)
	}

	stats, err := f.db.GetOrCreateAgentTourStats(ctx, store.StatsKey{
		AgentId: f.root.AgentId, TourId: "tour1", TourStartDate: tourStart,
	})
	if err != nil {
		t.Fatalf("GetOrCreateAgentTourStats failed: %v", err)
	}
	if stats.CustomerGiven != 3 || stats.Adults != 2 || stats.Children != 1 || stats.Cancelled != 0 {
		t.Errorf("Expected cumulative given=3 adults=2 children=1, got %+v", stats)
	}
}
