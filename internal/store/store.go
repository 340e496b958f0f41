package store

import (
	"context"
	"errors"
	"time"

	"tour-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrDuplicateAgreement     = errors.New("duplicate agreement")
	ErrDuplicateAgent         = errors.New("duplicate agent id")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// CheckoutParams contains the parameters for find-or-create of a pending booking.
type CheckoutParams struct {
	Tour      models.TourSnapshot
	Customer  models.CustomerSnapshot
	AgentId   string
	Travelers []models.Traveler
}

// CreateAgentParams contains the parameters for onboarding an agent.
// AgentId is derived by the store from ParentAgentId, Pincode and Year.
type CreateAgentParams struct {
	Name          string
	Email         string
	Pincode       string
	ParentAgentId string
	Year          int
}

// StatsKey identifies one AgentTourStats record.
type StatsKey struct {
	AgentId       string
	TourId        string
	TourStartDate time.Time
}

// CreditWalletParams describes one additive wallet credit. Reference is the idempotency key.
type CreditWalletParams struct {
	AgentId       string
	Currency      string
	Amount        decimal.Decimal
	Reference     string
	TransactionId string
	Level         int
}

type BookingStore interface {
	GetBookingByBookingId(ctx context.Context, bookingId string) (*models.Booking, error)
	// FindOrCreateBooking returns the booking for (customer, tour), creating it if absent.
	// created reports whether a new row was inserted.
	FindOrCreateBooking(ctx context.Context, params CheckoutParams) (booking *models.Booking, created bool, err error)
	// UpdateBooking replaces the stored document if booking.Version still matches,
	// then advances booking.Version.
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ListPendingCancellations(ctx context.Context) ([]models.Booking, error)
}

type TourStore interface {
	GetTour(ctx context.Context, tourId string) (*models.Tour, error)
	UpsertTour(ctx context.Context, tour models.Tour) error
	// DecrementRemainingOccupancy lowers inventory by count, floored at zero.
	DecrementRemainingOccupancy(ctx context.Context, tourId string, count int) (*models.Tour, error)
}

type AgentStore interface {
	GetAgentByAgentId(ctx context.Context, agentId string) (*models.Agent, error)
	GetAgents(ctx context.Context) ([]models.Agent, error)
	CreateAgent(ctx context.Context, params CreateAgentParams) (*models.Agent, error)
}

type StatsStore interface {
	GetOrCreateAgentTourStats(ctx context.Context, key StatsKey) (*models.AgentTourStats, error)
	UpdateAgentTourStats(ctx context.Context, stats *models.AgentTourStats) error
}

type TransactionStore interface {
	GetTransactionByPaymentId(ctx context.Context, paymentId string) (*models.Transaction, error)
	// CreateTransaction fails with ErrDuplicateTransaction when the payment id was already recorded.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
}

type TermsStore interface {
	GetActiveTerms(ctx context.Context, termsType, tourId string) (*models.TermsAndConditions, error)
	CreateTerms(ctx context.Context, terms models.TermsAndConditions) (*models.TermsAndConditions, error)
	GetUserAgreement(ctx context.Context, userId, userType, termsId string) (*models.UserAgreement, error)
	// CreateUserAgreement fails with ErrDuplicateAgreement when the pair already exists.
	CreateUserAgreement(ctx context.Context, agreement models.UserAgreement) (*models.UserAgreement, error)
}

// WalletLedger defines the contract that every wallet backend (SQLite, Formance, ...) must satisfy.
type WalletLedger interface {
	// CreditWallet fails with ErrDuplicateTransaction when Reference was already applied.
	CreditWallet(ctx context.Context, params CreditWalletParams) (*models.WalletEntry, error)
	GetWalletBalance(ctx context.Context, agentId, currency string) (decimal.Decimal, error)
	GetWalletHistory(ctx context.Context, agentId, currency string, limit, offset int) ([]models.WalletEntry, error)
	ReconcileWallet(ctx context.Context, agentId, currency string) error
	Close()
}
