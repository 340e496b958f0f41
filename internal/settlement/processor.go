/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour-settlement-go/internal/commission"
	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/locks"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const statsDateLayout = "2006-01-02"

// Store is the persistence the processor needs.
type Store interface {
	store.BookingStore
	store.TourStore
	store.AgentStore
	store.StatsStore
	store.TransactionStore
}

type AgreementRecorder interface {
	RecordForTour(ctx context.Context, customerId, tourId string) (*models.UserAgreement, bool, error)
}

// Processor applies a verified payment: confirms the booking, updates inventory and
// agent statistics, records the transaction and credits commissions.
type Processor struct {
	store      Store
	ledger     store.WalletLedger
	agreements AgreementRecorder
	calculator *commission.Calculator
	locks      *locks.Keyed
	currency   string
}

func NewProcessor(
	s Store,
	ledger store.WalletLedger,
	agreements AgreementRecorder,
	calculator *commission.Calculator,
	keyed *locks.Keyed,
	currency string,
) *Processor {
	if keyed == nil {
		keyed = locks.NewKeyed()
	}
	if currency == "" {
		currency = "INR"
	}
	return &Processor{
		store:      s,
		ledger:     ledger,
		agreements: agreements,
		calculator: calculator,
		locks:      keyed,
		currency:   currency,
	}
}

func (p *Processor) Settle(ctx context.Context, event models.PaymentEvent) (*models.SettlementResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	notes := event.Notes

	log := zap.L().With(
		zap.String("payment_id", event.PaymentId),
		zap.String("booking_id", notes.BookingId),
		zap.String("request_id", models.RequestIdFrom(ctx)))

	unlock := p.locks.Lock(locks.BookingKey(notes.BookingId))
	defer unlock()

	existing, err := p.store.GetTransactionByPaymentId(ctx, event.PaymentId)
	if err == nil {
		return p.replay(ctx, existing, log)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, domain.FromStore("transaction", err)
	}

	booking, err := p.store.GetBookingByBookingId(ctx, notes.BookingId)
	if err != nil {
		return nil, domain.FromStore("booking", err)
	}
	if booking.Tour.TourId != notes.TourId {
		return nil, domain.ValidationError{Field: "tourID", Msg: fmt.Sprintf("booking %s is for tour %s", booking.BookingId, booking.Tour.TourId)}
	}
	if booking.Status == models.BookingCancelled {
		return nil, domain.ConflictError{Resource: "booking", Msg: "booking is cancelled"}
	}
	tour, err := p.store.GetTour(ctx, notes.TourId)
	if err != nil {
		return nil, domain.FromStore("tour", err)
	}

	result := &models.SettlementResult{}
	warn := func(msg string, fields ...zap.Field) {
		log.Warn(msg, fields...)
		result.Warnings = append(result.Warnings, msg)
	}

	if _, _, err := p.agreements.RecordForTour(ctx, booking.Customer.CustomerId, tour.Id); err != nil {
		warn("failed to record terms agreement", zap.Error(err))
	}

	alreadyApplied := booking.Status == models.BookingConfirmed && booking.Payment.TransactionId == event.PaymentId
	given := notes.GivenOccupancy

	confirm(booking, event, given)
	if err := p.store.UpdateBooking(ctx, booking); err != nil {
		return nil, domain.FromStore("booking", err)
	}
	log.Info("Booking confirmed", zap.Bool("resumed", alreadyApplied))

	counts := booking.CountTravelers()

	if alreadyApplied {
		log.Info("Inventory already decremented by an earlier attempt")
	} else if updated, err := p.store.DecrementRemainingOccupancy(ctx, tour.Id, given); err != nil {
		warn("failed to decrement tour inventory", zap.Error(err))
	} else {
		tour = updated
	}

	var records []models.CommissionRecord
	if notes.AgentId != "" {
		records = p.applyAgentCommission(ctx, event, booking, tour, given, alreadyApplied, counts, warn)
	}

	agentId := notes.AgentId
	if agentId == "" && booking.Agent != nil {
		agentId = booking.Agent.AgentId
	}
	txn := &models.Transaction{
		PaymentId:   event.PaymentId,
		BookingId:   booking.BookingId,
		TourId:      tour.Id,
		CustomerId:  booking.Customer.CustomerId,
		AgentId:     agentId,
		TotalAmount: booking.Payment.TotalAmount,
		PaidAmount:  event.Amount,
		Currency:    p.currencyFor(event),
		Method:      event.Method,
		Commissions: records,
	}
	if err := p.store.CreateTransaction(ctx, txn); err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			return nil, domain.ConflictError{Resource: "transaction", Msg: "payment already recorded", Err: err}
		}
		return nil, domain.FromStore("transaction", err)
	}

	result.Booking = booking
	result.Transaction = txn

	if err := p.creditWallets(ctx, txn, log); err != nil {
		return result, domain.InternalError{Msg: "commission credits incomplete, retry the event", Err: err}
	}

	log.Info("Payment settled",
		zap.String("amount", event.Amount.String()),
		zap.Int("commissions", len(records)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// replay finishes wallet credits for a payment whose transaction is already recorded.
func (p *Processor) replay(ctx context.Context, txn *models.Transaction, log *zap.Logger) (*models.SettlementResult, error) {
	log.Info("Payment already settled, replaying wallet credits", zap.String("transaction_id", txn.Id))

	result := &models.SettlementResult{Transaction: txn, Replayed: true}
	if booking, err := p.store.GetBookingByBookingId(ctx, txn.BookingId); err == nil {
		result.Booking = booking
	} else {
		log.Warn("Failed to load booking for replay", zap.Error(err))
		result.Warnings = append(result.Warnings, "failed to load booking for replay")
	}

	if err := p.creditWallets(ctx, txn, log); err != nil {
		return result, domain.InternalError{Msg: "commission credits incomplete, retry the event", Err: err}
	}
	return result, nil
}

func (p *Processor) applyAgentCommission(
	ctx context.Context,
	event models.PaymentEvent,
	booking *models.Booking,
	tour *models.Tour,
	given int,
	alreadyApplied bool,
	counts models.TravelerCounts,
	warn func(string, ...zap.Field),
) []models.CommissionRecord {
	notes := event.Notes

	agent, err := p.store.GetAgentByAgentId(ctx, notes.AgentId)
	if err != nil {
		warn(fmt.Sprintf("agent %s could not be resolved, no commission paid", notes.AgentId), zap.Error(err))
		return nil
	}

	startDate := booking.Tour.StartDate
	if notes.TourStartDate != nil {
		startDate = *notes.TourStartDate
	} else if startDate.IsZero() {
		startDate = tour.StartDate
	}

	unlock := p.locks.Lock(locks.StatsKey(agent.AgentId, tour.Id, startDate.UTC().Format(statsDateLayout)))
	defer unlock()

	stats, err := p.store.GetOrCreateAgentTourStats(ctx, store.StatsKey{
		AgentId:       agent.AgentId,
		TourId:        tour.Id,
		TourStartDate: startDate,
	})
	if err != nil {
		warn("failed to load agent tour stats, no commission paid", zap.Error(err))
		return nil
	}

	increment := given
	if alreadyApplied {
		increment = 0
	}
	newGiven := stats.CustomerGiven + increment
	percentage := commission.UpdatedPercentage(newGiven, notes.ActualOccupancy)
	rate := p.calculator.Table().Rate(percentage, 1)

	records, chainWarnings := p.calculator.Distribute(ctx, agent, percentage, event.Amount)
	for _, w := range chainWarnings {
		warn(w)
	}

	levelOne := decimal.Zero
	for _, record := range records {
		if record.Level == 1 {
			levelOne = record.Amount
		}
	}

	stats.CustomerGiven = newGiven
	stats.FinalAmount = event.Amount
	stats.CommissionReceived = levelOne
	stats.CommissionRate = rate
	stats.PaymentReceived = true
	if !alreadyApplied {
		stats.Adults += counts.Adults
		stats.Children += counts.Children
		stats.Cancelled += counts.Cancelled
	}
	if err := p.store.UpdateAgentTourStats(ctx, stats); err != nil {
		warn("failed to persist agent tour stats", zap.Error(err))
	}

	if booking.Agent == nil {
		booking.Agent = &models.AgentSnapshot{AgentId: agent.AgentId}
	}
	booking.Agent.Commission = levelOne
	if err := p.store.UpdateBooking(ctx, booking); err != nil {
		warn("failed to store agent commission on booking", zap.Error(err))
	}

	zap.L().Info("Agent commission computed",
		zap.String("agent_id", agent.AgentId),
		zap.Int("customer_given", newGiven),
		zap.String("percentage", percentage.StringFixed(2)),
		zap.String("rate", rate.String()),
		zap.Int("records", len(records)))
	return records
}

// creditWallets applies every commission record. References make the credits
// idempotent, so this is safe to repeat.
func (p *Processor) creditWallets(ctx context.Context, txn *models.Transaction, log *zap.Logger) error {
	var errs []error
	for _, record := range txn.Commissions {
		reference := record.WalletReference(txn.PaymentId)
		_, err := p.ledger.CreditWallet(ctx, store.CreditWalletParams{
			AgentId:       record.AgentId,
			Currency:      txn.Currency,
			Amount:        record.Amount,
			Reference:     reference,
			TransactionId: txn.Id,
			Level:         record.Level,
		})
		switch {
		case err == nil:
		case errors.Is(err, store.ErrDuplicateTransaction):
			log.Debug("Wallet credit already applied", zap.String("reference", reference))
		default:
			log.Error("Failed to credit wallet",
				zap.String("agent_id", record.AgentId),
				zap.String("reference", reference),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("credit %s: %w", reference, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Processor) currencyFor(event models.PaymentEvent) string {
	if event.Currency != "" {
		return event.Currency
	}
	return p.currency
}

// confirm overwrites the booking's payment with the captured one.
func confirm(booking *models.Booking, event models.PaymentEvent, given int) {
	notes := event.Notes

	total := notes.FinalAmount
	if total.IsZero() {
		total = event.Amount
	}
	base := notes.PricePerHead.Mul(decimal.NewFromInt(int64(given)))
	gst := base.Mul(notes.GST).Div(decimal.NewFromInt(100)).Round(2)

	paidAt := event.CreatedAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	booking.Status = models.BookingConfirmed
	booking.Payment = models.Payment{
		TotalAmount:   total,
		PaidAmount:    event.Amount,
		Status:        models.PaymentPaid,
		Method:        event.Method,
		TransactionId: event.PaymentId,
		PaidAt:        &paidAt,
		Breakdown: []models.PaymentLine{
			{Label: "Base price", Amount: base},
			{Label: "GST", Amount: gst},
		},
	}
}

func validateEvent(event models.PaymentEvent) error {
	switch {
	case event.PaymentId == "":
		return domain.ValidationError{Field: "paymentID", Msg: "required"}
	case event.Notes.BookingId == "":
		return domain.ValidationError{Field: "bookingID", Msg: "required"}
	case event.Notes.TourId == "":
		return domain.ValidationError{Field: "tourID", Msg: "required"}
	case event.Notes.TourName == "":
		return domain.ValidationError{Field: "tourName", Msg: "required"}
	case !event.Amount.IsPositive():
		return domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	return nil
}
