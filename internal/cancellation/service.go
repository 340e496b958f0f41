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

package cancellation

import (
	"context"
	"time"

	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/locks"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Store interface {
	store.BookingStore
	GetTour(ctx context.Context, tourId string) (*models.Tour, error)
}

// Service runs traveler cancellation transitions. Each call loads the booking under
// its lock, applies the whole batch in memory and writes it back once.
type Service struct {
	store Store
	locks *locks.Keyed
	now   func() time.Time
}

func NewService(s Store, keyed *locks.Keyed, clock func() time.Time) *Service {
	if keyed == nil {
		keyed = locks.NewKeyed()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: s, locks: keyed, now: clock}
}

// Request asks for cancellation of the given travelers, or the whole booking when
// travelerIds is empty. Only the booking's customer or agent may ask.
func (s *Service) Request(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, reason string) (*models.CancellationResult, error) {
	return s.transition(ctx, bookingId, "cancellation requested for", func(b *models.Booking, tour *models.Tour, now time.Time) (batch, error) {
		if actor.Kind != models.ActorAgent && actor.Kind != models.ActorCustomer {
			return batch{}, domain.ForbiddenError{Msg: "only the booking's customer or agent can request cancellation"}
		}
		if !b.IsOwnedBy(actor) {
			return batch{}, domain.ForbiddenError{Msg: "booking does not belong to the requester"}
		}
		if err := requireFutureTour(tour, now); err != nil {
			return batch{}, err
		}
		return applyRequest(b, travelerIds, reason, actor, now), nil
	})
}

// Approve confirms requested cancellations and refunds each traveler the tour price
// less deductionPercentage.
func (s *Service) Approve(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, deductionPercentage decimal.Decimal) (*models.CancellationResult, error) {
	if !actor.IsAdmin() {
		return nil, domain.ForbiddenError{Msg: "only a superadmin can approve cancellations"}
	}
	if len(travelerIds) == 0 {
		return nil, domain.ValidationError{Field: "travelerIds", Msg: "at least one traveler is required"}
	}
	if deductionPercentage.IsNegative() || deductionPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.ValidationError{Field: "deductionPercentage", Msg: "must be between 0 and 100"}
	}

	return s.transition(ctx, bookingId, "cancellation approved for", func(b *models.Booking, tour *models.Tour, now time.Time) (batch, error) {
		if err := requireFutureTour(tour, now); err != nil {
			return batch{}, err
		}
		refund := tour.PricePerHead.
			Mul(decimal.NewFromInt(100).Sub(deductionPercentage)).
			Div(decimal.NewFromInt(100)).
			Round(2)
		return applyApprove(b, travelerIds, refund, now), nil
	})
}

// Reject declines requested cancellations with a reason. An empty id list rejects
// every requested traveler.
func (s *Service) Reject(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, reason string) (*models.CancellationResult, error) {
	if !actor.IsAdmin() {
		return nil, domain.ForbiddenError{Msg: "only a superadmin can reject cancellations"}
	}

	return s.transition(ctx, bookingId, "cancellation rejected for", func(b *models.Booking, tour *models.Tour, now time.Time) (batch, error) {
		if err := requireFutureTour(tour, now); err != nil {
			return batch{}, err
		}
		return applyReject(b, travelerIds, reason, now), nil
	})
}

// Withdraw lets the booking's agent take back pending requests. It is allowed after
// the tour has started.
func (s *Service) Withdraw(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string) (*models.CancellationResult, error) {
	if actor.Kind != models.ActorAgent {
		return nil, domain.ForbiddenError{Msg: "only the booking's agent can withdraw a cancellation"}
	}

	return s.transition(ctx, bookingId, "cancellation withdrawn for", func(b *models.Booking, _ *models.Tour, now time.Time) (batch, error) {
		if b.Agent == nil || b.Agent.AgentId != actor.Id {
			return batch{}, domain.ForbiddenError{Msg: "booking does not belong to this agent"}
		}
		return applyWithdraw(b, travelerIds, now), nil
	})
}

func (s *Service) ListPending(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ForbiddenError{Msg: "only a superadmin can list pending cancellations"}
	}
	bookings, err := s.store.ListPendingCancellations(ctx)
	if err != nil {
		return nil, domain.FromStore("booking", err)
	}
	return bookings, nil
}

type applyFunc func(b *models.Booking, tour *models.Tour, now time.Time) (batch, error)

func (s *Service) transition(ctx context.Context, bookingId, action string, apply applyFunc) (*models.CancellationResult, error) {
	if bookingId == "" {
		return nil, domain.ValidationError{Field: "bookingId", Msg: "required"}
	}

	unlock := s.locks.Lock(locks.BookingKey(bookingId))
	defer unlock()

	booking, err := s.store.GetBookingByBookingId(ctx, bookingId)
	if err != nil {
		return nil, domain.FromStore("booking", err)
	}
	tour, err := s.store.GetTour(ctx, booking.Tour.TourId)
	if err != nil {
		return nil, domain.FromStore("tour", err)
	}

	out, err := apply(booking, tour, s.now().UTC())
	if err != nil {
		return nil, err
	}
	message := describe(action, out)
	if len(out.updated) == 0 {
		return nil, domain.ValidationError{Field: "travelerIds", Msg: "no eligible travelers: " + message}
	}

	deriveFlags(booking)
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, domain.FromStore("booking", err)
	}

	zap.L().Info("Cancellation transition applied",
		zap.String("booking_id", bookingId),
		zap.String("request_id", models.RequestIdFrom(ctx)),
		zap.String("action", action),
		zap.Strings("updated", out.updated),
		zap.Int("skipped", len(out.skipped)),
		zap.String("status", string(booking.Status)))

	return &models.CancellationResult{
		Booking:           booking,
		Updated:           out.updated,
		Skipped:           out.skipped,
		TotalRefundAmount: out.refund,
		Message:           message,
	}, nil
}

func requireFutureTour(tour *models.Tour, now time.Time) error {
	if tour.HasStarted(now) {
		return domain.ValidationError{Field: "tour", Msg: "tour has already started"}
	}
	return nil
}
