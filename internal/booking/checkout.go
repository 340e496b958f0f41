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

package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/locks"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	store.BookingStore
	GetTour(ctx context.Context, tourId string) (*models.Tour, error)
}

type TravelerInput struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type CheckoutRequest struct {
	TourId        string          `json:"tourId"`
	CustomerId    string          `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	AgentId       string          `json:"agentId"`
	Travelers     []TravelerInput `json:"travelers"`
}

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

// Checkout creates the pending booking for (customer, tour) or replaces the travelers
// of the existing pending one. A booking that is already paid cannot be changed here.
func (s *Service) Checkout(ctx context.Context, actor models.Actor, req CheckoutRequest) (*models.Booking, bool, error) {
	customer := models.CustomerSnapshot{
		CustomerId: req.CustomerId,
		Name:       strings.TrimSpace(req.CustomerName),
		Email:      strings.TrimSpace(req.CustomerEmail),
	}
	agentId := req.AgentId

	switch actor.Kind {
	case models.ActorCustomer:
		customer.CustomerId = actor.Id
	case models.ActorAgent:
		agentId = actor.Id
	default:
		return nil, false, domain.ForbiddenError{Msg: "only customers and agents can check out"}
	}
	if customer.CustomerId == "" {
		return nil, false, domain.ValidationError{Field: "customerId", Msg: "required"}
	}
	if req.TourId == "" {
		return nil, false, domain.ValidationError{Field: "tourId", Msg: "required"}
	}

	travelers, err := buildTravelers(req.Travelers)
	if err != nil {
		return nil, false, err
	}

	tour, err := s.store.GetTour(ctx, req.TourId)
	if err != nil {
		return nil, false, domain.FromStore("tour", err)
	}
	if tour.HasStarted(s.now()) {
		return nil, false, domain.ValidationError{Field: "tourId", Msg: "tour has already started"}
	}
	if len(travelers) > tour.RemainingOccupancy {
		return nil, false, domain.ValidationError{
			Field: "travelers",
			Msg:   fmt.Sprintf("only %d seats remaining", tour.RemainingOccupancy),
		}
	}

	booking, created, err := s.store.FindOrCreateBooking(ctx, store.CheckoutParams{
		Tour:      models.TourSnapshot{TourId: tour.Id, Name: tour.Name, StartDate: tour.StartDate},
		Customer:  customer,
		AgentId:   agentId,
		Travelers: travelers,
	})
	if err != nil {
		return nil, false, domain.FromStore("booking", err)
	}
	if created {
		return booking, true, nil
	}

	unlock := s.locks.Lock(locks.BookingKey(booking.BookingId))
	defer unlock()

	// Re-read under the lock so a concurrent settlement is not overwritten
	booking, err = s.store.GetBookingByBookingId(ctx, booking.BookingId)
	if err != nil {
		return nil, false, domain.FromStore("booking", err)
	}
	if booking.Status != models.BookingPending {
		return nil, false, domain.ConflictError{
			Resource: "booking",
			Msg:      fmt.Sprintf("booking %s is %s and can no longer change", booking.BookingId, booking.Status),
		}
	}

	booking.Travelers = travelers
	booking.Tour = models.TourSnapshot{TourId: tour.Id, Name: tour.Name, StartDate: tour.StartDate}
	if customer.Name != "" {
		booking.Customer.Name = customer.Name
	}
	if customer.Email != "" {
		booking.Customer.Email = customer.Email
	}
	if agentId != "" {
		booking.Agent = &models.AgentSnapshot{AgentId: agentId}
	}
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, false, domain.FromStore("booking", err)
	}

	zap.L().Info("Pending booking updated",
		zap.String("booking_id", booking.BookingId),
		zap.Int("travelers", len(travelers)))
	return booking, false, nil
}

func buildTravelers(inputs []TravelerInput) ([]models.Traveler, error) {
	if len(inputs) == 0 {
		return nil, domain.ValidationError{Field: "travelers", Msg: "at least one traveler is required"}
	}
	travelers := make([]models.Traveler, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, domain.ValidationError{Field: fmt.Sprintf("travelers[%d].name", i), Msg: "required"}
		}
		if in.Age < 0 || in.Age > 120 {
			return nil, domain.ValidationError{Field: fmt.Sprintf("travelers[%d].age", i), Msg: "out of range"}
		}
		travelers = append(travelers, models.Traveler{
			Id:     uuid.New().String(),
			Name:   name,
			Age:    in.Age,
			Gender: in.Gender,
		})
	}
	return travelers, nil
}

// Get returns a booking to its customer, its agent or a superadmin.
func (s *Service) Get(ctx context.Context, actor models.Actor, bookingId string) (*models.Booking, error) {
	if bookingId == "" {
		return nil, domain.ValidationError{Field: "bookingId", Msg: "is required"}
	}
	b, err := s.store.GetBookingByBookingId(ctx, bookingId)
	if err != nil {
		return nil, domain.FromStore("booking", err)
	}
	if !actor.IsAdmin() && !b.IsOwnedBy(actor) {
		return nil, domain.ForbiddenError{Msg: "booking does not belong to the requester"}
	}
	return b, nil
}
