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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// AdultAge is the minimum age at which a traveler counts as an adult.
const AdultAge = 18

// Booking is the aggregate a customer holds for one tour. Travelers, payment and
// snapshots are embedded and always persisted together.
type Booking struct {
	Id           string              `json:"id"`
	BookingId    string              `json:"booking_id"`
	Status       BookingStatus       `json:"status"`
	Tour         TourSnapshot        `json:"tour"`
	Customer     CustomerSnapshot    `json:"customer"`
	Travelers    []Traveler          `json:"travelers"`
	Payment      Payment             `json:"payment"`
	Agent        *AgentSnapshot      `json:"agent,omitempty"`
	Cancellation BookingCancellation `json:"cancellation"`
	Version      int64               `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type TourSnapshot struct {
	TourId    string    `json:"tour_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
}

type CustomerSnapshot struct {
	CustomerId string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

type AgentSnapshot struct {
	AgentId    string          `json:"agent_id"`
	Commission decimal.Decimal `json:"commission"`
}

// Payment is overwritten in full when a payment is captured.
type Payment struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        PaymentStatus   `json:"status"`
	Method        string          `json:"method,omitempty"`
	TransactionId string          `json:"transaction_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	Breakdown     []PaymentLine   `json:"breakdown,omitempty"`
}

type PaymentLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type BookingCancellation struct {
	Requested         bool            `json:"requested"`
	Approved          bool            `json:"approved"`
	Rejected          bool            `json:"rejected"`
	Reason            string          `json:"reason,omitempty"`
	RequestedBy       *Actor          `json:"requested_by,omitempty"`
	RequestedAt       *time.Time      `json:"requested_at,omitempty"`
	TotalRefundAmount decimal.Decimal `json:"total_refund_amount"`
}

type Traveler struct {
	Id           string               `json:"id"`
	Name         string               `json:"name"`
	Age          int                  `json:"age"`
	Gender       string               `json:"gender"`
	Cancellation TravelerCancellation `json:"cancellation"`
}

type TravelerCancellation struct {
	Requested    bool            `json:"requested"`
	Approved     bool            `json:"approved"`
	Rejected     bool            `json:"rejected"`
	Reason       string          `json:"reason,omitempty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

type TravelerState string

const (
	TravelerNone      TravelerState = "none"
	TravelerRequested TravelerState = "requested"
	TravelerApproved  TravelerState = "approved"
	TravelerRejected  TravelerState = "rejected"
)

// State collapses the three cancellation flags. A decision wins over a stale request flag.
func (t Traveler) State() TravelerState {
	switch {
	case t.Cancellation.Approved:
		return TravelerApproved
	case t.Cancellation.Rejected:
		return TravelerRejected
	case t.Cancellation.Requested:
		return TravelerRequested
	default:
		return TravelerNone
	}
}

func (t Traveler) IsAdult() bool {
	return t.Age >= AdultAge
}

// FindTraveler returns the index of the traveler with the given id, or -1.
func (b *Booking) FindTraveler(travelerId string) int {
	for i := range b.Travelers {
		if b.Travelers[i].Id == travelerId {
			return i
		}
	}
	return -1
}

// HasPendingCancellation reports whether an admin decision is outstanding.
func (b *Booking) HasPendingCancellation() bool {
	if b.Cancellation.Requested {
		return true
	}
	for _, t := range b.Travelers {
		if t.State() == TravelerRequested {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether the actor is the booking's customer or its agent.
func (b *Booking) IsOwnedBy(actor Actor) bool {
	switch actor.Kind {
	case ActorCustomer:
		return b.Customer.CustomerId == actor.Id
	case ActorAgent:
		return b.Agent != nil && b.Agent.AgentId == actor.Id
	default:
		return false
	}
}

// TravelerCounts is the per-booking age split used for agent statistics.
type TravelerCounts struct {
	Adults    int
	Children  int
	Cancelled int
}

func (b *Booking) CountTravelers() TravelerCounts {
	var c TravelerCounts
	for _, t := range b.Travelers {
		if t.State() == TravelerApproved {
			c.Cancelled++
		}
		if t.IsAdult() {
			c.Adults++
		} else {
			c.Children++
		}
	}
	return c
}
