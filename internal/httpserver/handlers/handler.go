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

package handlers

import (
	"context"

	"tour-settlement-go/internal/booking"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/webhook"

	"github.com/shopspring/decimal"
)

type Settler interface {
	Settle(ctx context.Context, event models.PaymentEvent) (*models.SettlementResult, error)
}

type Cancellations interface {
	Request(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, reason string) (*models.CancellationResult, error)
	Approve(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, deductionPercentage decimal.Decimal) (*models.CancellationResult, error)
	Reject(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string, reason string) (*models.CancellationResult, error)
	Withdraw(ctx context.Context, actor models.Actor, bookingId string, travelerIds []string) (*models.CancellationResult, error)
	ListPending(ctx context.Context, actor models.Actor) ([]models.Booking, error)
}

type Bookings interface {
	Checkout(ctx context.Context, actor models.Actor, req booking.CheckoutRequest) (*models.Booking, bool, error)
	Get(ctx context.Context, actor models.Actor, bookingId string) (*models.Booking, error)
}

type Wallets interface {
	HealthCheck(ctx context.Context) error
	GetAgentWallet(ctx context.Context, agentId string, limit, offset int) (*models.WalletSummary, error)
}

type Receipts interface {
	Generate(ctx context.Context, paymentId string) ([]byte, string, error)
}

// Handler serves every route. Dependencies are interfaces so handlers can be tested in isolation.
type Handler struct {
	settler         Settler
	cancellations   Cancellations
	bookings        Bookings
	wallets         Wallets
	receipts        Receipts
	verifier        *webhook.Verifier
	signatureHeader string
}

type Deps struct {
	Settler         Settler
	Cancellations   Cancellations
	Bookings        Bookings
	Wallets         Wallets
	Receipts        Receipts
	Verifier        *webhook.Verifier
	SignatureHeader string
}

func New(d Deps) *Handler {
	header := d.SignatureHeader
	if header == "" {
		header = "X-Razorpay-Signature"
	}
	return &Handler{
		settler:         d.Settler,
		cancellations:   d.Cancellations,
		bookings:        d.Bookings,
		wallets:         d.Wallets,
		receipts:        d.Receipts,
		verifier:        d.Verifier,
		signatureHeader: header,
	}
}
