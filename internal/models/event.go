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

const EventPaymentCaptured = "payment.captured"

// PaymentEvent is a verified payment confirmation, amounts already in major units.
type PaymentEvent struct {
	Event     string
	PaymentId string
	Amount    decimal.Decimal
	Currency  string
	Method    string
	CreatedAt time.Time
	Notes     PaymentNotes
}

// PaymentNotes is the business context the checkout attaches to a payment.
type PaymentNotes struct {
	BookingId       string
	TourId          string
	TourName        string
	AgentId         string
	TourStartDate   *time.Time
	PricePerHead    decimal.Decimal
	ActualOccupancy int
	GivenOccupancy  int
	GST             decimal.Decimal
	FinalAmount     decimal.Decimal
}
