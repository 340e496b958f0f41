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
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the immutable record of one settled payment (cold data)
type Transaction struct {
	Id          string             `db:"id" json:"id"`
	PaymentId   string             `db:"payment_id" json:"payment_id"`
	BookingId   string             `db:"booking_id" json:"booking_id"`
	TourId      string             `db:"tour_id" json:"tour_id"`
	CustomerId  string             `db:"customer_id" json:"customer_id"`
	AgentId     string             `db:"agent_id" json:"agent_id,omitempty"`
	TotalAmount decimal.Decimal    `db:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal    `db:"paid_amount" json:"paid_amount"`
	Currency    string             `db:"currency" json:"currency"`
	Method      string             `db:"method" json:"method"`
	Commissions []CommissionRecord `db:"-" json:"commissions"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

// CommissionRecord is one level of the referral chain paid for a transaction.
type CommissionRecord struct {
	AgentId string          `db:"agent_id" json:"agent_id"`
	Level   int             `db:"level" json:"level"`
	Amount  decimal.Decimal `db:"amount" json:"amount"`
	Rate    decimal.Decimal `db:"rate" json:"rate"`
}

// WalletReference is the idempotency key of a commission credit.
func (c CommissionRecord) WalletReference(paymentId string) string {
	return paymentId + ":L" + strconv.Itoa(c.Level) + ":" + c.AgentId
}

// WalletBalance represents current wallet state (hot data)
type WalletBalance struct {
	Id          string          `db:"id"`
	AgentId     string          `db:"agent_id"`
	Currency    string          `db:"currency"`
	Balance     decimal.Decimal `db:"balance"`
	LastEntryId string          `db:"last_entry_id"`
	Version     int64           `db:"version"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// WalletEntry represents one immutable wallet credit (cold data)
type WalletEntry struct {
	Id            string          `db:"id" json:"id"`
	AgentId       string          `db:"agent_id" json:"agent_id"`
	Currency      string          `db:"currency" json:"currency"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reference     string          `db:"reference" json:"reference"`
	TransactionId string          `db:"transaction_id" json:"transaction_id"`
	Level         int             `db:"level" json:"level"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
