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
	"github.com/shopspring/decimal"
)

// SettlementResult is returned for every accepted payment event
type SettlementResult struct {
	Booking     *Booking     `json:"booking,omitempty"`
	Transaction *Transaction `json:"transaction"`
	Replayed    bool         `json:"replayed"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// SkippedTraveler explains why a traveler in a batch was left untouched
type SkippedTraveler struct {
	TravelerId string        `json:"traveler_id"`
	Name       string        `json:"name,omitempty"`
	State      TravelerState `json:"state"`
}

// CancellationResult is returned by every cancellation transition
type CancellationResult struct {
	Booking           *Booking          `json:"booking"`
	Updated           []string          `json:"updated"`
	Skipped           []SkippedTraveler `json:"skipped"`
	TotalRefundAmount decimal.Decimal   `json:"total_refund_amount"`
	Message           string            `json:"message"`
}

// WalletSummary represents an agent's wallet with recent credits
type WalletSummary struct {
	AgentId string          `json:"agent_id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Entries []WalletEntry   `json:"entries"`
}
