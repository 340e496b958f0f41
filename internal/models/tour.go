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

// Tour represents a sellable tour departure
type Tour struct {
	Id                 string          `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	PricePerHead       decimal.Decimal `db:"price_per_head" json:"price_per_head"`
	AdultPrice         decimal.Decimal `db:"adult_price" json:"adult_price"`
	ChildPrice         decimal.Decimal `db:"child_price" json:"child_price"`
	GSTPercent         decimal.Decimal `db:"gst_percent" json:"gst_percent"`
	Occupancy          int             `db:"occupancy" json:"occupancy"`
	RemainingOccupancy int             `db:"remaining_occupancy" json:"remaining_occupancy"`
	StartDate          time.Time       `db:"start_date" json:"start_date"`
	Version            int64           `db:"version" json:"version"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// HasStarted reports whether the tour is no longer strictly in the future.
func (t Tour) HasStarted(now time.Time) bool {
	return !now.Before(t.StartDate)
}

// Agent represents a referral agent. ParentAgentId references the parent's AgentId.
type Agent struct {
	Id            string          `db:"id" json:"id"`
	AgentId       string          `db:"agent_id" json:"agent_id"`
	Name          string          `db:"name" json:"name"`
	Email         string          `db:"email" json:"email"`
	Pincode       string          `db:"pincode" json:"pincode"`
	ParentAgentId string          `db:"parent_agent_id" json:"parent_agent_id,omitempty"`
	WalletBalance decimal.Decimal `db:"-" json:"wallet_balance"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// AgentTourStats tracks one agent's onboarding on one tour departure.
type AgentTourStats struct {
	Id                 string          `db:"id"`
	AgentId            string          `db:"agent_id"`
	TourId             string          `db:"tour_id"`
	TourStartDate      time.Time       `db:"tour_start_date"`
	CustomerGiven      int             `db:"customer_given"`
	FinalAmount        decimal.Decimal `db:"final_amount"`
	CommissionReceived decimal.Decimal `db:"commission_received"`
	CommissionRate     decimal.Decimal `db:"commission_rate"`
	PaymentReceived    bool            `db:"payment_received"`
	Adults             int             `db:"adults"`
	Children           int             `db:"children"`
	Cancelled          int             `db:"cancelled"`
	Version            int64           `db:"version"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// TermsAndConditions is one version of a terms document for a type and tour.
type TermsAndConditions struct {
	Id        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	TourId    string    `db:"tour_id" json:"tour_id,omitempty"`
	Version   string    `db:"version" json:"version"`
	Content   string    `db:"content" json:"content"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	TermsTypeTour    = "tour"
	TermsTypeGeneral = "general"

	UserTypeCustomer = "Customer"
)

// UserAgreement records that a user accepted a terms version
type UserAgreement struct {
	Id       string    `db:"id" json:"id"`
	UserId   string    `db:"user_id" json:"user_id"`
	UserType string    `db:"user_type" json:"user_type"`
	TermsId  string    `db:"terms_id" json:"terms_id"`
	AgreedAt time.Time `db:"agreed_at" json:"agreed_at"`
}
