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

package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Stringish accepts a JSON string, number or bool and keeps its text.
type Stringish string

func (s *Stringish) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null" || len(b) == 0:
		*s = ""
		return nil
	case len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Stringish(strings.TrimSpace(str))
		return nil
	default:
		*s = Stringish(strings.Trim(string(b), `"`))
		return nil
	}
}

func (s Stringish) String() string { return string(s) }

type envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type paymentEntity struct {
	Id        string    `json:"id"`
	Amount    Stringish `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	CreatedAt Stringish `json:"created_at"`
	Notes     notes     `json:"notes"`
}

type notes struct {
	BookingId       Stringish `json:"bookingID"`
	TourId          Stringish `json:"tourID"`
	TourName        Stringish `json:"tourName"`
	AgentId         Stringish `json:"agentID"`
	TourStartDate   Stringish `json:"tourStartDate"`
	PricePerHead    Stringish `json:"tourPricePerHead"`
	ActualOccupancy Stringish `json:"tourActualOccupancy"`
	GivenOccupancy  Stringish `json:"tourGivenOccupancy"`
	GST             Stringish `json:"GST"`
	FinalAmount     Stringish `json:"finalAmount"`
}

// ParsePaymentEvent decodes a gateway webhook body. Events other than a capture are
// returned with only Event set; callers ignore them.
func ParsePaymentEvent(body []byte) (*models.PaymentEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.ValidationError{Field: "body", Msg: "malformed webhook payload", Err: err}
	}
	if env.Event != models.EventPaymentCaptured {
		return &models.PaymentEvent{Event: env.Event}, nil
	}

	entity := env.Payload.Payment.Entity
	n := entity.Notes
	switch {
	case entity.Id == "":
		return nil, domain.ValidationError{Field: "payment.id", Msg: "required"}
	case n.BookingId == "":
		return nil, domain.ValidationError{Field: "bookingID", Msg: "required"}
	case n.TourId == "":
		return nil, domain.ValidationError{Field: "tourID", Msg: "required"}
	case n.TourName == "":
		return nil, domain.ValidationError{Field: "tourName", Msg: "required"}
	}

	minor, err := parseInt("amount", entity.Amount, true)
	if err != nil {
		return nil, err
	}
	createdAt := time.Now().UTC()
	if entity.CreatedAt != "" {
		epoch, err := parseInt("created_at", entity.CreatedAt, false)
		if err != nil {
			return nil, err
		}
		createdAt = time.Unix(epoch, 0).UTC()
	}

	event := &models.PaymentEvent{
		Event:     env.Event,
		PaymentId: entity.Id,
		Amount:    decimal.New(minor, -2),
		Currency:  strings.ToUpper(entity.Currency),
		Method:    entity.Method,
		CreatedAt: createdAt,
		Notes: models.PaymentNotes{
			BookingId: n.BookingId.String(),
			TourId:    n.TourId.String(),
			TourName:  n.TourName.String(),
			AgentId:   n.AgentId.String(),
		},
	}

	if event.Notes.TourStartDate, err = parseDate("tourStartDate", n.TourStartDate); err != nil {
		return nil, err
	}
	if event.Notes.PricePerHead, err = parseAmount("tourPricePerHead", n.PricePerHead); err != nil {
		return nil, err
	}
	if event.Notes.GST, err = parseAmount("GST", n.GST); err != nil {
		return nil, err
	}
	if event.Notes.FinalAmount, err = parseAmount("finalAmount", n.FinalAmount); err != nil {
		return nil, err
	}
	actual, err := parseInt("tourActualOccupancy", n.ActualOccupancy, false)
	if err != nil {
		return nil, err
	}
	given, err := parseInt("tourGivenOccupancy", n.GivenOccupancy, false)
	if err != nil {
		return nil, err
	}
	event.Notes.ActualOccupancy = int(actual)
	event.Notes.GivenOccupancy = int(given)

	return event, nil
}

func parseInt(field string, value Stringish, required bool) (int64, error) {
	if value == "" {
		if required {
			return 0, domain.ValidationError{Field: field, Msg: "required"}
		}
		return 0, nil
	}
	n, err := strconv.ParseInt(value.String(), 10, 64)
	if err != nil {
		// Some clients send whole numbers as floats
		d, decErr := decimal.NewFromString(value.String())
		if decErr != nil || !d.IsInteger() {
			return 0, domain.ValidationError{Field: field, Msg: fmt.Sprintf("not an integer: %q", value), Err: err}
		}
		n = d.IntPart()
	}
	if n < 0 {
		return 0, domain.ValidationError{Field: field, Msg: "cannot be negative"}
	}
	return n, nil
}

func parseAmount(field string, value Stringish) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero, domain.ValidationError{Field: field, Msg: fmt.Sprintf("not a number: %q", value), Err: err}
	}
	if d.IsNegative() {
		return decimal.Zero, domain.ValidationError{Field: field, Msg: "cannot be negative"}
	}
	return d, nil
}

func parseDate(field string, value Stringish) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value.String()); err == nil {
			return &t, nil
		}
	}
	return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("not a date: %q", value)}
}
