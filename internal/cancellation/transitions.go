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
	"fmt"
	"strings"
	"time"

	"tour-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

const stateUnknown models.TravelerState = "unknown"

// batch is the outcome of applying one transition to a set of travelers.
type batch struct {
	updated []string
	skipped []models.SkippedTraveler
	refund  decimal.Decimal
}

// selectTravelers resolves ids to indexes. Unknown ids are reported as skipped.
// An empty id list selects every traveler.
func selectTravelers(b *models.Booking, travelerIds []string, out *batch) []int {
	if len(travelerIds) == 0 {
		indexes := make([]int, len(b.Travelers))
		for i := range b.Travelers {
			indexes[i] = i
		}
		return indexes
	}

	seen := make(map[string]bool, len(travelerIds))
	var indexes []int
	for _, id := range travelerIds {
		if seen[id] {
			continue
		}
		seen[id] = true
		i := b.FindTraveler(id)
		if i < 0 {
			out.skipped = append(out.skipped, models.SkippedTraveler{TravelerId: id, State: stateUnknown})
			continue
		}
		indexes = append(indexes, i)
	}
	return indexes
}

func skip(out *batch, t models.Traveler) {
	out.skipped = append(out.skipped, models.SkippedTraveler{TravelerId: t.Id, Name: t.Name, State: t.State()})
}

func applyRequest(b *models.Booking, travelerIds []string, reason string, actor models.Actor, now time.Time) batch {
	var out batch
	for _, i := range selectTravelers(b, travelerIds, &out) {
		t := &b.Travelers[i]
		if t.State() != models.TravelerNone {
			skip(&out, *t)
			continue
		}
		t.Cancellation.Requested = true
		t.Cancellation.Reason = reason
		t.Cancellation.UpdatedAt = &now
		out.updated = append(out.updated, t.Id)
	}

	if len(out.updated) > 0 {
		requestedBy := actor
		b.Cancellation.RequestedBy = &requestedBy
		b.Cancellation.RequestedAt = &now
		if len(travelerIds) == 0 {
			b.Cancellation.Requested = true
			b.Cancellation.Reason = reason
		}
	}
	return out
}

func applyApprove(b *models.Booking, travelerIds []string, refundPerTraveler decimal.Decimal, now time.Time) batch {
	out := batch{refund: decimal.Zero}
	for _, i := range selectTravelers(b, travelerIds, &out) {
		t := &b.Travelers[i]
		if t.State() != models.TravelerRequested {
			skip(&out, *t)
			continue
		}
		t.Cancellation.Approved = true
		t.Cancellation.Requested = false
		t.Cancellation.Rejected = false
		t.Cancellation.RefundAmount = refundPerTraveler
		t.Cancellation.UpdatedAt = &now
		out.updated = append(out.updated, t.Id)
		out.refund = out.refund.Add(refundPerTraveler)
	}

	if len(out.updated) > 0 {
		b.Cancellation.TotalRefundAmount = b.Cancellation.TotalRefundAmount.Add(out.refund)
	}
	return out
}

func applyReject(b *models.Booking, travelerIds []string, reason string, now time.Time) batch {
	var out batch
	for _, i := range selectTravelers(b, travelerIds, &out) {
		t := &b.Travelers[i]
		if t.State() != models.TravelerRequested {
			skip(&out, *t)
			continue
		}
		t.Cancellation.Rejected = true
		t.Cancellation.Requested = false
		t.Cancellation.Reason = reason
		t.Cancellation.UpdatedAt = &now
		out.updated = append(out.updated, t.Id)
	}
	return out
}

func applyWithdraw(b *models.Booking, travelerIds []string, now time.Time) batch {
	var out batch
	for _, i := range selectTravelers(b, travelerIds, &out) {
		t := &b.Travelers[i]
		if t.State() != models.TravelerRequested {
			skip(&out, *t)
			continue
		}
		t.Cancellation.Requested = false
		t.Cancellation.Reason = ""
		t.Cancellation.UpdatedAt = &now
		out.updated = append(out.updated, t.Id)
	}
	return out
}

// deriveFlags recomputes the booking-level cancellation flags from its travelers.
func deriveFlags(b *models.Booking) {
	anyRequested, anyRejected := false, false
	allApproved := len(b.Travelers) > 0
	for _, t := range b.Travelers {
		switch t.State() {
		case models.TravelerRequested:
			anyRequested = true
			allApproved = false
		case models.TravelerRejected:
			anyRejected = true
			allApproved = false
		case models.TravelerApproved:
		default:
			allApproved = false
		}
	}

	c := &b.Cancellation
	c.Requested = anyRequested
	c.Approved = allApproved
	c.Rejected = !anyRequested && anyRejected && !allApproved
	if !anyRequested && !allApproved && !c.Rejected {
		c.Reason = ""
	}
	if allApproved {
		b.Status = models.BookingCancelled
	}
}

func describe(action string, out batch) string {
	msg := fmt.Sprintf("%s %d traveler(s)", action, len(out.updated))
	if len(out.skipped) == 0 {
		return msg
	}
	parts := make([]string, 0, len(out.skipped))
	for _, s := range out.skipped {
		label := s.Name
		if label == "" {
			label = s.TravelerId
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", label, s.State))
	}
	return msg + "; skipped " + strings.Join(parts, ", ")
}
