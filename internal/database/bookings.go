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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bookingIdPrefix = "BK"

// scanBooking decodes the stored document. Version and timestamps come from the
// row, never from the document.
func scanBooking(row rowScanner) (*models.Booking, error) {
	var document string
	var booking models.Booking
	var version int64
	var createdAt, updatedAt time.Time
	if err := row.Scan(&document, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(document), &booking); err != nil {
		return nil, fmt.Errorf("failed to decode booking document: %w", err)
	}
	booking.Version = version
	booking.CreatedAt = createdAt
	booking.UpdatedAt = updatedAt
	return &booking, nil
}

func (s *Service) GetBookingByBookingId(ctx context.Context, bookingId string) (*models.Booking, error) {
	booking, err := scanBooking(s.db.QueryRowContext(ctx, queryGetBookingByBookingId, bookingId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %s", store.ErrNotFound, bookingId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// FindOrCreateBooking relies on UNIQUE(customer_id, tour_id): a racing insert is a
// no-op and both callers read back the same row.
func (s *Service) FindOrCreateBooking(ctx context.Context, params store.CheckoutParams) (*models.Booking, bool, error) {
	if params.Customer.CustomerId == "" || params.Tour.TourId == "" {
		return nil, false, fmt.Errorf("customer id and tour id are required")
	}

	booking := models.Booking{
		Id:        uuid.New().String(),
		BookingId: newBookingId(),
		Status:    models.BookingPending,
		Tour:      params.Tour,
		Customer:  params.Customer,
		Travelers: params.Travelers,
		Payment:   models.Payment{Status: models.PaymentPending},
	}
	if params.AgentId != "" {
		booking.Agent = &models.AgentSnapshot{AgentId: params.AgentId}
	}
	for i := range booking.Travelers {
		if booking.Travelers[i].Id == "" {
			booking.Travelers[i].Id = uuid.New().String()
		}
	}

	document, err := json.Marshal(booking)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode booking document: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryInsertBookingIfAbsent,
		booking.Id, booking.BookingId, params.Customer.CustomerId, params.Tour.TourId,
		params.AgentId, string(booking.Status), string(document))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert booking: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	stored, err := scanBooking(s.db.QueryRowContext(ctx, queryGetBookingByCustomerTour,
		params.Customer.CustomerId, params.Tour.TourId))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read booking after checkout: %w", err)
	}

	created := rowsAffected == 1
	if created {
		zap.L().Info("Booking created",
			zap.String("booking_id", stored.BookingId),
			zap.String("customer_id", params.Customer.CustomerId),
			zap.String("tour_id", params.Tour.TourId))
	}
	return stored, created, nil
}

// UpdateBooking writes the whole document if the stored version still matches.
func (s *Service) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	document, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to encode booking document: %w", err)
	}

	agentId := ""
	if booking.Agent != nil {
		agentId = booking.Agent.AgentId
	}

	result, err := s.db.ExecContext(ctx, queryUpdateBooking,
		string(booking.Status), agentId, booking.HasPendingCancellation(), string(document),
		booking.BookingId, booking.Version)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := s.GetBookingByBookingId(ctx, booking.BookingId); getErr != nil {
			return getErr
		}
		return fmt.Errorf("booking %s update failed - %w", booking.BookingId, store.ErrConcurrentModification)
	}

	booking.Version++
	booking.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Service) ListPendingCancellations(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, queryListPendingCancellations)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending cancellations: %w", err)
	}
	defer closeRows(rows)

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booking rows: %w", err)
	}
	return bookings, nil
}

func newBookingId() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return bookingIdPrefix + strings.ToUpper(raw[:10])
}
