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
	"errors"
	"fmt"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTour(row rowScanner) (*models.Tour, error) {
	var tour models.Tour
	var priceStr, adultStr, childStr, gstStr string
	err := row.Scan(&tour.Id, &tour.Name, &priceStr, &adultStr, &childStr, &gstStr,
		&tour.Occupancy, &tour.RemainingOccupancy, &tour.StartDate, &tour.Version,
		&tour.CreatedAt, &tour.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if tour.PricePerHead, err = parseDecimal("price_per_head", priceStr); err != nil {
		return nil, err
	}
	if tour.AdultPrice, err = parseDecimal("adult_price", adultStr); err != nil {
		return nil, err
	}
	if tour.ChildPrice, err = parseDecimal("child_price", childStr); err != nil {
		return nil, err
	}
	if tour.GSTPercent, err = parseDecimal("gst_percent", gstStr); err != nil {
		return nil, err
	}
	return &tour, nil
}

func (s *Service) GetTour(ctx context.Context, tourId string) (*models.Tour, error) {
	tour, err := scanTour(s.db.QueryRowContext(ctx, queryGetTour, tourId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tour %s", store.ErrNotFound, tourId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	return tour, nil
}

// UpsertTour inserts a tour or refreshes its catalog fields. Remaining inventory is
// only ever lowered to fit a reduced occupancy.
func (s *Service) UpsertTour(ctx context.Context, tour models.Tour) error {
	if tour.Id == "" || tour.Name == "" {
		return fmt.Errorf("tour id and name are required")
	}
	if tour.Occupancy < 0 {
		return fmt.Errorf("occupancy cannot be negative, got %d", tour.Occupancy)
	}
	remaining := tour.RemainingOccupancy
	if remaining <= 0 || remaining > tour.Occupancy {
		remaining = tour.Occupancy
	}

	_, err := s.db.ExecContext(ctx, queryUpsertTour,
		tour.Id, tour.Name, tour.PricePerHead.String(), tour.AdultPrice.String(),
		tour.ChildPrice.String(), tour.GSTPercent.String(), tour.Occupancy, remaining,
		tour.StartDate.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert tour: %w", err)
	}

	zap.L().Info("Tour stored", zap.String("tour_id", tour.Id), zap.String("name", tour.Name))
	return nil
}

// DecrementRemainingOccupancy lowers inventory in a single statement so concurrent
// settlements cannot lose an update. The result is floored at zero.
func (s *Service) DecrementRemainingOccupancy(ctx context.Context, tourId string, count int) (*models.Tour, error) {
	if count < 0 {
		return nil, fmt.Errorf("decrement count cannot be negative, got %d", count)
	}

	result, err := s.db.ExecContext(ctx, queryDecrementRemainingOccupancy, count, tourId)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement remaining occupancy: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: tour %s", store.ErrNotFound, tourId)
	}

	tour, err := s.GetTour(ctx, tourId)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Tour inventory decremented",
		zap.String("tour_id", tourId),
		zap.Int("requested", count),
		zap.Int("remaining_occupancy", tour.RemainingOccupancy))
	return tour, nil
}
