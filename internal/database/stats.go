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
	"fmt"
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/google/uuid"
)

// statsDateLayout keys stats by calendar day of the departure.
const statsDateLayout = "2006-01-02"

func (s *Service) GetOrCreateAgentTourStats(ctx context.Context, key store.StatsKey) (*models.AgentTourStats, error) {
	if key.AgentId == "" || key.TourId == "" {
		return nil, fmt.Errorf("agent id and tour id are required")
	}
	date := key.TourStartDate.UTC().Format(statsDateLayout)

	if _, err := s.db.ExecContext(ctx, queryInsertStatsIfAbsent, uuid.New().String(), key.AgentId, key.TourId, date); err != nil {
		return nil, fmt.Errorf("failed to create agent tour stats: %w", err)
	}

	var stats models.AgentTourStats
	var dateStr, finalStr, commissionStr, rateStr string
	err := s.db.QueryRowContext(ctx, queryGetStats, key.AgentId, key.TourId, date).Scan(
		&stats.Id, &stats.AgentId, &stats.TourId, &dateStr, &stats.CustomerGiven,
		&finalStr, &commissionStr, &rateStr, &stats.PaymentReceived,
		&stats.Adults, &stats.Children, &stats.Cancelled, &stats.Version, &stats.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent tour stats: %w", err)
	}

	if stats.TourStartDate, err = time.Parse(statsDateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("failed to parse tour_start_date '%s': %w", dateStr, err)
	}
	if stats.FinalAmount, err = parseDecimal("final_amount", finalStr); err != nil {
		return nil, err
	}
	if stats.CommissionReceived, err = parseDecimal("commission_received", commissionStr); err != nil {
		return nil, err
	}
	if stats.CommissionRate, err = parseDecimal("commission_rate", rateStr); err != nil {
		return nil, err
	}
	return &stats, nil
}

// UpdateAgentTourStats persists stats if the version still matches and advances it.
func (s *Service) UpdateAgentTourStats(ctx context.Context, stats *models.AgentTourStats) error {
	result, err := s.db.ExecContext(ctx, queryUpdateStats,
		stats.CustomerGiven, stats.FinalAmount.String(), stats.CommissionReceived.String(),
		stats.CommissionRate.String(), stats.PaymentReceived, stats.Adults, stats.Children,
		stats.Cancelled, stats.Id, stats.Version)
	if err != nil {
		return fmt.Errorf("failed to update agent tour stats: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("agent tour stats update failed - %w", store.ErrConcurrentModification)
	}

	stats.Version++
	return nil
}
