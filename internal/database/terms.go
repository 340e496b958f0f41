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
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanTerms(row rowScanner) (*models.TermsAndConditions, error) {
	var terms models.TermsAndConditions
	if err := row.Scan(&terms.Id, &terms.Type, &terms.TourId, &terms.Version,
		&terms.Content, &terms.Active, &terms.CreatedAt); err != nil {
		return nil, err
	}
	return &terms, nil
}

// GetActiveTerms returns the newest active terms for a type. General terms use an empty tour id.
func (s *Service) GetActiveTerms(ctx context.Context, termsType, tourId string) (*models.TermsAndConditions, error) {
	terms, err := scanTerms(s.db.QueryRowContext(ctx, queryGetActiveTerms, termsType, tourId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: active %s terms for tour '%s'", store.ErrNotFound, termsType, tourId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active terms: %w", err)
	}
	return terms, nil
}

// CreateTerms stores a terms version. Storing an active version deactivates the others.
// Re-creating an existing version is a no-op that returns the stored row.
func (s *Service) CreateTerms(ctx context.Context, terms models.TermsAndConditions) (*models.TermsAndConditions, error) {
	if terms.Type == "" || terms.Version == "" {
		return nil, fmt.Errorf("terms type and version are required")
	}
	if terms.Type == models.TermsTypeTour && terms.TourId == "" {
		return nil, fmt.Errorf("tour terms require a tour id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, queryInsertTermsIfAbsent,
		uuid.New().String(), terms.Type, terms.TourId, terms.Version, terms.Content, terms.Active); err != nil {
		return nil, fmt.Errorf("failed to insert terms: %w", err)
	}
	if terms.Active {
		if _, err := tx.ExecContext(ctx, queryDeactivateTerms, terms.Type, terms.TourId, terms.Version); err != nil {
			return nil, fmt.Errorf("failed to deactivate previous terms: %w", err)
		}
	}

	stored, err := scanTerms(tx.QueryRowContext(ctx, queryGetTermsByVersion, terms.Type, terms.TourId, terms.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to read stored terms: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Terms stored",
		zap.String("type", stored.Type),
		zap.String("tour_id", stored.TourId),
		zap.String("version", stored.Version))
	return stored, nil
}

func (s *Service) GetUserAgreement(ctx context.Context, userId, userType, termsId string) (*models.UserAgreement, error) {
	var agreement models.UserAgreement
	err := s.db.QueryRowContext(ctx, queryGetUserAgreement, userId, userType, termsId).
		Scan(&agreement.Id, &agreement.UserId, &agreement.UserType, &agreement.TermsId, &agreement.AgreedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: agreement for user %s", store.ErrNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user agreement: %w", err)
	}
	return &agreement, nil
}

func (s *Service) CreateUserAgreement(ctx context.Context, agreement models.UserAgreement) (*models.UserAgreement, error) {
	if agreement.Id == "" {
		agreement.Id = uuid.New().String()
	}
	if agreement.AgreedAt.IsZero() {
		agreement.AgreedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertUserAgreement,
		agreement.Id, agreement.UserId, agreement.UserType, agreement.TermsId, agreement.AgreedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: user %s terms %s", store.ErrDuplicateAgreement, agreement.UserId, agreement.TermsId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user agreement: %w", err)
	}
	return &agreement, nil
}
