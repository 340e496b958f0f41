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

package agreement

import (
	"context"
	"errors"
	"fmt"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"go.uber.org/zap"
)

// Recorder records that a customer accepted a terms version, at most once.
type Recorder struct {
	terms store.TermsStore
}

func NewRecorder(terms store.TermsStore) *Recorder {
	return &Recorder{terms: terms}
}

// Record returns the agreement for (customer, terms) and whether this call created it.
func (r *Recorder) Record(ctx context.Context, customerId, termsId string) (*models.UserAgreement, bool, error) {
	if customerId == "" || termsId == "" {
		return nil, false, fmt.Errorf("customer id and terms id are required")
	}

	existing, err := r.terms.GetUserAgreement(ctx, customerId, models.UserTypeCustomer, termsId)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up agreement: %w", err)
	}

	created, err := r.terms.CreateUserAgreement(ctx, models.UserAgreement{
		UserId:   customerId,
		UserType: models.UserTypeCustomer,
		TermsId:  termsId,
	})
	if errors.Is(err, store.ErrDuplicateAgreement) {
		// Lost the race to a concurrent delivery
		existing, getErr := r.terms.GetUserAgreement(ctx, customerId, models.UserTypeCustomer, termsId)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to re-read agreement: %w", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create agreement: %w", err)
	}

	zap.L().Info("Recorded terms agreement",
		zap.String("customer_id", customerId),
		zap.String("terms_id", termsId))
	return created, true, nil
}

// RecordForTour records agreement to the tour's active terms, falling back to the
// general terms. Having no terms at all is not an error.
func (r *Recorder) RecordForTour(ctx context.Context, customerId, tourId string) (*models.UserAgreement, bool, error) {
	terms, err := r.terms.GetActiveTerms(ctx, models.TermsTypeTour, tourId)
	if errors.Is(err, store.ErrNotFound) {
		terms, err = r.terms.GetActiveTerms(ctx, models.TermsTypeGeneral, "")
	}
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Info("No active terms, skipping agreement",
			zap.String("customer_id", customerId),
			zap.String("tour_id", tourId))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load active terms: %w", err)
	}

	return r.Record(ctx, customerId, terms.Id)
}
