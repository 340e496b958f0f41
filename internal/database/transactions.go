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

// CreateTransaction records a settled payment with its commission records in one
// database transaction. A second record for the same payment id fails with
// store.ErrDuplicateTransaction.
func (s *Service) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.PaymentId == "" || txn.BookingId == "" {
		return fmt.Errorf("payment id and booking id are required")
	}

	zap.L().Info("Recording settlement transaction",
		zap.String("payment_id", txn.PaymentId),
		zap.String("booking_id", txn.BookingId),
		zap.String("paid_amount", txn.PaidAmount.String()),
		zap.Int("commissions", len(txn.Commissions)))

	if txn.Id == "" {
		txn.Id = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, queryInsertSettlementTransaction,
		txn.Id, txn.PaymentId, txn.BookingId, txn.TourId, txn.CustomerId, txn.AgentId,
		txn.TotalAmount.String(), txn.PaidAmount.String(), txn.Currency, txn.Method, txn.CreatedAt)
	if isUniqueViolation(err) {
		zap.L().Warn("Duplicate payment id detected, skipping", zap.String("payment_id", txn.PaymentId))
		return fmt.Errorf("%w: payment_id %s already recorded", store.ErrDuplicateTransaction, txn.PaymentId)
	}
	if err != nil {
		return fmt.Errorf("failed to insert settlement transaction: %w", err)
	}

	for _, record := range txn.Commissions {
		_, err := tx.ExecContext(ctx, queryInsertCommissionRecord,
			uuid.New().String(), txn.Id, record.AgentId, record.Level,
			record.Amount.String(), record.Rate.String())
		if err != nil {
			return fmt.Errorf("failed to insert commission record level %d: %w", record.Level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Settlement transaction recorded",
		zap.String("transaction_id", txn.Id),
		zap.String("payment_id", txn.PaymentId))
	return nil
}

func (s *Service) GetTransactionByPaymentId(ctx context.Context, paymentId string) (*models.Transaction, error) {
	var txn models.Transaction
	var totalStr, paidStr string
	err := s.db.QueryRowContext(ctx, queryGetSettlementTransactionByPaymentId, paymentId).
		Scan(&txn.Id, &txn.PaymentId, &txn.BookingId, &txn.TourId, &txn.CustomerId, &txn.AgentId,
			&totalStr, &paidStr, &txn.Currency, &txn.Method, &txn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction for payment %s", store.ErrNotFound, paymentId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement transaction: %w", err)
	}

	if txn.TotalAmount, err = parseDecimal("total_amount", totalStr); err != nil {
		return nil, err
	}
	if txn.PaidAmount, err = parseDecimal("paid_amount", paidStr); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryGetCommissionRecords, txn.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission records: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var record models.CommissionRecord
		var amountStr, rateStr string
		if err := rows.Scan(&record.AgentId, &record.Level, &amountStr, &rateStr); err != nil {
			return nil, fmt.Errorf("failed to scan commission record: %w", err)
		}
		if record.Amount, err = parseDecimal("amount", amountStr); err != nil {
			return nil, err
		}
		if record.Rate, err = parseDecimal("rate", rateStr); err != nil {
			return nil, err
		}
		txn.Commissions = append(txn.Commissions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commission rows: %w", err)
	}

	return &txn, nil
}
