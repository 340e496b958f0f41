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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetBalance returns the current wallet balance for an agent and currency
func (s *SubledgerService) GetBalance(ctx context.Context, agentId, currency string) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetWalletBalance, agentId, currency).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No wallet yet means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get wallet balance", zap.String("agent_id", agentId), zap.String("currency", currency), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	balance, err := parseDecimal("balance", balanceStr)
	if err != nil {
		return decimal.Zero, err
	}

	zap.L().Debug("Retrieved wallet balance", zap.String("agent_id", agentId), zap.String("balance", balance.String()))
	return balance, nil
}

// GetAllBalances returns every non-zero wallet
func (s *SubledgerService) GetAllBalances(ctx context.Context) ([]models.WalletBalance, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAllWalletBalances)
	if err != nil {
		return nil, fmt.Errorf("failed to get all wallet balances: %w", err)
	}
	defer closeRows(rows)

	var balances []models.WalletBalance
	for rows.Next() {
		var balance models.WalletBalance
		var balanceStr string
		if err := rows.Scan(&balance.Id, &balance.AgentId, &balance.Currency, &balanceStr,
			&balance.LastEntryId, &balance.Version, &balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet balance: %w", err)
		}

		if balance.Balance, err = parseDecimal("balance", balanceStr); err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet balance rows: %w", err)
	}

	zap.L().Debug("Retrieved all wallet balances", zap.Int("count", len(balances)))
	return balances, nil
}

// ReconcileBalance verifies that the hot balance equals the sum of all wallet entries.
// Amounts are stored as text, so the sum is taken in decimal rather than in SQL.
func (s *SubledgerService) ReconcileBalance(ctx context.Context, agentId, currency string) error {
	zap.L().Info("Reconciling wallet", zap.String("agent_id", agentId), zap.String("currency", currency))

	currentBalance, err := s.GetBalance(ctx, agentId, currency)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryGetWalletEntryAmounts, agentId, currency)
	if err != nil {
		return fmt.Errorf("failed to load wallet entries: %w", err)
	}
	defer closeRows(rows)

	calculatedBalance := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan wallet entry amount: %w", err)
		}
		amount, err := parseDecimal("amount", amountStr)
		if err != nil {
			return err
		}
		calculatedBalance = calculatedBalance.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating wallet entry rows: %w", err)
	}

	if !currentBalance.Equal(calculatedBalance) {
		zap.L().Error("Wallet reconciliation failed",
			zap.String("agent_id", agentId),
			zap.String("currency", currency),
			zap.String("current_balance", currentBalance.String()),
			zap.String("calculated_balance", calculatedBalance.String()),
			zap.String("difference", currentBalance.Sub(calculatedBalance).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", currentBalance.String(), calculatedBalance.String())
	}

	zap.L().Info("Wallet reconciliation successful",
		zap.String("agent_id", agentId),
		zap.String("balance", currentBalance.String()))
	return nil
}

// WalletLedger implementation backed by the subledger.

func (s *Service) CreditWallet(ctx context.Context, params store.CreditWalletParams) (*models.WalletEntry, error) {
	return s.subledger.CreditWallet(ctx, params)
}

func (s *Service) GetWalletBalance(ctx context.Context, agentId, currency string) (decimal.Decimal, error) {
	return s.subledger.GetBalance(ctx, agentId, currency)
}

func (s *Service) GetWalletHistory(ctx context.Context, agentId, currency string, limit, offset int) ([]models.WalletEntry, error) {
	return s.subledger.GetWalletHistory(ctx, agentId, currency, limit, offset)
}

func (s *Service) ReconcileWallet(ctx context.Context, agentId, currency string) error {
	return s.subledger.ReconcileBalance(ctx, agentId, currency)
}

// ListWalletBalances returns every non-zero wallet, used by the balances report.
func (s *Service) ListWalletBalances(ctx context.Context) ([]models.WalletBalance, error) {
	return s.subledger.GetAllBalances(ctx)
}
