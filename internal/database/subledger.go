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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubledgerService keeps agent wallet balances as a hot row per (agent, currency)
// backed by an append-only entry log and double-entry journal.
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

func (s *SubledgerService) InitSchema(ctx context.Context) error {
	schema := `
	-- Wallet Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS wallet_balances (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		last_entry_id TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(agent_id, currency)
	);

	-- Wallet Entries Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS wallet_entries (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		transaction_id TEXT NOT NULL DEFAULT '',
		level INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_entries_agent_currency ON wallet_entries(agent_id, currency);
	CREATE INDEX IF NOT EXISTS idx_wallet_entries_created_at ON wallet_entries(created_at);
	CREATE INDEX IF NOT EXISTS idx_wallet_entries_transaction ON wallet_entries(transaction_id);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_entry_id ON journal_entries(entry_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreditWallet atomically adds a commission to an agent wallet and records the entry.
// A reference that was already applied fails with store.ErrDuplicateTransaction.
func (s *SubledgerService) CreditWallet(ctx context.Context, params store.CreditWalletParams) (*models.WalletEntry, error) {
	if params.AgentId == "" || params.Currency == "" {
		return nil, fmt.Errorf("agent id and currency are required")
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("wallet credit reference is required")
	}
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("wallet credit must be positive, got %s", params.Amount)
	}

	zap.L().Info("Crediting wallet",
		zap.String("agent_id", params.AgentId),
		zap.String("currency", params.Currency),
		zap.String("amount", params.Amount.String()),
		zap.String("reference", params.Reference))

	var existingEntryId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateWalletEntry, params.Reference).Scan(&existingEntryId)
	if err == nil {
		zap.L().Warn("Duplicate wallet reference detected, skipping",
			zap.String("reference", params.Reference),
			zap.String("existing_entry_id", existingEntryId))
		return nil, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateTransaction, params.Reference)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate wallet entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var balanceId, currentBalanceStr string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetWalletBalanceForUpdate, params.AgentId, params.Currency).
		Scan(&balanceId, &currentBalanceStr, &version)

	currentBalance := decimal.Zero
	if errors.Is(err, sql.ErrNoRows) {
		balanceId = uuid.New().String()
		version = 1
		if _, err := tx.ExecContext(ctx, queryInsertWalletBalance, balanceId, params.AgentId, params.Currency, "0", version); err != nil {
			return nil, fmt.Errorf("failed to create wallet balance: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current wallet balance: %w", err)
	} else if currentBalance, err = parseDecimal("balance", currentBalanceStr); err != nil {
		return nil, err
	}

	newBalance := currentBalance.Add(params.Amount)
	entry := &models.WalletEntry{
		Id:            uuid.New().String(),
		AgentId:       params.AgentId,
		Currency:      params.Currency,
		Amount:        params.Amount,
		BalanceBefore: currentBalance,
		BalanceAfter:  newBalance,
		Reference:     params.Reference,
		TransactionId: params.TransactionId,
		Level:         params.Level,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertWalletEntry,
		entry.Id, entry.AgentId, entry.Currency, entry.Amount.String(),
		entry.BalanceBefore.String(), entry.BalanceAfter.String(),
		entry.Reference, entry.TransactionId, entry.Level, entry.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateTransaction, params.Reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert wallet entry: %w", err)
	}

	// Optimistic lock on the balance row
	result, err := tx.ExecContext(ctx, queryUpdateWalletBalance, newBalance.String(), entry.Id, params.AgentId, params.Currency, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("wallet balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := s.addJournalEntries(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Wallet credited successfully",
		zap.String("entry_id", entry.Id),
		zap.String("agent_id", params.AgentId),
		zap.String("old_balance", currentBalance.String()),
		zap.String("new_balance", newBalance.String()))

	return entry, nil
}

type journalLine struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// addJournalEntries debits the agent wallet and credits the platform's commission payable.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, entry *models.WalletEntry) error {
	lines := []journalLine{
		{"agent_wallet", fmt.Sprintf("%s_%s", entry.AgentId, entry.Currency), entry.Amount, decimal.Zero},
		{"commission_payable", fmt.Sprintf("platform_%s", entry.Currency), decimal.Zero, entry.Amount},
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), entry.Id, line.accountType, line.accountId,
			line.debitAmount.String(), line.creditAmount.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// GetWalletHistory returns paginated wallet entries, newest first.
func (s *SubledgerService) GetWalletHistory(ctx context.Context, agentId, currency string, limit, offset int) ([]models.WalletEntry, error) {
	zap.L().Debug("Getting wallet history",
		zap.String("agent_id", agentId),
		zap.String("currency", currency),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetWalletHistory, agentId, currency, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet history: %w", err)
	}
	defer closeRows(rows)

	var entries []models.WalletEntry
	for rows.Next() {
		var entry models.WalletEntry
		var amountStr, beforeStr, afterStr string
		if err := rows.Scan(&entry.Id, &entry.AgentId, &entry.Currency,
			&amountStr, &beforeStr, &afterStr,
			&entry.Reference, &entry.TransactionId, &entry.Level, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet entry: %w", err)
		}

		if entry.Amount, err = parseDecimal("amount", amountStr); err != nil {
			return nil, err
		}
		if entry.BalanceBefore, err = parseDecimal("balance_before", beforeStr); err != nil {
			return nil, err
		}
		if entry.BalanceAfter, err = parseDecimal("balance_after", afterStr); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during wallet entry row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating wallet entry rows: %w", err)
	}
	return entries, nil
}
