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

package formance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Commission credits are funded by the platform, which may run a negative balance.
const numscriptCommissionCredit = `vars {
  asset $asset
  number $amount
  account $agent_id
  string $transaction_id
  string $level
  string $currency
}

send [$asset $amount] (
  source = @platform:commissions allowing unbounded overdraft
  destination = @agents:$agent_id:wallet
)

set_tx_meta("event_type", "commission_credit")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("level", $level)
set_tx_meta("currency", $currency)
`

// CreditWallet posts one commission credit. The reference is the Formance idempotency
// key, so a replayed credit comes back as store.ErrDuplicateTransaction.
func (s *Service) CreditWallet(ctx context.Context, params store.CreditWalletParams) (*models.WalletEntry, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("wallet credit must be positive, got %s", params.Amount)
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("wallet credit reference is required")
	}

	precision := precisionFor(params.Currency)
	minor := params.Amount.Shift(int32(precision))
	if !minor.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", params.Amount, precision)
	}

	before, err := s.GetWalletBalance(ctx, params.AgentId, params.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	resp, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(params.Reference),
			Timestamp: &now,
			Script: &shared.V2PostTransactionScript{
				Plain: numscriptCommissionCredit,
				Vars: map[string]string{
					"asset":          formanceAsset(params.Currency),
					"amount":         minor.BigInt().String(),
					"agent_id":       params.AgentId,
					"transaction_id": params.TransactionId,
					"level":          strconv.Itoa(params.Level),
					"currency":       params.Currency,
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateTransaction, params.Reference)
		}
		return nil, fmt.Errorf("error posting commission credit: %w", err)
	}

	entry := &models.WalletEntry{
		AgentId:       params.AgentId,
		Currency:      params.Currency,
		Amount:        params.Amount,
		BalanceBefore: before,
		BalanceAfter:  before.Add(params.Amount),
		Reference:     params.Reference,
		TransactionId: params.TransactionId,
		Level:         params.Level,
		CreatedAt:     now,
	}
	if resp != nil && resp.V2CreateTransactionResponse != nil && resp.V2CreateTransactionResponse.Data.ID != nil {
		entry.Id = resp.V2CreateTransactionResponse.Data.ID.String()
	}

	zap.L().Info("Commission credited in Formance",
		zap.String("agent_id", params.AgentId),
		zap.String("amount", params.Amount.String()),
		zap.String("reference", params.Reference))
	return entry, nil
}

// GetWalletBalance reads the agent wallet account's volumes. An account that was
// never credited has a zero balance.
func (s *Service) GetWalletBalance(ctx context.Context, agentId, currency string) (decimal.Decimal, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: walletAccount(agentId),
		Expand:  strPtr("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get wallet account: %w", err)
	}

	bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, formanceAsset(currency))
	return bigIntToDecimal(bal, currency), nil
}

// GetWalletHistory lists credits into the agent wallet, newest first.
func (s *Service) GetWalletHistory(ctx context.Context, agentId, currency string, limit, offset int) ([]models.WalletEntry, error) {
	account := walletAccount(agentId)
	pageSize := int64(limit + offset) // fetch enough to skip offset

	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$match": map[string]any{"destination": account},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}

	var entries []models.WalletEntry
	skipped := 0
	for _, tx := range resp.V2TransactionsCursorResponse.Cursor.Data {
		amount := decimal.Zero
		for _, p := range tx.Postings {
			if assetSymbol(p.Asset) == currency && p.Destination == account {
				amount = amount.Add(bigIntToDecimal(p.Amount, currency))
			}
		}
		if amount.IsZero() {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}

		ref := ""
		if tx.Reference != nil {
			ref = *tx.Reference
		}
		level, _ := strconv.Atoi(tx.Metadata["level"])

		entries = append(entries, models.WalletEntry{
			Id:            fmt.Sprintf("%d", tx.ID),
			AgentId:       agentId,
			Currency:      currency,
			Amount:        amount,
			Reference:     ref,
			TransactionId: tx.Metadata["transaction_id"],
			Level:         level,
			CreatedAt:     tx.Timestamp,
		})
		if len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// ReconcileWallet is a no-op in Formance; balances are consistent by construction.
func (s *Service) ReconcileWallet(ctx context.Context, agentId, currency string) error {
	zap.L().Info("Reconciliation is a no-op in Formance (consistent by construction)",
		zap.String("agent_id", agentId), zap.String("currency", currency))
	return nil
}
