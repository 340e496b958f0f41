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

package api

import (
	"context"
	"fmt"

	"tour-settlement-go/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Pinger reports whether the primary database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WalletService provides the read side of agent wallets
type WalletService struct {
	agents   store.AgentStore
	ledger   store.WalletLedger
	db       Pinger
	currency string
}

func NewWalletService(agents store.AgentStore, ledger store.WalletLedger, db Pinger, currency string) *WalletService {
	return &WalletService{
		agents:   agents,
		ledger:   ledger,
		db:       db,
		currency: currency,
	}
}

func (s *WalletService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// clampHistoryLimit keeps limit in 1..100, defaulting to 20.
func clampHistoryLimit(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
