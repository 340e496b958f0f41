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

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time checks: *Service must satisfy every store contract.
var (
	_ store.BookingStore     = (*Service)(nil)
	_ store.TourStore        = (*Service)(nil)
	_ store.AgentStore       = (*Service)(nil)
	_ store.StatsStore       = (*Service)(nil)
	_ store.TransactionStore = (*Service)(nil)
	_ store.TermsStore       = (*Service)(nil)
	_ store.WalletLedger     = (*Service)(nil)
)

type Service struct {
	db        *sql.DB
	subledger *SubledgerService
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newService(db)
	if err := service.InitSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, err
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newService(db *sql.DB) *Service {
	return &Service{db: db, subledger: NewSubledgerService(db)}
}

// InitSchema creates the booking tables and the wallet subledger tables.
func (s *Service) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("unable to initialize schema: %w", err)
	}
	if err := s.subledger.InitSchema(ctx); err != nil {
		return fmt.Errorf("unable to initialize subledger schema: %w", err)
	}
	return nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping is used by the health check.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
	-- Tours (inventory counter is updated atomically, never read-modify-write)
	CREATE TABLE IF NOT EXISTS tours (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price_per_head TEXT NOT NULL DEFAULT '0',
		adult_price TEXT NOT NULL DEFAULT '0',
		child_price TEXT NOT NULL DEFAULT '0',
		gst_percent TEXT NOT NULL DEFAULT '0',
		occupancy INTEGER NOT NULL CHECK (occupancy >= 0),
		remaining_occupancy INTEGER NOT NULL CHECK (remaining_occupancy >= 0 AND remaining_occupancy <= occupancy),
		start_date TIMESTAMP NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Agents form a tree of at most two commission levels
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		pincode TEXT NOT NULL,
		parent_agent_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_agents_parent ON agents(parent_agent_id);

	-- Bookings are stored as whole documents guarded by a version column
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		tour_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		pending_cancellation BOOLEAN NOT NULL DEFAULT 0,
		document TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(customer_id, tour_id)
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_pending_cancellation ON bookings(pending_cancellation);
	CREATE INDEX IF NOT EXISTS idx_bookings_agent ON bookings(agent_id);

	-- One stats row per agent, tour and departure date
	CREATE TABLE IF NOT EXISTS agent_tour_stats (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		tour_id TEXT NOT NULL,
		tour_start_date TEXT NOT NULL,
		customer_given INTEGER NOT NULL DEFAULT 0,
		final_amount TEXT NOT NULL DEFAULT '0',
		commission_received TEXT NOT NULL DEFAULT '0',
		commission_rate TEXT NOT NULL DEFAULT '0',
		payment_received BOOLEAN NOT NULL DEFAULT 0,
		adults INTEGER NOT NULL DEFAULT 0,
		children INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(agent_id, tour_id, tour_start_date)
	);

	-- Settlement transactions (append-only, one per gateway payment)
	CREATE TABLE IF NOT EXISTS settlement_transactions (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL UNIQUE,
		booking_id TEXT NOT NULL,
		tour_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_settlement_transactions_booking ON settlement_transactions(booking_id);

	CREATE TABLE IF NOT EXISTS commission_records (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES settlement_transactions(id),
		agent_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		amount TEXT NOT NULL,
		rate TEXT NOT NULL,
		UNIQUE(transaction_id, level)
	);

	CREATE INDEX IF NOT EXISTS idx_commission_records_agent ON commission_records(agent_id);

	-- Versioned terms documents and per-user acceptance
	CREATE TABLE IF NOT EXISTS terms_and_conditions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		tour_id TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(type, tour_id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_terms_active ON terms_and_conditions(type, tour_id, active);

	CREATE TABLE IF NOT EXISTS user_agreements (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_type TEXT NOT NULL,
		terms_id TEXT NOT NULL,
		agreed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, user_type, terms_id)
	);
	`

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Warn("Failed to roll back transaction", zap.Error(err))
	}
}
