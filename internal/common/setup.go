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

package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"tour-settlement-go/internal/agreement"
	"tour-settlement-go/internal/api"
	"tour-settlement-go/internal/booking"
	"tour-settlement-go/internal/cancellation"
	"tour-settlement-go/internal/commission"
	"tour-settlement-go/internal/database"
	"tour-settlement-go/internal/formance"
	"tour-settlement-go/internal/locks"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/receipt"
	"tour-settlement-go/internal/settlement"
	"tour-settlement-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services holds everything the server and CLIs wire together.
type Services struct {
	DbService     *database.Service
	Ledger        store.WalletLedger
	Locks         *locks.Keyed
	Processor     *settlement.Processor
	Cancellations *cancellation.Service
	Bookings      *booking.Service
	Wallets       *api.WalletService
	Receipts      *receipt.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	var (
		logger *zap.Logger
		err    error
	)
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	ledger, err := InitializeWalletLedger(ctx, cfg, dbService)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	table, err := commission.LoadTable(cfg.Commission.TiersFile)
	if err != nil {
		closeLedger(ledger, dbService)
		dbService.Close()
		return nil, err
	}

	keyed := locks.NewKeyed()
	calculator := commission.NewCalculator(table, dbService)
	processor := settlement.NewProcessor(
		dbService,
		ledger,
		agreement.NewRecorder(dbService),
		calculator,
		keyed,
		cfg.Ledger.Currency,
	)

	return &Services{
		DbService:     dbService,
		Ledger:        ledger,
		Locks:         keyed,
		Processor:     processor,
		Cancellations: cancellation.NewService(dbService, keyed, nil),
		Bookings:      booking.NewService(dbService, keyed, nil),
		Wallets:       api.NewWalletService(dbService, ledger, dbService, cfg.Ledger.Currency),
		Receipts:      receipt.NewService(dbService),
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for CLIs that only read or seed local data
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// InitializeWalletLedger picks the wallet backend named by LEDGER_BACKEND.
// The sqlite backend shares the main database.
func InitializeWalletLedger(ctx context.Context, cfg *models.Config, dbService *database.Service) (store.WalletLedger, error) {
	switch cfg.Ledger.Backend {
	case "", models.LedgerBackendSqlite:
		zap.L().Info("Using sqlite wallet ledger")
		return dbService, nil
	case models.LedgerBackendFormance:
		zap.L().Info("Using Formance wallet ledger")
		return formance.NewService(ctx, cfg.Formance)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Ledger != nil {
		closeLedger(cs.Ledger, cs.DbService)
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// closeLedger closes an external ledger. The sqlite ledger is the database itself.
func closeLedger(ledger store.WalletLedger, dbService *database.Service) {
	if db, ok := ledger.(*database.Service); ok && db == dbService {
		return
	}
	ledger.Close()
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
