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

package main

import (
	"context"
	"flag"
	"fmt"

	"tour-settlement-go/internal/common"
	"tour-settlement-go/internal/config"
	"tour-settlement-go/internal/database"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"go.uber.org/zap"
)

const recentEntries = 5

type balanceStats struct {
	totalAgents       int
	agentsWithBalance int
	reconcileFailures int
}

func formatReference(ref string) string {
	if ref == "" {
		return "none"
	}
	if len(ref) > 32 {
		return ref[:32] + "..."
	}
	return ref
}

func printEntry(report *common.Report, entry models.WalletEntry, isLast bool) {
	report.Item(isLast, "L%d %15s  %s  (%s)",
		entry.Level,
		entry.Amount.StringFixed(2),
		formatReference(entry.Reference),
		entry.CreatedAt.Format("2006-01-02 15:04:05"))
	report.Detail(isLast, "%s -> %s", entry.BalanceBefore.StringFixed(2), entry.BalanceAfter.StringFixed(2))
}

func printAgentHeader(report *common.Report, agent common.AgentInfo, balance string, row *models.WalletBalance) {
	fields := [][2]string{{"AgentId", agent.AgentId}}
	if agent.ParentAgentId != "" {
		fields = append(fields, [2]string{"Parent", agent.ParentAgentId})
	}
	if row != nil {
		balance += fmt.Sprintf(" (v%d, updated: %s)", row.Version, row.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fields = append(fields, [2]string{"Balance", balance})
	report.Section(fmt.Sprintf("Agent: %s (%s)", agent.Name, agent.Email), fields...)
}

// walletRows indexes sqlite wallet rows by agent, for version details in the report.
func walletRows(ctx context.Context, ledger store.WalletLedger, currency string) map[string]models.WalletBalance {
	db, ok := ledger.(*database.Service)
	if !ok {
		return nil
	}
	rows, err := db.ListWalletBalances(ctx)
	if err != nil {
		zap.L().Warn("Failed to list wallet rows", zap.Error(err))
		return nil
	}
	byAgent := make(map[string]models.WalletBalance, len(rows))
	for _, r := range rows {
		if r.Currency == currency {
			byAgent[r.AgentId] = r
		}
	}
	return byAgent
}

func processAgent(ctx context.Context, report *common.Report, agent common.AgentInfo, ledger store.WalletLedger, currency string, rows map[string]models.WalletBalance, reconcile bool) (bool, error) {
	balance, err := ledger.GetWalletBalance(ctx, agent.AgentId, currency)
	if err != nil {
		return false, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance.IsZero() {
		return false, nil
	}

	var row *models.WalletBalance
	if r, ok := rows[agent.AgentId]; ok {
		row = &r
	}
	printAgentHeader(report, agent, currency+" "+balance.StringFixed(2), row)

	entries, err := ledger.GetWalletHistory(ctx, agent.AgentId, currency, recentEntries, 0)
	if err != nil {
		return true, fmt.Errorf("failed to get history: %w", err)
	}
	for i, entry := range entries {
		printEntry(report, entry, i == len(entries)-1)
	}

	if reconcile {
		if err := ledger.ReconcileWallet(ctx, agent.AgentId, currency); err != nil {
			fmt.Printf("✗ reconcile failed: %v\n", err)
			return true, err
		}
		fmt.Println("✓ reconciled")
	}
	return true, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	agentFlag := flag.String("agent", "", "Filter by specific AgentId (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Check each balance against the sum of its credits")
	flag.Parse()

	logger.Info("Starting wallet balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	ledger, err := common.InitializeWalletLedger(ctx, cfg, dbService)
	if err != nil {
		logger.Fatal("Failed to initialize wallet ledger", zap.Error(err))
	}
	if ledger != store.WalletLedger(dbService) {
		defer ledger.Close()
	}

	agents, err := common.InitializeAgents(ctx, dbService, *agentFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize agents", zap.Error(err))
	}

	currency := cfg.Ledger.Currency
	rows := walletRows(ctx, ledger, currency)

	report := common.NewReport()
	report.Header("AGENT WALLET REPORT")

	stats := balanceStats{}
	for _, agent := range agents {
		stats.totalAgents++
		hasBalance, err := processAgent(ctx, report, agent, ledger, currency, rows, *reconcileFlag)
		if hasBalance {
			stats.agentsWithBalance++
		}
		if err != nil {
			if *reconcileFlag {
				stats.reconcileFailures++
			}
			logger.Error("Failed to process agent",
				zap.String("agent_id", agent.AgentId),
				zap.Error(err))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d agents with balances (%d agents queried)",
		stats.agentsWithBalance, stats.totalAgents)
	if *reconcileFlag {
		summary += fmt.Sprintf(", %d reconcile failures", stats.reconcileFailures)
	}
	report.Footer(summary)

	logger.Info("Balance query completed",
		zap.Int("agents_queried", stats.totalAgents),
		zap.Int("agents_with_balance", stats.agentsWithBalance),
		zap.Int("reconcile_failures", stats.reconcileFailures))
}
