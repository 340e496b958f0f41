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

	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/models"

	"go.uber.org/zap"
)

// GetAgentWallet returns the agent's balance and the most recent credits
func (s *WalletService) GetAgentWallet(ctx context.Context, agentId string, limit, offset int) (*models.WalletSummary, error) {
	if agentId == "" {
		return nil, domain.ValidationError{Field: "agentId", Msg: "is required"}
	}

	agent, err := s.agents.GetAgentByAgentId(ctx, agentId)
	if err != nil {
		return nil, domain.FromStore("agent", err)
	}

	balance, err := s.ledger.GetWalletBalance(ctx, agentId, s.currency)
	if err != nil {
		zap.L().Error("Failed to get wallet balance",
			zap.String("agent_id", agentId),
			zap.String("request_id", models.RequestIdFrom(ctx)),
			zap.Error(err))
		return nil, domain.InternalError{Msg: "failed to retrieve balance", Err: err}
	}

	entries, err := s.GetWalletHistory(ctx, agentId, limit, offset)
	if err != nil {
		return nil, err
	}

	return &models.WalletSummary{
		AgentId: agent.AgentId,
		Name:    agent.Name,
		Balance: balance,
		Entries: entries,
	}, nil
}

// GetWalletHistory returns paginated commission credits for an agent
func (s *WalletService) GetWalletHistory(ctx context.Context, agentId string, limit, offset int) ([]models.WalletEntry, error) {
	if agentId == "" {
		return nil, domain.ValidationError{Field: "agentId", Msg: "is required"}
	}
	limit, offset = clampHistoryLimit(limit, offset)

	entries, err := s.ledger.GetWalletHistory(ctx, agentId, s.currency, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get wallet history",
			zap.String("agent_id", agentId),
			zap.String("request_id", models.RequestIdFrom(ctx)),
			zap.Error(err))
		return nil, domain.InternalError{Msg: "failed to retrieve wallet history", Err: err}
	}
	if entries == nil {
		entries = []models.WalletEntry{}
	}
	return entries, nil
}
