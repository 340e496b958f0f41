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

	"tour-settlement-go/internal/store"

	"go.uber.org/zap"
)

// AgentInfo represents simplified agent information for command-line utilities
type AgentInfo struct {
	AgentId       string
	Name          string
	Email         string
	ParentAgentId string
}

// InitializeAgents retrieves agents based on an optional agent id filter.
// If agentFilter is provided, returns a single agent with that id.
// If agentFilter is empty, returns all agents.
func InitializeAgents(ctx context.Context, agents store.AgentStore, agentFilter string, logger *zap.Logger) ([]AgentInfo, error) {
	var result []AgentInfo

	if agentFilter != "" {
		logger.Info("Looking up agent", zap.String("agent_id", agentFilter))
		agent, err := agents.GetAgentByAgentId(ctx, agentFilter)
		if err != nil {
			return nil, fmt.Errorf("agent not found: %w", err)
		}
		result = append(result, AgentInfo{
			AgentId:       agent.AgentId,
			Name:          agent.Name,
			Email:         agent.Email,
			ParentAgentId: agent.ParentAgentId,
		})
	} else {
		all, err := agents.GetAgents(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get agents: %w", err)
		}
		for _, a := range all {
			result = append(result, AgentInfo{
				AgentId:       a.AgentId,
				Name:          a.Name,
				Email:         a.Email,
				ParentAgentId: a.ParentAgentId,
			})
		}
	}

	logger.Info("Retrieved agents", zap.Int("count", len(result)))
	return result, nil
}
