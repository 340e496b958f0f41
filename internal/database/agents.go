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
	"strings"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	topLevelAgentCode  = "TA"
	parentCodeLength   = 4
	maxAgentIdAttempts = 3
)

func scanAgent(row rowScanner) (*models.Agent, error) {
	var agent models.Agent
	if err := row.Scan(&agent.Id, &agent.AgentId, &agent.Name, &agent.Email,
		&agent.Pincode, &agent.ParentAgentId, &agent.CreatedAt); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (s *Service) GetAgentByAgentId(ctx context.Context, agentId string) (*models.Agent, error) {
	agent, err := scanAgent(s.db.QueryRowContext(ctx, queryGetAgentByAgentId, agentId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: agent %s", store.ErrNotFound, agentId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

func (s *Service) GetAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAgents)
	if err != nil {
		return nil, fmt.Errorf("failed to get agents: %w", err)
	}
	defer closeRows(rows)

	var agents []models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, *agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent rows: %w", err)
	}
	return agents, nil
}

// CreateAgent derives a human-readable AgentId as <parentCode><pincode><year><seq>
// and inserts the agent. A colliding id is retried with the next sequence.
func (s *Service) CreateAgent(ctx context.Context, params store.CreateAgentParams) (*models.Agent, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if !isPincode(params.Pincode) {
		return nil, fmt.Errorf("pincode must be 6 digits, got %q", params.Pincode)
	}
	if params.Year < 2000 || params.Year > 9999 {
		return nil, fmt.Errorf("invalid year %d", params.Year)
	}

	parentCode := topLevelAgentCode
	if params.ParentAgentId != "" {
		parent, err := s.GetAgentByAgentId(ctx, params.ParentAgentId)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent agent: %w", err)
		}
		parentCode = parentAgentCode(parent.AgentId)
	}
	prefix := agentIdPrefix(parentCode, params.Pincode, params.Year)

	for attempt := 1; attempt <= maxAgentIdAttempts; attempt++ {
		var existing int
		if err := s.db.QueryRowContext(ctx, queryCountAgentsWithPrefix, prefix).Scan(&existing); err != nil {
			return nil, fmt.Errorf("failed to count agents for prefix %s: %w", prefix, err)
		}

		agentId := formatAgentId(prefix, existing+attempt)
		_, err := s.db.ExecContext(ctx, queryInsertAgent,
			uuid.New().String(), agentId, params.Name, params.Email, params.Pincode, params.ParentAgentId)
		if err == nil {
			zap.L().Info("Agent created",
				zap.String("agent_id", agentId),
				zap.String("parent_agent_id", params.ParentAgentId))
			return s.GetAgentByAgentId(ctx, agentId)
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert agent: %w", err)
		}
		zap.L().Warn("Agent id collision, retrying",
			zap.String("agent_id", agentId),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("%w: could not allocate id for prefix %s", store.ErrDuplicateAgent, prefix)
}

func parentAgentCode(parentAgentId string) string {
	code := strings.ToUpper(parentAgentId)
	if len(code) > parentCodeLength {
		code = code[:parentCodeLength]
	}
	return code
}

func agentIdPrefix(parentCode, pincode string, year int) string {
	return fmt.Sprintf("%s%s%04d", strings.ToUpper(parentCode), pincode, year)
}

func formatAgentId(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

func isPincode(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
