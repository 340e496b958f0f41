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

package commission

import (
	"context"
	"errors"
	"fmt"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AgentLookup resolves a parent agent by its business id.
type AgentLookup interface {
	GetAgentByAgentId(ctx context.Context, agentId string) (*models.Agent, error)
}

type Calculator struct {
	table  *Table
	agents AgentLookup
}

func NewCalculator(table *Table, agents AgentLookup) *Calculator {
	if table == nil {
		table = DefaultTable()
	}
	return &Calculator{table: table, agents: agents}
}

func (c *Calculator) Table() *Table {
	return c.table
}

// Distribute walks at most MaxLevels of the referral chain starting at the direct agent.
// Lookup failures stop the walk and come back as warnings, never as errors.
func (c *Calculator) Distribute(
	ctx context.Context,
	directAgent *models.Agent,
	percentage decimal.Decimal,
	paymentAmount decimal.Decimal,
) ([]models.CommissionRecord, []string) {
	var records []models.CommissionRecord
	var warnings []string

	agent := directAgent
	for level := 1; level <= MaxLevels && agent != nil; level++ {
		rate := c.table.Rate(percentage, level)
		amount := Amount(paymentAmount, rate)
		if amount.IsPositive() {
			records = append(records, models.CommissionRecord{
				AgentId: agent.AgentId,
				Level:   level,
				Amount:  amount,
				Rate:    rate,
			})
		}

		if level == MaxLevels || agent.ParentAgentId == "" {
			break
		}

		parent, err := c.agents.GetAgentByAgentId(ctx, agent.ParentAgentId)
		if err != nil {
			var warning string
			if errors.Is(err, store.ErrNotFound) {
				warning = fmt.Sprintf("parent agent %s of %s not found, level %d commission skipped",
					agent.ParentAgentId, agent.AgentId, level+1)
			} else {
				warning = fmt.Sprintf("failed to resolve parent agent %s: %v", agent.ParentAgentId, err)
			}
			zap.L().Warn("Commission chain truncated",
				zap.String("agent_id", agent.AgentId),
				zap.String("parent_agent_id", agent.ParentAgentId),
				zap.Error(err))
			warnings = append(warnings, warning)
			break
		}
		agent = parent
	}

	return records, warnings
}
