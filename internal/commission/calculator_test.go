package commission

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

type fakeAgents map[string]*models.Agent

func (f fakeAgents) GetAgentByAgentId(_ context.Context, agentId string) (*models.Agent, error) {
	if agentId == "BROKEN" {
		return nil, errors.New("connection reset")
	}
	agent, ok := f[agentId]
	if !ok {
		return nil, fmt.Errorf("%w: agent %s", store.ErrNotFound, agentId)
	}
	return agent, nil
}

func TestDistribute(t *testing.T) {
	root := &models.Agent{AgentId: "A1"}
	child := &models.Agent{AgentId: "A2", ParentAgentId: "A1"}
	grandchild := &models.Agent{AgentId: "A3", ParentAgentId: "A2"}
	orphan := &models.Agent{AgentId: "A4", ParentAgentId: "GONE"}
	broken := &models.Agent{AgentId: "A5", ParentAgentId: "BROKEN"}
	agents := fakeAgents{"A1": root, "A2": child, "A3": grandchild}

	calc := NewCalculator(DefaultTable(), agents)
	payment := decimal.NewFromInt(1000)

	tests := []struct {
		name         string
		agent        *models.Agent
		percentage   int64
		wantAgents   []string
		wantAmounts  []string
		wantWarnings int
	}{
		{"no parent", root, 50, []string{"A1"}, []string{"85"}, 0},
		{"with parent", child, 30, []string{"A2", "A1"}, []string{"70", "25"}, 0},
		{"bounded at two levels", grandchild, 70, []string{"A3", "A2"}, []string{"100", "50"}, 0},
		{"missing parent", orphan, 30, []string{"A4"}, []string{"70"}, 1},
		{"lookup failure", broken, 30, []string{"A5"}, []string{"70"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, warnings := calc.Distribute(context.Background(), tt.agent, decimal.NewFromInt(tt.percentage), payment)

			if len(records) != len(tt.wantAgents) {
				t.Fatalf("Expected %d records, got %d: %+v", len(tt.wantAgents), len(records), records)
			}
			for i, record := range records {
				if record.Level != i+1 {
					t.Errorf("Record %d: expected level %d, got %d", i, i+1, record.Level)
				}
				if record.AgentId != tt.wantAgents[i] {
					t.Errorf("Record %d: expected agent %s, got %s", i, tt.wantAgents[i], record.AgentId)
				}
				if !record.Amount.Equal(decimal.RequireFromString(tt.wantAmounts[i])) {
					t.Errorf("Record %d: expected amount %s, got %s", i, tt.wantAmounts[i], record.Amount)
				}
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("Expected %d warnings, got %v", tt.wantWarnings, warnings)
			}
		})
	}
}

func TestDistribute_NilAgent(t *testing.T) {
	calc := NewCalculator(nil, fakeAgents{})
	records, warnings := calc.Distribute(context.Background(), nil, decimal.NewFromInt(50), decimal.NewFromInt(1000))
	if len(records) != 0 || len(warnings) != 0 {
		t.Errorf("Expected nothing for a nil agent, got %v %v", records, warnings)
	}
}
