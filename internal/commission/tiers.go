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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// MaxLevels is the depth of the referral chain that earns commission.
const MaxLevels = 2

var hundred = decimal.NewFromInt(100)

// Tier applies when the onboarded percentage is at least Threshold.
type Tier struct {
	Threshold decimal.Decimal
	Level1    decimal.Decimal
	Level2    decimal.Decimal
}

// Table holds tiers ordered by descending threshold.
type Table struct {
	tiers []Tier
}

type tierFile struct {
	Tiers []struct {
		Threshold float64 `yaml:"threshold"`
		Level1    float64 `yaml:"level1"`
		Level2    float64 `yaml:"level2"`
	} `yaml:"tiers"`
}

func DefaultTable() *Table {
	table, _ := NewTable([]Tier{
		{Threshold: decimal.NewFromInt(65), Level1: decimal.NewFromInt(10), Level2: decimal.NewFromInt(5)},
		{Threshold: decimal.NewFromInt(45), Level1: decimal.RequireFromString("8.5"), Level2: decimal.RequireFromString("3.5")},
		{Threshold: decimal.Zero, Level1: decimal.NewFromInt(7), Level2: decimal.RequireFromString("2.5")},
	})
	return table
}

// NewTable validates tiers: thresholds and rates within [0,100], thresholds unique,
// and exactly one tier at threshold 0 so every percentage has a rate.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("commission table needs at least one tier")
	}

	seen := make(map[string]bool, len(tiers))
	floors := 0
	for i, tier := range tiers {
		if !inPercentRange(tier.Threshold) {
			return nil, fmt.Errorf("tier %d: threshold %s outside [0,100]", i, tier.Threshold)
		}
		if !inPercentRange(tier.Level1) || !inPercentRange(tier.Level2) {
			return nil, fmt.Errorf("tier %d: rates must be within [0,100]", i)
		}
		key := tier.Threshold.String()
		if seen[key] {
			return nil, fmt.Errorf("tier %d: duplicate threshold %s", i, key)
		}
		seen[key] = true
		if tier.Threshold.IsZero() {
			floors++
		}
	}
	if floors != 1 {
		return nil, fmt.Errorf("commission table needs exactly one tier with threshold 0, found %d", floors)
	}

	sorted := append([]Tier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold.GreaterThan(sorted[j].Threshold)
	})
	return &Table{tiers: sorted}, nil
}

// LoadTable reads a YAML tier file. An empty path yields the default table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tiers path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read commission tiers %s: %w", absPath, err)
	}

	var file tierFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse commission tiers: %w", err)
	}

	tiers := make([]Tier, 0, len(file.Tiers))
	for _, t := range file.Tiers {
		tiers = append(tiers, Tier{
			Threshold: decimal.NewFromFloat(t.Threshold),
			Level1:    decimal.NewFromFloat(t.Level1),
			Level2:    decimal.NewFromFloat(t.Level2),
		})
	}

	table, err := NewTable(tiers)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Loaded commission tiers", zap.String("file", absPath), zap.Int("tiers", len(tiers)))
	return table, nil
}

// Rate returns the commission percentage for a level. Levels other than 1 and 2 earn nothing.
func (t *Table) Rate(percentageOnboarded decimal.Decimal, level int) decimal.Decimal {
	for _, tier := range t.tiers {
		if percentageOnboarded.GreaterThanOrEqual(tier.Threshold) {
			switch level {
			case 1:
				return tier.Level1
			case 2:
				return tier.Level2
			default:
				return decimal.Zero
			}
		}
	}
	return decimal.Zero
}

// UpdatedPercentage is the share of the departure's occupancy the agent has onboarded.
func UpdatedPercentage(customerGiven, actualOccupancy int) decimal.Decimal {
	if actualOccupancy <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(customerGiven)).
		Div(decimal.NewFromInt(int64(actualOccupancy))).
		Mul(hundred)
}

// Amount is payment * rate / 100 in paise precision.
func Amount(payment, rate decimal.Decimal) decimal.Decimal {
	return payment.Mul(rate).Div(hundred).Round(2)
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}
