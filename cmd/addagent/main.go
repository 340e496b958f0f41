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
	"errors"
	"flag"
	"fmt"
	"regexp"
	"time"

	"tour-settlement-go/internal/common"
	"tour-settlement-go/internal/config"
	"tour-settlement-go/internal/store"

	"go.uber.org/zap"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	pincodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func validatePincode(pincode string) error {
	if !pincodeRegex.MatchString(pincode) {
		return fmt.Errorf("pincode must be 6 digits, got %q", pincode)
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Agent's full name (required)")
	emailFlag := flag.String("email", "", "Agent's email address (required)")
	pincodeFlag := flag.String("pincode", "", "6-digit postal code (required)")
	parentFlag := flag.String("parent", "", "AgentId of the referring agent (optional)")
	yearFlag := flag.Int("year", time.Now().Year(), "Onboarding year used in the AgentId")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" || *pincodeFlag == "" {
		zap.L().Fatal("Flags are required: --name, --email and --pincode")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	if err := validatePincode(*pincodeFlag); err != nil {
		zap.L().Fatal("Invalid pincode", zap.Error(err))
	}

	zap.L().Info("Starting agent onboarding",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag),
		zap.String("parent", *parentFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	agent, err := dbService.CreateAgent(ctx, store.CreateAgentParams{
		Name:          *nameFlag,
		Email:         *emailFlag,
		Pincode:       *pincodeFlag,
		ParentAgentId: *parentFlag,
		Year:          *yearFlag,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			zap.L().Fatal("Parent agent does not exist", zap.String("parent", *parentFlag))
		case errors.Is(err, store.ErrDuplicateAgent):
			zap.L().Fatal("Could not allocate a unique AgentId, retry", zap.Error(err))
		}
		zap.L().Fatal("Failed to create agent", zap.Error(err))
	}

	report := common.NewReport()
	report.Header("AGENT ONBOARDED")
	report.Field("AgentId", agent.AgentId)
	report.Field("Name", agent.Name)
	report.Field("Email", agent.Email)
	if agent.ParentAgentId != "" {
		report.Field("Parent", agent.ParentAgentId)
	}
	report.Separator("=")

	zap.L().Info("Agent created successfully", zap.String("agent_id", agent.AgentId))
}
