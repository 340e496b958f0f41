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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	catalogFlag := flag.String("catalog", "", "Path to the catalog YAML (default: CATALOG_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	catalogFile := cfg.Setup.CatalogFile
	if *catalogFlag != "" {
		catalogFile = *catalogFlag
	}

	zap.L().Info("Loading catalog", zap.String("file", catalogFile))
	catalog, err := common.LoadCatalog(catalogFile)
	if err != nil {
		zap.L().Fatal("Failed to load catalog", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if err := common.ApplyCatalog(ctx, dbService, catalog); err != nil {
		zap.L().Fatal("Failed to seed catalog", zap.Error(err))
	}

	summary := fmt.Sprintf("SETUP COMPLETE: %d tours, %d terms, %d agents in catalog",
		len(catalog.Tours), len(catalog.Terms), len(catalog.Agents))
	common.NewReport().Footer(summary)

	zap.L().Info("Setup completed",
		zap.Int("tours", len(catalog.Tours)),
		zap.Int("terms", len(catalog.Terms)),
		zap.Int("agents", len(catalog.Agents)))
}
