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
	"os"
	"path/filepath"
	"strings"
	"time"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// TourEntry is one tour departure in the seed catalog. Money fields are decimal strings.
type TourEntry struct {
	Id           string `yaml:"id"`
	Name         string `yaml:"name"`
	PricePerHead string `yaml:"price_per_head"`
	AdultPrice   string `yaml:"adult_price"`
	ChildPrice   string `yaml:"child_price"`
	GSTPercent   string `yaml:"gst_percent"`
	Occupancy    int    `yaml:"occupancy"`
	StartDate    string `yaml:"start_date"`
}

type TermsEntry struct {
	Type    string `yaml:"type"`
	TourId  string `yaml:"tour_id"`
	Version string `yaml:"version"`
	Content string `yaml:"content"`
	Active  bool   `yaml:"active"`
}

// AgentEntry onboards an agent. Parent names an earlier entry's email.
type AgentEntry struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Pincode string `yaml:"pincode"`
	Year    int    `yaml:"year"`
	Parent  string `yaml:"parent"`
}

type Catalog struct {
	Tours  []TourEntry  `yaml:"tours"`
	Terms  []TermsEntry `yaml:"terms"`
	Agents []AgentEntry `yaml:"agents"`
}

// CatalogStore is what seeding writes to.
type CatalogStore interface {
	store.TourStore
	store.TermsStore
	store.AgentStore
}

func LoadCatalog(catalogFile string) (*Catalog, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unable to parse catalog: %w", err)
	}

	for i, tour := range catalog.Tours {
		if tour.Id == "" {
			return nil, fmt.Errorf("tour at index %d missing id", i)
		}
		if tour.Occupancy <= 0 {
			return nil, fmt.Errorf("tour %s must have a positive occupancy", tour.Id)
		}
		if _, err := time.Parse("2006-01-02", tour.StartDate); err != nil {
			return nil, fmt.Errorf("tour %s has invalid start_date %q", tour.Id, tour.StartDate)
		}
	}
	for i, terms := range catalog.Terms {
		if terms.Type != models.TermsTypeTour && terms.Type != models.TermsTypeGeneral {
			return nil, fmt.Errorf("terms at index %d has unknown type %q", i, terms.Type)
		}
		if terms.Version == "" {
			return nil, fmt.Errorf("terms at index %d missing version", i)
		}
	}
	for i, agent := range catalog.Agents {
		if agent.Email == "" {
			return nil, fmt.Errorf("agent at index %d missing email", i)
		}
	}

	return &catalog, nil
}

// ApplyCatalog seeds tours, terms and agents. Re-running it leaves existing rows as they are,
// except tours which are upserted.
func ApplyCatalog(ctx context.Context, s CatalogStore, catalog *Catalog) error {
	for _, entry := range catalog.Tours {
		tour, err := entry.toTour()
		if err != nil {
			return err
		}
		if err := s.UpsertTour(ctx, tour); err != nil {
			return fmt.Errorf("failed to seed tour %s: %w", entry.Id, err)
		}
		zap.L().Info("Seeded tour", zap.String("tour_id", tour.Id), zap.String("name", tour.Name))
	}

	for _, entry := range catalog.Terms {
		terms, err := s.CreateTerms(ctx, models.TermsAndConditions{
			Type:    entry.Type,
			TourId:  entry.TourId,
			Version: entry.Version,
			Content: entry.Content,
			Active:  entry.Active,
		})
		if err != nil {
			return fmt.Errorf("failed to seed terms %s/%s: %w", entry.Type, entry.Version, err)
		}
		zap.L().Info("Seeded terms", zap.String("terms_id", terms.Id), zap.String("version", terms.Version))
	}

	existing, err := s.GetAgents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load agents: %w", err)
	}
	byEmail := make(map[string]string, len(existing))
	for _, a := range existing {
		byEmail[strings.ToLower(a.Email)] = a.AgentId
	}

	for _, entry := range catalog.Agents {
		email := strings.ToLower(entry.Email)
		if agentId, ok := byEmail[email]; ok {
			zap.L().Info("Agent already onboarded", zap.String("email", entry.Email), zap.String("agent_id", agentId))
			continue
		}

		params := store.CreateAgentParams{
			Name:    entry.Name,
			Email:   entry.Email,
			Pincode: entry.Pincode,
			Year:    entry.Year,
		}
		if params.Year == 0 {
			params.Year = time.Now().Year()
		}
		if entry.Parent != "" {
			parentId, ok := byEmail[strings.ToLower(entry.Parent)]
			if !ok {
				return fmt.Errorf("agent %s references unknown parent %s", entry.Email, entry.Parent)
			}
			params.ParentAgentId = parentId
		}

		agent, err := s.CreateAgent(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to seed agent %s: %w", entry.Email, err)
		}
		byEmail[email] = agent.AgentId
		zap.L().Info("Seeded agent", zap.String("email", agent.Email), zap.String("agent_id", agent.AgentId))
	}

	return nil
}

func (e TourEntry) toTour() (models.Tour, error) {
	start, err := time.Parse("2006-01-02", e.StartDate)
	if err != nil {
		return models.Tour{}, fmt.Errorf("tour %s has invalid start_date %q", e.Id, e.StartDate)
	}

	tour := models.Tour{
		Id:        e.Id,
		Name:      e.Name,
		Occupancy: e.Occupancy,
		StartDate: start,
	}

	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"price_per_head", e.PricePerHead, &tour.PricePerHead},
		{"adult_price", e.AdultPrice, &tour.AdultPrice},
		{"child_price", e.ChildPrice, &tour.ChildPrice},
		{"gst_percent", e.GSTPercent, &tour.GSTPercent},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return models.Tour{}, fmt.Errorf("tour %s has invalid %s %q", e.Id, f.name, f.value)
		}
		*f.dst = d
	}
	return tour, nil
}
