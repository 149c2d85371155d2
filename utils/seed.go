// utils/seed.go
package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"quest-hub-system/models"
	"quest-hub-system/services"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogSeed is the on-disk catalog content format (expeditions, badges,
// missions, level curve). Replaces manual console seeding.
type CatalogSeed struct {
	Expeditions []models.Expedition     `json:"expeditions"`
	Badges      []models.Badge          `json:"badges"`
	Missions    []models.Mission        `json:"missions"`
	Levels      []models.LevelThreshold `json:"levels"`
}

// SeedSummary reports what an import touched.
type SeedSummary struct {
	Expeditions int `json:"expeditions"`
	Badges      int `json:"badges"`
	Missions    int `json:"missions"`
	Levels      int `json:"levels"`
}

var titleCaser = cases.Title(language.English)

// LoadCatalogSeedFile reads a seed file from disk.
func LoadCatalogSeedFile(path string) (*CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var seed CatalogSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// ImportCatalogSeed upserts seed content. Idempotent: re-running the same
// seed converges instead of duplicating. Missions with an invalid
// verification descriptor are rejected before anything is written.
func ImportCatalogSeed(db *gorm.DB, seed *CatalogSeed) (*SeedSummary, error) {
	for i := range seed.Missions {
		m := &seed.Missions[i]
		if m.MissionID == "" {
			m.MissionID = slug.Make(m.Title)
		}
		if m.Title == "" {
			m.Title = titleCaser.String(strings.ReplaceAll(m.MissionID, "_", " "))
		}
		if err := services.ValidateVerificationSpec(m.Verification); err != nil {
			return nil, fmt.Errorf("mission %s: %w", m.MissionID, err)
		}
		// Seed content goes live immediately unless the entry says otherwise.
		if m.Status == "" {
			m.Status = models.MissionPublished
		}
	}
	for i := range seed.Badges {
		b := &seed.Badges[i]
		if b.ID == "" {
			b.ID = slug.Make(b.Name)
		}
		if b.Rarity == "" {
			b.Rarity = "common"
		}
	}
	for i := range seed.Expeditions {
		e := &seed.Expeditions[i]
		if e.ExpeditionID == "" {
			e.ExpeditionID = slug.Make(e.Title)
		}
	}

	summary := &SeedSummary{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(seed.Expeditions) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&seed.Expeditions).Error; err != nil {
				return fmt.Errorf("failed to upsert expeditions: %w", err)
			}
			summary.Expeditions = len(seed.Expeditions)
		}
		if len(seed.Badges) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&seed.Badges).Error; err != nil {
				return fmt.Errorf("failed to upsert badges: %w", err)
			}
			summary.Badges = len(seed.Badges)
		}
		if len(seed.Missions) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&seed.Missions).Error; err != nil {
				return fmt.Errorf("failed to upsert missions: %w", err)
			}
			summary.Missions = len(seed.Missions)
		}
		if len(seed.Levels) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&seed.Levels).Error; err != nil {
				return fmt.Errorf("failed to upsert level thresholds: %w", err)
			}
			summary.Levels = len(seed.Levels)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🌱 Catalog seed imported: %d expedition(s), %d badge(s), %d mission(s), %d level row(s)",
		summary.Expeditions, summary.Badges, summary.Missions, summary.Levels)
	return summary, nil
}

// SeedCatalogFromEnv imports CATALOG_SEED_FILE when set. Missing env is
// fine — content can also arrive via the admin seed route.
func SeedCatalogFromEnv(db *gorm.DB) error {
	path := os.Getenv("CATALOG_SEED_FILE")
	if path == "" {
		return nil
	}
	seed, err := LoadCatalogSeedFile(path)
	if err != nil {
		return err
	}
	_, err = ImportCatalogSeed(db, seed)
	return err
}
