package services

import (
	"fmt"

	"quest-hub-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LevelTable is the loaded level progression curve. Immutable after load,
// so LevelForXP is a pure function of its input.
type LevelTable struct {
	thresholds []models.LevelThreshold
}

// NewLevelTable validates and wraps a threshold list. Levels and XP
// requirements must both be strictly increasing.
func NewLevelTable(rows []models.LevelThreshold) (*LevelTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("level table is empty")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Level <= rows[i-1].Level {
			return nil, fmt.Errorf("level table not strictly increasing in level at index %d", i)
		}
		if rows[i].CumulativeXPRequired <= rows[i-1].CumulativeXPRequired {
			return nil, fmt.Errorf("level table not strictly increasing in xp at level %d", rows[i].Level)
		}
	}
	return &LevelTable{thresholds: rows}, nil
}

// LoadLevelTable reads level_thresholds, seeding the default curve when the
// table is empty (first boot).
func LoadLevelTable(db *gorm.DB) (*LevelTable, error) {
	var rows []models.LevelThreshold
	if err := db.Order("level ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load level thresholds: %w", err)
	}
	if len(rows) == 0 {
		seed := models.DefaultLevelThresholds
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, fmt.Errorf("failed to seed level thresholds: %w", err)
		}
		rows = seed
	}
	return NewLevelTable(rows)
}

// LevelForXP returns the largest level whose cumulative requirement is
// <= totalXP, clamped to the bottom level below the first threshold and to
// the top level above the last one.
func (t *LevelTable) LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		totalXP = 0
	}
	for i := len(t.thresholds) - 1; i >= 0; i-- {
		if totalXP >= t.thresholds[i].CumulativeXPRequired {
			return t.thresholds[i].Level
		}
	}
	return t.thresholds[0].Level
}

// MaxLevel returns the top defined level.
func (t *LevelTable) MaxLevel() int {
	return t.thresholds[len(t.thresholds)-1].Level
}

// TitleForLevel returns the display title for a level, empty if undefined.
func (t *LevelTable) TitleForLevel(level int) string {
	for _, row := range t.thresholds {
		if row.Level == level {
			return row.Title
		}
	}
	return ""
}

// Thresholds returns a copy of the full curve for presentation.
func (t *LevelTable) Thresholds() []models.LevelThreshold {
	out := make([]models.LevelThreshold, len(t.thresholds))
	copy(out, t.thresholds)
	return out
}
