package services

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"quest-hub-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// openTestDB gives each test an isolated in-memory database with the full
// schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared&_busy_timeout=5000", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LevelThreshold{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Expedition{},
		&models.Mission{},
		&models.MissionStatus{},
		&models.UserProfile{},
	))
	return db
}

func testLevels(t *testing.T) *LevelTable {
	t.Helper()
	levels, err := NewLevelTable(models.DefaultLevelThresholds)
	require.NoError(t, err)
	return levels
}

func mustParams(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func seedMission(t *testing.T, db *gorm.DB, mission models.Mission) models.Mission {
	t.Helper()
	if mission.Status == "" {
		mission.Status = models.MissionPublished
	}
	if mission.XPReward == 0 {
		mission.XPReward = 100
	}
	if mission.Title == "" {
		mission.Title = "Test Mission"
	}
	if mission.ExpeditionID == "" {
		mission.ExpeditionID = "digital-frontier"
	}
	require.NoError(t, db.Create(&mission).Error)
	return mission
}

func seedBadge(t *testing.T, db *gorm.DB, id string) models.Badge {
	t.Helper()
	badge := models.Badge{ID: id, Name: id, Rarity: "common"}
	require.NoError(t, db.Create(&badge).Error)
	return badge
}

func seedProfile(t *testing.T, db *gorm.DB, userID string, totalXP int64, level int, wallet string) models.UserProfile {
	t.Helper()
	profile := models.UserProfile{
		UserID:        userID,
		Username:      userID,
		TotalXP:       totalXP,
		ExplorerLevel: level,
	}
	if wallet != "" {
		profile.WalletAddress = &wallet
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func seedInProgress(t *testing.T, db *gorm.DB, userID, missionID string) models.MissionStatus {
	t.Helper()
	now := time.Now()
	status := models.MissionStatus{
		StatusID:  models.StatusID(userID, missionID),
		UserID:    userID,
		MissionID: missionID,
		Status:    models.MissionStateInProgress,
		StartedAt: &now,
	}
	require.NoError(t, db.Create(&status).Error)
	return status
}
