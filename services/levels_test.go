package services

import (
	"testing"

	"quest-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXPBoundaries(t *testing.T) {
	levels := testLevels(t)

	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{1249, 2},
		{1250, 3},
		{13499, 9},
		{13500, 10},
		{999999, 10}, // clamped to the top level
		{-50, 1},     // clamped to the bottom level
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levels.LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestLevelTableMetadata(t *testing.T) {
	levels := testLevels(t)

	assert.Equal(t, 10, levels.MaxLevel())
	assert.Equal(t, "Newbie", levels.TitleForLevel(1))
	assert.Equal(t, "Frontier Citizen", levels.TitleForLevel(10))
	assert.Equal(t, "", levels.TitleForLevel(42))
}

func TestNewLevelTableRejectsBadCurves(t *testing.T) {
	_, err := NewLevelTable(nil)
	assert.Error(t, err)

	_, err = NewLevelTable([]models.LevelThreshold{
		{Level: 1, CumulativeXPRequired: 0},
		{Level: 1, CumulativeXPRequired: 500},
	})
	assert.Error(t, err, "duplicate level must be rejected")

	_, err = NewLevelTable([]models.LevelThreshold{
		{Level: 1, CumulativeXPRequired: 500},
		{Level: 2, CumulativeXPRequired: 500},
	})
	assert.Error(t, err, "non-increasing xp must be rejected")
}

func TestLoadLevelTableSeedsDefaults(t *testing.T) {
	db := openTestDB(t)

	levels, err := LoadLevelTable(db)
	require.NoError(t, err)
	assert.Equal(t, 10, levels.MaxLevel())

	var count int64
	require.NoError(t, db.Model(&models.LevelThreshold{}).Count(&count).Error)
	assert.Equal(t, int64(10), count)

	// Second load reads the seeded rows instead of re-seeding.
	again, err := LoadLevelTable(db)
	require.NoError(t, err)
	assert.Equal(t, levels.Thresholds(), again.Thresholds())
}

func TestLoadLevelTablePrefersStoredCurve(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&[]models.LevelThreshold{
		{Level: 1, CumulativeXPRequired: 0, Title: "Rookie"},
		{Level: 2, CumulativeXPRequired: 100, Title: "Pro"},
	}).Error)

	levels, err := LoadLevelTable(db)
	require.NoError(t, err)
	assert.Equal(t, 2, levels.MaxLevel())
	assert.Equal(t, "Pro", levels.TitleForLevel(2))
}
