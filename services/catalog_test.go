package services

import (
	"context"
	"testing"
	"time"

	"quest-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissionHidesDrafts(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	seedMission(t, db, models.Mission{MissionID: "live"})
	seedMission(t, db, models.Mission{MissionID: "draft", Status: models.MissionDraft})
	seedMission(t, db, models.Mission{MissionID: "gone", Status: models.MissionArchived})

	_, err := svc.GetMission(ctx, "live")
	assert.NoError(t, err)

	_, err = svc.GetMission(ctx, "draft")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.GetMission(ctx, "gone")
	assert.Equal(t, KindNotFound, KindOf(err))

	missions, err := svc.ListPublishedMissions(ctx)
	require.NoError(t, err)
	assert.Len(t, missions, 1)
}

func TestCreateMission(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	mission := &models.Mission{
		Title:        "Fund Your Wallet",
		ExpeditionID: "digital-frontier",
		XPReward:     100,
		Verification: models.VerificationSpec{
			Type:   models.VerificationBalanceCheck,
			Params: mustParams(t, models.BalanceCheckParams{TargetChainID: "1", MinAmount: 0.0001}),
		},
	}
	require.NoError(t, svc.CreateMission(ctx, mission))
	assert.Equal(t, "fund-your-wallet", mission.MissionID, "id derived from title")

	// Missing params for a chain-backed type never reaches the table.
	err := svc.CreateMission(ctx, &models.Mission{
		Title:        "Broken",
		ExpeditionID: "digital-frontier",
		XPReward:     50,
		Verification: models.VerificationSpec{Type: models.VerificationBalanceCheck},
	})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	err = svc.CreateMission(ctx, &models.Mission{Title: "", XPReward: 10})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	err = svc.CreateMission(ctx, &models.Mission{Title: "Free XP", XPReward: 0})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	ghost := "no-such-badge"
	err = svc.CreateMission(ctx, &models.Mission{
		Title:        "Badge Mission",
		ExpeditionID: "digital-frontier",
		XPReward:     10,
		BadgeID:      &ghost,
		Verification: models.VerificationSpec{Type: models.VerificationManual},
	})
	assert.Equal(t, KindNotFound, KindOf(err), "badge reference must exist")
}

func TestPublishDueMissions(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	seedMission(t, db, models.Mission{MissionID: "due", Status: models.MissionScheduled, PublishAt: &past})
	seedMission(t, db, models.Mission{MissionID: "later", Status: models.MissionScheduled, PublishAt: &future})

	published := svc.PublishDueMissions(time.Now())
	assert.Equal(t, 1, published)

	var due, later models.Mission
	require.NoError(t, db.Where("mission_id = ?", "due").First(&due).Error)
	require.NoError(t, db.Where("mission_id = ?", "later").First(&later).Error)
	assert.Equal(t, models.MissionPublished, due.Status)
	assert.Nil(t, due.PublishAt)
	assert.Equal(t, models.MissionScheduled, later.Status)
}

func TestSetBadgeIcon(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	seedBadge(t, db, "refueler")
	require.NoError(t, svc.SetBadgeIcon(ctx, "refueler", "https://cdn.example.com/badges/refueler.svg"))

	badge, err := svc.GetBadge(ctx, "refueler")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/badges/refueler.svg", badge.IconURL)

	err = svc.SetBadgeIcon(ctx, "ghost", "https://cdn.example.com/x.svg")
	assert.Equal(t, KindNotFound, KindOf(err))
}
