package services

import (
	"context"
	"errors"

	"quest-hub-system/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CatalogService owns read access to the mission/expedition/badge catalog
// and the admin-side content writes. Players never mutate catalog rows.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// GetMission resolves a published mission by id. Draft/scheduled/archived
// entries are invisible to players.
func (s *CatalogService) GetMission(ctx context.Context, missionID string) (*models.Mission, error) {
	var mission models.Mission
	err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("mission_id = ? AND status = ?", missionID, models.MissionPublished).
		First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errf(KindNotFound, "mission %s not found", missionID)
		}
		return nil, err
	}
	return &mission, nil
}

// ListPublishedMissions returns the full live catalog ordered by expedition.
func (s *CatalogService) ListPublishedMissions(ctx context.Context) ([]models.Mission, error) {
	var missions []models.Mission
	err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("status = ?", models.MissionPublished).
		Order("expedition_id ASC, difficulty ASC, mission_id ASC").
		Find(&missions).Error
	return missions, err
}

// ListExpeditions returns all expeditions in display order.
func (s *CatalogService) ListExpeditions(ctx context.Context) ([]models.Expedition, error) {
	var expeditions []models.Expedition
	err := s.DB.WithContext(ctx).Order("sort_order ASC").Find(&expeditions).Error
	return expeditions, err
}

// GetBadge resolves a badge catalog entry.
func (s *CatalogService) GetBadge(ctx context.Context, badgeID string) (*models.Badge, error) {
	var badge models.Badge
	err := s.DB.WithContext(ctx).Where("id = ?", badgeID).First(&badge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errf(KindNotFound, "badge %s not found", badgeID)
		}
		return nil, err
	}
	return &badge, nil
}

// CreateMission inserts a new catalog entry (admin only). The mission id is
// derived from the title when absent, and the verification descriptor must
// decode for its declared type before anything is written.
func (s *CatalogService) CreateMission(ctx context.Context, mission *models.Mission) error {
	if mission.Title == "" {
		return Errf(KindInvalidArgument, "mission title is required")
	}
	if mission.XPReward <= 0 {
		return Errf(KindInvalidArgument, "xp reward must be positive")
	}
	if mission.MissionID == "" {
		mission.MissionID = slug.Make(mission.Title)
	}
	if err := ValidateVerificationSpec(mission.Verification); err != nil {
		return err
	}
	if mission.BadgeID != nil {
		if _, err := s.GetBadge(ctx, *mission.BadgeID); err != nil {
			return err
		}
	}
	if err := s.DB.WithContext(ctx).Create(mission).Error; err != nil {
		return err
	}
	return nil
}

// SetBadgeIcon updates a badge's icon URL after an upload.
func (s *CatalogService) SetBadgeIcon(ctx context.Context, badgeID, iconURL string) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Badge{}).
		Where("id = ?", badgeID).
		Update("icon_url", iconURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return Errf(KindNotFound, "badge %s not found", badgeID)
	}
	return nil
}
