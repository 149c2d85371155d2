package services

import (
	"context"
	"errors"
	"log"
	"time"

	"quest-hub-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MissionWithState is a catalog entry plus the caller's derived state.
type MissionWithState struct {
	models.Mission
	State       models.MissionState `json:"state"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ExpeditionWithState is an expedition plus the caller's level gate result.
type ExpeditionWithState struct {
	models.Expedition
	Locked bool `json:"locked"`
}

// VerifyMissionResponse is the contract returned to the frontend for one
// verify call, successful or not.
type VerifyMissionResponse struct {
	Success    bool          `json:"success"`
	XPGained   int64         `json:"xpGained"`
	LeveledUp  bool          `json:"leveledUp"`
	NewLevel   *int          `json:"newLevel,omitempty"`
	NewTotalXP int64         `json:"newTotalXP,omitempty"`
	Badge      *models.Badge `json:"badge,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// MissionService drives the per-user mission state machine and orchestrates
// verify-then-award as one logical request.
type MissionService struct {
	DB       *gorm.DB
	Catalog  *CatalogService
	Progress *ProgressionService
	Engine   *VerificationEngine
}

func NewMissionService(db *gorm.DB, catalog *CatalogService, progress *ProgressionService, engine *VerificationEngine) *MissionService {
	return &MissionService{DB: db, Catalog: catalog, Progress: progress, Engine: engine}
}

// deriveState computes the caller-visible state. "locked" is never stored:
// it falls out of the level gate on every read, so leveling up unlocks
// missions with no write. A stored "completed" always wins.
func deriveState(profile *models.UserProfile, mission *models.Mission, stored *models.MissionStatus) models.MissionState {
	if stored != nil && stored.Status == models.MissionStateCompleted {
		return models.MissionStateCompleted
	}
	if profile.ExplorerLevel < mission.RequiredLevel {
		return models.MissionStateLocked
	}
	if stored == nil {
		return models.MissionStateAvailable
	}
	return stored.Status
}

// ListMissionsForUser returns the published catalog annotated with the
// caller's derived state per mission.
func (s *MissionService) ListMissionsForUser(ctx context.Context, userID string) ([]MissionWithState, error) {
	profile, err := s.Progress.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	missions, err := s.Catalog.ListPublishedMissions(ctx)
	if err != nil {
		return nil, err
	}

	var statuses []models.MissionStatus
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&statuses).Error; err != nil {
		return nil, err
	}
	byMission := make(map[string]*models.MissionStatus, len(statuses))
	for i := range statuses {
		byMission[statuses[i].MissionID] = &statuses[i]
	}

	out := make([]MissionWithState, 0, len(missions))
	for i := range missions {
		stored := byMission[missions[i].MissionID]
		entry := MissionWithState{
			Mission: missions[i],
			State:   deriveState(profile, &missions[i], stored),
		}
		if stored != nil {
			entry.StartedAt = stored.StartedAt
			entry.CompletedAt = stored.CompletedAt
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListExpeditionsForUser returns expeditions with the caller's level gate.
func (s *MissionService) ListExpeditionsForUser(ctx context.Context, userID string) ([]ExpeditionWithState, error) {
	profile, err := s.Progress.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	expeditions, err := s.Catalog.ListExpeditions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ExpeditionWithState, 0, len(expeditions))
	for _, e := range expeditions {
		out = append(out, ExpeditionWithState{
			Expedition: e,
			Locked:     profile.ExplorerLevel < e.RequiredLevel,
		})
	}
	return out, nil
}

// StartMission moves available → in-progress for the caller. Starting an
// already-running mission is a no-op returning the existing row.
func (s *MissionService) StartMission(ctx context.Context, userID, missionID string) (*models.MissionStatus, error) {
	mission, err := s.Catalog.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Progress.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.ExplorerLevel < mission.RequiredLevel {
		return nil, Errf(KindPreconditionFailed, "mission %s requires level %d", missionID, mission.RequiredLevel)
	}

	statusID := models.StatusID(userID, missionID)

	var existing models.MissionStatus
	err = s.DB.WithContext(ctx).Where("status_id = ?", statusID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.MissionStateCompleted {
			return nil, Errf(KindPreconditionFailed, "mission %s already completed", missionID)
		}
		if existing.Status == models.MissionStateInProgress {
			return &existing, nil
		}
		if !models.CanTransition(existing.Status, models.MissionStateInProgress) {
			return nil, Errf(KindPreconditionFailed, "mission %s cannot be started from state %s", missionID, existing.Status)
		}
		now := time.Now()
		res := s.DB.WithContext(ctx).Model(&models.MissionStatus{}).
			Where("status_id = ? AND status = ?", statusID, existing.Status).
			Updates(map[string]interface{}{"status": models.MissionStateInProgress, "started_at": now, "updated_at": now})
		if res.Error != nil {
			return nil, res.Error
		}
		existing.Status = models.MissionStateInProgress
		existing.StartedAt = &now
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		status := models.MissionStatus{
			StatusID:  statusID,
			UserID:    userID,
			MissionID: missionID,
			Status:    models.MissionStateInProgress,
			StartedAt: &now,
		}
		// Two tabs racing on start both land on the same row.
		if err := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&status).Error; err != nil {
			return nil, err
		}
		log.Printf("🚀 Mission started: %s → %s", userID, missionID)
		return &status, nil

	default:
		return nil, err
	}
}

// VerifyAndAward is the single verification entry point the frontend calls.
// The idempotency guard runs before any chain query: re-verifying a
// completed mission is rejected without wasting a provider round trip.
func (s *MissionService) VerifyAndAward(ctx context.Context, userID, missionID string) (*VerifyMissionResponse, error) {
	mission, err := s.Catalog.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Progress.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.ExplorerLevel < mission.RequiredLevel {
		return nil, Errf(KindPreconditionFailed, "mission %s requires level %d", missionID, mission.RequiredLevel)
	}

	statusID := models.StatusID(userID, missionID)
	var status models.MissionStatus
	if err := s.DB.WithContext(ctx).Where("status_id = ?", statusID).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errf(KindPreconditionFailed, "mission %s was not started", missionID)
		}
		return nil, err
	}
	if status.Status == models.MissionStateCompleted {
		return nil, Errf(KindPreconditionFailed, "mission %s already completed", missionID)
	}
	if status.Status != models.MissionStateInProgress {
		return nil, Errf(KindPreconditionFailed, "mission %s is not in progress", missionID)
	}

	outcome, err := s.Engine.Verify(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	if !outcome.Passed {
		return &VerifyMissionResponse{Success: false, Reason: outcome.Reason}, nil
	}

	result, err := s.Progress.Award(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	return buildVerifyResponse(result, outcome.Reason), nil
}

// AttestManualCompletion is the administrative completion path for manual
// missions: an operator vouches for the off-chain action, and the award
// goes through the same atomic updater as on-chain verifications.
func (s *MissionService) AttestManualCompletion(ctx context.Context, adminID, userID, missionID string) (*VerifyMissionResponse, error) {
	mission, err := s.Catalog.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if mission.Verification.Type != models.VerificationManual {
		return nil, Errf(KindInvalidArgument, "mission %s is not manually verified", missionID)
	}

	result, err := s.Progress.Award(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	log.Printf("📋 Manual completion attested: admin=%s user=%s mission=%s", adminID, userID, missionID)
	return buildVerifyResponse(result, ""), nil
}

func buildVerifyResponse(result *ProgressionResult, reason string) *VerifyMissionResponse {
	resp := &VerifyMissionResponse{
		Success:    true,
		XPGained:   result.XPGained,
		LeveledUp:  result.LeveledUp,
		NewTotalXP: result.NewTotalXP,
		Badge:      result.Badge,
		Reason:     reason,
	}
	if result.LeveledUp {
		level := result.NewLevel
		resp.NewLevel = &level
	}
	return resp
}
