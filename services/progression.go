package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"quest-hub-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAwardAttempts bounds the optimistic-concurrency retry loop. Under
// pathological contention the caller gets a transient failure, never a
// doubled or lost grant.
const maxAwardAttempts = 3

// errAwardConflict signals that another writer moved the profile's XP
// between our read and write. Retried inside Award, never surfaced.
var errAwardConflict = errors.New("award: optimistic concurrency conflict")

// ProgressionResult is what one successful award changed.
type ProgressionResult struct {
	XPGained   int64         `json:"xp_gained"`
	NewTotalXP int64         `json:"new_total_xp"`
	LeveledUp  bool          `json:"leveled_up"`
	NewLevel   int           `json:"new_level"`
	Badge      *models.Badge `json:"badge,omitempty"`
}

// EarnedBadge is a catalog badge plus its award metadata for one user.
type EarnedBadge struct {
	models.Badge
	AwardedAt time.Time `json:"awarded_at"`
	MissionID string    `json:"mission_id,omitempty"`
}

// ProgressionService is the sole writer of totalXP, explorerLevel and the
// badge set. Everything it writes goes through one transaction per award.
type ProgressionService struct {
	DB     *gorm.DB
	Levels *LevelTable
}

func NewProgressionService(db *gorm.DB, levels *LevelTable) *ProgressionService {
	return &ProgressionService{DB: db, Levels: levels}
}

// EnsureProfile creates the progress document on first contact (idempotent).
func (s *ProgressionService) EnsureProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.UserProfile{
			UserID:        userID,
			TotalXP:       0,
			ExplorerLevel: 1,
		}
		if err := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile resolves an existing profile or a tagged NotFound.
func (s *ProgressionService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errf(KindNotFound, "user profile %s not found", userID)
		}
		return nil, err
	}
	return &profile, nil
}

// BindWallet attaches a wallet address to a profile. Verification refuses
// to run until this happened.
func (s *ProgressionService) BindWallet(ctx context.Context, userID, walletAddress string) error {
	if walletAddress == "" {
		return Errf(KindInvalidArgument, "wallet address is empty")
	}
	res := s.DB.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("wallet_address", walletAddress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return Errf(KindNotFound, "user profile %s not found", userID)
	}
	return nil
}

// ListBadges returns the user's earned badge set joined with the catalog.
func (s *ProgressionService) ListBadges(ctx context.Context, userID string) ([]EarnedBadge, error) {
	var earned []EarnedBadge
	err := s.DB.WithContext(ctx).
		Model(&models.UserBadge{}).
		Select("badges.*, user_badges.awarded_at, user_badges.mission_id").
		Joins("INNER JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at DESC").
		Scan(&earned).Error
	return earned, err
}

// Award applies a verified mission's consequences: XP, derived level, badge,
// and the one-way status flip to completed — all in one transaction.
// Retries the read-compute-write cycle a bounded number of times on
// optimistic conflicts before surfacing a transient failure.
func (s *ProgressionService) Award(ctx context.Context, userID, missionID string) (*ProgressionResult, error) {
	for attempt := 1; attempt <= maxAwardAttempts; attempt++ {
		result, err := s.tryAward(ctx, userID, missionID)
		if err == nil {
			return result, nil
		}
		if !isRetryableAwardErr(err) {
			return nil, err
		}
		log.Printf("⚠️ Award conflict for %s/%s (attempt %d/%d), retrying", userID, missionID, attempt, maxAwardAttempts)
		time.Sleep(time.Duration(attempt) * 25 * time.Millisecond)
	}
	return nil, Errf(KindTransientFailure, "award for mission %s kept conflicting, try again", missionID)
}

func isRetryableAwardErr(err error) bool {
	if errors.Is(err, errAwardConflict) {
		return true
	}
	// Serialization/deadlock aborts and lock-contention busy errors read the
	// same as conflicts: re-running the cycle resolves them.
	msg := err.Error()
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "table is locked")
}

// tryAward runs one full read-compute-write cycle.
func (s *ProgressionService) tryAward(ctx context.Context, userID, missionID string) (*ProgressionResult, error) {
	var result *ProgressionResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-resolve the mission inside the transaction: if it vanished or
		// got unpublished since verification, no XP may be granted.
		var mission models.Mission
		if err := tx.Preload("Badge").
			Where("mission_id = ? AND status = ?", missionID, models.MissionPublished).
			First(&mission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Errf(KindNotFound, "mission %s no longer exists", missionID)
			}
			return err
		}

		var profile models.UserProfile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Errf(KindNotFound, "user profile %s not found", userID)
			}
			return err
		}

		statusID := models.StatusID(userID, missionID)
		var status models.MissionStatus
		if err := tx.Where("status_id = ?", statusID).First(&status).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Errf(KindPreconditionFailed, "mission %s was not started", missionID)
			}
			return err
		}
		if status.Status == models.MissionStateCompleted {
			return Errf(KindPreconditionFailed, "mission %s already completed", missionID)
		}

		newTotalXP := profile.TotalXP + mission.XPReward
		newLevel := s.Levels.LevelForXP(newTotalXP)
		leveledUp := newLevel > profile.ExplorerLevel
		now := time.Now()

		// Optimistic write: guarded on the XP we read, so a concurrent award
		// on the same profile can't be silently overwritten.
		updates := map[string]interface{}{
			"total_xp":       newTotalXP,
			"explorer_level": newLevel,
			"updated_at":     now,
		}
		if leveledUp {
			updates["last_level_up_at"] = now
		}
		res := tx.Model(&models.UserProfile{}).
			Where("user_id = ? AND total_xp = ?", userID, profile.TotalXP).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAwardConflict
		}

		// One-way flip to completed. The status guard in the WHERE clause is
		// what makes two racing awards resolve to exactly one completion.
		statusUpdates := map[string]interface{}{
			"status":       models.MissionStateCompleted,
			"completed_at": now,
			"updated_at":   now,
		}
		if mission.BadgeID != nil {
			statusUpdates["earned_badge_id"] = *mission.BadgeID
		}
		flip := tx.Model(&models.MissionStatus{}).
			Where("status_id = ? AND status <> ?", statusID, models.MissionStateCompleted).
			Updates(statusUpdates)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return Errf(KindPreconditionFailed, "mission %s already completed", missionID)
		}

		// Badge set union: conflict on (user_id, badge_id) means already held.
		if mission.BadgeID != nil {
			userBadge := models.UserBadge{
				ID:        uuid.NewString(),
				UserID:    userID,
				BadgeID:   *mission.BadgeID,
				MissionID: mission.MissionID,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
				DoNothing: true,
			}).Create(&userBadge).Error; err != nil {
				return err
			}
		}

		result = &ProgressionResult{
			XPGained:   mission.XPReward,
			NewTotalXP: newTotalXP,
			LeveledUp:  leveledUp,
			NewLevel:   newLevel,
			Badge:      mission.Badge,
		}

		log.Printf("🎮 XP awarded: %s +%d → XP=%d, Lvl=%d (mission: %s)",
			userID, mission.XPReward, newTotalXP, newLevel, missionID)

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
