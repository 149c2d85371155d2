package models

import (
	"fmt"
	"time"
)

// MissionState is the stored per-user mission state. "locked" never hits the
// database — it is derived on read from the user's level vs. the mission's
// required level, so a level-up unlocks missions without any write.
type MissionState string

const (
	MissionStateLocked     MissionState = "locked" // derived only
	MissionStateAvailable  MissionState = "available"
	MissionStateInProgress MissionState = "in-progress"
	MissionStateCompleted  MissionState = "completed"
)

// MissionStatus is one user × mission row. StatusID is the composite key
// userID_missionID, so a pair can never have two rows.
// "completed" is terminal and one-way.
type MissionStatus struct {
	StatusID  string       `gorm:"primaryKey;type:varchar(192)" json:"status_id"`
	UserID    string       `gorm:"index;not null" json:"user_id"`
	MissionID string       `gorm:"index;not null" json:"mission_id"`
	Status    MissionState `gorm:"type:varchar(16);not null;default:'available'" json:"status"`

	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	EarnedBadgeID *string    `json:"earned_badge_id,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StatusID builds the composite key for a user × mission pair.
func StatusID(userID, missionID string) string {
	return fmt.Sprintf("%s_%s", userID, missionID)
}

// CanTransition reports whether the stored state machine permits from → to.
func CanTransition(from, to MissionState) bool {
	switch from {
	case MissionStateAvailable:
		return to == MissionStateInProgress
	case MissionStateInProgress:
		return to == MissionStateCompleted
	default:
		return false
	}
}
