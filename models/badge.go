package models

import (
	"time"
)

// Badge: static catalog entry (seeded from the catalog file or admin routes)
type Badge struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // slug, e.g. "refueler"
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	IconURL     string    `gorm:"type:text" json:"icon_url"` // R2 URL to SVG/png
	Rarity      string    `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance. The composite unique index is what makes
// badgesEarned a set — inserting an already-held badge id upserts into the
// existing row instead of creating a duplicate.
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID   string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	MissionID string    `gorm:"index" json:"mission_id,omitempty"` // mission that granted it
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}
