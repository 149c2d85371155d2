package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile is the progress document for one explorer. The primary key is
// the auth subject id issued by the auth service; the wallet address is bound
// after the first wallet connection and may be absent until then.
//
// TotalXP only ever grows, and ExplorerLevel is always derived from TotalXP
// via the level threshold table — the ProgressionService is the sole writer
// of both.
type UserProfile struct {
	UserID        string  `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	Username      string  `gorm:"index" json:"username"`
	WalletAddress *string `gorm:"uniqueIndex" json:"wallet_address,omitempty"`

	TotalXP       int64 `json:"total_xp" gorm:"default:0"`
	ExplorerLevel int   `json:"explorer_level" gorm:"default:1"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
