package models

import (
	"time"
)

// Expedition groups missions under a level gate. Catalog content, not core
// progression state — required_level gating on individual missions is what
// the verifier enforces.
type Expedition struct {
	ExpeditionID  string   `gorm:"primaryKey;type:varchar(64)" json:"expedition_id"`
	Title         string   `gorm:"not null" json:"title"`
	Description   string   `gorm:"type:text" json:"description"`
	RequiredLevel int      `gorm:"default:1" json:"required_level"`
	MissionIDs    []string `gorm:"serializer:json;type:jsonb" json:"mission_ids"`
	Order         int      `gorm:"column:sort_order;default:0" json:"order"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
