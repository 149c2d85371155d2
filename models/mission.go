package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// VerificationType discriminates the verification variants a mission can carry.
type VerificationType string

const (
	VerificationBalanceCheck   VerificationType = "balance_check"
	VerificationTxHistoryCheck VerificationType = "tx_history_check"
	VerificationEventCheck     VerificationType = "event_check"
	VerificationManual         VerificationType = "manual"
)

// VerificationSpec is the tagged verification descriptor stored on a mission.
// Params stays raw here; the engine decodes it into the typed params struct
// for the declared type and rejects anything malformed.
type VerificationSpec struct {
	Type   VerificationType `json:"type"`
	Params json.RawMessage  `json:"params,omitempty"`
}

// BalanceCheckParams: pass iff wallet holds >= MinAmount of the currency.
// MinAmount is in whole-token units; Decimals defaults to 18 when zero.
// TokenAddress set = ERC-20 balance, empty = native balance.
type BalanceCheckParams struct {
	TargetChainID  string  `json:"targetChainId"`
	TargetCurrency string  `json:"targetCurrency"`
	TokenAddress   string  `json:"tokenAddress,omitempty"`
	MinAmount      float64 `json:"minAmount"`
	Decimals       int     `json:"decimals,omitempty"`
}

// TxHistoryCheckParams: pass iff a transfer matching the predicate exists
// within the check window. Counterparty/MinValue/Direction are the optional
// predicate; with none of them set the check degrades to "any transfer".
type TxHistoryCheckParams struct {
	TargetChainID string   `json:"targetChainId"`
	CheckWindow   int      `json:"checkWindow"` // days
	Categories    []string `json:"categories,omitempty"`
	Counterparty  string   `json:"counterparty,omitempty"`
	MinValue      float64  `json:"minValue,omitempty"` // whole-token units
	Direction     string   `json:"direction,omitempty"` // "sent" | "received"
	Decimals      int      `json:"decimals,omitempty"`
}

// EventCheckParams: pass iff the wallet appears as an indexed participant in
// a log of EventSignature on ContractAddress with amount >= MinAmountIn.
// The amount is read from the log's first data word; a positive MinAmountIn
// therefore requires the event to carry the amount unindexed. Events whose
// fields are fully indexed can only gate on participation (MinAmountIn 0).
type EventCheckParams struct {
	TargetChainID   string  `json:"targetChainId"`
	ContractAddress string  `json:"contractAddress"`
	EventSignature  string  `json:"eventSignature"`
	MinAmountIn     float64 `json:"minAmountIn"`
	Decimals        int     `json:"decimals,omitempty"`
	LookbackBlocks  int64   `json:"lookbackBlocks,omitempty"`
}

// MissionPublishStatus is the content-management state of a catalog entry.
// Only published missions are resolvable by players.
type MissionPublishStatus string

const (
	MissionDraft     MissionPublishStatus = "draft"
	MissionScheduled MissionPublishStatus = "scheduled"
	MissionPublished MissionPublishStatus = "published"
	MissionArchived  MissionPublishStatus = "archived"
)

// Mission is one catalog entry. Immutable from the player's point of view;
// only admin content routes and the seed importer write it.
type Mission struct {
	MissionID    string `gorm:"primaryKey;type:varchar(64)" json:"mission_id"` // slug
	ExpeditionID string `gorm:"index;not null" json:"expedition_id"`
	Title        string `gorm:"not null" json:"title"`
	Difficulty   int    `gorm:"default:1" json:"difficulty"`
	XPReward     int64  `gorm:"not null" json:"xp_reward"`
	TimeEstimate string `json:"time_estimate"`
	Platform     string `json:"platform"`
	Lore         string `gorm:"type:text" json:"lore"`
	ActionPlan   []string `gorm:"serializer:json;type:jsonb" json:"action_plan"`
	ExternalLink string `json:"external_link,omitempty"`

	BadgeID *string `gorm:"index" json:"badge_id,omitempty"`
	Badge   *Badge  `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`

	Verification  VerificationSpec `gorm:"serializer:json;type:jsonb" json:"verification"`
	RequiredLevel int              `gorm:"default:1" json:"required_level"`

	Status    MissionPublishStatus `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	PublishAt *time.Time           `json:"publish_at,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
