package models

// LevelThreshold maps a level to the cumulative XP needed to hold it.
// Static content: loaded once at boot, never mutated at runtime.
type LevelThreshold struct {
	Level                int    `gorm:"primaryKey" json:"level"`
	CumulativeXPRequired int64  `gorm:"not null" json:"cumulative_xp_required"`
	Title                string `gorm:"not null" json:"title"`
	UnlockDescription    string `json:"unlock_description"`
}

// DefaultLevelThresholds is the shipped progression curve, seeded when the
// level_thresholds table is empty.
var DefaultLevelThresholds = []LevelThreshold{
	{Level: 1, CumulativeXPRequired: 0, Title: "Newbie", UnlockDescription: "Initial Access: Unlocks Digital Frontier"},
	{Level: 2, CumulativeXPRequired: 500, Title: "Cadet", UnlockDescription: "Interface Upgrade: Unlocks Logbook history view"},
	{Level: 3, CumulativeXPRequired: 1250, Title: "Apprentice", UnlockDescription: "Safety First: Unlocks AURA Security Health Check"},
	{Level: 4, CumulativeXPRequired: 2250, Title: "Wanderer", UnlockDescription: "Access: Unlocks Trading Outpost Expedition"},
	{Level: 5, CumulativeXPRequired: 3500, Title: "Trader", UnlockDescription: "Insight: Unlocks Leaderboard and filtering options"},
	{Level: 6, CumulativeXPRequired: 5000, Title: "Collector", UnlockDescription: "Access: Unlocks Artifact Quarter Expedition"},
	{Level: 7, CumulativeXPRequired: 6750, Title: "Guardian", UnlockDescription: "Profile: Unlocks Custom Profile Tag"},
	{Level: 8, CumulativeXPRequired: 8750, Title: "Architect", UnlockDescription: "Tools: Unlocks Advanced Wallet Analysis Tools"},
	{Level: 9, CumulativeXPRequired: 11000, Title: "Veteran", UnlockDescription: "Customization: Unlocks Dashboard Theme Selector"},
	{Level: 10, CumulativeXPRequired: 13500, Title: "Frontier Citizen", UnlockDescription: "Mastery: Unlocks High Security Zone"},
}
