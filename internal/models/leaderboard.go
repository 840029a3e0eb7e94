package models

import (
	"time"

	"gorm.io/datatypes"
)

// LeaderboardSnapshot persists one full leaderboard recomputation for an
// event. Snapshots are projections: the source of truth stays in submissions,
// evaluations, and round configuration, so a snapshot can always be rebuilt.
type LeaderboardSnapshot struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventID     uint           `gorm:"not null;index:idx_event_generated" json:"event_id"`
	EventTitle  string         `gorm:"size:255" json:"event_title"`
	GeneratedAt time.Time      `gorm:"not null;index:idx_event_generated" json:"generated_at"`
	Rows        datatypes.JSON `json:"rows"`
}
