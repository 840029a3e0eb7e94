package models

import "time"

// Event represents a competition composed of ordered judging rounds.
type Event struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Theme       string       `gorm:"size:128" json:"theme"`
	StartDate   time.Time    `gorm:"not null" json:"start_date"`
	EndDate     time.Time    `gorm:"not null" json:"end_date"`
	CreatedBy   uint         `gorm:"not null;index" json:"created_by"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Rounds      []Round      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rounds"`
	Judges      []EventJudge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"judges"`
}

// EventJudge assigns a judge to an event. A nil RoundOrder means the judge
// may score every round; otherwise only the named round.
type EventJudge struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EventID    uint `gorm:"not null;index:idx_event_judge,unique" json:"event_id"`
	JudgeID    uint `gorm:"not null;index:idx_event_judge,unique" json:"judge_id"`
	RoundOrder *int `gorm:"index:idx_event_judge,unique" json:"round_order"`
}

// RoundByOrder looks up a round by its 1-based order.
func (e Event) RoundByOrder(order int) (Round, bool) {
	for _, round := range e.Rounds {
		if round.Order == order {
			return round, true
		}
	}
	return Round{}, false
}

// HasJudge reports whether the user is assigned to judge the given round.
func (e Event) HasJudge(judgeID uint, roundOrder int) bool {
	for _, assignment := range e.Judges {
		if assignment.JudgeID != judgeID {
			continue
		}
		if assignment.RoundOrder == nil || *assignment.RoundOrder == roundOrder {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether the user created this event.
func (e Event) IsOwnedBy(userID uint) bool {
	return e.CreatedBy == userID
}
