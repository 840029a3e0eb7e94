package models

import "time"

// Team participates in exactly one event. Roster management happens in an
// external collaborator; the core only reads membership.
type Team struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	EventID   uint         `gorm:"not null;index" json:"event_id"`
	Name      string       `gorm:"size:255;not null" json:"name"`
	Code      string       `gorm:"size:32;uniqueIndex" json:"code"`
	LeaderID  uint         `gorm:"not null" json:"leader_id"`
	CreatedAt time.Time    `json:"created_at"`
	Members   []TeamMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"members"`
}

// TeamMember links a user to a team.
type TeamMember struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TeamID uint `gorm:"not null;index:idx_team_member,unique" json:"team_id"`
	UserID uint `gorm:"not null;index:idx_team_member,unique" json:"user_id"`
}

// HasMember reports whether the user belongs to the team.
func (t Team) HasMember(userID uint) bool {
	for _, member := range t.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}
