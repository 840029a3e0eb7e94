package dto

import "time"

// RoundScoreEntry is one round's contribution to a team's leaderboard row.
// The score fields are pointers so that unpublished rounds can be masked for
// participants without conflating "hidden" with an actual zero.
type RoundScoreEntry struct {
	RoundOrder        int      `json:"round_order"`
	RoundName         string   `json:"round_name"`
	MaxScore          float64  `json:"max_score"`
	WeightagePercent  float64  `json:"weightage_percent"`
	Published         bool     `json:"published"`
	AverageJudgeScore *float64 `json:"average_judge_score"`
	AnalyzerScore     *float64 `json:"analyzer_score"`
	FinalRoundScore   *float64 `json:"final_round_score"`
	WeightedScore     *float64 `json:"weighted_score"`
}

// LeaderboardRow is a team's standing in the event leaderboard.
type LeaderboardRow struct {
	Rank        int               `json:"rank"`
	TeamID      uint              `json:"team_id"`
	TeamName    string            `json:"team_name"`
	TeamCode    string            `json:"team_code"`
	TotalScore  float64           `json:"total_score"`
	RoundScores []RoundScoreEntry `json:"round_scores"`
}

// LeaderboardResponse is the full ranked leaderboard for an event.
type LeaderboardResponse struct {
	EventID     uint             `json:"event_id"`
	EventTitle  string           `json:"event_title"`
	GeneratedAt time.Time        `json:"generated_at"`
	Rows        []LeaderboardRow `json:"rows"`
}

// ShortlistResponse is the top-N slice of a leaderboard.
type ShortlistResponse struct {
	EventID     uint             `json:"event_id"`
	Limit       int              `json:"limit"`
	GeneratedAt time.Time        `json:"generated_at"`
	Rows        []LeaderboardRow `json:"rows"`
}

// MaskUnpublished blanks score details for rounds that have not been
// published yet. Totals and ranks over published rounds are the caller's
// responsibility; masking here touches per-round detail only.
func (r *LeaderboardRow) MaskUnpublished() {
	for i := range r.RoundScores {
		if r.RoundScores[i].Published {
			continue
		}
		r.RoundScores[i].AverageJudgeScore = nil
		r.RoundScores[i].AnalyzerScore = nil
		r.RoundScores[i].FinalRoundScore = nil
		r.RoundScores[i].WeightedScore = nil
	}
}
