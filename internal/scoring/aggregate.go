package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// JudgeScore is one judge's summed total for a submission.
type JudgeScore struct {
	JudgeID uint    `json:"judge_id"`
	Total   float64 `json:"total"`
}

// Breakdown is the derived score state of a single submission. It is always
// computed fresh from the full evaluation set plus the attached analyzer
// total; nothing in it is ever mutated incrementally.
type Breakdown struct {
	JudgeScores       []JudgeScore `json:"judge_scores"`
	AverageJudgeScore float64      `json:"average_judge_score"`
	AnalyzerScore     *float64     `json:"analyzer_score"`
	FinalTotal        float64      `json:"final_total"`
}

// Aggregate combines every judge's marks and the analyzer score into the
// submission's final total under the given policy. An absent analyzer score
// stays nil in the breakdown and contributes zero to the arithmetic, so
// callers can distinguish "not yet available" from "computed as zero".
func Aggregate(policy Policy, evaluations []models.Evaluation, analyzerScore *float64) (Breakdown, error) {
	breakdown := Breakdown{
		JudgeScores:   make([]JudgeScore, 0, len(evaluations)),
		AnalyzerScore: analyzerScore,
	}

	var sum float64
	for _, evaluation := range evaluations {
		total := evaluation.Total()
		breakdown.JudgeScores = append(breakdown.JudgeScores, JudgeScore{
			JudgeID: evaluation.JudgeID,
			Total:   total,
		})
		sum += total
	}
	if len(evaluations) > 0 {
		breakdown.AverageJudgeScore = sum / float64(len(evaluations))
	}

	aiScore := 0.0
	if analyzerScore != nil {
		aiScore = *analyzerScore
	}

	switch p := policy.(type) {
	case JudgeOnly:
		breakdown.FinalTotal = breakdown.AverageJudgeScore
	case AIOnly:
		breakdown.FinalTotal = aiScore
	case Hybrid:
		breakdown.FinalTotal = breakdown.AverageJudgeScore*p.JudgeWeight + aiScore*p.AIWeight
	default:
		return Breakdown{}, fmt.Errorf("unhandled scoring policy %T", policy)
	}

	return breakdown, nil
}

// WeightedRoundScore applies the round's share of the event total.
func WeightedRoundScore(finalTotal, weightagePercent float64) float64 {
	return finalTotal * weightagePercent / 100
}

// Round2 rounds to two decimal places so repeated leaderboard recomputations
// produce byte-identical totals.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
