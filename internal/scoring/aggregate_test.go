package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/models"
)

func evaluationWithTotal(judgeID uint, total float64) models.Evaluation {
	return models.Evaluation{
		JudgeID: judgeID,
		Scores: []models.CriterionScore{
			{CriterionID: 1, GivenMarks: total},
		},
	}
}

func TestAggregateHybridBlendsJudgeAndAnalyzer(t *testing.T) {
	policy := Hybrid{JudgeWeight: 0.5, AIWeight: 0.5}
	evaluations := []models.Evaluation{
		evaluationWithTotal(1, 90),
		evaluationWithTotal(2, 110),
	}
	analyzerScore := 60.0

	breakdown, err := Aggregate(policy, evaluations, &analyzerScore)
	require.NoError(t, err)

	require.InDelta(t, 100.0, breakdown.AverageJudgeScore, 1e-9)
	require.InDelta(t, 80.0, breakdown.FinalTotal, 1e-9)
	require.Len(t, breakdown.JudgeScores, 2)
}

func TestAggregateHybridWithoutAnalyzerScore(t *testing.T) {
	policy := Hybrid{JudgeWeight: 0.7, AIWeight: 0.3}
	evaluations := []models.Evaluation{evaluationWithTotal(1, 80)}

	breakdown, err := Aggregate(policy, evaluations, nil)
	require.NoError(t, err)

	// The missing analyzer score contributes zero but stays nil in the
	// breakdown so callers can tell it apart from a computed zero.
	require.Nil(t, breakdown.AnalyzerScore)
	require.InDelta(t, 56.0, breakdown.FinalTotal, 1e-9)
}

func TestAggregateJudgeOnlyIgnoresAnalyzer(t *testing.T) {
	evaluations := []models.Evaluation{
		evaluationWithTotal(1, 70),
		evaluationWithTotal(2, 90),
	}
	analyzerScore := 5.0

	breakdown, err := Aggregate(JudgeOnly{}, evaluations, &analyzerScore)
	require.NoError(t, err)
	require.InDelta(t, 80.0, breakdown.FinalTotal, 1e-9)

	// Changing the analyzer score must not move the result.
	other := 95.0
	again, err := Aggregate(JudgeOnly{}, evaluations, &other)
	require.NoError(t, err)
	require.InDelta(t, breakdown.FinalTotal, again.FinalTotal, 1e-9)
}

func TestAggregateAIOnlyIgnoresJudges(t *testing.T) {
	evaluations := []models.Evaluation{evaluationWithTotal(1, 100)}
	analyzerScore := 42.5

	breakdown, err := Aggregate(AIOnly{}, evaluations, &analyzerScore)
	require.NoError(t, err)
	require.InDelta(t, 42.5, breakdown.FinalTotal, 1e-9)
}

func TestAggregateAIOnlyWithoutScoreIsZero(t *testing.T) {
	breakdown, err := Aggregate(AIOnly{}, nil, nil)
	require.NoError(t, err)
	require.Zero(t, breakdown.FinalTotal)
	require.Nil(t, breakdown.AnalyzerScore)
}

func TestAggregateIsDeterministic(t *testing.T) {
	policy := Hybrid{JudgeWeight: 0.6, AIWeight: 0.4}
	evaluations := []models.Evaluation{
		evaluationWithTotal(3, 33.33),
		evaluationWithTotal(1, 66.67),
	}
	analyzerScore := 51.2

	first, err := Aggregate(policy, evaluations, &analyzerScore)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		next, err := Aggregate(policy, evaluations, &analyzerScore)
		require.NoError(t, err)
		require.Equal(t, first.FinalTotal, next.FinalTotal)
	}
}

func TestWeightedRoundScore(t *testing.T) {
	require.InDelta(t, 24.0, WeightedRoundScore(80, 30), 1e-9)
	require.InDelta(t, 0.0, WeightedRoundScore(80, 0), 1e-9)
	require.InDelta(t, 80.0, WeightedRoundScore(80, 100), 1e-9)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 1.23, Round2(1.23499))
	require.Equal(t, 1.24, Round2(1.239))
	require.Equal(t, -1.23, Round2(-1.234))
}
