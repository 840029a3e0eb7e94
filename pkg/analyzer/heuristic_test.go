package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func heuristicRequest() Request {
	return Request{
		EventTitle: "City Hackathon",
		RoundName:  "Build",
		NotesText:  strings.Repeat("A detailed write-up of the project. ", 20),
		Links:      []string{"https://github.com/owls/city", "https://youtu.be/demo"},
		Criteria: []CriterionSpec{
			{ID: 1, Title: "Concept Description", MaxMarks: 40},
			{ID: 2, Title: "Code Quality", MaxMarks: 30},
			{ID: 3, Title: "Demo Video", MaxMarks: 30},
		},
	}
}

func TestHeuristicAnalyzerFullMarksWithAllSignals(t *testing.T) {
	result, err := NewHeuristicAnalyzer().Analyze(context.Background(), heuristicRequest())
	require.NoError(t, err)
	require.Equal(t, "heuristic", result.Provider)
	require.Len(t, result.Scores, 3)
	require.InDelta(t, 100, result.Total, 1e-9)
	require.Empty(t, result.RiskFlags)
}

func TestHeuristicAnalyzerPenalizesMissingLinks(t *testing.T) {
	request := heuristicRequest()
	request.Links = nil

	result, err := NewHeuristicAnalyzer().Analyze(context.Background(), request)
	require.NoError(t, err)

	for _, score := range result.Scores {
		switch score.CriterionID {
		case 2, 3:
			require.Zero(t, score.Score)
		}
	}
	require.Contains(t, result.RiskFlags, "No repository link provided.")
}

func TestHeuristicAnalyzerFlagsShortNotes(t *testing.T) {
	request := heuristicRequest()
	request.NotesText = "Short."

	result, err := NewHeuristicAnalyzer().Analyze(context.Background(), request)
	require.NoError(t, err)
	require.Contains(t, result.RiskFlags, "Submission description is very short.")
	require.NotEmpty(t, result.ImprovementTips)
}

func TestHeuristicAnalyzerNeverExceedsMax(t *testing.T) {
	result, err := NewHeuristicAnalyzer().Analyze(context.Background(), heuristicRequest())
	require.NoError(t, err)

	for _, score := range result.Scores {
		require.GreaterOrEqual(t, score.Score, 0.0)
		require.LessOrEqual(t, score.Score, score.MaxMarks)
	}
	require.LessOrEqual(t, result.Total, heuristicRequest().MaxTotal())
}

func TestHeuristicAnalyzerIsDeterministic(t *testing.T) {
	first, err := NewHeuristicAnalyzer().Analyze(context.Background(), heuristicRequest())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := NewHeuristicAnalyzer().Analyze(context.Background(), heuristicRequest())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
