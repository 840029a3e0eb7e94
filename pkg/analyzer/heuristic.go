package analyzer

import (
	"context"
	"fmt"
	"strings"
)

const heuristicProvider = "heuristic"

// HeuristicAnalyzer is the last-resort local scorer used when no external
// analyzer is reachable. It marks each criterion from cheap signals in the
// submission: notes length for descriptive criteria, presence of repository
// or demo links for technical and pitch criteria.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer constructs the local fallback analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze scores the request deterministically. It never fails.
func (h *HeuristicAnalyzer) Analyze(_ context.Context, request Request) (Result, error) {
	result := Result{
		Confidence: 0.5,
		Provider:   heuristicProvider,
	}

	hasRepoLink := containsLink(request.Links, "github.", "gitlab.", "bitbucket.")
	hasDemoLink := containsLink(request.Links, "youtu", "vimeo", "drive.", "demo", "slides", ".ppt")
	notesLength := len(strings.TrimSpace(request.NotesText))

	for _, criterion := range request.Criteria {
		score, reason := scoreCriterion(criterion, notesLength, hasRepoLink, hasDemoLink)
		result.Scores = append(result.Scores, CriterionScore{
			CriterionID: criterion.ID,
			Title:       criterion.Title,
			MaxMarks:    criterion.MaxMarks,
			Score:       score,
			Reason:      reason,
		})
		if score >= criterion.MaxMarks*0.8 {
			result.Strengths = append(result.Strengths, fmt.Sprintf("Strong performance in %s", criterion.Title))
		} else if score < criterion.MaxMarks*0.5 {
			result.ImprovementTips = append(result.ImprovementTips, fmt.Sprintf("%s (%s)", reason, criterion.Title))
		}
	}
	clampScores(&result)

	if notesLength < 50 {
		result.RiskFlags = append(result.RiskFlags, "Submission description is very short.")
	}
	if !hasRepoLink {
		result.RiskFlags = append(result.RiskFlags, "No repository link provided.")
	}
	if len(result.Strengths) == 0 {
		result.Strengths = []string{"Submission structure meets requirements."}
	}

	result.Summary = fmt.Sprintf("Evaluation based on %d criteria. Scored %.1f points.", len(request.Criteria), result.Total)

	return result, nil
}

func scoreCriterion(criterion CriterionSpec, notesLength int, hasRepoLink, hasDemoLink bool) (float64, string) {
	title := strings.ToLower(criterion.Title)
	max := criterion.MaxMarks

	switch {
	case containsAny(title, "doc", "desc", "concept"):
		switch {
		case notesLength > 500:
			return max, fmt.Sprintf("Good detail in %s.", criterion.Title)
		case notesLength > 200:
			return max * 0.7, fmt.Sprintf("Good detail in %s.", criterion.Title)
		case notesLength > 50:
			return max * 0.4, fmt.Sprintf("Expand on your %s. The description is too brief.", criterion.Title)
		default:
			return 0, fmt.Sprintf("Expand on your %s. The description is too brief.", criterion.Title)
		}
	case containsAny(title, "code", "repo", "tech"):
		if hasRepoLink {
			return max, "Repository link provided."
		}
		return 0, "Missing repository link."
	case containsAny(title, "demo", "video", "pitch"):
		if hasDemoLink {
			return max, "Demo material provided."
		}
		return 0, "Missing demo video or presentation."
	default:
		if notesLength > 100 {
			return max * 0.8, "Automated check completed."
		}
		return max * 0.5, "Automated check completed."
	}
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

func containsLink(links []string, needles ...string) bool {
	for _, link := range links {
		if containsAny(strings.ToLower(link), needles...) {
			return true
		}
	}
	return false
}
