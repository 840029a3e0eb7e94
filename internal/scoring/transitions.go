package scoring

import "github.com/noah-isme/arena-go-api/internal/models"

var forwardChain = map[string]string{
	models.RoundStatusDraft:            models.RoundStatusOpen,
	models.RoundStatusOpen:             models.RoundStatusSubmissionClosed,
	models.RoundStatusSubmissionClosed: models.RoundStatusJudging,
	models.RoundStatusJudging:          models.RoundStatusPublished,
}

var storedStatuses = map[string]struct{}{
	models.RoundStatusDraft:            {},
	models.RoundStatusOpen:             {},
	models.RoundStatusSubmissionClosed: {},
	models.RoundStatusJudging:          {},
	models.RoundStatusPublished:        {},
}

// IsStoredStatus reports whether the value is a status a round can persist.
// The scheduled projection is deliberately excluded.
func IsStoredStatus(status string) bool {
	_, ok := storedStatuses[status]
	return ok
}

// CanTransition reports whether a round may move from one stored status to
// another. The normal path is the strict forward chain; with override an
// administrator may additionally re-open a round or reset it to draft from
// anywhere. A same-status transition is a permitted no-op.
func CanTransition(from, to string, override bool) bool {
	if !IsStoredStatus(from) || !IsStoredStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	if forwardChain[from] == to {
		return true
	}
	if override && (to == models.RoundStatusOpen || to == models.RoundStatusDraft) {
		return true
	}
	return false
}

// LocksSubmissions reports whether entering the status must lock every
// unlocked submission in the round.
func LocksSubmissions(status string) bool {
	switch status {
	case models.RoundStatusSubmissionClosed, models.RoundStatusJudging, models.RoundStatusPublished:
		return true
	default:
		return false
	}
}
