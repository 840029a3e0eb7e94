package scoring

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// EffectiveStatus projects the status a round behaves as at the given
// instant. Administrator-set draft, judging, and published always win; time
// derivation only applies while the stored status is in the submission
// window and both boundary times are configured.
//
// The same projection gates server-side enforcement and client display so
// the two never disagree about whether a round is open.
func EffectiveStatus(round models.Round, now time.Time) string {
	if !round.AutoTimeControlEnabled {
		return round.Status
	}

	switch round.Status {
	case models.RoundStatusDraft, models.RoundStatusJudging, models.RoundStatusPublished:
		return round.Status
	}

	if round.StartTime == nil || round.EndTime == nil {
		return round.Status
	}

	switch {
	case now.Before(*round.StartTime):
		return models.RoundStatusScheduled
	case now.After(*round.EndTime):
		return models.RoundStatusSubmissionClosed
	default:
		return models.RoundStatusOpen
	}
}

// AcceptsSubmissions reports whether the round's effective status allows
// creating or editing submissions.
func AcceptsSubmissions(round models.Round, now time.Time) bool {
	return EffectiveStatus(round, now) == models.RoundStatusOpen
}
