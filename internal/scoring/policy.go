package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/arena-go-api/internal/models"
)

const weightTolerance = 1e-9

// Policy is the closed set of scoring modes a round can run under. The
// sealed marker method keeps dispatch exhaustive: every consumer must
// type-switch over the three variants and treat anything else as an error.
type Policy interface {
	scoringPolicy()
	Mode() string
}

// JudgeOnly scores a submission purely from judge marks.
type JudgeOnly struct{}

// AIOnly scores a submission purely from the analyzer total. Judge marks are
// rejected upstream for rounds running this policy.
type AIOnly struct{}

// Hybrid blends the judge average and the analyzer total. Weights must sum
// to one; PolicyFor enforces this before a Hybrid value can exist.
type Hybrid struct {
	JudgeWeight float64
	AIWeight    float64
}

func (JudgeOnly) scoringPolicy() {}
func (AIOnly) scoringPolicy()    {}
func (Hybrid) scoringPolicy()    {}

// Mode returns the wire name of the policy.
func (JudgeOnly) Mode() string { return models.ScoringModeJudgeOnly }

// Mode returns the wire name of the policy.
func (AIOnly) Mode() string { return models.ScoringModeAIOnly }

// Mode returns the wire name of the policy.
func (Hybrid) Mode() string { return models.ScoringModeHybrid }

// PolicyFor resolves the scoring policy configured on a round.
func PolicyFor(round models.Round) (Policy, error) {
	switch round.ScoringMode {
	case models.ScoringModeJudgeOnly:
		return JudgeOnly{}, nil
	case models.ScoringModeAIOnly:
		return AIOnly{}, nil
	case models.ScoringModeHybrid:
		if err := validateHybridWeights(round.JudgeWeight, round.AIWeight); err != nil {
			return nil, err
		}
		return Hybrid{JudgeWeight: round.JudgeWeight, AIWeight: round.AIWeight}, nil
	default:
		return nil, fmt.Errorf("unknown scoring mode %q", round.ScoringMode)
	}
}

func validateHybridWeights(judgeWeight, aiWeight float64) error {
	if judgeWeight < 0 || judgeWeight > 1 || aiWeight < 0 || aiWeight > 1 {
		return fmt.Errorf("hybrid weights must lie in [0, 1], got judge=%v ai=%v", judgeWeight, aiWeight)
	}
	if math.Abs(judgeWeight+aiWeight-1) > weightTolerance {
		return fmt.Errorf("hybrid weights must sum to 1, got judge=%v ai=%v", judgeWeight, aiWeight)
	}
	return nil
}
