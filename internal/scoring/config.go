package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/arena-go-api/internal/models"
)

const weightageTolerance = 1e-9

// ValidateRounds checks the cross-round invariants of an event's round
// configuration: weightages summing to 100, unique 1-based orders, each
// round's criteria marks summing to its max score, and hybrid weights
// summing to 1. Violations are validation errors naming the broken
// invariant; nothing is ever silently adjusted.
func ValidateRounds(rounds []models.Round) error {
	if len(rounds) == 0 {
		return fmt.Errorf("an event requires at least one round")
	}

	var weightage float64
	seenOrders := make(map[int]struct{}, len(rounds))

	for _, round := range rounds {
		if round.Order < 1 {
			return fmt.Errorf("round %q order must be 1-based, got %d", round.Name, round.Order)
		}
		if _, dup := seenOrders[round.Order]; dup {
			return fmt.Errorf("round order %d is used more than once", round.Order)
		}
		seenOrders[round.Order] = struct{}{}

		if round.WeightagePercent < 0 || round.WeightagePercent > 100 {
			return fmt.Errorf("round %q weightage must lie in [0, 100], got %v", round.Name, round.WeightagePercent)
		}
		weightage += round.WeightagePercent

		if round.MaxScore < 0 {
			return fmt.Errorf("round %q max score must not be negative", round.Name)
		}

		for _, criterion := range round.Criteria {
			if criterion.MaxMarks < 0 {
				return fmt.Errorf("criterion %q max marks must not be negative", criterion.Title)
			}
		}

		// An empty criteria set sums to zero, so a round with a positive
		// max score and no criteria is rejected here too.
		if sum := round.CriteriaTotal(); math.Abs(sum-round.MaxScore) > weightageTolerance {
			return fmt.Errorf("round %q max score %v does not match sum of criteria marks %v", round.Name, round.MaxScore, sum)
		}

		if _, err := PolicyFor(round); err != nil {
			return fmt.Errorf("round %q: %w", round.Name, err)
		}
	}

	if math.Abs(weightage-100) > weightageTolerance {
		return fmt.Errorf("total round weightage must be 100, got %v", weightage)
	}

	return nil
}
