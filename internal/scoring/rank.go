package scoring

import "sort"

// Standing pairs a team with its event-wide weighted total.
type Standing struct {
	TeamID     uint
	TotalScore float64
}

// RankedStanding is a standing with its assigned leaderboard rank.
type RankedStanding struct {
	Standing
	Rank int
}

// SortStandings orders standings by total score descending. Equal totals fall
// back to team ID ascending (registration order), which is the documented,
// stable tie-break: ties share a rank but their display order never depends
// on storage iteration order.
func SortStandings(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].TotalScore != standings[j].TotalScore {
			return standings[i].TotalScore > standings[j].TotalScore
		}
		return standings[i].TeamID < standings[j].TeamID
	})
}

// Rank sorts the standings and assigns dense 1-based ranks: teams with equal
// totals share a rank and the next distinct total takes the next ordinal.
func Rank(standings []Standing) []RankedStanding {
	SortStandings(standings)

	ranked := make([]RankedStanding, 0, len(standings))
	rank := 0
	for i, standing := range standings {
		if i == 0 || standing.TotalScore != standings[i-1].TotalScore {
			rank++
		}
		ranked = append(ranked, RankedStanding{Standing: standing, Rank: rank})
	}
	return ranked
}
