package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankDenseWithTies(t *testing.T) {
	ranked := Rank([]Standing{
		{TeamID: 4, TotalScore: 70},
		{TeamID: 2, TotalScore: 90},
		{TeamID: 3, TotalScore: 90},
		{TeamID: 1, TotalScore: 100},
	})

	require.Len(t, ranked, 4)
	require.Equal(t, uint(1), ranked[0].TeamID)
	require.Equal(t, 1, ranked[0].Rank)

	// Tied teams share rank 2, ordered by team ID.
	require.Equal(t, uint(2), ranked[1].TeamID)
	require.Equal(t, 2, ranked[1].Rank)
	require.Equal(t, uint(3), ranked[2].TeamID)
	require.Equal(t, 2, ranked[2].Rank)

	// Dense ranking: the next distinct total takes rank 3, not 4.
	require.Equal(t, uint(4), ranked[3].TeamID)
	require.Equal(t, 3, ranked[3].Rank)
}

func TestRankAllTied(t *testing.T) {
	ranked := Rank([]Standing{
		{TeamID: 3, TotalScore: 50},
		{TeamID: 1, TotalScore: 50},
		{TeamID: 2, TotalScore: 50},
	})

	for i, standing := range ranked {
		require.Equal(t, 1, standing.Rank)
		require.Equal(t, uint(i+1), standing.TeamID)
	}
}

func TestRankEmpty(t *testing.T) {
	require.Empty(t, Rank(nil))
}

func TestSortStandingsStableTieBreak(t *testing.T) {
	standings := []Standing{
		{TeamID: 9, TotalScore: 10},
		{TeamID: 2, TotalScore: 10},
		{TeamID: 5, TotalScore: 10},
	}
	SortStandings(standings)

	require.Equal(t, uint(2), standings[0].TeamID)
	require.Equal(t, uint(5), standings[1].TeamID)
	require.Equal(t, uint(9), standings[2].TeamID)
}
