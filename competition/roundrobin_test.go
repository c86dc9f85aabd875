package competition

import (
	"fmt"
	"testing"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeams(n int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := range teams {
		teams[i] = &models.Team{ID: i + 1, DisplayName: fmt.Sprintf("Team %d", i+1), DisplayOrder: i}
	}
	return teams
}

func TestSplitIntoGroupsBalanced(t *testing.T) {
	tests := []struct {
		teams, groups int
	}{
		{teams: 8, groups: 2},
		{teams: 9, groups: 2},
		{teams: 10, groups: 3},
		{teams: 7, groups: 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d teams %d groups", tt.teams, tt.groups), func(t *testing.T) {
			groups, err := SplitIntoGroups(makeTeams(tt.teams), tt.groups)
			require.NoError(t, err)
			require.Len(t, groups, tt.groups)

			sizes := make([]int, len(groups))
			total := 0
			for i, g := range groups {
				sizes[i] = len(g)
				total += len(g)
			}
			assert.Equal(t, tt.teams, total)

			// Разница размеров зон не больше единицы.
			min, max := sizes[0], sizes[0]
			for _, s := range sizes {
				if s < min {
					min = s
				}
				if s > max {
					max = s
				}
			}
			assert.LessOrEqual(t, max-min, 1)
		})
	}
}

func TestSplitIntoGroupsExcludesSubstitutes(t *testing.T) {
	teams := makeTeams(5)
	teams[4].IsSubstitute = true

	groups, err := SplitIntoGroups(teams, 2)
	require.NoError(t, err)
	total := 0
	for _, g := range groups {
		for _, team := range g {
			assert.False(t, team.IsSubstitute)
			total++
		}
	}
	assert.Equal(t, 4, total)
}

func TestSplitIntoGroupsSeedsSpread(t *testing.T) {
	teams := makeTeams(8)
	one, two := 1, 2
	teams[3].SeedNumber = &one
	teams[6].SeedNumber = &two

	groups, err := SplitIntoGroups(teams, 2)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	// Два сильнейших посева не должны попасть в одну зону.
	assert.Equal(t, teams[3].ID, groups[0][0].ID)
	assert.Equal(t, teams[6].ID, groups[1][0].ID)
}

func TestSplitIntoGroupsNotEnoughTeams(t *testing.T) {
	_, err := SplitIntoGroups(makeTeams(1), 1)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestRoundRobinPairs(t *testing.T) {
	for n := 2; n <= 8; n++ {
		pairs := RoundRobinPairs(n)
		assert.Len(t, pairs, n*(n-1)/2, "n=%d", n)

		seen := make(map[[2]int]bool)
		for _, p := range pairs {
			assert.Less(t, p[0], p[1])
			assert.False(t, seen[p], "pair %v repeated", p)
			seen[p] = true
		}
	}
}
