package competition

import (
	"testing"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedQualifiers(teamIDs ...int) []Qualifier {
	qualifiers := make([]Qualifier, len(teamIDs))
	for i := range teamIDs {
		id := teamIDs[i]
		qualifiers[i] = Qualifier{
			TeamID:     &id,
			GroupOrder: i % 2,
			Position:   i/2 + 1,
			Label:      QualifierLabel(i/2+1, i%2),
		}
	}
	return qualifiers
}

func TestBracketSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{2, 2}, {3, 4}, {4, 4}, {5, 8}, {8, 8}, {9, 16}, {16, 16}, {17, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BracketSize(tt.n), "n=%d", tt.n)
	}
}

func TestRoundsFor(t *testing.T) {
	rounds, err := RoundsFor(8)
	require.NoError(t, err)
	assert.Equal(t, []models.PlayoffRound{models.RoundCuartos, models.RoundSemifinal, models.RoundFinal}, rounds)

	rounds, err = RoundsFor(2)
	require.NoError(t, err)
	assert.Equal(t, []models.PlayoffRound{models.RoundFinal}, rounds)

	_, err = RoundsFor(64)
	assert.ErrorIs(t, err, ErrBracketTooLarge)
}

func TestSeedOrderKeepsTopSeedsApart(t *testing.T) {
	assert.Equal(t, []int{1, 2}, seedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, seedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedOrder(8))
}

// Пять квалифицирующихся: сетка на 8, ровно 3 bye в первом раунде,
// каждый bye сразу завершён с автопроходом.
func TestBuildBracketFiveQualifiersByes(t *testing.T) {
	bracket, err := BuildBracket(resolvedQualifiers(101, 102, 103, 104, 105))
	require.NoError(t, err)

	assert.Equal(t, 5, bracket.SlotsNeeded)
	assert.Equal(t, 8, bracket.SlotsAvailable)
	assert.Equal(t, 0, bracket.PlaceholdersUsed)
	require.Len(t, bracket.Rounds, 3)
	assert.Equal(t, models.RoundCuartos, bracket.Rounds[0].Name)

	byes := 0
	for _, m := range bracket.Rounds[0].Matches {
		if m.Bye {
			byes++
			assert.True(t, m.Side2.Empty(), "bye has only one populated side")
			require.True(t, m.Side1.Resolved())
		}
	}
	assert.Equal(t, 3, byes)

	// Топ-посев (101) играет против слабейшего реального соперника или bye.
	first := bracket.Rounds[0].Matches[0]
	require.True(t, first.Side1.Resolved())
	assert.Equal(t, 101, *first.Side1.TeamID)
	assert.True(t, first.Bye, "seed 1 of 5 in an 8-bracket gets a bye")
}

func TestBuildBracketAdvancesByesIntoNextRound(t *testing.T) {
	bracket, err := BuildBracket(resolvedQualifiers(1, 2, 3, 4, 5))
	require.NoError(t, err)

	semis := bracket.Rounds[1]
	require.Equal(t, models.RoundSemifinal, semis.Name)
	resolvedSides := 0
	for _, m := range semis.Matches {
		for _, side := range []Side{m.Side1, m.Side2} {
			if side.Resolved() {
				resolvedSides++
			} else {
				assert.Contains(t, side.Placeholder, "Winner ")
			}
		}
	}
	assert.Equal(t, 3, resolvedSides, "three byes auto-advance into the semifinals")
}

func TestBuildBracketFinalHasWinnerPlaceholders(t *testing.T) {
	bracket, err := BuildBracket(resolvedQualifiers(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, bracket.Rounds, 2)

	final := bracket.Rounds[1]
	require.Equal(t, models.RoundFinal, final.Name)
	require.Len(t, final.Matches, 1)
	assert.Equal(t, WinnerLabel(models.RoundSemifinal, 1), final.Matches[0].Side1.Placeholder)
	assert.Equal(t, WinnerLabel(models.RoundSemifinal, 2), final.Matches[0].Side2.Placeholder)
}

func TestBuildBracketPreviewPlaceholders(t *testing.T) {
	// Зона A доиграна, зона B — нет: её участники остаются плейсхолдерами.
	groups := []*models.Group{
		{ID: 1, Order: 0, TeamIDs: []int{11, 12}},
		{ID: 2, Order: 1, TeamIDs: []int{21, 22}},
	}
	standings := map[int][]*models.Standing{
		1: {{GroupID: 1, TeamID: 11, Position: 1}, {GroupID: 1, TeamID: 12, Position: 2}},
		2: {{GroupID: 2, TeamID: 21, Position: 1}, {GroupID: 2, TeamID: 22, Position: 2}},
	}
	finished := map[int]bool{1: true, 2: false}

	qualifiers := QualifiersFromStandings(groups, standings, finished, 2)
	require.Len(t, qualifiers, 4)

	// Ярусы: 1A, 1B, 2A, 2B.
	assert.Equal(t, "1A", qualifiers[0].Label)
	assert.Equal(t, "1B", qualifiers[1].Label)
	assert.Equal(t, "2A", qualifiers[2].Label)
	assert.Equal(t, "2B", qualifiers[3].Label)
	require.NotNil(t, qualifiers[0].TeamID)
	assert.Equal(t, 11, *qualifiers[0].TeamID)
	assert.Nil(t, qualifiers[1].TeamID, "unfinished group yields a placeholder")

	bracket, err := BuildBracket(qualifiers)
	require.NoError(t, err)
	assert.Equal(t, 4, bracket.SlotsNeeded)
	assert.Equal(t, 4, bracket.SlotsAvailable)
	assert.Equal(t, 2, bracket.PlaceholdersUsed)

	// Посев 1A против 2B, 1B против 2A.
	semi1 := bracket.Rounds[0].Matches[0]
	assert.Equal(t, "1A", semi1.Side1.Placeholder)
	assert.Equal(t, "2B", semi1.Side2.Placeholder)
}

func TestQualifiersCappedByGroupSize(t *testing.T) {
	// Квота 3 при двух командах в зоне: третьего места не существует,
	// и плейсхолдер "3A" появиться не должен даже для недоигранной зоны.
	groups := []*models.Group{
		{ID: 1, Order: 0, TeamIDs: []int{11, 12}},
		{ID: 2, Order: 1, TeamIDs: []int{21, 22, 23}},
	}
	standings := map[int][]*models.Standing{
		2: {
			{GroupID: 2, TeamID: 21, Position: 1},
			{GroupID: 2, TeamID: 22, Position: 2},
			{GroupID: 2, TeamID: 23, Position: 3},
		},
	}
	finished := map[int]bool{1: false, 2: true}

	qualifiers := QualifiersFromStandings(groups, standings, finished, 3)
	require.Len(t, qualifiers, 5)
	labels := make([]string, len(qualifiers))
	for i, q := range qualifiers {
		labels[i] = q.Label
	}
	assert.Equal(t, []string{"1A", "1B", "2A", "2B", "3B"}, labels)
	assert.NotContains(t, labels, "3A")
}

func TestBuildBracketNotEnoughQualifiers(t *testing.T) {
	_, err := BuildBracket(resolvedQualifiers(1))
	assert.ErrorIs(t, err, ErrNotEnoughQualifiers)
}
