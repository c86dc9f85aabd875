package competition

import (
	"testing"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedMatch(groupID, team1, team2 int, sets ...models.SetScore) *models.Match {
	m := &models.Match{
		TournamentID: 1,
		Phase:        models.PhaseGroup,
		GroupID:      &groupID,
		Team1ID:      &team1,
		Team2ID:      &team2,
		Status:       models.MatchStatusFinished,
	}
	if len(sets) > 0 {
		m.Set1 = &sets[0]
	}
	if len(sets) > 1 {
		m.Set2 = &sets[1]
	}
	if len(sets) > 2 {
		m.Set3 = &sets[2]
	}
	return m
}

func TestComputeStandingsBasic(t *testing.T) {
	matches := []*models.Match{
		// 10 бьёт 20 со счётом 6-3 6-4.
		finishedMatch(5, 10, 20, models.SetScore{Team1Games: 6, Team2Games: 3}, models.SetScore{Team1Games: 6, Team2Games: 4}),
		// 30 бьёт 10 в трёх сетах.
		finishedMatch(5, 30, 10, models.SetScore{Team1Games: 6, Team2Games: 4}, models.SetScore{Team1Games: 4, Team2Games: 6}, models.SetScore{Team1Games: 7, Team2Games: 5}),
		// 30 бьёт 20.
		finishedMatch(5, 30, 20, models.SetScore{Team1Games: 6, Team2Games: 0}, models.SetScore{Team1Games: 6, Team2Games: 1}),
	}

	rows := ComputeStandings(5, []int{10, 20, 30}, matches)
	require.Len(t, rows, 3)

	assert.Equal(t, 30, rows[0].TeamID)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 2, rows[0].Wins)
	assert.Equal(t, 0, rows[0].Losses)
	assert.Equal(t, 4, rows[0].SetsWon)
	assert.Equal(t, 1, rows[0].SetsLost)

	assert.Equal(t, 10, rows[1].TeamID)
	assert.Equal(t, 2, rows[1].Position)
	assert.Equal(t, 1, rows[1].Wins)
	assert.Equal(t, 1, rows[1].Losses)

	assert.Equal(t, 20, rows[2].TeamID)
	assert.Equal(t, 3, rows[2].Position)
	assert.Equal(t, 0, rows[2].Wins)
	assert.Equal(t, 2, rows[2].Losses)
}

// Победы ранжируют строго выше любых разниц по сетам и геймам.
func TestComputeStandingsWinsDominate(t *testing.T) {
	var matches []*models.Match
	// Команда 1 выигрывает 5 матчей с минимальным перевесом.
	for opp := 10; opp < 15; opp++ {
		matches = append(matches, finishedMatch(1, 1, opp,
			models.SetScore{Team1Games: 7, Team2Games: 6},
			models.SetScore{Team1Games: 7, Team2Games: 6}))
	}
	// Команда 2 выигрывает 4 матча всухую.
	for opp := 20; opp < 24; opp++ {
		matches = append(matches, finishedMatch(1, 2, opp,
			models.SetScore{Team1Games: 6, Team2Games: 0},
			models.SetScore{Team1Games: 6, Team2Games: 0}))
	}

	teamIDs := []int{1, 2, 10, 11, 12, 13, 14, 20, 21, 22, 23}
	rows := ComputeStandings(1, teamIDs, matches)
	assert.Equal(t, 1, rows[0].TeamID, "5 wins must outrank 4 wins regardless of differentials")
	assert.Equal(t, 2, rows[1].TeamID)
}

func TestComputeStandingsIdempotent(t *testing.T) {
	matches := []*models.Match{
		finishedMatch(7, 1, 2, models.SetScore{Team1Games: 6, Team2Games: 2}, models.SetScore{Team1Games: 6, Team2Games: 3}),
		finishedMatch(7, 2, 3, models.SetScore{Team1Games: 7, Team2Games: 5}, models.SetScore{Team1Games: 6, Team2Games: 4}),
	}
	teamIDs := []int{1, 2, 3}

	first := ComputeStandings(7, teamIDs, matches)
	second := ComputeStandings(7, teamIDs, matches)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TeamID, second[i].TeamID)
		assert.Equal(t, first[i].Position, second[i].Position)
		assert.Equal(t, first[i].Wins, second[i].Wins)
		assert.Equal(t, first[i].GamesWon, second[i].GamesWon)
	}
}

// При полном равенстве показателей порядок вставки (team IDs) стабилен.
func TestComputeStandingsStableTieBreak(t *testing.T) {
	rows := ComputeStandings(3, []int{42, 7, 99}, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, 42, rows[0].TeamID)
	assert.Equal(t, 7, rows[1].TeamID)
	assert.Equal(t, 99, rows[2].TeamID)
}

// Незавершённые матчи не попадают в таблицу.
func TestComputeStandingsIgnoresUnfinished(t *testing.T) {
	m := finishedMatch(9, 1, 2, models.SetScore{Team1Games: 6, Team2Games: 0}, models.SetScore{Team1Games: 6, Team2Games: 0})
	m.Status = models.MatchStatusScheduled

	rows := ComputeStandings(9, []int{1, 2}, []*models.Match{m})
	assert.Equal(t, 0, rows[0].MatchesPlayed)
	assert.Equal(t, 0, rows[1].MatchesPlayed)
}
