package competition

import (
	"sort"
	"time"

	"github.com/clubdeck/competition-engine/models"
)

// ComputeStandings агрегирует завершённые матчи зоны в таблицу.
//
// teamIDs задают порядок вставки: он же — стабильный тай-брейк после цепочки
// победы → разница сетов → разница геймов. Пересчёт идемпотентен: один и тот
// же набор завершённых матчей всегда даёт одинаковые строки.
func ComputeStandings(groupID int, teamIDs []int, matches []*models.Match) []*models.Standing {
	rows := make([]*models.Standing, 0, len(teamIDs))
	byTeam := make(map[int]*models.Standing, len(teamIDs))
	for _, teamID := range teamIDs {
		row := &models.Standing{GroupID: groupID, TeamID: teamID, UpdatedAt: time.Now()}
		rows = append(rows, row)
		byTeam[teamID] = row
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusFinished || m.Team1ID == nil || m.Team2ID == nil {
			continue
		}
		r1, ok1 := byTeam[*m.Team1ID]
		r2, ok2 := byTeam[*m.Team2ID]
		if !ok1 || !ok2 {
			continue
		}

		r1.MatchesPlayed++
		r2.MatchesPlayed++

		var sets1, sets2 int
		for _, set := range m.Sets() {
			// Геймы считаются по всем заполненным сетам, включая частичные.
			r1.GamesWon += set.Team1Games
			r1.GamesLost += set.Team2Games
			r2.GamesWon += set.Team2Games
			r2.GamesLost += set.Team1Games
			if set.Team1Games > set.Team2Games {
				sets1++
			} else if set.Team2Games > set.Team1Games {
				sets2++
			}
		}
		r1.SetsWon += sets1
		r1.SetsLost += sets2
		r2.SetsWon += sets2
		r2.SetsLost += sets1

		if sets1 > sets2 {
			r1.Wins++
			r2.Losses++
		} else if sets2 > sets1 {
			r2.Wins++
			r1.Losses++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		setDiffA, setDiffB := a.SetsWon-a.SetsLost, b.SetsWon-b.SetsLost
		if setDiffA != setDiffB {
			return setDiffA > setDiffB
		}
		gameDiffA, gameDiffB := a.GamesWon-a.GamesLost, b.GamesWon-b.GamesLost
		return gameDiffA > gameDiffB
	})

	for i, row := range rows {
		row.Position = i + 1
	}
	return rows
}
