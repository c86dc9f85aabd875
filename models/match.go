package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
)

type MatchPhase string

const (
	PhaseGroup   MatchPhase = "group"
	PhasePlayoff MatchPhase = "playoff"
)

// PlayoffRound — фиксированный словарь раундов, от большего к меньшему.
type PlayoffRound string

const (
	Round16avos    PlayoffRound = "16avos"
	RoundOctavos   PlayoffRound = "octavos"
	RoundCuartos   PlayoffRound = "cuartos"
	RoundSemifinal PlayoffRound = "semifinal"
	RoundFinal     PlayoffRound = "final"
)

// SetScore хранит геймы одного сета.
type SetScore struct {
	Team1Games int `json:"team1_games"`
	Team2Games int `json:"team2_games"`
}

type Match struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	Phase        MatchPhase    `json:"phase" db:"phase"`
	GroupID      *int          `json:"group_id,omitempty" db:"group_id"`
	MatchOrder   int           `json:"match_order" db:"match_order"`
	Round        *PlayoffRound `json:"round,omitempty" db:"round"`
	BracketPos   *int          `json:"bracket_pos,omitempty" db:"bracket_pos"`

	Team1ID     *int    `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID     *int    `json:"team2_id,omitempty" db:"team2_id"`
	SourceTeam1 *string `json:"source_team1,omitempty" db:"source_team1"`
	SourceTeam2 *string `json:"source_team2,omitempty" db:"source_team2"`

	MatchDate *time.Time `json:"match_date,omitempty" db:"match_date"`
	StartTime *string    `json:"start_time,omitempty" db:"start_time"`
	EndTime   *string    `json:"end_time,omitempty" db:"end_time"`
	CourtID   *int       `json:"court_id,omitempty" db:"court_id"`

	Set1 *SetScore `json:"set1,omitempty" db:"-"`
	Set2 *SetScore `json:"set2,omitempty" db:"-"`
	Set3 *SetScore `json:"set3,omitempty" db:"-"`

	Status       MatchStatus `json:"status" db:"status"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Sets returns the filled sets left-to-right.
func (m *Match) Sets() []SetScore {
	sets := make([]SetScore, 0, 3)
	for _, s := range []*SetScore{m.Set1, m.Set2, m.Set3} {
		if s != nil {
			sets = append(sets, *s)
		}
	}
	return sets
}

// HasAnyScore reports whether at least one set has been recorded.
func (m *Match) HasAnyScore() bool {
	return m.Set1 != nil || m.Set2 != nil || m.Set3 != nil
}
