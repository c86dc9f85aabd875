package models

import "time"

// Standing — строка таблицы зоны, полностью производная от завершённых матчей.
type Standing struct {
	ID            int       `json:"id" db:"id"`
	GroupID       int       `json:"group_id" db:"group_id"`
	TeamID        int       `json:"team_id" db:"team_id"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	Wins          int       `json:"wins" db:"wins"`
	Losses        int       `json:"losses" db:"losses"`
	SetsWon       int       `json:"sets_won" db:"sets_won"`
	SetsLost      int       `json:"sets_lost" db:"sets_lost"`
	GamesWon      int       `json:"games_won" db:"games_won"`
	GamesLost     int       `json:"games_lost" db:"games_lost"`
	Position      int       `json:"position" db:"position"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
