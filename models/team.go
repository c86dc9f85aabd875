package models

import "time"

type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Player1ID    int       `json:"player1_id" db:"player1_id"`
	Player2ID    int       `json:"player2_id" db:"player2_id"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	SeedNumber   *int      `json:"seed_number,omitempty" db:"seed_number"`
	IsSubstitute bool      `json:"is_substitute" db:"is_substitute"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	ScheduleRestrictions []ScheduleRestriction `json:"schedule_restrictions,omitempty" db:"-"`
}

// ScheduleRestriction описывает окно, в котором команда не может играть.
// StartTime/EndTime хранятся как "HH:MM" (так их присылают формы панели).
type ScheduleRestriction struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Date      time.Time `json:"date" db:"date"`
	StartTime string    `json:"start_time" db:"start_time"`
	EndTime   string    `json:"end_time" db:"end_time"`
}
