package models

import "time"

// AvailableSchedule — окно турнира, внутри которого можно ставить любые матчи.
type AvailableSchedule struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Date         time.Time `json:"date" db:"date"`
	StartTime    string    `json:"start_time" db:"start_time"`
	EndTime      string    `json:"end_time" db:"end_time"`
}

type Court struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
