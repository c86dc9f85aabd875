package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusDraft          TournamentStatus = "draft"
	StatusScheduleReview TournamentStatus = "schedule_review"
	StatusInProgress     TournamentStatus = "in_progress"
	StatusFinished       TournamentStatus = "finished"
	StatusCancelled      TournamentStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from the status.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Tournament представляет турнир.
type Tournament struct {
	ID                   int              `json:"id" db:"id"`
	OwnerID              int              `json:"owner_id" db:"owner_id"`
	Name                 string           `json:"name" db:"name"`
	Status               TournamentStatus `json:"status" db:"status"`
	HasSuperTiebreak     bool             `json:"has_super_tiebreak" db:"has_super_tiebreak"`
	MatchDurationMinutes int              `json:"match_duration_minutes" db:"match_duration_minutes"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	LogoKey              *string          `json:"-" db:"logo_key"`
	LogoURL              *string          `json:"logo_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Teams              []Team              `json:"teams,omitempty" db:"-"`
	Groups             []Group             `json:"groups,omitempty" db:"-"`
	AvailableSchedules []AvailableSchedule `json:"available_schedules,omitempty" db:"-"`
}
