package models

// PlayoffSlotSource описывает, откуда приходит участник слота сетки.
type PlayoffSlotSource string

const (
	SlotSourceTeam          PlayoffSlotSource = "team"           // фиксированный посев
	SlotSourceMatchWinner   PlayoffSlotSource = "match_winner"   // победитель более раннего матча
	SlotSourceGroupPosition PlayoffSlotSource = "group_position" // позиция в ещё не сыгранной зоне
)

// PlayoffSlot — одна из двух сторон матча плей-офф и её происхождение.
type PlayoffSlot struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	MatchID      int               `json:"match_id" db:"match_id"`
	Slot         int               `json:"slot" db:"slot"` // 1 или 2
	Source       PlayoffSlotSource `json:"source" db:"source"`
	TeamID       *int              `json:"team_id,omitempty" db:"team_id"`
	SourceMatch  *int              `json:"source_match_id,omitempty" db:"source_match_id"`
	GroupID      *int              `json:"group_id,omitempty" db:"group_id"`
	Position     *int              `json:"position,omitempty" db:"position"`
	Label        string            `json:"label" db:"label"`
}
