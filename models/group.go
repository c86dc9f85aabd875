package models

// Group — круговая зона турнира. Order задаёт порядок отображения и букву зоны.
type Group struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Order        int    `json:"order" db:"group_order"`
	TeamIDs      []int  `json:"team_ids,omitempty" db:"-"`
	Teams        []Team `json:"teams,omitempty" db:"-"`
}

// Letter returns the display letter for the group ("A" for order 0).
func (g Group) Letter() string {
	return GroupLetter(g.Order)
}

// HasTeam reports whether the team is a member of the group.
func (g Group) HasTeam(teamID int) bool {
	for _, id := range g.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

func GroupLetter(order int) string {
	if order < 0 {
		order = 0
	}
	return string(rune('A' + order%26))
}
