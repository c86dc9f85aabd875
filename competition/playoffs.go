package competition

import (
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
)

var (
	ErrNotEnoughQualifiers = errors.New("not enough qualifiers for a playoff bracket (minimum 2)")
	ErrBracketTooLarge     = errors.New("bracket size exceeds the largest supported round (16avos, 32 slots)")
)

// Side — сторона матча плей-офф: либо уже известная команда, либо
// человекочитаемый плейсхолдер ("1A", "Winner cuartos-2"). Пустая сторона
// (нет ни команды, ни плейсхолдера) встречается только у bye-матчей.
type Side struct {
	TeamID      *int
	Placeholder string
	// Для сторон, пришедших из зоны, сохраняется происхождение
	// (порядок зоны и позиция), чтобы сохранённая сетка могла разрешить
	// плейсхолдер после окончания зоны. Position равен 0 для сторон
	// вида "Winner cuartos-2".
	GroupOrder int
	Position   int
}

func (s Side) Resolved() bool { return s.TeamID != nil }
func (s Side) Empty() bool    { return s.TeamID == nil && s.Placeholder == "" }

// Qualifier — участник сетки. TeamID равен nil в режиме предпросмотра для
// зоны, которая ещё не доиграна; Label тогда вида "1A".
type Qualifier struct {
	TeamID     *int
	GroupOrder int
	Position   int
	Label      string
}

// QualifierLabel строит метку "позиция+буква зоны", например "1A".
func QualifierLabel(position, groupOrder int) string {
	return fmt.Sprintf("%d%s", position, models.GroupLetter(groupOrder))
}

// WinnerLabel строит метку источника для следующего раунда, например
// "Winner cuartos-2".
func WinnerLabel(round models.PlayoffRound, pos int) string {
	return fmt.Sprintf("Winner %s-%d", round, pos)
}

type BracketMatch struct {
	Round models.PlayoffRound
	Pos   int // 1-based внутри раунда
	Side1 Side
	Side2 Side
	// Bye: заполнена только одна сторона, матч сразу считается сыгранным,
	// единственная сторона проходит дальше без результата.
	Bye bool
}

type BracketRound struct {
	Name    models.PlayoffRound
	Matches []*BracketMatch
}

type Bracket struct {
	SlotsNeeded      int
	SlotsAvailable   int
	PlaceholdersUsed int
	Rounds           []BracketRound
}

var roundLadder = []models.PlayoffRound{
	models.Round16avos,
	models.RoundOctavos,
	models.RoundCuartos,
	models.RoundSemifinal,
	models.RoundFinal,
}

// BracketSize возвращает минимальную степень двойки >= n.
func BracketSize(n int) int {
	size := 2
	for size < n {
		size *= 2
	}
	return size
}

// RoundsFor возвращает имена раундов для сетки заданного размера,
// от первого к финалу. Генерируются только реально нужные раунды.
func RoundsFor(size int) ([]models.PlayoffRound, error) {
	switch size {
	case 2:
		return roundLadder[4:], nil
	case 4:
		return roundLadder[3:], nil
	case 8:
		return roundLadder[2:], nil
	case 16:
		return roundLadder[1:], nil
	case 32:
		return roundLadder[0:], nil
	default:
		return nil, ErrBracketTooLarge
	}
}

// seedOrder возвращает порядок посева для первого раунда: позиция i
// первого раунда получает seedOrder[i]-го сеяного. Классическое
// рекурсивное деление: топ-посев встречает слабейшего из оставшихся.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		mirror := len(order)*2 + 1
		for _, seed := range order {
			next = append(next, seed, mirror-seed)
		}
		order = next
	}
	return order
}

// BuildBracket строит сетку плей-офф из упорядоченного списка квалифицирующихся.
//
// Квалифицирующиеся должны быть отсортированы по силе: сначала все первые
// места (по порядку зон), затем все вторые и так далее — тогда рекурсивный
// посев держит одинаково посеянные команды из разных зон максимально далеко
// друг от друга. Лишние слоты заполняются bye.
func BuildBracket(qualifiers []Qualifier) (*Bracket, error) {
	needed := len(qualifiers)
	if needed < 2 {
		return nil, ErrNotEnoughQualifiers
	}
	size := BracketSize(needed)
	roundNames, err := RoundsFor(size)
	if err != nil {
		return nil, err
	}

	placeholders := 0
	for _, q := range qualifiers {
		if q.TeamID == nil {
			placeholders++
		}
	}

	bracket := &Bracket{
		SlotsNeeded:      needed,
		SlotsAvailable:   size,
		PlaceholdersUsed: placeholders,
	}

	sideFor := func(seed int) Side {
		if seed > needed {
			return Side{} // bye-слот
		}
		q := qualifiers[seed-1]
		return Side{TeamID: q.TeamID, Placeholder: q.Label, GroupOrder: q.GroupOrder, Position: q.Position}
	}

	order := seedOrder(size)
	firstRound := BracketRound{Name: roundNames[0]}
	for pos := 1; pos <= size/2; pos++ {
		m := &BracketMatch{
			Round: roundNames[0],
			Pos:   pos,
			Side1: sideFor(order[(pos-1)*2]),
			Side2: sideFor(order[(pos-1)*2+1]),
		}
		if m.Side1.Empty() != m.Side2.Empty() {
			m.Bye = true
			if m.Side1.Empty() {
				// Единственный участник всегда на первой стороне.
				m.Side1, m.Side2 = m.Side2, Side{}
			}
		}
		firstRound.Matches = append(firstRound.Matches, m)
	}
	bracket.Rounds = append(bracket.Rounds, firstRound)

	prev := firstRound
	for _, name := range roundNames[1:] {
		round := BracketRound{Name: name}
		for pos := 1; pos <= len(prev.Matches)/2; pos++ {
			feeder1 := prev.Matches[(pos-1)*2]
			feeder2 := prev.Matches[(pos-1)*2+1]
			round.Matches = append(round.Matches, &BracketMatch{
				Round: name,
				Pos:   pos,
				Side1: advancedSide(feeder1),
				Side2: advancedSide(feeder2),
			})
		}
		bracket.Rounds = append(bracket.Rounds, round)
		prev = round
	}
	return bracket, nil
}

// advancedSide определяет сторону следующего раунда по питающему матчу:
// bye проходит автоматически, обычный матч даёт плейсхолдер победителя.
func advancedSide(feeder *BracketMatch) Side {
	if feeder.Bye {
		return feeder.Side1
	}
	return Side{Placeholder: WinnerLabel(feeder.Round, feeder.Pos)}
}

// QualifiersFromStandings собирает упорядоченный список квалифицирующихся:
// верхние qualifiersPerGroup команд каждой зоны, отсортированные по ярусам
// (все первые места, потом все вторые), внутри яруса — по порядку зон.
//
// standings передаются по зонам в порядке отображения; для не доигранной
// зоны (preview) соответствующий элемент finished равен false, и вместо
// команды подставляется плейсхолдер. Квота всегда урезается до числа команд
// в зоне: позиция, которой нет ни в одной таблице, выйти не может.
func QualifiersFromStandings(groups []*models.Group, standingsByGroup map[int][]*models.Standing, finishedGroups map[int]bool, qualifiersPerGroup int) []Qualifier {
	qualifiers := make([]Qualifier, 0, len(groups)*qualifiersPerGroup)
	for position := 1; position <= qualifiersPerGroup; position++ {
		for _, g := range groups {
			rows := standingsByGroup[g.ID]
			size := len(g.TeamIDs)
			if finishedGroups[g.ID] {
				size = len(rows)
			}
			if position > size {
				// В зоне меньше команд, чем квот на выход.
				continue
			}
			q := Qualifier{
				GroupOrder: g.Order,
				Position:   position,
				Label:      QualifierLabel(position, g.Order),
			}
			if finishedGroups[g.ID] {
				teamID := rows[position-1].TeamID
				q.TeamID = &teamID
			}
			qualifiers = append(qualifiers, q)
		}
	}
	return qualifiers
}
