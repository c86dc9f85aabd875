package competition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clubdeck/competition-engine/models"
)

var (
	ErrScheduleInfeasible   = errors.New("schedule is infeasible")
	ErrNoAvailableSlots     = errors.New("no available schedule windows or courts configured")
	ErrInvalidClockValue    = errors.New("invalid clock value")
	ErrScheduleSwapMismatch = errors.New("match lists have different lengths")
)

// InfeasibilityError перечисляет матчи, которые не удалось разместить.
type InfeasibilityError struct {
	Unplaced []string
}

func (e *InfeasibilityError) Error() string {
	return fmt.Sprintf("%v: could not place %d match(es): %s",
		ErrScheduleInfeasible, len(e.Unplaced), strings.Join(e.Unplaced, ", "))
}

func (e *InfeasibilityError) Unwrap() error { return ErrScheduleInfeasible }

// ParseClock разбирает "HH:MM" в минуты от полуночи.
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockValue, v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock — обратное преобразование минут в "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Slot — кандидатное место для матча: дата, интервал, корт.
type Slot struct {
	Date     time.Time
	StartMin int
	EndMin   int
	CourtID  int
}

// TimeWindow — интервал в пределах одного дня (ограничение команды).
type TimeWindow struct {
	Date     time.Time
	StartMin int
	EndMin   int
}

// MatchRequest — матч, которому нужен слот. Key используется в сообщениях
// об ошибках ("A #3" — третий матч зоны A).
type MatchRequest struct {
	Key     string
	Team1ID int
	Team2ID int
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// BuildSlots разворачивает окна турнира в пул слотов: каждое окно режется на
// интервалы по durationMinutes (последний интервал обрезается по концу окна),
// и каждый интервал умножается на список кортов.
func BuildSlots(windows []*models.AvailableSchedule, courts []*models.Court, durationMinutes int) ([]Slot, error) {
	if len(windows) == 0 || len(courts) == 0 {
		return nil, ErrNoAvailableSlots
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("match duration must be positive, got %d", durationMinutes)
	}

	slots := make([]Slot, 0, len(windows)*len(courts))
	for _, w := range windows {
		start, err := ParseClock(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("window %d start: %w", w.ID, err)
		}
		end, err := ParseClock(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("window %d end: %w", w.ID, err)
		}
		if end <= start {
			return nil, fmt.Errorf("window %d: end %s is not after start %s", w.ID, w.EndTime, w.StartTime)
		}
		for cur := start; cur < end; cur += durationMinutes {
			slotEnd := cur + durationMinutes
			if slotEnd > end {
				slotEnd = end // обрезка последнего слота по границе окна
			}
			for _, court := range courts {
				slots = append(slots, Slot{Date: w.Date, StartMin: cur, EndMin: slotEnd, CourtID: court.ID})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		if slots[i].StartMin != slots[j].StartMin {
			return slots[i].StartMin < slots[j].StartMin
		}
		return slots[i].CourtID < slots[j].CourtID
	})
	return slots, nil
}

// maxAssignSteps ограничивает перебор: поиск обязан завершиться с явной
// ошибкой, а не висеть на патологических входах.
const maxAssignSteps = 500_000

type assignSearch struct {
	matches      []MatchRequest
	slots        []Slot
	restrictions map[int][]TimeWindow

	assignment []int // match index -> slot index, -1 если не назначен
	slotUsed   []bool
	steps      int
	bestDepth  int
}

// AssignSchedule подбирает каждому матчу слот и корт так, чтобы:
// (a) команда не играла два матча в пересекающееся время;
// (b) матч не попадал в ограничения расписания своих команд;
// (c) корт не был занят дважды в пересекающемся интервале.
//
// Используется жадный перебор с откатами и бюджетом итераций. При
// невозможности возвращается *InfeasibilityError со списком неразмещённых
// матчей (по ключу Key).
func AssignSchedule(matches []MatchRequest, slots []Slot, restrictions map[int][]TimeWindow) ([]Slot, error) {
	if len(matches) == 0 {
		return []Slot{}, nil
	}
	if len(slots) < len(matches) {
		return nil, &InfeasibilityError{Unplaced: matchKeys(matches)}
	}

	s := &assignSearch{
		matches:      matches,
		slots:        slots,
		restrictions: restrictions,
		assignment:   make([]int, len(matches)),
		slotUsed:     make([]bool, len(slots)),
	}
	for i := range s.assignment {
		s.assignment[i] = -1
	}

	if !s.place(0) {
		return nil, &InfeasibilityError{Unplaced: matchKeys(matches[s.bestDepth:])}
	}

	out := make([]Slot, len(matches))
	for i, slotIdx := range s.assignment {
		out[i] = s.slots[slotIdx]
	}
	return out, nil
}

func matchKeys(matches []MatchRequest) []string {
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = m.Key
	}
	return keys
}

func (s *assignSearch) place(idx int) bool {
	if idx > s.bestDepth {
		s.bestDepth = idx
	}
	if idx == len(s.matches) {
		return true
	}
	for slotIdx := range s.slots {
		s.steps++
		if s.steps > maxAssignSteps {
			return false
		}
		if s.slotUsed[slotIdx] || !s.feasible(idx, slotIdx) {
			continue
		}
		s.assignment[idx] = slotIdx
		s.slotUsed[slotIdx] = true
		if s.place(idx + 1) {
			return true
		}
		s.assignment[idx] = -1
		s.slotUsed[slotIdx] = false
	}
	return false
}

func (s *assignSearch) feasible(matchIdx, slotIdx int) bool {
	match := s.matches[matchIdx]
	slot := s.slots[slotIdx]

	for _, teamID := range []int{match.Team1ID, match.Team2ID} {
		for _, r := range s.restrictions[teamID] {
			if sameDay(r.Date, slot.Date) && intervalsOverlap(r.StartMin, r.EndMin, slot.StartMin, slot.EndMin) {
				return false
			}
		}
	}

	// Пересечения с уже назначенными матчами: по командам и по корту.
	// Слоты одного окна не пересекаются, но окна могут накладываться друг
	// на друга, поэтому корт проверяется по интервалу, а не по слоту.
	for other, assigned := range s.assignment {
		if assigned < 0 || other == matchIdx {
			continue
		}
		otherSlot := s.slots[assigned]
		if !sameDay(otherSlot.Date, slot.Date) || !intervalsOverlap(otherSlot.StartMin, otherSlot.EndMin, slot.StartMin, slot.EndMin) {
			continue
		}
		if otherSlot.CourtID == slot.CourtID {
			return false
		}
		otherMatch := s.matches[other]
		if otherMatch.Team1ID == match.Team1ID || otherMatch.Team1ID == match.Team2ID ||
			otherMatch.Team2ID == match.Team1ID || otherMatch.Team2ID == match.Team2ID {
			return false
		}
	}
	return true
}

// SwapScheduleTuples обменивает назначения (дата, время, корт) двух списков
// матчей попарно: i-й матч первого списка получает кортеж i-го матча второго
// и наоборот. Списки должны быть одной длины; при несовпадении ни один матч
// не меняется.
func SwapScheduleTuples(a, b []*models.Match) error {
	if len(a) != len(b) {
		return ErrScheduleSwapMismatch
	}
	for i := range a {
		ma, mb := a[i], b[i]
		ma.MatchDate, mb.MatchDate = mb.MatchDate, ma.MatchDate
		ma.StartTime, mb.StartTime = mb.StartTime, ma.StartTime
		ma.EndTime, mb.EndTime = mb.EndTime, ma.EndTime
		ma.CourtID, mb.CourtID = mb.CourtID, ma.CourtID
	}
	return nil
}
