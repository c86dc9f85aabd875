package competition

import (
	"testing"
	"time"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func window(date time.Time, start, end string) *models.AvailableSchedule {
	return &models.AvailableSchedule{Date: date, StartTime: start, EndTime: end}
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("14:30")
	require.NoError(t, err)
	assert.Equal(t, 14*60+30, min)

	_, err = ParseClock("25:00")
	assert.ErrorIs(t, err, ErrInvalidClockValue)

	assert.Equal(t, "09:05", FormatClock(9*60+5))
}

func TestBuildSlotsClipsFinalSlot(t *testing.T) {
	// Окно 13:00-17:00 по 90 минут: 13:00-14:30, 14:30-16:00, 16:00-17:00.
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "13:00", "17:00")},
		[]*models.Court{{ID: 1}},
		90,
	)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, 13*60, slots[0].StartMin)
	assert.Equal(t, 14*60+30, slots[0].EndMin)
	assert.Equal(t, 16*60, slots[2].StartMin)
	assert.Equal(t, 17*60, slots[2].EndMin, "final slot must be clipped to the window end")
}

func TestBuildSlotsMultipliesCourts(t *testing.T) {
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "10:00", "12:00")},
		[]*models.Court{{ID: 1}, {ID: 2}},
		60,
	)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestBuildSlotsValidation(t *testing.T) {
	_, err := BuildSlots(nil, []*models.Court{{ID: 1}}, 60)
	assert.ErrorIs(t, err, ErrNoAvailableSlots)

	_, err = BuildSlots([]*models.AvailableSchedule{window(day, "12:00", "10:00")}, []*models.Court{{ID: 1}}, 60)
	assert.Error(t, err)
}

func TestAssignScheduleNoTeamOverlap(t *testing.T) {
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "10:00", "14:00")},
		[]*models.Court{{ID: 1}, {ID: 2}},
		60,
	)
	require.NoError(t, err)

	// Команда 1 играет в обоих матчах: они не могут попасть в одно время.
	matches := []MatchRequest{
		{Key: "A #1", Team1ID: 1, Team2ID: 2},
		{Key: "A #2", Team1ID: 1, Team2ID: 3},
	}
	assigned, err := AssignSchedule(matches, slots, nil)
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.False(t, intervalsOverlap(assigned[0].StartMin, assigned[0].EndMin, assigned[1].StartMin, assigned[1].EndMin))
}

func TestAssignScheduleHonorsRestrictions(t *testing.T) {
	// Окно 13:00-17:00, матчи по 90 минут; команда 1 недоступна 14:00-16:00.
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "13:00", "17:00")},
		[]*models.Court{{ID: 1}, {ID: 2}},
		90,
	)
	require.NoError(t, err)

	restrictions := map[int][]TimeWindow{
		1: {{Date: day, StartMin: 14 * 60, EndMin: 16 * 60}},
	}
	matches := []MatchRequest{
		{Key: "A #1", Team1ID: 1, Team2ID: 2},
		{Key: "A #2", Team1ID: 3, Team2ID: 4},
		{Key: "A #3", Team1ID: 5, Team2ID: 6},
	}
	assigned, err := AssignSchedule(matches, slots, restrictions)
	require.NoError(t, err)

	// Матчи команды 1 никогда не пересекают запретное окно.
	restricted := restrictions[1][0]
	assert.False(t, intervalsOverlap(restricted.StartMin, restricted.EndMin, assigned[0].StartMin, assigned[0].EndMin),
		"team 1 match placed at %s-%s inside its restriction", FormatClock(assigned[0].StartMin), FormatClock(assigned[0].EndMin))
}

func TestAssignScheduleNoCourtDoubleBooking(t *testing.T) {
	// Два накладывающихся окна дают пересекающиеся слоты на одном корте.
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{
			window(day, "10:00", "11:00"),
			window(day, "10:30", "11:30"),
		},
		[]*models.Court{{ID: 1}},
		60,
	)
	require.NoError(t, err)

	matches := []MatchRequest{
		{Key: "A #1", Team1ID: 1, Team2ID: 2},
		{Key: "A #2", Team1ID: 3, Team2ID: 4},
	}
	_, err = AssignSchedule(matches, slots, nil)
	assert.ErrorIs(t, err, ErrScheduleInfeasible, "a single court cannot host overlapping matches")
}

func TestAssignScheduleInfeasibleListsMatches(t *testing.T) {
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "10:00", "11:00")},
		[]*models.Court{{ID: 1}},
		60,
	)
	require.NoError(t, err)

	matches := []MatchRequest{
		{Key: "A #1", Team1ID: 1, Team2ID: 2},
		{Key: "A #2", Team1ID: 3, Team2ID: 4},
	}
	_, err = AssignSchedule(matches, slots, nil)
	require.Error(t, err)

	var infeasible *InfeasibilityError
	require.ErrorAs(t, err, &infeasible)
	assert.NotEmpty(t, infeasible.Unplaced)
	assert.Contains(t, err.Error(), "could not place")
}

func TestAssignScheduleBacktracks(t *testing.T) {
	// Жадное размещение первой пары в 10:00 блокирует решение: команде 1
	// нужен и 10:00-слот и 11:00-слот, решение существует только при
	// правильном распределении.
	slots, err := BuildSlots(
		[]*models.AvailableSchedule{window(day, "10:00", "12:00")},
		[]*models.Court{{ID: 1}},
		60,
	)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	matches := []MatchRequest{
		{Key: "A #1", Team1ID: 1, Team2ID: 2},
		{Key: "A #2", Team1ID: 1, Team2ID: 3},
	}
	assigned, err := AssignSchedule(matches, slots, nil)
	require.NoError(t, err)
	starts := map[int]bool{assigned[0].StartMin: true, assigned[1].StartMin: true}
	assert.Len(t, starts, 2)
}

func scheduledMatch(dayOffset int, start, end string, courtID int) *models.Match {
	d := day.AddDate(0, 0, dayOffset)
	s, e := start, end
	c := courtID
	return &models.Match{MatchDate: &d, StartTime: &s, EndTime: &e, CourtID: &c}
}

func TestSwapScheduleTuplesPairwise(t *testing.T) {
	groupA := []*models.Match{
		scheduledMatch(0, "10:00", "11:30", 1),
		scheduledMatch(0, "11:30", "13:00", 1),
		scheduledMatch(1, "10:00", "11:30", 2),
	}
	groupB := []*models.Match{
		scheduledMatch(2, "14:00", "15:30", 3),
		scheduledMatch(2, "15:30", "17:00", 3),
		scheduledMatch(3, "14:00", "15:30", 4),
	}

	require.NoError(t, SwapScheduleTuples(groupA, groupB))

	// i-й матч зоны A занял исходный кортеж i-го матча зоны B, и наоборот.
	assert.Equal(t, day.AddDate(0, 0, 2), *groupA[0].MatchDate)
	assert.Equal(t, "14:00", *groupA[0].StartTime)
	assert.Equal(t, "15:30", *groupA[0].EndTime)
	assert.Equal(t, 3, *groupA[0].CourtID)

	assert.Equal(t, day, *groupB[0].MatchDate)
	assert.Equal(t, "10:00", *groupB[0].StartTime)
	assert.Equal(t, 1, *groupB[0].CourtID)

	assert.Equal(t, "15:30", *groupA[1].StartTime)
	assert.Equal(t, "11:30", *groupB[1].StartTime)
	assert.Equal(t, 4, *groupA[2].CourtID)
	assert.Equal(t, 2, *groupB[2].CourtID)
}

func TestSwapScheduleTuplesCountMismatch(t *testing.T) {
	groupA := []*models.Match{
		scheduledMatch(0, "10:00", "11:30", 1),
		scheduledMatch(0, "11:30", "13:00", 1),
		scheduledMatch(1, "10:00", "11:30", 1),
	}
	groupB := []*models.Match{
		scheduledMatch(2, "14:00", "15:30", 2),
		scheduledMatch(2, "15:30", "17:00", 2),
		scheduledMatch(3, "14:00", "15:30", 2),
		scheduledMatch(3, "15:30", "17:00", 2),
	}

	err := SwapScheduleTuples(groupA, groupB)
	require.ErrorIs(t, err, ErrScheduleSwapMismatch)

	// Ни один кортеж не тронут.
	assert.Equal(t, "10:00", *groupA[0].StartTime)
	assert.Equal(t, 1, *groupA[0].CourtID)
	assert.Equal(t, "14:00", *groupB[0].StartTime)
	assert.Equal(t, 2, *groupB[0].CourtID)
}
