package services

import (
	"testing"
	"time"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.TournamentStatus
		allowed  bool
	}{
		{models.StatusDraft, models.StatusScheduleReview, true},
		{models.StatusDraft, models.StatusCancelled, true},
		{models.StatusDraft, models.StatusInProgress, false},
		{models.StatusDraft, models.StatusFinished, false},

		{models.StatusScheduleReview, models.StatusInProgress, true},
		{models.StatusScheduleReview, models.StatusCancelled, true},
		{models.StatusScheduleReview, models.StatusDraft, false},

		{models.StatusInProgress, models.StatusFinished, true},
		{models.StatusInProgress, models.StatusScheduleReview, true},
		{models.StatusInProgress, models.StatusCancelled, false},

		// Терминальные статусы
		{models.StatusFinished, models.StatusInProgress, false},
		{models.StatusFinished, models.StatusScheduleReview, false},
		{models.StatusCancelled, models.StatusDraft, false},
	}
	for _, tc := range cases {
		got := isValidStatusTransition(tc.from, tc.to)
		assert.Equalf(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestRoomID(t *testing.T) {
	assert.Equal(t, "tournament_42", roomID(42))
}

func TestRestrictionWindows(t *testing.T) {
	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	rows := []*models.ScheduleRestriction{
		{TeamID: 7, Date: date, StartTime: "14:00", EndTime: "16:00"},
		{TeamID: 7, Date: date, StartTime: "18:30", EndTime: "20:00"},
		{TeamID: 9, Date: date, StartTime: "09:00", EndTime: "10:00"},
	}

	windows, err := restrictionWindows(rows)
	require.NoError(t, err)
	require.Len(t, windows[7], 2)
	require.Len(t, windows[9], 1)
	assert.Equal(t, 14*60, windows[7][0].StartMin)
	assert.Equal(t, 16*60, windows[7][0].EndMin)
	assert.Equal(t, 18*60+30, windows[7][1].StartMin)
}

func TestRestrictionWindowsRejectsBadClock(t *testing.T) {
	rows := []*models.ScheduleRestriction{
		{TeamID: 1, StartTime: "25:00", EndTime: "26:00"},
	}
	_, err := restrictionWindows(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRestrictionsEditableOnlyInDraft(t *testing.T) {
	assert.True(t, restrictionsEditable(models.StatusDraft))

	// После генерации расписание зафиксировано, и правка окон недоступности
	// молча разошлась бы с ним.
	for _, status := range []models.TournamentStatus{
		models.StatusScheduleReview,
		models.StatusInProgress,
		models.StatusFinished,
		models.StatusCancelled,
	} {
		assert.False(t, restrictionsEditable(status), "status %s", status)
	}
}

func TestGroupHasTeam(t *testing.T) {
	group := models.Group{ID: 1, TeamIDs: []int{11, 12, 13}}

	assert.True(t, group.HasTeam(12))
	assert.False(t, group.HasTeam(21), "a team from another group is not a member")
	assert.False(t, models.Group{}.HasTeam(11))
}
