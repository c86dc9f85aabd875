package competition

import (
	"testing"

	"github.com/clubdeck/competition-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(t1, t2 int) *models.SetScore {
	return &models.SetScore{Team1Games: t1, Team2Games: t2}
}

func TestValidateSet(t *testing.T) {
	tests := []struct {
		name    string
		score   models.SetScore
		wantErr string
	}{
		{name: "6-0", score: models.SetScore{Team1Games: 6, Team2Games: 0}},
		{name: "6-4", score: models.SetScore{Team1Games: 6, Team2Games: 4}},
		{name: "0-6 reversed winner", score: models.SetScore{Team1Games: 0, Team2Games: 6}},
		{name: "7-5", score: models.SetScore{Team1Games: 7, Team2Games: 5}},
		{name: "7-6 tiebreak", score: models.SetScore{Team1Games: 7, Team2Games: 6}},
		{name: "6-5 unfinished", score: models.SetScore{Team1Games: 6, Team2Games: 5}, wantErr: "6-5 must continue to 7-5"},
		{name: "7-4 invalid", score: models.SetScore{Team1Games: 7, Team2Games: 4}, wantErr: "only 7-5 and 7-6"},
		{name: "8-6 beyond seven", score: models.SetScore{Team1Games: 8, Team2Games: 6}, wantErr: "beyond 7 games"},
		{name: "5-3 short of six", score: models.SetScore{Team1Games: 5, Team2Games: 3}, wantErr: "at least 6 games"},
		{name: "6-6 tied", score: models.SetScore{Team1Games: 6, Team2Games: 6}, wantErr: "cannot end tied"},
		{name: "negative games", score: models.SetScore{Team1Games: -1, Team2Games: 6}, wantErr: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSet(tt.score)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidResult)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// Полный перебор неотрицательных пар: принимаются ровно
// (6, 0..4), (7, 5) и (7, 6) в любом порядке сторон.
func TestValidateSetExhaustive(t *testing.T) {
	valid := func(w, l int) bool {
		return (w == 6 && l <= 4) || (w == 7 && (l == 5 || l == 6))
	}
	for t1 := 0; t1 <= 10; t1++ {
		for t2 := 0; t2 <= 10; t2++ {
			w, l := t1, t2
			if l > w {
				w, l = l, w
			}
			err := ValidateSet(models.SetScore{Team1Games: t1, Team2Games: t2})
			if valid(w, l) && t1 != t2 {
				assert.NoError(t, err, "%d-%d should be accepted", t1, t2)
			} else {
				assert.Error(t, err, "%d-%d should be rejected", t1, t2)
			}
		}
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name             string
		set1, set2, set3 *models.SetScore
		superTiebreak    bool
		wantErr          string
	}{
		{name: "straight sets", set1: set(6, 3), set2: set(6, 4)},
		{name: "three sets", set1: set(6, 3), set2: set(4, 6), set3: set(7, 5)},
		{name: "missing set1", set2: set(6, 3), wantErr: "set 1 is required"},
		{name: "missing set2", set1: set(6, 3), wantErr: "set 2 is required"},
		{name: "set3 after two-set win", set1: set(6, 3), set2: set(6, 4), set3: set(6, 2), wantErr: "decided in two sets"},
		{name: "set3 missing on split", set1: set(6, 3), set2: set(3, 6), wantErr: "set 3 is required"},
		{name: "invalid set2 reported with prefix", set1: set(6, 3), set2: set(6, 5), wantErr: "set 2: "},
		{name: "super tiebreak as 7-6", set1: set(6, 3), set2: set(3, 6), set3: set(7, 6), superTiebreak: true},
		{name: "super tiebreak reversed", set1: set(6, 3), set2: set(3, 6), set3: set(6, 7), superTiebreak: true},
		{name: "super tiebreak wrong notation", set1: set(6, 3), set2: set(3, 6), set3: set(10, 4), superTiebreak: true, wantErr: "super tiebreak must be recorded as 7-6"},
		{name: "invalid third set", set1: set(6, 3), set2: set(3, 6), set3: set(6, 5), wantErr: "set 3: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResult(tt.set1, tt.set2, tt.set3, tt.superTiebreak)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidResult)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestResultWinner(t *testing.T) {
	assert.Equal(t, 1, ResultWinner(*set(6, 3), *set(6, 4), nil))
	assert.Equal(t, 2, ResultWinner(*set(3, 6), *set(4, 6), nil))
	// 6-3, 4-6, 7-5: первая команда берёт матч 2-1.
	assert.Equal(t, 1, ResultWinner(*set(6, 3), *set(4, 6), set(7, 5)))
	assert.Equal(t, 2, ResultWinner(*set(6, 3), *set(4, 6), set(6, 7)))
}
