package competition

import (
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
)

// ErrInvalidResult оборачивает все нарушения правил записи счёта.
// Текст ошибки всегда называет конкретное нарушенное правило.
var ErrInvalidResult = errors.New("invalid match result")

func ruleViolation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidResult, fmt.Sprintf(format, args...))
}

// ValidateSet проверяет один обычный сет по теннисной грамматике:
// победитель 6 при 0..4 у проигравшего, либо 7-5, либо 7-6 (тай-брейк).
func ValidateSet(set models.SetScore) error {
	t1, t2 := set.Team1Games, set.Team2Games
	if t1 < 0 || t2 < 0 {
		return ruleViolation("games cannot be negative (got %d-%d)", t1, t2)
	}
	if t1 == t2 {
		return ruleViolation("a set cannot end tied at %d-%d", t1, t2)
	}

	winner, loser := t1, t2
	if t2 > t1 {
		winner, loser = t2, t1
	}

	switch {
	case winner == 6 && loser <= 4:
		return nil
	case winner == 6 && loser == 5:
		return ruleViolation("6-5 must continue to 7-5")
	case winner == 7 && loser == 5, winner == 7 && loser == 6:
		return nil
	case winner == 7:
		return ruleViolation("7-%d is not a valid set, only 7-5 and 7-6 are", loser)
	case winner > 7:
		return ruleViolation("a set cannot go beyond 7 games (got %d-%d)", t1, t2)
	default: // winner < 6
		return ruleViolation("set winner must reach at least 6 games (got %d-%d)", t1, t2)
	}
}

// setWinner returns 1 or 2 for a set already known to be valid.
func setWinner(set models.SetScore) int {
	if set.Team1Games > set.Team2Games {
		return 1
	}
	return 2
}

// ValidateResult проверяет полный результат матча.
//
// Сеты 1 и 2 обязательны. Третий сет допустим только при счёте 1-1 по сетам,
// и тогда он обязан определить победителя. При hasSuperTiebreak третий сет
// записывается в нотации "7-6" (реальные очки супер-тай-брейка не хранятся —
// движок нормализует результат на теннисную запись).
func ValidateResult(set1, set2, set3 *models.SetScore, hasSuperTiebreak bool) error {
	if set1 == nil {
		return ruleViolation("set 1 is required")
	}
	if set2 == nil {
		return ruleViolation("set 2 is required")
	}
	if err := ValidateSet(*set1); err != nil {
		return fmt.Errorf("set 1: %w", err)
	}
	if err := ValidateSet(*set2); err != nil {
		return fmt.Errorf("set 2: %w", err)
	}

	w1, w2 := setWinner(*set1), setWinner(*set2)
	if w1 == w2 {
		if set3 != nil {
			return ruleViolation("set 3 must be empty when the match is decided in two sets")
		}
		return nil
	}

	// Сеты разделены 1-1: третий сет обязателен.
	if set3 == nil {
		return ruleViolation("set 3 is required when the first two sets are split 1-1")
	}
	if hasSuperTiebreak {
		w, l := set3.Team1Games, set3.Team2Games
		if l > w {
			w, l = l, w
		}
		if w != 7 || l != 6 {
			return ruleViolation("super tiebreak must be recorded as 7-6 (got %d-%d)", set3.Team1Games, set3.Team2Games)
		}
		return nil
	}
	if err := ValidateSet(*set3); err != nil {
		return fmt.Errorf("set 3: %w", err)
	}
	return nil
}

// ResultWinner возвращает 1 или 2 для уже прошедшего валидацию результата.
func ResultWinner(set1, set2 models.SetScore, set3 *models.SetScore) int {
	w1, w2 := setWinner(set1), setWinner(set2)
	if w1 == w2 {
		return w1
	}
	return setWinner(*set3)
}
