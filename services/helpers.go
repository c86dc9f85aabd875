package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
	"github.com/clubdeck/competition-engine/repositories"
)

// runInTx исполняет fn внутри транзакции: либо все строки меняются, либо
// никакие. Паника пробрасывается после отката.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrStorageUnavailable, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// lockOwnedTournament берёт блокировку строки турнира (сериализация всех
// составных записей по турниру) и проверяет владельца.
func lockOwnedTournament(ctx context.Context, tx *sql.Tx, repo repositories.TournamentRepository, tournamentID, currentUserID int) (*models.Tournament, error) {
	tournament, err := repo.LockByID(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.OwnerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}

// isValidStatusTransition описывает машину состояний турнира.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusDraft:          {models.StatusScheduleReview, models.StatusCancelled},
		models.StatusScheduleReview: {models.StatusInProgress, models.StatusCancelled},
		models.StatusInProgress:     {models.StatusFinished, models.StatusScheduleReview},
		models.StatusFinished:       {},
		models.StatusCancelled:      {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func roomID(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}
