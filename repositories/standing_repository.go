package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clubdeck/competition-engine/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	// ReplaceForGroup атомарно заменяет таблицу зоны пересчитанными строками.
	ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID int, standings []*models.Standing) error
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Standing, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Standing, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `id, group_id, team_id, matches_played, wins, losses, sets_won, sets_lost, games_won, games_lost, position, updated_at`

func (r *postgresStandingRepository) ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID int, standings []*models.Standing) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to clear standings for group %d: %w", groupID, err)
	}
	query := `
		INSERT INTO standings
			(group_id, team_id, matches_played, wins, losses, sets_won, sets_lost, games_won, games_lost, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			s.GroupID, s.TeamID, s.MatchesPlayed, s.Wins, s.Losses,
			s.SetsWon, s.SetsLost, s.GamesWon, s.GamesLost, s.Position, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert standing for team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func scanStanding(rowScanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	s := &models.Standing{}
	err := rowScanner.Scan(
		&s.ID, &s.GroupID, &s.TeamID, &s.MatchesPlayed, &s.Wins, &s.Losses,
		&s.SetsWon, &s.SetsLost, &s.GamesWon, &s.GamesLost, &s.Position, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresStandingRepository) list(ctx context.Context, executor SQLExecutor, query string, arg interface{}) ([]*models.Standing, error) {
	rows, err := executor.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + standingColumns + ` FROM standings WHERE group_id = $1 ORDER BY position ASC`
	return r.list(ctx, executor, query, groupID)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT s.id, s.group_id, s.team_id, s.matches_played, s.wins, s.losses,
		       s.sets_won, s.sets_lost, s.games_won, s.games_lost, s.position, s.updated_at
		FROM standings s
		JOIN groups g ON g.id = s.group_id
		WHERE g.tournament_id = $1
		ORDER BY g.group_order ASC, s.position ASC`
	return r.list(ctx, executor, query, tournamentID)
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		DELETE FROM standings WHERE group_id IN (SELECT id FROM groups WHERE tournament_id = $1)`, tournamentID)
	return err
}
