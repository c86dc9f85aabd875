package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
)

var ErrCourtNotFound = errors.New("court not found")

type AvailableScheduleRepository interface {
	// ReplaceForTournament атомарно переписывает список окон турнира.
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, windows []models.AvailableSchedule) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.AvailableSchedule, error)
}

type postgresAvailableScheduleRepository struct {
	db *sql.DB
}

func NewPostgresAvailableScheduleRepository(db *sql.DB) AvailableScheduleRepository {
	return &postgresAvailableScheduleRepository{db: db}
}

func (r *postgresAvailableScheduleRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAvailableScheduleRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, windows []models.AvailableSchedule) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM available_schedules WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear available schedules for tournament %d: %w", tournamentID, err)
	}
	query := `
		INSERT INTO available_schedules (tournament_id, date, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range windows {
		windows[i].TournamentID = tournamentID
		err := executor.QueryRowContext(ctx, query,
			tournamentID, windows[i].Date, windows[i].StartTime, windows[i].EndTime,
		).Scan(&windows[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert available schedule: %w", err)
		}
	}
	return nil
}

func (r *postgresAvailableScheduleRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.AvailableSchedule, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, date, start_time, end_time
		FROM available_schedules
		WHERE tournament_id = $1
		ORDER BY date ASC, start_time ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]*models.AvailableSchedule, 0)
	for rows.Next() {
		w := &models.AvailableSchedule{}
		if err := rows.Scan(&w.ID, &w.TournamentID, &w.Date, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	List(ctx context.Context, exec SQLExecutor) ([]*models.Court, error)
	Delete(ctx context.Context, id int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO courts (name) VALUES ($1) RETURNING id, created_at`, court.Name,
	).Scan(&court.ID, &court.CreatedAt)
}

func (r *postgresCourtRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Court, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `SELECT id, name, created_at FROM courts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		c := &models.Court{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}
