package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team display name already used in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	// ReplaceRestrictions атомарно заменяет окна недоступности команды.
	ReplaceRestrictions(ctx context.Context, exec SQLExecutor, teamID int, restrictions []models.ScheduleRestriction) error
	ListRestrictionsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.ScheduleRestriction, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, player1_id, player2_id, display_name, seed_number, is_substitute, display_order, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (tournament_id, player1_id, player2_id, display_name, seed_number, is_substitute, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		team.TournamentID, team.Player1ID, team.Player2ID, team.DisplayName,
		team.SeedNumber, team.IsSubstitute, team.DisplayOrder,
	).Scan(&team.ID, &team.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTeamNameConflict
	}
	return err
}

func scanTeam(rowScanner interface{ Scan(...interface{}) error }) (*models.Team, error) {
	team := &models.Team{}
	err := rowScanner.Scan(
		&team.ID, &team.TournamentID, &team.Player1ID, &team.Player2ID,
		&team.DisplayName, &team.SeedNumber, &team.IsSubstitute, &team.DisplayOrder, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY display_order ASC, id ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, errScan := scanTeam(rows)
		if errScan != nil {
			return nil, errScan
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ReplaceRestrictions(ctx context.Context, exec SQLExecutor, teamID int, restrictions []models.ScheduleRestriction) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM schedule_restrictions WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to clear restrictions for team %d: %w", teamID, err)
	}
	query := `
		INSERT INTO schedule_restrictions (team_id, date, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range restrictions {
		restrictions[i].TeamID = teamID
		err := executor.QueryRowContext(ctx, query,
			teamID, restrictions[i].Date, restrictions[i].StartTime, restrictions[i].EndTime,
		).Scan(&restrictions[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert restriction for team %d: %w", teamID, err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) ListRestrictionsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.ScheduleRestriction, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT sr.id, sr.team_id, sr.date, sr.start_time, sr.end_time
		FROM schedule_restrictions sr
		JOIN teams t ON t.id = sr.team_id
		WHERE t.tournament_id = $1
		ORDER BY sr.team_id ASC, sr.date ASC, sr.start_time ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	restrictions := make([]*models.ScheduleRestriction, 0)
	for rows.Next() {
		sr := &models.ScheduleRestriction{}
		if err := rows.Scan(&sr.ID, &sr.TeamID, &sr.Date, &sr.StartTime, &sr.EndTime); err != nil {
			return nil, err
		}
		restrictions = append(restrictions, sr)
	}
	return restrictions, rows.Err()
}
