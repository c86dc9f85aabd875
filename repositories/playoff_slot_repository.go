package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
)

type PlayoffSlotRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, slots []*models.PlayoffSlot) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PlayoffSlot, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	// ResolveTeam помечает слот разрешённым: фиксирует команду, пришедшую из
	// зоны или из питающего матча.
	ResolveTeam(ctx context.Context, exec SQLExecutor, slotID, teamID int) error
}

type postgresPlayoffSlotRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffSlotRepository(db *sql.DB) PlayoffSlotRepository {
	return &postgresPlayoffSlotRepository{db: db}
}

func (r *postgresPlayoffSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayoffSlotRepository) CreateBatch(ctx context.Context, exec SQLExecutor, slots []*models.PlayoffSlot) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO playoff_slots
			(tournament_id, match_id, slot, source, team_id, source_match_id, group_id, position, label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	for _, s := range slots {
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.MatchID, s.Slot, s.Source,
			s.TeamID, s.SourceMatch, s.GroupID, s.Position, s.Label,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert playoff slot (match %d, slot %d): %w", s.MatchID, s.Slot, err)
		}
	}
	return nil
}

func (r *postgresPlayoffSlotRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PlayoffSlot, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, match_id, slot, source, team_id, source_match_id, group_id, position, label
		FROM playoff_slots
		WHERE tournament_id = $1
		ORDER BY match_id ASC, slot ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]*models.PlayoffSlot, 0)
	for rows.Next() {
		s := &models.PlayoffSlot{}
		err := rows.Scan(&s.ID, &s.TournamentID, &s.MatchID, &s.Slot, &s.Source,
			&s.TeamID, &s.SourceMatch, &s.GroupID, &s.Position, &s.Label)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *postgresPlayoffSlotRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM playoff_slots WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresPlayoffSlotRepository) ResolveTeam(ctx context.Context, exec SQLExecutor, slotID, teamID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE playoff_slots SET team_id = $1 WHERE id = $2`, teamID, slotID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("playoff slot %d not found", slotID))
}
