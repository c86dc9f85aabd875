package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
)

var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrGroupMemberNotFound = errors.New("team is not a member of the group")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Group, error)
	AddMember(ctx context.Context, exec SQLExecutor, groupID, teamID int) error
	// MoveMember переносит команду из одной зоны в другую; если команда не
	// состоит в исходной зоне, возвращает ErrGroupMemberNotFound без записи.
	MoveMember(ctx context.Context, exec SQLExecutor, teamID, fromGroupID, toGroupID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO groups (tournament_id, group_order)
		VALUES ($1, $2)
		RETURNING id`
	return executor.QueryRowContext(ctx, query, group.TournamentID, group.Order).Scan(&group.ID)
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error) {
	executor := r.getExecutor(exec)
	group := &models.Group{}
	err := executor.QueryRowContext(ctx,
		`SELECT id, tournament_id, group_order FROM groups WHERE id = $1`, id,
	).Scan(&group.ID, &group.TournamentID, &group.Order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if err := r.loadMembers(ctx, executor, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (r *postgresGroupRepository) loadMembers(ctx context.Context, executor SQLExecutor, group *models.Group) error {
	rows, err := executor.QueryContext(ctx, `
		SELECT gm.team_id
		FROM group_members gm
		JOIN teams t ON t.id = gm.team_id
		WHERE gm.group_id = $1
		ORDER BY t.display_order ASC, t.id ASC`, group.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	group.TeamIDs = group.TeamIDs[:0]
	for rows.Next() {
		var teamID int
		if err := rows.Scan(&teamID); err != nil {
			return err
		}
		group.TeamIDs = append(group.TeamIDs, teamID)
	}
	return rows.Err()
}

func (r *postgresGroupRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Group, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT id, tournament_id, group_order FROM groups WHERE tournament_id = $1 ORDER BY group_order ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.TournamentID, &group.Order); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, group := range groups {
		if err := r.loadMembers(ctx, executor, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *postgresGroupRepository) AddMember(ctx context.Context, exec SQLExecutor, groupID, teamID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`INSERT INTO group_members (group_id, team_id) VALUES ($1, $2)`, groupID, teamID)
	if err != nil {
		return fmt.Errorf("failed to add team %d to group %d: %w", teamID, groupID, err)
	}
	return nil
}

func (r *postgresGroupRepository) MoveMember(ctx context.Context, exec SQLExecutor, teamID, fromGroupID, toGroupID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE group_members SET group_id = $1 WHERE group_id = $2 AND team_id = $3`,
		toGroupID, fromGroupID, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	// group_members удаляются каскадом по внешнему ключу.
	_, err := executor.ExecContext(ctx, `DELETE FROM groups WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresGroupRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM groups WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}
