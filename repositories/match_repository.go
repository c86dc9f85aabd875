package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clubdeck/competition-engine/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateScheduleTuple(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// UpdateTeamSlots проставляет команды в матч плей-офф, когда источник
	// (зона или питающий матч) становится известен.
	UpdateTeamSlots(ctx context.Context, exec SQLExecutor, matchID int, team1ID, team2ID *int) error
	// SwapTeamReferences меняет местами все ссылки двух команд в матчах
	// группового этапа турнира.
	SwapTeamReferences(ctx context.Context, exec SQLExecutor, tournamentID, teamAID, teamBID int) error
	DeleteByTournamentAndPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase models.MatchPhase) error
	CountUnscheduledGroupMatches(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	CountStartedGroupMatches(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, phase, group_id, match_order, round, bracket_pos,
	team1_id, team2_id, source_team1, source_team2,
	match_date, start_time, end_time, court_id,
	set1_team1, set1_team2, set2_team1, set2_team2, set3_team1, set3_team2,
	status, winner_team_id, created_at`

func setColumns(set *models.SetScore) (*int, *int) {
	if set == nil {
		return nil, nil
	}
	t1, t2 := set.Team1Games, set.Team2Games
	return &t1, &t2
}

func setFromColumns(t1, t2 *int) *models.SetScore {
	if t1 == nil || t2 == nil {
		return nil
	}
	return &models.SetScore{Team1Games: *t1, Team2Games: *t2}
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, phase, group_id, match_order, round, bracket_pos,
			 team1_id, team2_id, source_team1, source_team2,
			 match_date, start_time, end_time, court_id,
			 set1_team1, set1_team2, set2_team1, set2_team2, set3_team1, set3_team2,
			 status, winner_team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at`
	for _, m := range matches {
		s1t1, s1t2 := setColumns(m.Set1)
		s2t1, s2t2 := setColumns(m.Set2)
		s3t1, s3t2 := setColumns(m.Set3)
		err := executor.QueryRowContext(ctx, query,
			m.TournamentID, m.Phase, m.GroupID, m.MatchOrder, m.Round, m.BracketPos,
			m.Team1ID, m.Team2ID, m.SourceTeam1, m.SourceTeam2,
			m.MatchDate, m.StartTime, m.EndTime, m.CourtID,
			s1t1, s1t2, s2t1, s2t2, s3t1, s3t2,
			m.Status, m.WinnerTeamID,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match (phase %s, order %d): %w", m.Phase, m.MatchOrder, err)
		}
	}
	return nil
}

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	var s1t1, s1t2, s2t1, s2t2, s3t1, s3t2 *int
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.Phase, &m.GroupID, &m.MatchOrder, &m.Round, &m.BracketPos,
		&m.Team1ID, &m.Team2ID, &m.SourceTeam1, &m.SourceTeam2,
		&m.MatchDate, &m.StartTime, &m.EndTime, &m.CourtID,
		&s1t1, &s1t2, &s2t1, &s2t2, &s3t1, &s3t2,
		&m.Status, &m.WinnerTeamID, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	m.Set1 = setFromColumns(s1t1, s1t2)
	m.Set2 = setFromColumns(s2t1, s2t2)
	m.Set3 = setFromColumns(s3t1, s3t2)
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}
	if phase != nil {
		queryBuilder.WriteString(` AND phase = $` + strconv.Itoa(len(args)+1))
		args = append(args, *phase)
	}
	queryBuilder.WriteString(` ORDER BY phase ASC, group_id ASC NULLS LAST, round ASC NULLS FIRST, bracket_pos ASC NULLS FIRST, match_order ASC`)
	return r.listMatches(ctx, executor, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY match_order ASC`
	return r.listMatches(ctx, executor, query, groupID)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	s1t1, s1t2 := setColumns(match.Set1)
	s2t1, s2t2 := setColumns(match.Set2)
	s3t1, s3t2 := setColumns(match.Set3)
	query := `
		UPDATE matches SET
			set1_team1 = $1, set1_team2 = $2,
			set2_team1 = $3, set2_team2 = $4,
			set3_team1 = $5, set3_team2 = $6,
			status = $7, winner_team_id = $8
		WHERE id = $9`
	result, err := executor.ExecContext(ctx, query,
		s1t1, s1t2, s2t1, s2t2, s3t1, s3t2,
		match.Status, match.WinnerTeamID, match.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateScheduleTuple(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET match_date = $1, start_time = $2, end_time = $3, court_id = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query,
		match.MatchDate, match.StartTime, match.EndTime, match.CourtID, match.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateTeamSlots(ctx context.Context, exec SQLExecutor, matchID int, team1ID, team2ID *int) error {
	executor := r.getExecutor(exec)
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`UPDATE matches SET `)
	args := make([]interface{}, 0, 3)
	if team1ID != nil {
		args = append(args, *team1ID)
		queryBuilder.WriteString(`team1_id = $` + strconv.Itoa(len(args)))
	}
	if team2ID != nil {
		if len(args) > 0 {
			queryBuilder.WriteString(`, `)
		}
		args = append(args, *team2ID)
		queryBuilder.WriteString(`team2_id = $` + strconv.Itoa(len(args)))
	}
	if len(args) == 0 {
		return nil
	}
	args = append(args, matchID)
	queryBuilder.WriteString(` WHERE id = $` + strconv.Itoa(len(args)))
	result, err := executor.ExecContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SwapTeamReferences(ctx context.Context, exec SQLExecutor, tournamentID, teamAID, teamBID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			team1_id = CASE team1_id WHEN $2 THEN $3 WHEN $3 THEN $2 ELSE team1_id END,
			team2_id = CASE team2_id WHEN $2 THEN $3 WHEN $3 THEN $2 ELSE team2_id END
		WHERE tournament_id = $1 AND phase = 'group'
		  AND (team1_id IN ($2, $3) OR team2_id IN ($2, $3))`
	_, err := executor.ExecContext(ctx, query, tournamentID, teamAID, teamBID)
	return err
}

func (r *postgresMatchRepository) DeleteByTournamentAndPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase models.MatchPhase) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1 AND phase = $2`, tournamentID, phase)
	return err
}

func (r *postgresMatchRepository) CountUnscheduledGroupMatches(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = $1 AND phase = 'group'
		  AND (match_date IS NULL OR start_time IS NULL)`, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) CountStartedGroupMatches(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = $1 AND phase = 'group'
		  AND (status <> 'scheduled' OR set1_team1 IS NOT NULL)`, tournamentID).Scan(&count)
	return count, err
}
