package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/competition"
	"github.com/clubdeck/competition-engine/models"
	"github.com/clubdeck/competition-engine/repositories"
)

type CreateTeamInput struct {
	Player1ID    int    `json:"player1_id"`
	Player2ID    int    `json:"player2_id"`
	DisplayName  string `json:"display_name"`
	SeedNumber   *int   `json:"seed_number"`
	IsSubstitute bool   `json:"is_substitute"`
}

type TeamService interface {
	Create(ctx context.Context, currentUserID, tournamentID int, input CreateTeamInput) (*models.Team, error)
	List(ctx context.Context, currentUserID, tournamentID int) ([]*models.Team, error)
	Delete(ctx context.Context, currentUserID, tournamentID, teamID int) error
	SetRestrictions(ctx context.Context, currentUserID, tournamentID, teamID int, restrictions []models.ScheduleRestriction) error
}

type teamService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	groupRepo      repositories.GroupRepository
}

func NewTeamService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
) TeamService {
	return &teamService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		groupRepo:      groupRepo,
	}
}

func (s *teamService) Create(ctx context.Context, currentUserID, tournamentID int, input CreateTeamInput) (*models.Team, error) {
	if input.DisplayName == "" {
		return nil, ErrTeamNameRequired
	}
	if input.Player1ID == input.Player2ID {
		return nil, ErrPlayersMustDiffer
	}
	if input.SeedNumber != nil && *input.SeedNumber < 1 {
		return nil, fmt.Errorf("%w: seed number must be at least 1", ErrValidationFailed)
	}

	var team *models.Team
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}
		existing, err := s.teamRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		team = &models.Team{
			TournamentID: tournamentID,
			Player1ID:    input.Player1ID,
			Player2ID:    input.Player2ID,
			DisplayName:  input.DisplayName,
			SeedNumber:   input.SeedNumber,
			IsSubstitute: input.IsSubstitute,
			DisplayOrder: len(existing),
		}
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return fmt.Errorf("%w: %q", ErrValidationFailed, input.DisplayName)
			}
			return err
		}
		return nil
	})
	return team, err
}

func (s *teamService) List(ctx context.Context, currentUserID, tournamentID int) ([]*models.Team, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.OwnerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	restrictions, err := s.teamRepo.ListRestrictionsByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[int][]models.ScheduleRestriction)
	for _, r := range restrictions {
		byTeam[r.TeamID] = append(byTeam[r.TeamID], *r)
	}
	for _, t := range teams {
		t.ScheduleRestrictions = byTeam[t.ID]
	}
	return teams, nil
}

func (s *teamService) Delete(ctx context.Context, currentUserID, tournamentID, teamID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}
		team, err := s.teamRepo.GetByID(ctx, tx, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.TournamentID != tournamentID {
			return ErrTeamNotFound
		}
		groups, err := s.groupRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			for _, memberID := range g.TeamIDs {
				if memberID == teamID {
					return ErrTeamHasMatches
				}
			}
		}
		if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	})
}

func (s *teamService) SetRestrictions(ctx context.Context, currentUserID, tournamentID, teamID int, restrictions []models.ScheduleRestriction) error {
	for _, r := range restrictions {
		start, err := competition.ParseClock(r.StartTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		end, err := competition.ParseClock(r.EndTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		if end <= start {
			return fmt.Errorf("%w: restriction end time must be after start time", ErrValidationFailed)
		}
	}
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		// Ограничения читаются только генератором расписания, поэтому
		// фиксируются до генерации: правка после неё молча разошлась бы
		// с уже построенным расписанием.
		if !restrictionsEditable(tournament.Status) {
			return ErrTournamentNotDraft
		}
		team, err := s.teamRepo.GetByID(ctx, tx, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.TournamentID != tournamentID {
			return ErrTeamNotFound
		}
		return s.teamRepo.ReplaceRestrictions(ctx, tx, teamID, restrictions)
	})
}

// restrictionsEditable: окна недоступности меняются только в статусе draft.
func restrictionsEditable(status models.TournamentStatus) bool {
	return status == models.StatusDraft
}
