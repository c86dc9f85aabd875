package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clubdeck/competition-engine/competition"
	"github.com/clubdeck/competition-engine/models"
	"github.com/clubdeck/competition-engine/repositories"
	"github.com/clubdeck/competition-engine/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name                 string `json:"name"`
	HasSuperTiebreak     bool   `json:"has_super_tiebreak"`
	MatchDurationMinutes int    `json:"match_duration_minutes"`
}

type TournamentService interface {
	Create(ctx context.Context, currentUserID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context, currentUserID int) ([]*models.Tournament, error)
	Update(ctx context.Context, currentUserID, tournamentID int, input CreateTournamentInput) (*models.Tournament, error)
	Cancel(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error)

	CloseRegistration(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error)
	CloseScheduleReview(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error)
	ReopenScheduleReview(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error)

	ReplaceAvailableSchedules(ctx context.Context, currentUserID, tournamentID int, windows []models.AvailableSchedule) error
	ListAvailableSchedules(ctx context.Context, currentUserID, tournamentID int) ([]*models.AvailableSchedule, error)

	UploadLogo(ctx context.Context, currentUserID, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	scheduleRepo   repositories.AvailableScheduleRepository
	uploader       storage.FileUploader
	hub            *competition.Hub
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	scheduleRepo repositories.AvailableScheduleRepository,
	uploader storage.FileUploader,
	hub *competition.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		scheduleRepo:   scheduleRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
	}
}

func validateTournamentInput(input CreateTournamentInput) error {
	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	if input.MatchDurationMinutes <= 0 {
		return ErrInvalidMatchDuration
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, currentUserID int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}
	tournament := &models.Tournament{
		OwnerID:              currentUserID,
		Name:                 input.Name,
		Status:               models.StatusDraft,
		HasSuperTiebreak:     input.HasSuperTiebreak,
		MatchDurationMinutes: input.MatchDurationMinutes,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// getOwned читает турнир без блокировки и проверяет владельца.
func (s *tournamentService) getOwned(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
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
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.getOwned(ctx, currentUserID, tournamentID)
	if err != nil {
		return nil, err
	}

	// Связанные сущности загружаются параллельно.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Teams = make([]models.Team, len(teams))
		for i, t := range teams {
			tournament.Teams[i] = *t
		}
		return nil
	})
	g.Go(func() error {
		groups, err := s.groupRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Groups = make([]models.Group, len(groups))
		for i, grp := range groups {
			tournament.Groups[i] = *grp
		}
		return nil
	})
	g.Go(func() error {
		windows, err := s.scheduleRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.AvailableSchedules = make([]models.AvailableSchedule, len(windows))
		for i, w := range windows {
			tournament.AvailableSchedules[i] = *w
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(tournament *models.Tournament) {
	if tournament.LogoKey != nil && *tournament.LogoKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*tournament.LogoKey); url != "" {
			tournament.LogoURL = &url
		}
	}
}

func (s *tournamentService) List(ctx context.Context, currentUserID int) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListByOwner(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, currentUserID, tournamentID int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}
	var updated *models.Tournament
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}
		tournament.Name = input.Name
		tournament.HasSuperTiebreak = input.HasSuperTiebreak
		tournament.MatchDurationMinutes = input.MatchDurationMinutes
		if err := s.tournamentRepo.UpdateDetails(ctx, tx, tournament); err != nil {
			return err
		}
		updated = tournament
		return nil
	})
	return updated, err
}

// transition переводит турнир в новый статус, проверяя guard внутри
// транзакции под блокировкой строки турнира.
func (s *tournamentService) transition(ctx context.Context, currentUserID, tournamentID int, next models.TournamentStatus, guard func(tx *sql.Tx, t *models.Tournament) error) (*models.Tournament, error) {
	var result *models.Tournament
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if !isValidStatusTransition(tournament.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, tournament.Status, next)
		}
		if guard != nil {
			if err := guard(tx, tournament); err != nil {
				return err
			}
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, next); err != nil {
			return err
		}
		tournament.Status = next
		result = tournament
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament status changed",
		slog.Int("tournament_id", tournamentID), slog.String("status", string(next)))
	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventStatusChanged,
		Payload: result,
		RoomID:  roomID(tournamentID),
	})
	return result, nil
}

func (s *tournamentService) Cancel(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
	return s.transition(ctx, currentUserID, tournamentID, models.StatusCancelled, nil)
}

func (s *tournamentService) CloseRegistration(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
	return s.transition(ctx, currentUserID, tournamentID, models.StatusScheduleReview,
		func(tx *sql.Tx, t *models.Tournament) error {
			count, err := s.groupRepo.CountByTournament(ctx, tx, tournamentID)
			if err != nil {
				return err
			}
			if count == 0 {
				return ErrNoGroupsGenerated
			}
			return nil
		})
}

func (s *tournamentService) CloseScheduleReview(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
	return s.transition(ctx, currentUserID, tournamentID, models.StatusInProgress,
		func(tx *sql.Tx, t *models.Tournament) error {
			unscheduled, err := s.matchRepo.CountUnscheduledGroupMatches(ctx, tx, tournamentID)
			if err != nil {
				return err
			}
			if unscheduled > 0 {
				return fmt.Errorf("%w: %d match(es) unscheduled", ErrUnscheduledMatchesRemain, unscheduled)
			}
			return nil
		})
}

func (s *tournamentService) ReopenScheduleReview(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
	return s.transition(ctx, currentUserID, tournamentID, models.StatusScheduleReview,
		func(tx *sql.Tx, t *models.Tournament) error {
			started, err := s.matchRepo.CountStartedGroupMatches(ctx, tx, tournamentID)
			if err != nil {
				return err
			}
			if started > 0 {
				return fmt.Errorf("%w: %d match(es) affected", ErrReopenWithRecordedResults, started)
			}
			return nil
		})
}

func (s *tournamentService) ReplaceAvailableSchedules(ctx context.Context, currentUserID, tournamentID int, windows []models.AvailableSchedule) error {
	for _, w := range windows {
		if _, err := competition.ParseClock(w.StartTime); err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		if _, err := competition.ParseClock(w.EndTime); err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
	}
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}
		return s.scheduleRepo.ReplaceForTournament(ctx, tx, tournamentID, windows)
	})
}

func (s *tournamentService) ListAvailableSchedules(ctx context.Context, currentUserID, tournamentID int) ([]*models.AvailableSchedule, error) {
	if _, err := s.getOwned(ctx, currentUserID, tournamentID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *tournamentService) UploadLogo(ctx context.Context, currentUserID, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.getOwned(ctx, currentUserID, tournamentID)
	if err != nil {
		return nil, err
	}

	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("tournaments/%d/logo_%d%s", tournamentID, time.Now().UnixNano(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	oldKey := tournament.LogoKey
	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &result.Key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous tournament logo",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}
	tournament.LogoKey = &result.Key
	s.populateLogoURL(tournament)
	return tournament, nil
}
