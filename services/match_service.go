package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clubdeck/competition-engine/competition"
	"github.com/clubdeck/competition-engine/models"
	"github.com/clubdeck/competition-engine/repositories"
)

type SubmitResultInput struct {
	Set1 *models.SetScore `json:"set1"`
	Set2 *models.SetScore `json:"set2"`
	Set3 *models.SetScore `json:"set3"`
}

type MatchService interface {
	List(ctx context.Context, currentUserID, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error)
	// SubmitResult записывает счёт матча, пересчитывает таблицу зоны и, для
	// плей-офф, продвигает победителя в следующий раунд. Финал завершает
	// турнир.
	SubmitResult(ctx context.Context, currentUserID, tournamentID, matchID int, input SubmitResultInput) (*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	slotRepo       repositories.PlayoffSlotRepository
	hub            *competition.Hub
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	slotRepo repositories.PlayoffSlotRepository,
	hub *competition.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		slotRepo:       slotRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) List(ctx context.Context, currentUserID, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
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
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, phase)
}

type resultSideEffects struct {
	standings        []*models.Standing
	groupID          int
	tournamentClosed bool
	bracketTouched   bool
}

func (s *matchService) SubmitResult(ctx context.Context, currentUserID, tournamentID, matchID int, input SubmitResultInput) (*models.Match, error) {
	var match *models.Match
	var effects resultSideEffects

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusInProgress {
			return ErrTournamentNotInProgress
		}

		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.TournamentID != tournamentID {
			return ErrMatchNotFound
		}
		if match.Status == models.MatchStatusFinished {
			return ErrMatchAlreadyFinished
		}
		if match.Team1ID == nil || match.Team2ID == nil {
			return ErrMatchTeamsUnresolved
		}

		if err := competition.ValidateResult(input.Set1, input.Set2, input.Set3, tournament.HasSuperTiebreak); err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		match.Set1 = input.Set1
		match.Set2 = input.Set2
		match.Set3 = input.Set3
		match.Status = models.MatchStatusFinished
		winnerSide := competition.ResultWinner(*input.Set1, *input.Set2, input.Set3)
		if winnerSide == 1 {
			match.WinnerTeamID = match.Team1ID
		} else {
			match.WinnerTeamID = match.Team2ID
		}
		if err := s.matchRepo.UpdateResult(ctx, tx, match); err != nil {
			return err
		}

		switch match.Phase {
		case models.PhaseGroup:
			return s.afterGroupResult(ctx, tx, tournamentID, match, &effects)
		case models.PhasePlayoff:
			return s.afterPlayoffResult(ctx, tx, tournament, match, &effects)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	room := roomID(tournamentID)
	s.hub.BroadcastToRoom(room, competition.WebSocketMessage{
		Type:    competition.EventMatchResult,
		Payload: match,
		RoomID:  room,
	})
	if effects.standings != nil {
		s.hub.BroadcastToRoom(room, competition.WebSocketMessage{
			Type:    competition.EventStandingsUpdated,
			Payload: map[string]interface{}{"group_id": effects.groupID, "standings": effects.standings},
			RoomID:  room,
		})
	}
	if effects.bracketTouched {
		s.hub.BroadcastToRoom(room, competition.WebSocketMessage{
			Type:    competition.EventBracketUpdated,
			Payload: map[string]int{"match_id": match.ID},
			RoomID:  room,
		})
	}
	if effects.tournamentClosed {
		s.hub.BroadcastToRoom(room, competition.WebSocketMessage{
			Type:    competition.EventStatusChanged,
			Payload: map[string]string{"status": string(models.StatusFinished)},
			RoomID:  room,
		})
	}
	s.logger.Info("match result recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.String("phase", string(match.Phase)))
	return match, nil
}

// afterGroupResult пересчитывает таблицу зоны; когда зона доиграна,
// разрешает слоты сетки, ожидающие её итоговых позиций.
func (s *matchService) afterGroupResult(ctx context.Context, tx *sql.Tx, tournamentID int, match *models.Match, effects *resultSideEffects) error {
	group, err := s.groupRepo.GetByID(ctx, tx, *match.GroupID)
	if err != nil {
		return err
	}
	groupMatches, err := s.matchRepo.ListByGroup(ctx, tx, group.ID)
	if err != nil {
		return err
	}
	standings := competition.ComputeStandings(group.ID, group.TeamIDs, groupMatches)
	if err := s.standingRepo.ReplaceForGroup(ctx, tx, group.ID, standings); err != nil {
		return err
	}
	effects.standings = standings
	effects.groupID = group.ID

	for _, m := range groupMatches {
		if m.Status != models.MatchStatusFinished {
			return nil
		}
	}
	return s.resolveGroupSlots(ctx, tx, tournamentID, group.ID, standings, effects)
}

// resolveGroupSlots подставляет команды доигранной зоны в слоты сетки с
// источником group_position.
func (s *matchService) resolveGroupSlots(ctx context.Context, tx *sql.Tx, tournamentID, groupID int, standings []*models.Standing, effects *resultSideEffects) error {
	slots, err := s.slotRepo.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	byPosition := make(map[int]int, len(standings))
	for _, st := range standings {
		byPosition[st.Position] = st.TeamID
	}
	for _, slot := range slots {
		if slot.Source != models.SlotSourceGroupPosition || slot.TeamID != nil {
			continue
		}
		if slot.GroupID == nil || *slot.GroupID != groupID || slot.Position == nil {
			continue
		}
		teamID, ok := byPosition[*slot.Position]
		if !ok {
			continue
		}
		if err := s.slotRepo.ResolveTeam(ctx, tx, slot.ID, teamID); err != nil {
			return err
		}
		if err := s.applySlotToMatch(ctx, tx, slot, teamID); err != nil {
			return err
		}
		// Bye-матч, ждавший плейсхолдер зоны: команда стала известна,
		// она же и победитель.
		target, err := s.matchRepo.GetByID(ctx, tx, slot.MatchID)
		if err != nil {
			return err
		}
		if target.Status == models.MatchStatusFinished && target.WinnerTeamID == nil && !target.HasAnyScore() {
			target.WinnerTeamID = &teamID
			if err := s.matchRepo.UpdateResult(ctx, tx, target); err != nil {
				return err
			}
		}
		effects.bracketTouched = true
	}
	return nil
}

func (s *matchService) applySlotToMatch(ctx context.Context, tx *sql.Tx, slot *models.PlayoffSlot, teamID int) error {
	if slot.Slot == 1 {
		return s.matchRepo.UpdateTeamSlots(ctx, tx, slot.MatchID, &teamID, nil)
	}
	return s.matchRepo.UpdateTeamSlots(ctx, tx, slot.MatchID, nil, &teamID)
}

// afterPlayoffResult продвигает победителя в слот следующего раунда.
// Результат финала переводит турнир в finished.
func (s *matchService) afterPlayoffResult(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, match *models.Match, effects *resultSideEffects) error {
	effects.bracketTouched = true

	slots, err := s.slotRepo.ListByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Source != models.SlotSourceMatchWinner || slot.TeamID != nil {
			continue
		}
		if slot.SourceMatch == nil || *slot.SourceMatch != match.ID {
			continue
		}
		if err := s.slotRepo.ResolveTeam(ctx, tx, slot.ID, *match.WinnerTeamID); err != nil {
			return err
		}
		if err := s.applySlotToMatch(ctx, tx, slot, *match.WinnerTeamID); err != nil {
			return err
		}
	}

	if match.Round != nil && *match.Round == models.RoundFinal {
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusFinished); err != nil {
			return err
		}
		effects.tournamentClosed = true
	}
	return nil
}
