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

type GenerateGroupsInput struct {
	GroupCount int `json:"group_count"`
}

// GenerateGroupsResult — зоны и матчи, созданные одной генерацией.
type GenerateGroupsResult struct {
	Groups  []*models.Group `json:"groups"`
	Matches []*models.Match `json:"matches"`
}

type GroupService interface {
	// GenerateGroups раскладывает команды по зонам, строит круговые пары и
	// назначает каждому матчу дату, время и корт. Повторный вызов в статусе
	// draft полностью заменяет предыдущую генерацию.
	GenerateGroups(ctx context.Context, currentUserID, tournamentID int, input GenerateGroupsInput) (*GenerateGroupsResult, error)
	DeleteGroups(ctx context.Context, currentUserID, tournamentID int) error
	List(ctx context.Context, currentUserID, tournamentID int) ([]*models.Group, error)
	Standings(ctx context.Context, currentUserID, tournamentID int) ([]*models.Standing, error)
	// SwapGroupSchedules обменивает расписания двух зон матч-к-матчу
	// (по match_order). Зоны обязаны иметь одинаковое число матчей.
	SwapGroupSchedules(ctx context.Context, currentUserID, tournamentID, groupAID, groupBID int) error
	// SwapTeams меняет местами две команды заявленных зон вместе со всеми
	// ссылками на них в несыгранных матчах группового этапа. Если команда
	// не состоит в своей заявленной зоне, обмен отклоняется без записи.
	SwapTeams(ctx context.Context, currentUserID, tournamentID, teamAID, groupAID, teamBID, groupBID int) error
}

type groupService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	scheduleRepo   repositories.AvailableScheduleRepository
	courtRepo      repositories.CourtRepository
	hub            *competition.Hub
	logger         *slog.Logger
}

func NewGroupService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	scheduleRepo repositories.AvailableScheduleRepository,
	courtRepo repositories.CourtRepository,
	hub *competition.Hub,
	logger *slog.Logger,
) GroupService {
	return &groupService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		scheduleRepo:   scheduleRepo,
		courtRepo:      courtRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *groupService) GenerateGroups(ctx context.Context, currentUserID, tournamentID int, input GenerateGroupsInput) (*GenerateGroupsResult, error) {
	if input.GroupCount < 1 {
		return nil, fmt.Errorf("%w: group count must be at least 1", ErrValidationFailed)
	}

	var result *GenerateGroupsResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}

		teams, err := s.teamRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		windows, err := s.scheduleRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if len(windows) == 0 {
			return ErrAvailableSchedulesRequired
		}
		courts, err := s.courtRepo.List(ctx, tx)
		if err != nil {
			return err
		}
		if len(courts) == 0 {
			return ErrCourtsRequired
		}
		restrictionRows, err := s.teamRepo.ListRestrictionsByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		restrictions, err := restrictionWindows(restrictionRows)
		if err != nil {
			return err
		}

		groupings, err := competition.SplitIntoGroups(teams, input.GroupCount)
		if err != nil {
			if errors.Is(err, competition.ErrNotEnoughTeams) {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
			return err
		}

		// Пары и ключи матчей собираются до записи: расписание считается
		// для всего турнира разом, а не по зоне.
		var requests []competition.MatchRequest
		type plannedMatch struct {
			groupIdx   int
			matchOrder int
			team1ID    int
			team2ID    int
		}
		var planned []plannedMatch
		for gi, groupTeams := range groupings {
			pairs := competition.RoundRobinPairs(len(groupTeams))
			for mi, pair := range pairs {
				t1 := groupTeams[pair[0]]
				t2 := groupTeams[pair[1]]
				requests = append(requests, competition.MatchRequest{
					Key:     fmt.Sprintf("%s #%d", models.GroupLetter(gi), mi+1),
					Team1ID: t1.ID,
					Team2ID: t2.ID,
				})
				planned = append(planned, plannedMatch{groupIdx: gi, matchOrder: mi + 1, team1ID: t1.ID, team2ID: t2.ID})
			}
		}

		slots, err := competition.BuildSlots(windows, courts, tournament.MatchDurationMinutes)
		if err != nil {
			return err
		}
		assigned, err := competition.AssignSchedule(requests, slots, restrictions)
		if err != nil {
			return err
		}

		// Генерация деструктивна: старые зоны, матчи и таблицы уходят целиком.
		if err := s.matchRepo.DeleteByTournamentAndPhase(ctx, tx, tournamentID, models.PhaseGroup); err != nil {
			return err
		}
		if err := s.standingRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := s.groupRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}

		groups := make([]*models.Group, len(groupings))
		for gi, groupTeams := range groupings {
			group := &models.Group{TournamentID: tournamentID, Order: gi}
			if err := s.groupRepo.Create(ctx, tx, group); err != nil {
				return err
			}
			for _, t := range groupTeams {
				if err := s.groupRepo.AddMember(ctx, tx, group.ID, t.ID); err != nil {
					return err
				}
				group.TeamIDs = append(group.TeamIDs, t.ID)
				group.Teams = append(group.Teams, *t)
			}
			groups[gi] = group
		}

		matches := make([]*models.Match, len(planned))
		for i, pm := range planned {
			slot := assigned[i]
			date := slot.Date
			start := competition.FormatClock(slot.StartMin)
			end := competition.FormatClock(slot.EndMin)
			courtID := slot.CourtID
			team1 := pm.team1ID
			team2 := pm.team2ID
			matches[i] = &models.Match{
				TournamentID: tournamentID,
				Phase:        models.PhaseGroup,
				GroupID:      &groups[pm.groupIdx].ID,
				MatchOrder:   pm.matchOrder,
				Team1ID:      &team1,
				Team2ID:      &team2,
				MatchDate:    &date,
				StartTime:    &start,
				EndTime:      &end,
				CourtID:      &courtID,
				Status:       models.MatchStatusScheduled,
			}
		}
		if err := s.matchRepo.CreateBatch(ctx, tx, matches); err != nil {
			return err
		}

		result = &GenerateGroupsResult{Groups: groups, Matches: matches}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("groups generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(result.Groups)),
		slog.Int("matches", len(result.Matches)))
	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventScheduleUpdated,
		Payload: result,
		RoomID:  roomID(tournamentID),
	})
	return result, nil
}

// restrictionWindows переводит строки ограничений в интервалы движка.
func restrictionWindows(rows []*models.ScheduleRestriction) (map[int][]competition.TimeWindow, error) {
	out := make(map[int][]competition.TimeWindow)
	for _, r := range rows {
		start, err := competition.ParseClock(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: restriction for team %d: %v", ErrValidationFailed, r.TeamID, err)
		}
		end, err := competition.ParseClock(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: restriction for team %d: %v", ErrValidationFailed, r.TeamID, err)
		}
		out[r.TeamID] = append(out[r.TeamID], competition.TimeWindow{Date: r.Date, StartMin: start, EndMin: end})
	}
	return out, nil
}

func (s *groupService) DeleteGroups(ctx context.Context, currentUserID, tournamentID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}
		phase := models.PhasePlayoff
		playoffMatches, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID, &phase)
		if err != nil {
			return err
		}
		if len(playoffMatches) > 0 {
			return ErrDeleteGroupsWithPlayoffs
		}
		if err := s.matchRepo.DeleteByTournamentAndPhase(ctx, tx, tournamentID, models.PhaseGroup); err != nil {
			return err
		}
		if err := s.standingRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		return s.groupRepo.DeleteByTournament(ctx, tx, tournamentID)
	})
}

func (s *groupService) List(ctx context.Context, currentUserID, tournamentID int) ([]*models.Group, error) {
	if err := s.checkOwner(ctx, currentUserID, tournamentID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *groupService) Standings(ctx context.Context, currentUserID, tournamentID int) ([]*models.Standing, error) {
	if err := s.checkOwner(ctx, currentUserID, tournamentID); err != nil {
		return nil, err
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *groupService) checkOwner(ctx context.Context, currentUserID, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.OwnerID != currentUserID {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *groupService) SwapGroupSchedules(ctx context.Context, currentUserID, tournamentID, groupAID, groupBID int) error {
	if groupAID == groupBID {
		return fmt.Errorf("%w: cannot swap a group with itself", ErrValidationFailed)
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft && tournament.Status != models.StatusScheduleReview {
			return ErrScheduleNotEditable
		}
		groupA, err := s.ownedGroup(ctx, tx, tournamentID, groupAID)
		if err != nil {
			return err
		}
		groupB, err := s.ownedGroup(ctx, tx, tournamentID, groupBID)
		if err != nil {
			return err
		}
		matchesA, err := s.matchRepo.ListByGroup(ctx, tx, groupA.ID)
		if err != nil {
			return err
		}
		matchesB, err := s.matchRepo.ListByGroup(ctx, tx, groupB.ID)
		if err != nil {
			return err
		}
		// Списки отсортированы по match_order, обмен идёт попарно.
		if err := competition.SwapScheduleTuples(matchesA, matchesB); err != nil {
			return ErrGroupMatchCountMismatch
		}
		for i := range matchesA {
			if err := s.matchRepo.UpdateScheduleTuple(ctx, tx, matchesA[i]); err != nil {
				return err
			}
			if err := s.matchRepo.UpdateScheduleTuple(ctx, tx, matchesB[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventScheduleUpdated,
		Payload: map[string]int{"group_a_id": groupAID, "group_b_id": groupBID},
		RoomID:  roomID(tournamentID),
	})
	return nil
}

func (s *groupService) ownedGroup(ctx context.Context, tx *sql.Tx, tournamentID, groupID int) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, tx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.TournamentID != tournamentID {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (s *groupService) SwapTeams(ctx context.Context, currentUserID, tournamentID, teamAID, groupAID, teamBID, groupBID int) error {
	if teamAID == teamBID {
		return fmt.Errorf("%w: cannot swap a team with itself", ErrValidationFailed)
	}
	if groupAID == groupBID {
		return fmt.Errorf("%w: teams must come from different groups", ErrValidationFailed)
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft && tournament.Status != models.StatusScheduleReview {
			return ErrScheduleNotEditable
		}

		groupA, err := s.ownedGroup(ctx, tx, tournamentID, groupAID)
		if err != nil {
			return err
		}
		groupB, err := s.ownedGroup(ctx, tx, tournamentID, groupBID)
		if err != nil {
			return err
		}
		// Команда обязана состоять именно в заявленной зоне: расхождение
		// означает, что вызывающий оперирует устаревшей раскладкой.
		if !groupA.HasTeam(teamAID) || !groupB.HasTeam(teamBID) {
			return ErrTeamNotInGroup
		}

		// Сначала ссылки в матчах, затем членство: обе записи в одной
		// транзакции, частичного обмена не бывает.
		if err := s.matchRepo.SwapTeamReferences(ctx, tx, tournamentID, teamAID, teamBID); err != nil {
			return err
		}
		if err := s.groupRepo.MoveMember(ctx, tx, teamAID, groupA.ID, groupB.ID); err != nil {
			return err
		}
		return s.groupRepo.MoveMember(ctx, tx, teamBID, groupB.ID, groupA.ID)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventScheduleUpdated,
		Payload: map[string]int{"team_a_id": teamAID, "team_b_id": teamBID},
		RoomID:  roomID(tournamentID),
	})
	return nil
}
