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
	"golang.org/x/sync/errgroup"
)

type GeneratePlayoffsInput struct {
	QualifiersPerGroup int `json:"qualifiers_per_group"`
}

// PlayoffPreview — сетка без записи: предварительный показ до окончания
// группового этапа. Недоигранные зоны представлены плейсхолдерами ("1A").
type PlayoffPreview struct {
	SlotsNeeded      int                        `json:"slots_needed"`
	SlotsAvailable   int                        `json:"slots_available"`
	PlaceholdersUsed int                        `json:"placeholders_used"`
	Rounds           []competition.BracketRound `json:"rounds"`
}

// PlayoffBracket — сохранённая сетка: матчи плей-офф и происхождение их слотов.
type PlayoffBracket struct {
	Matches []*models.Match       `json:"matches"`
	Slots   []*models.PlayoffSlot `json:"slots"`
}

type PlayoffService interface {
	Preview(ctx context.Context, currentUserID, tournamentID int, input GeneratePlayoffsInput) (*PlayoffPreview, error)
	// Generate записывает сетку плей-офф. Недоигранные зоны допускаются:
	// их стороны сохраняются плейсхолдерами и разрешаются, когда зона
	// доигрывается.
	Generate(ctx context.Context, currentUserID, tournamentID int, input GeneratePlayoffsInput) (*PlayoffBracket, error)
	Get(ctx context.Context, currentUserID, tournamentID int) (*PlayoffBracket, error)
	// Delete каскадно удаляет матчи плей-офф и записи слотов.
	Delete(ctx context.Context, currentUserID, tournamentID int) error
}

type playoffService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	slotRepo       repositories.PlayoffSlotRepository
	hub            *competition.Hub
	logger         *slog.Logger
}

func NewPlayoffService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	slotRepo repositories.PlayoffSlotRepository,
	hub *competition.Hub,
	logger *slog.Logger,
) PlayoffService {
	return &playoffService{
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

// groupState — загруженное состояние группового этапа для построения сетки.
type groupState struct {
	groups    []*models.Group
	standings map[int][]*models.Standing
	finished  map[int]bool
}

func (st *groupState) groupByOrder(order int) *models.Group {
	for _, g := range st.groups {
		if g.Order == order {
			return g
		}
	}
	return nil
}

func (s *playoffService) loadGroupState(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, parallel bool) (*groupState, error) {
	groups, err := s.groupRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNoGroupsGenerated
	}

	state := &groupState{
		groups:    groups,
		standings: make(map[int][]*models.Standing, len(groups)),
		finished:  make(map[int]bool, len(groups)),
	}

	loadGroup := func(ctx context.Context, g *models.Group) ([]*models.Standing, bool, error) {
		rows, err := s.standingRepo.ListByGroup(ctx, exec, g.ID)
		if err != nil {
			return nil, false, err
		}
		matches, err := s.matchRepo.ListByGroup(ctx, exec, g.ID)
		if err != nil {
			return nil, false, err
		}
		finished := len(matches) > 0
		for _, m := range matches {
			if m.Status != models.MatchStatusFinished {
				finished = false
				break
			}
		}
		return rows, finished, nil
	}

	if parallel {
		// Предпросмотр читает вне транзакции и грузит зоны параллельно.
		eg, egctx := errgroup.WithContext(ctx)
		type loaded struct {
			rows     []*models.Standing
			finished bool
		}
		results := make([]loaded, len(groups))
		for i, g := range groups {
			i, g := i, g
			eg.Go(func() error {
				rows, finished, err := loadGroup(egctx, g)
				if err != nil {
					return err
				}
				results[i] = loaded{rows: rows, finished: finished}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		for i, g := range groups {
			state.standings[g.ID] = results[i].rows
			state.finished[g.ID] = results[i].finished
		}
		return state, nil
	}

	for _, g := range groups {
		rows, finished, err := loadGroup(ctx, g)
		if err != nil {
			return nil, err
		}
		state.standings[g.ID] = rows
		state.finished[g.ID] = finished
	}
	return state, nil
}

func (s *playoffService) checkOwner(ctx context.Context, currentUserID, tournamentID int) (*models.Tournament, error) {
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

func (s *playoffService) Preview(ctx context.Context, currentUserID, tournamentID int, input GeneratePlayoffsInput) (*PlayoffPreview, error) {
	if input.QualifiersPerGroup < 1 {
		return nil, ErrInvalidQualifierCount
	}
	if _, err := s.checkOwner(ctx, currentUserID, tournamentID); err != nil {
		return nil, err
	}

	state, err := s.loadGroupState(ctx, nil, tournamentID, true)
	if err != nil {
		return nil, err
	}
	qualifiers := competition.QualifiersFromStandings(state.groups, state.standings, state.finished, input.QualifiersPerGroup)
	bracket, err := competition.BuildBracket(qualifiers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return &PlayoffPreview{
		SlotsNeeded:      bracket.SlotsNeeded,
		SlotsAvailable:   bracket.SlotsAvailable,
		PlaceholdersUsed: bracket.PlaceholdersUsed,
		Rounds:           bracket.Rounds,
	}, nil
}

func (s *playoffService) Generate(ctx context.Context, currentUserID, tournamentID int, input GeneratePlayoffsInput) (*PlayoffBracket, error) {
	if input.QualifiersPerGroup < 1 {
		return nil, ErrInvalidQualifierCount
	}

	var result *PlayoffBracket
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusInProgress {
			return ErrTournamentNotInProgress
		}

		phase := models.PhasePlayoff
		existing, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID, &phase)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrPlayoffsAlreadyGenerated
		}

		state, err := s.loadGroupState(ctx, tx, tournamentID, false)
		if err != nil {
			return err
		}
		qualifiers := competition.QualifiersFromStandings(state.groups, state.standings, state.finished, input.QualifiersPerGroup)
		bracket, err := competition.BuildBracket(qualifiers)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		result, err = s.persistBracket(ctx, tx, tournamentID, bracket, state)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("playoff bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(result.Matches)))
	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventBracketUpdated,
		Payload: result,
		RoomID:  roomID(tournamentID),
	})
	return result, nil
}

// persistBracket записывает матчи сетки раунд за раундом вместе со слотами,
// фиксирующими происхождение каждой стороны. Bye-матчи вставляются сразу
// сыгранными.
func (s *playoffService) persistBracket(ctx context.Context, tx *sql.Tx, tournamentID int, bracket *competition.Bracket, state *groupState) (*PlayoffBracket, error) {
	var allMatches []*models.Match
	var allSlots []*models.PlayoffSlot
	matchOrder := 0

	// ID матчей предыдущего раунда по позиции, для ссылок "Winner <round>-<pos>".
	var prevRound []*models.Match

	for roundIdx, round := range bracket.Rounds {
		currentRound := make([]*models.Match, 0, len(round.Matches))
		for _, bm := range round.Matches {
			matchOrder++
			roundName := bm.Round
			pos := bm.Pos
			m := &models.Match{
				TournamentID: tournamentID,
				Phase:        models.PhasePlayoff,
				MatchOrder:   matchOrder,
				Round:        &roundName,
				BracketPos:   &pos,
				Team1ID:      bm.Side1.TeamID,
				Team2ID:      bm.Side2.TeamID,
				Status:       models.MatchStatusScheduled,
			}
			if p := bm.Side1.Placeholder; p != "" && bm.Side1.TeamID == nil {
				m.SourceTeam1 = &p
			}
			if p := bm.Side2.Placeholder; p != "" && bm.Side2.TeamID == nil {
				m.SourceTeam2 = &p
			}
			if bm.Bye {
				// Единственный участник проходит без игры.
				m.Status = models.MatchStatusFinished
				m.WinnerTeamID = bm.Side1.TeamID
			}
			if err := s.matchRepo.CreateBatch(ctx, tx, []*models.Match{m}); err != nil {
				return nil, err
			}
			currentRound = append(currentRound, m)
			allMatches = append(allMatches, m)

			sides := []competition.Side{bm.Side1, bm.Side2}
			for slotNo, side := range sides {
				slot, err := s.slotForSide(tournamentID, m, slotNo+1, side, roundIdx, bm.Pos, prevRound, state)
				if err != nil {
					return nil, err
				}
				if slot != nil {
					allSlots = append(allSlots, slot)
				}
			}
		}
		prevRound = currentRound
	}

	if err := s.slotRepo.CreateBatch(ctx, tx, allSlots); err != nil {
		return nil, err
	}
	return &PlayoffBracket{Matches: allMatches, Slots: allSlots}, nil
}

// slotForSide строит запись слота для одной стороны матча. Пустая сторона
// (bye) слота не получает.
func (s *playoffService) slotForSide(tournamentID int, m *models.Match, slotNo int, side competition.Side, roundIdx, bracketPos int, prevRound []*models.Match, state *groupState) (*models.PlayoffSlot, error) {
	if side.Empty() {
		return nil, nil
	}
	slot := &models.PlayoffSlot{
		TournamentID: tournamentID,
		MatchID:      m.ID,
		Slot:         slotNo,
		Label:        side.Placeholder,
	}
	switch {
	case side.TeamID != nil:
		teamID := *side.TeamID
		slot.Source = models.SlotSourceTeam
		slot.TeamID = &teamID
	case side.Position > 0:
		// Плейсхолдер зоны: "1A" и подобные.
		group := state.groupByOrder(side.GroupOrder)
		if group == nil {
			return nil, fmt.Errorf("bracket references unknown group order %d", side.GroupOrder)
		}
		groupID := group.ID
		position := side.Position
		slot.Source = models.SlotSourceGroupPosition
		slot.GroupID = &groupID
		slot.Position = &position
	default:
		// Победитель питающего матча предыдущего раунда.
		if roundIdx == 0 {
			return nil, fmt.Errorf("first-round side without provenance at pos %d", bracketPos)
		}
		feederIdx := (bracketPos-1)*2 + (slotNo - 1)
		if feederIdx >= len(prevRound) {
			return nil, fmt.Errorf("missing feeder match for pos %d slot %d", bracketPos, slotNo)
		}
		feederID := prevRound[feederIdx].ID
		slot.Source = models.SlotSourceMatchWinner
		slot.SourceMatch = &feederID
	}
	return slot, nil
}

func (s *playoffService) Get(ctx context.Context, currentUserID, tournamentID int) (*PlayoffBracket, error) {
	if _, err := s.checkOwner(ctx, currentUserID, tournamentID); err != nil {
		return nil, err
	}
	phase := models.PhasePlayoff
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, &phase)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrPlayoffsNotGenerated
	}
	slots, err := s.slotRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	return &PlayoffBracket{Matches: matches, Slots: slots}, nil
}

func (s *playoffService) Delete(ctx context.Context, currentUserID, tournamentID int) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := lockOwnedTournament(ctx, tx, s.tournamentRepo, tournamentID, currentUserID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusInProgress {
			return ErrTournamentNotInProgress
		}
		phase := models.PhasePlayoff
		existing, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID, &phase)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return ErrPlayoffsNotGenerated
		}
		if err := s.slotRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		return s.matchRepo.DeleteByTournamentAndPhase(ctx, tx, tournamentID, models.PhasePlayoff)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToRoom(roomID(tournamentID), competition.WebSocketMessage{
		Type:    competition.EventBracketUpdated,
		Payload: map[string]interface{}{"deleted": true},
		RoomID:  roomID(tournamentID),
	})
	return nil
}
