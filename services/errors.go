package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrCourtNotFound      = errors.New("court not found")

	// Ошибки валидации входа
	ErrValidationFailed       = errors.New("validation failed")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTeamNameRequired       = errors.New("team display name is required")
	ErrPlayersMustDiffer      = errors.New("player1 and player2 must be different players")
	ErrInvalidMatchDuration   = errors.New("match duration must be a positive number of minutes")
	ErrInvalidQualifierCount  = errors.New("qualifiers per group must be at least 1")

	// Ошибки предусловий (статусная машина и бизнес-правила)
	ErrTournamentNotDraft          = errors.New("operation allowed only while the tournament is in draft status")
	ErrScheduleNotEditable         = errors.New("schedule can be edited only in draft or schedule_review status")
	ErrNoGroupsGenerated           = errors.New("cannot close registration: groups have not been generated")
	ErrUnscheduledMatchesRemain    = errors.New("cannot close schedule review: some group matches have no date or start time")
	ErrReopenWithRecordedResults   = errors.New("cannot reopen schedule review: group matches already have recorded results or have started")
	ErrInvalidStatusTransition     = errors.New("invalid tournament status transition")
	ErrGroupMatchCountMismatch     = errors.New("groups have different match counts and cannot swap schedules")
	ErrTeamNotInGroup              = errors.New("team is not a member of the stated group")
	ErrPlayoffsAlreadyGenerated    = errors.New("playoff bracket already exists for this tournament")
	ErrPlayoffsNotGenerated        = errors.New("no playoff bracket exists for this tournament")
	ErrMatchAlreadyFinished        = errors.New("match result has already been recorded")
	ErrMatchTeamsUnresolved        = errors.New("match sides are not resolved yet")
	ErrTournamentNotInProgress     = errors.New("operation allowed only while the tournament is in progress")
	ErrDeleteGroupsWithPlayoffs    = errors.New("cannot delete groups while a playoff bracket exists")
	ErrAvailableSchedulesRequired  = errors.New("tournament has no available schedule windows configured")
	ErrCourtsRequired              = errors.New("no courts are configured")
	ErrTeamHasMatches              = errors.New("cannot delete a team that is already assigned to a group")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Недоступность хранилища: вызывающий может повторить запрос.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
