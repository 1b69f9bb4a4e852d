package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for transport mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindConsistency  Kind = "consistency"
	KindUnauthorized Kind = "unauthorized"
)

// Error is the structured error returned by every service operation.
// Two errors are considered equal by errors.Is when their codes match, so the
// predeclared values below can be compared against errors carrying extra detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Withf returns a copy of e carrying a formatted detail message.
func (e *Error) Withf(format string, args ...any) *Error {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var (
	// Validation
	ErrValidationFailed        = newError(KindValidation, "validation_failed", "validation failed")
	ErrInvalidDateRange        = newError(KindValidation, "invalid_date_range", "tournament end date must not be before start date")
	ErrInvalidStatus           = newError(KindValidation, "invalid_status", "invalid tournament status")
	ErrInvalidStatusTransition = newError(KindValidation, "invalid_status_transition", "invalid tournament status transition")
	ErrNoDisciplines           = newError(KindValidation, "no_disciplines", "at least one discipline is required")
	ErrDisciplineNotOffered    = newError(KindValidation, "discipline_not_offered", "discipline is not offered by the tournament")
	ErrInvalidRound            = newError(KindValidation, "invalid_round", "round is outside the tournament's round count")
	ErrInvalidCapacity         = newError(KindValidation, "invalid_capacity", "capacity must be positive")
	ErrSlotOutsideTournament   = newError(KindValidation, "slot_outside_tournament", "time slot start is outside the tournament dates")
	ErrInvalidScore            = newError(KindValidation, "invalid_score", "invalid score values")
	ErrBreakdownMismatch       = newError(KindValidation, "breakdown_mismatch", "station breakdown does not add up to the totals")
	ErrCorrectionReasonMissing = newError(KindValidation, "correction_reason_required", "a correction reason is required")
	ErrInvalidGroupBy          = newError(KindValidation, "invalid_group_by", "unsupported leaderboard grouping")
	ErrUnknownGoverningBody    = newError(KindValidation, "unknown_governing_body", "unknown governing body")
	ErrImportEmpty             = newError(KindValidation, "import_empty", "import contains no rows")
	ErrTeamNameRequired        = newError(KindValidation, "team_name_required", "team name is required")
	ErrTeamNameTaken           = newError(KindValidation, "team_name_taken", "team name is already in use")

	// Not found
	ErrTournamentNotFound   = newError(KindNotFound, "tournament_not_found", "tournament not found")
	ErrDisciplineNotFound   = newError(KindNotFound, "discipline_not_found", "discipline not found")
	ErrTimeSlotNotFound     = newError(KindNotFound, "time_slot_not_found", "time slot not found")
	ErrSquadNotFound        = newError(KindNotFound, "squad_not_found", "squad not found")
	ErrAthleteNotFound      = newError(KindNotFound, "athlete_not_found", "athlete not found")
	ErrTeamNotFound         = newError(KindNotFound, "team_not_found", "team not found")
	ErrRegistrationNotFound = newError(KindNotFound, "registration_not_found", "registration not found")
	ErrSquadMemberNotFound  = newError(KindNotFound, "squad_member_not_found", "athlete is not a member of the squad")
	ErrScoreNotFound        = newError(KindNotFound, "score_not_found", "score not found")
	ErrImportBatchNotFound  = newError(KindNotFound, "import_batch_not_found", "import batch not found")

	// Conflict
	ErrAlreadyRegistered      = newError(KindConflict, "already_registered", "athlete is already registered for this tournament")
	ErrTournamentClosed       = newError(KindConflict, "tournament_closed", "tournament is completed")
	ErrAthleteHasSquads       = newError(KindConflict, "athlete_has_squads", "athlete is still assigned to squads in this tournament")
	ErrDatesLocked            = newError(KindConflict, "tournament_dates_locked", "tournament dates cannot change once squads exist")
	ErrDatesExcludeSlots      = newError(KindConflict, "dates_exclude_time_slots", "new tournament dates leave existing time slots outside")
	ErrTimeSlotHasSquads      = newError(KindConflict, "time_slot_has_squads", "time slot is referenced by squads")
	ErrSlotCapacityExceeded   = newError(KindConflict, "slot_capacity_exceeded", "time slot capacity exceeded")
	ErrSquadFull              = newError(KindConflict, "squad_full", "squad is full")
	ErrDoubleBooked           = newError(KindConflict, "double_booked", "athlete is already booked")
	ErrNotRegistered          = newError(KindConflict, "not_registered", "athlete is not registered for the squad's discipline")
	ErrScoreFinalized         = newError(KindConflict, "score_finalized", "score is finalized; submit a correction")
	ErrConcurrentUpdate       = newError(KindConflict, "concurrent_update", "the resource was modified concurrently; retry")
	ErrDisciplineCodeConflict = newError(KindConflict, "discipline_code_conflict", "discipline code already exists")
	ErrAthleteAlreadyInTeam   = newError(KindConflict, "athlete_already_in_team", "athlete is already in a team")
	ErrAthleteNotInTeam       = newError(KindConflict, "athlete_not_in_team", "athlete is not in this team")
	ErrAthleteUserTaken       = newError(KindConflict, "athlete_user_taken", "user is already linked to an athlete")
	ErrJoinRequestPending     = newError(KindConflict, "join_request_pending", "a join request is already pending")
	ErrMixedGranularity       = newError(KindConflict, "mixed_granularity", "round already holds rows of the other granularity (whole round vs per station)")

	// Consistency
	ErrCrossTournament = newError(KindConsistency, "cross_tournament", "entities belong to different tournaments")
	ErrNoSquadMember   = newError(KindConsistency, "no_squad_membership", "athlete has no squad for this shoot")

	// Authorization
	ErrForbiddenOperation = newError(KindUnauthorized, "forbidden", "operation not allowed for the current user")
)
