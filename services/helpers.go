package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
	"github.com/Dosada05/clay-tournament/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("services")

// endSpan records err on span and ends it. Call it from a deferred closure so the named error
// result is observed after the function returns.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// txError converts what a Transactor returned into a service error. Errors that already carry
// a Kind pass through unchanged.
func txError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, repositories.ErrSerializationFailure) || errors.Is(err, repositories.ErrScoreVersionConflict) {
		return ErrConcurrentUpdate.Wrap(err)
	}
	return err
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func validateTournamentDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrValidationFailed.Withf("start_date and end_date are required")
	}
	if end.Before(start) {
		return ErrInvalidDateRange.Withf("start %s, end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return nil
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming:  {models.StatusActive},
		models.StatusActive:    {models.StatusCompleted},
		models.StatusCompleted: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// offeredRound checks that the tournament offers disciplineID and that round is within its round count.
func offeredRound(t *models.Tournament, disciplineID, round int) error {
	td, ok := t.Offers(disciplineID)
	if !ok {
		return ErrDisciplineNotOffered.Withf("discipline %d in tournament %d", disciplineID, t.ID)
	}
	if round < 1 || round > td.Rounds {
		return ErrInvalidRound.Withf("round %d, tournament has %d", round, td.Rounds)
	}
	return nil
}

func lookupTournament(err error, id int) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get tournament %d: %w", id, err)
}

func lookupAthlete(err error, id int) error {
	if errors.Is(err, repositories.ErrAthleteNotFound) {
		return ErrAthleteNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get athlete %d: %w", id, err)
}

func lookupSquad(err error, id int) error {
	if errors.Is(err, repositories.ErrSquadNotFound) {
		return ErrSquadNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get squad %d: %w", id, err)
}

func lookupTimeSlot(err error, id int) error {
	if errors.Is(err, repositories.ErrTimeSlotNotFound) {
		return ErrTimeSlotNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get time slot %d: %w", id, err)
}

func lookupDiscipline(err error, id int) error {
	if errors.Is(err, repositories.ErrDisciplineNotFound) {
		return ErrDisciplineNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get discipline %d: %w", id, err)
}

func lookupTeam(err error, id int) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound.Withf("id %d", id)
	}
	return fmt.Errorf("failed to get team %d: %w", id, err)
}
