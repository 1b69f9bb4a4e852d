package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type RegistrationService interface {
	Register(ctx context.Context, actor Actor, athleteID, tournamentID int, disciplineIDs []int) (*models.Registration, error)
	Unregister(ctx context.Context, actor Actor, athleteID, tournamentID int) error
	ListRegistrations(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type registrationService struct {
	tx               repositories.Transactor
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	athleteRepo      repositories.AthleteRepository
	teamRepo         repositories.TeamRepository
	squadRepo        repositories.SquadRepository
	logger           *slog.Logger
}

func NewRegistrationService(
	tx repositories.Transactor,
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	athleteRepo repositories.AthleteRepository,
	teamRepo repositories.TeamRepository,
	squadRepo repositories.SquadRepository,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		tx:               tx,
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		athleteRepo:      athleteRepo,
		teamRepo:         teamRepo,
		squadRepo:        squadRepo,
		logger:           logger,
	}
}

// actsFor fails with ErrForbiddenOperation unless actor is an admin, the athlete's own user, or
// a coach of the athlete's team.
func (s *registrationService) actsFor(ctx context.Context, actor Actor, athlete *models.Athlete) error {
	if actor.IsAdmin() || (athlete.UserID != nil && *athlete.UserID == actor.UserID) {
		return nil
	}
	if actor.Role == models.RoleCoach && athlete.TeamID != nil {
		ok, err := s.teamRepo.IsCoach(ctx, *athlete.TeamID, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to check coaching staff: %w", err)
		}
		if ok {
			return nil
		}
	}
	return ErrForbiddenOperation.Withf("user %d cannot manage registrations of athlete %d", actor.UserID, athlete.ID)
}

// Register enters the athlete in the tournament for the given disciplines. Athletes without a
// team compete for the tournament's Individual team, which is created on first use.
func (s *registrationService) Register(ctx context.Context, actor Actor, athleteID, tournamentID int, disciplineIDs []int) (*models.Registration, error) {
	if len(disciplineIDs) == 0 {
		return nil, ErrNoDisciplines
	}
	ids := slices.Clone(disciplineIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var registration *models.Registration
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
		if err != nil {
			return lookupTournament(err, tournamentID)
		}
		for _, id := range ids {
			if _, ok := tournament.Offers(id); !ok {
				return ErrDisciplineNotOffered.Withf("discipline %d in tournament %d", id, tournamentID)
			}
		}
		athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
		if err != nil {
			return lookupAthlete(err, athleteID)
		}
		if err := s.actsFor(ctx, actor, athlete); err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentClosed.Withf("tournament %d", tournamentID)
		}

		_, err = s.registrationRepo.GetByAthleteAndTournament(ctx, athleteID, tournamentID)
		switch {
		case err == nil:
			return ErrAlreadyRegistered.Withf("athlete %d, tournament %d", athleteID, tournamentID)
		case !errors.Is(err, repositories.ErrRegistrationNotFound):
			return fmt.Errorf("failed to check registration: %w", err)
		}

		teamID := athlete.TeamID
		if teamID == nil {
			individual, err := s.teamRepo.GetOrCreateIndividual(ctx, tournamentID)
			if err != nil {
				return fmt.Errorf("failed to get individual team: %w", err)
			}
			teamID = &individual.ID
		}

		registration = &models.Registration{
			AthleteID:     athleteID,
			TournamentID:  tournamentID,
			TeamID:        teamID,
			DisciplineIDs: ids,
		}
		if err := s.registrationRepo.Create(ctx, registration); err != nil {
			switch {
			case errors.Is(err, repositories.ErrRegistrationConflict):
				return ErrAlreadyRegistered.Wrap(err)
			case errors.Is(err, repositories.ErrRegistrationInvalidAthlete):
				return ErrAthleteNotFound.Wrap(err)
			case errors.Is(err, repositories.ErrRegistrationInvalidTournament):
				return ErrTournamentNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to create registration: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "athlete registered",
		slog.Int("athlete_id", athleteID),
		slog.Int("tournament_id", tournamentID),
		slog.Any("discipline_ids", ids))
	return registration, nil
}

func (s *registrationService) Unregister(ctx context.Context, actor Actor, athleteID, tournamentID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
		if err != nil {
			return lookupAthlete(err, athleteID)
		}
		if err := s.actsFor(ctx, actor, athlete); err != nil {
			return err
		}
		if _, err := s.registrationRepo.GetByAthleteAndTournament(ctx, athleteID, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrRegistrationNotFound.Withf("athlete %d, tournament %d", athleteID, tournamentID)
			}
			return fmt.Errorf("failed to get registration: %w", err)
		}
		memberships, err := s.squadRepo.CountAthleteMemberships(ctx, athleteID, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to count squad memberships: %w", err)
		}
		if memberships > 0 {
			return ErrAthleteHasSquads.Withf("athlete %d is in %d squads", athleteID, memberships)
		}
		if err := s.registrationRepo.Delete(ctx, athleteID, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrRegistrationNotFound.Wrap(err)
			}
			return fmt.Errorf("failed to delete registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}

	s.logger.InfoContext(ctx, "athlete unregistered", slog.Int("athlete_id", athleteID), slog.Int("tournament_id", tournamentID))
	return nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, lookupTournament(err, tournamentID)
	}
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	if registrations == nil {
		return []models.Registration{}, nil
	}
	return registrations, nil
}
