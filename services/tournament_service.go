package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournamentDates(ctx context.Context, id int, input UpdateTournamentDatesInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type TournamentDisciplineInput struct {
	DisciplineID int `json:"discipline_id"`
	Rounds       int `json:"rounds"`
}

type CreateTournamentInput struct {
	Name        string                      `json:"name"`
	Location    string                      `json:"location"`
	StartDate   time.Time                   `json:"start_date"`
	EndDate     time.Time                   `json:"end_date"`
	Disciplines []TournamentDisciplineInput `json:"disciplines"`
}

type UpdateTournamentDatesInput struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	squadRepo      repositories.SquadRepository
	timeSlotRepo   repositories.TimeSlotRepository
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	squadRepo repositories.SquadRepository,
	timeSlotRepo repositories.TimeSlotRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		squadRepo:      squadRepo,
		timeSlotRepo:   timeSlotRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, ErrValidationFailed.Withf("tournament name is required")
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if len(input.Disciplines) == 0 {
		return nil, ErrNoDisciplines
	}

	tournament := &models.Tournament{
		Name:      name,
		Location:  strings.TrimSpace(input.Location),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    models.StatusUpcoming,
	}
	for _, d := range input.Disciplines {
		if d.Rounds < 1 {
			return nil, ErrInvalidRound.Withf("discipline %d must have at least one round", d.DisciplineID)
		}
		tournament.Disciplines = append(tournament.Disciplines, models.TournamentDiscipline{
			DisciplineID: d.DisciplineID,
			Rounds:       d.Rounds,
		})
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentInvalidDiscipline):
			return nil, ErrDisciplineNotFound.Wrap(err)
		case errors.Is(err, repositories.ErrTournamentDisciplineDuplicate):
			return nil, ErrValidationFailed.Withf("discipline listed twice")
		case errors.Is(err, repositories.ErrTournamentInvalidDates):
			return nil, ErrInvalidDateRange
		default:
			return nil, fmt.Errorf("failed to create tournament: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", tournament.ID), slog.String("name", tournament.Name))
	return s.GetTournamentByID(ctx, tournament.ID)
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupTournament(err, id)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, ErrInvalidStatus.Withf("%q", *filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if tournaments == nil {
		return []models.Tournament{}, nil
	}
	return tournaments, nil
}

// UpdateTournamentDates changes the date range. Once any squad exists the range is frozen, since
// time slots were validated against it.
func (s *tournamentService) UpdateTournamentDates(ctx context.Context, id int, input UpdateTournamentDatesInput) (*models.Tournament, error) {
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, id)
		if err != nil {
			return lookupTournament(err, id)
		}
		squads, err := s.squadRepo.CountByTournament(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count squads: %w", err)
		}
		if squads > 0 {
			return ErrDatesLocked.Withf("tournament %d has %d squads", id, squads)
		}
		slots, err := s.timeSlotRepo.ListByTournament(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list time slots: %w", err)
		}
		tournament.StartDate, tournament.EndDate = input.StartDate, input.EndDate
		for _, slot := range slots {
			if !tournament.Covers(slot.StartTime) {
				return ErrDatesExcludeSlots.Withf("time slot %d starts at %s", slot.ID, slot.StartTime.UTC().Format(time.RFC3339))
			}
		}
		if err := s.tournamentRepo.UpdateDates(ctx, id, input.StartDate, input.EndDate); err != nil {
			if errors.Is(err, repositories.ErrTournamentInvalidDates) {
				return ErrInvalidDateRange
			}
			return fmt.Errorf("failed to update tournament dates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return s.GetTournamentByID(ctx, id)
}

func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus.Withf("%q", status)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, id)
		if err != nil {
			return lookupTournament(err, id)
		}
		if !isValidStatusTransition(tournament.Status, status) {
			return ErrInvalidStatusTransition.Withf("%s -> %s", tournament.Status, status)
		}
		if tournament.Status == status {
			return nil
		}
		return s.tournamentRepo.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, txError(err)
	}
	return s.GetTournamentByID(ctx, id)
}

// AutoUpdateTournamentStatusesByDates starts tournaments whose start date has come and completes
// those whose last day has passed. Failures on one tournament do not stop the others.
func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	now := s.now()
	due, err := s.tournamentRepo.GetTournamentsForAutoStatusUpdate(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load tournaments for status update: %w", err)
	}

	var errs []error
	for _, t := range due {
		// An upcoming tournament whose dates already passed goes straight to completed.
		next := models.StatusActive
		if t.Status == models.StatusActive || (!t.Covers(now) && now.After(t.EndDate)) {
			next = models.StatusCompleted
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, next); err != nil {
			errs = append(errs, fmt.Errorf("tournament %d: %w", t.ID, err))
			continue
		}
		s.logger.InfoContext(ctx, "tournament status updated",
			slog.Int("tournament_id", t.ID),
			slog.String("from", string(t.Status)),
			slog.String("to", string(next)))
	}
	return errors.Join(errs...)
}
