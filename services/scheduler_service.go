package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SchedulerService interface {
	CreateTimeSlot(ctx context.Context, tournamentID int, input CreateTimeSlotInput) (*models.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, timeSlotID int) error
	ListTimeSlots(ctx context.Context, tournamentID int) ([]models.TimeSlot, error)

	CreateSquad(ctx context.Context, tournamentID int, input CreateSquadInput) (*models.Squad, error)
	GetSquad(ctx context.Context, squadID int) (*models.Squad, error)
	DissolveSquad(ctx context.Context, squadID int) error
	MoveSquad(ctx context.Context, squadID, targetTimeSlotID int) (*models.Squad, error)
	AssignAthleteToSquad(ctx context.Context, athleteID, squadID int) (*models.Squad, error)
	RemoveAthleteFromSquad(ctx context.Context, athleteID, squadID int) error
	SquadProgress(ctx context.Context, squadID int) (*models.SquadProgress, error)
}

type CreateTimeSlotInput struct {
	StartTime time.Time `json:"start_time"`
	Capacity  int       `json:"capacity"`
}

type CreateSquadInput struct {
	DisciplineID int    `json:"discipline_id"`
	Round        int    `json:"round"`
	Name         string `json:"name"`
	MaxSize      int    `json:"max_size"`
	TimeSlotID   *int   `json:"time_slot_id,omitempty"`
}

type schedulerService struct {
	tx               repositories.Transactor
	tournamentRepo   repositories.TournamentRepository
	timeSlotRepo     repositories.TimeSlotRepository
	squadRepo        repositories.SquadRepository
	registrationRepo repositories.RegistrationRepository
	athleteRepo      repositories.AthleteRepository
	scoreRepo        repositories.ScoreRepository
	logger           *slog.Logger
}

func NewSchedulerService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	timeSlotRepo repositories.TimeSlotRepository,
	squadRepo repositories.SquadRepository,
	registrationRepo repositories.RegistrationRepository,
	athleteRepo repositories.AthleteRepository,
	scoreRepo repositories.ScoreRepository,
	logger *slog.Logger,
) SchedulerService {
	return &schedulerService{
		tx:               tx,
		tournamentRepo:   tournamentRepo,
		timeSlotRepo:     timeSlotRepo,
		squadRepo:        squadRepo,
		registrationRepo: registrationRepo,
		athleteRepo:      athleteRepo,
		scoreRepo:        scoreRepo,
		logger:           logger,
	}
}

func (s *schedulerService) CreateTimeSlot(ctx context.Context, tournamentID int, input CreateTimeSlotInput) (*models.TimeSlot, error) {
	if input.Capacity <= 0 {
		return nil, ErrInvalidCapacity.Withf("got %d", input.Capacity)
	}
	if input.StartTime.IsZero() {
		return nil, ErrValidationFailed.Withf("start_time is required")
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, lookupTournament(err, tournamentID)
	}
	if !tournament.Covers(input.StartTime) {
		return nil, ErrSlotOutsideTournament.Withf("%s is outside %s..%s",
			input.StartTime.UTC().Format(time.RFC3339),
			tournament.StartDate.Format(time.DateOnly),
			tournament.EndDate.Format(time.DateOnly))
	}

	slot := &models.TimeSlot{
		TournamentID: tournamentID,
		StartTime:    input.StartTime.UTC(),
		Capacity:     input.Capacity,
	}
	if err := s.timeSlotRepo.Create(ctx, slot); err != nil {
		if errors.Is(err, repositories.ErrTimeSlotInvalidTournament) {
			return nil, ErrTournamentNotFound.Wrap(err)
		}
		return nil, fmt.Errorf("failed to create time slot: %w", err)
	}
	return slot, nil
}

func (s *schedulerService) DeleteTimeSlot(ctx context.Context, timeSlotID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.timeSlotRepo.GetByID(ctx, timeSlotID); err != nil {
			return lookupTimeSlot(err, timeSlotID)
		}
		squads, err := s.squadRepo.CountByTimeSlot(ctx, timeSlotID)
		if err != nil {
			return fmt.Errorf("failed to count squads: %w", err)
		}
		if squads > 0 {
			return ErrTimeSlotHasSquads.Withf("time slot %d has %d squads", timeSlotID, squads)
		}
		if err := s.timeSlotRepo.Delete(ctx, timeSlotID); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTimeSlotInUse):
				return ErrTimeSlotHasSquads.Wrap(err)
			case errors.Is(err, repositories.ErrTimeSlotNotFound):
				return ErrTimeSlotNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to delete time slot: %w", err)
			}
		}
		return nil
	})
	return txError(err)
}

func (s *schedulerService) ListTimeSlots(ctx context.Context, tournamentID int) ([]models.TimeSlot, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, lookupTournament(err, tournamentID)
	}
	slots, err := s.timeSlotRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	if slots == nil {
		return []models.TimeSlot{}, nil
	}
	return slots, nil
}

func (s *schedulerService) CreateSquad(ctx context.Context, tournamentID int, input CreateSquadInput) (*models.Squad, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, ErrValidationFailed.Withf("squad name is required")
	}
	if input.MaxSize < 0 {
		return nil, ErrValidationFailed.Withf("max_size must not be negative")
	}

	squad := &models.Squad{
		TournamentID: tournamentID,
		DisciplineID: input.DisciplineID,
		Round:        input.Round,
		Name:         name,
		MaxSize:      input.MaxSize,
		State:        models.SquadUnscheduled,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
		if err != nil {
			return lookupTournament(err, tournamentID)
		}
		if err := offeredRound(tournament, input.DisciplineID, input.Round); err != nil {
			return err
		}
		if input.TimeSlotID != nil {
			slot, err := s.timeSlotRepo.GetByID(ctx, *input.TimeSlotID)
			if err != nil {
				return lookupTimeSlot(err, *input.TimeSlotID)
			}
			if slot.TournamentID != tournamentID {
				return ErrCrossTournament.Withf("time slot %d belongs to tournament %d, squad to %d", slot.ID, slot.TournamentID, tournamentID)
			}
			squad.TimeSlotID = &slot.ID
			squad.State = models.SquadScheduled
		}
		if err := s.squadRepo.Create(ctx, squad); err != nil {
			switch {
			case errors.Is(err, repositories.ErrSquadInvalidSlot):
				return ErrTimeSlotNotFound.Wrap(err)
			case errors.Is(err, repositories.ErrSquadInvalidShoot):
				return ErrDisciplineNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to create squad: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return s.GetSquad(ctx, squad.ID)
}

func (s *schedulerService) GetSquad(ctx context.Context, squadID int) (*models.Squad, error) {
	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		return nil, lookupSquad(err, squadID)
	}
	if err := s.populateSquad(ctx, squad); err != nil {
		return nil, err
	}
	return squad, nil
}

func (s *schedulerService) populateSquad(ctx context.Context, squad *models.Squad) error {
	if squad.TimeSlotID != nil {
		slot, err := s.timeSlotRepo.GetByID(ctx, *squad.TimeSlotID)
		if err != nil {
			return lookupTimeSlot(err, *squad.TimeSlotID)
		}
		squad.TimeSlot = slot
	}
	members, err := s.squadRepo.ListMembers(ctx, squad.ID)
	if err != nil {
		return fmt.Errorf("failed to list squad members: %w", err)
	}
	if members == nil {
		members = []models.SquadMember{}
	}
	squad.Members = members
	return nil
}

// DissolveSquad deletes the squad and its memberships. Registrations and recorded scores stay.
func (s *schedulerService) DissolveSquad(ctx context.Context, squadID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.squadRepo.GetForUpdate(ctx, squadID); err != nil {
			return lookupSquad(err, squadID)
		}
		if err := s.squadRepo.DeleteMembers(ctx, squadID); err != nil {
			return fmt.Errorf("failed to delete squad members: %w", err)
		}
		if err := s.squadRepo.Delete(ctx, squadID); err != nil {
			return lookupSquad(err, squadID)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}
	s.logger.InfoContext(ctx, "squad dissolved", slog.Int("squad_id", squadID))
	return nil
}

// MoveSquad rebinds a squad and all of its members to targetTimeSlotID. The slot rows are locked
// and their occupancy re-read inside the same transaction that performs the write, so concurrent
// moves into one slot cannot together exceed its capacity.
func (s *schedulerService) MoveSquad(ctx context.Context, squadID, targetTimeSlotID int) (result *models.Squad, err error) {
	ctx, span := tracer.Start(ctx, "SchedulerService.MoveSquad", trace.WithAttributes(
		attribute.Int("squad.id", squadID),
		attribute.Int("time_slot.id", targetTimeSlotID),
	))
	defer func() { endSpan(span, err) }()

	var fromSlotID *int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		squad, err := s.squadRepo.GetForUpdate(ctx, squadID)
		if err != nil {
			return lookupSquad(err, squadID)
		}
		fromSlotID = squad.TimeSlotID

		lockIDs := []int{targetTimeSlotID}
		if squad.TimeSlotID != nil {
			lockIDs = append(lockIDs, *squad.TimeSlotID)
		}
		slots, err := s.timeSlotRepo.LockByIDs(ctx, lockIDs)
		if err != nil {
			return fmt.Errorf("failed to lock time slots: %w", err)
		}
		var target *models.TimeSlot
		for _, slot := range slots {
			if slot.ID == targetTimeSlotID {
				target = slot
			}
		}
		if target == nil {
			return ErrTimeSlotNotFound.Withf("id %d", targetTimeSlotID)
		}
		if target.TournamentID != squad.TournamentID {
			return ErrCrossTournament.Withf("squad %d belongs to tournament %d, time slot %d to %d",
				squad.ID, squad.TournamentID, target.ID, target.TournamentID)
		}
		if squad.TimeSlotID != nil && *squad.TimeSlotID == target.ID {
			return nil
		}

		members, err := s.squadRepo.ListMembers(ctx, squad.ID)
		if err != nil {
			return fmt.Errorf("failed to list squad members: %w", err)
		}
		if target.Occupancy+len(members) > target.Capacity {
			return ErrSlotCapacityExceeded.Withf("time slot %d holds %d of %d, squad %d brings %d",
				target.ID, target.Occupancy, target.Capacity, squad.ID, len(members))
		}

		athleteIDs := make([]int, len(members))
		for i, m := range members {
			athleteIDs[i] = m.AthleteID
		}
		booked, err := s.squadRepo.AthletesBookedInSlot(ctx, target.ID, squad.ID, athleteIDs)
		if err != nil {
			return fmt.Errorf("failed to check bookings: %w", err)
		}
		if len(booked) > 0 {
			return ErrDoubleBooked.Withf("athletes %v already shoot in time slot %d", booked, target.ID)
		}

		state := models.SquadScheduled
		if squad.TimeSlotID != nil {
			state = models.SquadMoved
		}
		if err := s.squadRepo.UpdateTimeSlot(ctx, squad.ID, target.ID, state); err != nil {
			switch {
			case errors.Is(err, repositories.ErrSquadNotFound):
				return ErrSquadNotFound.Wrap(err)
			case errors.Is(err, repositories.ErrSquadInvalidSlot):
				return ErrTimeSlotNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to move squad: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "squad move rejected",
			slog.Int("squad_id", squadID),
			slog.Int("time_slot_id", targetTimeSlotID),
			slog.Any("error", err))
		return nil, txError(err)
	}

	attrs := []any{slog.Int("squad_id", squadID), slog.Int("to_time_slot_id", targetTimeSlotID)}
	if fromSlotID != nil {
		attrs = append(attrs, slog.Int("from_time_slot_id", *fromSlotID))
	}
	s.logger.InfoContext(ctx, "squad moved", attrs...)
	return s.GetSquad(ctx, squadID)
}

// AssignAthleteToSquad appends the athlete to the squad. The athlete must be registered for the
// squad's discipline and may hold only one squad per shoot and one squad per time slot.
func (s *schedulerService) AssignAthleteToSquad(ctx context.Context, athleteID, squadID int) (result *models.Squad, err error) {
	ctx, span := tracer.Start(ctx, "SchedulerService.AssignAthleteToSquad", trace.WithAttributes(
		attribute.Int("squad.id", squadID),
		attribute.Int("athlete.id", athleteID),
	))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		squad, err := s.squadRepo.GetForUpdate(ctx, squadID)
		if err != nil {
			return lookupSquad(err, squadID)
		}
		if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
			return lookupAthlete(err, athleteID)
		}

		registration, err := s.registrationRepo.GetByAthleteAndTournament(ctx, athleteID, squad.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrNotRegistered.Withf("athlete %d is not registered for tournament %d", athleteID, squad.TournamentID)
			}
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if !registration.Covers(squad.DisciplineID) {
			return ErrNotRegistered.Withf("athlete %d is not registered for discipline %d", athleteID, squad.DisciplineID)
		}

		existing, err := s.squadRepo.FindMembership(ctx, athleteID, squad.Shoot())
		switch {
		case err == nil:
			return ErrDoubleBooked.Withf("athlete %d already shoots this round in squad %d", athleteID, existing.SquadID)
		case !errors.Is(err, repositories.ErrSquadMemberNotFound):
			return fmt.Errorf("failed to check squad membership: %w", err)
		}

		members, err := s.squadRepo.ListMembers(ctx, squad.ID)
		if err != nil {
			return fmt.Errorf("failed to list squad members: %w", err)
		}
		if squad.MaxSize > 0 && len(members) >= squad.MaxSize {
			return ErrSquadFull.Withf("squad %d has %d of %d", squad.ID, len(members), squad.MaxSize)
		}

		if squad.TimeSlotID != nil {
			slots, err := s.timeSlotRepo.LockByIDs(ctx, []int{*squad.TimeSlotID})
			if err != nil {
				return fmt.Errorf("failed to lock time slot: %w", err)
			}
			if len(slots) == 0 {
				return ErrTimeSlotNotFound.Withf("id %d", *squad.TimeSlotID)
			}
			slot := slots[0]
			if slot.Occupancy >= slot.Capacity {
				return ErrSlotCapacityExceeded.Withf("time slot %d is full (%d)", slot.ID, slot.Capacity)
			}
			booked, err := s.squadRepo.AthletesBookedInSlot(ctx, slot.ID, squad.ID, []int{athleteID})
			if err != nil {
				return fmt.Errorf("failed to check bookings: %w", err)
			}
			if len(booked) > 0 {
				return ErrDoubleBooked.Withf("athlete %d already shoots in time slot %d", athleteID, slot.ID)
			}
		}

		position := 1
		for _, m := range members {
			if m.Position >= position {
				position = m.Position + 1
			}
		}
		member := &models.SquadMember{
			SquadID:      squad.ID,
			AthleteID:    athleteID,
			TournamentID: squad.TournamentID,
			DisciplineID: squad.DisciplineID,
			Round:        squad.Round,
			Position:     position,
		}
		if err := s.squadRepo.AddMember(ctx, member); err != nil {
			switch {
			case errors.Is(err, repositories.ErrSquadMemberConflict):
				return ErrDoubleBooked.Wrap(err)
			case errors.Is(err, repositories.ErrSquadInvalidAthlete):
				return ErrAthleteNotFound.Wrap(err)
			case errors.Is(err, repositories.ErrSquadNotFound):
				return ErrSquadNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to add squad member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "athlete assigned to squad", slog.Int("athlete_id", athleteID), slog.Int("squad_id", squadID))
	return s.GetSquad(ctx, squadID)
}

func (s *schedulerService) RemoveAthleteFromSquad(ctx context.Context, athleteID, squadID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.squadRepo.GetForUpdate(ctx, squadID); err != nil {
			return lookupSquad(err, squadID)
		}
		if err := s.squadRepo.RemoveMember(ctx, squadID, athleteID); err != nil {
			if errors.Is(err, repositories.ErrSquadMemberNotFound) {
				return ErrSquadMemberNotFound.Withf("athlete %d, squad %d", athleteID, squadID)
			}
			return fmt.Errorf("failed to remove squad member: %w", err)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}
	s.logger.InfoContext(ctx, "athlete removed from squad", slog.Int("athlete_id", athleteID), slog.Int("squad_id", squadID))
	return nil
}

// SquadProgress infers completion of the squad's round from ledger coverage: a member counts as
// scored once any score row exists for the shoot.
func (s *schedulerService) SquadProgress(ctx context.Context, squadID int) (*models.SquadProgress, error) {
	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		return nil, lookupSquad(err, squadID)
	}
	members, err := s.squadRepo.ListMembers(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad members: %w", err)
	}
	scored, err := s.scoreRepo.ScoredAthletes(ctx, squad.Shoot())
	if err != nil {
		return nil, fmt.Errorf("failed to list scored athletes: %w", err)
	}
	done := make(map[int]bool, len(scored))
	for _, id := range scored {
		done[id] = true
	}

	progress := &models.SquadProgress{
		SquadID:        squadID,
		Members:        len(members),
		MembersPending: []int{},
	}
	for _, m := range members {
		if done[m.AthleteID] {
			progress.MembersScored++
		} else {
			progress.MembersPending = append(progress.MembersPending, m.AthleteID)
		}
	}
	progress.Completed = progress.Members > 0 && len(progress.MembersPending) == 0
	return progress, nil
}
