package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

// Actor is the authenticated caller as reported by the identity provider.
type Actor struct {
	UserID int
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type RosterService interface {
	CreateAthlete(ctx context.Context, input CreateAthleteInput) (*models.Athlete, error)
	GetAthlete(ctx context.Context, id int) (*models.Athlete, error)

	CreateTeam(ctx context.Context, actor Actor, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	JoinTeam(ctx context.Context, actor Actor, teamID, athleteID int) (*models.Athlete, error)
	LeaveTeam(ctx context.Context, actor Actor, teamID, athleteID int) error
	CreateJoinRequest(ctx context.Context, actor Actor, teamID int, input CreateJoinRequestInput) (*models.JoinRequest, error)
}

type CreateAthleteInput struct {
	UserID    *int          `json:"user_id,omitempty"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Gender    models.Gender `json:"gender"`
	Division  string        `json:"division"`
	TeamID    *int          `json:"team_id,omitempty"`
}

type CreateTeamInput struct {
	Name      string `json:"name"`
	CoachName string `json:"coach_name"`
}

type CreateJoinRequestInput struct {
	AthleteID int    `json:"athlete_id"`
	Message   string `json:"message"`
}

type rosterService struct {
	tx          repositories.Transactor
	athleteRepo repositories.AthleteRepository
	teamRepo    repositories.TeamRepository
	logger      *slog.Logger
}

func NewRosterService(
	tx repositories.Transactor,
	athleteRepo repositories.AthleteRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		tx:          tx,
		athleteRepo: athleteRepo,
		teamRepo:    teamRepo,
		logger:      logger,
	}
}

func (s *rosterService) CreateAthlete(ctx context.Context, input CreateAthleteInput) (*models.Athlete, error) {
	first, last := normalizeName(input.FirstName), normalizeName(input.LastName)
	if first == "" || last == "" {
		return nil, ErrValidationFailed.Withf("first_name and last_name are required")
	}
	gender := models.Gender(strings.ToLower(strings.TrimSpace(string(input.Gender))))
	if gender != models.GenderMale && gender != models.GenderFemale {
		return nil, ErrValidationFailed.Withf("gender must be %q or %q", models.GenderMale, models.GenderFemale)
	}
	division := strings.TrimSpace(input.Division)
	if division == "" {
		return nil, ErrValidationFailed.Withf("division is required")
	}

	athlete := &models.Athlete{
		UserID:    input.UserID,
		FirstName: first,
		LastName:  last,
		Gender:    gender,
		Division:  division,
		TeamID:    input.TeamID,
	}
	if err := s.athleteRepo.Create(ctx, athlete); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAthleteUserConflict):
			return nil, ErrAthleteUserTaken.Wrap(err)
		case errors.Is(err, repositories.ErrAthleteInvalidTeam):
			return nil, ErrTeamNotFound.Wrap(err)
		default:
			return nil, fmt.Errorf("failed to create athlete: %w", err)
		}
	}
	return s.GetAthlete(ctx, athlete.ID)
}

func (s *rosterService) GetAthlete(ctx context.Context, id int) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupAthlete(err, id)
	}
	return athlete, nil
}

// CreateTeam creates a real team and puts its creator on the coaching staff.
func (s *rosterService) CreateTeam(ctx context.Context, actor Actor, input CreateTeamInput) (*models.Team, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if strings.EqualFold(name, models.IndividualTeamName) {
		return nil, ErrTeamNameTaken.Withf("%q is reserved", name)
	}

	team := &models.Team{Name: name}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.teamRepo.Create(ctx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameTaken.Withf("%q", name)
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		coach := models.Coach{TeamID: team.ID, UserID: actor.UserID, Name: normalizeName(input.CoachName)}
		if err := s.teamRepo.AddCoach(ctx, coach); err != nil {
			return fmt.Errorf("failed to add coach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "team created", slog.Int("team_id", team.ID), slog.Int("coach_user_id", actor.UserID))
	return s.GetTeam(ctx, team.ID)
}

func (s *rosterService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupTeam(err, id)
	}
	if team.Coaches, err = s.teamRepo.ListCoaches(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list coaches: %w", err)
	}
	if team.Athletes, err = s.teamRepo.ListAthletes(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list team athletes: %w", err)
	}
	return team, nil
}

// canManage reports whether actor may change the membership of team.
func (s *rosterService) canManage(ctx context.Context, actor Actor, team *models.Team) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	ok, err := s.teamRepo.IsCoach(ctx, team.ID, actor.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to check coaching staff: %w", err)
	}
	return ok, nil
}

func (s *rosterService) realTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, lookupTeam(err, teamID)
	}
	if team.IsIndividual {
		return nil, ErrValidationFailed.Withf("team %d is an individual pseudo-team", teamID)
	}
	return team, nil
}

func (s *rosterService) JoinTeam(ctx context.Context, actor Actor, teamID, athleteID int) (*models.Athlete, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		team, err := s.realTeam(ctx, teamID)
		if err != nil {
			return err
		}
		allowed, err := s.canManage(ctx, actor, team)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbiddenOperation.Withf("user %d does not coach team %d", actor.UserID, teamID)
		}
		athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
		if err != nil {
			return lookupAthlete(err, athleteID)
		}
		if athlete.TeamID != nil {
			return ErrAthleteAlreadyInTeam.Withf("athlete %d is in team %d", athleteID, *athlete.TeamID)
		}
		if err := s.athleteRepo.UpdateTeam(ctx, athleteID, &team.ID); err != nil {
			return fmt.Errorf("failed to update athlete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "athlete joined team", slog.Int("athlete_id", athleteID), slog.Int("team_id", teamID))
	return s.GetAthlete(ctx, athleteID)
}

// LeaveTeam removes the athlete from the team. Coaches and admins may remove anyone; an athlete
// may remove themselves. Existing registrations keep the team they were made with.
func (s *rosterService) LeaveTeam(ctx context.Context, actor Actor, teamID, athleteID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		team, err := s.realTeam(ctx, teamID)
		if err != nil {
			return err
		}
		athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
		if err != nil {
			return lookupAthlete(err, athleteID)
		}
		self := athlete.UserID != nil && *athlete.UserID == actor.UserID
		if !self {
			allowed, err := s.canManage(ctx, actor, team)
			if err != nil {
				return err
			}
			if !allowed {
				return ErrForbiddenOperation.Withf("user %d does not coach team %d", actor.UserID, teamID)
			}
		}
		if athlete.TeamID == nil || *athlete.TeamID != teamID {
			return ErrAthleteNotInTeam.Withf("athlete %d, team %d", athleteID, teamID)
		}
		if err := s.athleteRepo.UpdateTeam(ctx, athleteID, nil); err != nil {
			return fmt.Errorf("failed to update athlete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}

	s.logger.InfoContext(ctx, "athlete left team", slog.Int("athlete_id", athleteID), slog.Int("team_id", teamID))
	return nil
}

func (s *rosterService) CreateJoinRequest(ctx context.Context, actor Actor, teamID int, input CreateJoinRequestInput) (*models.JoinRequest, error) {
	req := &models.JoinRequest{
		TeamID:    teamID,
		AthleteID: input.AthleteID,
		Message:   strings.TrimSpace(input.Message),
		Status:    models.JoinRequestPending,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.realTeam(ctx, teamID); err != nil {
			return err
		}
		athlete, err := s.athleteRepo.GetByID(ctx, input.AthleteID)
		if err != nil {
			return lookupAthlete(err, input.AthleteID)
		}
		if !actor.IsAdmin() && (athlete.UserID == nil || *athlete.UserID != actor.UserID) {
			return ErrForbiddenOperation.Withf("user %d cannot request on behalf of athlete %d", actor.UserID, athlete.ID)
		}
		if athlete.TeamID != nil {
			return ErrAthleteAlreadyInTeam.Withf("athlete %d is in team %d", athlete.ID, *athlete.TeamID)
		}
		if err := s.teamRepo.CreateJoinRequest(ctx, req); err != nil {
			switch {
			case errors.Is(err, repositories.ErrJoinRequestConflict):
				return ErrJoinRequestPending.Withf("athlete %d, team %d", athlete.ID, teamID)
			case errors.Is(err, repositories.ErrJoinRequestInvalidFK):
				return ErrTeamNotFound.Wrap(err)
			default:
				return fmt.Errorf("failed to create join request: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return req, nil
}
