package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("athlete already registered for tournament")
	ErrRegistrationInvalidAthlete    = errors.New("invalid athlete reference")
	ErrRegistrationInvalidTournament = errors.New("invalid tournament reference")
)

type RegistrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	GetByAthleteAndTournament(ctx context.Context, athleteID, tournamentID int) (*models.Registration, error)
	Delete(ctx context.Context, athleteID, tournamentID int) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (athlete_id, tournament_id, team_id, discipline_ids)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		reg.AthleteID, reg.TournamentID, reg.TeamID, toInt64s(reg.DisciplineIDs),
	).Scan(&reg.ID, &reg.CreatedAt)
	return r.handleRegistrationError(err)
}

func (r *postgresRegistrationRepository) GetByAthleteAndTournament(ctx context.Context, athleteID, tournamentID int) (*models.Registration, error) {
	query := `
		SELECT id, athlete_id, tournament_id, team_id, discipline_ids, created_at
		FROM registrations
		WHERE athlete_id = $1 AND tournament_id = $2`

	reg := &models.Registration{}
	if err := scanRegistration(r.getExecutor(ctx).QueryRowContext(ctx, query, athleteID, tournamentID), reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func scanRegistration(row interface{ Scan(...any) error }, reg *models.Registration) error {
	var (
		teamID sql.NullInt64
		ids    pq.Int64Array
	)
	if err := row.Scan(&reg.ID, &reg.AthleteID, &reg.TournamentID, &teamID, &ids, &reg.CreatedAt); err != nil {
		return err
	}
	if teamID.Valid {
		id := int(teamID.Int64)
		reg.TeamID = &id
	}
	reg.DisciplineIDs = fromInt64s(ids)
	return nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, athleteID, tournamentID int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`DELETE FROM registrations WHERE athlete_id = $1 AND tournament_id = $2`, athleteID, tournamentID)
	if err != nil {
		return r.handleRegistrationError(err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `
		SELECT r.id, r.athlete_id, r.tournament_id, r.team_id, r.discipline_ids, r.created_at,
			a.first_name, a.last_name, a.gender, a.division,
			t.name, t.is_individual
		FROM registrations r
		JOIN athletes a ON a.id = r.athlete_id
		LEFT JOIN teams t ON t.id = r.team_id
		WHERE r.tournament_id = $1
		ORDER BY a.last_name, a.first_name, r.athlete_id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var (
			reg        models.Registration
			a          models.Athlete
			teamID     sql.NullInt64
			ids        pq.Int64Array
			teamName   sql.NullString
			individual sql.NullBool
		)
		if err := rows.Scan(
			&reg.ID, &reg.AthleteID, &reg.TournamentID, &teamID, &ids, &reg.CreatedAt,
			&a.FirstName, &a.LastName, &a.Gender, &a.Division,
			&teamName, &individual,
		); err != nil {
			return nil, err
		}
		reg.DisciplineIDs = fromInt64s(ids)
		a.ID = reg.AthleteID
		reg.Athlete = &a
		if teamID.Valid {
			id := int(teamID.Int64)
			reg.TeamID = &id
			reg.Team = &models.Team{ID: id, Name: teamName.String, IsIndividual: individual.Bool}
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "registrations_athlete_id_tournament_id_key" {
				return ErrRegistrationConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "registrations_athlete_id_fkey":
				return ErrRegistrationInvalidAthlete
			case "registrations_tournament_id_fkey":
				return ErrRegistrationInvalidTournament
			}
		}
	}
	return err
}
