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
	ErrSquadNotFound       = errors.New("squad not found")
	ErrSquadMemberNotFound = errors.New("squad member not found")
	ErrSquadMemberConflict = errors.New("athlete already has a squad for this shoot")
	ErrSquadInvalidSlot    = errors.New("invalid time slot reference")
	ErrSquadInvalidAthlete = errors.New("invalid athlete reference")
	ErrSquadInvalidShoot   = errors.New("invalid discipline reference")
)

type SquadRepository interface {
	Create(ctx context.Context, squad *models.Squad) error
	GetByID(ctx context.Context, id int) (*models.Squad, error)
	// GetForUpdate reads the squad and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int) (*models.Squad, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Squad, error)
	UpdateTimeSlot(ctx context.Context, id, timeSlotID int, state models.SquadState) error
	Delete(ctx context.Context, id int) error
	CountByTimeSlot(ctx context.Context, timeSlotID int) (int, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)

	// ListMembers returns members ordered by position with athlete and team populated.
	ListMembers(ctx context.Context, squadID int) ([]models.SquadMember, error)
	AddMember(ctx context.Context, member *models.SquadMember) error
	RemoveMember(ctx context.Context, squadID, athleteID int) error
	DeleteMembers(ctx context.Context, squadID int) error
	FindMembership(ctx context.Context, athleteID int, shoot models.ShootRef) (*models.SquadMember, error)
	CountAthleteMemberships(ctx context.Context, athleteID, tournamentID int) (int, error)
	// AthletesBookedInSlot returns which of athleteIDs are members of a squad in the slot other than excludeSquadID.
	AthletesBookedInSlot(ctx context.Context, timeSlotID, excludeSquadID int, athleteIDs []int) ([]int, error)
}

type postgresSquadRepository struct {
	db *sql.DB
}

func NewPostgresSquadRepository(db *sql.DB) SquadRepository {
	return &postgresSquadRepository{db: db}
}

func (r *postgresSquadRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

const squadColumns = `id, tournament_id, time_slot_id, discipline_id, round, name, max_size, state, created_at, updated_at`

func scanSquad(row interface{ Scan(...any) error }, s *models.Squad) error {
	var slotID sql.NullInt64
	err := row.Scan(&s.ID, &s.TournamentID, &slotID, &s.DisciplineID, &s.Round, &s.Name,
		&s.MaxSize, &s.State, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	if slotID.Valid {
		id := int(slotID.Int64)
		s.TimeSlotID = &id
	}
	return nil
}

func (r *postgresSquadRepository) Create(ctx context.Context, s *models.Squad) error {
	query := `
		INSERT INTO squads (tournament_id, time_slot_id, discipline_id, round, name, max_size, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		s.TournamentID, s.TimeSlotID, s.DisciplineID, s.Round, s.Name, s.MaxSize, s.State,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return r.handleSquadError(err)
}

func (r *postgresSquadRepository) GetByID(ctx context.Context, id int) (*models.Squad, error) {
	return r.getOne(ctx, `SELECT `+squadColumns+` FROM squads WHERE id = $1`, id)
}

func (r *postgresSquadRepository) GetForUpdate(ctx context.Context, id int) (*models.Squad, error) {
	return r.getOne(ctx, `SELECT `+squadColumns+` FROM squads WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresSquadRepository) getOne(ctx context.Context, query string, id int) (*models.Squad, error) {
	s := &models.Squad{}
	if err := scanSquad(r.getExecutor(ctx).QueryRowContext(ctx, query, id), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquadNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSquadRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Squad, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT `+squadColumns+` FROM squads WHERE tournament_id = $1 ORDER BY discipline_id, round, id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	defer rows.Close()

	squads := make([]models.Squad, 0)
	for rows.Next() {
		var s models.Squad
		if err := scanSquad(rows, &s); err != nil {
			return nil, err
		}
		squads = append(squads, s)
	}
	return squads, rows.Err()
}

func (r *postgresSquadRepository) UpdateTimeSlot(ctx context.Context, id, timeSlotID int, state models.SquadState) error {
	query := `UPDATE squads SET time_slot_id = $1, state = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, timeSlotID, state, id)
	if err != nil {
		return r.handleSquadError(err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresSquadRepository) Delete(ctx context.Context, id int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM squads WHERE id = $1`, id)
	if err != nil {
		return r.handleSquadError(err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresSquadRepository) CountByTimeSlot(ctx context.Context, timeSlotID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM squads WHERE time_slot_id = $1`, timeSlotID)
}

func (r *postgresSquadRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM squads WHERE tournament_id = $1`, tournamentID)
}

func (r *postgresSquadRepository) CountAthleteMemberships(ctx context.Context, athleteID, tournamentID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM squad_members WHERE athlete_id = $1 AND tournament_id = $2`, athleteID, tournamentID)
}

func (r *postgresSquadRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.getExecutor(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresSquadRepository) ListMembers(ctx context.Context, squadID int) ([]models.SquadMember, error) {
	query := `
		SELECT m.id, m.squad_id, m.athlete_id, m.tournament_id, m.discipline_id, m.round, m.position, m.created_at,
			a.first_name, a.last_name, a.gender, a.division, a.team_id,
			t.id, t.name, t.is_individual
		FROM squad_members m
		JOIN athletes a ON a.id = m.athlete_id
		LEFT JOIN registrations reg ON reg.athlete_id = m.athlete_id AND reg.tournament_id = m.tournament_id
		LEFT JOIN teams t ON t.id = reg.team_id
		WHERE m.squad_id = $1
		ORDER BY m.position, m.id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad members: %w", err)
	}
	defer rows.Close()

	members := make([]models.SquadMember, 0)
	for rows.Next() {
		var (
			m           models.SquadMember
			a           models.Athlete
			athleteTeam sql.NullInt64
			teamID      sql.NullInt64
			teamName    sql.NullString
			individual  sql.NullBool
		)
		if err := rows.Scan(
			&m.ID, &m.SquadID, &m.AthleteID, &m.TournamentID, &m.DisciplineID, &m.Round, &m.Position, &m.CreatedAt,
			&a.FirstName, &a.LastName, &a.Gender, &a.Division, &athleteTeam,
			&teamID, &teamName, &individual,
		); err != nil {
			return nil, err
		}
		a.ID = m.AthleteID
		if athleteTeam.Valid {
			id := int(athleteTeam.Int64)
			a.TeamID = &id
		}
		if teamID.Valid {
			a.Team = &models.Team{ID: int(teamID.Int64), Name: teamName.String, IsIndividual: individual.Bool}
		}
		m.Athlete = &a
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresSquadRepository) AddMember(ctx context.Context, m *models.SquadMember) error {
	query := `
		INSERT INTO squad_members (squad_id, athlete_id, tournament_id, discipline_id, round, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		m.SquadID, m.AthleteID, m.TournamentID, m.DisciplineID, m.Round, m.Position,
	).Scan(&m.ID, &m.CreatedAt)
	return r.handleSquadError(err)
}

func (r *postgresSquadRepository) RemoveMember(ctx context.Context, squadID, athleteID int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`DELETE FROM squad_members WHERE squad_id = $1 AND athlete_id = $2`, squadID, athleteID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSquadMemberNotFound)
}

func (r *postgresSquadRepository) DeleteMembers(ctx context.Context, squadID int) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM squad_members WHERE squad_id = $1`, squadID)
	return err
}

func (r *postgresSquadRepository) FindMembership(ctx context.Context, athleteID int, shoot models.ShootRef) (*models.SquadMember, error) {
	query := `
		SELECT id, squad_id, athlete_id, tournament_id, discipline_id, round, position, created_at
		FROM squad_members
		WHERE athlete_id = $1 AND tournament_id = $2 AND discipline_id = $3 AND round = $4`
	m := &models.SquadMember{}
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, athleteID, shoot.TournamentID, shoot.DisciplineID, shoot.Round).
		Scan(&m.ID, &m.SquadID, &m.AthleteID, &m.TournamentID, &m.DisciplineID, &m.Round, &m.Position, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquadMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresSquadRepository) AthletesBookedInSlot(ctx context.Context, timeSlotID, excludeSquadID int, athleteIDs []int) ([]int, error) {
	if len(athleteIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT m.athlete_id
		FROM squad_members m
		JOIN squads s ON s.id = m.squad_id
		WHERE s.time_slot_id = $1 AND s.id <> $2 AND m.athlete_id = ANY($3)
		ORDER BY m.athlete_id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, timeSlotID, excludeSquadID, toInt64s(athleteIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check slot bookings: %w", err)
	}
	defer rows.Close()

	var booked []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked = append(booked, id)
	}
	return booked, rows.Err()
}

func (r *postgresSquadRepository) handleSquadError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "squad_members_athlete_shoot_key" {
				return ErrSquadMemberConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "squads_time_slot_id_fkey":
				return ErrSquadInvalidSlot
			case "squad_members_athlete_id_fkey":
				return ErrSquadInvalidAthlete
			case "squads_discipline_id_fkey":
				return ErrSquadInvalidShoot
			}
		}
	}
	return err
}
