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
	ErrAthleteNotFound      = errors.New("athlete not found")
	ErrAthleteUserConflict  = errors.New("user already linked to an athlete")
	ErrAthleteInvalidTeam   = errors.New("invalid team reference")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamNameConflict     = errors.New("team name conflict")
	ErrCoachConflict        = errors.New("user already coaches this team")
	ErrJoinRequestConflict  = errors.New("pending join request already exists")
	ErrJoinRequestInvalidFK = errors.New("invalid team or athlete reference")
)

type AthleteRepository interface {
	Create(ctx context.Context, athlete *models.Athlete) error
	GetByID(ctx context.Context, id int) (*models.Athlete, error)
	UpdateTeam(ctx context.Context, athleteID int, teamID *int) error
	UpsertClassification(ctx context.Context, c *models.AthleteClassification) error
	ListClassifications(ctx context.Context, athleteID int) ([]models.AthleteClassification, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetOrCreateIndividual returns the tournament's Individual pseudo-team, creating it on first use.
	GetOrCreateIndividual(ctx context.Context, tournamentID int) (*models.Team, error)
	AddCoach(ctx context.Context, coach models.Coach) error
	IsCoach(ctx context.Context, teamID, userID int) (bool, error)
	ListCoaches(ctx context.Context, teamID int) ([]models.Coach, error)
	ListAthletes(ctx context.Context, teamID int) ([]models.Athlete, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
}

type postgresAthleteRepository struct {
	db *sql.DB
}

func NewPostgresAthleteRepository(db *sql.DB) AthleteRepository {
	return &postgresAthleteRepository{db: db}
}

func (r *postgresAthleteRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

func (r *postgresAthleteRepository) Create(ctx context.Context, a *models.Athlete) error {
	query := `
		INSERT INTO athletes (user_id, first_name, last_name, gender, division, team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		a.UserID, a.FirstName, a.LastName, a.Gender, a.Division, a.TeamID,
	).Scan(&a.ID, &a.CreatedAt)
	return handleRosterError(err)
}

func (r *postgresAthleteRepository) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	query := `
		SELECT a.id, a.user_id, a.first_name, a.last_name, a.gender, a.division, a.team_id, a.created_at,
			t.name, t.is_individual
		FROM athletes a
		LEFT JOIN teams t ON t.id = a.team_id
		WHERE a.id = $1`

	var (
		a          models.Athlete
		userID     sql.NullInt64
		teamID     sql.NullInt64
		teamName   sql.NullString
		individual sql.NullBool
	)
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&a.ID, &userID, &a.FirstName, &a.LastName, &a.Gender, &a.Division, &teamID, &a.CreatedAt,
		&teamName, &individual,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if userID.Valid {
		uid := int(userID.Int64)
		a.UserID = &uid
	}
	if teamID.Valid {
		tid := int(teamID.Int64)
		a.TeamID = &tid
		a.Team = &models.Team{ID: tid, Name: teamName.String, IsIndividual: individual.Bool}
	}

	classes, err := r.ListClassifications(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if len(classes) > 0 {
		a.Classes = make(map[string]string, len(classes))
		for _, c := range classes {
			a.Classes[c.GoverningBody] = c.Class
		}
	}
	return &a, nil
}

func (r *postgresAthleteRepository) UpdateTeam(ctx context.Context, athleteID int, teamID *int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `UPDATE athletes SET team_id = $1 WHERE id = $2`, teamID, athleteID)
	if err != nil {
		return handleRosterError(err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) UpsertClassification(ctx context.Context, c *models.AthleteClassification) error {
	query := `
		INSERT INTO athlete_classifications (athlete_id, governing_body, class, policy, targets_thrown, targets_hit, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (athlete_id, governing_body) DO UPDATE SET
			class = EXCLUDED.class,
			policy = EXCLUDED.policy,
			targets_thrown = EXCLUDED.targets_thrown,
			targets_hit = EXCLUDED.targets_hit,
			computed_at = EXCLUDED.computed_at`
	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		c.AthleteID, c.GoverningBody, c.Class, c.Policy, c.TargetsThrown, c.TargetsHit, c.ComputedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrAthleteNotFound
		}
		return fmt.Errorf("failed to upsert classification: %w", err)
	}
	return nil
}

func (r *postgresAthleteRepository) ListClassifications(ctx context.Context, athleteID int) ([]models.AthleteClassification, error) {
	query := `
		SELECT athlete_id, governing_body, class, policy, targets_thrown, targets_hit, computed_at
		FROM athlete_classifications
		WHERE athlete_id = $1
		ORDER BY governing_body`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	result := make([]models.AthleteClassification, 0)
	for rows.Next() {
		var c models.AthleteClassification
		if err := rows.Scan(&c.AthleteID, &c.GoverningBody, &c.Class, &c.Policy, &c.TargetsThrown, &c.TargetsHit, &c.ComputedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (name, tournament_id, is_individual)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, t.Name, t.TournamentID, t.IsIndividual).Scan(&t.ID, &t.CreatedAt)
	return handleRosterError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, tournament_id, is_individual, created_at FROM teams WHERE id = $1`
	t := &models.Team{}
	var tournamentID sql.NullInt64
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &tournamentID, &t.IsIndividual, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if tournamentID.Valid {
		tid := int(tournamentID.Int64)
		t.TournamentID = &tid
	}
	return t, nil
}

// GetOrCreateIndividual relies on the partial unique index teams_individual_tournament_key so
// that concurrent registrations converge on one row.
func (r *postgresTeamRepository) GetOrCreateIndividual(ctx context.Context, tournamentID int) (*models.Team, error) {
	executor := r.getExecutor(ctx)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO teams (name, tournament_id, is_individual)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (tournament_id) WHERE is_individual DO NOTHING`,
		models.IndividualTeamName, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to create individual team: %w", err)
	}

	t := &models.Team{IsIndividual: true}
	err = executor.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM teams WHERE tournament_id = $1 AND is_individual`, tournamentID,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read individual team: %w", err)
	}
	t.TournamentID = &tournamentID
	return t, nil
}

func (r *postgresTeamRepository) AddCoach(ctx context.Context, c models.Coach) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO team_coaches (team_id, user_id, name) VALUES ($1, $2, $3)`, c.TeamID, c.UserID, c.Name)
	return handleRosterError(err)
}

func (r *postgresTeamRepository) IsCoach(ctx context.Context, teamID, userID int) (bool, error) {
	var exists bool
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_coaches WHERE team_id = $1 AND user_id = $2)`, teamID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresTeamRepository) ListCoaches(ctx context.Context, teamID int) ([]models.Coach, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT team_id, user_id, name FROM team_coaches WHERE team_id = $1 ORDER BY user_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaches: %w", err)
	}
	defer rows.Close()

	coaches := make([]models.Coach, 0)
	for rows.Next() {
		var c models.Coach
		if err := rows.Scan(&c.TeamID, &c.UserID, &c.Name); err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}

func (r *postgresTeamRepository) ListAthletes(ctx context.Context, teamID int) ([]models.Athlete, error) {
	query := `
		SELECT id, user_id, first_name, last_name, gender, division, created_at
		FROM athletes
		WHERE team_id = $1
		ORDER BY last_name, first_name, id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team athletes: %w", err)
	}
	defer rows.Close()

	athletes := make([]models.Athlete, 0)
	for rows.Next() {
		var (
			a      models.Athlete
			userID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &userID, &a.FirstName, &a.LastName, &a.Gender, &a.Division, &a.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := int(userID.Int64)
			a.UserID = &uid
		}
		tid := teamID
		a.TeamID = &tid
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

func (r *postgresTeamRepository) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (team_id, athlete_id, message, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, req.TeamID, req.AthleteID, req.Message, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	return handleRosterError(err)
}

func handleRosterError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			switch pqErr.Constraint {
			case "athletes_user_id_key":
				return ErrAthleteUserConflict
			case "teams_name_key":
				return ErrTeamNameConflict
			case "team_coaches_pkey":
				return ErrCoachConflict
			case "join_requests_pending_key":
				return ErrJoinRequestConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "athletes_team_id_fkey":
				return ErrAthleteInvalidTeam
			case "join_requests_team_id_fkey", "join_requests_athlete_id_fkey":
				return ErrJoinRequestInvalidFK
			case "team_coaches_team_id_fkey":
				return ErrTeamNotFound
			}
		}
	}
	return err
}
