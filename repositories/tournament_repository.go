package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound            = errors.New("tournament not found")
	ErrTournamentInvalidDiscipline   = errors.New("invalid discipline reference")
	ErrTournamentDisciplineDuplicate = errors.New("discipline listed twice for tournament")
	ErrTournamentInvalidDates        = errors.New("tournament end date before start date")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// ListOffers returns every tournament offer of the given disciplines.
	ListOffers(ctx context.Context, disciplineIDs []int) ([]models.TournamentDiscipline, error)
	UpdateDates(ctx context.Context, id int, start, end time.Time) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	GetTournamentsForAutoStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

const tournamentColumns = `id, name, location, start_date, end_date, status, created_at`

func scanTournament(row interface{ Scan(...any) error }, t *models.Tournament) error {
	return row.Scan(&t.ID, &t.Name, &t.Location, &t.StartDate, &t.EndDate, &t.Status, &t.CreatedAt)
}

// Create inserts the tournament and its discipline offers. Callers wanting atomicity run it inside WithinTx.
func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	executor := r.getExecutor(ctx)
	query := `
		INSERT INTO tournaments (name, location, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.Location, t.StartDate, t.EndDate, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return r.handleTournamentError(err)
	}

	for i := range t.Disciplines {
		td := &t.Disciplines[i]
		td.TournamentID = t.ID
		_, err = executor.ExecContext(ctx,
			`INSERT INTO tournament_disciplines (tournament_id, discipline_id, rounds) VALUES ($1, $2, $3)`,
			td.TournamentID, td.DisciplineID, td.Rounds,
		)
		if err != nil {
			return r.handleTournamentError(err)
		}
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	executor := r.getExecutor(ctx)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(executor.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	byTournament, err := r.loadDisciplines(ctx, []int{t.ID})
	if err != nil {
		return nil, err
	}
	t.Disciplines = byTournament[t.ID]
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	executor := r.getExecutor(ctx)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY start_date DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
		ids = append(ids, t.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	byTournament, err := r.loadDisciplines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		tournaments[i].Disciplines = byTournament[tournaments[i].ID]
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) loadDisciplines(ctx context.Context, tournamentIDs []int) (map[int][]models.TournamentDiscipline, error) {
	result := make(map[int][]models.TournamentDiscipline, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT td.tournament_id, td.discipline_id, td.rounds, d.code, d.name, d.governing_body
		FROM tournament_disciplines td
		JOIN disciplines d ON d.id = td.discipline_id
		WHERE td.tournament_id = ANY($1)
		ORDER BY td.tournament_id, td.discipline_id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, toInt64s(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament disciplines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var td models.TournamentDiscipline
		d := &models.Discipline{}
		if err := rows.Scan(&td.TournamentID, &td.DisciplineID, &td.Rounds, &d.Code, &d.Name, &d.GoverningBody); err != nil {
			return nil, fmt.Errorf("failed to scan tournament discipline: %w", err)
		}
		d.ID = td.DisciplineID
		td.Discipline = d
		result[td.TournamentID] = append(result[td.TournamentID], td)
	}
	return result, rows.Err()
}

func (r *postgresTournamentRepository) ListOffers(ctx context.Context, disciplineIDs []int) ([]models.TournamentDiscipline, error) {
	query := `
		SELECT tournament_id, discipline_id, rounds FROM tournament_disciplines
		WHERE discipline_id = ANY($1)
		ORDER BY tournament_id, discipline_id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, toInt64s(disciplineIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list discipline offers: %w", err)
	}
	defer rows.Close()

	offers := make([]models.TournamentDiscipline, 0)
	for rows.Next() {
		var td models.TournamentDiscipline
		if err := rows.Scan(&td.TournamentID, &td.DisciplineID, &td.Rounds); err != nil {
			return nil, err
		}
		offers = append(offers, td)
	}
	return offers, rows.Err()
}

func (r *postgresTournamentRepository) UpdateDates(ctx context.Context, id int, start, end time.Time) error {
	query := `UPDATE tournaments SET start_date = $1, end_date = $2 WHERE id = $3`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, start, end, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) GetTournamentsForAutoStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND start_date <= $3)
		   OR (status = $2 AND end_date < date_trunc('day', $3::timestamptz))`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, models.StatusUpcoming, models.StatusActive, currentTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration for auto status update: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournament_disciplines_pkey" {
				return ErrTournamentDisciplineDuplicate
			}
		case "23503":
			if pqErr.Constraint == "tournament_disciplines_discipline_id_fkey" {
				return ErrTournamentInvalidDiscipline
			}
		case "23514":
			if pqErr.Constraint == "tournaments_dates_check" {
				return ErrTournamentInvalidDates
			}
		}
	}
	return err
}
