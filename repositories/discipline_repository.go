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
	ErrDisciplineNotFound     = errors.New("discipline not found")
	ErrDisciplineCodeConflict = errors.New("discipline code conflict")
)

type DisciplineRepository interface {
	Create(ctx context.Context, discipline *models.Discipline) error
	GetByID(ctx context.Context, id int) (*models.Discipline, error)
	GetByCode(ctx context.Context, code string) (*models.Discipline, error)
	List(ctx context.Context) ([]models.Discipline, error)
	ListByGoverningBody(ctx context.Context, body string) ([]models.Discipline, error)
}

type postgresDisciplineRepository struct {
	db *sql.DB
}

func NewPostgresDisciplineRepository(db *sql.DB) DisciplineRepository {
	return &postgresDisciplineRepository{db: db}
}

func (r *postgresDisciplineRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

func (r *postgresDisciplineRepository) Create(ctx context.Context, d *models.Discipline) error {
	query := `INSERT INTO disciplines (code, name, governing_body) VALUES ($1, $2, $3) RETURNING id`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, d.Code, d.Name, d.GoverningBody).Scan(&d.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "disciplines_code_key" {
			return ErrDisciplineCodeConflict
		}
		return err
	}
	return nil
}

func (r *postgresDisciplineRepository) GetByID(ctx context.Context, id int) (*models.Discipline, error) {
	return r.getOne(ctx, `SELECT id, code, name, governing_body FROM disciplines WHERE id = $1`, id)
}

func (r *postgresDisciplineRepository) GetByCode(ctx context.Context, code string) (*models.Discipline, error) {
	return r.getOne(ctx, `SELECT id, code, name, governing_body FROM disciplines WHERE code = $1`, code)
}

func (r *postgresDisciplineRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Discipline, error) {
	d := &models.Discipline{}
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, arg).Scan(&d.ID, &d.Code, &d.Name, &d.GoverningBody)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisciplineNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresDisciplineRepository) List(ctx context.Context) ([]models.Discipline, error) {
	return r.list(ctx, `SELECT id, code, name, governing_body FROM disciplines ORDER BY code`)
}

func (r *postgresDisciplineRepository) ListByGoverningBody(ctx context.Context, body string) ([]models.Discipline, error) {
	return r.list(ctx, `SELECT id, code, name, governing_body FROM disciplines WHERE governing_body = $1 ORDER BY code`, body)
}

func (r *postgresDisciplineRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Discipline, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list disciplines: %w", err)
	}
	defer rows.Close()

	disciplines := make([]models.Discipline, 0)
	for rows.Next() {
		var d models.Discipline
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.GoverningBody); err != nil {
			return nil, err
		}
		disciplines = append(disciplines, d)
	}
	return disciplines, rows.Err()
}
