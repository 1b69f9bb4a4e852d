package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/clay-tournament/models"
)

var ErrImportBatchNotFound = errors.New("import batch not found")

type ImportRepository interface {
	CreateBatch(ctx context.Context, batch *models.ImportBatch) error
	GetBatch(ctx context.Context, id string) (*models.ImportBatch, error)
	// UpsertScore stores the snapshot for score.ScoreID, replacing any earlier snapshot of the same ledger row.
	UpsertScore(ctx context.Context, score *models.ImportedScore) error
	ListByBatch(ctx context.Context, batchID string) ([]models.ImportedScore, error)
}

type postgresImportRepository struct {
	db *sql.DB
}

func NewPostgresImportRepository(db *sql.DB) ImportRepository {
	return &postgresImportRepository{db: db}
}

func (r *postgresImportRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

func (r *postgresImportRepository) CreateBatch(ctx context.Context, b *models.ImportBatch) error {
	query := `
		INSERT INTO import_batches (id, tournament_id, source, file_key, rows, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.getExecutor(ctx).QueryRowContext(ctx, query,
		b.ID, b.TournamentID, b.Source, b.FileKey, b.Rows, b.CreatedBy,
	).Scan(&b.CreatedAt)
}

func (r *postgresImportRepository) GetBatch(ctx context.Context, id string) (*models.ImportBatch, error) {
	query := `SELECT id, tournament_id, source, file_key, rows, created_by, created_at FROM import_batches WHERE id = $1`
	b := &models.ImportBatch{}
	var fileKey sql.NullString
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.TournamentID, &b.Source, &fileKey, &b.Rows, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImportBatchNotFound
		}
		return nil, err
	}
	if fileKey.Valid {
		k := fileKey.String
		b.FileKey = &k
	}
	return b, nil
}

func (r *postgresImportRepository) UpsertScore(ctx context.Context, s *models.ImportedScore) error {
	query := `
		INSERT INTO imported_scores (batch_id, score_id, tournament_id, athlete_id, athlete_name, team_name,
			discipline_code, round, station, targets_thrown, targets_hit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (score_id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			athlete_name = EXCLUDED.athlete_name,
			team_name = EXCLUDED.team_name,
			targets_thrown = EXCLUDED.targets_thrown,
			targets_hit = EXCLUDED.targets_hit,
			imported_at = NOW()
		RETURNING id, imported_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		s.BatchID, s.ScoreID, s.TournamentID, s.AthleteID, s.AthleteName, s.TeamName,
		s.DisciplineCode, s.Round, s.Station, s.TargetsThrown, s.TargetsHit,
	).Scan(&s.ID, &s.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert imported score: %w", err)
	}
	return nil
}

func (r *postgresImportRepository) ListByBatch(ctx context.Context, batchID string) ([]models.ImportedScore, error) {
	query := `
		SELECT id, batch_id, score_id, tournament_id, athlete_id, athlete_name, team_name,
			discipline_code, round, station, targets_thrown, targets_hit, imported_at
		FROM imported_scores
		WHERE batch_id = $1
		ORDER BY athlete_name, round, station`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported scores: %w", err)
	}
	defer rows.Close()

	scores := make([]models.ImportedScore, 0)
	for rows.Next() {
		var s models.ImportedScore
		if err := rows.Scan(&s.ID, &s.BatchID, &s.ScoreID, &s.TournamentID, &s.AthleteID, &s.AthleteName, &s.TeamName,
			&s.DisciplineCode, &s.Round, &s.Station, &s.TargetsThrown, &s.TargetsHit, &s.ImportedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
