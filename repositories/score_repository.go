package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrScoreNotFound        = errors.New("score not found")
	ErrScoreConflict        = errors.New("score already exists for this station")
	ErrScoreVersionConflict = errors.New("score version changed")
	ErrScoreInvalidShoot    = errors.New("invalid athlete, tournament or discipline reference")
	ErrScoreInvalidValues   = errors.New("score values violate constraints")
)

type ScoreRepository interface {
	GetByKey(ctx context.Context, athleteID int, shoot models.ShootRef, station int) (*models.Score, error)
	GetByID(ctx context.Context, id int) (*models.Score, error)
	GetForUpdate(ctx context.Context, id int) (*models.Score, error)
	Create(ctx context.Context, score *models.Score) error
	// Update writes score if its stored version still equals score.Version, then increments it.
	Update(ctx context.Context, score *models.Score) error
	ListByAthlete(ctx context.Context, athleteID, tournamentID int) ([]models.Score, error)
	// StationsRecorded lists the station numbers stored for one athlete's shoot, 0 for a whole round.
	StationsRecorded(ctx context.Context, athleteID int, shoot models.ShootRef) ([]int, error)
	FinalizeShoot(ctx context.Context, shoot models.ShootRef) (int, error)
	ScoredAthletes(ctx context.Context, shoot models.ShootRef) ([]int, error)

	CreateCorrection(ctx context.Context, c *models.ScoreCorrection) error
	ListCorrections(ctx context.Context, scoreID int) ([]models.ScoreCorrection, error)

	// LedgerEntries sums finalized scores per athlete for one tournament discipline, joined with
	// the roster fields the leaderboard groups by. Class is read on governingBody's scale.
	LedgerEntries(ctx context.Context, tournamentID, disciplineID int, governingBody string) ([]models.LedgerEntry, error)
	// HistoryTotals sums finalized scores per athlete across all tournaments for the given disciplines.
	HistoryTotals(ctx context.Context, disciplineIDs []int) ([]models.AthleteTotals, error)
	AthleteHistory(ctx context.Context, athleteID int, disciplineIDs []int) (models.AthleteTotals, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

const scoreColumns = `id, athlete_id, tournament_id, discipline_id, round, station, targets_thrown, targets_hit,
	stations, duration_seconds, notes, finalized, version, created_at, updated_at`

func scanScore(row interface{ Scan(...any) error }, s *models.Score) error {
	var (
		stations []byte
		duration sql.NullInt64
		notes    sql.NullString
	)
	err := row.Scan(&s.ID, &s.AthleteID, &s.TournamentID, &s.DisciplineID, &s.Round, &s.Station,
		&s.TargetsThrown, &s.TargetsHit, &stations, &duration, &notes, &s.Finalized, &s.Version,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	if s.Stations, err = decodeStations(stations); err != nil {
		return err
	}
	if duration.Valid {
		d := int(duration.Int64)
		s.DurationSeconds = &d
	}
	if notes.Valid {
		n := notes.String
		s.Notes = &n
	}
	return nil
}

func encodeStations(stations []models.StationResult) (interface{}, error) {
	if len(stations) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(stations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode station breakdown: %w", err)
	}
	return string(b), nil
}

func decodeStations(raw []byte) ([]models.StationResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var stations []models.StationResult
	if err := json.Unmarshal(raw, &stations); err != nil {
		return nil, fmt.Errorf("failed to decode station breakdown: %w", err)
	}
	return stations, nil
}

func (r *postgresScoreRepository) GetByKey(ctx context.Context, athleteID int, shoot models.ShootRef, station int) (*models.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores
		WHERE athlete_id = $1 AND tournament_id = $2 AND discipline_id = $3 AND round = $4 AND station = $5`
	return r.getOne(ctx, query, athleteID, shoot.TournamentID, shoot.DisciplineID, shoot.Round, station)
}

func (r *postgresScoreRepository) GetByID(ctx context.Context, id int) (*models.Score, error) {
	return r.getOne(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id = $1`, id)
}

func (r *postgresScoreRepository) GetForUpdate(ctx context.Context, id int) (*models.Score, error) {
	return r.getOne(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresScoreRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Score, error) {
	s := &models.Score{}
	if err := scanScore(r.getExecutor(ctx).QueryRowContext(ctx, query, args...), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresScoreRepository) Create(ctx context.Context, s *models.Score) error {
	stations, err := encodeStations(s.Stations)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO scores (athlete_id, tournament_id, discipline_id, round, station,
			targets_thrown, targets_hit, stations, duration_seconds, notes, finalized, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING id, version, created_at, updated_at`
	err = r.getExecutor(ctx).QueryRowContext(ctx, query,
		s.AthleteID, s.TournamentID, s.DisciplineID, s.Round, s.Station,
		s.TargetsThrown, s.TargetsHit, stations, s.DurationSeconds, s.Notes, s.Finalized,
	).Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	return r.handleScoreError(err)
}

func (r *postgresScoreRepository) Update(ctx context.Context, s *models.Score) error {
	stations, err := encodeStations(s.Stations)
	if err != nil {
		return err
	}
	query := `
		UPDATE scores SET
			targets_thrown = $1,
			targets_hit = $2,
			stations = $3,
			duration_seconds = $4,
			notes = $5,
			finalized = $6,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`
	err = r.getExecutor(ctx).QueryRowContext(ctx, query,
		s.TargetsThrown, s.TargetsHit, stations, s.DurationSeconds, s.Notes, s.Finalized, s.ID, s.Version,
	).Scan(&s.Version, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScoreVersionConflict
		}
		return r.handleScoreError(err)
	}
	return nil
}

func (r *postgresScoreRepository) ListByAthlete(ctx context.Context, athleteID, tournamentID int) ([]models.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores
		WHERE athlete_id = $1 AND tournament_id = $2
		ORDER BY discipline_id, round, station`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, athleteID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list athlete scores: %w", err)
	}
	defer rows.Close()

	scores := make([]models.Score, 0)
	for rows.Next() {
		var s models.Score
		if err := scanScore(rows, &s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *postgresScoreRepository) StationsRecorded(ctx context.Context, athleteID int, shoot models.ShootRef) ([]int, error) {
	query := `SELECT station FROM scores
		WHERE athlete_id = $1 AND tournament_id = $2 AND discipline_id = $3 AND round = $4
		ORDER BY station`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, athleteID, shoot.TournamentID, shoot.DisciplineID, shoot.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to list recorded stations: %w", err)
	}
	defer rows.Close()

	stations := make([]int, 0)
	for rows.Next() {
		var station int
		if err := rows.Scan(&station); err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}

func (r *postgresScoreRepository) FinalizeShoot(ctx context.Context, shoot models.ShootRef) (int, error) {
	query := `
		UPDATE scores SET finalized = TRUE, version = version + 1, updated_at = NOW()
		WHERE tournament_id = $1 AND discipline_id = $2 AND round = $3 AND NOT finalized`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, shoot.TournamentID, shoot.DisciplineID, shoot.Round)
	if err != nil {
		return 0, fmt.Errorf("failed to finalize round: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(n), nil
}

func (r *postgresScoreRepository) ScoredAthletes(ctx context.Context, shoot models.ShootRef) ([]int, error) {
	query := `
		SELECT DISTINCT athlete_id FROM scores
		WHERE tournament_id = $1 AND discipline_id = $2 AND round = $3
		ORDER BY athlete_id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, shoot.TournamentID, shoot.DisciplineID, shoot.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored athletes: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresScoreRepository) CreateCorrection(ctx context.Context, c *models.ScoreCorrection) error {
	prev, err := encodeStations(c.PrevStations)
	if err != nil {
		return err
	}
	next, err := encodeStations(c.NewStations)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO score_corrections (score_id, prev_thrown, prev_hit, prev_stations,
			new_thrown, new_hit, new_stations, reason, corrected_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err = r.getExecutor(ctx).QueryRowContext(ctx, query,
		c.ScoreID, c.PrevThrown, c.PrevHit, prev, c.NewThrown, c.NewHit, next, c.Reason, c.CorrectedBy,
	).Scan(&c.ID, &c.CreatedAt)
	return r.handleScoreError(err)
}

func (r *postgresScoreRepository) ListCorrections(ctx context.Context, scoreID int) ([]models.ScoreCorrection, error) {
	query := `
		SELECT id, score_id, prev_thrown, prev_hit, prev_stations, new_thrown, new_hit, new_stations,
			reason, corrected_by, created_at
		FROM score_corrections
		WHERE score_id = $1
		ORDER BY id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, scoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list score corrections: %w", err)
	}
	defer rows.Close()

	corrections := make([]models.ScoreCorrection, 0)
	for rows.Next() {
		var (
			c          models.ScoreCorrection
			prev, next []byte
		)
		if err := rows.Scan(&c.ID, &c.ScoreID, &c.PrevThrown, &c.PrevHit, &prev, &c.NewThrown, &c.NewHit, &next,
			&c.Reason, &c.CorrectedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		if c.PrevStations, err = decodeStations(prev); err != nil {
			return nil, err
		}
		if c.NewStations, err = decodeStations(next); err != nil {
			return nil, err
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

func (r *postgresScoreRepository) LedgerEntries(ctx context.Context, tournamentID, disciplineID int, governingBody string) ([]models.LedgerEntry, error) {
	query := `
		SELECT a.id, a.first_name, a.last_name, a.gender, a.division,
			COALESCE(c.class, ''), COALESCE(t.name, ''),
			SUM(s.targets_thrown), SUM(s.targets_hit)
		FROM scores s
		JOIN athletes a ON a.id = s.athlete_id
		LEFT JOIN registrations reg ON reg.athlete_id = s.athlete_id AND reg.tournament_id = s.tournament_id
		LEFT JOIN teams t ON t.id = reg.team_id
		LEFT JOIN athlete_classifications c ON c.athlete_id = a.id AND c.governing_body = $3
		WHERE s.tournament_id = $1 AND s.discipline_id = $2 AND s.finalized
		GROUP BY a.id, a.first_name, a.last_name, a.gender, a.division, c.class, t.name`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, tournamentID, disciplineID, governingBody)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0)
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.AthleteID, &e.FirstName, &e.LastName, &e.Gender, &e.Division,
			&e.Class, &e.TeamName, &e.TargetsThrown, &e.TargetsHit); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresScoreRepository) HistoryTotals(ctx context.Context, disciplineIDs []int) ([]models.AthleteTotals, error) {
	query := `
		SELECT athlete_id, SUM(targets_thrown), SUM(targets_hit)
		FROM scores
		WHERE finalized AND discipline_id = ANY($1)
		GROUP BY athlete_id
		ORDER BY athlete_id`
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, toInt64s(disciplineIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load history totals: %w", err)
	}
	defer rows.Close()

	totals := make([]models.AthleteTotals, 0)
	for rows.Next() {
		var t models.AthleteTotals
		if err := rows.Scan(&t.AthleteID, &t.TargetsThrown, &t.TargetsHit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *postgresScoreRepository) AthleteHistory(ctx context.Context, athleteID int, disciplineIDs []int) (models.AthleteTotals, error) {
	query := `
		SELECT COALESCE(SUM(targets_thrown), 0), COALESCE(SUM(targets_hit), 0)
		FROM scores
		WHERE finalized AND athlete_id = $1 AND discipline_id = ANY($2)`
	t := models.AthleteTotals{AthleteID: athleteID}
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, athleteID, toInt64s(disciplineIDs)).
		Scan(&t.TargetsThrown, &t.TargetsHit)
	if err != nil {
		return t, fmt.Errorf("failed to load athlete history: %w", err)
	}
	return t, nil
}

func (r *postgresScoreRepository) handleScoreError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "scores_ledger_key" {
				return ErrScoreConflict
			}
		case "23503":
			return ErrScoreInvalidShoot
		case "23514":
			return ErrScoreInvalidValues
		}
	}
	return err
}
