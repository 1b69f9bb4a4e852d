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
	ErrTimeSlotNotFound          = errors.New("time slot not found")
	ErrTimeSlotInUse             = errors.New("time slot is referenced by squads")
	ErrTimeSlotInvalidTournament = errors.New("invalid tournament reference")
)

type TimeSlotRepository interface {
	Create(ctx context.Context, slot *models.TimeSlot) error
	GetByID(ctx context.Context, id int) (*models.TimeSlot, error)
	// LockByIDs locks the given slots in ascending id order and returns them with their
	// occupancy read after the lock was taken. Missing ids are simply absent from the result.
	LockByIDs(ctx context.Context, ids []int) ([]*models.TimeSlot, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.TimeSlot, error)
	Delete(ctx context.Context, id int) error
}

type postgresTimeSlotRepository struct {
	db *sql.DB
}

func NewPostgresTimeSlotRepository(db *sql.DB) TimeSlotRepository {
	return &postgresTimeSlotRepository{db: db}
}

func (r *postgresTimeSlotRepository) getExecutor(ctx context.Context) SQLExecutor {
	return executorFrom(ctx, r.db)
}

const timeSlotSelect = `
	SELECT ts.id, ts.tournament_id, ts.start_time, ts.capacity, ts.created_at,
		(SELECT COUNT(*) FROM squad_members m JOIN squads s ON s.id = m.squad_id WHERE s.time_slot_id = ts.id)
	FROM time_slots ts`

func scanTimeSlot(row interface{ Scan(...any) error }, ts *models.TimeSlot) error {
	return row.Scan(&ts.ID, &ts.TournamentID, &ts.StartTime, &ts.Capacity, &ts.CreatedAt, &ts.Occupancy)
}

func (r *postgresTimeSlotRepository) Create(ctx context.Context, ts *models.TimeSlot) error {
	query := `
		INSERT INTO time_slots (tournament_id, start_time, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, ts.TournamentID, ts.StartTime, ts.Capacity).
		Scan(&ts.ID, &ts.CreatedAt)
	return r.handleTimeSlotError(err)
}

func (r *postgresTimeSlotRepository) GetByID(ctx context.Context, id int) (*models.TimeSlot, error) {
	ts := &models.TimeSlot{}
	err := scanTimeSlot(r.getExecutor(ctx).QueryRowContext(ctx, timeSlotSelect+` WHERE ts.id = $1`, id), ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, err
	}
	return ts, nil
}

func (r *postgresTimeSlotRepository) LockByIDs(ctx context.Context, ids []int) ([]*models.TimeSlot, error) {
	executor := r.getExecutor(ctx)

	lockRows, err := executor.QueryContext(ctx,
		`SELECT id FROM time_slots WHERE id = ANY($1) ORDER BY id FOR UPDATE`, toInt64s(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock time slots: %w", err)
	}
	if err := drainRows(lockRows); err != nil {
		return nil, fmt.Errorf("failed to lock time slots: %w", err)
	}

	rows, err := executor.QueryContext(ctx, timeSlotSelect+` WHERE ts.id = ANY($1) ORDER BY ts.id`, toInt64s(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to read locked time slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*models.TimeSlot, 0, len(ids))
	for rows.Next() {
		ts := &models.TimeSlot{}
		if err := scanTimeSlot(rows, ts); err != nil {
			return nil, err
		}
		slots = append(slots, ts)
	}
	return slots, rows.Err()
}

func (r *postgresTimeSlotRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.TimeSlot, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		timeSlotSelect+` WHERE ts.tournament_id = $1 ORDER BY ts.start_time, ts.id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	defer rows.Close()

	slots := make([]models.TimeSlot, 0)
	for rows.Next() {
		var ts models.TimeSlot
		if err := scanTimeSlot(rows, &ts); err != nil {
			return nil, err
		}
		slots = append(slots, ts)
	}
	return slots, rows.Err()
}

func (r *postgresTimeSlotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return r.handleTimeSlotError(err)
	}
	return checkAffectedRows(result, ErrTimeSlotNotFound)
}

func (r *postgresTimeSlotRepository) handleTimeSlotError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "squads_time_slot_id_fkey":
			return ErrTimeSlotInUse
		case "time_slots_tournament_id_fkey":
			return ErrTimeSlotInvalidTournament
		}
	}
	return err
}
