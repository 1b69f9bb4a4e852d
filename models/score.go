package models

import "time"

// StationResult is the per-station breakdown of a score row.
type StationResult struct {
	Station int `json:"station"`
	Thrown  int `json:"thrown"`
	Hit     int `json:"hit"`
}

// Score is one ledger row: an athlete's result for one station group of a shoot.
type Score struct {
	ID              int             `json:"id" db:"id"`
	AthleteID       int             `json:"athlete_id" db:"athlete_id"`
	TournamentID    int             `json:"tournament_id" db:"tournament_id"`
	DisciplineID    int             `json:"discipline_id" db:"discipline_id"`
	Round           int             `json:"round" db:"round"`
	Station         int             `json:"station" db:"station"`
	TargetsThrown   int             `json:"targets_thrown" db:"targets_thrown"`
	TargetsHit      int             `json:"targets_hit" db:"targets_hit"`
	Stations        []StationResult `json:"stations,omitempty" db:"stations"`
	DurationSeconds *int            `json:"duration_seconds,omitempty" db:"duration_seconds"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	Finalized       bool            `json:"finalized" db:"finalized"`
	Version         int             `json:"version" db:"version"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

func (s *Score) Shoot() ShootRef {
	return ShootRef{TournamentID: s.TournamentID, DisciplineID: s.DisciplineID, Round: s.Round}
}

// ScoreCorrection is the audit row written whenever a score value is superseded.
type ScoreCorrection struct {
	ID           int             `json:"id" db:"id"`
	ScoreID      int             `json:"score_id" db:"score_id"`
	PrevThrown   int             `json:"prev_thrown" db:"prev_thrown"`
	PrevHit      int             `json:"prev_hit" db:"prev_hit"`
	PrevStations []StationResult `json:"prev_stations,omitempty" db:"prev_stations"`
	NewThrown    int             `json:"new_thrown" db:"new_thrown"`
	NewHit       int             `json:"new_hit" db:"new_hit"`
	NewStations  []StationResult `json:"new_stations,omitempty" db:"new_stations"`
	Reason       string          `json:"reason" db:"reason"`
	CorrectedBy  int             `json:"corrected_by" db:"corrected_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

type ImportSource string

const (
	ImportSourceCSV    ImportSource = "csv"
	ImportSourceManual ImportSource = "manual"
)

// ImportBatch records one bulk ingestion of score rows.
type ImportBatch struct {
	ID           string       `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Source       ImportSource `json:"source" db:"source"`
	FileKey      *string      `json:"file_key,omitempty" db:"file_key"`
	FileURL      *string      `json:"file_url,omitempty" db:"-"`
	Rows         int          `json:"rows" db:"rows"`
	CreatedBy    int          `json:"created_by" db:"created_by"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// ImportedScore is a denormalized display snapshot of an imported ledger row.
// The ledger (Score) stays the system of record.
type ImportedScore struct {
	ID             int       `json:"id" db:"id"`
	BatchID        string    `json:"batch_id" db:"batch_id"`
	ScoreID        int       `json:"score_id" db:"score_id"`
	TournamentID   int       `json:"tournament_id" db:"tournament_id"`
	AthleteID      int       `json:"athlete_id" db:"athlete_id"`
	AthleteName    string    `json:"athlete_name" db:"athlete_name"`
	TeamName       string    `json:"team_name" db:"team_name"`
	DisciplineCode string    `json:"discipline_code" db:"discipline_code"`
	Round          int       `json:"round" db:"round"`
	Station        int       `json:"station" db:"station"`
	TargetsThrown  int       `json:"targets_thrown" db:"targets_thrown"`
	TargetsHit     int       `json:"targets_hit" db:"targets_hit"`
	ImportedAt     time.Time `json:"imported_at" db:"imported_at"`
}
