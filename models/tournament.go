package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Tournament is a shooting event with a fixed date range and a set of offered disciplines.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Location  string           `json:"location" db:"location"`
	StartDate time.Time        `json:"start_date" db:"start_date"`
	EndDate   time.Time        `json:"end_date" db:"end_date"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	Disciplines []TournamentDiscipline `json:"disciplines" db:"-"`
}

// TournamentDiscipline is a discipline offered by a tournament together with its round count.
type TournamentDiscipline struct {
	TournamentID int `json:"tournament_id" db:"tournament_id"`
	DisciplineID int `json:"discipline_id" db:"discipline_id"`
	Rounds       int `json:"rounds" db:"rounds"`

	Discipline *Discipline `json:"discipline,omitempty" db:"-"`
}

// Offers returns the tournament discipline entry for disciplineID, if offered.
func (t *Tournament) Offers(disciplineID int) (TournamentDiscipline, bool) {
	for _, td := range t.Disciplines {
		if td.DisciplineID == disciplineID {
			return td, true
		}
	}
	return TournamentDiscipline{}, false
}

// Covers reports whether ts falls on one of the tournament days. Both ends are inclusive
// and compared at day granularity in UTC.
func (t *Tournament) Covers(ts time.Time) bool {
	day := truncateDay(ts)
	return !day.Before(truncateDay(t.StartDate)) && !day.After(truncateDay(t.EndDate))
}

func truncateDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
