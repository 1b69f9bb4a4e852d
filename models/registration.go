package models

import "time"

// Registration enrolls an athlete in a tournament for a set of disciplines.
type Registration struct {
	ID            int       `json:"id" db:"id"`
	AthleteID     int       `json:"athlete_id" db:"athlete_id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	TeamID        *int      `json:"team_id,omitempty" db:"team_id"`
	DisciplineIDs []int     `json:"discipline_ids" db:"discipline_ids"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
	Team    *Team    `json:"team,omitempty" db:"-"`
}

func (r *Registration) Covers(disciplineID int) bool {
	for _, id := range r.DisciplineIDs {
		if id == disciplineID {
			return true
		}
	}
	return false
}
