package models

// Discipline is a global shooting format such as skeet or trap.
type Discipline struct {
	ID            int    `json:"id" db:"id"`
	Code          string `json:"code" db:"code"`
	Name          string `json:"name" db:"name"`
	GoverningBody string `json:"governing_body" db:"governing_body"`
}

// ShootRef identifies one shoot: a discipline round within a tournament.
type ShootRef struct {
	TournamentID int `json:"tournament_id"`
	DisciplineID int `json:"discipline_id"`
	Round        int `json:"round"`
}
