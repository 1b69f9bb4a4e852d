package models

import "time"

// TimeSlot is a scheduled window within a tournament. Capacity caps the number of
// squad members booked into the slot across all of its squads.
type TimeSlot struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	Capacity     int       `json:"capacity" db:"capacity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Occupancy int `json:"occupancy" db:"-"`
}

type SquadState string

const (
	SquadUnscheduled SquadState = "unscheduled"
	SquadScheduled   SquadState = "scheduled"
	SquadMoved       SquadState = "moved"
)

// Squad is a group of athletes shooting one discipline round together.
type Squad struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	TimeSlotID   *int       `json:"time_slot_id,omitempty" db:"time_slot_id"`
	DisciplineID int        `json:"discipline_id" db:"discipline_id"`
	Round        int        `json:"round" db:"round"`
	Name         string     `json:"name" db:"name"`
	MaxSize      int        `json:"max_size" db:"max_size"`
	State        SquadState `json:"state" db:"state"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	TimeSlot *TimeSlot     `json:"time_slot,omitempty" db:"-"`
	Members  []SquadMember `json:"members" db:"-"`
}

func (s *Squad) Shoot() ShootRef {
	return ShootRef{TournamentID: s.TournamentID, DisciplineID: s.DisciplineID, Round: s.Round}
}

// SquadMember links an athlete to a squad for the squad's discipline round.
type SquadMember struct {
	ID           int       `json:"id" db:"id"`
	SquadID      int       `json:"squad_id" db:"squad_id"`
	AthleteID    int       `json:"athlete_id" db:"athlete_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	DisciplineID int       `json:"discipline_id" db:"discipline_id"`
	Round        int       `json:"round" db:"round"`
	Position     int       `json:"position" db:"position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
}

// SquadProgress reports ledger coverage for a squad's round.
type SquadProgress struct {
	SquadID        int   `json:"squad_id"`
	Members        int   `json:"members"`
	MembersScored  int   `json:"members_scored"`
	MembersPending []int `json:"members_pending"`
	Completed      bool  `json:"completed"`
}
