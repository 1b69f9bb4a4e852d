package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAthlete UserRole = "athlete"
	RoleCoach   UserRole = "coach"
	RoleAdmin   UserRole = "admin"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Athlete is a shooter known to the roster directory.
type Athlete struct {
	ID        int       `json:"id" db:"id"`
	UserID    *int      `json:"user_id,omitempty" db:"user_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Gender    Gender    `json:"gender" db:"gender"`
	Division  string    `json:"division" db:"division"`
	TeamID    *int      `json:"team_id,omitempty" db:"team_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Team    *Team             `json:"team,omitempty" db:"-"`
	Classes map[string]string `json:"classes,omitempty" db:"-"`
}

func (a *Athlete) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IndividualTeamName is the name given to a tournament's pseudo-team for unaffiliated athletes.
const IndividualTeamName = "Individual"

type Team struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	IsIndividual bool      `json:"is_individual" db:"is_individual"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Coaches  []Coach   `json:"coaches,omitempty" db:"-"`
	Athletes []Athlete `json:"athletes,omitempty" db:"-"`
}

// Coach is a member of a team's coaching staff.
type Coach struct {
	TeamID int    `json:"team_id" db:"team_id"`
	UserID int    `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

type JoinRequest struct {
	ID        int               `json:"id" db:"id"`
	TeamID    int               `json:"team_id" db:"team_id"`
	AthleteID int               `json:"athlete_id" db:"athlete_id"`
	Message   string            `json:"message" db:"message"`
	Status    JoinRequestStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
