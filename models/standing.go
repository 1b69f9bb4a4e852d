package models

import "time"

// LedgerEntry is a finalized score joined with the roster data the leaderboard groups by.
type LedgerEntry struct {
	AthleteID     int
	FirstName     string
	LastName      string
	Gender        Gender
	Division      string
	Class         string
	TeamName      string
	TargetsThrown int
	TargetsHit    int
}

// LeaderboardRow is one ranked athlete within a group.
type LeaderboardRow struct {
	Group         GroupKey `json:"group"`
	Rank          int      `json:"rank"`
	AthleteID     int      `json:"athlete_id"`
	AthleteName   string   `json:"athlete_name"`
	TeamName      string   `json:"team_name,omitempty"`
	TargetsThrown int      `json:"targets_thrown"`
	TargetsHit    int      `json:"targets_hit"`
	HitRatio      *float64 `json:"hit_ratio"`
}

// GroupKey identifies a leaderboard group. Fields not selected for grouping are empty.
type GroupKey struct {
	Division string `json:"division,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Class    string `json:"class,omitempty"`
}

// LeaderboardSnapshot is the materialized form served from cache and published to storage.
type LeaderboardSnapshot struct {
	TournamentID int              `json:"tournament_id"`
	DisciplineID int              `json:"discipline_id"`
	GroupBy      []string         `json:"group_by"`
	Rows         []LeaderboardRow `json:"rows"`
	ComputedAt   time.Time        `json:"computed_at"`
}

// AthleteClassification is an athlete's class on a governing body's scale.
type AthleteClassification struct {
	AthleteID     int       `json:"athlete_id" db:"athlete_id"`
	GoverningBody string    `json:"governing_body" db:"governing_body"`
	Class         string    `json:"class" db:"class"`
	Policy        string    `json:"policy" db:"policy"`
	TargetsThrown int       `json:"targets_thrown" db:"targets_thrown"`
	TargetsHit    int       `json:"targets_hit" db:"targets_hit"`
	ComputedAt    time.Time `json:"computed_at" db:"computed_at"`
}

// AthleteTotals is an athlete's finalized shot history summed over a discipline scope.
type AthleteTotals struct {
	AthleteID     int `json:"athlete_id"`
	TargetsThrown int `json:"targets_thrown"`
	TargetsHit    int `json:"targets_hit"`
}
