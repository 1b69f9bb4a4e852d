package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/clay-tournament/models"
)

func TestCreateTournamentValidation(t *testing.T) {
	f := newFixture(t)
	skeet := f.discipline(t, "skeet", "NSSA")
	offered := []TournamentDisciplineInput{{DisciplineID: skeet.ID, Rounds: 4}}

	tests := []struct {
		name  string
		input CreateTournamentInput
		want  error
	}{
		{"missing name", CreateTournamentInput{StartDate: day1, EndDate: day3, Disciplines: offered}, ErrValidationFailed},
		{"end before start", CreateTournamentInput{Name: "T", StartDate: day3, EndDate: day1, Disciplines: offered}, ErrInvalidDateRange},
		{"no disciplines", CreateTournamentInput{Name: "T", StartDate: day1, EndDate: day3}, ErrNoDisciplines},
		{"zero rounds", CreateTournamentInput{Name: "T", StartDate: day1, EndDate: day3, Disciplines: []TournamentDisciplineInput{{DisciplineID: skeet.ID}}}, ErrInvalidRound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tournaments.CreateTournament(context.Background(), tt.input)
			assertKind(t, err, KindValidation)
			assertIs(t, err, tt.want)
		})
	}

	_, err := f.tournaments.CreateTournament(context.Background(), CreateTournamentInput{
		Name: "T", StartDate: day1, EndDate: day3,
		Disciplines: []TournamentDisciplineInput{{DisciplineID: 9999, Rounds: 1}},
	})
	assertIs(t, err, ErrDisciplineNotFound)
}

func TestUpdateTournamentDatesLockedBySquads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)

	moved, err := f.tournaments.UpdateTournamentDates(ctx, tournament.ID, UpdateTournamentDatesInput{StartDate: day1, EndDate: day3.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("UpdateTournamentDates: %v", err)
	}
	if !moved.EndDate.Equal(day3.AddDate(0, 0, 1)) {
		t.Fatalf("end date = %s", moved.EndDate)
	}

	f.squad(t, tournament.ID, skeet.ID, 1, nil)
	_, err = f.tournaments.UpdateTournamentDates(ctx, tournament.ID, UpdateTournamentDatesInput{StartDate: day1, EndDate: day3})
	assertKind(t, err, KindConflict)
	assertIs(t, err, ErrDatesLocked)
}

func TestUpdateTournamentDatesKeepsTimeSlotsInside(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)
	f.slot(t, tournament.ID, 5, 24+9) // day 2, 09:00

	_, err := f.tournaments.UpdateTournamentDates(ctx, tournament.ID, UpdateTournamentDatesInput{StartDate: day1, EndDate: day1})
	assertKind(t, err, KindConflict)
	assertIs(t, err, ErrDatesExcludeSlots)

	shifted, err := f.tournaments.UpdateTournamentDates(ctx, tournament.ID, UpdateTournamentDatesInput{
		StartDate: day1.AddDate(0, 0, 1),
		EndDate:   day3,
	})
	if err != nil {
		t.Fatalf("UpdateTournamentDates covering the slot: %v", err)
	}
	if !shifted.StartDate.Equal(day1.AddDate(0, 0, 1)) {
		t.Fatalf("start date = %s", shifted.StartDate)
	}
}

func TestUpdateTournamentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)

	_, err := f.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusCompleted)
	assertIs(t, err, ErrInvalidStatusTransition)

	_, err = f.tournaments.UpdateTournamentStatus(ctx, tournament.ID, "paused")
	assertIs(t, err, ErrInvalidStatus)

	active, err := f.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusActive)
	if err != nil {
		t.Fatalf("UpdateTournamentStatus: %v", err)
	}
	if active.Status != models.StatusActive {
		t.Fatalf("status = %s", active.Status)
	}

	_, err = f.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusUpcoming)
	assertIs(t, err, ErrInvalidStatusTransition)
}

func TestAutoUpdateTournamentStatusesByDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	running := f.tournament(t, skeet)

	finished, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name:        "Winter Open",
		StartDate:   day1.AddDate(0, -2, 0),
		EndDate:     day1.AddDate(0, -2, 2),
		Disciplines: []TournamentDisciplineInput{{DisciplineID: skeet.ID, Rounds: 2}},
	})
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	future, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name:        "Autumn Open",
		StartDate:   day1.AddDate(0, 5, 0),
		EndDate:     day1.AddDate(0, 5, 1),
		Disciplines: []TournamentDisciplineInput{{DisciplineID: skeet.ID, Rounds: 2}},
	})
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}

	f.tournaments.(*tournamentService).now = func() time.Time { return day1.Add(30 * time.Hour) }
	if err := f.tournaments.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
		t.Fatalf("AutoUpdateTournamentStatusesByDates: %v", err)
	}

	want := map[int]models.TournamentStatus{
		running.ID:  models.StatusActive,
		finished.ID: models.StatusCompleted,
		future.ID:   models.StatusUpcoming,
	}
	for id, status := range want {
		got, err := f.tournaments.GetTournamentByID(ctx, id)
		if err != nil {
			t.Fatalf("GetTournamentByID(%d): %v", id, err)
		}
		if got.Status != status {
			t.Fatalf("tournament %d status = %s, want %s", id, got.Status, status)
		}
	}

	f.tournaments.(*tournamentService).now = func() time.Time { return day3.AddDate(0, 0, 2) }
	if err := f.tournaments.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
		t.Fatalf("AutoUpdateTournamentStatusesByDates: %v", err)
	}
	got, err := f.tournaments.GetTournamentByID(ctx, running.ID)
	if err != nil {
		t.Fatalf("GetTournamentByID: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
}

func TestListTournamentsByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	a := f.tournament(t, skeet)
	f.tournament(t, skeet)
	if _, err := f.tournaments.UpdateTournamentStatus(ctx, a.ID, models.StatusActive); err != nil {
		t.Fatalf("UpdateTournamentStatus: %v", err)
	}

	status := models.StatusActive
	list, err := f.tournaments.ListTournaments(ctx, ListTournamentsFilter{Status: &status})
	if err != nil {
		t.Fatalf("ListTournaments: %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("list = %+v", list)
	}

	all, err := f.tournaments.ListTournaments(ctx, ListTournamentsFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("ListTournaments: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d tournaments, want 2", len(all))
	}
}

func TestCreateDisciplineRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.disciplines.CreateDiscipline(ctx, CreateDisciplineInput{Code: " Sporting ", Name: "Sporting Clays", GoverningBody: "nsca"})
	if err != nil {
		t.Fatalf("CreateDiscipline: %v", err)
	}
	if d.Code != "sporting" || d.GoverningBody != "NSCA" {
		t.Fatalf("discipline = %+v", d)
	}

	_, err = f.disciplines.CreateDiscipline(ctx, CreateDisciplineInput{Code: "sporting", Name: "Again", GoverningBody: "NSCA"})
	assertIs(t, err, ErrDisciplineCodeConflict)

	_, err = f.disciplines.CreateDiscipline(ctx, CreateDisciplineInput{Code: "olympic", Name: "Olympic Trap", GoverningBody: "ISSF"})
	assertIs(t, err, ErrUnknownGoverningBody)
}
