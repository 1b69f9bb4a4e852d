package services

import (
	"context"
	"testing"

	"github.com/Dosada05/clay-tournament/models"
)

func TestCreateTeamAddsCreatorAsCoach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.roster.CreateTeam(ctx, Actor{UserID: 3, Role: models.RoleCoach}, CreateTeamInput{Name: "  Clay   Crushers ", CoachName: "Pat"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.Name != "Clay Crushers" {
		t.Fatalf("name = %q", team.Name)
	}
	if len(team.Coaches) != 1 || team.Coaches[0].UserID != 3 {
		t.Fatalf("coaches = %+v", team.Coaches)
	}
}

func TestCreateTeamNameRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coach := Actor{UserID: 1, Role: models.RoleCoach}

	_, err := f.roster.CreateTeam(ctx, coach, CreateTeamInput{Name: "   "})
	assertIs(t, err, ErrTeamNameRequired)

	_, err = f.roster.CreateTeam(ctx, coach, CreateTeamInput{Name: "individual"})
	assertIs(t, err, ErrTeamNameTaken)

	if _, err := f.roster.CreateTeam(ctx, coach, CreateTeamInput{Name: "Owls"}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	_, err = f.roster.CreateTeam(ctx, coach, CreateTeamInput{Name: "Owls"})
	assertKind(t, err, KindValidation)
	assertIs(t, err, ErrTeamNameTaken)
}

func TestCreateAthleteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := 42

	tests := []struct {
		name  string
		input CreateAthleteInput
	}{
		{"missing last name", CreateAthleteInput{FirstName: "A", Gender: models.GenderMale, Division: "Open"}},
		{"unknown gender", CreateAthleteInput{FirstName: "A", LastName: "B", Gender: "x", Division: "Open"}},
		{"missing division", CreateAthleteInput{FirstName: "A", LastName: "B", Gender: models.GenderFemale}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.roster.CreateAthlete(ctx, tt.input)
			assertKind(t, err, KindValidation)
		})
	}

	input := CreateAthleteInput{UserID: &userID, FirstName: "Lee", LastName: "Linked", Gender: "Female", Division: "Lady"}
	a, err := f.roster.CreateAthlete(ctx, input)
	if err != nil {
		t.Fatalf("CreateAthlete: %v", err)
	}
	if a.Gender != models.GenderFemale {
		t.Fatalf("gender = %q", a.Gender)
	}
	_, err = f.roster.CreateAthlete(ctx, input)
	assertIs(t, err, ErrAthleteUserTaken)
}

func TestJoinAndLeaveTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coach := Actor{UserID: 10, Role: models.RoleCoach}
	stranger := Actor{UserID: 11, Role: models.RoleCoach}
	admin := Actor{UserID: 99, Role: models.RoleAdmin}

	team, err := f.roster.CreateTeam(ctx, coach, CreateTeamInput{Name: "Hawks"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	a := f.athlete(t, "Jo", "Joiner")

	_, err = f.roster.JoinTeam(ctx, stranger, team.ID, a.ID)
	assertKind(t, err, KindUnauthorized)

	joined, err := f.roster.JoinTeam(ctx, coach, team.ID, a.ID)
	if err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if joined.TeamID == nil || *joined.TeamID != team.ID {
		t.Fatalf("team id = %v, want %d", joined.TeamID, team.ID)
	}

	other, err := f.roster.CreateTeam(ctx, admin, CreateTeamInput{Name: "Eagles"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	_, err = f.roster.JoinTeam(ctx, admin, other.ID, a.ID)
	assertIs(t, err, ErrAthleteAlreadyInTeam)

	err = f.roster.LeaveTeam(ctx, admin, other.ID, a.ID)
	assertIs(t, err, ErrAthleteNotInTeam)

	got, err := f.roster.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if len(got.Athletes) != 1 || got.Athletes[0].ID != a.ID {
		t.Fatalf("athletes = %+v", got.Athletes)
	}

	if err := f.roster.LeaveTeam(ctx, coach, team.ID, a.ID); err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	left, err := f.roster.GetAthlete(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAthlete: %v", err)
	}
	if left.TeamID != nil {
		t.Fatalf("team id = %v after leaving", *left.TeamID)
	}
}

func TestLeaveTeamBySelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	userID := 5

	team, err := f.roster.CreateTeam(ctx, admin, CreateTeamInput{Name: "Ravens"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	a, err := f.roster.CreateAthlete(ctx, CreateAthleteInput{UserID: &userID, FirstName: "Sel", LastName: "F", Gender: models.GenderMale, Division: "Open", TeamID: &team.ID})
	if err != nil {
		t.Fatalf("CreateAthlete: %v", err)
	}

	err = f.roster.LeaveTeam(ctx, Actor{UserID: 6, Role: models.RoleAthlete}, team.ID, a.ID)
	assertIs(t, err, ErrForbiddenOperation)

	if err := f.roster.LeaveTeam(ctx, Actor{UserID: userID, Role: models.RoleAthlete}, team.ID, a.ID); err != nil {
		t.Fatalf("LeaveTeam by self: %v", err)
	}
}

func TestCreateJoinRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	userID := 20
	self := Actor{UserID: userID, Role: models.RoleAthlete}

	team, err := f.roster.CreateTeam(ctx, admin, CreateTeamInput{Name: "Larks"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	a, err := f.roster.CreateAthlete(ctx, CreateAthleteInput{UserID: &userID, FirstName: "Req", LastName: "Uest", Gender: models.GenderMale, Division: "Open"})
	if err != nil {
		t.Fatalf("CreateAthlete: %v", err)
	}

	_, err = f.roster.CreateJoinRequest(ctx, Actor{UserID: 21, Role: models.RoleAthlete}, team.ID, CreateJoinRequestInput{AthleteID: a.ID})
	assertIs(t, err, ErrForbiddenOperation)

	req, err := f.roster.CreateJoinRequest(ctx, self, team.ID, CreateJoinRequestInput{AthleteID: a.ID, Message: " please "})
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}
	if req.Status != models.JoinRequestPending || req.Message != "please" {
		t.Fatalf("request = %+v", req)
	}

	_, err = f.roster.CreateJoinRequest(ctx, self, team.ID, CreateJoinRequestInput{AthleteID: a.ID})
	assertKind(t, err, KindConflict)
	assertIs(t, err, ErrJoinRequestPending)
}

func TestIndividualTeamIsNotJoinable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)
	a := f.athlete(t, "Indi", "Vidual")
	reg, err := f.registrations.Register(ctx, rangeOfficer, a.ID, tournament.ID, []int{skeet.ID})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	b := f.athlete(t, "Other", "One")
	_, err = f.roster.JoinTeam(ctx, Actor{UserID: 1, Role: models.RoleAdmin}, *reg.TeamID, b.ID)
	assertKind(t, err, KindValidation)
}
