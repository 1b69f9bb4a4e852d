package services

import (
	"context"
	"testing"

	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/models"
)

type classScene struct {
	f          *fixture
	tournament *models.Tournament
	skeet      *models.Discipline
	squad      *models.Squad
}

func newClassScene(t *testing.T, policy classification.Policy) *classScene {
	t.Helper()
	f := newFixtureWithPolicy(t, policy)
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)
	return &classScene{f: f, tournament: tournament, skeet: skeet, squad: f.squad(t, tournament.ID, skeet.ID, 1, nil)}
}

func (s *classScene) shooter(t *testing.T, last string, thrown, hit int) *models.Athlete {
	t.Helper()
	a := s.f.athlete(t, "Shooter", last)
	s.f.register(t, a.ID, s.tournament.ID, s.skeet.ID)
	s.f.assign(t, a.ID, s.squad.ID)
	_, err := s.f.ledger.RecordScore(context.Background(), RecordScoreInput{
		AthleteID:     a.ID,
		TournamentID:  s.tournament.ID,
		DisciplineID:  s.skeet.ID,
		Round:         1,
		TargetsThrown: thrown,
		TargetsHit:    hit,
		Final:         true,
	})
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	return a
}

func TestClassifyWithThresholds(t *testing.T) {
	s := newClassScene(t, classification.NewThresholdPolicy(50, nil))
	ctx := context.Background()
	expert := s.shooter(t, "Expert", 100, 99)
	novice := s.shooter(t, "Novice", 25, 25)
	fresh := s.f.athlete(t, "Fresh", "Face")

	tests := []struct {
		name      string
		athleteID int
		want      string
	}{
		{"high ratio", expert.ID, "AAA"},
		{"below minimum targets", novice.ID, "E"},
		{"no history", fresh.ID, "E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.f.classifier.Classify(ctx, tt.athleteID, "nssa")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Class != tt.want || got.GoverningBody != "NSSA" || got.Policy != classification.PolicyThreshold {
				t.Fatalf("classification = %+v, want class %s", got, tt.want)
			}
		})
	}

	athlete, err := s.f.roster.GetAthlete(ctx, expert.ID)
	if err != nil {
		t.Fatalf("GetAthlete: %v", err)
	}
	if athlete.Classes["NSSA"] != "AAA" {
		t.Fatalf("stored classes = %v", athlete.Classes)
	}
}

func TestClassifyRejections(t *testing.T) {
	s := newClassScene(t, classification.NewThresholdPolicy(50, nil))

	_, err := s.f.classifier.Classify(context.Background(), 1, "FITASC")
	assertKind(t, err, KindValidation)
	assertIs(t, err, ErrUnknownGoverningBody)

	_, err = s.f.classifier.Classify(context.Background(), 9999, "NSSA")
	assertIs(t, err, ErrAthleteNotFound)
}

func TestClassifyAllWithPercentiles(t *testing.T) {
	s := newClassScene(t, classification.NewPercentilePolicy(0))
	top := s.shooter(t, "Top", 50, 50)
	low := s.shooter(t, "Low", 50, 30)

	results, err := s.f.classifier.ClassifyAll(context.Background(), "NSSA")
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d classifications, want 2", len(results))
	}
	classes := make(map[int]string)
	for _, c := range results {
		classes[c.AthleteID] = c.Class
	}
	if classes[top.ID] != "AAA" || classes[low.ID] != "B" {
		t.Fatalf("classes = %v", classes)
	}

	board, err := s.f.leaderboards.GetLeaderboard(context.Background(), s.tournament.ID, s.skeet.ID, "class")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(board.Rows) != 2 || board.Rows[0].Rank != 1 || board.Rows[1].Rank != 1 {
		t.Fatalf("each class group should rank its only athlete first: %+v", board.Rows)
	}
}

func TestClassifyRefreshesClassGroupedLeaderboards(t *testing.T) {
	s := newClassScene(t, classification.NewPercentilePolicy(0))
	ctx := context.Background()
	s.shooter(t, "Top", 50, 50)
	low := s.shooter(t, "Low", 50, 30)

	before, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "class")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(before.Rows) != 2 || before.Rows[1].Rank != 2 {
		t.Fatalf("unclassified athletes should share one group: %+v", before.Rows)
	}

	invalidations := s.f.cache.invalidationCount(s.tournament.ID, s.skeet.ID)
	if _, err := s.f.classifier.Classify(ctx, low.ID, "NSSA"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if s.f.cache.invalidationCount(s.tournament.ID, s.skeet.ID) <= invalidations {
		t.Fatal("classification did not invalidate the leaderboard cache")
	}
	if _, err := s.f.classifier.ClassifyAll(ctx, "NSSA"); err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}

	after, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "class")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if after == before || len(after.Rows) != 2 || after.Rows[0].Rank != 1 || after.Rows[1].Rank != 1 {
		t.Fatalf("class-grouped board still shows old classes: %+v", after.Rows)
	}
}

func TestClassifyAllWithoutDisciplines(t *testing.T) {
	s := newClassScene(t, classification.NewThresholdPolicy(50, nil))
	results, err := s.f.classifier.ClassifyAll(context.Background(), "ATA")
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d classifications, want none", len(results))
	}
	if len(s.f.classifier.ListScales()) != 3 {
		t.Fatal("expected three scales")
	}
}
