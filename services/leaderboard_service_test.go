package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/storage"
)

type boardScene struct {
	f          *fixture
	tournament *models.Tournament
	skeet      *models.Discipline
	x, y, z    *models.Athlete
}

// newBoardScene squads X, Y and Z together in round 1 of skeet.
func newBoardScene(t *testing.T) *boardScene {
	t.Helper()
	f := newFixture(t)
	skeet := f.discipline(t, "skeet", "NSSA")
	tournament := f.tournament(t, skeet)
	squad := f.squad(t, tournament.ID, skeet.ID, 1, nil)

	s := &boardScene{f: f, tournament: tournament, skeet: skeet}
	s.x = f.athlete(t, "Shooter", "X")
	s.y = f.athlete(t, "Shooter", "Y")
	s.z = f.athlete(t, "Shooter", "Z")
	for _, a := range []*models.Athlete{s.z, s.y, s.x} {
		f.register(t, a.ID, tournament.ID, skeet.ID)
		f.assign(t, a.ID, squad.ID)
	}
	return s
}

func (s *boardScene) record(t *testing.T, a *models.Athlete, thrown, hit int, final bool) {
	t.Helper()
	_, err := s.f.ledger.RecordScore(context.Background(), RecordScoreInput{
		AthleteID:     a.ID,
		TournamentID:  s.tournament.ID,
		DisciplineID:  s.skeet.ID,
		Round:         1,
		TargetsThrown: thrown,
		TargetsHit:    hit,
		Final:         final,
	})
	if err != nil {
		t.Fatalf("RecordScore(%s): %v", a.DisplayName(), err)
	}
}

func TestLeaderboardSharesRankOnExactTie(t *testing.T) {
	s := newBoardScene(t)
	s.record(t, s.y, 25, 23, true)
	s.record(t, s.x, 25, 23, true)
	s.record(t, s.z, 25, 21, true)

	board, err := s.f.leaderboards.GetLeaderboard(context.Background(), s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}

	want := []struct {
		athleteID int
		rank      int
	}{
		{s.x.ID, 1},
		{s.y.ID, 1},
		{s.z.ID, 3},
	}
	if len(board.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(board.Rows), len(want))
	}
	for i, w := range want {
		row := board.Rows[i]
		if row.AthleteID != w.athleteID || row.Rank != w.rank {
			t.Fatalf("row %d = athlete %d rank %d, want athlete %d rank %d", i, row.AthleteID, row.Rank, w.athleteID, w.rank)
		}
	}
	if g := board.Rows[0].Group; g.Division != "Open" || g.Gender != "male" {
		t.Fatalf("group = %+v", g)
	}
	if board.Rows[0].TeamName != models.IndividualTeamName {
		t.Fatalf("team name = %q", board.Rows[0].TeamName)
	}
}

func TestLeaderboardIgnoresUnfinalizedScores(t *testing.T) {
	s := newBoardScene(t)
	s.record(t, s.x, 25, 25, false)
	s.record(t, s.y, 25, 20, true)

	board, err := s.f.leaderboards.GetLeaderboard(context.Background(), s.tournament.ID, s.skeet.ID, "division")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(board.Rows) != 1 || board.Rows[0].AthleteID != s.y.ID {
		t.Fatalf("rows = %+v, want only Y", board.Rows)
	}
	if board.Rows[0].Group.Gender != "" {
		t.Fatalf("gender should not be a grouping dimension: %+v", board.Rows[0].Group)
	}
}

func TestLeaderboardCacheIsInvalidatedByWrites(t *testing.T) {
	s := newBoardScene(t)
	ctx := context.Background()
	s.record(t, s.x, 25, 20, true)

	first, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	cached, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "gender,division")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if cached != first {
		t.Fatal("equivalent grouping was not served from cache")
	}

	s.record(t, s.y, 25, 24, true)
	fresh, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if fresh == first || len(fresh.Rows) != 2 || fresh.Rows[0].AthleteID != s.y.ID {
		t.Fatalf("stale leaderboard after write: %+v", fresh.Rows)
	}
}

func TestLeaderboardComputedBeforeWriteIsNotCached(t *testing.T) {
	s := newBoardScene(t)
	ctx := context.Background()
	s.record(t, s.x, 25, 20, true)

	// A score commits between the ledger read and the cache write.
	var writeErr error
	s.f.cache.beforeSet = func() {
		_, writeErr = s.f.ledger.RecordScore(ctx, RecordScoreInput{
			AthleteID:     s.y.ID,
			TournamentID:  s.tournament.ID,
			DisciplineID:  s.skeet.ID,
			Round:         1,
			TargetsThrown: 25,
			TargetsHit:    24,
			Final:         true,
		})
	}
	stale, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if writeErr != nil {
		t.Fatalf("RecordScore: %v", writeErr)
	}
	if len(stale.Rows) != 1 {
		t.Fatalf("first read rows = %+v, want the pre-write board", stale.Rows)
	}

	fresh, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(fresh.Rows) != 2 || fresh.Rows[0].AthleteID != s.y.ID {
		t.Fatalf("rows after write = %+v, want Y on top", fresh.Rows)
	}
}

func TestLeaderboardRejections(t *testing.T) {
	s := newBoardScene(t)
	ctx := context.Background()

	_, err := s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, s.skeet.ID, "team")
	assertKind(t, err, KindValidation)
	assertIs(t, err, ErrInvalidGroupBy)

	_, err = s.f.leaderboards.GetLeaderboard(ctx, 9999, s.skeet.ID, "")
	assertIs(t, err, ErrTournamentNotFound)

	_, err = s.f.leaderboards.GetLeaderboard(ctx, s.tournament.ID, 9999, "")
	assertIs(t, err, ErrDisciplineNotOffered)
}

func TestPublishLeaderboard(t *testing.T) {
	s := newBoardScene(t)
	s.record(t, s.x, 25, 22, true)

	published, err := s.f.leaderboards.PublishLeaderboard(context.Background(), s.tournament.ID, s.skeet.ID, "")
	if err != nil {
		t.Fatalf("PublishLeaderboard: %v", err)
	}
	if _, ok := s.f.uploader.Object(published.Key); !ok {
		t.Fatalf("snapshot %s not stored", published.Key)
	}
	body, ok := s.f.uploader.Object(storage.LatestLeaderboardKey(s.tournament.ID, s.skeet.ID))
	if !ok {
		t.Fatal("latest snapshot not stored")
	}
	var snapshot models.LeaderboardSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		t.Fatalf("decode latest snapshot: %v", err)
	}
	if len(snapshot.Rows) != 1 || snapshot.Rows[0].AthleteID != s.x.ID {
		t.Fatalf("published rows = %+v", snapshot.Rows)
	}
	if published.LatestURL == "" || published.URL == published.LatestURL {
		t.Fatalf("urls = %q, %q", published.URL, published.LatestURL)
	}
}

func TestRefreshTournament(t *testing.T) {
	f := newFixture(t)
	skeet := f.discipline(t, "skeet", "NSSA")
	trap := f.discipline(t, "trap", "ATA")
	tournament := f.tournament(t, skeet, trap)

	snapshots, err := f.leaderboards.RefreshTournament(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("RefreshTournament: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	for _, snap := range snapshots {
		if snap == nil || len(snap.Rows) != 0 {
			t.Fatalf("snapshot = %+v, want empty board", snap)
		}
		if !f.cache.invalidated(tournament.ID, snap.DisciplineID) {
			t.Fatalf("discipline %d was not invalidated", snap.DisciplineID)
		}
	}
}
