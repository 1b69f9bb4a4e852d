package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories/memory"
	"github.com/Dosada05/clay-tournament/storage"
)

var rangeOfficer = Actor{UserID: 1, Role: models.RoleAdmin}

var (
	day1 = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	day3 = time.Date(2026, time.May, 3, 0, 0, 0, 0, time.UTC)
)

// recordingCache is a SnapshotCache that remembers invalidations.
type recordingCache struct {
	mu            sync.Mutex
	entries       map[string]*models.LeaderboardSnapshot
	generations   map[[2]int]int64
	invalidations [][2]int
	// beforeSet, when set, runs once at the start of the next Set.
	beforeSet     func()
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     make(map[string]*models.LeaderboardSnapshot),
		generations: make(map[[2]int]int64),
	}
}

func (c *recordingCache) Get(_ context.Context, key string) (*models.LeaderboardSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return s, nil
}

func (c *recordingCache) Generation(_ context.Context, tournamentID, disciplineID int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[[2]int{tournamentID, disciplineID}], nil
}

func (c *recordingCache) Set(_ context.Context, key string, generation int64, s *models.LeaderboardSnapshot) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[[2]int{s.TournamentID, s.DisciplineID}] != generation {
		return nil
	}
	c.entries[key] = s
	return nil
}

func (c *recordingCache) InvalidateDiscipline(_ context.Context, tournamentID, disciplineID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations = append(c.invalidations, [2]int{tournamentID, disciplineID})
	c.generations[[2]int{tournamentID, disciplineID}]++
	for key := range c.entries {
		if strings.HasPrefix(key, cache.LeaderboardKey(tournamentID, disciplineID, nil)) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *recordingCache) Close() error { return nil }

func (c *recordingCache) invalidated(tournamentID, disciplineID int) bool {
	return c.invalidationCount(tournamentID, disciplineID) > 0
}

func (c *recordingCache) invalidationCount(tournamentID, disciplineID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, inv := range c.invalidations {
		if inv == [2]int{tournamentID, disciplineID} {
			n++
		}
	}
	return n
}

type fixture struct {
	store    *memory.Store
	cache    *recordingCache
	uploader *storage.MemoryUploader

	tournaments   TournamentService
	disciplines   DisciplineService
	registrations RegistrationService
	scheduler     SchedulerService
	ledger        LedgerService
	leaderboards  LeaderboardService
	classifier    ClassificationService
	roster        RosterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithPolicy(t, classification.NewThresholdPolicy(50, nil))
}

func newFixtureWithPolicy(t *testing.T, policy classification.Policy) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := memory.New()
	snapshots := newRecordingCache()
	uploader := storage.NewMemoryUploader("https://files.example.test")

	return &fixture{
		store:    store,
		cache:    snapshots,
		uploader: uploader,

		tournaments:   NewTournamentService(store, store.Tournaments(), store.Squads(), store.TimeSlots(), logger),
		disciplines:   NewDisciplineService(store.Disciplines()),
		registrations: NewRegistrationService(store, store.Registrations(), store.Tournaments(), store.Athletes(), store.Teams(), store.Squads(), logger),
		scheduler:     NewSchedulerService(store, store.Tournaments(), store.TimeSlots(), store.Squads(), store.Registrations(), store.Athletes(), store.Scores(), logger),
		ledger:        NewLedgerService(store, store.Scores(), store.Imports(), store.Tournaments(), store.Disciplines(), store.Athletes(), store.Teams(), store.Registrations(), store.Squads(), snapshots, uploader, logger),
		leaderboards:  NewLeaderboardService(store.Tournaments(), store.Scores(), snapshots, uploader, logger),
		classifier:    NewClassificationService(policy, store.Athletes(), store.Disciplines(), store.Scores(), store.Tournaments(), snapshots, logger),
		roster:        NewRosterService(store, store.Athletes(), store.Teams(), logger),
	}
}

func (f *fixture) discipline(t *testing.T, code, body string) *models.Discipline {
	t.Helper()
	d, err := f.disciplines.CreateDiscipline(context.Background(), CreateDisciplineInput{Code: code, Name: strings.ToUpper(code), GoverningBody: body})
	if err != nil {
		t.Fatalf("CreateDiscipline(%s): %v", code, err)
	}
	return d
}

func (f *fixture) tournament(t *testing.T, disciplines ...*models.Discipline) *models.Tournament {
	t.Helper()
	input := CreateTournamentInput{Name: "Spring Open", Location: "Range", StartDate: day1, EndDate: day3}
	for _, d := range disciplines {
		input.Disciplines = append(input.Disciplines, TournamentDisciplineInput{DisciplineID: d.ID, Rounds: 4})
	}
	tournament, err := f.tournaments.CreateTournament(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	return tournament
}

func (f *fixture) athlete(t *testing.T, first, last string) *models.Athlete {
	t.Helper()
	a, err := f.roster.CreateAthlete(context.Background(), CreateAthleteInput{
		FirstName: first,
		LastName:  last,
		Gender:    models.GenderMale,
		Division:  "Open",
	})
	if err != nil {
		t.Fatalf("CreateAthlete(%s %s): %v", first, last, err)
	}
	return a
}

func (f *fixture) register(t *testing.T, athleteID, tournamentID int, disciplineIDs ...int) {
	t.Helper()
	if _, err := f.registrations.Register(context.Background(), rangeOfficer, athleteID, tournamentID, disciplineIDs); err != nil {
		t.Fatalf("Register(%d, %d): %v", athleteID, tournamentID, err)
	}
}

func (f *fixture) slot(t *testing.T, tournamentID, capacity int, hour int) *models.TimeSlot {
	t.Helper()
	slot, err := f.scheduler.CreateTimeSlot(context.Background(), tournamentID, CreateTimeSlotInput{
		StartTime: day1.Add(time.Duration(hour) * time.Hour),
		Capacity:  capacity,
	})
	if err != nil {
		t.Fatalf("CreateTimeSlot: %v", err)
	}
	return slot
}

func (f *fixture) squad(t *testing.T, tournamentID, disciplineID, round int, slot *models.TimeSlot) *models.Squad {
	t.Helper()
	input := CreateSquadInput{DisciplineID: disciplineID, Round: round, Name: "Squad"}
	if slot != nil {
		input.TimeSlotID = &slot.ID
	}
	squad, err := f.scheduler.CreateSquad(context.Background(), tournamentID, input)
	if err != nil {
		t.Fatalf("CreateSquad: %v", err)
	}
	return squad
}

func (f *fixture) assign(t *testing.T, athleteID, squadID int) {
	t.Helper()
	if _, err := f.scheduler.AssignAthleteToSquad(context.Background(), athleteID, squadID); err != nil {
		t.Fatalf("AssignAthleteToSquad(%d, %d): %v", athleteID, squadID, err)
	}
}

// squadOf creates n registered athletes and puts them in a new squad.
func (f *fixture) squadOf(t *testing.T, tournament *models.Tournament, disciplineID, n int, slot *models.TimeSlot) *models.Squad {
	t.Helper()
	squad := f.squad(t, tournament.ID, disciplineID, 1, slot)
	for i := 0; i < n; i++ {
		a := f.athlete(t, "Shooter", strings.Repeat("x", i+1))
		f.register(t, a.ID, tournament.ID, disciplineID)
		f.assign(t, a.ID, squad.ID)
	}
	loaded, err := f.scheduler.GetSquad(context.Background(), squad.ID)
	if err != nil {
		t.Fatalf("GetSquad(%d): %v", squad.ID, err)
	}
	if len(loaded.Members) != n {
		t.Fatalf("squad %d has %d members, want %d", squad.ID, len(loaded.Members), n)
	}
	return loaded
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %q, want %q (err: %v)", got, want, err)
	}
}

func assertIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}
