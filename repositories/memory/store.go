// Package memory is an in-process implementation of the repository interfaces. It enforces the
// same uniqueness and reference rules as db/schema.sql and serializes transactions with a mutex,
// which makes it suitable for local runs and as the store behind service tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type classKey struct {
	athleteID int
	body      string
}

type state struct {
	seq int

	tournaments     map[int]models.Tournament
	disciplines     map[int]models.Discipline
	slots           map[int]models.TimeSlot
	squads          map[int]models.Squad
	members         map[int]models.SquadMember
	registrations   map[int]models.Registration
	athletes        map[int]models.Athlete
	teams           map[int]models.Team
	coaches         map[[2]int]models.Coach
	joinRequests    map[int]models.JoinRequest
	classifications map[classKey]models.AthleteClassification
	scores          map[int]models.Score
	corrections     map[int]models.ScoreCorrection
	batches         map[string]models.ImportBatch
	imported        map[int]models.ImportedScore
}

func newState() *state {
	return &state{
		tournaments:     make(map[int]models.Tournament),
		disciplines:     make(map[int]models.Discipline),
		slots:           make(map[int]models.TimeSlot),
		squads:          make(map[int]models.Squad),
		members:         make(map[int]models.SquadMember),
		registrations:   make(map[int]models.Registration),
		athletes:        make(map[int]models.Athlete),
		teams:           make(map[int]models.Team),
		coaches:         make(map[[2]int]models.Coach),
		joinRequests:    make(map[int]models.JoinRequest),
		classifications: make(map[classKey]models.AthleteClassification),
		scores:          make(map[int]models.Score),
		corrections:     make(map[int]models.ScoreCorrection),
		batches:         make(map[string]models.ImportBatch),
		imported:        make(map[int]models.ImportedScore),
	}
}

// clone copies every table. Stored values are never mutated in place, so a shallow copy of
// each map is enough to isolate a transaction's writes.
func (s *state) clone() *state {
	return &state{
		seq:             s.seq,
		tournaments:     maps.Clone(s.tournaments),
		disciplines:     maps.Clone(s.disciplines),
		slots:           maps.Clone(s.slots),
		squads:          maps.Clone(s.squads),
		members:         maps.Clone(s.members),
		registrations:   maps.Clone(s.registrations),
		athletes:        maps.Clone(s.athletes),
		teams:           maps.Clone(s.teams),
		coaches:         maps.Clone(s.coaches),
		joinRequests:    maps.Clone(s.joinRequests),
		classifications: maps.Clone(s.classifications),
		scores:          maps.Clone(s.scores),
		corrections:     maps.Clone(s.corrections),
		batches:         maps.Clone(s.batches),
		imported:        maps.Clone(s.imported),
	}
}

func (s *state) nextID() int {
	s.seq++
	return s.seq
}

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

type txKey struct{}

type txState struct {
	store *Store
	st    *state
}

var _ repositories.Transactor = (*Store)(nil)

// WithinTx runs fn against a private copy of the store and publishes the copy only when fn
// succeeds. Transactions are fully serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := s.txFrom(ctx); tx != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{store: s, st: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) txFrom(ctx context.Context) *txState {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.store == s {
		return tx
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if tx := s.txFrom(ctx); tx != nil {
		return fn(tx.st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if tx := s.txFrom(ctx); tx != nil {
		return fn(tx.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Tournaments() repositories.TournamentRepository     { return tournamentRepo{s} }
func (s *Store) Disciplines() repositories.DisciplineRepository     { return disciplineRepo{s} }
func (s *Store) TimeSlots() repositories.TimeSlotRepository         { return timeSlotRepo{s} }
func (s *Store) Squads() repositories.SquadRepository               { return squadRepo{s} }
func (s *Store) Registrations() repositories.RegistrationRepository { return registrationRepo{s} }
func (s *Store) Athletes() repositories.AthleteRepository           { return athleteRepo{s} }
func (s *Store) Teams() repositories.TeamRepository                 { return teamRepo{s} }
func (s *Store) Scores() repositories.ScoreRepository               { return scoreRepo{s} }
func (s *Store) Imports() repositories.ImportRepository             { return importRepo{s} }
