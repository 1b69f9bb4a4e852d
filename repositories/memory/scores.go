package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type scoreRepo struct{ s *Store }

func storedScore(s *models.Score) models.Score {
	c := *s
	c.Stations = slices.Clone(s.Stations)
	if s.DurationSeconds != nil {
		d := *s.DurationSeconds
		c.DurationSeconds = &d
	}
	if s.Notes != nil {
		n := *s.Notes
		c.Notes = &n
	}
	return c
}

func (r scoreRepo) GetByKey(ctx context.Context, athleteID int, shoot models.ShootRef, station int) (*models.Score, error) {
	var out *models.Score
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.scores {
			if sc.AthleteID == athleteID && sc.Shoot() == shoot && sc.Station == station {
				v := storedScore(&sc)
				out = &v
				return nil
			}
		}
		return repositories.ErrScoreNotFound
	})
	return out, err
}

func (r scoreRepo) GetByID(ctx context.Context, id int) (*models.Score, error) {
	var out *models.Score
	err := r.s.read(ctx, func(st *state) error {
		sc, ok := st.scores[id]
		if !ok {
			return repositories.ErrScoreNotFound
		}
		v := storedScore(&sc)
		out = &v
		return nil
	})
	return out, err
}

func (r scoreRepo) GetForUpdate(ctx context.Context, id int) (*models.Score, error) {
	return r.GetByID(ctx, id)
}

func checkScoreValues(s *models.Score) error {
	if s.TargetsThrown < 0 || s.TargetsHit < 0 || s.TargetsHit > s.TargetsThrown {
		return repositories.ErrScoreInvalidValues
	}
	return nil
}

func (r scoreRepo) Create(ctx context.Context, s *models.Score) error {
	return r.s.write(ctx, func(st *state) error {
		if err := checkScoreValues(s); err != nil {
			return err
		}
		_, okAthlete := st.athletes[s.AthleteID]
		_, okTournament := st.tournaments[s.TournamentID]
		_, okDiscipline := st.disciplines[s.DisciplineID]
		if !okAthlete || !okTournament || !okDiscipline {
			return repositories.ErrScoreInvalidShoot
		}
		for _, existing := range st.scores {
			if existing.AthleteID == s.AthleteID && existing.Shoot() == s.Shoot() && existing.Station == s.Station {
				return repositories.ErrScoreConflict
			}
		}
		s.ID = st.nextID()
		s.Version = 1
		s.CreatedAt = r.s.now()
		s.UpdatedAt = s.CreatedAt
		st.scores[s.ID] = storedScore(s)
		return nil
	})
}

func (r scoreRepo) Update(ctx context.Context, s *models.Score) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.scores[s.ID]
		if !ok || existing.Version != s.Version {
			return repositories.ErrScoreVersionConflict
		}
		if err := checkScoreValues(s); err != nil {
			return err
		}
		existing.TargetsThrown = s.TargetsThrown
		existing.TargetsHit = s.TargetsHit
		existing.DurationSeconds = s.DurationSeconds
		existing.Notes = s.Notes
		existing.Stations = s.Stations
		existing.Finalized = s.Finalized
		existing.Version++
		existing.UpdatedAt = r.s.now()
		st.scores[s.ID] = storedScore(&existing)

		s.Version = existing.Version
		s.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func (r scoreRepo) ListByAthlete(ctx context.Context, athleteID, tournamentID int) ([]models.Score, error) {
	out := make([]models.Score, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.scores {
			if sc.AthleteID == athleteID && sc.TournamentID == tournamentID {
				out = append(out, storedScore(&sc))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DisciplineID != b.DisciplineID {
			return a.DisciplineID < b.DisciplineID
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Station < b.Station
	})
	return out, err
}

func (r scoreRepo) FinalizeShoot(ctx context.Context, shoot models.ShootRef) (int, error) {
	n := 0
	err := r.s.write(ctx, func(st *state) error {
		now := r.s.now()
		for id, sc := range st.scores {
			if sc.Shoot() == shoot && !sc.Finalized {
				sc.Finalized = true
				sc.Version++
				sc.UpdatedAt = now
				st.scores[id] = sc
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r scoreRepo) StationsRecorded(ctx context.Context, athleteID int, shoot models.ShootRef) ([]int, error) {
	stations := make([]int, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.scores {
			if sc.AthleteID == athleteID && sc.Shoot() == shoot {
				stations = append(stations, sc.Station)
			}
		}
		return nil
	})
	slices.Sort(stations)
	return stations, err
}

func (r scoreRepo) ScoredAthletes(ctx context.Context, shoot models.ShootRef) ([]int, error) {
	ids := make([]int, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.scores {
			if sc.Shoot() == shoot && !slices.Contains(ids, sc.AthleteID) {
				ids = append(ids, sc.AthleteID)
			}
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

func (r scoreRepo) CreateCorrection(ctx context.Context, c *models.ScoreCorrection) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.scores[c.ScoreID]; !ok {
			return repositories.ErrScoreInvalidShoot
		}
		c.ID = st.nextID()
		c.CreatedAt = r.s.now()
		stored := *c
		stored.PrevStations = slices.Clone(c.PrevStations)
		stored.NewStations = slices.Clone(c.NewStations)
		st.corrections[c.ID] = stored
		return nil
	})
}

func (r scoreRepo) ListCorrections(ctx context.Context, scoreID int) ([]models.ScoreCorrection, error) {
	out := make([]models.ScoreCorrection, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, c := range st.corrections {
			if c.ScoreID == scoreID {
				c.PrevStations = slices.Clone(c.PrevStations)
				c.NewStations = slices.Clone(c.NewStations)
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r scoreRepo) LedgerEntries(ctx context.Context, tournamentID, disciplineID int, governingBody string) ([]models.LedgerEntry, error) {
	byAthlete := make(map[int]*models.LedgerEntry)
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.scores {
			if !sc.Finalized || sc.TournamentID != tournamentID || sc.DisciplineID != disciplineID {
				continue
			}
			e, ok := byAthlete[sc.AthleteID]
			if !ok {
				a := st.athletes[sc.AthleteID]
				e = &models.LedgerEntry{
					AthleteID: a.ID,
					FirstName: a.FirstName,
					LastName:  a.LastName,
					Gender:    a.Gender,
					Division:  a.Division,
				}
				if c, ok := st.classifications[classKey{athleteID: a.ID, body: governingBody}]; ok {
					e.Class = c.Class
				}
				if reg, ok := st.registrationFor(a.ID, tournamentID); ok && reg.TeamID != nil {
					e.TeamName = st.teams[*reg.TeamID].Name
				}
				byAthlete[sc.AthleteID] = e
			}
			e.TargetsThrown += sc.TargetsThrown
			e.TargetsHit += sc.TargetsHit
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]models.LedgerEntry, 0, len(byAthlete))
	for _, e := range byAthlete {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AthleteID < entries[j].AthleteID })
	return entries, nil
}

func (st *state) historyTotals(disciplineIDs []int, athleteID int) map[int]*models.AthleteTotals {
	totals := make(map[int]*models.AthleteTotals)
	for _, sc := range st.scores {
		if !sc.Finalized || !slices.Contains(disciplineIDs, sc.DisciplineID) {
			continue
		}
		if athleteID != 0 && sc.AthleteID != athleteID {
			continue
		}
		t, ok := totals[sc.AthleteID]
		if !ok {
			t = &models.AthleteTotals{AthleteID: sc.AthleteID}
			totals[sc.AthleteID] = t
		}
		t.TargetsThrown += sc.TargetsThrown
		t.TargetsHit += sc.TargetsHit
	}
	return totals
}

func (r scoreRepo) HistoryTotals(ctx context.Context, disciplineIDs []int) ([]models.AthleteTotals, error) {
	out := make([]models.AthleteTotals, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.historyTotals(disciplineIDs, 0) {
			out = append(out, *t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AthleteID < out[j].AthleteID })
	return out, err
}

func (r scoreRepo) AthleteHistory(ctx context.Context, athleteID int, disciplineIDs []int) (models.AthleteTotals, error) {
	out := models.AthleteTotals{AthleteID: athleteID}
	err := r.s.read(ctx, func(st *state) error {
		if t, ok := st.historyTotals(disciplineIDs, athleteID)[athleteID]; ok {
			out = *t
		}
		return nil
	})
	return out, err
}

type importRepo struct{ s *Store }

func (r importRepo) CreateBatch(ctx context.Context, b *models.ImportBatch) error {
	return r.s.write(ctx, func(st *state) error {
		b.CreatedAt = r.s.now()
		stored := *b
		if b.FileKey != nil {
			k := *b.FileKey
			stored.FileKey = &k
		}
		stored.FileURL = nil
		st.batches[b.ID] = stored
		return nil
	})
}

func (r importRepo) GetBatch(ctx context.Context, id string) (*models.ImportBatch, error) {
	var out *models.ImportBatch
	err := r.s.read(ctx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return repositories.ErrImportBatchNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r importRepo) UpsertScore(ctx context.Context, s *models.ImportedScore) error {
	return r.s.write(ctx, func(st *state) error {
		for id, existing := range st.imported {
			if existing.ScoreID == s.ScoreID {
				s.ID = id
				s.ImportedAt = r.s.now()
				st.imported[id] = *s
				return nil
			}
		}
		s.ID = st.nextID()
		s.ImportedAt = r.s.now()
		st.imported[s.ID] = *s
		return nil
	})
}

func (r importRepo) ListByBatch(ctx context.Context, batchID string) ([]models.ImportedScore, error) {
	out := make([]models.ImportedScore, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, s := range st.imported {
			if s.BatchID == batchID {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AthleteName != b.AthleteName {
			return a.AthleteName < b.AthleteName
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Station < b.Station
	})
	return out, err
}
