package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type tournamentRepo struct{ s *Store }

func (r tournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	return r.s.write(ctx, func(st *state) error {
		if t.EndDate.Before(t.StartDate) {
			return repositories.ErrTournamentInvalidDates
		}
		seen := make(map[int]bool, len(t.Disciplines))
		for _, td := range t.Disciplines {
			if _, ok := st.disciplines[td.DisciplineID]; !ok {
				return repositories.ErrTournamentInvalidDiscipline
			}
			if seen[td.DisciplineID] {
				return repositories.ErrTournamentDisciplineDuplicate
			}
			seen[td.DisciplineID] = true
		}

		t.ID = st.nextID()
		t.CreatedAt = r.s.now()
		for i := range t.Disciplines {
			t.Disciplines[i].TournamentID = t.ID
		}
		st.tournaments[t.ID] = storedTournament(t)
		return nil
	})
}

func storedTournament(t *models.Tournament) models.Tournament {
	c := *t
	c.Disciplines = make([]models.TournamentDiscipline, len(t.Disciplines))
	for i, td := range t.Disciplines {
		td.Discipline = nil
		c.Disciplines[i] = td
	}
	return c
}

func (st *state) tournamentView(t models.Tournament) models.Tournament {
	out := t
	out.Disciplines = make([]models.TournamentDiscipline, len(t.Disciplines))
	for i, td := range t.Disciplines {
		if d, ok := st.disciplines[td.DisciplineID]; ok {
			td.Discipline = &d
		}
		out.Disciplines[i] = td
	}
	sort.Slice(out.Disciplines, func(i, j int) bool {
		return out.Disciplines[i].DisciplineID < out.Disciplines[j].DisciplineID
	})
	return out
}

func (r tournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.s.read(ctx, func(st *state) error {
		t, ok := st.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		v := st.tournamentView(t)
		out = &v
		return nil
	})
	return out, err
}

func (r tournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.tournaments {
			if filter.Status != nil && t.Status != *filter.Status {
				continue
			}
			out = append(out, st.tournamentView(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r tournamentRepo) ListOffers(ctx context.Context, disciplineIDs []int) ([]models.TournamentDiscipline, error) {
	offers := make([]models.TournamentDiscipline, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.tournaments {
			for _, td := range t.Disciplines {
				if slices.Contains(disciplineIDs, td.DisciplineID) {
					offers = append(offers, td)
				}
			}
		}
		return nil
	})
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].TournamentID != offers[j].TournamentID {
			return offers[i].TournamentID < offers[j].TournamentID
		}
		return offers[i].DisciplineID < offers[j].DisciplineID
	})
	return offers, err
}

func (r tournamentRepo) UpdateDates(ctx context.Context, id int, start, end time.Time) error {
	return r.s.write(ctx, func(st *state) error {
		t, ok := st.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		if end.Before(start) {
			return repositories.ErrTournamentInvalidDates
		}
		t.StartDate, t.EndDate = start, end
		st.tournaments[id] = t
		return nil
	})
}

func (r tournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	return r.s.write(ctx, func(st *state) error {
		t, ok := st.tournaments[id]
		if !ok {
			return repositories.ErrTournamentNotFound
		}
		t.Status = status
		st.tournaments[id] = t
		return nil
	})
}

func (r tournamentRepo) GetTournamentsForAutoStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error) {
	y, m, d := currentTime.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var out []*models.Tournament
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.tournaments {
			due := (t.Status == models.StatusUpcoming && !t.StartDate.After(currentTime)) ||
				(t.Status == models.StatusActive && t.EndDate.Before(today))
			if due {
				v := st.tournamentView(t)
				out = append(out, &v)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Tournament) int { return a.ID - b.ID })
	return out, err
}

type disciplineRepo struct{ s *Store }

func (r disciplineRepo) Create(ctx context.Context, d *models.Discipline) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.disciplines {
			if existing.Code == d.Code {
				return repositories.ErrDisciplineCodeConflict
			}
		}
		d.ID = st.nextID()
		st.disciplines[d.ID] = *d
		return nil
	})
}

func (r disciplineRepo) GetByID(ctx context.Context, id int) (*models.Discipline, error) {
	var out *models.Discipline
	err := r.s.read(ctx, func(st *state) error {
		d, ok := st.disciplines[id]
		if !ok {
			return repositories.ErrDisciplineNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r disciplineRepo) GetByCode(ctx context.Context, code string) (*models.Discipline, error) {
	var out *models.Discipline
	err := r.s.read(ctx, func(st *state) error {
		for _, d := range st.disciplines {
			if d.Code == code {
				out = &d
				return nil
			}
		}
		return repositories.ErrDisciplineNotFound
	})
	return out, err
}

func (r disciplineRepo) List(ctx context.Context) ([]models.Discipline, error) {
	return r.list(ctx, func(models.Discipline) bool { return true })
}

func (r disciplineRepo) ListByGoverningBody(ctx context.Context, body string) ([]models.Discipline, error) {
	return r.list(ctx, func(d models.Discipline) bool { return d.GoverningBody == body })
}

func (r disciplineRepo) list(ctx context.Context, keep func(models.Discipline) bool) ([]models.Discipline, error) {
	out := make([]models.Discipline, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, d := range st.disciplines {
			if keep(d) {
				out = append(out, d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
