package memory

import (
	"context"
	"sort"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

func (st *state) athleteView(a models.Athlete) models.Athlete {
	if a.UserID != nil {
		uid := *a.UserID
		a.UserID = &uid
	}
	if a.TeamID != nil {
		tid := *a.TeamID
		a.TeamID = &tid
		if t, ok := st.teams[tid]; ok {
			a.Team = &models.Team{ID: t.ID, Name: t.Name, IsIndividual: t.IsIndividual}
		}
	}
	a.Classes = nil
	for key, c := range st.classifications {
		if key.athleteID != a.ID {
			continue
		}
		if a.Classes == nil {
			a.Classes = make(map[string]string)
		}
		a.Classes[c.GoverningBody] = c.Class
	}
	return a
}

type athleteRepo struct{ s *Store }

func (r athleteRepo) Create(ctx context.Context, a *models.Athlete) error {
	return r.s.write(ctx, func(st *state) error {
		if a.UserID != nil {
			for _, existing := range st.athletes {
				if existing.UserID != nil && *existing.UserID == *a.UserID {
					return repositories.ErrAthleteUserConflict
				}
			}
		}
		if a.TeamID != nil {
			if _, ok := st.teams[*a.TeamID]; !ok {
				return repositories.ErrAthleteInvalidTeam
			}
		}
		a.ID = st.nextID()
		a.CreatedAt = r.s.now()
		stored := *a
		stored.Team, stored.Classes = nil, nil
		if a.UserID != nil {
			uid := *a.UserID
			stored.UserID = &uid
		}
		if a.TeamID != nil {
			tid := *a.TeamID
			stored.TeamID = &tid
		}
		st.athletes[a.ID] = stored
		return nil
	})
}

func (r athleteRepo) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	var out *models.Athlete
	err := r.s.read(ctx, func(st *state) error {
		a, ok := st.athletes[id]
		if !ok {
			return repositories.ErrAthleteNotFound
		}
		v := st.athleteView(a)
		out = &v
		return nil
	})
	return out, err
}

func (r athleteRepo) UpdateTeam(ctx context.Context, athleteID int, teamID *int) error {
	return r.s.write(ctx, func(st *state) error {
		a, ok := st.athletes[athleteID]
		if !ok {
			return repositories.ErrAthleteNotFound
		}
		if teamID != nil {
			if _, ok := st.teams[*teamID]; !ok {
				return repositories.ErrAthleteInvalidTeam
			}
			tid := *teamID
			a.TeamID = &tid
		} else {
			a.TeamID = nil
		}
		st.athletes[athleteID] = a
		return nil
	})
}

func (r athleteRepo) UpsertClassification(ctx context.Context, c *models.AthleteClassification) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.athletes[c.AthleteID]; !ok {
			return repositories.ErrAthleteNotFound
		}
		st.classifications[classKey{athleteID: c.AthleteID, body: c.GoverningBody}] = *c
		return nil
	})
}

func (r athleteRepo) ListClassifications(ctx context.Context, athleteID int) ([]models.AthleteClassification, error) {
	out := make([]models.AthleteClassification, 0)
	err := r.s.read(ctx, func(st *state) error {
		for key, c := range st.classifications {
			if key.athleteID == athleteID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].GoverningBody < out[j].GoverningBody })
	return out, err
}

type teamRepo struct{ s *Store }

func storedTeam(t *models.Team) models.Team {
	c := *t
	if t.TournamentID != nil {
		id := *t.TournamentID
		c.TournamentID = &id
	}
	c.Coaches, c.Athletes = nil, nil
	return c
}

func (r teamRepo) Create(ctx context.Context, t *models.Team) error {
	return r.s.write(ctx, func(st *state) error {
		if !t.IsIndividual {
			for _, existing := range st.teams {
				if !existing.IsIndividual && existing.Name == t.Name {
					return repositories.ErrTeamNameConflict
				}
			}
		}
		t.ID = st.nextID()
		t.CreatedAt = r.s.now()
		st.teams[t.ID] = storedTeam(t)
		return nil
	})
}

func (r teamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	var out *models.Team
	err := r.s.read(ctx, func(st *state) error {
		t, ok := st.teams[id]
		if !ok {
			return repositories.ErrTeamNotFound
		}
		v := storedTeam(&t)
		out = &v
		return nil
	})
	return out, err
}

func (r teamRepo) GetOrCreateIndividual(ctx context.Context, tournamentID int) (*models.Team, error) {
	var out *models.Team
	err := r.s.write(ctx, func(st *state) error {
		for _, t := range st.teams {
			if t.IsIndividual && t.TournamentID != nil && *t.TournamentID == tournamentID {
				v := storedTeam(&t)
				out = &v
				return nil
			}
		}
		tid := tournamentID
		t := models.Team{
			ID:           st.nextID(),
			Name:         models.IndividualTeamName,
			TournamentID: &tid,
			IsIndividual: true,
			CreatedAt:    r.s.now(),
		}
		st.teams[t.ID] = t
		v := storedTeam(&t)
		out = &v
		return nil
	})
	return out, err
}

func (r teamRepo) AddCoach(ctx context.Context, c models.Coach) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.teams[c.TeamID]; !ok {
			return repositories.ErrTeamNotFound
		}
		key := [2]int{c.TeamID, c.UserID}
		if _, exists := st.coaches[key]; exists {
			return repositories.ErrCoachConflict
		}
		st.coaches[key] = c
		return nil
	})
}

func (r teamRepo) IsCoach(ctx context.Context, teamID, userID int) (bool, error) {
	var ok bool
	err := r.s.read(ctx, func(st *state) error {
		_, ok = st.coaches[[2]int{teamID, userID}]
		return nil
	})
	return ok, err
}

func (r teamRepo) ListCoaches(ctx context.Context, teamID int) ([]models.Coach, error) {
	out := make([]models.Coach, 0)
	err := r.s.read(ctx, func(st *state) error {
		for key, c := range st.coaches {
			if key[0] == teamID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, err
}

func (r teamRepo) ListAthletes(ctx context.Context, teamID int) ([]models.Athlete, error) {
	out := make([]models.Athlete, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, a := range st.athletes {
			if a.TeamID != nil && *a.TeamID == teamID {
				v := st.athleteView(a)
				v.Team, v.Classes = nil, nil
				out = append(out, v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r teamRepo) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.teams[req.TeamID]; !ok {
			return repositories.ErrJoinRequestInvalidFK
		}
		if _, ok := st.athletes[req.AthleteID]; !ok {
			return repositories.ErrJoinRequestInvalidFK
		}
		if req.Status == models.JoinRequestPending {
			for _, existing := range st.joinRequests {
				if existing.TeamID == req.TeamID && existing.AthleteID == req.AthleteID &&
					existing.Status == models.JoinRequestPending {
					return repositories.ErrJoinRequestConflict
				}
			}
		}
		req.ID = st.nextID()
		req.CreatedAt = r.s.now()
		st.joinRequests[req.ID] = *req
		return nil
	})
}
