package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

func (st *state) occupancy(slotID int) int {
	n := 0
	for _, m := range st.members {
		if sq, ok := st.squads[m.SquadID]; ok && sq.TimeSlotID != nil && *sq.TimeSlotID == slotID {
			n++
		}
	}
	return n
}

func (st *state) slotView(ts models.TimeSlot) models.TimeSlot {
	ts.Occupancy = st.occupancy(ts.ID)
	return ts
}

type timeSlotRepo struct{ s *Store }

func (r timeSlotRepo) Create(ctx context.Context, ts *models.TimeSlot) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.tournaments[ts.TournamentID]; !ok {
			return repositories.ErrTimeSlotInvalidTournament
		}
		ts.ID = st.nextID()
		ts.CreatedAt = r.s.now()
		ts.Occupancy = 0
		st.slots[ts.ID] = *ts
		return nil
	})
}

func (r timeSlotRepo) GetByID(ctx context.Context, id int) (*models.TimeSlot, error) {
	var out *models.TimeSlot
	err := r.s.read(ctx, func(st *state) error {
		ts, ok := st.slots[id]
		if !ok {
			return repositories.ErrTimeSlotNotFound
		}
		v := st.slotView(ts)
		out = &v
		return nil
	})
	return out, err
}

// LockByIDs needs no row locks here: the caller's transaction already holds the store mutex.
func (r timeSlotRepo) LockByIDs(ctx context.Context, ids []int) ([]*models.TimeSlot, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]*models.TimeSlot, 0, len(sorted))
	err := r.s.read(ctx, func(st *state) error {
		for _, id := range sorted {
			if ts, ok := st.slots[id]; ok {
				v := st.slotView(ts)
				out = append(out, &v)
			}
		}
		return nil
	})
	return out, err
}

func (r timeSlotRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.TimeSlot, error) {
	out := make([]models.TimeSlot, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, ts := range st.slots {
			if ts.TournamentID == tournamentID {
				out = append(out, st.slotView(ts))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r timeSlotRepo) Delete(ctx context.Context, id int) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.slots[id]; !ok {
			return repositories.ErrTimeSlotNotFound
		}
		for _, sq := range st.squads {
			if sq.TimeSlotID != nil && *sq.TimeSlotID == id {
				return repositories.ErrTimeSlotInUse
			}
		}
		delete(st.slots, id)
		return nil
	})
}

type squadRepo struct{ s *Store }

func storedSquad(sq *models.Squad) models.Squad {
	c := *sq
	if sq.TimeSlotID != nil {
		id := *sq.TimeSlotID
		c.TimeSlotID = &id
	}
	c.TimeSlot = nil
	c.Members = nil
	return c
}

func (r squadRepo) Create(ctx context.Context, sq *models.Squad) error {
	return r.s.write(ctx, func(st *state) error {
		if sq.TimeSlotID != nil {
			if _, ok := st.slots[*sq.TimeSlotID]; !ok {
				return repositories.ErrSquadInvalidSlot
			}
		}
		if _, ok := st.disciplines[sq.DisciplineID]; !ok {
			return repositories.ErrSquadInvalidShoot
		}
		sq.ID = st.nextID()
		sq.CreatedAt = r.s.now()
		sq.UpdatedAt = sq.CreatedAt
		st.squads[sq.ID] = storedSquad(sq)
		return nil
	})
}

func (r squadRepo) GetByID(ctx context.Context, id int) (*models.Squad, error) {
	var out *models.Squad
	err := r.s.read(ctx, func(st *state) error {
		sq, ok := st.squads[id]
		if !ok {
			return repositories.ErrSquadNotFound
		}
		v := storedSquad(&sq)
		out = &v
		return nil
	})
	return out, err
}

func (r squadRepo) GetForUpdate(ctx context.Context, id int) (*models.Squad, error) {
	return r.GetByID(ctx, id)
}

func (r squadRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Squad, error) {
	out := make([]models.Squad, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, sq := range st.squads {
			if sq.TournamentID == tournamentID {
				out = append(out, storedSquad(&sq))
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
		return a.ID < b.ID
	})
	return out, err
}

func (r squadRepo) UpdateTimeSlot(ctx context.Context, id, timeSlotID int, squadState models.SquadState) error {
	return r.s.write(ctx, func(st *state) error {
		sq, ok := st.squads[id]
		if !ok {
			return repositories.ErrSquadNotFound
		}
		if _, ok := st.slots[timeSlotID]; !ok {
			return repositories.ErrSquadInvalidSlot
		}
		slotID := timeSlotID
		sq.TimeSlotID = &slotID
		sq.State = squadState
		sq.UpdatedAt = r.s.now()
		st.squads[id] = sq
		return nil
	})
}

func (r squadRepo) Delete(ctx context.Context, id int) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.squads[id]; !ok {
			return repositories.ErrSquadNotFound
		}
		for mid, m := range st.members {
			if m.SquadID == id {
				delete(st.members, mid)
			}
		}
		delete(st.squads, id)
		return nil
	})
}

func (r squadRepo) CountByTimeSlot(ctx context.Context, timeSlotID int) (int, error) {
	n := 0
	err := r.s.read(ctx, func(st *state) error {
		for _, sq := range st.squads {
			if sq.TimeSlotID != nil && *sq.TimeSlotID == timeSlotID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r squadRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	n := 0
	err := r.s.read(ctx, func(st *state) error {
		for _, sq := range st.squads {
			if sq.TournamentID == tournamentID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (st *state) registrationFor(athleteID, tournamentID int) (models.Registration, bool) {
	for _, reg := range st.registrations {
		if reg.AthleteID == athleteID && reg.TournamentID == tournamentID {
			return reg, true
		}
	}
	return models.Registration{}, false
}

func (r squadRepo) ListMembers(ctx context.Context, squadID int) ([]models.SquadMember, error) {
	out := make([]models.SquadMember, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.SquadID != squadID {
				continue
			}
			a := st.athleteView(st.athletes[m.AthleteID])
			a.Team = nil
			if reg, ok := st.registrationFor(m.AthleteID, m.TournamentID); ok && reg.TeamID != nil {
				if t, ok := st.teams[*reg.TeamID]; ok {
					a.Team = &models.Team{ID: t.ID, Name: t.Name, IsIndividual: t.IsIndividual}
				}
			}
			m.Athlete = &a
			out = append(out, m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r squadRepo) AddMember(ctx context.Context, m *models.SquadMember) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.athletes[m.AthleteID]; !ok {
			return repositories.ErrSquadInvalidAthlete
		}
		if _, ok := st.squads[m.SquadID]; !ok {
			return repositories.ErrSquadNotFound
		}
		for _, existing := range st.members {
			if existing.AthleteID == m.AthleteID && existing.TournamentID == m.TournamentID &&
				existing.DisciplineID == m.DisciplineID && existing.Round == m.Round {
				return repositories.ErrSquadMemberConflict
			}
		}
		m.ID = st.nextID()
		m.CreatedAt = r.s.now()
		stored := *m
		stored.Athlete = nil
		st.members[m.ID] = stored
		return nil
	})
}

func (r squadRepo) RemoveMember(ctx context.Context, squadID, athleteID int) error {
	return r.s.write(ctx, func(st *state) error {
		for id, m := range st.members {
			if m.SquadID == squadID && m.AthleteID == athleteID {
				delete(st.members, id)
				return nil
			}
		}
		return repositories.ErrSquadMemberNotFound
	})
}

func (r squadRepo) DeleteMembers(ctx context.Context, squadID int) error {
	return r.s.write(ctx, func(st *state) error {
		for id, m := range st.members {
			if m.SquadID == squadID {
				delete(st.members, id)
			}
		}
		return nil
	})
}

func (r squadRepo) FindMembership(ctx context.Context, athleteID int, shoot models.ShootRef) (*models.SquadMember, error) {
	var out *models.SquadMember
	err := r.s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.AthleteID == athleteID && m.TournamentID == shoot.TournamentID &&
				m.DisciplineID == shoot.DisciplineID && m.Round == shoot.Round {
				out = &m
				return nil
			}
		}
		return repositories.ErrSquadMemberNotFound
	})
	return out, err
}

func (r squadRepo) CountAthleteMemberships(ctx context.Context, athleteID, tournamentID int) (int, error) {
	n := 0
	err := r.s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.AthleteID == athleteID && m.TournamentID == tournamentID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r squadRepo) AthletesBookedInSlot(ctx context.Context, timeSlotID, excludeSquadID int, athleteIDs []int) ([]int, error) {
	var booked []int
	err := r.s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.SquadID == excludeSquadID || !slices.Contains(athleteIDs, m.AthleteID) {
				continue
			}
			sq := st.squads[m.SquadID]
			if sq.TimeSlotID != nil && *sq.TimeSlotID == timeSlotID && !slices.Contains(booked, m.AthleteID) {
				booked = append(booked, m.AthleteID)
			}
		}
		return nil
	})
	slices.Sort(booked)
	return booked, err
}

type registrationRepo struct{ s *Store }

func (r registrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.athletes[reg.AthleteID]; !ok {
			return repositories.ErrRegistrationInvalidAthlete
		}
		if _, ok := st.tournaments[reg.TournamentID]; !ok {
			return repositories.ErrRegistrationInvalidTournament
		}
		if _, exists := st.registrationFor(reg.AthleteID, reg.TournamentID); exists {
			return repositories.ErrRegistrationConflict
		}
		reg.ID = st.nextID()
		reg.CreatedAt = r.s.now()
		stored := *reg
		stored.DisciplineIDs = slices.Clone(reg.DisciplineIDs)
		stored.Athlete, stored.Team = nil, nil
		if reg.TeamID != nil {
			id := *reg.TeamID
			stored.TeamID = &id
		}
		st.registrations[reg.ID] = stored
		return nil
	})
}

func (r registrationRepo) GetByAthleteAndTournament(ctx context.Context, athleteID, tournamentID int) (*models.Registration, error) {
	var out *models.Registration
	err := r.s.read(ctx, func(st *state) error {
		reg, ok := st.registrationFor(athleteID, tournamentID)
		if !ok {
			return repositories.ErrRegistrationNotFound
		}
		reg.DisciplineIDs = slices.Clone(reg.DisciplineIDs)
		out = &reg
		return nil
	})
	return out, err
}

func (r registrationRepo) Delete(ctx context.Context, athleteID, tournamentID int) error {
	return r.s.write(ctx, func(st *state) error {
		reg, ok := st.registrationFor(athleteID, tournamentID)
		if !ok {
			return repositories.ErrRegistrationNotFound
		}
		delete(st.registrations, reg.ID)
		return nil
	})
}

func (r registrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	out := make([]models.Registration, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, reg := range st.registrations {
			if reg.TournamentID != tournamentID {
				continue
			}
			reg.DisciplineIDs = slices.Clone(reg.DisciplineIDs)
			a := st.athletes[reg.AthleteID]
			reg.Athlete = &models.Athlete{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Gender: a.Gender, Division: a.Division}
			if reg.TeamID != nil {
				if t, ok := st.teams[*reg.TeamID]; ok {
					reg.Team = &models.Team{ID: t.ID, Name: t.Name, IsIndividual: t.IsIndividual}
				}
			}
			out = append(out, reg)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Athlete, out[j].Athlete
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return out, err
}
