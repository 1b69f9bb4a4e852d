// Package leaderboard ranks athletes from summed ledger totals. It has no I/O: callers load
// the entries and decide what to do with the resulting rows.
package leaderboard

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/Dosada05/clay-tournament/models"
	"golang.org/x/text/cases"
)

type Dimension string

const (
	Division Dimension = "division"
	Gender   Dimension = "gender"
	Class    Dimension = "class"
)

// DefaultGroupBy is used when no grouping is requested.
var DefaultGroupBy = []Dimension{Division, Gender}

var ErrUnknownDimension = errors.New("unknown leaderboard dimension")

// ParseGroupBy parses a comma-separated dimension list. The result is deduplicated and in
// canonical order (division, gender, class). An empty string yields DefaultGroupBy.
func ParseGroupBy(raw string) ([]Dimension, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slices.Clone(DefaultGroupBy), nil
	}

	selected := make(map[Dimension]bool)
	for _, part := range strings.Split(raw, ",") {
		d := Dimension(strings.ToLower(strings.TrimSpace(part)))
		switch d {
		case Division, Gender, Class:
			selected[d] = true
		case "":
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, part)
		}
	}

	dims := make([]Dimension, 0, len(selected))
	for _, d := range []Dimension{Division, Gender, Class} {
		if selected[d] {
			dims = append(dims, d)
		}
	}
	return dims, nil
}

// Strings returns dims as plain strings, for cache keys and JSON.
func Strings(dims []Dimension) []string {
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = string(d)
	}
	return out
}

type standing struct {
	group  models.GroupKey
	id     int
	name   string
	folded string
	team   string
	thrown int
	hit    int
}

func keyFor(e models.LedgerEntry, dims []Dimension) models.GroupKey {
	var k models.GroupKey
	for _, d := range dims {
		switch d {
		case Division:
			k.Division = e.Division
		case Gender:
			k.Gender = string(e.Gender)
		case Class:
			k.Class = e.Class
		}
	}
	return k
}

func compareGroups(a, b models.GroupKey) int {
	return cmp.Or(
		strings.Compare(a.Division, b.Division),
		strings.Compare(a.Gender, b.Gender),
		strings.Compare(a.Class, b.Class),
	)
}

// compareRatio orders by hit ratio descending, comparing hit/thrown exactly by cross
// multiplication. An undefined ratio (nothing thrown) sorts after every defined one.
func compareRatio(a, b *standing) int {
	switch {
	case a.thrown == 0 && b.thrown == 0:
		return 0
	case a.thrown == 0:
		return 1
	case b.thrown == 0:
		return -1
	}
	return cmp.Compare(int64(b.hit)*int64(a.thrown), int64(a.hit)*int64(b.thrown))
}

func tied(a, b *standing) bool {
	return compareRatio(a, b) == 0 && a.hit == b.hit
}

func compareStandings(a, b *standing) int {
	return cmp.Or(
		compareGroups(a.group, b.group),
		compareRatio(a, b),
		cmp.Compare(b.hit, a.hit),
		strings.Compare(a.folded, b.folded),
		strings.Compare(a.name, b.name),
		cmp.Compare(a.id, b.id),
	)
}

// Compute ranks entries within each group. Groups are emitted in ascending key order; rows
// within a group by hit ratio desc, total hits desc, then case-folded display name, raw name
// and athlete id. Rows with equal ratio and hits share a rank and the next rank skips
// accordingly (1, 1, 3). Sorting happens when the sequence is first iterated.
func Compute(entries []models.LedgerEntry, groupBy []Dimension) iter.Seq[models.LeaderboardRow] {
	return func(yield func(models.LeaderboardRow) bool) {
		folder := cases.Fold()
		standings := make([]*standing, 0, len(entries))
		for _, e := range entries {
			name := strings.TrimSpace(e.FirstName + " " + e.LastName)
			standings = append(standings, &standing{
				group:  keyFor(e, groupBy),
				id:     e.AthleteID,
				name:   name,
				folded: folder.String(name),
				team:   e.TeamName,
				thrown: e.TargetsThrown,
				hit:    e.TargetsHit,
			})
		}
		slices.SortFunc(standings, compareStandings)

		var prev *standing
		rank, position := 0, 0
		for _, s := range standings {
			if prev == nil || compareGroups(prev.group, s.group) != 0 {
				position = 0
				prev = nil
			}
			position++
			if prev == nil || !tied(prev, s) {
				rank = position
			}
			prev = s

			row := models.LeaderboardRow{
				Group:         s.group,
				Rank:          rank,
				AthleteID:     s.id,
				AthleteName:   s.name,
				TeamName:      s.team,
				TargetsThrown: s.thrown,
				TargetsHit:    s.hit,
			}
			if s.thrown > 0 {
				ratio := float64(s.hit) / float64(s.thrown)
				row.HitRatio = &ratio
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Collect materializes a computed leaderboard.
func Collect(rows iter.Seq[models.LeaderboardRow]) []models.LeaderboardRow {
	out := make([]models.LeaderboardRow, 0)
	for row := range rows {
		out = append(out, row)
	}
	return out
}
