// Package cache stores materialized leaderboard snapshots between recomputations.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/clay-tournament/models"
)

// ErrMiss is returned by Get when no snapshot is stored under the key.
var ErrMiss = errors.New("cache miss")

// SnapshotCache holds snapshots per tournament discipline together with a generation counter.
// Readers take the generation before computing and pass it to Set; a snapshot computed before
// an invalidation is then never stored.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*models.LeaderboardSnapshot, error)
	// Generation returns the discipline's current generation, 0 if it was never invalidated.
	Generation(ctx context.Context, tournamentID, disciplineID int) (int64, error)
	// Set stores snapshot under key only if the generation of snapshot's discipline still equals
	// generation. A skipped write is not an error.
	Set(ctx context.Context, key string, generation int64, snapshot *models.LeaderboardSnapshot) error
	// InvalidateDiscipline bumps the generation and drops every cached grouping of one
	// tournament discipline.
	InvalidateDiscipline(ctx context.Context, tournamentID, disciplineID int) error
	Close() error
}

func LeaderboardKey(tournamentID, disciplineID int, groupBy []string) string {
	return fmt.Sprintf("%s%s", disciplinePrefix(tournamentID, disciplineID), strings.Join(groupBy, ","))
}

func disciplinePrefix(tournamentID, disciplineID int) string {
	return fmt.Sprintf("leaderboard:%d:%d:", tournamentID, disciplineID)
}

// generationKey sits outside the snapshot prefix so invalidation scans never match it.
func generationKey(tournamentID, disciplineID int) string {
	return fmt.Sprintf("leaderboard-gen:%d:%d", tournamentID, disciplineID)
}

// Noop never stores anything. It is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.LeaderboardSnapshot, error)      { return nil, ErrMiss }
func (Noop) Generation(context.Context, int, int) (int64, error)                   { return 0, nil }
func (Noop) Set(context.Context, string, int64, *models.LeaderboardSnapshot) error { return nil }
func (Noop) InvalidateDiscipline(context.Context, int, int) error                  { return nil }
func (Noop) Close() error                                                          { return nil }
