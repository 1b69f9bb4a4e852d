package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLeaderboardKeySharesDisciplinePrefix(t *testing.T) {
	key := LeaderboardKey(4, 9, []string{"division", "gender"})
	if key != "leaderboard:4:9:division,gender" {
		t.Fatalf("key = %q", key)
	}
	if !strings.HasPrefix(key, disciplinePrefix(4, 9)) {
		t.Fatalf("key %q lacks discipline prefix", key)
	}
	if strings.HasPrefix(LeaderboardKey(4, 90, nil), disciplinePrefix(4, 9)) {
		t.Fatal("discipline 90 must not match the prefix of discipline 9")
	}
	if strings.HasPrefix(generationKey(4, 9), disciplinePrefix(4, 9)) {
		t.Fatal("generation counter must survive snapshot invalidation scans")
	}
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c SnapshotCache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", 0, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get err = %v, want ErrMiss", err)
	}
}
