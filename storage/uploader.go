package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ImportKey is where the raw spreadsheet of an import batch is archived.
func ImportKey(tournamentID int, batchID, ext string) string {
	return fmt.Sprintf("imports/tournament_%d/%s%s", tournamentID, batchID, ext)
}

// LeaderboardKey is where a published leaderboard snapshot is stored. Every publication gets
// its own object; LatestLeaderboardKey is overwritten each time.
func LeaderboardKey(tournamentID, disciplineID int, at time.Time) string {
	return fmt.Sprintf("leaderboards/tournament_%d/discipline_%d/%s.json", tournamentID, disciplineID, at.UTC().Format("20060102T150405Z"))
}

func LatestLeaderboardKey(tournamentID, disciplineID int) string {
	return fmt.Sprintf("leaderboards/tournament_%d/discipline_%d/latest.json", tournamentID, disciplineID)
}
