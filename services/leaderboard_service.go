package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/leaderboard"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
	"github.com/Dosada05/clay-tournament/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const refreshConcurrency = 4

type LeaderboardService interface {
	// GetLeaderboard serves the standings of one tournament discipline. groupBy is a comma
	// separated subset of division, gender and class; empty means division,gender.
	GetLeaderboard(ctx context.Context, tournamentID, disciplineID int, groupBy string) (*models.LeaderboardSnapshot, error)
	PublishLeaderboard(ctx context.Context, tournamentID, disciplineID int, groupBy string) (*PublishedLeaderboard, error)
	// RefreshTournament recomputes the default leaderboard of every offered discipline and
	// stores the results in the snapshot cache.
	RefreshTournament(ctx context.Context, tournamentID int) ([]*models.LeaderboardSnapshot, error)
}

type PublishedLeaderboard struct {
	Snapshot  *models.LeaderboardSnapshot `json:"snapshot"`
	Key       string                      `json:"key"`
	URL       string                      `json:"url"`
	LatestURL string                      `json:"latest_url"`
}

type leaderboardService struct {
	tournamentRepo repositories.TournamentRepository
	scoreRepo      repositories.ScoreRepository
	snapshots      cache.SnapshotCache
	uploader       storage.FileUploader
	logger         *slog.Logger
	now            func() time.Time
}

func NewLeaderboardService(
	tournamentRepo repositories.TournamentRepository,
	scoreRepo repositories.ScoreRepository,
	snapshots cache.SnapshotCache,
	uploader storage.FileUploader,
	logger *slog.Logger,
) LeaderboardService {
	if snapshots == nil {
		snapshots = cache.Noop{}
	}
	return &leaderboardService{
		tournamentRepo: tournamentRepo,
		scoreRepo:      scoreRepo,
		snapshots:      snapshots,
		uploader:       uploader,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, tournamentID, disciplineID int, groupBy string) (result *models.LeaderboardSnapshot, err error) {
	ctx, span := tracer.Start(ctx, "LeaderboardService.GetLeaderboard", trace.WithAttributes(
		attribute.Int("tournament.id", tournamentID),
		attribute.Int("discipline.id", disciplineID),
	))
	defer func() { endSpan(span, err) }()

	dims, err := leaderboard.ParseGroupBy(groupBy)
	if err != nil {
		return nil, ErrInvalidGroupBy.Withf("%q", groupBy).Wrap(err)
	}
	td, err := s.offeredDiscipline(ctx, tournamentID, disciplineID)
	if err != nil {
		return nil, err
	}

	key := cache.LeaderboardKey(tournamentID, disciplineID, leaderboard.Strings(dims))
	generation, genErr := s.snapshots.Generation(ctx, tournamentID, disciplineID)
	if genErr != nil {
		s.logger.WarnContext(ctx, "leaderboard generation read failed", slog.String("key", key), slog.Any("error", genErr))
	}
	cached, err := s.snapshots.Get(ctx, key)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.WarnContext(ctx, "leaderboard cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	snapshot, err := s.compute(ctx, td, dims)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.snapshots.Set(ctx, key, generation, snapshot); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return snapshot, nil
}

func (s *leaderboardService) offeredDiscipline(ctx context.Context, tournamentID, disciplineID int) (models.TournamentDiscipline, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return models.TournamentDiscipline{}, lookupTournament(err, tournamentID)
	}
	td, ok := tournament.Offers(disciplineID)
	if !ok {
		return models.TournamentDiscipline{}, ErrDisciplineNotOffered.Withf("discipline %d in tournament %d", disciplineID, tournamentID)
	}
	return td, nil
}

// compute reads the ledger totals in one query and ranks them.
func (s *leaderboardService) compute(ctx context.Context, td models.TournamentDiscipline, dims []leaderboard.Dimension) (*models.LeaderboardSnapshot, error) {
	body := ""
	if td.Discipline != nil {
		body = td.Discipline.GoverningBody
	}
	entries, err := s.scoreRepo.LedgerEntries(ctx, td.TournamentID, td.DisciplineID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger totals: %w", err)
	}
	return &models.LeaderboardSnapshot{
		TournamentID: td.TournamentID,
		DisciplineID: td.DisciplineID,
		GroupBy:      leaderboard.Strings(dims),
		Rows:         leaderboard.Collect(leaderboard.Compute(entries, dims)),
		ComputedAt:   s.now(),
	}, nil
}

// PublishLeaderboard writes a freshly computed snapshot to object storage twice: once under a
// timestamped key and once as the discipline's latest snapshot.
func (s *leaderboardService) PublishLeaderboard(ctx context.Context, tournamentID, disciplineID int, groupBy string) (result *PublishedLeaderboard, err error) {
	ctx, span := tracer.Start(ctx, "LeaderboardService.PublishLeaderboard", trace.WithAttributes(
		attribute.Int("tournament.id", tournamentID),
		attribute.Int("discipline.id", disciplineID),
	))
	defer func() { endSpan(span, err) }()

	if s.uploader == nil {
		return nil, errors.New("object storage is not configured")
	}
	dims, err := leaderboard.ParseGroupBy(groupBy)
	if err != nil {
		return nil, ErrInvalidGroupBy.Withf("%q", groupBy).Wrap(err)
	}
	td, err := s.offeredDiscipline(ctx, tournamentID, disciplineID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.compute(ctx, td, dims)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	uploaded, err := s.uploader.Upload(ctx, storage.LeaderboardKey(tournamentID, disciplineID, snapshot.ComputedAt), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to publish leaderboard: %w", err)
	}
	latest, err := s.uploader.Upload(ctx, storage.LatestLeaderboardKey(tournamentID, disciplineID), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to publish latest leaderboard: %w", err)
	}

	s.logger.InfoContext(ctx, "leaderboard published",
		slog.Int("tournament_id", tournamentID),
		slog.Int("discipline_id", disciplineID),
		slog.String("key", uploaded.Key),
		slog.Int("rows", len(snapshot.Rows)))
	return &PublishedLeaderboard{
		Snapshot:  snapshot,
		Key:       uploaded.Key,
		URL:       uploaded.Location,
		LatestURL: latest.Location,
	}, nil
}

func (s *leaderboardService) RefreshTournament(ctx context.Context, tournamentID int) ([]*models.LeaderboardSnapshot, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, lookupTournament(err, tournamentID)
	}

	snapshots := make([]*models.LeaderboardSnapshot, len(tournament.Disciplines))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i, td := range tournament.Disciplines {
		g.Go(func() error {
			cacheable := true
			if err := s.snapshots.InvalidateDiscipline(gCtx, tournamentID, td.DisciplineID); err != nil {
				s.logger.WarnContext(gCtx, "leaderboard cache invalidation failed",
					slog.Int("discipline_id", td.DisciplineID), slog.Any("error", err))
			}
			generation, err := s.snapshots.Generation(gCtx, tournamentID, td.DisciplineID)
			if err != nil {
				s.logger.WarnContext(gCtx, "leaderboard generation read failed",
					slog.Int("discipline_id", td.DisciplineID), slog.Any("error", err))
				cacheable = false
			}
			snapshot, err := s.compute(gCtx, td, leaderboard.DefaultGroupBy)
			if err != nil {
				return fmt.Errorf("discipline %d: %w", td.DisciplineID, err)
			}
			key := cache.LeaderboardKey(tournamentID, td.DisciplineID, snapshot.GroupBy)
			if cacheable {
				if err := s.snapshots.Set(gCtx, key, generation, snapshot); err != nil {
					s.logger.WarnContext(gCtx, "leaderboard cache write failed", slog.String("key", key), slog.Any("error", err))
				}
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
