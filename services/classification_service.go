package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const classifyConcurrency = 8

type ClassificationService interface {
	Classify(ctx context.Context, athleteID int, governingBody string) (*models.AthleteClassification, error)
	// ClassifyAll reclassifies every athlete with finalized history on the body's scale.
	ClassifyAll(ctx context.Context, governingBody string) ([]models.AthleteClassification, error)
	ListScales() []classification.Scale
}

type classificationService struct {
	policy         classification.Policy
	athleteRepo    repositories.AthleteRepository
	disciplineRepo repositories.DisciplineRepository
	scoreRepo      repositories.ScoreRepository
	tournamentRepo repositories.TournamentRepository
	snapshots      cache.SnapshotCache
	logger         *slog.Logger
	now            func() time.Time
}

func NewClassificationService(
	policy classification.Policy,
	athleteRepo repositories.AthleteRepository,
	disciplineRepo repositories.DisciplineRepository,
	scoreRepo repositories.ScoreRepository,
	tournamentRepo repositories.TournamentRepository,
	snapshots cache.SnapshotCache,
	logger *slog.Logger,
) ClassificationService {
	if snapshots == nil {
		snapshots = cache.Noop{}
	}
	return &classificationService{
		policy:         policy,
		athleteRepo:    athleteRepo,
		disciplineRepo: disciplineRepo,
		scoreRepo:      scoreRepo,
		tournamentRepo: tournamentRepo,
		snapshots:      snapshots,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *classificationService) ListScales() []classification.Scale {
	return classification.Scales()
}

// scope resolves the scale and the ids of the disciplines it governs.
func (s *classificationService) scope(ctx context.Context, governingBody string) (classification.Scale, []int, error) {
	scale, ok := classification.Lookup(governingBody)
	if !ok {
		return classification.Scale{}, nil, ErrUnknownGoverningBody.Withf("%q", governingBody)
	}
	disciplines, err := s.disciplineRepo.ListByGoverningBody(ctx, scale.Body)
	if err != nil {
		return classification.Scale{}, nil, fmt.Errorf("failed to list %s disciplines: %w", scale.Body, err)
	}
	ids := make([]int, len(disciplines))
	for i, d := range disciplines {
		ids[i] = d.ID
	}
	return scale, ids, nil
}

func (s *classificationService) population(ctx context.Context, disciplineIDs []int) ([]models.AthleteTotals, error) {
	aware, ok := s.policy.(classification.PopulationAware)
	if !ok || !aware.NeedsPopulation() {
		return nil, nil
	}
	totals, err := s.scoreRepo.HistoryTotals(ctx, disciplineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read shooting history: %w", err)
	}
	return totals, nil
}

func (s *classificationService) store(ctx context.Context, scale classification.Scale, history models.AthleteTotals, population []models.AthleteTotals) (*models.AthleteClassification, error) {
	result := &models.AthleteClassification{
		AthleteID:     history.AthleteID,
		GoverningBody: scale.Body,
		Class:         s.policy.Classify(scale, history, population),
		Policy:        s.policy.Name(),
		TargetsThrown: history.TargetsThrown,
		TargetsHit:    history.TargetsHit,
		ComputedAt:    s.now(),
	}
	if err := s.athleteRepo.UpsertClassification(ctx, result); err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrAthleteNotFound.Withf("id %d", history.AthleteID)
		}
		return nil, fmt.Errorf("failed to store classification: %w", err)
	}
	return result, nil
}

// invalidate drops cached leaderboards of every tournament offering one of the disciplines,
// since class-grouped boards read the stored classes. Failures are logged.
func (s *classificationService) invalidate(ctx context.Context, disciplineIDs []int) {
	if len(disciplineIDs) == 0 {
		return
	}
	offers, err := s.tournamentRepo.ListOffers(ctx, disciplineIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list offers for leaderboard invalidation", slog.Any("error", err))
		return
	}
	for _, td := range offers {
		if err := s.snapshots.InvalidateDiscipline(ctx, td.TournamentID, td.DisciplineID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate leaderboard cache",
				slog.Int("tournament_id", td.TournamentID),
				slog.Int("discipline_id", td.DisciplineID),
				slog.Any("error", err))
		}
	}
}

func (s *classificationService) Classify(ctx context.Context, athleteID int, governingBody string) (result *models.AthleteClassification, err error) {
	ctx, span := tracer.Start(ctx, "ClassificationService.Classify", trace.WithAttributes(
		attribute.Int("athlete.id", athleteID),
		attribute.String("governing_body", governingBody),
	))
	defer func() { endSpan(span, err) }()

	scale, disciplineIDs, err := s.scope(ctx, governingBody)
	if err != nil {
		return nil, err
	}
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		return nil, lookupAthlete(err, athleteID)
	}

	history := models.AthleteTotals{AthleteID: athleteID}
	if len(disciplineIDs) > 0 {
		history, err = s.scoreRepo.AthleteHistory(ctx, athleteID, disciplineIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to read shooting history: %w", err)
		}
	}
	population, err := s.population(ctx, disciplineIDs)
	if err != nil {
		return nil, err
	}

	result, err = s.store(ctx, scale, history, population)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, disciplineIDs)
	s.logger.InfoContext(ctx, "athlete classified",
		slog.Int("athlete_id", athleteID),
		slog.String("governing_body", scale.Body),
		slog.String("class", result.Class),
		slog.String("policy", result.Policy))
	return result, nil
}

func (s *classificationService) ClassifyAll(ctx context.Context, governingBody string) (result []models.AthleteClassification, err error) {
	ctx, span := tracer.Start(ctx, "ClassificationService.ClassifyAll", trace.WithAttributes(
		attribute.String("governing_body", governingBody),
	))
	defer func() { endSpan(span, err) }()

	scale, disciplineIDs, err := s.scope(ctx, governingBody)
	if err != nil {
		return nil, err
	}
	if len(disciplineIDs) == 0 {
		return []models.AthleteClassification{}, nil
	}
	histories, err := s.scoreRepo.HistoryTotals(ctx, disciplineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read shooting history: %w", err)
	}

	var population []models.AthleteTotals
	if aware, ok := s.policy.(classification.PopulationAware); ok && aware.NeedsPopulation() {
		population = histories
	}

	result = make([]models.AthleteClassification, len(histories))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for i, history := range histories {
		g.Go(func() error {
			c, err := s.store(gCtx, scale, history, population)
			if err != nil {
				return fmt.Errorf("athlete %d: %w", history.AthleteID, err)
			}
			result[i] = *c
			return nil
		})
	}
	err = g.Wait()
	// Some classes may have been stored before a failure.
	s.invalidate(ctx, disciplineIDs)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "athletes reclassified",
		slog.String("governing_body", scale.Body),
		slog.Int("athletes", len(result)),
		slog.String("policy", s.policy.Name()))
	return result, nil
}
