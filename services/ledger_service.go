package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/importer"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
	"github.com/Dosada05/clay-tournament/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type LedgerService interface {
	RecordScore(ctx context.Context, input RecordScoreInput) (*models.Score, error)
	CorrectScore(ctx context.Context, scoreID int, input CorrectScoreInput) (*models.Score, error)
	ImportScores(ctx context.Context, input ImportScoresInput) (*ImportResult, error)
	GetImportBatch(ctx context.Context, batchID string) (*ImportResult, error)
	FinalizeRound(ctx context.Context, shoot models.ShootRef) (int, error)
	ListCorrections(ctx context.Context, scoreID int) ([]models.ScoreCorrection, error)
	ListAthleteScores(ctx context.Context, athleteID, tournamentID int) ([]models.Score, error)
}

type RecordScoreInput struct {
	AthleteID       int                    `json:"athlete_id"`
	TournamentID    int                    `json:"tournament_id"`
	DisciplineID    int                    `json:"discipline_id"`
	Round           int                    `json:"round"`
	Station         int                    `json:"station"`
	TargetsThrown   int                    `json:"targets_thrown"`
	TargetsHit      int                    `json:"targets_hit"`
	Stations        []models.StationResult `json:"stations,omitempty"`
	DurationSeconds *int                   `json:"duration_seconds,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	Final           bool                   `json:"final"`
}

func (in RecordScoreInput) shoot() models.ShootRef {
	return models.ShootRef{TournamentID: in.TournamentID, DisciplineID: in.DisciplineID, Round: in.Round}
}

type CorrectScoreInput struct {
	TargetsThrown int                    `json:"targets_thrown"`
	TargetsHit    int                    `json:"targets_hit"`
	Stations      []models.StationResult `json:"stations,omitempty"`
	Reason        string                 `json:"reason"`
	CorrectedBy   int                    `json:"-"`
}

type ImportScoresInput struct {
	TournamentID int
	Source       models.ImportSource
	Rows         []importer.Row
	// RawFile is the uploaded spreadsheet, archived to object storage when non-empty.
	RawFile     []byte
	FileName    string
	ContentType string
	CreatedBy   int
}

type ImportResult struct {
	Batch  *models.ImportBatch    `json:"batch"`
	Scores []models.ImportedScore `json:"scores"`
}

type ledgerService struct {
	tx               repositories.Transactor
	scoreRepo        repositories.ScoreRepository
	importRepo       repositories.ImportRepository
	tournamentRepo   repositories.TournamentRepository
	disciplineRepo   repositories.DisciplineRepository
	athleteRepo      repositories.AthleteRepository
	teamRepo         repositories.TeamRepository
	registrationRepo repositories.RegistrationRepository
	squadRepo        repositories.SquadRepository
	snapshots        cache.SnapshotCache
	uploader         storage.FileUploader
	logger           *slog.Logger
}

func NewLedgerService(
	tx repositories.Transactor,
	scoreRepo repositories.ScoreRepository,
	importRepo repositories.ImportRepository,
	tournamentRepo repositories.TournamentRepository,
	disciplineRepo repositories.DisciplineRepository,
	athleteRepo repositories.AthleteRepository,
	teamRepo repositories.TeamRepository,
	registrationRepo repositories.RegistrationRepository,
	squadRepo repositories.SquadRepository,
	snapshots cache.SnapshotCache,
	uploader storage.FileUploader,
	logger *slog.Logger,
) LedgerService {
	if snapshots == nil {
		snapshots = cache.Noop{}
	}
	return &ledgerService{
		tx:               tx,
		scoreRepo:        scoreRepo,
		importRepo:       importRepo,
		tournamentRepo:   tournamentRepo,
		disciplineRepo:   disciplineRepo,
		athleteRepo:      athleteRepo,
		teamRepo:         teamRepo,
		registrationRepo: registrationRepo,
		squadRepo:        squadRepo,
		snapshots:        snapshots,
		uploader:         uploader,
		logger:           logger,
	}
}

func validateScoreValues(thrown, hit int, stations []models.StationResult) error {
	if thrown < 0 || hit < 0 {
		return ErrInvalidScore.Withf("targets must not be negative (thrown %d, hit %d)", thrown, hit)
	}
	if hit > thrown {
		return ErrInvalidScore.Withf("hit %d exceeds thrown %d", hit, thrown)
	}
	if len(stations) == 0 {
		return nil
	}
	sumThrown, sumHit := 0, 0
	for _, st := range stations {
		if st.Thrown < 0 || st.Hit < 0 || st.Hit > st.Thrown {
			return ErrInvalidScore.Withf("station %d: hit %d of %d", st.Station, st.Hit, st.Thrown)
		}
		sumThrown += st.Thrown
		sumHit += st.Hit
	}
	if sumThrown != thrown || sumHit != hit {
		return ErrBreakdownMismatch.Withf("stations total %d/%d, score %d/%d", sumHit, sumThrown, hit, thrown)
	}
	return nil
}

func validateRecordInput(in RecordScoreInput) error {
	if in.Station < 0 {
		return ErrInvalidScore.Withf("station must not be negative")
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return ErrInvalidScore.Withf("duration must not be negative")
	}
	return validateScoreValues(in.TargetsThrown, in.TargetsHit, in.Stations)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sameValues reports whether the stored row already holds the submitted result.
func sameValues(sc *models.Score, in RecordScoreInput) bool {
	return sc.TargetsThrown == in.TargetsThrown &&
		sc.TargetsHit == in.TargetsHit &&
		slices.Equal(sc.Stations, in.Stations) &&
		equalIntPtr(sc.DurationSeconds, in.DurationSeconds) &&
		equalStringPtr(sc.Notes, in.Notes)
}

// checkGranularity keeps a shoot either as one whole-round row (station 0) or as per-station
// rows, never both, so the leaderboard sums each target once.
func (s *ledgerService) checkGranularity(ctx context.Context, in RecordScoreInput) error {
	stored, err := s.scoreRepo.StationsRecorded(ctx, in.AthleteID, in.shoot())
	if err != nil {
		return fmt.Errorf("failed to list recorded stations: %w", err)
	}
	wholeRound := in.Station == 0
	for _, station := range stored {
		if (station == 0) != wholeRound {
			return ErrMixedGranularity.Withf("athlete %d, discipline %d, round %d, station %d",
				in.AthleteID, in.DisciplineID, in.Round, in.Station)
		}
	}
	return nil
}

// record upserts one ledger row. It must run inside a transaction.
func (s *ledgerService) record(ctx context.Context, tournament *models.Tournament, in RecordScoreInput) (*models.Score, error) {
	if err := offeredRound(tournament, in.DisciplineID, in.Round); err != nil {
		return nil, err
	}
	if _, err := s.athleteRepo.GetByID(ctx, in.AthleteID); err != nil {
		return nil, lookupAthlete(err, in.AthleteID)
	}
	if _, err := s.squadRepo.FindMembership(ctx, in.AthleteID, in.shoot()); err != nil {
		if errors.Is(err, repositories.ErrSquadMemberNotFound) {
			return nil, ErrNoSquadMember.Withf("athlete %d, tournament %d, discipline %d, round %d",
				in.AthleteID, in.TournamentID, in.DisciplineID, in.Round)
		}
		return nil, fmt.Errorf("failed to check squad membership: %w", err)
	}

	existing, err := s.scoreRepo.GetByKey(ctx, in.AthleteID, in.shoot(), in.Station)
	if err != nil {
		if !errors.Is(err, repositories.ErrScoreNotFound) {
			return nil, fmt.Errorf("failed to get score: %w", err)
		}
		if err := s.checkGranularity(ctx, in); err != nil {
			return nil, err
		}
		score := &models.Score{
			AthleteID:       in.AthleteID,
			TournamentID:    in.TournamentID,
			DisciplineID:    in.DisciplineID,
			Round:           in.Round,
			Station:         in.Station,
			TargetsThrown:   in.TargetsThrown,
			TargetsHit:      in.TargetsHit,
			Stations:        in.Stations,
			DurationSeconds: in.DurationSeconds,
			Notes:           in.Notes,
			Finalized:       in.Final,
		}
		if err := s.scoreRepo.Create(ctx, score); err != nil {
			switch {
			case errors.Is(err, repositories.ErrScoreConflict):
				return nil, ErrConcurrentUpdate.Wrap(err)
			case errors.Is(err, repositories.ErrScoreInvalidValues):
				return nil, ErrInvalidScore.Wrap(err)
			case errors.Is(err, repositories.ErrScoreInvalidShoot):
				return nil, ErrNoSquadMember.Wrap(err)
			default:
				return nil, fmt.Errorf("failed to create score: %w", err)
			}
		}
		return score, nil
	}

	same := sameValues(existing, in)
	switch {
	case same && (existing.Finalized || !in.Final):
		return existing, nil
	case !same && existing.Finalized:
		return nil, ErrScoreFinalized.Withf("score %d", existing.ID)
	}

	existing.TargetsThrown = in.TargetsThrown
	existing.TargetsHit = in.TargetsHit
	existing.Stations = in.Stations
	existing.DurationSeconds = in.DurationSeconds
	existing.Notes = in.Notes
	existing.Finalized = in.Final
	if err := s.scoreRepo.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repositories.ErrScoreVersionConflict):
			return nil, ErrConcurrentUpdate.Wrap(err)
		case errors.Is(err, repositories.ErrScoreInvalidValues):
			return nil, ErrInvalidScore.Wrap(err)
		default:
			return nil, fmt.Errorf("failed to update score %d: %w", existing.ID, err)
		}
	}
	return existing, nil
}

// RecordScore validates and upserts one ledger row keyed by (athlete, shoot, station).
// Resubmitting identical values is a no-op; changed values replace a non-finalized row and are
// rejected for a finalized one.
func (s *ledgerService) RecordScore(ctx context.Context, input RecordScoreInput) (result *models.Score, err error) {
	ctx, span := tracer.Start(ctx, "LedgerService.RecordScore", trace.WithAttributes(
		attribute.Int("athlete.id", input.AthleteID),
		attribute.Int("tournament.id", input.TournamentID),
		attribute.Int("discipline.id", input.DisciplineID),
		attribute.Int("round", input.Round),
	))
	defer func() { endSpan(span, err) }()

	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
		if err != nil {
			return lookupTournament(err, input.TournamentID)
		}
		result, err = s.record(ctx, tournament, input)
		return err
	})
	if err != nil {
		return nil, txError(err)
	}

	s.invalidate(ctx, input.TournamentID, input.DisciplineID)
	return result, nil
}

func (s *ledgerService) CorrectScore(ctx context.Context, scoreID int, input CorrectScoreInput) (result *models.Score, err error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CorrectScore", trace.WithAttributes(attribute.Int("score.id", scoreID)))
	defer func() { endSpan(span, err) }()

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrCorrectionReasonMissing
	}
	if err := validateScoreValues(input.TargetsThrown, input.TargetsHit, input.Stations); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		score, err := s.scoreRepo.GetForUpdate(ctx, scoreID)
		if err != nil {
			if errors.Is(err, repositories.ErrScoreNotFound) {
				return ErrScoreNotFound.Withf("id %d", scoreID)
			}
			return fmt.Errorf("failed to get score %d: %w", scoreID, err)
		}

		correction := &models.ScoreCorrection{
			ScoreID:      score.ID,
			PrevThrown:   score.TargetsThrown,
			PrevHit:      score.TargetsHit,
			PrevStations: score.Stations,
			NewThrown:    input.TargetsThrown,
			NewHit:       input.TargetsHit,
			NewStations:  input.Stations,
			Reason:       reason,
			CorrectedBy:  input.CorrectedBy,
		}

		score.TargetsThrown = input.TargetsThrown
		score.TargetsHit = input.TargetsHit
		score.Stations = input.Stations
		if err := s.scoreRepo.Update(ctx, score); err != nil {
			if errors.Is(err, repositories.ErrScoreVersionConflict) {
				return ErrConcurrentUpdate.Wrap(err)
			}
			return fmt.Errorf("failed to update score %d: %w", scoreID, err)
		}
		if err := s.scoreRepo.CreateCorrection(ctx, correction); err != nil {
			return fmt.Errorf("failed to record correction: %w", err)
		}
		result = score
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "score corrected",
		slog.Int("score_id", scoreID),
		slog.Int("corrected_by", input.CorrectedBy),
		slog.Int("version", result.Version))
	s.invalidate(ctx, result.TournamentID, result.DisciplineID)
	return result, nil
}

// ImportScores records every row in one transaction: either all rows land or none do. Each
// ledger row touched gets a display snapshot tied to the new batch. The raw file is archived
// before the transaction and removed again if the transaction fails.
func (s *ledgerService) ImportScores(ctx context.Context, input ImportScoresInput) (result *ImportResult, err error) {
	ctx, span := tracer.Start(ctx, "LedgerService.ImportScores", trace.WithAttributes(
		attribute.Int("tournament.id", input.TournamentID),
		attribute.Int("rows", len(input.Rows)),
	))
	defer func() { endSpan(span, err) }()

	if len(input.Rows) == 0 {
		return nil, ErrImportEmpty
	}
	if input.Source == "" {
		input.Source = models.ImportSourceManual
	}
	for _, row := range input.Rows {
		if err := validateRecordInput(rowInput(input.TournamentID, 0, row)); err != nil {
			return nil, atLine(err, row.Line)
		}
	}

	batch := &models.ImportBatch{
		ID:           uuid.NewString(),
		TournamentID: input.TournamentID,
		Source:       input.Source,
		Rows:         len(input.Rows),
		CreatedBy:    input.CreatedBy,
	}

	if len(input.RawFile) > 0 && s.uploader != nil {
		ext := strings.ToLower(filepath.Ext(input.FileName))
		if ext == "" {
			ext = ".csv"
		}
		contentType := input.ContentType
		if contentType == "" {
			contentType = "text/csv"
		}
		key := storage.ImportKey(input.TournamentID, batch.ID, ext)
		uploaded, uploadErr := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(input.RawFile))
		if uploadErr != nil {
			return nil, fmt.Errorf("failed to archive import file: %w", uploadErr)
		}
		batch.FileKey = &uploaded.Key
		defer func() {
			if err == nil {
				return
			}
			if delErr := s.uploader.Delete(context.WithoutCancel(ctx), uploaded.Key); delErr != nil {
				s.logger.WarnContext(ctx, "failed to remove archived import file",
					slog.String("key", uploaded.Key), slog.Any("error", delErr))
			}
		}()
	}

	var imported []models.ImportedScore
	touched := make(map[int]bool)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		imported = imported[:0]
		clear(touched)

		tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
		if err != nil {
			return lookupTournament(err, input.TournamentID)
		}
		if err := s.importRepo.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to create import batch: %w", err)
		}

		disciplines := make(map[string]*models.Discipline)
		athletes := make(map[int]string)
		teams := make(map[int]string)
		for _, row := range input.Rows {
			discipline, ok := disciplines[row.Discipline]
			if !ok {
				discipline, err = s.disciplineRepo.GetByCode(ctx, row.Discipline)
				if err != nil {
					if errors.Is(err, repositories.ErrDisciplineNotFound) {
						return ErrValidationFailed.Withf("line %d: unknown discipline %q", row.Line, row.Discipline)
					}
					return fmt.Errorf("failed to get discipline %q: %w", row.Discipline, err)
				}
				disciplines[row.Discipline] = discipline
			}

			score, err := s.record(ctx, tournament, rowInput(input.TournamentID, discipline.ID, row))
			if err != nil {
				return atLine(err, row.Line)
			}
			touched[discipline.ID] = true

			name, ok := athletes[row.AthleteID]
			if !ok {
				athlete, err := s.athleteRepo.GetByID(ctx, row.AthleteID)
				if err != nil {
					return lookupAthlete(err, row.AthleteID)
				}
				name = athlete.DisplayName()
				athletes[row.AthleteID] = name
			}
			teamName, ok := teams[row.AthleteID]
			if !ok {
				teamName, err = s.teamNameFor(ctx, row.AthleteID, input.TournamentID)
				if err != nil {
					return err
				}
				teams[row.AthleteID] = teamName
			}

			snapshot := models.ImportedScore{
				BatchID:        batch.ID,
				ScoreID:        score.ID,
				TournamentID:   input.TournamentID,
				AthleteID:      row.AthleteID,
				AthleteName:    name,
				TeamName:       teamName,
				DisciplineCode: discipline.Code,
				Round:          score.Round,
				Station:        score.Station,
				TargetsThrown:  score.TargetsThrown,
				TargetsHit:     score.TargetsHit,
			}
			if err := s.importRepo.UpsertScore(ctx, &snapshot); err != nil {
				return fmt.Errorf("failed to store imported score: %w", err)
			}
			imported = append(imported, snapshot)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "scores imported",
		slog.String("batch_id", batch.ID),
		slog.Int("tournament_id", input.TournamentID),
		slog.String("source", string(batch.Source)),
		slog.Int("rows", batch.Rows))
	for disciplineID := range touched {
		s.invalidate(ctx, input.TournamentID, disciplineID)
	}
	s.withFileURL(batch)
	return &ImportResult{Batch: batch, Scores: imported}, nil
}

func rowInput(tournamentID, disciplineID int, row importer.Row) RecordScoreInput {
	in := RecordScoreInput{
		AthleteID:     row.AthleteID,
		TournamentID:  tournamentID,
		DisciplineID:  disciplineID,
		Round:         row.Round,
		Station:       row.Station,
		TargetsThrown: row.Thrown,
		TargetsHit:    row.Hit,
		Stations:      row.Stations,
		Final:         row.Final,
	}
	if row.Notes != "" {
		notes := row.Notes
		in.Notes = &notes
	}
	return in
}

// atLine prefixes a service error's detail with the source line of the offending row.
func atLine(err error, line int) error {
	var e *Error
	if line <= 0 || !errors.As(err, &e) {
		return err
	}
	if e.Detail == "" {
		return e.Withf("line %d", line)
	}
	return e.Withf("line %d: %s", line, e.Detail)
}

func (s *ledgerService) teamNameFor(ctx context.Context, athleteID, tournamentID int) (string, error) {
	registration, err := s.registrationRepo.GetByAthleteAndTournament(ctx, athleteID, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get registration: %w", err)
	}
	if registration.TeamID == nil {
		return "", nil
	}
	team, err := s.teamRepo.GetByID(ctx, *registration.TeamID)
	if err != nil {
		return "", lookupTeam(err, *registration.TeamID)
	}
	return team.Name, nil
}

func (s *ledgerService) withFileURL(batch *models.ImportBatch) {
	if batch.FileKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*batch.FileKey)
		batch.FileURL = &url
	}
}

func (s *ledgerService) GetImportBatch(ctx context.Context, batchID string) (*ImportResult, error) {
	if _, err := uuid.Parse(batchID); err != nil {
		return nil, ErrValidationFailed.Withf("invalid batch id %q", batchID)
	}
	batch, err := s.importRepo.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrImportBatchNotFound) {
			return nil, ErrImportBatchNotFound.Withf("id %s", batchID)
		}
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}
	scores, err := s.importRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported scores: %w", err)
	}
	s.withFileURL(batch)
	return &ImportResult{Batch: batch, Scores: scores}, nil
}

// FinalizeRound marks every score of the shoot final so it counts towards the leaderboard.
func (s *ledgerService) FinalizeRound(ctx context.Context, shoot models.ShootRef) (int, error) {
	var finalized int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, shoot.TournamentID)
		if err != nil {
			return lookupTournament(err, shoot.TournamentID)
		}
		if err := offeredRound(tournament, shoot.DisciplineID, shoot.Round); err != nil {
			return err
		}
		finalized, err = s.scoreRepo.FinalizeShoot(ctx, shoot)
		if err != nil {
			return fmt.Errorf("failed to finalize round: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, txError(err)
	}

	s.logger.InfoContext(ctx, "round finalized",
		slog.Int("tournament_id", shoot.TournamentID),
		slog.Int("discipline_id", shoot.DisciplineID),
		slog.Int("round", shoot.Round),
		slog.Int("scores", finalized))
	s.invalidate(ctx, shoot.TournamentID, shoot.DisciplineID)
	return finalized, nil
}

func (s *ledgerService) ListCorrections(ctx context.Context, scoreID int) ([]models.ScoreCorrection, error) {
	if _, err := s.scoreRepo.GetByID(ctx, scoreID); err != nil {
		if errors.Is(err, repositories.ErrScoreNotFound) {
			return nil, ErrScoreNotFound.Withf("id %d", scoreID)
		}
		return nil, fmt.Errorf("failed to get score %d: %w", scoreID, err)
	}
	corrections, err := s.scoreRepo.ListCorrections(ctx, scoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	if corrections == nil {
		return []models.ScoreCorrection{}, nil
	}
	return corrections, nil
}

func (s *ledgerService) ListAthleteScores(ctx context.Context, athleteID, tournamentID int) ([]models.Score, error) {
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		return nil, lookupAthlete(err, athleteID)
	}
	scores, err := s.scoreRepo.ListByAthlete(ctx, athleteID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	if scores == nil {
		return []models.Score{}, nil
	}
	return scores, nil
}

// invalidate drops cached leaderboards after a committed write. A failure only delays freshness
// until the cache TTL expires, so it is logged and not returned.
func (s *ledgerService) invalidate(ctx context.Context, tournamentID, disciplineID int) {
	if err := s.snapshots.InvalidateDiscipline(ctx, tournamentID, disciplineID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate leaderboard cache",
			slog.Int("tournament_id", tournamentID),
			slog.Int("discipline_id", disciplineID),
			slog.Any("error", err))
	}
}
