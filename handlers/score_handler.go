package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/Dosada05/clay-tournament/importer"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/services"
	"github.com/go-chi/chi/v5"
)

// Ограничение на размер загружаемой таблицы
const maxImportBytes = 10 << 20

type ScoreHandler struct {
	ledgerService services.LedgerService
}

func NewScoreHandler(ls services.LedgerService) *ScoreHandler {
	return &ScoreHandler{ledgerService: ls}
}

// RecordScore godoc
// @Summary Записать результат
// @Tags scores
// @Description Idempotent upsert keyed by (athlete, tournament, discipline, round, station).
// @Description Resubmitting identical values returns the stored row with the same version.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.RecordScoreInput true "Score"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/scores [post]
func (h *ScoreHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	score, err := h.ledgerService.RecordScore(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportScores godoc
// @Summary Импорт результатов
// @Tags scores
// @Description Accepts either a multipart CSV upload in the "file" field or a JSON body
// @Description {"rows": [...]}. The batch is applied all-or-nothing.
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param file formData file false "Scoring spreadsheet (CSV)"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/scores/import [post]
func (h *ScoreHandler) ImportScores(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	input := services.ImportScoresInput{TournamentID: tournamentID, CreatedBy: actor.UserID}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		err = readImportFile(w, r, &input)
	} else {
		err = readImportJSON(w, r, &input)
	}
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.ledgerService.ImportScores(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"import": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func readImportFile(w http.ResponseWriter, r *http.Request, input *services.ImportScoresInput) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return errors.New("multipart field \"file\" is required")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	rows, err := importer.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	input.Source = models.ImportSourceCSV
	input.Rows = rows
	input.RawFile = raw
	input.FileName = filepath.Base(header.Filename)
	input.ContentType = header.Header.Get("Content-Type")
	if input.ContentType == "" {
		input.ContentType = "text/csv"
	}
	return nil
}

func readImportJSON(w http.ResponseWriter, r *http.Request, input *services.ImportScoresInput) error {
	var body struct {
		Rows []importer.Row `json:"rows"`
	}
	if err := readJSON(w, r, &body); err != nil {
		return err
	}
	for i := range body.Rows {
		if body.Rows[i].Line == 0 {
			body.Rows[i].Line = i + 1
		}
	}
	input.Source = models.ImportSourceManual
	input.Rows = body.Rows
	return nil
}

// GetImportBatch godoc
// @Summary Получить результат импорта
// @Tags scores
// @Produce json
// @Param batchID path string true "Import batch ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /imports/{batchID} [get]
func (h *ScoreHandler) GetImportBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.GetImportBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"import": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CorrectScore godoc
// @Summary Исправить результат
// @Tags scores
// @Description Overwrites a score, finalized or not, and appends an audit row with the reason.
// @Accept json
// @Produce json
// @Param scoreID path int true "Score ID"
// @Param input body services.CorrectScoreInput true "Correction"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /scores/{scoreID}/corrections [post]
func (h *ScoreHandler) CorrectScore(w http.ResponseWriter, r *http.Request) {
	scoreID, err := getIDFromURL(r, "scoreID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CorrectScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CorrectedBy = actor.UserID

	score, err := h.ledgerService.CorrectScore(r.Context(), scoreID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	scoreID, err := getIDFromURL(r, "scoreID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	corrections, err := h.ledgerService.ListCorrections(r.Context(), scoreID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"corrections": corrections}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinalizeRound godoc
// @Summary Зафиксировать раунд
// @Tags scores
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param disciplineID path int true "Discipline ID"
// @Param round path int true "Round number"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/disciplines/{disciplineID}/rounds/{round}/finalize [post]
func (h *ScoreHandler) FinalizeRound(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "tournamentID", "disciplineID", "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	shoot := models.ShootRef{TournamentID: ids[0], DisciplineID: ids[1], Round: ids[2]}
	finalized, err := h.ledgerService.FinalizeRound(r.Context(), shoot)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"shoot": shoot, "finalized": finalized}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAthleteScores godoc
// @Summary Результаты спортсмена в турнире
// @Tags scores
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param athleteID path int true "Athlete ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/athletes/{athleteID}/scores [get]
func (h *ScoreHandler) ListAthleteScores(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "tournamentID", "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.ledgerService.ListAthleteScores(r.Context(), ids[1], ids[0])
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
