package handlers

import (
	"net/http"

	"github.com/Dosada05/clay-tournament/services"
	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	leaderboardService    services.LeaderboardService
	classificationService services.ClassificationService
}

func NewLeaderboardHandler(ls services.LeaderboardService, cs services.ClassificationService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService:    ls,
		classificationService: cs,
	}
}

// GetLeaderboard godoc
// @Summary Таблица результатов дисциплины
// @Tags leaderboard
// @Description Ranks athletes by hit ratio within each group. Only finalized scores count.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param disciplineID path int true "Discipline ID"
// @Param group_by query string false "Comma separated subset of division, gender, class" default(division,gender)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/disciplines/{disciplineID}/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "tournamentID", "disciplineID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.leaderboardService.GetLeaderboard(r.Context(), ids[0], ids[1], r.URL.Query().Get("group_by"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishLeaderboard godoc
// @Summary Опубликовать таблицу результатов
// @Tags leaderboard
// @Description Writes a timestamped JSON snapshot and a latest.json alias to object storage.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param disciplineID path int true "Discipline ID"
// @Param group_by query string false "Grouping"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/disciplines/{disciplineID}/leaderboard/publish [post]
func (h *LeaderboardHandler) PublishLeaderboard(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "tournamentID", "disciplineID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	published, err := h.leaderboardService.PublishLeaderboard(r.Context(), ids[0], ids[1], r.URL.Query().Get("group_by"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"published": published}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeaderboardHandler) RefreshTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshots, err := h.leaderboardService.RefreshTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboards": snapshots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Classify godoc
// @Summary Присвоить класс спортсмену
// @Tags classification
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Param body path string true "Governing body (NSSA, NSCA, ATA)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /athletes/{athleteID}/classifications/{body} [post]
func (h *LeaderboardHandler) Classify(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.classificationService.Classify(r.Context(), athleteID, chi.URLParam(r, "body"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"classification": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClassifyAll godoc
// @Summary Переклассифицировать всех спортсменов
// @Tags classification
// @Produce json
// @Param body path string true "Governing body"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /classifications/{body} [post]
func (h *LeaderboardHandler) ClassifyAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.classificationService.ClassifyAll(r.Context(), chi.URLParam(r, "body"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"classifications": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeaderboardHandler) ListScales(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"scales": h.classificationService.ListScales()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
