package handlers

import (
	"net/http"

	"github.com/Dosada05/clay-tournament/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rs services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rs}
}

// CreateAthlete godoc
// @Summary Создать спортсмена
// @Tags roster
// @Accept json
// @Produce json
// @Param input body services.CreateAthleteInput true "Athlete"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /athletes [post]
func (h *RosterHandler) CreateAthlete(w http.ResponseWriter, r *http.Request) {
	var input services.CreateAthleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.rosterService.CreateAthlete(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetAthlete godoc
// @Summary Получить спортсмена по ID
// @Tags roster
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /athletes/{athleteID} [get]
func (h *RosterHandler) GetAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.rosterService.GetAthlete(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateTeam godoc
// @Summary Создать команду
// @Tags roster
// @Description The creating user becomes the team's coach.
// @Accept json
// @Produce json
// @Param input body services.CreateTeamInput true "Team"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams [post]
func (h *RosterHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.rosterService.CreateTeam(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTeam godoc
// @Summary Получить команду с тренерами и спортсменами
// @Tags roster
// @Produce json
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /teams/{teamID} [get]
func (h *RosterHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.rosterService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinTeam godoc
// @Summary Добавить спортсмена в команду
// @Tags roster
// @Produce json
// @Param teamID path int true "Team ID"
// @Param athleteID path int true "Athlete ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/athletes/{athleteID} [post]
func (h *RosterHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "teamID", "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	athlete, err := h.rosterService.JoinTeam(r.Context(), actor, ids[0], ids[1])
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaveTeam godoc
// @Summary Убрать спортсмена из команды
// @Tags roster
// @Param teamID path int true "Team ID"
// @Param athleteID path int true "Athlete ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/athletes/{athleteID} [delete]
func (h *RosterHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "teamID", "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.rosterService.LeaveTeam(r.Context(), actor, ids[0], ids[1]); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateJoinRequest godoc
// @Summary Заявка на вступление в команду
// @Tags roster
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param input body services.CreateJoinRequestInput true "Request"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/join-requests [post]
func (h *RosterHandler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateJoinRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.rosterService.CreateJoinRequest(r.Context(), actor, teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"join_request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
