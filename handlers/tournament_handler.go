package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/services"
)

type TournamentHandler struct {
	tournamentService   services.TournamentService
	disciplineService   services.DisciplineService
	registrationService services.RegistrationService
}

func NewTournamentHandler(
	ts services.TournamentService,
	ds services.DisciplineService,
	rs services.RegistrationService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService:   ts,
		disciplineService:   ds,
		registrationService: rs,
	}
}

// CreateTournament godoc
// @Summary Создать турнир
// @Tags tournaments
// @Description Creates a tournament with the disciplines it offers and their round counts.
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Tournament"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTournamentByID godoc
// @Summary Получить турнир по ID
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournamentByID(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournaments godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param status query string false "upcoming, active or completed"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter services.ListTournamentsFilter

	if s := q.Get("status"); s != "" {
		status := models.TournamentStatus(s)
		filter.Status = &status
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequestResponse(w, r, errInvalidQuery(name, raw))
			return
		}
		*dst = v
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTournamentDates godoc
// @Summary Изменить даты турнира
// @Tags tournaments
// @Description Dates are locked once any squad exists.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.UpdateTournamentDatesInput true "Dates"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/dates [patch]
func (h *TournamentHandler) UpdateTournamentDates(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateTournamentDatesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentDates(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTournamentStatus godoc
// @Summary Изменить статус турнира
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body object true "{\"status\": \"active\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/status [patch]
func (h *TournamentHandler) UpdateTournamentStatus(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentStatus(r.Context(), tournamentID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateDiscipline godoc
// @Summary Добавить дисциплину
// @Tags disciplines
// @Accept json
// @Produce json
// @Param input body services.CreateDisciplineInput true "Discipline"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /disciplines [post]
func (h *TournamentHandler) CreateDiscipline(w http.ResponseWriter, r *http.Request) {
	var input services.CreateDisciplineInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	discipline, err := h.disciplineService.CreateDiscipline(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"discipline": discipline}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListDisciplines godoc
// @Summary Список дисциплин
// @Tags disciplines
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /disciplines [get]
func (h *TournamentHandler) ListDisciplines(w http.ResponseWriter, r *http.Request) {
	disciplines, err := h.disciplineService.ListDisciplines(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"disciplines": disciplines}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type registerInput struct {
	AthleteID     int   `json:"athlete_id"`
	DisciplineIDs []int `json:"discipline_ids"`
}

// Register godoc
// @Summary Зарегистрировать спортсмена
// @Tags registrations
// @Description Registers an athlete for one or more disciplines of the tournament.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body registerInput true "Registration"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations [post]
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	var input registerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.Register(r.Context(), actor, input.AthleteID, tournamentID, input.DisciplineIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Unregister godoc
// @Summary Отменить регистрацию
// @Tags registrations
// @Param tournamentID path int true "Tournament ID"
// @Param athleteID path int true "Athlete ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations/{athleteID} [delete]
func (h *TournamentHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "tournamentID", "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.registrationService.Unregister(r.Context(), actor, ids[1], ids[0]); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListRegistrations(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
