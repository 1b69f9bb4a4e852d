package handlers

import (
	"net/http"

	"github.com/Dosada05/clay-tournament/services"
)

type ScheduleHandler struct {
	schedulerService services.SchedulerService
}

func NewScheduleHandler(ss services.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{schedulerService: ss}
}

// CreateTimeSlot godoc
// @Summary Создать временной слот
// @Tags schedule
// @Description Start time must fall within the tournament dates; capacity bounds the athletes shooting in the slot.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.CreateTimeSlotInput true "Time slot"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/timeslots [post]
func (h *ScheduleHandler) CreateTimeSlot(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateTimeSlotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.schedulerService.CreateTimeSlot(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"time_slot": slot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTimeSlots godoc
// @Summary Список временных слотов турнира
// @Tags schedule
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/timeslots [get]
func (h *ScheduleHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.schedulerService.ListTimeSlots(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"time_slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteTimeSlot godoc
// @Summary Удалить временной слот
// @Tags schedule
// @Param timeSlotID path int true "Time slot ID"
// @Success 204
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timeslots/{timeSlotID} [delete]
func (h *ScheduleHandler) DeleteTimeSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "timeSlotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.schedulerService.DeleteTimeSlot(r.Context(), slotID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSquad godoc
// @Summary Создать сквад
// @Tags schedule
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.CreateSquadInput true "Squad"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/squads [post]
func (h *ScheduleHandler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.schedulerService.CreateSquad(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSquad godoc
// @Summary Получить сквад с участниками
// @Tags schedule
// @Produce json
// @Param squadID path int true "Squad ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /squads/{squadID} [get]
func (h *ScheduleHandler) GetSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "squadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.schedulerService.GetSquad(r.Context(), squadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DissolveSquad godoc
// @Summary Расформировать сквад
// @Tags schedule
// @Param squadID path int true "Squad ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /squads/{squadID} [delete]
func (h *ScheduleHandler) DissolveSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "squadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.schedulerService.DissolveSquad(r.Context(), squadID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveSquadInput struct {
	TimeSlotID int `json:"time_slot_id"`
}

// MoveSquad godoc
// @Summary Перенести сквад в другой слот
// @Tags schedule
// @Description Atomically moves a squad with all its members. Fails with 409 when the target slot
// @Description would exceed its capacity or a member is already booked in it.
// @Accept json
// @Produce json
// @Param squadID path int true "Squad ID"
// @Param input body moveSquadInput true "Target slot"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /squads/{squadID}/move [post]
func (h *ScheduleHandler) MoveSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "squadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input moveSquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.schedulerService.MoveSquad(r.Context(), squadID, input.TimeSlotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type assignAthleteInput struct {
	AthleteID int `json:"athlete_id"`
}

// AssignAthlete godoc
// @Summary Добавить спортсмена в сквад
// @Tags schedule
// @Accept json
// @Produce json
// @Param squadID path int true "Squad ID"
// @Param input body assignAthleteInput true "Athlete"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /squads/{squadID}/members [post]
func (h *ScheduleHandler) AssignAthlete(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "squadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input assignAthleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.schedulerService.AssignAthleteToSquad(r.Context(), input.AthleteID, squadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveAthlete godoc
// @Summary Убрать спортсмена из сквада
// @Tags schedule
// @Param squadID path int true "Squad ID"
// @Param athleteID path int true "Athlete ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /squads/{squadID}/members/{athleteID} [delete]
func (h *ScheduleHandler) RemoveAthlete(w http.ResponseWriter, r *http.Request) {
	ids, err := getIDsFromURL(r, "squadID", "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.schedulerService.RemoveAthleteFromSquad(r.Context(), ids[1], ids[0]); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SquadProgress godoc
// @Summary Прогресс сквада по станциям
// @Tags schedule
// @Produce json
// @Param squadID path int true "Squad ID"
// @Success 200 {object} map[string]interface{}
// @Router /squads/{squadID}/progress [get]
func (h *ScheduleHandler) SquadProgress(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "squadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	progress, err := h.schedulerService.SquadProgress(r.Context(), squadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": progress}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
