package handlers

import (
	"net/http"

	"github.com/Dosada05/academy-system/services"
)

type CoachHandler struct {
	coachService services.CoachService
}

func NewCoachHandler(cs services.CoachService) *CoachHandler {
	return &CoachHandler{coachService: cs}
}

func (h *CoachHandler) List(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.coachService.ListCoaches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"coaches": coaches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CoachHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CoachInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	coach, err := h.coachService.CreateCoach(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"coach": coach}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CoachHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "coachID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CoachInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	coach, err := h.coachService.UpdateCoach(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"coach": coach}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CoachHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "coachID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.coachService.DeleteCoach(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CoachHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CoachIDs []int `json:"coach_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.coachService.ReorderCoaches(r.Context(), input.CoachIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
