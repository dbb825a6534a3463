package handlers

import (
	"net/http"

	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

// Submit godoc
// @Summary Подать заявку на вступление
// @Tags registrations
// @Accept json
// @Produce json
// @Param input body services.SubmitRegistrationInput true "Заявка"
// @Success 201 {object} map[string]interface{} "registration"
// @Failure 422 {object} map[string]interface{} "Ошибки по полям"
// @Router /api/registrations [post]
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitRegistrationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.registrationService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrationService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatus godoc
// @Summary Изменить статус заявки
// @Tags registrations
// @Description При одобрении создаётся игрок с подпиской по умолчанию.
// @Accept json
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} services.RegistrationDecision
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/registrations/{registrationID}/status [put]
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.RegistrationStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	decision, err := h.registrationService.UpdateStatus(r.Context(), id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, decision, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.registrationService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
