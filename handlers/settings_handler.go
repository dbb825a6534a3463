package handlers

import (
	"net/http"

	"github.com/Dosada05/academy-system/services"
)

type SettingsHandler struct {
	settingsService services.SettingsService
}

func NewSettingsHandler(ss services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateSettingsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
