package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger - *sql.DB или любое хранилище с проверкой соединения.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		_ = writeJSON(w, http.StatusServiceUnavailable, jsonResponse{"status": "unavailable", "database": "down"}, nil)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok", "database": "up"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
