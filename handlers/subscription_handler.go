package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/services"
	"github.com/go-chi/chi/v5"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(ss services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: ss}
}

// List godoc
// @Summary Подписки игроков со статусом за месяц
// @Tags subscriptions
// @Produce json
// @Param month query string false "Месяц YYYY-MM, по умолчанию текущий"
// @Param status query string false "paid | unpaid"
// @Param include_inactive query bool false "Включить неактивных игроков"
// @Success 200 {object} map[string]interface{} "subscriptions"
// @Security BearerAuth
// @Router /api/admin/subscriptions [get]
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.SubscriptionFilter{
		Month:  q.Get("month"),
		Status: models.PaymentStatus(q.Get("status")),
	}
	if raw := q.Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("include_inactive must be a boolean"))
			return
		}
		filter.IncludeInactive = v
	}

	subs, err := h.subscriptionService.ListSubscriptions(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"subscriptions": subs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update меняет только снимок подписки игрока.
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubscriptionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.subscriptionService.UpdateSubscription(r.Context(), playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordPayment godoc
// @Summary Записать оплату за месяц
// @Tags subscriptions
// @Description Создаёт или перезаписывает запись за месяц и обновляет снимок подписки игрока.
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param month path string true "Месяц YYYY-MM"
// @Param input body services.RecordPaymentInput true "Оплата"
// @Success 200 {object} map[string]interface{} "player"
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Failure 422 {object} map[string]interface{} "Ошибки по полям"
// @Security BearerAuth
// @Router /api/admin/subscriptions/{playerID}/payments/{month} [put]
func (h *SubscriptionHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	month := chi.URLParam(r, "month")

	var input services.RecordPaymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.subscriptionService.RecordPayment(r.Context(), playerID, month, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubscriptionHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	month := chi.URLParam(r, "month")

	status, err := h.subscriptionService.PaymentStatusForMonth(r.Context(), playerID, month)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"month": month, "status": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Report godoc
// @Summary Сводка оплат за месяц
// @Tags subscriptions
// @Produce json
// @Param month query string false "Месяц YYYY-MM, по умолчанию текущий"
// @Success 200 {object} map[string]interface{} "report"
// @Security BearerAuth
// @Router /api/admin/subscriptions/report [get]
func (h *SubscriptionHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.subscriptionService.MonthlyReport(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubscriptionHandler) Months(w http.ResponseWriter, r *http.Request) {
	env := jsonResponse{
		"current": h.subscriptionService.CurrentMonth(),
		"months":  h.subscriptionService.AvailableMonths(),
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
