package handlers

import (
	"net/http"

	"github.com/Dosada05/academy-system/realtime"
)

type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeSubscriptions подключает админку к ленте событий оплат.
// Клиент подключается к /ws/subscriptions?token=<jwt>.
func (h *WebSocketHandler) ServeSubscriptions(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, realtime.SubscriptionsRoom)
}
