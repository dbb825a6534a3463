package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/academy-system/middleware"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/services"
)

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// Login godoc
// @Summary Вход администратора
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.Credentials true "Учётные данные"
// @Success 200 {object} map[string]interface{} "token"
// @Failure 401 {object} map[string]string "Неверные учётные данные"
// @Failure 429 {object} map[string]string "Слишком много попыток"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Username == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username and password are required"))
		return
	}

	session, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(services.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	response := jsonResponse{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает имя администратора из токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, err := middleware.GetUsernameFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"username": username, "role": models.RoleAdmin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
