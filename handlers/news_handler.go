package handlers

import (
	"net/http"

	"github.com/Dosada05/academy-system/services"
)

type NewsHandler struct {
	newsService services.NewsService
}

func NewNewsHandler(ns services.NewsService) *NewsHandler {
	return &NewsHandler{newsService: ns}
}

// ListPublished отдаёт только опубликованные новости.
func (h *NewsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *NewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *NewsHandler) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	items, err := h.newsService.ListNews(r.Context(), publishedOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "newsID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	news, err := h.newsService.GetNews(r.Context(), id, true)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": news}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.NewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	news, err := h.newsService.CreateNews(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"news": news}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "newsID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.NewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	news, err := h.newsService.UpdateNews(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"news": news}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "newsID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.newsService.DeleteNews(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
