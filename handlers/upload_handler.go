package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/academy-system/services"
)

type UploadHandler struct {
	mediaService services.MediaService
}

func NewUploadHandler(ms services.MediaService) *UploadHandler {
	return &UploadHandler{mediaService: ms}
}

// Upload godoc
// @Summary Загрузить изображение или видео
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл"
// @Param type formData string false "image | video"
// @Success 201 {object} storage.UploadResult
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /api/admin/uploads [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// запас на поля формы сверх размера файла
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			mapServiceErrorToHTTP(w, r, services.ErrFileTooLarge)
			return
		}
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("no file provided"))
		return
	}
	defer file.Close()

	result, err := h.mediaService.Upload(r.Context(), services.UploadInput{
		Kind:        services.MediaKind(r.FormValue("type")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		badRequestResponse(w, r, errors.New("key query parameter is required"))
		return
	}
	if err := h.mediaService.Delete(r.Context(), key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
