package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/emrgen/manual/internal/archive"
	"github.com/emrgen/manual/internal/model"
	"github.com/emrgen/manual/internal/service"
	"github.com/emrgen/manual/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const maxUploadMemory = 32 << 20

// SaveManualsBody is the payload of PUT /v1/manuals.
type SaveManualsBody struct {
	List        []*model.ManualNode `json:"list"`
	DeletedList []*model.ManualNode `json:"deletedList"`
}

type manualHandler struct {
	manuals *service.ManualService
}

// NewRouter mounts the manual REST api. docs may be nil.
func NewRouter(manuals *service.ManualService, docs http.FileSystem) *chi.Mux {
	h := &manualHandler{manuals: manuals}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(HttpRequestTimeMiddleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/v1/manuals", func(r chi.Router) {
		r.Get("/", h.listTree)
		r.Put("/", h.saveOrDelete)
		r.Post("/import", h.importArchive)
		r.Post("/{id}/content", h.replaceContent)
	})

	if docs != nil {
		docsPath := "/v1/docs/"
		router.Handle(docsPath+"*", http.StripPrefix(docsPath, http.FileServer(docs)))
	}

	return router
}

func (h *manualHandler) listTree(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	expand := true
	if raw := query.Get("expand"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("expand must be a boolean"))
			return
		}
		expand = parsed
	}

	forest, err := h.manuals.BuildTree(r.Context(), query.Get("groupCode"), expand)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, forest)
}

func (h *manualHandler) saveOrDelete(w http.ResponseWriter, r *http.Request) {
	var body SaveManualsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.manuals.SaveOrDelete(r.Context(), body.List, body.DeletedList); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *manualHandler) importArchive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	if err := h.manuals.ImportArchive(r.Context(), file, header.Size, r.FormValue("groupCode")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *manualHandler) replaceContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid manual id"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	manual, err := h.manuals.ReplaceContent(r.Context(), id, multipartUpload{header})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, manual)
}

// multipartUpload reads an uploaded multipart file lazily.
type multipartUpload struct {
	header *multipart.FileHeader
}

func (u multipartUpload) Bytes() ([]byte, error) {
	f, err := u.header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrManualNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidManual),
		errors.Is(err, archive.ErrIllegalPath),
		errors.Is(err, archive.ErrInvalidArchive):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
	}
	writeError(w, code, err)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to write response: %v", err)
	}
}
