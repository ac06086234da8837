package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/resume"
)

func (h *Handlers) requireResumeStore(w http.ResponseWriter) bool {
	if h.resumes == nil {
		respondError(w, http.StatusServiceUnavailable, "resume storage not configured")
		return false
	}
	return true
}

// ListResumes returns all stored resumes without their content.
func (h *Handlers) ListResumes(w http.ResponseWriter, r *http.Request) {
	if !h.requireResumeStore(w) {
		return
	}
	list, err := h.resumes.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateResume stores a new resume.
func (h *Handlers) CreateResume(w http.ResponseWriter, r *http.Request) {
	if !h.requireResumeStore(w) {
		return
	}
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.resumes.Create(r.Context(), req.Name, req.Content)
	if err != nil {
		respondResumeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetResume returns one resume with its full content.
func (h *Handlers) GetResume(w http.ResponseWriter, r *http.Request) {
	if !h.requireResumeStore(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resume id")
		return
	}

	res, err := h.resumes.Get(r.Context(), id)
	if err != nil {
		respondResumeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// UpdateResume applies a partial update to name and/or content.
func (h *Handlers) UpdateResume(w http.ResponseWriter, r *http.Request) {
	if !h.requireResumeStore(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resume id")
		return
	}
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.resumes.Update(r.Context(), id, req.Name, req.Content)
	if err != nil {
		respondResumeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteResume removes a stored resume.
func (h *Handlers) DeleteResume(w http.ResponseWriter, r *http.Request) {
	if !h.requireResumeStore(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resume id")
		return
	}

	if err := h.resumes.Delete(r.Context(), id); err != nil {
		respondResumeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ExtractResume converts an uploaded .txt or .pdf file to text for review
// before the user saves it. Nothing is persisted here.
func (h *Handlers) ExtractResume(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxFileSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	name, content, err := resume.Ingest(header.Filename, data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": name, "content": content})
}

func respondResumeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resume.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, resume.ErrDuplicateName):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, resume.ErrEmptyFields):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
