package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/draft"
)

// GetComposeState returns the full flow snapshot for rendering.
func (h *Handlers) GetComposeState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// ImportContacts replaces the contact store from an uploaded CSV file.
func (h *Handlers) ImportContacts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	n, err := h.session.ImportCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"imported": n})
}

// AddContact appends a manually entered contact.
func (h *Handlers) AddContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Company string `json:"company"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.session.AddContact(req.Name, req.Email, req.Company); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, h.session.Snapshot())
}

// RemoveContact deletes a contact by email.
func (h *Handlers) RemoveContact(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		respondError(w, http.StatusBadRequest, "invalid email path parameter")
		return
	}
	h.session.RemoveContact(email)
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// SetSelection replaces the recipient selection.
func (h *Handlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []string `json:"emails"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.session.SetSelection(req.Emails); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// ConfirmSelection advances the flow from select to generate.
func (h *Handlers) ConfirmSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ConfirmSelection(); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// GenerateDraft runs AI generation for the compose flow.
func (h *Handlers) GenerateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt   string `json:"prompt"`
		Context  string `json:"context"`
		ResumeID string `json:"resume_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.ResumeID != "" {
		id, err := uuid.Parse(req.ResumeID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid resume_id")
			return
		}
		h.session.SelectResume(&id)
	} else {
		h.session.SelectResume(nil)
	}

	if err := h.session.Generate(r.Context(), req.Prompt, req.Context); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// ListTemplates returns the built-in draft template catalog.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, draft.Templates())
}

// ApplyTemplate sets the draft from a catalog template.
func (h *Handlers) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.session.ApplyTemplate(req.ID); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// UpdateDraft edits the working draft.
func (h *Handlers) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.session.UpdateDraft(req.Subject, req.Body); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// PreviewDraft advances from edit to preview.
func (h *Handlers) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Preview(); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// BackToGenerate returns from edit to generate.
func (h *Handlers) BackToGenerate(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Back(); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// EditAgain returns from preview to edit.
func (h *Handlers) EditAgain(w http.ResponseWriter, r *http.Request) {
	if err := h.session.EditAgain(); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// StartOver abandons the current draft and selection.
func (h *Handlers) StartOver(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartOver(); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// SendCampaign delivers the previewed draft to the selected contacts.
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Send(r.Context()); err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}
