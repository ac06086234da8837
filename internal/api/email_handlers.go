package api

import (
	"net/http"
	"strings"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/contacts"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
)

// GenerateContent is the standalone generation endpoint: prompt and context
// in, raw content out. The compose flow has its own stateful variant.
func (h *Handlers) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt  string `json:"prompt"`
		Context string `json:"context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	gen := h.newGenerator(h.runtime.Credentials())
	content, err := gen.Generate(r.Context(), req.Prompt, req.Context)
	if err != nil {
		respondError(w, http.StatusBadGateway, "generation failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"content": content})
}

// SendBulk is the standalone delivery endpoint: a recipient list plus one
// subject and body. Every address must be valid before anything is sent.
func (h *Handlers) SendBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HREmails []string `json:"hr_emails"`
		Subject  string   `json:"subject"`
		Body     string   `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.HREmails) == 0 {
		respondError(w, http.StatusBadRequest, "hr_emails is required")
		return
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		respondError(w, http.StatusBadRequest, "subject and body are required")
		return
	}
	if !contacts.ValidateEmails(req.HREmails) {
		respondError(w, http.StatusBadRequest, "hr_emails contains invalid addresses")
		return
	}

	msgs := make([]mailer.Message, 0, len(req.HREmails))
	for _, to := range req.HREmails {
		msgs = append(msgs, mailer.Message{To: to, Subject: req.Subject, Body: req.Body})
	}

	sender := h.newSender(h.runtime.Credentials())
	sent, err := sender.SendBulk(r.Context(), msgs)
	if err != nil {
		respondError(w, http.StatusBadGateway, "send failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "sent",
		"sent_to": sent,
	})
}
