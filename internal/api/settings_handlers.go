package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/config"
)

// GetCredentials returns the current credential set with secrets masked.
func (h *Handlers) GetCredentials(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.runtime.Credentials().Masked())
}

// SaveCredentials applies a credential update, persists it to .env, and
// rebuilds the compose session's generation and delivery clients.
func (h *Handlers) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	var req config.Credentials
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated := h.runtime.Update(req)
	if err := config.SaveToEnvFile(h.envPath, updated); err != nil {
		log.Printf("failed to persist credentials to %s: %v", h.envPath, err)
		respondError(w, http.StatusInternalServerError, "failed to save credentials: "+err.Error())
		return
	}

	if h.session != nil {
		h.session.SetGenerator(h.newGenerator(updated))
		h.session.SetSender(h.newSender(updated))
	}

	respondJSON(w, http.StatusOK, updated.Masked())
}

// TestConnection verifies SMTP credentials against the server without
// sending mail. Fields posted in the body are tested as-is so new
// credentials can be checked before saving; empty fields fall back to the
// stored values.
func (h *Handlers) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req config.Credentials
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	creds := h.runtime.Credentials()
	if req.SMTPServer != "" {
		creds.SMTPServer = req.SMTPServer
	}
	if req.SMTPPort != "" {
		creds.SMTPPort = req.SMTPPort
	}
	if req.EmailUser != "" {
		creds.EmailUser = req.EmailUser
	}
	if req.EmailPassword != "" {
		creds.EmailPassword = req.EmailPassword
	}

	tester := h.newConnTester(creds)
	if err := tester.TestConnection(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "connection test failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "SMTP connection successful"})
}
