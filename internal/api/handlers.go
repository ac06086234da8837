// Package api exposes the application over HTTP: the compose flow, resume
// storage, campaign history, standalone email tools, and settings.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/ai"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/compose"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/config"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/resume"
)

// Handlers carries the wired application services for the HTTP layer.
type Handlers struct {
	session   *compose.Session
	resumes   *resume.Store
	campaigns *campaign.Log
	runtime   *config.Runtime
	openAIKey string
	throttle  mailer.Throttler
	envPath   string

	// Factories build fresh clients from live credentials so settings
	// changes take effect without a restart. Tests substitute fakes.
	newGenerator  func(creds config.Credentials) ai.Generator
	newSender     func(creds config.Credentials) mailer.Sender
	newConnTester func(creds config.Credentials) connectionTester
}

// connectionTester checks mail credentials without sending anything.
type connectionTester interface {
	TestConnection(ctx context.Context) error
}

// NewHandlers wires the handler set.
func NewHandlers(session *compose.Session, resumes *resume.Store, campaigns *campaign.Log, runtime *config.Runtime, openAIKey string, throttle mailer.Throttler) *Handlers {
	h := &Handlers{
		session:   session,
		resumes:   resumes,
		campaigns: campaigns,
		runtime:   runtime,
		openAIKey: openAIKey,
		throttle:  throttle,
		envPath:   ".env",
	}
	h.newGenerator = func(creds config.Credentials) ai.Generator {
		return ai.NewClient(creds.GeminiAPIKey, h.openAIKey)
	}
	h.newSender = func(creds config.Credentials) mailer.Sender {
		s := mailer.NewSMTPSender(creds.SMTPServer, creds.SMTPPort, creds.EmailUser, creds.EmailPassword)
		if h.throttle != nil {
			s.WithThrottler(h.throttle)
		}
		return s
	}
	h.newConnTester = func(creds config.Credentials) connectionTester {
		return mailer.NewSMTPSender(creds.SMTPServer, creds.SMTPPort, creds.EmailUser, creds.EmailPassword)
	}
	return h
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFlowError maps compose flow errors onto HTTP statuses.
func respondFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, compose.ErrWrongStep), errors.Is(err, compose.ErrBusy):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, compose.ErrEmptySelection),
		errors.Is(err, compose.ErrBlankPrompt),
		errors.Is(err, compose.ErrInvalidEmails),
		errors.Is(err, compose.ErrNoDraft):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
