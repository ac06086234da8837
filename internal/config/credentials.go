package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Credentials is the editable secret set exposed over the settings API.
type Credentials struct {
	GeminiAPIKey  string `json:"gemini_api_key"`
	SMTPServer    string `json:"smtp_server"`
	SMTPPort      string `json:"smtp_port"`
	EmailUser     string `json:"email_user"`
	EmailPassword string `json:"email_password"`
}

// Masked returns a copy safe to show: secrets collapse to "***" when set
// and stay empty when unset, so the UI can tell configured from missing
// without ever seeing the value.
func (c Credentials) Masked() Credentials {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "***"
	}
	return Credentials{
		GeminiAPIKey:  mask(c.GeminiAPIKey),
		SMTPServer:    c.SMTPServer,
		SMTPPort:      c.SMTPPort,
		EmailUser:     c.EmailUser,
		EmailPassword: mask(c.EmailPassword),
	}
}

// SaveToEnvFile writes the credentials to a .env file, keeping unrelated
// lines from an existing file intact.
func SaveToEnvFile(path string, c Credentials) error {
	managed := map[string]string{
		"GEMINI_API_KEY": c.GeminiAPIKey,
		"SMTP_SERVER":    c.SMTPServer,
		"SMTP_PORT":      c.SMTPPort,
		"EMAIL_USER":     c.EmailUser,
		"EMAIL_PASSWORD": c.EmailPassword,
	}

	var kept []string
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			key := trimmed
			if i := strings.Index(trimmed, "="); i >= 0 {
				key = trimmed[:i]
			}
			if _, ours := managed[key]; !ours {
				kept = append(kept, line)
			}
		}
	}

	var sb strings.Builder
	for _, line := range kept {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, key := range []string{"GEMINI_API_KEY", "SMTP_SERVER", "SMTP_PORT", "EMAIL_USER", "EMAIL_PASSWORD"} {
		if managed[key] != "" {
			fmt.Fprintf(&sb, "%s=%s\n", key, managed[key])
		}
	}

	return os.WriteFile(path, []byte(sb.String()), 0600)
}

// Runtime holds the live credential set. Settings updates replace it
// without a restart; readers take a copy under the lock.
type Runtime struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewRuntime seeds the runtime credentials from loaded configuration.
func NewRuntime(cfg *Config) *Runtime {
	return &Runtime{
		creds: Credentials{
			GeminiAPIKey:  cfg.Gemini.APIKey,
			SMTPServer:    cfg.SMTP.Server,
			SMTPPort:      cfg.SMTP.Port,
			EmailUser:     cfg.SMTP.User,
			EmailPassword: cfg.SMTP.Password,
		},
	}
}

// Credentials returns the current credential set.
func (r *Runtime) Credentials() Credentials {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creds
}

// Update replaces the credential set. Empty fields keep their current
// value so a partial settings form does not wipe stored secrets.
func (r *Runtime) Update(c Credentials) Credentials {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.GeminiAPIKey != "" {
		r.creds.GeminiAPIKey = c.GeminiAPIKey
	}
	if c.SMTPServer != "" {
		r.creds.SMTPServer = c.SMTPServer
	}
	if c.SMTPPort != "" {
		r.creds.SMTPPort = c.SMTPPort
	}
	if c.EmailUser != "" {
		r.creds.EmailUser = c.EmailUser
	}
	if c.EmailPassword != "" {
		r.creds.EmailPassword = c.EmailPassword
	}
	return r.creds
}
