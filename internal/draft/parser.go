// Package draft holds the email draft model, the parser that normalizes
// generated content into a draft, and the template catalog with per-recipient
// personalization.
package draft

import (
	"encoding/json"
	"strings"
)

// DefaultSubject is substituted when generated content carries no subject.
const DefaultSubject = "Email Subject"

// Draft is the editable subject/body pair flowing through the compose steps.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// IsEmpty reports whether the draft has neither subject nor body.
func (d Draft) IsEmpty() bool {
	return d.Subject == "" && d.Body == ""
}

// ParseContent normalizes raw generated content into a Draft. The content is
// first interpreted as a JSON object with subject and body fields; if that
// fails, the first line becomes the subject and the remaining lines the body.
// A structured result with a missing subject falls back to DefaultSubject,
// and a missing body to the empty string. This is the only defensive parsing
// in the flow and governs what the user sees when the generation backend's
// output format varies.
func ParseContent(raw string) Draft {
	var parsed struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	// A bare JSON null unmarshals into the struct without error but carries
	// no fields; treat it as freeform like any other non-object content.
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && strings.TrimSpace(raw) != "null" {
		d := Draft{Subject: parsed.Subject, Body: parsed.Body}
		if d.Subject == "" {
			d.Subject = DefaultSubject
		}
		return d
	}

	lines := strings.Split(raw, "\n")
	d := Draft{Subject: lines[0]}
	if d.Subject == "" {
		d.Subject = DefaultSubject
	}
	if len(lines) > 1 {
		d.Body = strings.Join(lines[1:], "\n")
	}
	return d
}
