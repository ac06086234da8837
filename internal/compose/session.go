package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/ai"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/contacts"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/draft"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/notify"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/resume"
)

var (
	ErrWrongStep      = errors.New("operation not valid at current step")
	ErrEmptySelection = errors.New("no contacts selected")
	ErrBlankPrompt    = errors.New("prompt is blank")
	ErrBusy           = errors.New("operation already in progress")
	ErrInvalidEmails  = errors.New("selection contains invalid email addresses")
	ErrNoDraft        = errors.New("no draft to preview")
)

// ResumeFetcher retrieves full resume text for generation context. It is the
// slice of the resume store the session needs.
type ResumeFetcher interface {
	Get(ctx context.Context, id uuid.UUID) (*resume.Resume, error)
}

// Session owns one compose flow: the contact store, the working draft, the
// current step, and the collaborators the flow calls out to. Methods are
// safe for concurrent use; slow calls (generation, send) run with the lock
// released and carry a sequence token so a superseded response is discarded
// instead of applied.
type Session struct {
	mu sync.Mutex

	step     Step
	contacts *contacts.Store
	draft    draft.Draft
	hasDraft bool

	selectedResumeID *uuid.UUID

	log      *campaign.Log
	notifier *notify.Notifier
	renderer *draft.Renderer

	generator ai.Generator
	sender    mailer.Sender
	resumes   ResumeFetcher

	isGenerating bool
	isSending    bool
	genSeq       uint64
	sendSeq      uint64

	// resetDelay holds the pause between a successful send and the flow
	// returning to the select step.
	resetDelay time.Duration
	afterFunc  func(d time.Duration, f func())
	now        func() time.Time
}

// Config wires a session's collaborators.
type Config struct {
	Log       *campaign.Log
	Notifier  *notify.Notifier
	Generator ai.Generator
	Sender    mailer.Sender
	Resumes   ResumeFetcher
}

// NewSession creates a session at the select step with an empty contact
// store.
func NewSession(cfg Config) *Session {
	s := &Session{
		step:       StepSelect,
		contacts:   contacts.NewStore(),
		log:        cfg.Log,
		notifier:   cfg.Notifier,
		renderer:   draft.NewRenderer(),
		generator:  cfg.Generator,
		sender:     cfg.Sender,
		resumes:    cfg.Resumes,
		resetDelay: 2 * time.Second,
		afterFunc:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:        time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.New()
	}
	return s
}

// SetGenerator swaps the generation backend, for configuration reloads.
func (s *Session) SetGenerator(g ai.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generator = g
}

// SetSender swaps the delivery backend, for configuration reloads.
func (s *Session) SetSender(m mailer.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = m
}

// ImportCSV replaces the entire contact store with the parsed rows. Any
// existing selection is dropped with the old contacts.
func (s *Session) ImportCSV(r io.Reader) (int, error) {
	parsed, err := contacts.ParseCSV(r)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to import CSV: %v", err))
		return 0, err
	}

	s.mu.Lock()
	s.contacts.ReplaceAll(parsed)
	s.mu.Unlock()

	s.notifier.Success(fmt.Sprintf("Imported %d contacts", len(parsed)))
	return len(parsed), nil
}

// AddContact validates and appends one contact.
func (s *Session) AddContact(name, email, company string) error {
	s.mu.Lock()
	err := s.contacts.Add(contacts.Contact{Name: name, Email: email, Company: company})
	s.mu.Unlock()

	if err != nil {
		s.notifier.Warning(fmt.Sprintf("Could not add contact: %v", err))
		return err
	}
	s.notifier.Success("Contact added")
	return nil
}

// RemoveContact deletes a contact by email and drops it from the selection.
func (s *Session) RemoveContact(email string) {
	s.mu.Lock()
	s.contacts.Remove(email)
	s.mu.Unlock()
	s.notifier.Info("Contact removed")
}

// SetSelection replaces the recipient selection wholesale.
func (s *Session) SetSelection(emails []string) error {
	s.mu.Lock()
	err := s.contacts.SetSelection(emails)
	s.mu.Unlock()

	if err != nil {
		s.notifier.Warning(fmt.Sprintf("Invalid selection: %v", err))
	}
	return err
}

// ToggleContact selects the email if unselected, deselects it otherwise.
func (s *Session) ToggleContact(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.contacts.Selection() {
		if sel == email {
			s.contacts.Deselect(email)
			return nil
		}
	}
	return s.contacts.Select(email)
}

// SelectResume points generation context at a stored resume; nil clears it.
func (s *Session) SelectResume(id *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedResumeID = id
}

// ConfirmSelection advances from select to generate. An empty selection is
// rejected with a warning and no transition.
func (s *Session) ConfirmSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepSelect {
		return ErrWrongStep
	}
	next, effects, ok := Next(s.step, EventConfirmSelection, s.contacts.SelectionSize())
	if !ok {
		s.applyEffects(effects)
		return ErrEmptySelection
	}
	s.step = next
	return nil
}

// Generate asks the AI backend for a draft. A blank prompt is rejected
// before any network call. When a resume is selected its full text is
// fetched first and appended to the context; a failed fetch aborts the
// attempt. The lock is released for the duration of the remote calls and a
// sequence token discards the response if another generation or a flow
// reset superseded it.
func (s *Session) Generate(ctx context.Context, prompt, contextLabel string) error {
	if strings.TrimSpace(prompt) == "" {
		s.notifier.Warning("Please enter a prompt before generating")
		return ErrBlankPrompt
	}

	s.mu.Lock()
	if s.step != StepGenerate {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.isGenerating {
		s.mu.Unlock()
		return ErrBusy
	}
	s.isGenerating = true
	s.genSeq++
	seq := s.genSeq
	resumeID := s.selectedResumeID
	fetcher := s.resumes
	gen := s.generator
	s.mu.Unlock()

	content, err := s.generate(ctx, gen, fetcher, resumeID, prompt, contextLabel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.genSeq {
		s.isGenerating = false
	}
	if seq != s.genSeq || s.step != StepGenerate {
		// A newer generation or a flow reset won; drop this response.
		log.Printf("discarding stale generation response (seq %d)", seq)
		return nil
	}
	if err != nil {
		s.notifier.Error("Failed to generate email. Please try again.")
		return err
	}

	s.draft = draft.ParseContent(content)
	s.hasDraft = true
	s.step, _, _ = Next(s.step, EventGenerated, s.contacts.SelectionSize())
	s.notifier.Success("Email draft generated")
	return nil
}

func (s *Session) generate(ctx context.Context, gen ai.Generator, fetcher ResumeFetcher, resumeID *uuid.UUID, prompt, contextLabel string) (string, error) {
	if gen == nil {
		return "", ai.ErrNoProvider
	}
	if resumeID != nil && fetcher != nil {
		r, err := fetcher.Get(ctx, *resumeID)
		if err != nil {
			return "", fmt.Errorf("failed to load selected resume: %w", err)
		}
		contextLabel = contextLabel + "\n\nResume:\n" + r.Content
	}
	return gen.Generate(ctx, prompt, contextLabel)
}

// ApplyTemplate sets the draft to a catalog template and advances to edit.
// No network call.
func (s *Session) ApplyTemplate(id int) error {
	tpl, err := draft.TemplateByID(id)
	if err != nil {
		s.notifier.Warning("Unknown template")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepGenerate {
		return ErrWrongStep
	}
	s.draft = tpl.Draft()
	s.hasDraft = true
	s.step, _, _ = Next(s.step, EventTemplateApplied, s.contacts.SelectionSize())
	return nil
}

// UpdateDraft replaces the draft's subject and body during editing.
func (s *Session) UpdateDraft(subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepEdit && s.step != StepPreview {
		return ErrWrongStep
	}
	s.draft = draft.Draft{Subject: subject, Body: body}
	s.hasDraft = true
	return nil
}

// Preview advances from edit to preview.
func (s *Session) Preview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepEdit {
		return ErrWrongStep
	}
	if !s.hasDraft {
		return ErrNoDraft
	}
	s.step, _, _ = Next(s.step, EventPreview, s.contacts.SelectionSize())
	return nil
}

// Back returns from edit to generate, keeping the draft.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepEdit {
		return ErrWrongStep
	}
	s.step, _, _ = Next(s.step, EventBackToGenerate, s.contacts.SelectionSize())
	return nil
}

// EditAgain returns from preview to edit.
func (s *Session) EditAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPreview {
		return ErrWrongStep
	}
	s.step, _, _ = Next(s.step, EventEditAgain, s.contacts.SelectionSize())
	return nil
}

// StartOver abandons the current draft and selection and returns to select
// immediately.
func (s *Session) StartOver() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPreview {
		return ErrWrongStep
	}
	next, effects, _ := Next(s.step, EventStartOver, s.contacts.SelectionSize())
	s.step = next
	s.applyEffects(effects)
	// Invalidate any in-flight generation/send and pending reset.
	s.genSeq++
	s.sendSeq++
	return nil
}

// Send validates every selected address, personalizes the draft per
// recipient, and delivers the batch. Any invalid address aborts before a
// single network call. On success the campaign is recorded at the front of
// the log and, after a short delay, the flow resets to select.
func (s *Session) Send(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepPreview {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.isSending {
		s.mu.Unlock()
		return ErrBusy
	}

	recipients := s.contacts.Selection()
	if len(recipients) == 0 {
		s.mu.Unlock()
		s.notifier.Warning("No recipients selected")
		return ErrEmptySelection
	}
	if !contacts.ValidateEmails(recipients) {
		s.mu.Unlock()
		s.notifier.Error("Selection contains invalid email addresses")
		return ErrInvalidEmails
	}

	selected := s.contacts.SelectedContacts()
	msgs := make([]mailer.Message, 0, len(selected))
	for _, c := range selected {
		personalized := s.renderer.Personalize(s.draft, c)
		msgs = append(msgs, mailer.Message{
			To:      c.Email,
			Subject: personalized.Subject,
			Body:    personalized.Body,
		})
	}

	s.isSending = true
	s.sendSeq++
	seq := s.sendSeq
	sender := s.sender
	d := s.draft
	s.mu.Unlock()

	var sent int
	var err error
	if sender == nil {
		err = mailer.ErrMissingCredentials
	} else {
		sent, err = sender.SendBulk(ctx, msgs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.sendSeq {
		s.isSending = false
	}
	if seq != s.sendSeq {
		log.Printf("discarding stale send completion (seq %d)", seq)
		return nil
	}
	if err != nil {
		s.notifier.Error("Failed to send emails. Please try again.")
		return err
	}

	rec := campaign.Campaign{
		Subject:        d.Subject,
		Body:           d.Body,
		RecipientCount: len(recipients),
		Date:           s.now().Format("2006-01-02"),
		Status:         campaign.StatusSent,
		Recipients:     recipients,
	}
	if s.log != nil {
		if lerr := s.log.Append(rec); lerr != nil {
			log.Printf("failed to persist campaign record: %v", lerr)
		}
	}
	s.notifier.Success(fmt.Sprintf("Email sent successfully to %d recipients!", sent))

	// Let the user see the confirmation before the flow resets.
	s.afterFunc(s.resetDelay, func() { s.resetAfterSend(seq) })
	return nil
}

func (s *Session) resetAfterSend(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.sendSeq || s.step != StepPreview {
		return
	}
	next, effects, _ := Next(s.step, EventSendSucceeded, s.contacts.SelectionSize())
	s.step = next
	s.applyEffects(effects)
}

// applyEffects runs with s.mu held.
func (s *Session) applyEffects(effects []Effect) {
	for _, e := range effects {
		switch e {
		case EffectClearSelection:
			s.contacts.ClearSelection()
		case EffectClearDraft:
			s.draft = draft.Draft{}
			s.hasDraft = false
		case EffectWarnEmptySelection:
			s.notifier.Warning("Please select at least one contact")
		}
	}
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Step             Step               `json:"step"`
	Contacts         []contacts.Contact `json:"contacts"`
	Selection        []string           `json:"selection"`
	Draft            *draft.Draft       `json:"draft,omitempty"`
	SelectedResumeID *uuid.UUID         `json:"selected_resume_id,omitempty"`
	IsGenerating     bool               `json:"is_generating"`
	IsSending        bool               `json:"is_sending"`
	Toast            *notify.Toast      `json:"toast,omitempty"`
}

// Snapshot returns the current state of the flow.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Step:             s.step,
		Contacts:         s.contacts.Contacts(),
		Selection:        s.contacts.Selection(),
		SelectedResumeID: s.selectedResumeID,
		IsGenerating:     s.isGenerating,
		IsSending:        s.isSending,
		Toast:            s.notifier.Current(),
	}
	if s.hasDraft {
		d := s.draft
		snap.Draft = &d
	}
	return snap
}

// CurrentStep returns the current flow step.
func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}
