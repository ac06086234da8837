package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/contacts"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/draft"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/notify"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/resume"
)

type fakeGenerator struct {
	content   string
	err       error
	calls     int
	lastLabel string
	onCall    func()
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, contextLabel string) (string, error) {
	f.calls++
	f.lastLabel = contextLabel
	if f.onCall != nil {
		f.onCall()
	}
	return f.content, f.err
}

type fakeSender struct {
	calls   int
	batches [][]mailer.Message
	err     error
	onCall  func()
}

func (f *fakeSender) SendBulk(ctx context.Context, msgs []mailer.Message) (int, error) {
	f.calls++
	f.batches = append(f.batches, msgs)
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return 0, f.err
	}
	return len(msgs), nil
}

type fakeResumes struct {
	r   *resume.Resume
	err error
}

func (f *fakeResumes) Get(ctx context.Context, id uuid.UUID) (*resume.Resume, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.r, nil
}

type sessionFixture struct {
	sess   *Session
	gen    *fakeGenerator
	sender *fakeSender
	store  *campaign.MemStore
	resets []func()
}

func newFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := campaign.NewMemStore()
	lg, err := campaign.NewLog(store)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}

	f := &sessionFixture{
		gen:    &fakeGenerator{content: `{"subject":"Hi","body":"There"}`},
		sender: &fakeSender{},
		store:  store,
	}
	f.sess = NewSession(Config{
		Log:       lg,
		Notifier:  notify.New(),
		Generator: f.gen,
		Sender:    f.sender,
	})
	// Capture scheduled resets so tests control when they fire.
	f.sess.afterFunc = func(d time.Duration, fn func()) {
		f.resets = append(f.resets, fn)
	}
	return f
}

func (f *sessionFixture) runResets() {
	for _, fn := range f.resets {
		fn()
	}
	f.resets = nil
}

func (f *sessionFixture) addAndSelect(t *testing.T, name, email, company string) {
	t.Helper()
	if err := f.sess.AddContact(name, email, company); err != nil {
		t.Fatalf("AddContact(%s): %v", email, err)
	}
	if err := f.sess.ToggleContact(email); err != nil {
		t.Fatalf("ToggleContact(%s): %v", email, err)
	}
}

func (f *sessionFixture) toPreview(t *testing.T) {
	t.Helper()
	if err := f.sess.ConfirmSelection(); err != nil {
		t.Fatalf("ConfirmSelection: %v", err)
	}
	if err := f.sess.ApplyTemplate(1); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	if err := f.sess.Preview(); err != nil {
		t.Fatalf("Preview: %v", err)
	}
}

func TestConfirmSelectionEmptyGuard(t *testing.T) {
	f := newFixture(t)
	f.sess.AddContact("Alice", "alice@x.com", "Acme")

	err := f.sess.ConfirmSelection()
	if err != ErrEmptySelection {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	if f.sess.CurrentStep() != StepSelect {
		t.Errorf("step = %s, want select", f.sess.CurrentStep())
	}
	toast := f.sess.Snapshot().Toast
	if toast == nil || toast.Type != notify.TypeWarning {
		t.Errorf("expected a warning toast, got %+v", toast)
	}
}

func TestGenerateBlankPromptNoCall(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()

	if err := f.sess.Generate(context.Background(), "   ", ""); err != ErrBlankPrompt {
		t.Fatalf("err = %v, want ErrBlankPrompt", err)
	}
	if f.gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.gen.calls)
	}
	if f.sess.CurrentStep() != StepGenerate {
		t.Errorf("step = %s, want generate", f.sess.CurrentStep())
	}
}

func TestGenerateSuccessMovesToEdit(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()

	if err := f.sess.Generate(context.Background(), "intro email", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	snap := f.sess.Snapshot()
	if snap.Step != StepEdit {
		t.Errorf("step = %s, want edit", snap.Step)
	}
	if snap.Draft == nil || snap.Draft.Subject != "Hi" || snap.Draft.Body != "There" {
		t.Errorf("draft = %+v, want parsed {Hi, There}", snap.Draft)
	}
}

func TestGenerateFailureStaysInGenerate(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("provider down")
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()

	if err := f.sess.Generate(context.Background(), "intro", ""); err == nil {
		t.Fatal("expected error")
	}
	snap := f.sess.Snapshot()
	if snap.Step != StepGenerate {
		t.Errorf("step = %s, want generate", snap.Step)
	}
	if snap.Toast == nil || snap.Toast.Type != notify.TypeError {
		t.Errorf("expected an error toast, got %+v", snap.Toast)
	}
	if snap.IsGenerating {
		t.Error("busy flag still set after failure")
	}
}

func TestGenerateAppendsSelectedResume(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.sess.resumes = &fakeResumes{r: &resume.Resume{ID: id, Name: "cv", Content: "Ten years of Go."}}
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()
	f.sess.SelectResume(&id)

	if err := f.sess.Generate(context.Background(), "intro", "Backend role"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(f.gen.lastLabel, "Resume:\nTen years of Go.") {
		t.Errorf("context label missing resume text: %q", f.gen.lastLabel)
	}
}

func TestGenerateResumeFetchFailureAborts(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.sess.resumes = &fakeResumes{err: errors.New("db down")}
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()
	f.sess.SelectResume(&id)

	if err := f.sess.Generate(context.Background(), "intro", ""); err == nil {
		t.Fatal("expected resume fetch failure to abort generation")
	}
	if f.gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.gen.calls)
	}
	if f.sess.CurrentStep() != StepGenerate {
		t.Errorf("step = %s, want generate", f.sess.CurrentStep())
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.sess.ConfirmSelection()

	// A newer request supersedes this one while it is in flight.
	f.gen.onCall = func() {
		f.sess.mu.Lock()
		f.sess.genSeq++
		f.sess.mu.Unlock()
	}
	if err := f.sess.Generate(context.Background(), "intro", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	snap := f.sess.Snapshot()
	if snap.Step != StepGenerate {
		t.Errorf("stale response advanced the flow to %s", snap.Step)
	}
	if snap.Draft != nil {
		t.Errorf("stale response set draft %+v", snap.Draft)
	}
}

func TestSendRejectsInvalidEmailWithoutNetwork(t *testing.T) {
	f := newFixture(t)
	// "bad@x" passes the lax import filter but not send-time validation.
	f.sess.contacts.ReplaceAll([]contacts.Contact{
		{Name: "Alice", Email: "a@b.com", Company: "Acme"},
		{Name: "Bad", Email: "bad@x", Company: "None"},
	})
	f.sess.contacts.SetSelection([]string{"a@b.com", "bad@x"})
	f.toPreview(t)

	if err := f.sess.Send(context.Background()); err != ErrInvalidEmails {
		t.Fatalf("err = %v, want ErrInvalidEmails", err)
	}
	if f.sender.calls != 0 {
		t.Errorf("sender called %d times, want 0", f.sender.calls)
	}
	if f.sess.CurrentStep() != StepPreview {
		t.Errorf("step = %s, want preview", f.sess.CurrentStep())
	}
}

func TestSendFailureStaysInPreview(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("smtp down")
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.toPreview(t)

	if err := f.sess.Send(context.Background()); err == nil {
		t.Fatal("expected send error")
	}
	if f.sess.CurrentStep() != StepPreview {
		t.Errorf("step = %s, want preview for retry", f.sess.CurrentStep())
	}
	if f.sess.Snapshot().Selection == nil {
		t.Error("selection cleared on failure")
	}
}

func TestSendPersonalizesPerRecipient(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.addAndSelect(t, "Bob", "bob@y.com", "Beta")
	f.sess.ConfirmSelection()
	f.sess.ApplyTemplate(1)
	f.sess.UpdateDraft("Hello {{ name }}", "Greetings from {{ company }}")
	f.sess.Preview()

	if err := f.sess.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(f.sender.batches) != 1 || len(f.sender.batches[0]) != 2 {
		t.Fatalf("batches = %+v", f.sender.batches)
	}
	first := f.sender.batches[0][0]
	if first.Subject != "Hello Alice" || first.Body != "Greetings from Acme" {
		t.Errorf("personalized message = %+v", first)
	}
	second := f.sender.batches[0][1]
	if second.Subject != "Hello Bob" {
		t.Errorf("second subject = %q", second.Subject)
	}
}

func TestStartOverClearsImmediately(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.toPreview(t)

	if err := f.sess.StartOver(); err != nil {
		t.Fatalf("StartOver: %v", err)
	}
	snap := f.sess.Snapshot()
	if snap.Step != StepSelect {
		t.Errorf("step = %s, want select", snap.Step)
	}
	if len(snap.Selection) != 0 || snap.Draft != nil {
		t.Errorf("selection/draft not cleared: %+v", snap)
	}
	if len(snap.Contacts) != 1 {
		t.Errorf("contacts should survive start over, got %d", len(snap.Contacts))
	}
}

func TestStaleSendFailureDiscardedSilently(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.toPreview(t)

	// A flow reset supersedes the send while it is in flight; its failure
	// must be dropped, not surfaced into the new flow.
	f.sender.err = errors.New("smtp down")
	f.sender.onCall = func() {
		f.sess.mu.Lock()
		f.sess.sendSeq++
		f.sess.mu.Unlock()
	}
	f.sess.notifier.Dismiss()

	if err := f.sess.Send(context.Background()); err != nil {
		t.Fatalf("stale send failure should be discarded, got %v", err)
	}
	if toast := f.sess.Snapshot().Toast; toast != nil {
		t.Errorf("stale send failure surfaced toast %+v", toast)
	}
	if f.sess.log.Len() != 0 {
		t.Errorf("stale send recorded a campaign")
	}
}

func TestSendResetSkippedWhenFlowMovedOn(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.toPreview(t)

	if err := f.sess.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// The user goes back to editing before the reset timer fires.
	if err := f.sess.EditAgain(); err != nil {
		t.Fatalf("EditAgain: %v", err)
	}
	f.runResets()

	snap := f.sess.Snapshot()
	if snap.Step != StepEdit {
		t.Errorf("step = %s, want edit (reset must not fire)", snap.Step)
	}
	if len(snap.Selection) != 1 {
		t.Errorf("selection cleared by stale reset: %+v", snap.Selection)
	}
}

func TestEndToEndTemplateFlow(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")

	if err := f.sess.ConfirmSelection(); err != nil {
		t.Fatalf("ConfirmSelection: %v", err)
	}
	tpl, err := draft.TemplateByID(1)
	if err != nil {
		t.Fatalf("TemplateByID: %v", err)
	}
	if err := f.sess.ApplyTemplate(1); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}

	snap := f.sess.Snapshot()
	if snap.Step != StepEdit {
		t.Fatalf("step = %s, want edit", snap.Step)
	}
	if snap.Draft == nil || *snap.Draft != tpl.Draft() {
		t.Fatalf("draft = %+v, want template draft %+v", snap.Draft, tpl.Draft())
	}

	if err := f.sess.Preview(); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	before := f.sess.log.Len()
	if err := f.sess.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	f.runResets()

	snap = f.sess.Snapshot()
	if f.sess.log.Len() != before+1 {
		t.Errorf("log length = %d, want %d", f.sess.log.Len(), before+1)
	}
	rec := f.sess.log.All()[0]
	if rec.Status != campaign.StatusSent || rec.RecipientCount != 1 {
		t.Errorf("campaign record = %+v", rec)
	}
	if snap.Step != StepSelect {
		t.Errorf("step = %s, want select after reset", snap.Step)
	}
	if len(snap.Selection) != 0 || snap.Draft != nil {
		t.Errorf("selection/draft not cleared after reset: %+v", snap)
	}
	if f.store.Saves() == 0 {
		t.Error("campaign log never persisted")
	}
}

func TestSendBusyFlag(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Alice", "alice@x.com", "Acme")
	f.toPreview(t)

	f.sess.mu.Lock()
	f.sess.isSending = true
	f.sess.mu.Unlock()

	if err := f.sess.Send(context.Background()); err != ErrBusy {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if f.sender.calls != 0 {
		t.Errorf("sender called while busy")
	}
}

func TestImportCSVReplacesContacts(t *testing.T) {
	f := newFixture(t)
	f.addAndSelect(t, "Old", "old@x.com", "Prev")

	n, err := f.sess.ImportCSV(strings.NewReader("name,email,company\nAlice,alice@x.com,Acme\nBad,,NoEmail\nBob,bob@y.com,Beta"))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}
	snap := f.sess.Snapshot()
	if len(snap.Contacts) != 2 {
		t.Errorf("contacts = %+v, want Alice and Bob only", snap.Contacts)
	}
	if len(snap.Selection) != 0 {
		t.Errorf("selection should be dropped with the replaced store: %+v", snap.Selection)
	}
}
