package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/ai"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/compose"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/config"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/notify"
)

type stubGenerator struct {
	content string
	calls   int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt, contextLabel string) (string, error) {
	s.calls++
	return s.content, nil
}

type stubSender struct {
	calls int
	sent  int
}

func (s *stubSender) SendBulk(ctx context.Context, msgs []mailer.Message) (int, error) {
	s.calls++
	s.sent += len(msgs)
	return len(msgs), nil
}

type apiFixture struct {
	handler http.Handler
	h       *Handlers
	gen     *stubGenerator
	sender  *stubSender
	log     *campaign.Log
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	lg, err := campaign.NewLog(campaign.NewMemStore())
	require.NoError(t, err)

	gen := &stubGenerator{content: `{"subject":"Hi","body":"There"}`}
	sender := &stubSender{}

	session := compose.NewSession(compose.Config{
		Log:       lg,
		Notifier:  notify.New(),
		Generator: gen,
		Sender:    sender,
	})

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	runtime := config.NewRuntime(cfg)

	h := NewHandlers(session, nil, lg, runtime, "", nil)
	h.envPath = filepath.Join(t.TempDir(), ".env")
	h.newGenerator = func(config.Credentials) ai.Generator { return gen }
	h.newSender = func(config.Credentials) mailer.Sender { return sender }

	return &apiFixture{
		handler: SetupRoutes(h),
		h:       h,
		gen:     gen,
		sender:  sender,
		log:     lg,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestComposeFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, "POST", "/api/v1/compose/contacts", map[string]string{
		"name": "Alice", "email": "alice@x.com", "company": "Acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, "PUT", "/api/v1/compose/selection", map[string][]string{
		"emails": {"alice@x.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "POST", "/api/v1/compose/selection/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "POST", "/api/v1/compose/template", map[string]int{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var snap compose.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, compose.StepEdit, snap.Step)
	require.NotNil(t, snap.Draft)

	rec = f.do(t, "POST", "/api/v1/compose/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "POST", "/api/v1/compose/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, f.sender.calls)
	assert.Equal(t, 1, f.log.Len())
}

func TestConfirmSelectionEmptyRejected(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "POST", "/api/v1/compose/selection/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComposeGenerate(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, "POST", "/api/v1/compose/contacts", map[string]string{
		"name": "Alice", "email": "alice@x.com", "company": "Acme",
	})
	f.do(t, "PUT", "/api/v1/compose/selection", map[string][]string{"emails": {"alice@x.com"}})
	f.do(t, "POST", "/api/v1/compose/selection/confirm", nil)

	rec := f.do(t, "POST", "/api/v1/compose/generate", map[string]string{
		"prompt": "intro email", "context": "Backend role",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var snap compose.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, compose.StepEdit, snap.Step)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, "Hi", snap.Draft.Subject)
}

func TestComposeGenerateBlankPrompt(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, "POST", "/api/v1/compose/contacts", map[string]string{
		"name": "Alice", "email": "alice@x.com", "company": "Acme",
	})
	f.do(t, "PUT", "/api/v1/compose/selection", map[string][]string{"emails": {"alice@x.com"}})
	f.do(t, "POST", "/api/v1/compose/selection/confirm", nil)

	rec := f.do(t, "POST", "/api/v1/compose/generate", map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.gen.calls)
}

func TestImportContactsCSV(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contacts.csv")
	require.NoError(t, err)
	fw.Write([]byte("name,email,company\nAlice,alice@x.com,Acme\nBob,bob@y.com,Beta"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/compose/contacts/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":2`)
}

func TestSendBulkRejectsInvalidEmails(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "POST", "/api/v1/email-tools/send-bulk", map[string]interface{}{
		"hr_emails": []string{"a@b.com", "not-an-email"},
		"subject":   "Hello",
		"body":      "World",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.sender.calls)
}

func TestSendBulkSuccess(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "POST", "/api/v1/email-tools/send-bulk", map[string]interface{}{
		"hr_emails": []string{"a@b.com", "c@d.org"},
		"subject":   "Hello",
		"body":      "World",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sent_to":2`)
	assert.Equal(t, 1, f.sender.calls)
}

func TestGenerateContentRequiresPrompt(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "POST", "/api/v1/email-tools/generate-content", map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.gen.calls)
}

func TestGenerateContentSuccess(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "POST", "/api/v1/email-tools/generate-content", map[string]string{
		"prompt": "write an intro",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "content"))
}

func TestResumesUnavailableWithoutDatabase(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "GET", "/api/v1/resumes/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResumeExtractTxt(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "my_resume.txt")
	require.NoError(t, err)
	fw.Write([]byte("Ten years of Go."))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/resumes/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "my_resume", resp["name"])
	assert.Equal(t, "Ten years of Go.", resp["content"])
}

func TestCredentialsMaskedOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, "POST", "/api/v1/settings/credentials", map[string]string{
		"gemini_api_key": "super-secret",
		"email_user":     "me@gmail.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret")
	assert.Contains(t, rec.Body.String(), `"***"`)

	rec = f.do(t, "GET", "/api/v1/settings/credentials", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret")
	assert.Contains(t, rec.Body.String(), "me@gmail.com")
}

func TestSaveCredentialsPersistFailureReturns500(t *testing.T) {
	f := newAPIFixture(t)
	// Point the .env path inside a directory that does not exist so the
	// write fails.
	f.h.envPath = filepath.Join(t.TempDir(), "no-such-dir", ".env")

	rec := f.do(t, "POST", "/api/v1/settings/credentials", map[string]string{
		"gemini_api_key": "new-key",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to save credentials")
}

type captureTester struct {
	creds config.Credentials
	err   error
}

func (c *captureTester) TestConnection(ctx context.Context) error {
	return c.err
}

func TestConnectionUsesPostedCredentials(t *testing.T) {
	f := newAPIFixture(t)
	capture := &captureTester{}
	f.h.newConnTester = func(creds config.Credentials) connectionTester {
		capture.creds = creds
		return capture
	}

	rec := f.do(t, "POST", "/api/v1/settings/test-connection", map[string]string{
		"smtp_server":    "smtp.example.com",
		"smtp_port":      "2525",
		"email_user":     "candidate@example.com",
		"email_password": "try-me",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "smtp.example.com", capture.creds.SMTPServer)
	assert.Equal(t, "2525", capture.creds.SMTPPort)
	assert.Equal(t, "candidate@example.com", capture.creds.EmailUser)
	assert.Equal(t, "try-me", capture.creds.EmailPassword)
}

func TestConnectionFallsBackToStoredCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.h.runtime.Update(config.Credentials{
		SMTPServer:    "smtp.stored.com",
		SMTPPort:      "587",
		EmailUser:     "stored@example.com",
		EmailPassword: "stored-pass",
	})
	capture := &captureTester{}
	f.h.newConnTester = func(creds config.Credentials) connectionTester {
		capture.creds = creds
		return capture
	}

	// Only the password is posted; the rest comes from stored values.
	rec := f.do(t, "POST", "/api/v1/settings/test-connection", map[string]string{
		"email_password": "fresh-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "smtp.stored.com", capture.creds.SMTPServer)
	assert.Equal(t, "stored@example.com", capture.creds.EmailUser)
	assert.Equal(t, "fresh-pass", capture.creds.EmailPassword)
}

func TestDeleteCampaignOutOfRange(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "DELETE", "/api/v1/campaigns/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCampaignsEmpty(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "GET", "/api/v1/campaigns/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
