package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
	"fallakte/internal/service"
)

type mockAnamnesisRepo struct {
	byClient map[string]domain.Anamnesis
}

func newMockAnamnesisRepo() *mockAnamnesisRepo {
	return &mockAnamnesisRepo{byClient: make(map[string]domain.Anamnesis)}
}

func (m *mockAnamnesisRepo) Upsert(_ context.Context, anamnesis domain.Anamnesis) error {
	m.byClient[anamnesis.ClientID] = anamnesis
	return nil
}

func (m *mockAnamnesisRepo) GetByClientID(_ context.Context, clientID string) (domain.Anamnesis, error) {
	anamnesis, ok := m.byClient[clientID]
	if !ok {
		return domain.Anamnesis{}, pgx.ErrNoRows
	}
	return anamnesis, nil
}

func (m *mockAnamnesisRepo) DeleteByClientID(_ context.Context, clientID string) error {
	delete(m.byClient, clientID)
	return nil
}

type mockReportRepo struct {
	reports map[string]domain.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]domain.Report)}
}

func (m *mockReportRepo) Create(_ context.Context, report domain.Report) error {
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) Update(_ context.Context, report domain.Report) error {
	if _, ok := m.reports[report.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (domain.Report, error) {
	report, ok := m.reports[id]
	if !ok {
		return domain.Report{}, pgx.ErrNoRows
	}
	return report, nil
}

func (m *mockReportRepo) ListByClient(_ context.Context, clientID string) ([]domain.Report, error) {
	var out []domain.Report
	for _, r := range m.reports {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type mockEmailSender struct {
	sentTo      string
	sentSubject string
	err         error
}

func (m *mockEmailSender) SendReport(_ context.Context, toEmail, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sentTo = toEmail
	m.sentSubject = subject
	return nil
}

type reportFixture struct {
	clients   *mockClientRepo
	anamneses *mockAnamnesisRepo
	sessions  *mockSessionRepo
	reports   *mockReportRepo
	sender    *mockEmailSender
	llmClient *llm.MockClient
	router    *gin.Engine
}

func newReportFixture(t *testing.T, llmClient *llm.MockClient) *reportFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clients := newMockClientRepo()
	anamneses := newMockAnamnesisRepo()
	sessions := newMockSessionRepo(&mockIndicatorRepo{})
	reports := newMockReportRepo()
	sender := &mockEmailSender{}
	logger := zap.NewNop()
	synthSvc := service.NewSynthesisService(llmClient, logger)
	fragmentSvc := service.NewFragmentService(llmClient, noopFragmentRepo{}, logger)

	handler := NewReportHandler(logger, clients, anamneses, sessions, reports, synthSvc, fragmentSvc, sender)

	r := gin.New()
	r.POST("/clients/:id/reports", handler.CreateReport)
	r.PUT("/reports/:id", handler.UpdateReport)
	r.GET("/reports/:id", handler.GetReport)
	r.POST("/reports/:id/send", handler.SendReport)

	return &reportFixture{
		clients:   clients,
		anamneses: anamneses,
		sessions:  sessions,
		reports:   reports,
		sender:    sender,
		llmClient: llmClient,
		router:    r,
	}
}

func (f *reportFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateReportHappyPath(t *testing.T) {
	llmClient := &llm.MockClient{Response: "Zwischenbericht über den Betreuungsverlauf."}
	f := newReportFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{ID: "client-1", Name: "Anna Berger"}

	rec := f.do(t, http.MethodPost, "/clients/client-1/reports", gin.H{
		"type":      "interim",
		"title":     "Zwischenbericht März",
		"narrative": "Notiz zum Verlauf.",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Report domain.Report `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report.Content != "Zwischenbericht über den Betreuungsverlauf." {
		t.Fatalf("unexpected content: %q", resp.Report.Content)
	}
	if resp.Report.RawTranscript != "Notiz zum Verlauf." {
		t.Fatalf("archive missing: %q", resp.Report.RawTranscript)
	}
	if _, ok := f.reports.reports[resp.Report.ID]; !ok {
		t.Fatal("report not persisted")
	}
}

func TestCreateReportInvalidType(t *testing.T) {
	f := newReportFixture(t, &llm.MockClient{Response: "Bericht."})
	f.clients.clients["client-1"] = domain.Client{ID: "client-1"}

	rec := f.do(t, http.MethodPost, "/clients/client-1/reports", gin.H{
		"type":      "weekly",
		"title":     "Bericht",
		"narrative": "Notiz.",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateReportRevisionExtendsContent(t *testing.T) {
	draft := "Die Betreuung von Frau Berger verläuft seit Januar weitgehend stabil."
	revised := draft + "\nSeit März kommt die Arbeitssuche als Thema hinzu."

	llmClient := &llm.MockClient{Response: revised}
	f := newReportFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{ID: "client-1", Name: "Anna Berger"}
	f.reports.reports["rep-1"] = domain.Report{
		ID:            "rep-1",
		ClientID:      "client-1",
		Type:          domain.ReportInterim,
		Title:         "Zwischenbericht",
		Content:       draft,
		RawTranscript: "Erste Notiz.",
	}

	rec := f.do(t, http.MethodPut, "/reports/rep-1", gin.H{
		"narrative": "Notiz zur Arbeitssuche.",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored := f.reports.reports["rep-1"]
	if stored.Content != revised {
		t.Fatalf("content not updated: %q", stored.Content)
	}
	want := "Erste Notiz." + domain.ArchiveSeparator + "Notiz zur Arbeitssuche."
	if stored.RawTranscript != want {
		t.Fatalf("archive not appended: %q", stored.RawTranscript)
	}
}

func TestUpdateReportSynthesisFailureKeepsLastCommit(t *testing.T) {
	llmClient := &llm.MockClient{Err: errors.New("upstream down")}
	f := newReportFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{ID: "client-1"}
	before := domain.Report{
		ID:       "rep-1",
		ClientID: "client-1",
		Type:     domain.ReportInterim,
		Content:  "Bestehender Bericht.",
	}
	f.reports.reports["rep-1"] = before

	rec := f.do(t, http.MethodPut, "/reports/rep-1", gin.H{
		"narrative": "Neue Notiz.",
	})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.reports.reports["rep-1"].Content != before.Content {
		t.Fatal("report mutated despite failed synthesis")
	}
}

func TestUpdateReportSynthesisFailureFallsBackToManualContent(t *testing.T) {
	llmClient := &llm.MockClient{Err: errors.New("upstream down")}
	f := newReportFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{ID: "client-1"}
	f.reports.reports["rep-1"] = domain.Report{
		ID:       "rep-1",
		ClientID: "client-1",
		Type:     domain.ReportInterim,
		Content:  "Bestehender Bericht.",
	}

	rec := f.do(t, http.MethodPut, "/reports/rep-1", gin.H{
		"narrative": "Neue Notiz.",
		"content":   "Manuell ergänzter Bericht.",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["synthesis_error"]; !ok {
		t.Fatal("response missing synthesis_error")
	}
	if f.reports.reports["rep-1"].Content != "Manuell ergänzter Bericht." {
		t.Fatalf("manual content not committed: %q", f.reports.reports["rep-1"].Content)
	}
}

func TestUpdateReportManualEditPath(t *testing.T) {
	// Kein Narrativ: direkter Editierpfad ohne Synthese.
	llmClient := &llm.MockClient{Err: errors.New("must not be called")}
	f := newReportFixture(t, llmClient)
	f.reports.reports["rep-1"] = domain.Report{
		ID:       "rep-1",
		ClientID: "client-1",
		Type:     domain.ReportInterim,
		Content:  "Alt.",
	}

	rec := f.do(t, http.MethodPut, "/reports/rep-1", gin.H{
		"content": "Manuell überarbeitet.",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.reports.reports["rep-1"].Content != "Manuell überarbeitet." {
		t.Fatalf("content not replaced: %q", f.reports.reports["rep-1"].Content)
	}
	if len(llmClient.Prompts) != 0 {
		t.Fatal("manual edit must not call synthesis")
	}
}

func TestSendReport(t *testing.T) {
	f := newReportFixture(t, &llm.MockClient{})
	f.reports.reports["rep-1"] = domain.Report{
		ID:      "rep-1",
		Title:   "Zwischenbericht März",
		Content: "Berichtstext.",
	}

	rec := f.do(t, http.MethodPost, "/reports/rep-1/send", gin.H{
		"to": "amt@example.com",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.sender.sentTo != "amt@example.com" || f.sender.sentSubject != "Zwischenbericht März" {
		t.Fatalf("unexpected send: %+v", f.sender)
	}
}

func TestSendReportDeliveryFailure(t *testing.T) {
	f := newReportFixture(t, &llm.MockClient{})
	f.sender.err = errors.New("smtp down")
	f.reports.reports["rep-1"] = domain.Report{ID: "rep-1", Title: "Bericht"}

	rec := f.do(t, http.MethodPost, "/reports/rep-1/send", gin.H{
		"to": "amt@example.com",
	})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestCreateReportUsesSynthesisPromptWithHistory(t *testing.T) {
	llmClient := &llm.MockClient{Response: "Abschlussbericht über die Betreuung."}
	f := newReportFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{ID: "client-1", Name: "Anna Berger"}
	f.sessions.sessions["sess-1"] = domain.Session{
		ID:          "sess-1",
		ClientID:    "client-1",
		SessionDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Fields:      domain.SessionFields{CurrentStatus: "stabil"},
	}

	rec := f.do(t, http.MethodPost, "/clients/client-1/reports", gin.H{
		"type":      "final",
		"title":     "Abschlussbericht",
		"narrative": "Abschlussnotiz.",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(llmClient.Prompts) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(llmClient.Prompts))
	}
	prompt := llmClient.Prompts[0]
	if !containsAll(prompt, "Anna Berger", "03.02.2026", "Abschlussnotiz.") {
		t.Fatalf("prompt missing history:\n%s", prompt)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
