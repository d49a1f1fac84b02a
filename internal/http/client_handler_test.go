package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
	"fallakte/internal/service"
)

type clientFixture struct {
	clients   *mockClientRepo
	llmClient *llm.MockClient
	router    *gin.Engine
}

func newClientFixture(t *testing.T, llmClient *llm.MockClient) *clientFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clients := newMockClientRepo()
	logger := zap.NewNop()
	extractSvc := service.NewExtractionService(llmClient, logger)
	fragmentSvc := service.NewFragmentService(llmClient, noopFragmentRepo{}, logger)

	handler := NewClientHandler(logger, clients, newMockAnamnesisRepo(), extractSvc, fragmentSvc)

	r := gin.New()
	r.POST("/clients", handler.CreateClient)
	r.PUT("/clients/:id", handler.UpdateClient)

	return &clientFixture{clients: clients, llmClient: llmClient, router: r}
}

func (f *clientFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
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

func TestUpdateClientRevisionWithoutNameMergesAttributes(t *testing.T) {
	llmClient := &llm.MockClient{
		Response: `{"name": "", "profile_data": {"employmentStatus": "arbeitssuchend", "city": "Hamburg"}}`,
	}
	f := newClientFixture(t, llmClient)
	f.clients.clients["client-1"] = domain.Client{
		ID:   "client-1",
		Name: "Anna Berger",
		Attributes: domain.ClientAttributes{
			City: "Leipzig",
			Age:  "29",
		},
	}

	rec := f.do(t, http.MethodPut, "/clients/client-1", gin.H{
		"narrative": "Die Klientin ist inzwischen nach Hamburg gezogen und arbeitssuchend.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := f.clients.clients["client-1"]
	if got.Name != "Anna Berger" {
		t.Fatalf("name lost on revision: %q", got.Name)
	}
	if got.Attributes.EmploymentStatus != "arbeitssuchend" {
		t.Fatalf("new attribute dropped: %+v", got.Attributes)
	}
	if got.Attributes.City != "Hamburg" {
		t.Fatalf("updated attribute not merged: %q", got.Attributes.City)
	}
	if got.Attributes.Age != "29" {
		t.Fatalf("untouched attribute lost: %q", got.Attributes.Age)
	}
}

func TestUpdateClientUnknownClient(t *testing.T) {
	llmClient := &llm.MockClient{Response: `{"name": "X", "profile_data": {}}`}
	f := newClientFixture(t, llmClient)

	rec := f.do(t, http.MethodPut, "/clients/nope", gin.H{"narrative": "Irgendein Text."})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateClientWithoutNameFails(t *testing.T) {
	llmClient := &llm.MockClient{
		Response: `{"name": "", "profile_data": {"city": "Leipzig"}}`,
	}
	f := newClientFixture(t, llmClient)

	rec := f.do(t, http.MethodPost, "/clients", gin.H{
		"narrative": "Gespräch ohne Namensnennung.",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.clients.clients) != 0 {
		t.Fatalf("client created despite missing name")
	}
}
