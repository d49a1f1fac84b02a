package service

import (
	"context"
	"errors"
	"testing"

	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
)

type mockFragmentRepo struct {
	created   []domain.ArchiveFragment
	results   []domain.ArchiveFragment
	createErr error
	searchErr error

	lastClientID string
	lastK        int
}

func (m *mockFragmentRepo) Create(ctx context.Context, fragment domain.ArchiveFragment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, fragment)
	return nil
}

func (m *mockFragmentRepo) Search(ctx context.Context, clientID string, queryEmbedding pgvector.Vector, k int) ([]domain.ArchiveFragment, error) {
	m.lastClientID = clientID
	m.lastK = k
	return m.results, m.searchErr
}

func TestRecordFragmentStoresEmbedding(t *testing.T) {
	repo := &mockFragmentRepo{}
	llmClient := &llm.MockClient{Embedding: []float32{0.5, 0.25}}
	svc := NewFragmentService(llmClient, repo, zap.NewNop())

	sessionID := "sess-1"
	svc.RecordFragment(context.Background(), "client-1", &sessionID, "Hausbesuch am Dienstag.")

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(repo.created))
	}
	fragment := repo.created[0]
	if fragment.ClientID != "client-1" {
		t.Fatalf("unexpected client id: %s", fragment.ClientID)
	}
	if fragment.SessionID == nil || *fragment.SessionID != "sess-1" {
		t.Fatalf("session binding lost: %v", fragment.SessionID)
	}
	if fragment.Content != "Hausbesuch am Dienstag." {
		t.Fatalf("unexpected content: %q", fragment.Content)
	}
}

func TestRecordFragmentSkipsEmptyContent(t *testing.T) {
	repo := &mockFragmentRepo{}
	svc := NewFragmentService(&llm.MockClient{}, repo, zap.NewNop())

	svc.RecordFragment(context.Background(), "client-1", nil, "   \n")

	if len(repo.created) != 0 {
		t.Fatalf("expected no fragment, got %d", len(repo.created))
	}
}

func TestRecordFragmentEmbeddingFailureIsNonFatal(t *testing.T) {
	repo := &mockFragmentRepo{}
	llmClient := &llm.MockClient{Err: errors.New("upstream down")}
	svc := NewFragmentService(llmClient, repo, zap.NewNop())

	// Darf nicht panicen und nichts anlegen.
	svc.RecordFragment(context.Background(), "client-1", nil, "Notiz.")

	if len(repo.created) != 0 {
		t.Fatalf("expected no fragment, got %d", len(repo.created))
	}
}

func TestSearchFragments(t *testing.T) {
	repo := &mockFragmentRepo{
		results: []domain.ArchiveFragment{
			{ID: "frag-1", ClientID: "client-1", Content: "Wohngeldantrag besprochen."},
		},
	}
	svc := NewFragmentService(&llm.MockClient{Embedding: []float32{0.1}}, repo, zap.NewNop())

	found, err := svc.Search(context.Background(), "client-1", "Wohngeld", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "frag-1" {
		t.Fatalf("unexpected results: %+v", found)
	}
	if repo.lastClientID != "client-1" || repo.lastK != 5 {
		t.Fatalf("search scope not forwarded: %s, %d", repo.lastClientID, repo.lastK)
	}
}

func TestSearchFragmentsEmptyQuery(t *testing.T) {
	svc := NewFragmentService(&llm.MockClient{}, &mockFragmentRepo{}, zap.NewNop())

	_, err := svc.Search(context.Background(), "client-1", "  ", 5)
	if !errors.Is(err, ErrEmptyNarrative) {
		t.Fatalf("expected ErrEmptyNarrative, got %v", err)
	}
}

func TestSearchFragmentsEmbeddingFailure(t *testing.T) {
	llmClient := &llm.MockClient{Err: errors.New("upstream down")}
	svc := NewFragmentService(llmClient, &mockFragmentRepo{}, zap.NewNop())

	if _, err := svc.Search(context.Background(), "client-1", "Wohngeld", 5); err == nil {
		t.Fatal("expected error")
	}
}
