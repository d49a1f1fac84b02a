package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
	"fallakte/internal/repository"
)

// FragmentService bettet committete Narrativ-Fragmente ein und findet sie
// per Ähnlichkeitssuche wieder ("wo habe ich das zu dieser Familie
// notiert?").
type FragmentService struct {
	llmClient llm.Client
	fragments repository.FragmentRepository
	logger    *zap.Logger
}

func NewFragmentService(llmClient llm.Client, fragments repository.FragmentRepository, logger *zap.Logger) *FragmentService {
	return &FragmentService{
		llmClient: llmClient,
		fragments: fragments,
		logger:    logger,
	}
}

// RecordFragment legt ein committetes Fragment mit Embedding ab. Fehler
// hier sind für den Commit der Runde nicht fatal; sie kosten nur die
// Auffindbarkeit des Fragments.
func (s *FragmentService) RecordFragment(ctx context.Context, clientID string, sessionID *string, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	embed, err := s.llmClient.CreateEmbedding(ctx, content)
	if err != nil {
		s.logger.Warn("fragment embedding failed", zap.String("client_id", clientID), zap.Error(err))
		return
	}

	fragment := domain.ArchiveFragment{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		SessionID: sessionID,
		Content:   content,
		Embedding: pgvector.NewVector(embed),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.fragments.Create(ctx, fragment); err != nil {
		s.logger.Warn("fragment store failed", zap.String("client_id", clientID), zap.Error(err))
	}
}

// Search liefert die k ähnlichsten Fragmente der Fallhistorie.
func (s *FragmentService) Search(ctx context.Context, clientID, query string, k int) ([]domain.ArchiveFragment, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyNarrative
	}

	embed, err := s.llmClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.fragments.Search(ctx, clientID, pgvector.NewVector(embed), k)
}
