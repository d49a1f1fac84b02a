package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fallakte/internal/domain"
)

type mockWorkerRepo struct {
	worker domain.Worker
	err    error

	lastEmail string
}

func (m *mockWorkerRepo) Create(ctx context.Context, worker domain.Worker) error {
	return errors.New("not implemented")
}

func (m *mockWorkerRepo) GetByEmail(ctx context.Context, email string) (domain.Worker, error) {
	m.lastEmail = email
	return m.worker, m.err
}

func (m *mockWorkerRepo) GetByID(ctx context.Context, id string) (domain.Worker, error) {
	return m.worker, m.err
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestLoginHappyPath(t *testing.T) {
	repo := &mockWorkerRepo{
		worker: domain.Worker{
			ID:           "worker-1",
			Email:        "fachkraft@example.com",
			PasswordHash: hashPassword(t, "geheim123"),
		},
	}
	svc := NewAuthService(repo, zap.NewNop())

	worker, err := svc.Login(context.Background(), "  Fachkraft@Example.com ", "geheim123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if worker.ID != "worker-1" {
		t.Fatalf("unexpected worker: %+v", worker)
	}
	if repo.lastEmail != "fachkraft@example.com" {
		t.Fatalf("email not normalized: %q", repo.lastEmail)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockWorkerRepo{
		worker: domain.Worker{
			ID:           "worker-1",
			PasswordHash: hashPassword(t, "geheim123"),
		},
	}
	svc := NewAuthService(repo, zap.NewNop())

	_, err := svc.Login(context.Background(), "fachkraft@example.com", "falsch")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownWorker(t *testing.T) {
	repo := &mockWorkerRepo{err: pgx.ErrNoRows}
	svc := NewAuthService(repo, zap.NewNop())

	_, err := svc.Login(context.Background(), "niemand@example.com", "geheim123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginEmptyInput(t *testing.T) {
	svc := NewAuthService(&mockWorkerRepo{}, zap.NewNop())

	if _, err := svc.Login(context.Background(), "", "geheim123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "fachkraft@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRepoFailurePassesThrough(t *testing.T) {
	repoErr := errors.New("connection refused")
	repo := &mockWorkerRepo{err: repoErr}
	svc := NewAuthService(repo, zap.NewNop())

	_, err := svc.Login(context.Background(), "fachkraft@example.com", "geheim123")
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}
