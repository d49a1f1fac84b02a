package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fallakte/internal/domain"
	"fallakte/internal/repository"
)

// Identität ist ein externer Mitarbeiter des Kerns; hier lebt nur der
// Rand: Login gegen gespeicherte Fachkraft-Konten.

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	workers repository.WorkerRepository
	logger  *zap.Logger
}

func NewAuthService(workers repository.WorkerRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		workers: workers,
		logger:  logger,
	}
}

// Login prüft E-Mail und Passwort und liefert die Fachkraft.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Worker, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Worker{}, ErrInvalidCredentials
	}

	worker, err := s.workers.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Worker{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Worker{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(password)) != nil {
		return domain.Worker{}, ErrInvalidCredentials
	}

	return worker, nil
}
