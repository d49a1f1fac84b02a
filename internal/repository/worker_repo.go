package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker domain.Worker) error
	GetByEmail(ctx context.Context, email string) (domain.Worker, error)
	GetByID(ctx context.Context, id string) (domain.Worker, error)
}

type PgWorkerRepository struct {
	pool *pgxpool.Pool
}

func NewPgWorkerRepository(pool *pgxpool.Pool) *PgWorkerRepository {
	return &PgWorkerRepository{pool: pool}
}

func (r *PgWorkerRepository) Create(ctx context.Context, w domain.Worker) error {
	const query = `
		INSERT INTO workers (id, email, full_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Email,
		w.FullName,
		w.Role,
		w.PasswordHash,
		w.CreatedAt,
	)
	return err
}

func (r *PgWorkerRepository) GetByEmail(ctx context.Context, email string) (domain.Worker, error) {
	const query = `
		SELECT id, email, full_name, role, password_hash, created_at
		FROM workers
		WHERE email = $1
	`
	return r.scanOne(ctx, query, email)
}

func (r *PgWorkerRepository) GetByID(ctx context.Context, id string) (domain.Worker, error) {
	const query = `
		SELECT id, email, full_name, role, password_hash, created_at
		FROM workers
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *PgWorkerRepository) scanOne(ctx context.Context, query string, arg any) (domain.Worker, error) {
	var w domain.Worker
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&w.ID,
		&w.Email,
		&w.FullName,
		&w.Role,
		&w.PasswordHash,
		&w.CreatedAt,
	)
	if err != nil {
		return domain.Worker{}, err
	}
	return w, nil
}
