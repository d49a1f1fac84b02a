package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

// Persistenz ist last-write-wins: ein Sachbearbeiter pro Fall, keine
// Versions-Token. Commits pro Entität serialisiert der Aufrufer.

type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) error
	Update(ctx context.Context, client domain.Client) error
	GetByID(ctx context.Context, id string) (domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
	Delete(ctx context.Context, id string) error
}

type PgClientRepository struct {
	pool *pgxpool.Pool
}

func NewPgClientRepository(pool *pgxpool.Pool) *PgClientRepository {
	return &PgClientRepository{pool: pool}
}

func (r *PgClientRepository) Create(ctx context.Context, client domain.Client) error {
	attrs, err := json.Marshal(client.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	const query = `
		INSERT INTO clients (id, name, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		client.ID,
		client.Name,
		attrs,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

func (r *PgClientRepository) Update(ctx context.Context, client domain.Client) error {
	attrs, err := json.Marshal(client.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	const query = `
		UPDATE clients
		SET name = $2, attributes = $3, updated_at = $4
		WHERE id = $1
	`
	_, err = r.pool.Exec(ctx, query,
		client.ID,
		client.Name,
		attrs,
		client.UpdatedAt,
	)
	return err
}

func (r *PgClientRepository) GetByID(ctx context.Context, id string) (domain.Client, error) {
	const query = `
		SELECT id, name, attributes, created_at, updated_at
		FROM clients
		WHERE id = $1
	`
	var (
		client domain.Client
		attrs  []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&attrs,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &client.Attributes); err != nil {
			return domain.Client{}, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	return client, nil
}

func (r *PgClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	const query = `
		SELECT id, name, attributes, created_at, updated_at
		FROM clients
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var (
			client domain.Client
			attrs  []byte
		)
		if err := rows.Scan(
			&client.ID,
			&client.Name,
			&attrs,
			&client.CreatedAt,
			&client.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &client.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal attributes: %w", err)
			}
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *PgClientRepository) Delete(ctx context.Context, id string) error {
	// Abhängige Zeilen (Anamnese, Termine, Berichte, Indikatoren, Fragmente)
	// räumt das Schema per ON DELETE CASCADE ab.
	const query = `DELETE FROM clients WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
