package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

type IndicatorRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.ProgressIndicator, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.ProgressIndicator, error)
}

// PgIndicatorRepository ist reine Leseseite: geschrieben werden
// Indikatoren nur im Termin-Commit, in derselben Transaktion wie der
// Termin selbst.
type PgIndicatorRepository struct {
	pool *pgxpool.Pool
}

func NewPgIndicatorRepository(pool *pgxpool.Pool) *PgIndicatorRepository {
	return &PgIndicatorRepository{pool: pool}
}

func (r *PgIndicatorRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ProgressIndicator, error) {
	const query = `
		SELECT id, client_id, session_id, kind, score, created_at
		FROM progress_indicators
		WHERE session_id = $1
		ORDER BY created_at ASC, kind ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIndicators(rows)
}

func (r *PgIndicatorRepository) ListByClient(ctx context.Context, clientID string) ([]domain.ProgressIndicator, error) {
	const query = `
		SELECT id, client_id, session_id, kind, score, created_at
		FROM progress_indicators
		WHERE client_id = $1
		ORDER BY created_at ASC, kind ASC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIndicators(rows)
}

func scanIndicators(rows pgxRows) ([]domain.ProgressIndicator, error) {
	var indicators []domain.ProgressIndicator
	for rows.Next() {
		var (
			ind  domain.ProgressIndicator
			kind string
		)
		if err := rows.Scan(
			&ind.ID,
			&ind.ClientID,
			&ind.SessionID,
			&kind,
			&ind.Score,
			&ind.CreatedAt,
		); err != nil {
			return nil, err
		}
		ind.Kind = domain.IndicatorKind(kind)
		indicators = append(indicators, ind)
	}
	return indicators, rows.Err()
}

// pgxRows ist das minimale Scan-Interface, damit Tests ohne echte
// Datenbank auskommen.
type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}
