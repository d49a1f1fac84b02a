package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

// Ein Termin-Commit trägt seine Indikator-Deltas mit; beide landen in
// einer Transaktion, damit kein Termin ohne seine Indikatoren steht.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session, indicators []domain.ProgressIndicator) error
	Update(ctx context.Context, session domain.Session, indicators []domain.ProgressIndicator) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Session, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

const insertIndicatorQuery = `
	INSERT INTO progress_indicators (id, client_id, session_id, kind, score, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func insertIndicators(ctx context.Context, tx pgx.Tx, indicators []domain.ProgressIndicator) error {
	for _, ind := range indicators {
		if _, err := tx.Exec(ctx, insertIndicatorQuery,
			ind.ID,
			ind.ClientID,
			ind.SessionID,
			string(ind.Kind),
			ind.Score,
			ind.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *PgSessionRepository) Create(ctx context.Context, s domain.Session, indicators []domain.ProgressIndicator) error {
	const query = `
		INSERT INTO sessions (
			id, client_id, session_date,
			current_status, actions_taken, next_steps, network_involvement,
			raw_transcript, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, query,
		s.ID,
		s.ClientID,
		s.SessionDate,
		s.Fields.CurrentStatus,
		s.Fields.ActionsTaken,
		s.Fields.NextSteps,
		s.Fields.NetworkInvolvement,
		s.RawTranscript,
		s.CreatedAt,
		s.UpdatedAt,
	); err != nil {
		return err
	}
	if err := insertIndicators(ctx, tx, indicators); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgSessionRepository) Update(ctx context.Context, s domain.Session, indicators []domain.ProgressIndicator) error {
	const query = `
		UPDATE sessions
		SET session_date = $2,
			current_status = $3, actions_taken = $4, next_steps = $5, network_involvement = $6,
			raw_transcript = $7, updated_at = $8
		WHERE id = $1
	`
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, query,
		s.ID,
		s.SessionDate,
		s.Fields.CurrentStatus,
		s.Fields.ActionsTaken,
		s.Fields.NextSteps,
		s.Fields.NetworkInvolvement,
		s.RawTranscript,
		s.UpdatedAt,
	); err != nil {
		return err
	}
	if err := insertIndicators(ctx, tx, indicators); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, client_id, session_date,
			current_status, actions_taken, next_steps, network_involvement,
			raw_transcript, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.ClientID,
		&s.SessionDate,
		&s.Fields.CurrentStatus,
		&s.Fields.ActionsTaken,
		&s.Fields.NextSteps,
		&s.Fields.NetworkInvolvement,
		&s.RawTranscript,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

// ListByClient liefert Termine aufsteigend nach Datum; die Synthese
// verlässt sich auf diese Reihenfolge.
func (r *PgSessionRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Session, error) {
	const query = `
		SELECT id, client_id, session_date,
			current_status, actions_taken, next_steps, network_involvement,
			raw_transcript, created_at, updated_at
		FROM sessions
		WHERE client_id = $1
		ORDER BY session_date ASC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID,
			&s.ClientID,
			&s.SessionDate,
			&s.Fields.CurrentStatus,
			&s.Fields.ActionsTaken,
			&s.Fields.NextSteps,
			&s.Fields.NetworkInvolvement,
			&s.RawTranscript,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
