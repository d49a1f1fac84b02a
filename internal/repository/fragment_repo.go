package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"fallakte/internal/domain"
)

type FragmentRepository interface {
	Create(ctx context.Context, fragment domain.ArchiveFragment) error
	Search(ctx context.Context, clientID string, queryEmbedding pgvector.Vector, k int) ([]domain.ArchiveFragment, error)
}

// PgFragmentRepository hält pro committetem Capture-Durchlauf ein Fragment
// mit Embedding für die Ähnlichkeitssuche über die Fallhistorie.
type PgFragmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgFragmentRepository(pool *pgxpool.Pool) *PgFragmentRepository {
	return &PgFragmentRepository{pool: pool}
}

func (r *PgFragmentRepository) Create(ctx context.Context, f domain.ArchiveFragment) error {
	const query = `
		INSERT INTO archive_fragments (id, client_id, session_id, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var sessionID any
	if f.SessionID != nil {
		sessionID = *f.SessionID
	}
	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.ClientID,
		sessionID,
		f.Content,
		f.Embedding,
		f.CreatedAt,
	)
	return err
}

func (r *PgFragmentRepository) Search(ctx context.Context, clientID string, queryEmbedding pgvector.Vector, k int) ([]domain.ArchiveFragment, error) {
	if k <= 0 {
		k = 5
	}
	const query = `
		SELECT id, client_id, session_id, content, created_at
		FROM archive_fragments
		WHERE client_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, clientID, queryEmbedding, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fragments []domain.ArchiveFragment
	for rows.Next() {
		var (
			f         domain.ArchiveFragment
			sessionID sql.NullString
		)
		if err := rows.Scan(
			&f.ID,
			&f.ClientID,
			&sessionID,
			&f.Content,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		if sessionID.Valid {
			v := sessionID.String
			f.SessionID = &v
		}
		fragments = append(fragments, f)
	}
	return fragments, rows.Err()
}
