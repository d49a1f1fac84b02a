package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

type ReportRepository interface {
	Create(ctx context.Context, report domain.Report) error
	Update(ctx context.Context, report domain.Report) error
	GetByID(ctx context.Context, id string) (domain.Report, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Report, error)
}

type PgReportRepository struct {
	pool *pgxpool.Pool
}

func NewPgReportRepository(pool *pgxpool.Pool) *PgReportRepository {
	return &PgReportRepository{pool: pool}
}

func (r *PgReportRepository) Create(ctx context.Context, rep domain.Report) error {
	const query = `
		INSERT INTO reports (id, client_id, report_type, title, content, raw_transcript, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		rep.ID,
		rep.ClientID,
		string(rep.Type),
		rep.Title,
		rep.Content,
		rep.RawTranscript,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	return err
}

func (r *PgReportRepository) Update(ctx context.Context, rep domain.Report) error {
	const query = `
		UPDATE reports
		SET title = $2, content = $3, raw_transcript = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		rep.ID,
		rep.Title,
		rep.Content,
		rep.RawTranscript,
		rep.UpdatedAt,
	)
	return err
}

func (r *PgReportRepository) GetByID(ctx context.Context, id string) (domain.Report, error) {
	const query = `
		SELECT id, client_id, report_type, title, content, raw_transcript, created_at, updated_at
		FROM reports
		WHERE id = $1
	`
	var (
		rep domain.Report
		typ string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID,
		&rep.ClientID,
		&typ,
		&rep.Title,
		&rep.Content,
		&rep.RawTranscript,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		return domain.Report{}, err
	}
	rep.Type = domain.ReportType(typ)
	return rep, nil
}

func (r *PgReportRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Report, error) {
	const query = `
		SELECT id, client_id, report_type, title, content, raw_transcript, created_at, updated_at
		FROM reports
		WHERE client_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var (
			rep domain.Report
			typ string
		)
		if err := rows.Scan(
			&rep.ID,
			&rep.ClientID,
			&typ,
			&rep.Title,
			&rep.Content,
			&rep.RawTranscript,
			&rep.CreatedAt,
			&rep.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rep.Type = domain.ReportType(typ)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
