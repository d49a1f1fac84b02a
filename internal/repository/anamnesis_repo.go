package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fallakte/internal/domain"
)

type AnamnesisRepository interface {
	Upsert(ctx context.Context, anamnesis domain.Anamnesis) error
	GetByClientID(ctx context.Context, clientID string) (domain.Anamnesis, error)
	DeleteByClientID(ctx context.Context, clientID string) error
}

type PgAnamnesisRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnamnesisRepository(pool *pgxpool.Pool) *PgAnamnesisRepository {
	return &PgAnamnesisRepository{pool: pool}
}

func (r *PgAnamnesisRepository) Upsert(ctx context.Context, a domain.Anamnesis) error {
	// Höchstens eine Anamnese pro Klient; client_id ist unique.
	const query = `
		INSERT INTO anamneses (
			id, client_id,
			housing_situation, financial_situation, health_status, professional_situation,
			family_situation, children_situation, parenting_skills, child_development,
			psychological_state, social_network, crises_and_risks,
			goals_and_wishes, previous_measures, additional_notes,
			raw_transcript, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (client_id) DO UPDATE SET
			housing_situation = EXCLUDED.housing_situation,
			financial_situation = EXCLUDED.financial_situation,
			health_status = EXCLUDED.health_status,
			professional_situation = EXCLUDED.professional_situation,
			family_situation = EXCLUDED.family_situation,
			children_situation = EXCLUDED.children_situation,
			parenting_skills = EXCLUDED.parenting_skills,
			child_development = EXCLUDED.child_development,
			psychological_state = EXCLUDED.psychological_state,
			social_network = EXCLUDED.social_network,
			crises_and_risks = EXCLUDED.crises_and_risks,
			goals_and_wishes = EXCLUDED.goals_and_wishes,
			previous_measures = EXCLUDED.previous_measures,
			additional_notes = EXCLUDED.additional_notes,
			raw_transcript = EXCLUDED.raw_transcript,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.ClientID,
		a.Fields.HousingSituation,
		a.Fields.FinancialSituation,
		a.Fields.HealthStatus,
		a.Fields.ProfessionalSituation,
		a.Fields.FamilySituation,
		a.Fields.ChildrenSituation,
		a.Fields.ParentingSkills,
		a.Fields.ChildDevelopment,
		a.Fields.PsychologicalState,
		a.Fields.SocialNetwork,
		a.Fields.CrisesAndRisks,
		a.Fields.GoalsAndWishes,
		a.Fields.PreviousMeasures,
		a.Fields.AdditionalNotes,
		a.RawTranscript,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *PgAnamnesisRepository) GetByClientID(ctx context.Context, clientID string) (domain.Anamnesis, error) {
	const query = `
		SELECT id, client_id,
			housing_situation, financial_situation, health_status, professional_situation,
			family_situation, children_situation, parenting_skills, child_development,
			psychological_state, social_network, crises_and_risks,
			goals_and_wishes, previous_measures, additional_notes,
			raw_transcript, created_at, updated_at
		FROM anamneses
		WHERE client_id = $1
	`
	var a domain.Anamnesis
	err := r.pool.QueryRow(ctx, query, clientID).Scan(
		&a.ID,
		&a.ClientID,
		&a.Fields.HousingSituation,
		&a.Fields.FinancialSituation,
		&a.Fields.HealthStatus,
		&a.Fields.ProfessionalSituation,
		&a.Fields.FamilySituation,
		&a.Fields.ChildrenSituation,
		&a.Fields.ParentingSkills,
		&a.Fields.ChildDevelopment,
		&a.Fields.PsychologicalState,
		&a.Fields.SocialNetwork,
		&a.Fields.CrisesAndRisks,
		&a.Fields.GoalsAndWishes,
		&a.Fields.PreviousMeasures,
		&a.Fields.AdditionalNotes,
		&a.RawTranscript,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Anamnesis{}, err
	}
	return a, nil
}

func (r *PgAnamnesisRepository) DeleteByClientID(ctx context.Context, clientID string) error {
	const query = `DELETE FROM anamneses WHERE client_id = $1`
	_, err := r.pool.Exec(ctx, query, clientID)
	return err
}
