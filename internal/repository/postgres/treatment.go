package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

func (r *treatmentPlanRepository) Create(ctx context.Context, plan *model.TreatmentPlan) error {
	query := `
		INSERT INTO treatment_plans (
			id, patient_id, therapist_id, total_sessions, session_duration_minutes,
			price_cents, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	plan.ID = uuid.New()
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.PatientID,
		plan.TherapistID,
		plan.TotalSessions,
		plan.SessionDurationMinutes,
		plan.PriceCents,
		plan.Status,
		plan.Notes,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return nil
}

func (r *treatmentPlanRepository) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	query := `
		SELECT id, patient_id, therapist_id, total_sessions, session_duration_minutes,
		       price_cents, status, notes, created_at, updated_at
		FROM treatment_plans
		WHERE id = $1
	`
	var plan model.TreatmentPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}
	return &plan, nil
}

func (r *treatmentPlanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TreatmentPlanStatus) error {
	query := `UPDATE treatment_plans SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update treatment plan status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("treatment plan not found")
	}
	return nil
}

func (r *treatmentPlanRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentPlan, error) {
	query := `
		SELECT id, patient_id, therapist_id, total_sessions, session_duration_minutes,
		       price_cents, status, notes, created_at, updated_at
		FROM treatment_plans
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var plans []*model.TreatmentPlan
	if err := r.db.SelectContext(ctx, &plans, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list treatment plans: %w", err)
	}
	return plans, nil
}
