package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

func (r *therapistRepository) Create(ctx context.Context, therapist *model.Therapist) error {
	query := `
		INSERT INTO therapists (id, name, specialty, email, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	therapist.ID = uuid.New()
	therapist.CreatedAt = time.Now()
	therapist.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		therapist.ID,
		therapist.Name,
		therapist.Specialty,
		therapist.Email,
		therapist.Phone,
		therapist.Active,
		therapist.CreatedAt,
		therapist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create therapist: %w", err)
	}
	return nil
}

func (r *therapistRepository) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	query := `
		SELECT id, name, specialty, email, phone, active, created_at, updated_at
		FROM therapists
		WHERE id = $1
	`
	var therapist model.Therapist
	if err := r.db.GetContext(ctx, &therapist, query, id); err != nil {
		return nil, fmt.Errorf("failed to get therapist: %w", err)
	}
	return &therapist, nil
}

func (r *therapistRepository) Update(ctx context.Context, therapist *model.Therapist) error {
	query := `
		UPDATE therapists
		SET name = $1, specialty = $2, email = $3, phone = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	therapist.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		therapist.Name,
		therapist.Specialty,
		therapist.Email,
		therapist.Phone,
		therapist.Active,
		therapist.UpdatedAt,
		therapist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update therapist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("therapist not found")
	}
	return nil
}

func (r *therapistRepository) List(ctx context.Context, activeOnly bool) ([]*model.Therapist, error) {
	query := `
		SELECT id, name, specialty, email, phone, active, created_at, updated_at
		FROM therapists
	`
	if activeOnly {
		query += " WHERE active = true"
	}
	query += " ORDER BY name ASC"

	var therapists []*model.Therapist
	if err := r.db.SelectContext(ctx, &therapists, query); err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return therapists, nil
}
