package therapist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
)

type Service struct {
	repo repository.TherapistRepository
}

func NewService(repo repository.TherapistRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTherapist(ctx context.Context, req *model.CreateTherapistRequest) (*model.Therapist, error) {
	therapist := &model.Therapist{
		Name:      req.Name,
		Specialty: req.Specialty,
		Email:     req.Email,
		Phone:     req.Phone,
		Active:    true,
	}
	if err := s.repo.Create(ctx, therapist); err != nil {
		return nil, fmt.Errorf("failed to create therapist: %w", err)
	}
	return therapist, nil
}

func (s *Service) GetTherapist(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	therapist, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}
	return therapist, nil
}

func (s *Service) UpdateTherapist(ctx context.Context, id uuid.UUID, req *model.UpdateTherapistRequest) (*model.Therapist, error) {
	therapist, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}

	if req.Name != nil {
		therapist.Name = *req.Name
	}
	if req.Specialty != nil {
		therapist.Specialty = *req.Specialty
	}
	if req.Email != nil {
		therapist.Email = *req.Email
	}
	if req.Phone != nil {
		therapist.Phone = *req.Phone
	}
	if req.Active != nil {
		therapist.Active = *req.Active
	}

	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, fmt.Errorf("failed to update therapist: %w", err)
	}
	return therapist, nil
}

func (s *Service) ListTherapists(ctx context.Context, activeOnly bool) ([]*model.Therapist, error) {
	therapists, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return therapists, nil
}
