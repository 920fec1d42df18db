package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
)

type Service struct {
	repo         repository.PatientRepository
	appointments repository.AppointmentRepository
}

func NewService(repo repository.PatientRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{repo: repo, appointments: appointments}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		Name:          req.Name,
		DateOfBirth:   req.DateOfBirth,
		Email:         req.Email,
		Phone:         req.Phone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		GuardianEmail: req.GuardianEmail,
		Status:        model.PatientStatusActive,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.GuardianName != nil {
		patient.GuardianName = *req.GuardianName
	}
	if req.GuardianPhone != nil {
		patient.GuardianPhone = *req.GuardianPhone
	}
	if req.GuardianEmail != nil {
		patient.GuardianEmail = *req.GuardianEmail
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return apperrors.NewNotFound("patient", err)
	}
	return s.repo.Delete(ctx, id)
}

// ListPatients returns one page of patients plus the total count for the
// filter.
func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	filters.Pagination.Normalize()
	patients, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

// PatientHistory returns a patient's appointments, most recent first.
func (s *Service) PatientHistory(ctx context.Context, id uuid.UUID) ([]*model.Appointment, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}
	appointments, err := s.appointments.FindByPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient history: %w", err)
	}
	return appointments, nil
}
