package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository is the persistence boundary for appointments.
	// Conflict *policy* lives in internal/scheduling; the repository is the
	// enforcement boundary: CreateMany runs in one transaction and the table
	// carries a uniqueness guard per (therapist, date, start_time) so two
	// concurrent bookers cannot both pass a stale in-memory check and insert.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		FindByTherapistAndDateRange(ctx context.Context, therapistID uuid.UUID, startDate, endDate string) ([]*model.Appointment, error)
		FindByTherapistAndMonth(ctx context.Context, therapistID uuid.UUID, year, month int) ([]*model.Appointment, error)
		FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		FindByDate(ctx context.Context, date string) ([]*model.Appointment, error)
		CreateMany(ctx context.Context, appointments []*model.Appointment) error
	}

	TherapistRepository interface {
		Create(ctx context.Context, therapist *model.Therapist) error
		Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error)
		Update(ctx context.Context, therapist *model.Therapist) error
		List(ctx context.Context, activeOnly bool) ([]*model.Therapist, error)
	}

	// PatientRepository lists page-wise: List returns one page plus the
	// total row count for the filter, so handlers can paginate.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
	}

	TreatmentPlanRepository interface {
		Create(ctx context.Context, plan *model.TreatmentPlan) error
		Get(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.TreatmentPlanStatus) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentPlan, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}
)
