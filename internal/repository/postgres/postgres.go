package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/matiasvera/clinic-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type therapistRepository struct {
	db *sqlx.DB
}

type patientRepository struct {
	db *sqlx.DB
}

type treatmentPlanRepository struct {
	db *sqlx.DB
}

type userRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewTherapistRepository(db *sqlx.DB) repository.TherapistRepository {
	return &therapistRepository{db: db}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewTreatmentPlanRepository(db *sqlx.DB) repository.TreatmentPlanRepository {
	return &treatmentPlanRepository{db: db}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}
