package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	"github.com/matiasvera/clinic-api/internal/scheduling"
	"github.com/matiasvera/clinic-api/internal/service/appointment"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
)

// Service handles public bookings made before a patient record exists. The
// appointment carries the guest's contact details and no patient link, so the
// cross-patient conflict check is skipped until intake.
type Service struct {
	therapists   repository.TherapistRepository
	appointments *appointment.Service
	email        email.Service
	location     *time.Location
}

func NewService(
	therapists repository.TherapistRepository,
	appointments *appointment.Service,
	emailSvc email.Service,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		therapists:   therapists,
		appointments: appointments,
		email:        emailSvc,
		location:     location,
	}
}

// BookPublic creates a guest appointment from the public site.
func (s *Service) BookPublic(ctx context.Context, req *model.PublicBookingRequest) (*model.Appointment, error) {
	therapist, err := s.therapists.Get(ctx, req.TherapistID)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}
	if !therapist.Active {
		return nil, apperrors.NewBadRequest("therapist is not accepting bookings", nil)
	}
	if scheduling.IsPastDate(req.Date, time.Now().In(s.location)) {
		return nil, apperrors.NewValidation("cannot book a past date", nil)
	}

	apt, err := s.appointments.CreateGuestAppointment(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.email.SendAppointmentConfirmation(ctx, req.GuestEmail, req.GuestName, apt); err != nil {
		log.Warn().Err(err).Str("to", req.GuestEmail).Msg("failed to send booking confirmation")
	}
	return apt, nil
}

// DayAvailability returns the open slots for a therapist-day, for the public
// slot picker.
func (s *Service) DayAvailability(ctx context.Context, therapistID uuid.UUID, date string) (*appointment.DayAvailability, error) {
	if _, err := s.therapists.Get(ctx, therapistID); err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}
	return s.appointments.DaySlots(ctx, therapistID, date)
}
