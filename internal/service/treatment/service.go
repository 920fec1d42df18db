package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	"github.com/matiasvera/clinic-api/internal/scheduling"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/messaging"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

// Service owns the treatment plan lifecycle: propose, accept, and on payment
// confirmation book every session of the plan in a single transaction.
type Service struct {
	plans        repository.TreatmentPlanRepository
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	broker       messaging.Broker
	email        email.Service
	metrics      *metrics.Metrics
	location     *time.Location
}

func NewService(
	plans repository.TreatmentPlanRepository,
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	broker messaging.Broker,
	emailSvc email.Service,
	m *metrics.Metrics,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		plans:        plans,
		appointments: appointments,
		patients:     patients,
		broker:       broker,
		email:        emailSvc,
		metrics:      m,
		location:     location,
	}
}

func (s *Service) CreatePlan(ctx context.Context, req *model.CreateTreatmentPlanRequest) (*model.TreatmentPlan, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}

	plan := &model.TreatmentPlan{
		PatientID:              req.PatientID,
		TherapistID:            req.TherapistID,
		TotalSessions:          req.TotalSessions,
		SessionDurationMinutes: req.SessionDurationMinutes,
		PriceCents:             req.PriceCents,
		Status:                 model.TreatmentPlanStatusProposed,
		Notes:                  req.Notes,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return plan, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("treatment plan", err)
	}
	return plan, nil
}

func (s *Service) ListPlansByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentPlan, error) {
	plans, err := s.plans.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment plans: %w", err)
	}
	return plans, nil
}

func (s *Service) AcceptPlan(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("treatment plan", err)
	}
	if plan.Status != model.TreatmentPlanStatusProposed {
		return nil, apperrors.NewBadRequest("only proposed plans can be accepted", nil)
	}
	if err := s.plans.UpdateStatus(ctx, id, model.TreatmentPlanStatusAccepted); err != nil {
		return nil, fmt.Errorf("failed to accept treatment plan: %w", err)
	}
	plan.Status = model.TreatmentPlanStatusAccepted
	return plan, nil
}

func (s *Service) CancelPlan(ctx context.Context, id uuid.UUID) error {
	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return apperrors.NewNotFound("treatment plan", err)
	}
	if plan.Status == model.TreatmentPlanStatusPaid || plan.Status == model.TreatmentPlanStatusCompleted {
		return apperrors.NewBadRequest("paid plans cannot be cancelled here", nil)
	}
	return s.plans.UpdateStatus(ctx, id, model.TreatmentPlanStatusCancelled)
}

// ConfirmPaymentAndSchedule validates the selected sessions against the plan
// and books all of them atomically. The selection must cover exactly
// TotalSessions slots and every slot must still be free for both the therapist
// and the patient; otherwise nothing is booked and the caller learns which
// slots to fix.
func (s *Service) ConfirmPaymentAndSchedule(ctx context.Context, planID uuid.UUID, req *model.ConfirmPaymentRequest) ([]*model.Appointment, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, apperrors.NewNotFound("treatment plan", err)
	}
	if plan.Status != model.TreatmentPlanStatusAccepted {
		return nil, apperrors.NewBadRequest("plan must be accepted before payment", nil)
	}

	// The selection is built without the UI cap so the count check sees the
	// request's true size: an over-long payload must fail validation, not be
	// silently truncated to the first N picks. Duplicate picks cancel out
	// through toggle semantics and fail the same check.
	now := time.Now().In(s.location)
	sel := scheduling.NewSelection()
	for _, pick := range req.Selections {
		if scheduling.IsPastDate(pick.Date, now) {
			return nil, apperrors.NewValidation(
				fmt.Sprintf("selected date %s is in the past", pick.Date), nil)
		}
		sel.Toggle(pick.Date, pick.StartTime, len(req.Selections))
	}

	startDate, endDate := selectionDateRange(req.Selections)
	therapistAppts, err := s.appointments.FindByTherapistAndDateRange(ctx, plan.TherapistID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist appointments: %w", err)
	}
	patientAppts, err := s.appointments.FindByPatient(ctx, plan.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient appointments: %w", err)
	}

	result := scheduling.ValidateAndBuildAppointments(
		sel,
		plan.TotalSessions,
		plan.TherapistID,
		&plan.PatientID,
		model.AppointmentTypeTerapia,
		plan.SessionMinutes(),
		therapistAppts,
		patientAppts,
	)
	if !result.OK {
		switch result.Reason {
		case scheduling.ReasonCountMismatch:
			s.metrics.BatchValidations.WithLabelValues("count_mismatch").Inc()
			return nil, apperrors.NewValidation(
				fmt.Sprintf("plan requires exactly %d sessions, got %d", plan.TotalSessions, sel.Len()), nil)
		case scheduling.ReasonConflict:
			s.metrics.BatchValidations.WithLabelValues("conflict").Inc()
			return nil, apperrors.NewConflict("some selected slots are no longer available", result.ConflictingKeys)
		default:
			return nil, apperrors.NewInternal(fmt.Errorf("unexpected batch result"))
		}
	}

	appointments := make([]*model.Appointment, 0, len(result.Appointments))
	for _, r := range result.Appointments {
		appointments = append(appointments, &model.Appointment{
			TherapistID: r.TherapistID,
			PatientID:   r.PatientID,
			Date:        r.Date,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Status:      model.AppointmentStatusScheduled,
			Type:        r.Type,
		})
	}
	if err := s.appointments.CreateMany(ctx, appointments); err != nil {
		s.metrics.BatchValidations.WithLabelValues("persist_error").Inc()
		return nil, apperrors.NewConflict("could not book the selected sessions", nil)
	}

	if err := s.plans.UpdateStatus(ctx, planID, model.TreatmentPlanStatusPaid); err != nil {
		return nil, fmt.Errorf("sessions booked but plan status update failed: %w", err)
	}

	s.metrics.BatchValidations.WithLabelValues("ok").Inc()
	s.metrics.BatchSessionsBuilt.Add(float64(len(appointments)))

	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.AppointmentEvent{
		Type:        messaging.EventTreatmentPlanBooked,
		TherapistID: plan.TherapistID,
		PatientID:   &plan.PatientID,
		Date:        appointments[0].Date,
		StartTime:   appointments[0].StartTime,
		OccurredAt:  time.Now(),
	}); err != nil {
		log.Warn().Err(err).Str("plan_id", planID.String()).Msg("failed to publish plan booked event")
	}

	s.notifyPatient(ctx, plan, appointments)
	return appointments, nil
}

func (s *Service) notifyPatient(ctx context.Context, plan *model.TreatmentPlan, appointments []*model.Appointment) {
	patient, err := s.patients.Get(ctx, plan.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("patient_id", plan.PatientID.String()).Msg("failed to load patient for summary email")
		return
	}
	to := patient.Email
	if to == "" {
		to = patient.GuardianEmail
	}
	if to == "" {
		return
	}
	if err := s.email.SendBatchSummary(ctx, to, patient.Name, plan, appointments); err != nil {
		log.Warn().Err(err).Str("to", to).Msg("failed to send batch summary email")
	}
}

// selectionDateRange returns the min and max date among the selections so the
// therapist lookup fetches one contiguous range.
func selectionDateRange(selections []model.SessionSelection) (string, string) {
	start, end := selections[0].Date, selections[0].Date
	for _, sel := range selections[1:] {
		if sel.Date < start {
			start = sel.Date
		}
		if sel.Date > end {
			end = sel.Date
		}
	}
	return start, end
}
