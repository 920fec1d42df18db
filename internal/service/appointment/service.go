package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	"github.com/matiasvera/clinic-api/internal/scheduling"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/messaging"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

// Config carries the scheduling policy the service applies. The hourly
// roster comes from configuration; the core treats it as a parameter.
type Config struct {
	HourlySlots           []string
	Location              *time.Location
	DefaultSessionMinutes int
	AvailabilityCacheTTL  time.Duration
}

type Service struct {
	repo    repository.AppointmentRepository
	broker  messaging.Broker
	metrics *metrics.Metrics
	cache   *cache.Cache
	cfg     Config
}

func NewService(repo repository.AppointmentRepository, broker messaging.Broker, m *metrics.Metrics, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DefaultSessionMinutes <= 0 {
		cfg.DefaultSessionMinutes = model.DefaultSessionMinutes
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		cfg.AvailabilityCacheTTL = time.Minute
	}
	return &Service{
		repo:    repo,
		broker:  broker,
		metrics: m,
		cache:   cache.New(cfg.AvailabilityCacheTTL, 5*time.Minute),
		cfg:     cfg,
	}
}

func (s *Service) now() time.Time {
	return time.Now().In(s.cfg.Location)
}

// CreateAppointment books a single slot after running both conflict checks
// against fresh repository snapshots.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if scheduling.IsPastDate(req.Date, s.now()) {
		return nil, apperrors.NewValidation("cannot book a past date", nil)
	}

	duration := req.Type.DurationMinutes()
	candidate := scheduling.Candidate{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   scheduling.AddMinutes(req.StartTime, duration),
	}

	if err := s.checkConflicts(ctx, candidate, req.TherapistID, req.PatientID, uuid.Nil); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		TherapistID: req.TherapistID,
		PatientID:   req.PatientID,
		Date:        candidate.Date,
		StartTime:   candidate.StartTime,
		EndTime:     candidate.EndTime,
		Status:      model.AppointmentStatusScheduled,
		Type:        req.Type,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.invalidateAvailability(req.TherapistID, req.Date)
	s.metrics.BookingsTotal.WithLabelValues(string(req.Type), "admin").Inc()
	s.publishEvent(ctx, messaging.EventAppointmentCreated, apt)
	return apt, nil
}

// CreateGuestAppointment books a slot for a public visitor with no patient
// record. The patient conflict check does not apply; contact details live on
// the appointment until intake.
func (s *Service) CreateGuestAppointment(ctx context.Context, req *model.PublicBookingRequest) (*model.Appointment, error) {
	if scheduling.IsPastDate(req.Date, s.now()) {
		return nil, apperrors.NewValidation("cannot book a past date", nil)
	}

	candidate := scheduling.Candidate{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   scheduling.AddMinutes(req.StartTime, req.Type.DurationMinutes()),
	}
	if err := s.checkConflicts(ctx, candidate, req.TherapistID, nil, uuid.Nil); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		TherapistID: req.TherapistID,
		Date:        candidate.Date,
		StartTime:   candidate.StartTime,
		EndTime:     candidate.EndTime,
		Status:      model.AppointmentStatusScheduled,
		Type:        req.Type,
		GuestName:   &req.GuestName,
		GuestEmail:  &req.GuestEmail,
	}
	if req.GuestPhone != "" {
		apt.GuestPhone = &req.GuestPhone
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.invalidateAvailability(req.TherapistID, req.Date)
	s.metrics.BookingsTotal.WithLabelValues(string(req.Type), "public").Inc()
	s.publishEvent(ctx, messaging.EventAppointmentCreated, apt)
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// RescheduleAppointment moves an existing appointment to a new slot. The
// appointment being moved is excluded from its own conflict check, so moving
// within or adjacent to its current interval works.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if apt.Status == model.AppointmentStatusCancelled || apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.NewBadRequest("appointment can no longer be rescheduled", nil)
	}
	if scheduling.IsPastDate(req.Date, s.now()) {
		return nil, apperrors.NewValidation("cannot reschedule to a past date", nil)
	}

	candidate := scheduling.Candidate{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   scheduling.AddMinutes(req.StartTime, apt.Type.DurationMinutes()),
	}
	if err := s.checkConflicts(ctx, candidate, apt.TherapistID, apt.PatientID, apt.ID); err != nil {
		return nil, err
	}

	oldDate := apt.Date
	apt.Date = candidate.Date
	apt.StartTime = candidate.StartTime
	apt.EndTime = candidate.EndTime
	apt.Status = model.AppointmentStatusRescheduled

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}

	s.invalidateAvailability(apt.TherapistID, oldDate)
	s.invalidateAvailability(apt.TherapistID, apt.Date)
	s.publishEvent(ctx, messaging.EventAppointmentRescheduled, apt)
	return apt, nil
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NewNotFound("appointment", err)
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return apperrors.NewBadRequest("appointment is already cancelled", nil)
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return apperrors.NewBadRequest("cannot cancel a completed appointment", nil)
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = &reason

	if err := s.repo.Update(ctx, apt); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.invalidateAvailability(apt.TherapistID, apt.Date)
	s.publishEvent(ctx, messaging.EventAppointmentCancelled, apt)
	return nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NewNotFound("appointment", err)
	}
	if apt.Status != model.AppointmentStatusCancelled {
		return apperrors.NewBadRequest("can only delete cancelled appointments", nil)
	}
	return s.repo.Delete(ctx, id)
}

// DayAvailability is the bookable-slot view for one calendar day, split for
// display into morning and afternoon.
type DayAvailability struct {
	Slots     []string `json:"slots"`
	Morning   []string `json:"morning"`
	Afternoon []string `json:"afternoon"`
}

// MonthAvailability is the full calendar payload for one therapist-month.
type MonthAvailability struct {
	Year  int                         `json:"year"`
	Month int                         `json:"month"`
	Grid  []scheduling.DayCell        `json:"grid"`
	Days  map[string]*DayAvailability `json:"days"`
}

// MonthAvailability computes the 42-cell grid plus per-day bookable slots for
// a therapist. Results are cached briefly; every write to the therapist's
// calendar invalidates the affected month.
func (s *Service) MonthAvailability(ctx context.Context, therapistID uuid.UUID, year, month int) (*MonthAvailability, error) {
	key := availabilityKey(therapistID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.AvailabilityCache.WithLabelValues("hit").Inc()
		return cached.(*MonthAvailability), nil
	}
	s.metrics.AvailabilityCache.WithLabelValues("miss").Inc()

	appointments, err := s.repo.FindByTherapistAndMonth(ctx, therapistID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load month appointments: %w", err)
	}

	now := s.now()
	grid := scheduling.ComputeMonthGrid(year, time.Month(month))
	days := make(map[string]*DayAvailability)
	for _, cell := range grid {
		if !cell.InCurrentMonth {
			continue
		}
		slots := scheduling.AvailableSlotsForDay(cell.Date, s.cfg.HourlySlots, appointments, s.cfg.DefaultSessionMinutes, now)
		if len(slots) == 0 {
			continue
		}
		morning, afternoon := scheduling.SplitMorningAfternoon(slots)
		days[cell.Date] = &DayAvailability{Slots: slots, Morning: morning, Afternoon: afternoon}
	}

	result := &MonthAvailability{Year: year, Month: month, Grid: grid, Days: days}
	s.cache.Set(key, result, cache.DefaultExpiration)
	return result, nil
}

// DaySlots returns the bookable slots for a single day, used by the public
// booking flow.
func (s *Service) DaySlots(ctx context.Context, therapistID uuid.UUID, date string) (*DayAvailability, error) {
	appointments, err := s.repo.FindByTherapistAndDateRange(ctx, therapistID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day appointments: %w", err)
	}

	slots := scheduling.AvailableSlotsForDay(date, s.cfg.HourlySlots, appointments, s.cfg.DefaultSessionMinutes, s.now())
	morning, afternoon := scheduling.SplitMorningAfternoon(slots)
	return &DayAvailability{Slots: slots, Morning: morning, Afternoon: afternoon}, nil
}

// checkConflicts runs the therapist check and, when a patient is linked, the
// cross-therapist patient check.
func (s *Service) checkConflicts(ctx context.Context, candidate scheduling.Candidate, therapistID uuid.UUID, patientID *uuid.UUID, excludeID uuid.UUID) error {
	therapistAppts, err := s.repo.FindByTherapistAndDateRange(ctx, therapistID, candidate.Date, candidate.Date)
	if err != nil {
		return fmt.Errorf("failed to load therapist appointments: %w", err)
	}
	if scheduling.HasTherapistConflict(candidate, therapistAppts, excludeID) {
		s.metrics.ConflictsDetected.WithLabelValues("therapist").Inc()
		return apperrors.NewConflict("therapist already has an appointment in this slot", nil)
	}

	if patientID != nil {
		patientAppts, err := s.repo.FindByPatient(ctx, *patientID)
		if err != nil {
			return fmt.Errorf("failed to load patient appointments: %w", err)
		}
		if scheduling.HasPatientConflict(candidate, patientID, patientAppts, excludeID) {
			s.metrics.ConflictsDetected.WithLabelValues("patient").Inc()
			return apperrors.NewConflict("patient already has an appointment in this slot", nil)
		}
	}
	return nil
}

func (s *Service) invalidateAvailability(therapistID uuid.UUID, date string) {
	d, err := time.Parse(scheduling.DateLayout, date)
	if err != nil {
		s.cache.Flush()
		return
	}
	s.cache.Delete(availabilityKey(therapistID, d.Year(), int(d.Month())))
}

func (s *Service) publishEvent(ctx context.Context, eventType string, apt *model.Appointment) {
	event := messaging.AppointmentEvent{
		Type:          eventType,
		AppointmentID: apt.ID,
		TherapistID:   apt.TherapistID,
		PatientID:     apt.PatientID,
		Date:          apt.Date,
		StartTime:     apt.StartTime,
		OccurredAt:    time.Now(),
	}
	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, event); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish appointment event")
	}
}

func availabilityKey(therapistID uuid.UUID, year, month int) string {
	return fmt.Sprintf("availability:%s:%d-%02d", therapistID, year, month)
}
