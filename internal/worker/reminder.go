package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	"github.com/matiasvera/clinic-api/internal/scheduling"
	"github.com/matiasvera/clinic-api/pkg/messaging"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

// ReminderWorker periodically finds tomorrow's appointments and sends each
// booker a reminder, publishing an event per reminder. Appointments already
// reminded in this process are skipped; restarts may re-send, which is
// acceptable for a reminder.
type ReminderWorker struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	broker       messaging.Broker
	email        email.Service
	metrics      *metrics.Metrics
	location     *time.Location
	interval     time.Duration
	sent         map[uuid.UUID]struct{}
}

func NewReminderWorker(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	broker messaging.Broker,
	emailSvc email.Service,
	m *metrics.Metrics,
	location *time.Location,
	interval time.Duration,
) *ReminderWorker {
	if location == nil {
		location = time.Local
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		appointments: appointments,
		patients:     patients,
		broker:       broker,
		email:        emailSvc,
		metrics:      m,
		location:     location,
		interval:     interval,
		sent:         make(map[uuid.UUID]struct{}),
	}
}

// Start blocks until the context is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *ReminderWorker) run(ctx context.Context) {
	tomorrow := time.Now().In(w.location).AddDate(0, 0, 1).Format(scheduling.DateLayout)

	appointments, err := w.appointments.FindByDate(ctx, tomorrow)
	if err != nil {
		log.Error().Err(err).Str("date", tomorrow).Msg("failed to load appointments for reminders")
		return
	}

	for _, apt := range appointments {
		if _, done := w.sent[apt.ID]; done {
			continue
		}
		w.remind(ctx, apt)
		w.sent[apt.ID] = struct{}{}
	}
}

func (w *ReminderWorker) remind(ctx context.Context, apt *model.Appointment) {
	event := messaging.AppointmentEvent{
		Type:          messaging.EventAppointmentReminder,
		AppointmentID: apt.ID,
		TherapistID:   apt.TherapistID,
		PatientID:     apt.PatientID,
		Date:          apt.Date,
		StartTime:     apt.StartTime,
		OccurredAt:    time.Now(),
	}
	if err := w.broker.Publish(ctx, messaging.ChannelReminders, event); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to publish reminder event")
	}

	to, name := w.recipient(ctx, apt)
	if to == "" {
		return
	}
	if err := w.email.SendAppointmentReminder(ctx, to, name, apt); err != nil {
		log.Warn().Err(err).Str("to", to).Msg("failed to send reminder email")
		return
	}
	w.metrics.RemindersSent.Inc()
}

// recipient resolves who to mail: the linked patient (or their guardian), or
// the guest contact on a pre-intake booking.
func (w *ReminderWorker) recipient(ctx context.Context, apt *model.Appointment) (string, string) {
	if apt.PatientID != nil {
		patient, err := w.patients.Get(ctx, *apt.PatientID)
		if err != nil {
			log.Warn().Err(err).Str("patient_id", apt.PatientID.String()).Msg("failed to load patient for reminder")
			return "", ""
		}
		if patient.Email != "" {
			return patient.Email, patient.Name
		}
		return patient.GuardianEmail, patient.GuardianName
	}
	if apt.GuestEmail != nil {
		name := ""
		if apt.GuestName != nil {
			name = *apt.GuestName
		}
		return *apt.GuestEmail, name
	}
	return "", ""
}
