package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channels the API publishes on.
const (
	ChannelAppointments = "appointments"
	ChannelReminders    = "reminders"
)

// Event types carried on the appointments channel.
const (
	EventAppointmentCreated     = "appointment.created"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentReminder    = "appointment.reminder"
	EventTreatmentPlanBooked    = "treatment_plan.booked"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// AppointmentEvent is the payload published for every appointment lifecycle
// change. Consumers (notification senders, dashboards) key off Type.
type AppointmentEvent struct {
	Type          string     `json:"type"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	TherapistID   uuid.UUID  `json:"therapist_id"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
