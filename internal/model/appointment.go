package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusInProgress  AppointmentStatus = "in_progress"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

type AppointmentType string

const (
	AppointmentTypeConsulta    AppointmentType = "consulta"
	AppointmentTypeEntrevista  AppointmentType = "entrevista"
	AppointmentTypeSeguimiento AppointmentType = "seguimiento"
	AppointmentTypeTerapia     AppointmentType = "terapia"
)

// DefaultSessionMinutes is used when neither the appointment type nor the
// treatment plan specifies a duration.
const DefaultSessionMinutes = 60

var typeDurations = map[AppointmentType]int{
	AppointmentTypeConsulta:    60,
	AppointmentTypeEntrevista:  45,
	AppointmentTypeSeguimiento: 30,
	AppointmentTypeTerapia:     60,
}

// DurationMinutes returns the default session length for the appointment type.
func (t AppointmentType) DurationMinutes() int {
	if d, ok := typeDurations[t]; ok {
		return d
	}
	return DefaultSessionMinutes
}

// Appointment keeps the calendar date and the time-of-day bounds as strings
// (YYYY-MM-DD and HH:MM) so they sort and compare without timezone handling.
// The interval [StartTime, EndTime) is half-open.
type Appointment struct {
	Base
	TherapistID  uuid.UUID         `db:"therapist_id" json:"therapist_id"`
	PatientID    *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	Date         string            `db:"date" json:"date"`
	StartTime    string            `db:"start_time" json:"start_time"`
	EndTime      string            `db:"end_time" json:"end_time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Type         AppointmentType   `db:"type" json:"type"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	GuestName    *string           `db:"guest_name" json:"guest_name,omitempty"`
	GuestEmail   *string           `db:"guest_email" json:"guest_email,omitempty"`
	GuestPhone   *string           `db:"guest_phone" json:"guest_phone,omitempty"`
}

// CountsForConflicts reports whether the appointment blocks its time slot.
// Cancelled appointments never participate in conflict checks.
func (a *Appointment) CountsForConflicts() bool {
	return a.Status != AppointmentStatusCancelled
}

type CreateAppointmentRequest struct {
	TherapistID uuid.UUID       `json:"therapist_id" binding:"required"`
	PatientID   *uuid.UUID      `json:"patient_id"`
	Date        string          `json:"date" binding:"required,dateonly"`
	StartTime   string          `json:"start_time" binding:"required,hhmm"`
	Type        AppointmentType `json:"type" binding:"required,oneof=consulta entrevista seguimiento terapia"`
	Notes       string          `json:"notes" binding:"max=1000"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" binding:"required,dateonly"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PublicBookingRequest is a consultation or interview booked from the public
// site, before any patient record exists. Contact details live on the
// appointment itself until intake creates the patient.
type PublicBookingRequest struct {
	TherapistID uuid.UUID       `json:"therapist_id" binding:"required"`
	Date        string          `json:"date" binding:"required,dateonly"`
	StartTime   string          `json:"start_time" binding:"required,hhmm"`
	Type        AppointmentType `json:"type" binding:"required,oneof=consulta entrevista"`
	GuestName   string          `json:"guest_name" binding:"required,max=200"`
	GuestEmail  string          `json:"guest_email" binding:"required,email"`
	GuestPhone  string          `json:"guest_phone" binding:"max=50"`
}

type AppointmentFilters struct {
	TherapistID uuid.UUID
	PatientID   uuid.UUID
	Status      AppointmentStatus
	StartDate   string
	EndDate     string
}
