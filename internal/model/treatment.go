package model

import (
	"github.com/google/uuid"
)

type TreatmentPlanStatus string

const (
	TreatmentPlanStatusProposed  TreatmentPlanStatus = "proposed"
	TreatmentPlanStatusAccepted  TreatmentPlanStatus = "accepted"
	TreatmentPlanStatusPaid      TreatmentPlanStatus = "paid"
	TreatmentPlanStatusCompleted TreatmentPlanStatus = "completed"
	TreatmentPlanStatusCancelled TreatmentPlanStatus = "cancelled"
)

// TreatmentPlan is a proposal for a fixed number of therapy sessions. Once
// payment is confirmed the full set of sessions is booked in one batch.
type TreatmentPlan struct {
	Base
	PatientID              uuid.UUID           `db:"patient_id" json:"patient_id"`
	TherapistID            uuid.UUID           `db:"therapist_id" json:"therapist_id"`
	TotalSessions          int                 `db:"total_sessions" json:"total_sessions"`
	SessionDurationMinutes int                 `db:"session_duration_minutes" json:"session_duration_minutes"`
	PriceCents             int64               `db:"price_cents" json:"price_cents"`
	Status                 TreatmentPlanStatus `db:"status" json:"status"`
	Notes                  string              `db:"notes" json:"notes,omitempty"`
}

// SessionMinutes returns the configured session duration, defaulting to an
// hour when the plan does not specify one.
func (p *TreatmentPlan) SessionMinutes() int {
	if p.SessionDurationMinutes > 0 {
		return p.SessionDurationMinutes
	}
	return DefaultSessionMinutes
}

type CreateTreatmentPlanRequest struct {
	PatientID              uuid.UUID `json:"patient_id" binding:"required"`
	TherapistID            uuid.UUID `json:"therapist_id" binding:"required"`
	TotalSessions          int       `json:"total_sessions" binding:"required,min=1,max=100"`
	SessionDurationMinutes int       `json:"session_duration_minutes" binding:"omitempty,min=15,max=240"`
	PriceCents             int64     `json:"price_cents" binding:"min=0"`
	Notes                  string    `json:"notes" binding:"max=1000"`
}

// SessionSelection is one (date, time) pair picked on the batch-booking
// calendar.
type SessionSelection struct {
	Date      string `json:"date" binding:"required,dateonly"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
}

// ConfirmPaymentRequest carries the full set of selected sessions. The
// selection must match the plan's total_sessions exactly.
type ConfirmPaymentRequest struct {
	Selections []SessionSelection `json:"selections" binding:"required,min=1,dive"`
}
