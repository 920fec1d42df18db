package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/matiasvera/clinic-api/internal/model"
)

func appt(therapistID uuid.UUID, patientID *uuid.UUID, date, start, end string, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		TherapistID: therapistID,
		PatientID:   patientID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Status:      status,
	}
	a.ID = uuid.New()
	return a
}

func TestHasTherapistConflict(t *testing.T) {
	therapist := uuid.New()
	existing := appt(therapist, nil, "2025-03-10", "09:00", "10:00", model.AppointmentStatusScheduled)
	appts := []*model.Appointment{existing}

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"exact overlap", "09:00", "10:00", true},
		{"partial overlap front", "08:30", "09:30", true},
		{"partial overlap back", "09:30", "10:30", true},
		{"contained", "09:15", "09:45", true},
		{"containing", "08:00", "11:00", true},
		{"back to back after", "10:00", "11:00", false},
		{"back to back before", "08:00", "09:00", false},
		{"disjoint", "11:00", "12:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Date: "2025-03-10", StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.want, HasTherapistConflict(c, appts, uuid.Nil))
		})
	}
}

func TestHasTherapistConflictIgnoresOtherDates(t *testing.T) {
	therapist := uuid.New()
	appts := []*model.Appointment{
		appt(therapist, nil, "2025-03-11", "09:00", "10:00", model.AppointmentStatusScheduled),
	}
	c := Candidate{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	assert.False(t, HasTherapistConflict(c, appts, uuid.Nil))
}

func TestHasTherapistConflictIgnoresCancelled(t *testing.T) {
	therapist := uuid.New()
	appts := []*model.Appointment{
		appt(therapist, nil, "2025-03-10", "09:00", "10:00", model.AppointmentStatusCancelled),
	}
	c := Candidate{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	assert.False(t, HasTherapistConflict(c, appts, uuid.Nil))
}

func TestHasTherapistConflictExcludesSelfOnReschedule(t *testing.T) {
	therapist := uuid.New()
	original := appt(therapist, nil, "2025-03-10", "09:00", "10:00", model.AppointmentStatusScheduled)
	appts := []*model.Appointment{original}

	// Moving the same appointment to 10:00 must not collide with itself.
	c := Candidate{Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00"}
	assert.False(t, HasTherapistConflict(c, appts, original.ID))

	// Even keeping the original time is fine when excluded.
	c = Candidate{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	assert.False(t, HasTherapistConflict(c, appts, original.ID))

	// A second, genuinely conflicting appointment still blocks.
	other := appt(therapist, nil, "2025-03-10", "09:30", "10:30", model.AppointmentStatusScheduled)
	appts = append(appts, other)
	assert.True(t, HasTherapistConflict(c, appts, original.ID))
}

func TestHasPatientConflictAcrossTherapists(t *testing.T) {
	patient := uuid.New()
	otherTherapist := uuid.New()
	appts := []*model.Appointment{
		appt(otherTherapist, &patient, "2025-03-10", "09:00", "10:00", model.AppointmentStatusConfirmed),
	}

	c := Candidate{Date: "2025-03-10", StartTime: "09:30", EndTime: "10:30"}
	assert.True(t, HasPatientConflict(c, &patient, appts, uuid.Nil))

	c = Candidate{Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00"}
	assert.False(t, HasPatientConflict(c, &patient, appts, uuid.Nil))
}

func TestHasPatientConflictSkippedWithoutPatient(t *testing.T) {
	patient := uuid.New()
	appts := []*model.Appointment{
		appt(uuid.New(), &patient, "2025-03-10", "09:00", "10:00", model.AppointmentStatusScheduled),
	}
	c := Candidate{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	assert.False(t, HasPatientConflict(c, nil, appts, uuid.Nil))
}

func TestHasPatientConflictIgnoresOtherPatients(t *testing.T) {
	patient := uuid.New()
	other := uuid.New()
	appts := []*model.Appointment{
		appt(uuid.New(), &other, "2025-03-10", "09:00", "10:00", model.AppointmentStatusScheduled),
		appt(uuid.New(), nil, "2025-03-10", "09:00", "10:00", model.AppointmentStatusScheduled),
	}
	c := Candidate{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	assert.False(t, HasPatientConflict(c, &patient, appts, uuid.Nil))
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	assert.True(t, IsPastDate("2025-03-09", now))
	assert.False(t, IsPastDate("2025-03-10", now), "today is not past")
	assert.False(t, IsPastDate("2025-03-11", now))
	assert.True(t, IsPastDate("2024-12-31", now))
	assert.True(t, IsPastDate("not-a-date", now), "unparseable dates are never bookable")
}
