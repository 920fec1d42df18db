package scheduling

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasvera/clinic-api/internal/model"
)

func TestSelectionToggle(t *testing.T) {
	sel := NewSelection()

	assert.True(t, sel.Toggle("2025-03-10", "09:00", 3))
	assert.True(t, sel.Contains("2025-03-10", "09:00"))
	assert.Equal(t, 1, sel.Len())

	// Toggling again deselects.
	assert.True(t, sel.Toggle("2025-03-10", "09:00", 3))
	assert.False(t, sel.Contains("2025-03-10", "09:00"))
	assert.Equal(t, 0, sel.Len())
}

func TestSelectionCapEnforced(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("2025-03-10", "09:00", 2)
	sel.Toggle("2025-03-10", "10:00", 2)

	// Adding beyond cap is a silent no-op.
	assert.False(t, sel.Toggle("2025-03-10", "11:00", 2))
	assert.Equal(t, 2, sel.Len())

	// Removal always succeeds regardless of cap.
	assert.True(t, sel.Toggle("2025-03-10", "09:00", 2))
	assert.Equal(t, 1, sel.Len())

	// And frees room for a new slot.
	assert.True(t, sel.Toggle("2025-03-10", "11:00", 2))
	assert.Equal(t, 2, sel.Len())
}

func TestSelectionKeepsInsertionOrder(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("2025-03-12", "10:00", 5)
	sel.Toggle("2025-03-10", "09:00", 5)
	sel.Toggle("2025-03-11", "14:00", 5)

	assert.Equal(t, []string{
		"2025-03-12-10:00",
		"2025-03-10-09:00",
		"2025-03-11-14:00",
	}, sel.Keys())
}

func TestValidateAndBuildCountMismatch(t *testing.T) {
	therapist := uuid.New()
	patient := uuid.New()

	sel := NewSelection()
	for i := 0; i < 23; i++ {
		sel.Toggle(fmt.Sprintf("2025-04-%02d", i+1), "09:00", 24)
	}

	res := ValidateAndBuildAppointments(sel, 24, therapist, &patient, model.AppointmentTypeTerapia, 60, nil, nil)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonCountMismatch, res.Reason)

	// Completing the selection moves past the count check.
	sel.Toggle("2025-04-24", "09:00", 24)
	res = ValidateAndBuildAppointments(sel, 24, therapist, &patient, model.AppointmentTypeTerapia, 60, nil, nil)
	assert.True(t, res.OK)
	assert.Len(t, res.Appointments, 24)
}

func TestValidateAndBuildRejectsOverSelection(t *testing.T) {
	// Unreachable through Toggle's cap, still rejected defensively.
	sel := NewSelection()
	sel.Toggle("2025-04-01", "09:00", 3)
	sel.Toggle("2025-04-02", "09:00", 3)
	sel.Toggle("2025-04-03", "09:00", 3)

	res := ValidateAndBuildAppointments(sel, 2, uuid.New(), nil, model.AppointmentTypeTerapia, 60, nil, nil)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonCountMismatch, res.Reason)
}

func TestValidateAndBuildConflictRejectsWholeBatch(t *testing.T) {
	therapist := uuid.New()
	patient := uuid.New()

	sel := NewSelection()
	sel.Toggle("2025-04-01", "09:00", 3)
	sel.Toggle("2025-04-02", "09:00", 3)
	sel.Toggle("2025-04-03", "09:00", 3)

	// One slot was taken between render and submit.
	therapistAppts := []*model.Appointment{
		appt(therapist, nil, "2025-04-02", "09:00", "10:00", model.AppointmentStatusScheduled),
	}

	res := ValidateAndBuildAppointments(sel, 3, therapist, &patient, model.AppointmentTypeTerapia, 60, therapistAppts, nil)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonConflict, res.Reason)
	assert.Equal(t, []string{"2025-04-02-09:00"}, res.ConflictingKeys)
	assert.Empty(t, res.Appointments, "no partial commit")
}

func TestValidateAndBuildPatientConflictAcrossTherapists(t *testing.T) {
	therapist := uuid.New()
	otherTherapist := uuid.New()
	patient := uuid.New()

	sel := NewSelection()
	sel.Toggle("2025-04-01", "09:00", 1)

	patientAppts := []*model.Appointment{
		appt(otherTherapist, &patient, "2025-04-01", "09:30", "10:30", model.AppointmentStatusScheduled),
	}

	res := ValidateAndBuildAppointments(sel, 1, therapist, &patient, model.AppointmentTypeTerapia, 60, nil, patientAppts)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonConflict, res.Reason)
	assert.Equal(t, []string{"2025-04-01-09:00"}, res.ConflictingKeys)
}

func TestValidateAndBuildSuccess(t *testing.T) {
	therapist := uuid.New()
	patient := uuid.New()

	sel := NewSelection()
	sel.Toggle("2025-04-01", "09:00", 2)
	sel.Toggle("2025-04-08", "14:00", 2)

	res := ValidateAndBuildAppointments(sel, 2, therapist, &patient, model.AppointmentTypeTerapia, 0, nil, nil)
	require.True(t, res.OK)
	require.Len(t, res.Appointments, 2)

	first := res.Appointments[0]
	assert.Equal(t, "2025-04-01", first.Date)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:00", first.EndTime, "zero duration falls back to the default hour")
	assert.Equal(t, therapist, first.TherapistID)
	require.NotNil(t, first.PatientID)
	assert.Equal(t, patient, *first.PatientID)
	assert.Equal(t, model.AppointmentTypeTerapia, first.Type)

	second := res.Appointments[1]
	assert.Equal(t, "2025-04-08", second.Date)
	assert.Equal(t, "14:00", second.StartTime)
	assert.Equal(t, "15:00", second.EndTime)
}

func TestValidateAndBuildNilPatientSkipsPatientCheck(t *testing.T) {
	therapist := uuid.New()
	someone := uuid.New()

	sel := NewSelection()
	sel.Toggle("2025-04-01", "09:00", 1)

	// A busy patient list is irrelevant when the booking has no patient yet.
	patientAppts := []*model.Appointment{
		appt(uuid.New(), &someone, "2025-04-01", "09:00", "10:00", model.AppointmentStatusScheduled),
	}

	res := ValidateAndBuildAppointments(sel, 1, therapist, nil, model.AppointmentTypeConsulta, 60, nil, patientAppts)
	assert.True(t, res.OK)
	require.Len(t, res.Appointments, 1)
	assert.Nil(t, res.Appointments[0].PatientID)
}
