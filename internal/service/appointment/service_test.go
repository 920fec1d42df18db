package appointment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasvera/clinic-api/internal/model"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test_appointment_svc")

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{items: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.items[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Appointment, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindByTherapistAndDateRange(_ context.Context, therapistID uuid.UUID, startDate, endDate string) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.items {
		if a.TherapistID == therapistID && a.Date >= startDate && a.Date <= endDate {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindByTherapistAndMonth(_ context.Context, therapistID uuid.UUID, year, month int) ([]*model.Appointment, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.items {
		if a.TherapistID == therapistID && len(a.Date) >= len(prefix) && a.Date[:len(prefix)] == prefix {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.items {
		if a.PatientID != nil && *a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindByDate(_ context.Context, date string) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.items {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CreateMany(ctx context.Context, appointments []*model.Appointment) error {
	for _, a := range appointments {
		if err := f.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

type fakeBroker struct {
	mu     sync.Mutex
	events []interface{}
}

func (f *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, message)
	return nil
}

func (f *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

func newTestService(repo *fakeAppointmentRepo) *Service {
	return NewService(repo, &fakeBroker{}, testMetrics, Config{
		HourlySlots:           []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"},
		Location:              time.UTC,
		DefaultSessionMinutes: 60,
		AvailabilityCacheTTL:  time.Minute,
	})
}

func futureDate(t *testing.T) string {
	t.Helper()
	return time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
}

func TestCreateAppointmentRejectsTherapistConflict(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	therapist := uuid.New()
	date := futureDate(t)

	_, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.NoError(t, err)

	// Overlapping slot for the same therapist is rejected.
	_, err = svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// Back-to-back is fine.
	_, err = svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "11:00",
		Type:        model.AppointmentTypeConsulta,
	})
	assert.NoError(t, err)
}

func TestCreateAppointmentRejectsPatientConflictAcrossTherapists(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	patient := uuid.New()
	date := futureDate(t)

	_, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: uuid.New(),
		PatientID:   &patient,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeTerapia,
	})
	require.NoError(t, err)

	_, err = svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: uuid.New(),
		PatientID:   &patient,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeTerapia,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateAppointmentRejectsPastDate(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())

	_, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: uuid.New(),
		Date:        "2020-01-15",
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestRescheduleExcludesOwnSlot(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	therapist := uuid.New()
	date := futureDate(t)

	apt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.NoError(t, err)

	// Moving one hour later overlaps nothing once the appointment's own
	// interval is excluded.
	moved, err := svc.RescheduleAppointment(context.Background(), apt.ID, &model.RescheduleAppointmentRequest{
		Date:      date,
		StartTime: "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "11:00", moved.StartTime)
	assert.Equal(t, "12:00", moved.EndTime)
	assert.Equal(t, model.AppointmentStatusRescheduled, moved.Status)
}

func TestCancelledSlotBecomesBookable(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	therapist := uuid.New()
	date := futureDate(t)

	apt, err := svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelAppointment(context.Background(), apt.ID, "patient request"))

	_, err = svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	assert.NoError(t, err)
}

func TestMonthAvailabilityGridAndSlots(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	therapist := uuid.New()

	target := time.Now().UTC().AddDate(0, 2, 0)
	year, month := target.Year(), int(target.Month())

	avail, err := svc.MonthAvailability(context.Background(), therapist, year, month)
	require.NoError(t, err)
	assert.Len(t, avail.Grid, 42)

	// A fully free in-month day offers the whole roster, split at noon.
	mid := fmt.Sprintf("%04d-%02d-15", year, month)
	day := avail.Days[mid]
	require.NotNil(t, day)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}, day.Slots)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, day.Morning)
	assert.Equal(t, []string{"14:00", "15:00", "16:00"}, day.Afternoon)
}

func TestMonthAvailabilityInvalidatedByBooking(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	therapist := uuid.New()

	target := time.Now().UTC().AddDate(0, 2, 0)
	year, month := target.Year(), int(target.Month())
	date := fmt.Sprintf("%04d-%02d-15", year, month)

	before, err := svc.MonthAvailability(context.Background(), therapist, year, month)
	require.NoError(t, err)
	require.Contains(t, before.Days[date].Slots, "10:00")

	_, err = svc.CreateAppointment(context.Background(), &model.CreateAppointmentRequest{
		TherapistID: therapist,
		Date:        date,
		StartTime:   "10:00",
		Type:        model.AppointmentTypeConsulta,
	})
	require.NoError(t, err)

	after, err := svc.MonthAvailability(context.Background(), therapist, year, month)
	require.NoError(t, err)
	assert.NotContains(t, after.Days[date].Slots, "10:00")
}
