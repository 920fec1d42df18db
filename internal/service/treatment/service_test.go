package treatment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/model"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test_treatment_svc")

type fakePlanRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.TreatmentPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{items: make(map[uuid.UUID]*model.TreatmentPlan)}
}

func (f *fakePlanRepo) Create(_ context.Context, p *model.TreatmentPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.items[p.ID] = p
	return nil
}

func (f *fakePlanRepo) Get(_ context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (f *fakePlanRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.TreatmentPlanStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.Status = status
	return nil
}

func (f *fakePlanRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.TreatmentPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TreatmentPlan
	for _, p := range f.items {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	items map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{items: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.items[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, int, error) {
	var out []*model.Patient
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

type fakeAppointmentRepo struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*model.Appointment
	failBatches bool
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
	return nil, nil
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

func (f *fakeAppointmentRepo) FindByTherapistAndMonth(_ context.Context, _ uuid.UUID, _, _ int) ([]*model.Appointment, error) {
	return nil, nil
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
	return nil, nil
}

// CreateMany mimics the transactional repository: all or nothing.
func (f *fakeAppointmentRepo) CreateMany(ctx context.Context, appointments []*model.Appointment) error {
	if f.failBatches {
		return fmt.Errorf("unique constraint violation")
	}
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

type fixture struct {
	svc          *Service
	plans        *fakePlanRepo
	appointments *fakeAppointmentRepo
	patients     *fakePatientRepo
	broker       *fakeBroker
	plan         *model.TreatmentPlan
}

func newFixture(t *testing.T, totalSessions int) *fixture {
	t.Helper()

	plans := newFakePlanRepo()
	appointments := newFakeAppointmentRepo()
	patients := newFakePatientRepo()
	broker := &fakeBroker{}

	patient := &model.Patient{Name: "Ana López", Email: "ana@example.com", Status: model.PatientStatusActive}
	require.NoError(t, patients.Create(context.Background(), patient))

	plan := &model.TreatmentPlan{
		PatientID:     patient.ID,
		TherapistID:   uuid.New(),
		TotalSessions: totalSessions,
		Status:        model.TreatmentPlanStatusAccepted,
	}
	require.NoError(t, plans.Create(context.Background(), plan))

	svc := NewService(plans, appointments, patients, broker, email.NoopService{}, testMetrics, time.UTC)
	return &fixture{
		svc:          svc,
		plans:        plans,
		appointments: appointments,
		patients:     patients,
		broker:       broker,
		plan:         plan,
	}
}

func futureDates(n int) []model.SessionSelection {
	base := time.Now().UTC().AddDate(0, 1, 0)
	out := make([]model.SessionSelection, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.SessionSelection{
			Date:      base.AddDate(0, 0, i*7).Format("2006-01-02"),
			StartTime: "10:00",
		})
	}
	return out
}

func TestConfirmPaymentBooksAllSessions(t *testing.T) {
	fx := newFixture(t, 4)

	booked, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: futureDates(4),
	})
	require.NoError(t, err)
	require.Len(t, booked, 4)

	for _, a := range booked {
		assert.Equal(t, fx.plan.TherapistID, a.TherapistID)
		require.NotNil(t, a.PatientID)
		assert.Equal(t, fx.plan.PatientID, *a.PatientID)
		assert.Equal(t, model.AppointmentTypeTerapia, a.Type)
		assert.Equal(t, "11:00", a.EndTime)
	}

	stored, err := fx.plans.Get(context.Background(), fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TreatmentPlanStatusPaid, stored.Status)
	assert.NotEmpty(t, fx.broker.events)
}

func TestConfirmPaymentRejectsIncompleteSelection(t *testing.T) {
	fx := newFixture(t, 4)

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: futureDates(3),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	// Nothing booked, plan still accepted.
	assert.Empty(t, fx.appointments.items)
	stored, _ := fx.plans.Get(context.Background(), fx.plan.ID)
	assert.Equal(t, model.TreatmentPlanStatusAccepted, stored.Status)
}

func TestConfirmPaymentRejectsOverSelection(t *testing.T) {
	fx := newFixture(t, 2)

	// Three picks against a two-session plan must fail the exact-count rule,
	// not book the first two.
	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: futureDates(3),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	assert.Empty(t, fx.appointments.items)
	stored, _ := fx.plans.Get(context.Background(), fx.plan.ID)
	assert.Equal(t, model.TreatmentPlanStatusAccepted, stored.Status)
}

func TestConfirmPaymentRejectsDuplicateSelections(t *testing.T) {
	fx := newFixture(t, 2)
	selections := futureDates(2)
	selections[1] = selections[0]

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: selections,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Empty(t, fx.appointments.items)
}

func TestConfirmPaymentConflictNamesTheSlots(t *testing.T) {
	fx := newFixture(t, 3)
	selections := futureDates(3)

	// The second slot gets taken between render and submit.
	taken := &model.Appointment{
		TherapistID: fx.plan.TherapistID,
		Date:        selections[1].Date,
		StartTime:   "10:00",
		EndTime:     "11:00",
		Status:      model.AppointmentStatusScheduled,
		Type:        model.AppointmentTypeConsulta,
	}
	require.NoError(t, fx.appointments.Create(context.Background(), taken))

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: selections,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	keys, ok := appErr.Details.([]string)
	require.True(t, ok)
	assert.Equal(t, []string{selections[1].Date + "-10:00"}, keys)

	// Whole batch rejected, only the pre-existing appointment remains.
	assert.Len(t, fx.appointments.items, 1)
}

func TestConfirmPaymentRequiresAcceptedPlan(t *testing.T) {
	fx := newFixture(t, 2)
	require.NoError(t, fx.plans.UpdateStatus(context.Background(), fx.plan.ID, model.TreatmentPlanStatusProposed))

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: futureDates(2),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestConfirmPaymentRejectsPastDates(t *testing.T) {
	fx := newFixture(t, 1)

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: []model.SessionSelection{{Date: "2020-01-15", StartTime: "10:00"}},
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestConfirmPaymentSurfacesPersistenceRace(t *testing.T) {
	fx := newFixture(t, 2)
	fx.appointments.failBatches = true

	_, err := fx.svc.ConfirmPaymentAndSchedule(context.Background(), fx.plan.ID, &model.ConfirmPaymentRequest{
		Selections: futureDates(2),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	stored, _ := fx.plans.Get(context.Background(), fx.plan.ID)
	assert.Equal(t, model.TreatmentPlanStatusAccepted, stored.Status)
}

func TestPlanLifecycle(t *testing.T) {
	fx := newFixture(t, 2)

	plan, err := fx.svc.CreatePlan(context.Background(), &model.CreateTreatmentPlanRequest{
		PatientID:     fx.plan.PatientID,
		TherapistID:   uuid.New(),
		TotalSessions: 12,
		PriceCents:    480000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TreatmentPlanStatusProposed, plan.Status)

	accepted, err := fx.svc.AcceptPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TreatmentPlanStatusAccepted, accepted.Status)

	// A second accept is rejected.
	_, err = fx.svc.AcceptPlan(context.Background(), plan.ID)
	require.Error(t, err)

	require.NoError(t, fx.svc.CancelPlan(context.Background(), plan.ID))
	stored, _ := fx.plans.Get(context.Background(), plan.ID)
	assert.Equal(t, model.TreatmentPlanStatusCancelled, stored.Status)
}
