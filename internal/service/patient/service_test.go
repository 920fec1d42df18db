package patient

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasvera/clinic-api/internal/model"
)

type fakePatientRepo struct {
	items       map[uuid.UUID]*model.Patient
	lastFilters *model.PatientFilters
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

func (f *fakePatientRepo) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	f.lastFilters = filters
	var out []*model.Patient
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

type fakeAppointmentFinder struct {
	byPatient map[uuid.UUID][]*model.Appointment
}

func (f *fakeAppointmentFinder) Create(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointmentFinder) Update(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointmentFinder) Delete(context.Context, uuid.UUID) error { return nil }
func (f *fakeAppointmentFinder) CreateMany(context.Context, []*model.Appointment) error {
	return nil
}

func (f *fakeAppointmentFinder) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, fmt.Errorf("not found")
}

func (f *fakeAppointmentFinder) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentFinder) FindByTherapistAndDateRange(context.Context, uuid.UUID, string, string) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentFinder) FindByTherapistAndMonth(context.Context, uuid.UUID, int, int) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentFinder) FindByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return f.byPatient[patientID], nil
}

func (f *fakeAppointmentFinder) FindByDate(context.Context, string) ([]*model.Appointment, error) {
	return nil, nil
}

func TestListPatientsNormalizesPagination(t *testing.T) {
	repo := newFakePatientRepo()
	svc := NewService(repo, &fakeAppointmentFinder{})

	require.NoError(t, repo.Create(context.Background(), &model.Patient{Name: "Ana"}))

	filters := &model.PatientFilters{
		Pagination: model.Pagination{Page: 0, PageSize: 500},
	}
	patients, total, err := svc.ListPatients(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
	assert.Equal(t, 1, total)

	// Out-of-range values are clamped before the repository sees them.
	assert.Equal(t, 1, repo.lastFilters.Pagination.Page)
	assert.Equal(t, 100, repo.lastFilters.Pagination.PageSize)
	assert.Equal(t, 0, repo.lastFilters.Pagination.Offset())
}

func TestPaginationOffset(t *testing.T) {
	p := model.Pagination{Page: 3, PageSize: 20}
	p.Normalize()
	assert.Equal(t, 40, p.Offset())

	var zero model.Pagination
	zero.Normalize()
	assert.Equal(t, 1, zero.Page)
	assert.Equal(t, 20, zero.PageSize)
}

func TestSortOrderDirection(t *testing.T) {
	assert.True(t, model.SortOrder{Dir: "desc"}.Descending())
	assert.False(t, model.SortOrder{Dir: "asc"}.Descending())
	assert.False(t, model.SortOrder{}.Descending())
}

func TestPatientHistory(t *testing.T) {
	repo := newFakePatientRepo()
	patient := &model.Patient{Name: "Luis"}
	require.NoError(t, repo.Create(context.Background(), patient))

	appts := &fakeAppointmentFinder{byPatient: map[uuid.UUID][]*model.Appointment{
		patient.ID: {
			{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"},
		},
	}}
	svc := NewService(repo, appts)

	history, err := svc.PatientHistory(context.Background(), patient.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2025-03-10", history[0].Date)

	_, err = svc.PatientHistory(context.Background(), uuid.New())
	assert.Error(t, err)
}
