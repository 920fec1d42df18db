package scheduling

import (
	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

// Selection accumulates the (date, time) pairs picked on the batch-booking
// calendar. Keys keep insertion order so the resulting appointments come back
// in the order the user chose them. Selection is not safe for concurrent use;
// each booking flow owns its own instance.
type Selection struct {
	keys []string
	set  map[string]struct{}
}

// SelectionKey builds the canonical "{date}-{time}" key for a slot.
func SelectionKey(date, startTime string) string {
	return date + "-" + startTime
}

// splitKey is the inverse of SelectionKey. The date part is fixed-width
// (YYYY-MM-DD), so the first dash after position 10 separates the parts.
func splitKey(key string) (date, startTime string) {
	return key[:len(DateLayout)], key[len(DateLayout)+1:]
}

func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Toggle adds the slot when absent and below the cap, removes it when
// present. Adding beyond the cap is a silent no-op: the UI disables further
// clicks at the cap, it is not an error. Returns true when the selection
// changed.
func (s *Selection) Toggle(date, startTime string, limit int) bool {
	key := SelectionKey(date, startTime)
	if _, ok := s.set[key]; ok {
		delete(s.set, key)
		for i, k := range s.keys {
			if k == key {
				s.keys = append(s.keys[:i], s.keys[i+1:]...)
				break
			}
		}
		return true
	}
	if len(s.keys) >= limit {
		return false
	}
	s.set[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

func (s *Selection) Contains(date, startTime string) bool {
	_, ok := s.set[SelectionKey(date, startTime)]
	return ok
}

func (s *Selection) Len() int {
	return len(s.keys)
}

// Keys returns the selected keys in insertion order.
func (s *Selection) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// RejectReason says why a batch was not built.
type RejectReason string

const (
	ReasonCountMismatch RejectReason = "COUNT_MISMATCH"
	ReasonConflict      RejectReason = "CONFLICT"
)

// AppointmentRequest describes one appointment to be persisted. Building
// requests is as far as this package goes; the repository executes them in a
// single transaction so that exactly N appointments exist or none do.
type AppointmentRequest struct {
	Date        string
	StartTime   string
	EndTime     string
	Type        model.AppointmentType
	TherapistID uuid.UUID
	PatientID   *uuid.UUID
}

// BatchResult is the discriminated outcome of batch validation. Validation
// failures are values, not errors: ConflictingKeys names exactly the slots
// that became unavailable so the UI can deselect just those.
type BatchResult struct {
	OK              bool
	Reason          RejectReason
	ConflictingKeys []string
	Appointments    []AppointmentRequest
}

// ValidateAndBuildAppointments checks a completed selection against a
// treatment plan's required session count and re-runs both conflict checks
// per slot. The re-check at submit time guards against slots taken by another
// booker since the calendar was rendered; when any slot conflicts the whole
// batch is rejected, no partial commit.
//
// The count check rejects over-selection too, even though Toggle's cap should
// make that unreachable.
func ValidateAndBuildAppointments(
	sel *Selection,
	requiredCount int,
	therapistID uuid.UUID,
	patientID *uuid.UUID,
	aptType model.AppointmentType,
	durationMinutes int,
	therapistAppointments []*model.Appointment,
	patientAppointments []*model.Appointment,
) BatchResult {
	if sel.Len() != requiredCount {
		return BatchResult{Reason: ReasonCountMismatch}
	}
	if durationMinutes <= 0 {
		durationMinutes = model.DefaultSessionMinutes
	}

	var conflicting []string
	requests := make([]AppointmentRequest, 0, sel.Len())
	for _, key := range sel.Keys() {
		date, start := splitKey(key)
		c := Candidate{
			Date:      date,
			StartTime: start,
			EndTime:   AddMinutes(start, durationMinutes),
		}
		if HasTherapistConflict(c, therapistAppointments, uuid.Nil) ||
			HasPatientConflict(c, patientID, patientAppointments, uuid.Nil) {
			conflicting = append(conflicting, key)
			continue
		}
		requests = append(requests, AppointmentRequest{
			Date:        c.Date,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
			Type:        aptType,
			TherapistID: therapistID,
			PatientID:   patientID,
		})
	}

	if len(conflicting) > 0 {
		return BatchResult{Reason: ReasonConflict, ConflictingKeys: conflicting}
	}
	return BatchResult{OK: true, Appointments: requests}
}
