// Package scheduling holds the slot-availability and conflict-detection rules
// shared by the admin calendar, the public booking flow and the batch
// scheduler. Everything here is a pure function of the appointment snapshots
// it is given; fetching and persisting appointments is the caller's job.
package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

// Candidate is a booking attempt for a single half-open [StartTime, EndTime)
// interval on one calendar date. Date is YYYY-MM-DD, times are HH:MM.
type Candidate struct {
	Date      string
	StartTime string
	EndTime   string
}

// overlaps reports whether two half-open HH:MM intervals intersect.
// Zero-padded HH:MM strings order lexicographically, so no parsing is needed.
// Back-to-back intervals (a ends exactly when b starts) do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// HasTherapistConflict reports whether the candidate interval collides with
// any of the therapist's existing appointments. The list may span any date
// range; only same-date, non-cancelled entries are compared. Pass excludeID
// to ignore one appointment, used when that same appointment is being
// rescheduled. uuid.Nil excludes nothing.
func HasTherapistConflict(c Candidate, appointments []*model.Appointment, excludeID uuid.UUID) bool {
	for _, a := range appointments {
		if a.Date != c.Date || !a.CountsForConflicts() {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if overlaps(c.StartTime, c.EndTime, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}

// HasPatientConflict applies the same overlap rule to one patient's
// appointments across all therapists: a patient cannot hold two overlapping
// bookings regardless of who they are with. When patientID is nil (public
// intake before a patient record exists) the check is skipped entirely.
func HasPatientConflict(c Candidate, patientID *uuid.UUID, appointments []*model.Appointment, excludeID uuid.UUID) bool {
	if patientID == nil {
		return false
	}
	for _, a := range appointments {
		if a.Date != c.Date || !a.CountsForConflicts() {
			continue
		}
		if a.PatientID == nil || *a.PatientID != *patientID {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if overlaps(c.StartTime, c.EndTime, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}

// IsPastDate reports whether the date falls strictly before now's calendar
// day. The comparison is date-only in now's location; today is never past.
// A date that does not parse as YYYY-MM-DD is treated as past, i.e. never
// bookable.
func IsPastDate(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}
