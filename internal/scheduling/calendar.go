package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"

	// GridCells is the fixed size of a month grid: six full Sunday-first
	// weeks, enough for any month regardless of where the 1st falls.
	GridCells = 42

	// noonSlot splits the roster into morning and afternoon buckets for
	// display grouping. It is not a scheduling rule.
	noonSlot = "12:00"
)

// DayCell is one cell of the 6x7 booking calendar.
type DayCell struct {
	Date           string `json:"date"`
	Day            int    `json:"day"`
	InCurrentMonth bool   `json:"in_current_month"`
}

// ComputeMonthGrid lays out the given month as exactly 42 day cells starting
// on the Sunday on or before the 1st. Leading and trailing cells belong to
// the adjacent months and are flagged accordingly.
func ComputeMonthGrid(year int, month time.Month) []DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]DayCell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, DayCell{
			Date:           d.Format(DateLayout),
			Day:            d.Day(),
			InCurrentMonth: d.Year() == year && d.Month() == month,
		})
	}
	return cells
}

// AddMinutes advances an HH:MM time by the given number of minutes. The
// result is not wrapped at midnight; a late slot plus its duration simply
// stays ordered after every same-day time, which is all the half-open
// comparison needs.
func AddMinutes(t string, minutes int) string {
	var hh, mm int
	fmt.Sscanf(t, "%d:%d", &hh, &mm)
	total := hh*60 + mm + minutes
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// AvailableSlotsForDay filters a fixed roster of candidate start times down
// to the ones still bookable for the therapist whose appointments are given.
// Past dates yield no slots regardless of the roster. The roster is owned by
// configuration, not by this package; business hours change without touching
// this code.
func AvailableSlotsForDay(date string, roster []string, appointments []*model.Appointment, durationMinutes int, now time.Time) []string {
	if IsPastDate(date, now) {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = model.DefaultSessionMinutes
	}

	available := make([]string, 0, len(roster))
	for _, slot := range roster {
		c := Candidate{
			Date:      date,
			StartTime: slot,
			EndTime:   AddMinutes(slot, durationMinutes),
		}
		if !HasTherapistConflict(c, appointments, uuid.Nil) {
			available = append(available, slot)
		}
	}
	return available
}

// DayHasSlots reports whether the day should be highlighted as bookable on
// the calendar grid.
func DayHasSlots(date string, roster []string, appointments []*model.Appointment, durationMinutes int, now time.Time) bool {
	return len(AvailableSlotsForDay(date, roster, appointments, durationMinutes, now)) > 0
}

// SplitMorningAfternoon partitions slots at noon for display grouping.
func SplitMorningAfternoon(slots []string) (morning, afternoon []string) {
	for _, s := range slots {
		if s < noonSlot {
			morning = append(morning, s)
		} else {
			afternoon = append(afternoon, s)
		}
	}
	return morning, afternoon
}
