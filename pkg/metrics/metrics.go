package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scheduling-domain metrics.
type Metrics struct {
	BookingsTotal      *prometheus.CounterVec
	ConflictsDetected  *prometheus.CounterVec
	BatchValidations   *prometheus.CounterVec
	BatchSessionsBuilt prometheus.Counter
	RemindersSent      prometheus.Counter
	AvailabilityCache  *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Appointments booked, by type and source",
		}, []string{"type", "source"}),
		ConflictsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Bookings rejected by conflict checks, by scope",
		}, []string{"scope"}),
		BatchValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_validations_total",
			Help:      "Batch scheduling validations, by outcome",
		}, []string{"outcome"}),
		BatchSessionsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_sessions_built_total",
			Help:      "Sessions persisted through batch scheduling",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Appointment reminders published",
		}),
		AvailabilityCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups, by result",
		}, []string{"result"}),
	}
}
