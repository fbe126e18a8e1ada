package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all workflow metrics
type Metrics struct {
	// Slot ledger metrics
	BookingsTotal    prometheus.Counter
	BookingConflicts *prometheus.CounterVec
	SlotsCreated     prometheus.Counter
	SlotsCancelled   prometheus.Counter

	// Referral chain metrics
	PrescriptionsIssued prometheus.Counter
	RequestsFiled       prometheus.Counter
	ResultsFiled        prometheus.Counter
	ResultConflicts     prometheus.Counter

	// Access guard metrics
	AuthDenials *prometheus.CounterVec
}

// NewMetrics creates and registers all workflow metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Total number of successful slot bookings",
		}),
		BookingConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Bookings rejected because the slot was full or cancelled",
		}, []string{"reason"}),
		SlotsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_created_total",
			Help:      "Total number of appointment slots created",
		}),
		SlotsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_cancelled_total",
			Help:      "Total number of appointment slots cancelled",
		}),
		PrescriptionsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescriptions_issued_total",
			Help:      "Total number of prescriptions issued",
		}),
		RequestsFiled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "radiology_requests_filed_total",
			Help:      "Total number of radiology requests filed",
		}),
		ResultsFiled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "radiology_results_filed_total",
			Help:      "Total number of radiology results filed",
		}),
		ResultConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "radiology_result_conflicts_total",
			Help:      "Result filings rejected because the request already holds a result",
		}),
		AuthDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denials_total",
			Help:      "Operations denied by the access guard",
		}, []string{"capability"}),
	}
}
