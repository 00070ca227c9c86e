package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reservations_total",
		Help: "Reservation transitions by resulting status",
	}, []string{"status"})

	SlotConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_slot_conflicts_total",
		Help: "Writes rejected because of an overlapping reservation or lock timeout",
	}, []string{"operation", "cause"})

	PenaltiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_penalties_total",
		Help: "Fees raised by type",
	}, []string{"type"})

	ActiveChargingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booking_active_charging_sessions",
		Help: "Sessions currently charging",
	})

	EnergyDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_energy_delivered_kwh_total",
		Help: "Energy delivered by completed sessions in kWh",
	})

	ReassignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reassignments_total",
		Help: "Reassignment attempts by outcome",
	}, []string{"outcome"})

	AvailabilityQueries = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_availability_query_seconds",
		Help:    "Availability search latency",
		Buckets: prometheus.DefBuckets,
	})

	// Métricas de infraestrutura
	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_grpc_requests_total",
		Help: "gRPC calls by method and status code",
	}, []string{"method", "code"})

	GRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_grpc_request_duration_seconds",
		Help:    "gRPC call latency by method",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	LockWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_point_lock_wait_seconds",
		Help:    "Time spent waiting for charging point locks",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
	}, []string{"operation"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_lifecycle_sweep_seconds",
		Help:    "Duration of one lifecycle sweep",
		Buckets: prometheus.DefBuckets,
	})

	SweepProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_lifecycle_processed_total",
		Help: "Reservations handled by the lifecycle monitor",
	}, []string{"action", "result"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_published_total",
		Help: "Notification events by type and result",
	}, []string{"type", "result"})
)
