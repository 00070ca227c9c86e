package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
)

// SubjectPrefix is prepended to the event type to build the subject.
const SubjectPrefix = "booking."

// BreakerSettings configures the publisher's circuit breaker
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// EventPublisher sends domain events to a MessageQueue. Publishing never
// fails the caller: broker errors are logged and counted, and an open
// breaker drops events until the broker recovers.
type EventPublisher struct {
	queue MessageQueue
	cb    *gobreaker.CircuitBreaker
	log   *zap.Logger
}

func NewEventPublisher(queue MessageQueue, settings BreakerSettings, log *zap.Logger) *EventPublisher {
	if settings.MinRequests == 0 {
		settings.MinRequests = 5
	}
	if settings.FailureRatio <= 0 {
		settings.FailureRatio = 0.5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= settings.MinRequests && failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &EventPublisher{queue: queue, cb: cb, log: log}
}

// Subject returns the subject an event type is published on
func Subject(t domain.EventType) string {
	return SubjectPrefix + string(t)
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		telemetry.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		p.log.Error("Failed to encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	subject := Subject(event.Type)
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.queue.Publish(subject, data)
	})

	switch {
	case err == nil:
		telemetry.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		telemetry.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		p.log.Warn("Event dropped, publisher circuit open",
			zap.String("subject", subject),
			zap.String("event_id", event.ID),
			zap.String("reservation_id", event.ReservationID),
		)
	default:
		telemetry.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		p.log.Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.String("event_id", event.ID),
			zap.String("reservation_id", event.ReservationID),
			zap.Error(err),
		)
	}
}

// State reports the breaker state, for readiness checks
func (p *EventPublisher) State() gobreaker.State {
	return p.cb.State()
}
