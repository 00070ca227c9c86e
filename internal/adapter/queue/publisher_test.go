package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/mocks"
)

func TestEventPublisher_PublishesOnTypedSubject(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	p := NewEventPublisher(mq, BreakerSettings{}, zap.NewNop())

	p.Publish(context.Background(), domain.Event{
		ID:            "e-1",
		Type:          domain.EventPenaltyRaised,
		OccurredAt:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		ReservationID: "r-1",
		Payload:       map[string]interface{}{"fee_type": "NO_SHOW"},
	})

	msgs := mq.Published("booking.penalty.raised")
	require.Len(t, msgs, 1)

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msgs[0], &decoded))
	assert.Equal(t, "e-1", decoded.ID)
	assert.Equal(t, "NO_SHOW", decoded.Payload["fee_type"])
}

func TestEventPublisher_OpensBreakerAndNeverFailsCaller(t *testing.T) {
	attempts := 0
	mq := mocks.NewMockMessageQueue()
	mq.PublishFunc = func(topic string, data []byte) error {
		attempts++
		return errors.New("broker unreachable")
	}
	p := NewEventPublisher(mq, BreakerSettings{MinRequests: 3, FailureRatio: 0.5, Timeout: time.Minute}, zap.NewNop())

	for i := 0; i < 10; i++ {
		p.Publish(context.Background(), domain.Event{ID: "e", Type: domain.EventReservationCanceled})
	}

	assert.Equal(t, gobreaker.StateOpen, p.State())
	assert.Equal(t, 3, attempts, "open breaker must stop calling the broker")
}

func TestOpen_Drivers(t *testing.T) {
	q, err := Open("none", "", zap.NewNop())
	require.NoError(t, err)
	assert.True(t, q.Healthy())
	assert.NoError(t, q.Publish("booking.test", []byte("{}")))

	_, err = Open("kafka", "", zap.NewNop())
	assert.Error(t, err)
}
