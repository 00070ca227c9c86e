package queue

import (
	"fmt"

	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Healthy() bool
	Close() error
}

// Open connects to the configured driver: "nats", "rabbitmq" or "none".
// With "none" events are only logged.
func Open(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch driver {
	case "nats":
		q, err := NewNATSQueue(url, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(url, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "", "none":
		return NewLogQueue(log), nil
	}
	return nil, fmt.Errorf("unknown events driver %q", driver)
}

// LogQueue writes messages to the log instead of a broker.
type LogQueue struct {
	log *zap.Logger
}

func NewLogQueue(log *zap.Logger) *LogQueue {
	return &LogQueue{log: log}
}

func (q *LogQueue) Publish(subject string, data []byte) error {
	q.log.Debug("Event", zap.String("subject", subject), zap.ByteString("data", data))
	return nil
}

func (q *LogQueue) Subscribe(subject string, handler func(data []byte) error) error {
	return nil
}

func (q *LogQueue) Healthy() bool { return true }

func (q *LogQueue) Close() error { return nil }
