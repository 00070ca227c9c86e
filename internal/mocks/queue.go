package mocks

import "sync"

// MockMessageQueue records published messages per subject. Subscribe is a
// no-op; the booking service only publishes.
type MockMessageQueue struct {
	PublishFunc func(subject string, data []byte) error
	HealthyFunc func() bool

	mu        sync.Mutex
	published map[string][][]byte
	closed    bool
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{published: make(map[string][][]byte)}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[subject] = append(m.published[subject], data)
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func([]byte) error) error {
	return nil
}

func (m *MockMessageQueue) Healthy() bool {
	if m.HealthyFunc != nil {
		return m.HealthyFunc()
	}
	return !m.Closed()
}

func (m *MockMessageQueue) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Closed reports whether Close was called
func (m *MockMessageQueue) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Published returns the messages sent on subject, oldest first
func (m *MockMessageQueue) Published(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.published[subject]...)
}
