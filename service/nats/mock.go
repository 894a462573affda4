package nats

import (
	"context"
	"sync"
)

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mu              sync.RWMutex
	publishedEvents []*ReportEvent
	publishError    error
	closed          bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		publishedEvents: make([]*ReportEvent, 0),
	}
}

// PublishReport records the event and returns any configured error.
func (m *MockPublisher) PublishReport(ctx context.Context, event *ReportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}

	m.publishedEvents = append(m.publishedEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetPublishedEvents returns all published events (for testing).
func (m *MockPublisher) GetPublishedEvents() []*ReportEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to avoid race conditions
	events := make([]*ReportEvent, len(m.publishedEvents))
	copy(events, m.publishedEvents)
	return events
}

// SetPublishError configures the mock to return an error on PublishReport.
func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// IsClosed returns whether the publisher has been closed.
func (m *MockPublisher) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// MockSubscriber is a mock implementation of Subscriber for testing. It
// replays its events and returns without waiting for ctx.
type MockSubscriber struct {
	mu       sync.Mutex
	events   []*ReportEvent
	subjects []string
	closed   bool
}

// NewMockSubscriber creates a subscriber that delivers events in order.
func NewMockSubscriber(events ...*ReportEvent) *MockSubscriber {
	return &MockSubscriber{events: events}
}

// Consume delivers every event whose subject matches.
func (m *MockSubscriber) Consume(ctx context.Context, subject string, lastOnly bool, handle func(*ReportEvent)) error {
	m.mu.Lock()
	m.subjects = append(m.subjects, subject)
	events := append([]*ReportEvent(nil), m.events...)
	m.mu.Unlock()

	for _, event := range events {
		if subject == StreamSubjects || event.Subject() == subject {
			handle(event)
		}
	}
	return nil
}

// Close marks the subscriber as closed.
func (m *MockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Subjects returns the subjects Consume was called with.
func (m *MockSubscriber) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

// IsClosed returns whether the subscriber has been closed.
func (m *MockSubscriber) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
