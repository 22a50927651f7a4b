package nats

import (
	"context"
	"sync"
)

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mu              sync.RWMutex
	publishedEvents []*ResultEvent
	publishError    error
	closed          bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		publishedEvents: make([]*ResultEvent, 0),
	}
}

// PublishResult records the event and returns any configured error.
func (m *MockPublisher) PublishResult(ctx context.Context, event *ResultEvent) error {
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
func (m *MockPublisher) GetPublishedEvents() []*ResultEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to avoid race conditions
	events := make([]*ResultEvent, len(m.publishedEvents))
	copy(events, m.publishedEvents)
	return events
}

// GetPublishedEventsForWallet returns events published for a specific wallet.
func (m *MockPublisher) GetPublishedEventsForWallet(address string) []*ResultEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*ResultEvent, 0)
	for _, event := range m.publishedEvents {
		if event.WalletAddress == address {
			events = append(events, event)
		}
	}
	return events
}

// SetPublishError configures the mock to return an error on PublishResult.
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
