package mocks

import "sync"

// MockMessageQueue is a mock implementation of MessageQueue interface
type MockMessageQueue struct {
	PublishedMessages map[string][][]byte
	Subscribers       map[string][]func([]byte) error
	PublishFunc       func(subject string, data []byte) error
	SubscribeFunc     func(subject string, handler func([]byte) error) error
	CloseFunc         func() error
	HealthCheckFunc   func() error
	mu                sync.Mutex
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{
		PublishedMessages: make(map[string][][]byte),
		Subscribers:       make(map[string][]func([]byte) error),
	}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedMessages[subject] = append(m.PublishedMessages[subject], data)
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func([]byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribers[subject] = append(m.Subscribers[subject], handler)
	return nil
}

func (m *MockMessageQueue) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockMessageQueue) HealthCheck() error {
	if m.HealthCheckFunc != nil {
		return m.HealthCheckFunc()
	}
	return nil
}

// Deliver hands data to every handler subscribed to subject
func (m *MockMessageQueue) Deliver(subject string, data []byte) error {
	m.mu.Lock()
	handlers := append([]func([]byte) error(nil), m.Subscribers[subject]...)
	m.mu.Unlock()
	for _, h := range handlers {
		if err := h(data); err != nil {
			return err
		}
	}
	return nil
}

// GetPublishedMessages returns all messages published to a subject
func (m *MockMessageQueue) GetPublishedMessages(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PublishedMessages[subject]
}

// ClearMessages clears all published messages
func (m *MockMessageQueue) ClearMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedMessages = make(map[string][][]byte)
}
