package queue

import (
	"sync"

	"go.uber.org/zap"
)

// MemoryQueue delivers messages synchronously to in-process subscribers.
// Used when no broker is configured.
type MemoryQueue struct {
	handlers map[string][]func([]byte) error
	mu       sync.RWMutex
	log      *zap.Logger
}

func NewMemoryQueue(log *zap.Logger) MessageQueue {
	log.Info("In-memory message queue initialized")
	return &MemoryQueue{
		handlers: make(map[string][]func([]byte) error),
		log:      log,
	}
}

func (q *MemoryQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	handlers := append([]func([]byte) error(nil), q.handlers[subject]...)
	q.mu.RUnlock()

	for _, h := range handlers {
		if err := h(data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	}
	return nil
}

func (q *MemoryQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[subject] = append(q.handlers[subject], handler)
	return nil
}

func (q *MemoryQueue) HealthCheck() error {
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = make(map[string][]func([]byte) error)
	return nil
}
