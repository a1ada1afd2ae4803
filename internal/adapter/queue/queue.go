package queue

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Subjects used between the catalog feed, the simulator and the trip service
const (
	SubjectStationStatus   = "stations.status"
	SubjectCatalogReloaded = "stations.catalog.reloaded"
	SubjectTripPlanned     = "trips.planned"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// HealthChecker is implemented by queues that can report broker connectivity
type HealthChecker interface {
	HealthCheck() error
}

// Config selects and configures the broker
type Config struct {
	Provider      string // nats, rabbitmq or memory
	URL           string
	Name          string
	MaxReconnects int
}

// New connects to the broker named by cfg.Provider
func New(cfg Config, log *zap.Logger) (MessageQueue, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "nats":
		return NewNATSQueue(cfg, log)
	case "rabbitmq", "amqp":
		return NewRabbitMQQueue(cfg.URL, log)
	case "memory":
		return NewMemoryQueue(log), nil
	default:
		return nil, fmt.Errorf("unknown queue provider: %s", cfg.Provider)
	}
}
