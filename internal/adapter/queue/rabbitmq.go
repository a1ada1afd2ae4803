package queue

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQQueue maps each subject onto a fanout exchange so every subscriber
// (one exclusive queue per Subscribe call) sees every status update.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	closed  bool
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewRabbitMQQueue creates a new RabbitMQ message queue adapter
func NewRabbitMQQueue(url string, log *zap.Logger) (MessageQueue, error) {
	conn, ch, err := dialRabbit(url)
	if err != nil {
		return nil, err
	}

	q := &RabbitMQQueue{
		conn:    conn,
		channel: ch,
		url:     url,
		log:     log,
	}

	go q.monitorConnection()

	log.Info("Successfully connected to RabbitMQ")
	return q, nil
}

func dialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	return conn, ch, nil
}

func (q *RabbitMQQueue) declare(subject string) error {
	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.channel.ExchangeDeclare(subject, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare exchange %s: %w", subject, err)
	}
	return nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if err := q.declare(subject); err != nil {
		return err
	}

	err := q.channel.Publish(
		subject, "", false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if err := q.declare(subject); err != nil {
		return err
	}

	queue, err := q.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := q.channel.QueueBind(queue.Name, "", subject, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue: %w", err)
	}

	msgs, err := q.channel.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg.Body); err != nil {
				q.log.Error("Error processing RabbitMQ message",
					zap.String("exchange", subject),
					zap.Error(err),
				)
			}
		}
	}()

	q.log.Info("Subscribed to RabbitMQ exchange", zap.String("exchange", subject))
	return nil
}

func (q *RabbitMQQueue) HealthCheck() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// monitorConnection redials after an unexpected close. Subscriptions made on
// the old channel are not restored.
func (q *RabbitMQQueue) monitorConnection() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok {
			return
		}
		q.log.Warn("RabbitMQ connection lost, reconnecting", zap.String("reason", reason.Reason))

		for {
			time.Sleep(5 * time.Second)

			q.mu.RLock()
			closed := q.closed
			q.mu.RUnlock()
			if closed {
				return
			}

			newConn, ch, err := dialRabbit(q.url)
			if err != nil {
				q.log.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
				continue
			}

			q.mu.Lock()
			q.conn = newConn
			q.channel = ch
			q.mu.Unlock()

			q.log.Info("Successfully reconnected to RabbitMQ")
			break
		}
	}
}
