package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridepay/internal/config"
)

const reconnectInterval = 10 * time.Second

// ErrConnectionClosed is returned when publishing while the broker connection is down.
var ErrConnectionClosed = errors.New("rabbitmq connection is closed")

// RabbitMQ publishes JSON events to a topic exchange.
type RabbitMQ struct {
	ctx    context.Context
	cfg    config.RabbitMQConfig
	logger *slog.Logger

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
}

// NewRabbitMQ dials the broker and declares the exchange.
// ctx bounds background reconnect attempts.
func NewRabbitMQ(ctx context.Context, cfg config.RabbitMQConfig, logger *slog.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger.With("component", "rabbitmq"),
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return r, nil
}

// Publish implements Publisher.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", routingKey, err)
	}

	r.mu.Lock()
	conn, ch := r.conn, r.ch
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		r.logger.ErrorContext(ctx, "publish on closed connection", "routing_key", routingKey)
		go r.reconnect()
		return ErrConnectionClosed
	}

	return ch.PublishWithContext(ctx, r.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close implements Publisher.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.cfg.URL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(r.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", r.cfg.Exchange, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) reconnect() {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := r.connect(); err != nil {
				r.logger.Warn("rabbitmq failed to reconnect", "error", err)
				continue
			}
			r.logger.Info("rabbitmq reconnected")
			return
		case <-r.ctx.Done():
			return
		}
	}
}
