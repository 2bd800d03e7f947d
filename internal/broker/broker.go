// Package broker publishes fare settlement events to downstream consumers.
package broker

import (
	"context"
	"log/slog"
)

// Routing keys for published events.
const (
	EventFareCharged            = "fare.charged"
	EventFareDeclined           = "fare.declined"
	EventTapOpened              = "tap.opened"
	EventTopUpCredited          = "topup.credited"
	EventDriverLoggedIn         = "driver.logged_in"
	EventDriverLoggedOut        = "driver.logged_out"
	EventReconciliationRequired = "ledger.reconciliation_required"
)

// Publisher sends an event payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NoopPublisher drops every event. Used when the broker is disabled.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs at debug level.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	p.logger.DebugContext(ctx, "event dropped, broker disabled", "routing_key", routingKey)
	return nil
}

// Close implements Publisher.
func (p *NoopPublisher) Close() error { return nil }

var (
	_ Publisher = (*NoopPublisher)(nil)
	_ Publisher = (*RabbitMQ)(nil)
)
