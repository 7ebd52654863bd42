// Package notification forwards domain events to an AMQP exchange, where an
// external mailer turns them into user notifications.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/event"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeKind   = "topic"
	publishTimeout = 5 * time.Second
)

// NotifiedEventTypes are the events delivered to the broker
var NotifiedEventTypes = []string{
	finance.EventTypeExpenseCreated,
	finance.EventTypeExpenseApproved,
	finance.EventTypeExpenseRejected,
	finance.EventTypeExpenseReimbursed,
	finance.EventTypeInvoiceGenerated,
	finance.EventTypeInvoicePaid,
	finance.EventTypeBudgetThresholdReached,
	identity.EventTypeUserCreated,
}

// Channel is the subset of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher is an event handler that publishes events as JSON envelopes.
// The routing key is "<aggregate_type>.<event_type>", e.g. "Invoice.InvoiceGenerated".
type AMQPPublisher struct {
	mu         sync.Mutex
	channel    Channel
	conn       *amqp.Connection
	exchange   string
	serializer *event.EventSerializer
	logger     *zap.Logger
	now        func() time.Time
	closed     bool
}

// PublisherOption configures an AMQPPublisher
type PublisherOption func(*AMQPPublisher)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *AMQPPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the clock used for message timestamps
func WithClock(now func() time.Time) PublisherOption {
	return func(p *AMQPPublisher) { p.now = now }
}

// NewAMQPPublisher declares the exchange on ch and returns a publisher using it
func NewAMQPPublisher(ch Channel, exchange string, serializer *event.EventSerializer, opts ...PublisherOption) (*AMQPPublisher, error) {
	if ch == nil {
		return nil, errors.New("amqp channel is required")
	}
	if strings.TrimSpace(exchange) == "" {
		return nil, errors.New("amqp exchange is required")
	}
	if serializer == nil {
		serializer = event.NewEventSerializer()
	}
	p := &AMQPPublisher{
		channel:    ch,
		exchange:   exchange,
		serializer: serializer,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return p, nil
}

// Dial connects to the broker described by cfg
func Dial(cfg config.AMQPConfig, serializer *event.EventSerializer, opts ...PublisherOption) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := NewAMQPPublisher(ch, cfg.Exchange, serializer, opts...)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	p.logger.Info("Connected to AMQP broker", zap.String("exchange", cfg.Exchange))
	return p, nil
}

// EventTypes implements shared.EventHandler
func (p *AMQPPublisher) EventTypes() []string {
	return NotifiedEventTypes
}

// Handle publishes evt as a persistent message
func (p *AMQPPublisher) Handle(ctx context.Context, evt shared.DomainEvent) error {
	body, err := p.serializer.Serialize(evt)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", evt.EventType(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("amqp publisher is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(evt)
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID().String(),
		Type:         evt.EventType(),
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.EventType(), err)
	}

	p.logger.Debug("Published notification event",
		zap.String("routing_key", key),
		zap.String("event_id", evt.EventID().String()),
	)
	return nil
}

// Close closes the channel and, when dialed, the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.channel.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

// RoutingKey returns the topic routing key for evt
func RoutingKey(evt shared.DomainEvent) string {
	return evt.AggregateType() + "." + evt.EventType()
}

var _ shared.EventHandler = (*AMQPPublisher)(nil)
