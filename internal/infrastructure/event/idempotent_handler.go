package event

import (
	"context"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDeduplicationTTL is how long a processed event ID is remembered
const DefaultDeduplicationTTL = 24 * time.Hour

const dedupKeyPrefix = "event:"

// IdempotentHandler wraps an EventHandler so each event ID is handled once.
// Event IDs are claimed in a ReservationStore; a failed handler releases its
// claim so a redelivery can try again.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.ReservationStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler creates a de-duplicating handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.ReservationStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDeduplicationTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its ID was already claimed
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := dedupKeyPrefix + evt.EventID().String()

	claimed, err := h.store.Reserve(ctx, key, h.ttl)
	if err != nil {
		// store outage: prefer a possible duplicate over a dropped event
		h.logger.Warn("Deduplication check failed, processing anyway",
			zap.String("event_id", evt.EventID().String()),
			zap.Error(err),
		)
		return h.handler.Handle(ctx, evt)
	}
	if !claimed {
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("Failed to release deduplication key", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
