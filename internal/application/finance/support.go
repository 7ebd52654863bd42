package finance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"go.uber.org/zap"
)

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

type owned interface {
	IsOwnedBy(userID uuid.UUID) bool
}

// checkOwnership turns a repository lookup into NOT_FOUND or FORBIDDEN
func checkOwnership[T owned](entity T, err error, userID uuid.UUID, kind string) (T, error) {
	var zero T
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return zero, shared.NewDomainErrorf(shared.CodeNotFound, "%s not found", kind)
		}
		return zero, err
	}
	if !entity.IsOwnedBy(userID) {
		return zero, shared.NewDomainErrorf(shared.CodeForbidden, "%s belongs to another user", kind)
	}
	return entity, nil
}

// publishEvents drains the aggregates' events and hands them to the publisher.
// It runs after commit, so failures are logged rather than returned.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, sources ...eventSource) {
	events := make([]shared.DomainEvent, 0)
	for _, src := range sources {
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("first_event", events[0].EventType()),
			zap.Error(err))
	}
}

func normalizePage(filter *shared.Filter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
}
