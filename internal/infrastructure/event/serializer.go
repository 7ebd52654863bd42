package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

// Envelope is the wire form of a domain event. Header fields are lifted out
// of the payload so consumers can route without decoding it.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	UserID        uuid.UUID       `json:"user_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer handles JSON serialization/deserialization of domain events
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with every ExpenseAI event registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
	s.Register(finance.EventTypeExpenseCreated, &finance.ExpenseCreatedEvent{})
	s.Register(finance.EventTypeExpenseUpdated, &finance.ExpenseUpdatedEvent{})
	s.Register(finance.EventTypeExpenseSubmitted, &finance.ExpenseSubmittedEvent{})
	s.Register(finance.EventTypeExpenseApproved, &finance.ExpenseApprovedEvent{})
	s.Register(finance.EventTypeExpenseRejected, &finance.ExpenseRejectedEvent{})
	s.Register(finance.EventTypeExpenseReimbursed, &finance.ExpenseReimbursedEvent{})
	s.Register(finance.EventTypeExpenseDeleted, &finance.ExpenseDeletedEvent{})
	s.Register(finance.EventTypeInvoiceGenerated, &finance.InvoiceGeneratedEvent{})
	s.Register(finance.EventTypeInvoicePaid, &finance.InvoicePaidEvent{})
	s.Register(finance.EventTypeInvoiceCancelled, &finance.InvoiceCancelledEvent{})
	s.Register(finance.EventTypeBudgetCreated, &finance.BudgetCreatedEvent{})
	s.Register(finance.EventTypeBudgetThresholdReached, &finance.BudgetThresholdReachedEvent{})
	s.Register(identity.EventTypeUserCreated, &identity.UserCreatedEvent{})
	s.Register(identity.EventTypeUserDeactivated, &identity.UserDeactivatedEvent{})
	return s
}

// Register registers an event type for deserialization.
// The eventType should match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize wraps an event in an Envelope and encodes it
func (s *EventSerializer) Serialize(evt shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return json.Marshal(Envelope{
		ID:            evt.EventID(),
		Type:          evt.EventType(),
		AggregateType: evt.AggregateType(),
		AggregateID:   evt.AggregateID(),
		UserID:        evt.UserID(),
		OccurredAt:    evt.OccurredAt(),
		Payload:       payload,
	})
}

// Deserialize decodes an Envelope back into its registered event type
func (s *EventSerializer) Deserialize(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	s.mu.RLock()
	t, ok := s.registry[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	evt, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}
	return evt, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
