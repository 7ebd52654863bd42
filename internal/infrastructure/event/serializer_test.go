package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expenseCreated() *finance.ExpenseCreatedEvent {
	id := uuid.New()
	return &finance.ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(finance.EventTypeExpenseCreated, "Expense", id, uuid.New()),
		ExpenseID:       id,
		Description:     "Train to Utrecht",
		Amount:          decimal.RequireFromString("23.40"),
		Currency:        "EUR",
		Category:        finance.CategoryTravel,
		ExpenseDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestEventSerializer_RegistersDomainEvents(t *testing.T) {
	s := NewEventSerializer()
	for _, eventType := range []string{
		finance.EventTypeExpenseCreated,
		finance.EventTypeExpenseReimbursed,
		finance.EventTypeInvoiceGenerated,
		finance.EventTypeBudgetThresholdReached,
		"UserDeactivated",
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}
	assert.False(t, s.IsRegistered("ProductCreated"))
	assert.Len(t, s.RegisteredTypes(), 14)
}

func TestEventSerializer_Envelope(t *testing.T) {
	s := NewEventSerializer()
	evt := expenseCreated()

	data, err := s.Serialize(evt)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, evt.EventID(), env.ID)
	assert.Equal(t, finance.EventTypeExpenseCreated, env.Type)
	assert.Equal(t, "Expense", env.AggregateType)
	assert.Equal(t, evt.ExpenseID, env.AggregateID)
	assert.Equal(t, evt.UserID(), env.UserID)
	assert.Contains(t, string(env.Payload), `"description":"Train to Utrecht"`)
}

func TestEventSerializer_Deserialize(t *testing.T) {
	s := NewEventSerializer()
	evt := expenseCreated()
	data, err := s.Serialize(evt)
	require.NoError(t, err)

	decoded, err := s.Deserialize(data)
	require.NoError(t, err)

	got, ok := decoded.(*finance.ExpenseCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, evt.EventID(), got.EventID())
	assert.True(t, evt.Amount.Equal(got.Amount))
	assert.Equal(t, finance.CategoryTravel, got.Category)
	assert.True(t, evt.ExpenseDate.Equal(got.ExpenseDate))
}

func TestEventSerializer_DeserializeErrors(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize([]byte(`{"type":"ShipmentSent","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize([]byte(`not json`))
	assert.ErrorContains(t, err, "failed to unmarshal envelope")

	s.Register("Custom", &testEvent{})
	decoded, err := s.Deserialize([]byte(`{"type":"Custom","payload":{"type":"Custom","data":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.(*testEvent).Data)
}
