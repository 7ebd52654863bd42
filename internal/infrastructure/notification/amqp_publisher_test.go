package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/event"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait, args).Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

var publishedAt = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newExpenseCreated(t *testing.T) *finance.ExpenseCreatedEvent {
	t.Helper()
	e, err := finance.NewExpense(uuid.New(), "Train to Utrecht",
		valueobject.MustNewMoney(decimal.RequireFromString("23.40"), "EUR"), finance.CategoryTravel,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return finance.NewExpenseCreatedEvent(e)
}

func newPublisher(t *testing.T, ch *MockChannel) *AMQPPublisher {
	t.Helper()
	ch.On("ExchangeDeclare", "expenseai.events", "topic", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	p, err := NewAMQPPublisher(ch, "expenseai.events", nil, WithClock(func() time.Time { return publishedAt }))
	require.NoError(t, err)
	return p
}

func TestNewAMQPPublisher(t *testing.T) {
	_, err := NewAMQPPublisher(nil, "x", nil)
	assert.Error(t, err)

	_, err = NewAMQPPublisher(new(MockChannel), " ", nil)
	assert.ErrorContains(t, err, "exchange is required")

	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "expenseai.events", "topic", true, false, false, false, amqp.Table(nil)).
		Return(errors.New("access refused"))
	_, err = NewAMQPPublisher(ch, "expenseai.events", nil)
	assert.ErrorContains(t, err, "declare exchange expenseai.events")
}

func TestAMQPPublisher_Handle(t *testing.T) {
	ch := new(MockChannel)
	p := newPublisher(t, ch)
	evt := newExpenseCreated(t)

	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "expenseai.events", "Expense.ExpenseCreated", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil).Once()

	require.NoError(t, p.Handle(context.Background(), evt))
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, evt.EventID().String(), sent.MessageId)
	assert.Equal(t, finance.EventTypeExpenseCreated, sent.Type)
	assert.Equal(t, publishedAt, sent.Timestamp)

	decoded, err := event.NewEventSerializer().Deserialize(sent.Body)
	require.NoError(t, err)
	created, ok := decoded.(*finance.ExpenseCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "Train to Utrecht", created.Description)
	assert.True(t, decimal.RequireFromString("23.40").Equal(created.Amount))
}

func TestAMQPPublisher_HandleErrors(t *testing.T) {
	ch := new(MockChannel)
	p := newPublisher(t, ch)

	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).
		Return(amqp.ErrClosed).Once()
	err := p.Handle(context.Background(), newExpenseCreated(t))
	assert.ErrorIs(t, err, amqp.ErrClosed)

	ch.On("Close").Return(nil).Once()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorContains(t, p.Handle(context.Background(), newExpenseCreated(t)), "closed")
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_SubscribesToNotifiedEvents(t *testing.T) {
	ch := new(MockChannel)
	p := newPublisher(t, ch)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).Return(nil)

	bus := event.NewInMemoryEventBus(nil)
	bus.Subscribe(p)

	e, err := finance.NewExpense(uuid.New(), "Lunch",
		valueobject.MustNewMoney(decimal.NewFromInt(12), "EUR"), finance.CategoryMeals, publishedAt)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), e.GetDomainEvents()...))
	require.NoError(t, e.Submit())
	require.NoError(t, bus.Publish(context.Background(), finance.NewExpenseSubmittedEvent(e)))

	ch.AssertNumberOfCalls(t, "PublishWithContext", 1)
	assert.Contains(t, p.EventTypes(), finance.EventTypeInvoiceGenerated)
	assert.NotContains(t, p.EventTypes(), finance.EventTypeExpenseSubmitted)
}
