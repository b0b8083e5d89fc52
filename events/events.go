package events

import (
	"context"
	"sync"

	"fanpool/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypePredictionCreated EventType = "prediction_created"
	EventTypeStakePlaced       EventType = "stake_placed"
	EventTypeStakeCancelled    EventType = "stake_cancelled"
	EventTypePredictionClosed  EventType = "prediction_closed"
	EventTypePredictionSettled EventType = "prediction_settled"
	EventTypePredictionVoided  EventType = "prediction_voided"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	UserID         int64
	Currency       string
	Direction      models.TransactionDirection
	Channel        models.TransactionChannel
	Amount         int64
	AvailableAfter int64
	ReservedAfter  int64
	Reference      string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// PredictionCreatedEvent represents a new prediction market
type PredictionCreatedEvent struct {
	PredictionID int64
	CreatorID    int64
	Title        string
	OptionCount  int
}

func (e PredictionCreatedEvent) Type() EventType {
	return EventTypePredictionCreated
}

// StakePlacedEvent represents a stake accepted onto a prediction option
type StakePlacedEvent struct {
	PredictionID int64
	EntryID      int64
	UserID       int64
	OptionID     int64
	Amount       int64
}

func (e StakePlacedEvent) Type() EventType {
	return EventTypeStakePlaced
}

// StakeCancelledEvent represents a stake withdrawn before close
type StakeCancelledEvent struct {
	PredictionID int64
	EntryID      int64
	UserID       int64
	Refunded     int64
	Fee          int64
}

func (e StakeCancelledEvent) Type() EventType {
	return EventTypeStakeCancelled
}

// PredictionClosedEvent represents a prediction no longer accepting stakes
type PredictionClosedEvent struct {
	PredictionID int64
	PoolTotal    int64
}

func (e PredictionClosedEvent) Type() EventType {
	return EventTypePredictionClosed
}

// PredictionSettledEvent represents a completed settlement
type PredictionSettledEvent struct {
	PredictionID    int64
	WinningOptionID int64
	TotalPool       int64
	WinnerCount     int
	PlatformFee     int64
	CreatorFee      int64
}

func (e PredictionSettledEvent) Type() EventType {
	return EventTypePredictionSettled
}

// PredictionVoidedEvent represents a voided prediction with refunds issued
type PredictionVoidedEvent struct {
	PredictionID int64
	Reason       string
	Refunded     int64
}

func (e PredictionVoidedEvent) Type() EventType {
	return EventTypePredictionVoided
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Use background context for event emission to avoid issues with transaction context expiration
	// Events should be processed independently of the transaction lifecycle
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
