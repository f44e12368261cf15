package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is a domain fact raised by a service and consumed by listeners
// in-process or, through the broker, in the notification worker.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the identity every concrete event embeds.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"occurredAt"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

type Handler func(ctx context.Context, event Event) error

// Publisher is what services depend on; EventBus and the broker relay both satisfy it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	n := len(eb.handlers[eventType])
	eb.mu.Unlock()

	eb.logger.Debug("listener subscribed", "event_type", eventType, "listeners", n)
}

// HasSubscribers reports whether any handler listens for eventType.
func (eb *EventBus) HasSubscribers(eventType string) bool {
	return len(eb.listeners(eventType)) > 0
}

func (eb *EventBus) listeners(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.handlers[eventType]
}

// Publish hands the event to every listener on its own goroutine and returns
// at once. Listeners keep the context values but not its cancellation, since
// they outlive the request that raised the event.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := eb.listeners(event.EventType())
	if len(handlers) == 0 {
		eb.logger.Debug("event dropped, no listeners", "event_type", event.EventType())
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		go eb.run(ctx, h, event)
	}
	return nil
}

// PublishSync runs every listener in subscription order and joins their errors.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range eb.listeners(event.EventType()) {
		if err := eb.run(ctx, h, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s %s: %w", event.EventType(), event.EventID(), errors.Join(errs...))
	}
	return nil
}

func (eb *EventBus) run(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
		if err != nil {
			eb.logger.Error("listener failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
		}
	}()
	return h(ctx, event)
}
