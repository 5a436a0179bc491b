package bus

import "time"

// EventBus defines an in-process pub/sub event bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handler callbacks in the caller goroutine.
// - Ordered delivery: handlers run in subscription order, so identical subscriptions
//   produce identical side effects.
// - Error aggregation: multiple handler errors are joined and returned from Publish.
// - Metrics: every Publish is counted; observers additionally see each delivery.
//
// Notes:
// - Handlers may subscribe or cancel while being delivered to; changes apply from the next Publish.
// - All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of event.Type().
	// If one or more handlers return an error, a joined error is returned.
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type and returns a
	// Subscription handle that can be used to cancel later.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil; does nothing.
	Unsubscribe(Subscription) error

	// HasSubscribers reports whether at least one handler listens to eventType.
	HasSubscribers(eventType string) bool

	// AddObserver registers an observer called after every delivery.
	AddObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the accumulated metrics.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler is a user callback invoked per delivered event. If it returns an
// error, Publish aggregates and returns it.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
// Use Cancel or EventBus.Unsubscribe to stop receiving events.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified after an event went through its handlers.
// It runs in the publishing goroutine.
type EventBusObserver interface {
	OnDelivered(event Event, handlers int, err error, took time.Duration)
}

// EventBusMetrics are totals over the life of the bus.
type EventBusMetrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"deliveredHandlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribersActive"`
}
