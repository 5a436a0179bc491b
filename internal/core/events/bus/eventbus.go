package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// simpleEvent is a basic implementation of Event.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	mu        sync.Mutex
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive && s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus keeps subscriptions per event type in registration order.
type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]*subscription
	metrics   EventBusMetrics
	observers []EventBusObserver
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string][]*subscription),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver(event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if eventType == "" {
		return nil, ErrEmptyEventType
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler, active: true}
	s.cancel = func() { b.remove(s) }
	b.handlers[eventType] = append(b.handlers[eventType], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) HasSubscribers(eventType string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType]) > 0
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	if obs == nil {
		return
	}
	b.mu.Lock()
	// copy so an in-flight delivery keeps its own slice intact
	b.observers = append(append([]EventBusObserver(nil), b.observers...), obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[s.eventType]
	for i, cur := range subs {
		if cur == s {
			// copy so an in-flight delivery keeps its own slice intact
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, s.eventType)
			} else {
				b.handlers[s.eventType] = next
			}
			return
		}
	}
}

func (b *inMemoryBus) deliver(event Event) error {
	start := time.Now()

	b.mu.RLock()
	subs := b.handlers[event.Type()]
	observers := b.observers
	b.mu.RUnlock()

	var (
		all       error
		delivered int
	)
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	took := time.Since(start)
	for _, obs := range observers {
		obs.OnDelivered(event, delivered, all, took)
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	var active uint64
	for _, m := range b.handlers {
		active += uint64(len(m))
	}
	b.metrics.SubscribersActive = active
	b.mu.Unlock()
	return all
}
