package physics

import (
	"github.com/zeusync/physics2d/internal/core/events/bus"
)

// World event names.
const (
	EventAddBody          = "addBody"
	EventRemoveBody       = "removeBody"
	EventAddConstraint    = "addConstraint"
	EventRemoveConstraint = "removeConstraint"
	EventAddSpring        = "addSpring"
	EventRemoveSpring     = "removeSpring"
	EventBeginContact     = "beginContact"
	EventEndContact       = "endContact"
	EventPostStep         = "postStep"
)

var eventTypes = [...]string{
	EventAddBody,
	EventRemoveBody,
	EventAddConstraint,
	EventRemoveConstraint,
	EventAddSpring,
	EventRemoveSpring,
	EventBeginContact,
	EventEndContact,
	EventPostStep,
}

const eventTypeCount = len(eventTypes)

// EventTypes lists every event a world publishes.
func EventTypes() []string {
	return append([]string(nil), eventTypes[:]...)
}

func eventIndex(eventType string) int {
	for i, t := range eventTypes {
		if t == eventType {
			return i
		}
	}
	return -1
}

// BodyEvent is the payload of addBody and removeBody.
type BodyEvent struct {
	Body *Body
}

// ConstraintEvent is the payload of addConstraint and removeConstraint.
type ConstraintEvent struct {
	Constraint Constraint
}

// SpringEvent is the payload of addSpring and removeSpring.
type SpringEvent struct {
	Spring *Spring
}

// ContactEvent is the payload of beginContact and endContact. It names the
// shape pair, not individual contact points.
type ContactEvent struct {
	ShapeA, ShapeB *Shape
	BodyA, BodyB   *Body
}

// PostStepEvent is the payload of postStep.
type PostStepEvent struct {
	World *World
	Step  uint64
	Dt    float64
	Time  float64
}

// On subscribes a raw handler to any world event.
func (w *World) On(eventType string, handler bus.EventHandler) (bus.Subscription, error) {
	return w.events.Subscribe(eventType, handler)
}

func (w *World) OnAddBody(fn func(*Body) error) (bus.Subscription, error) {
	return w.On(EventAddBody, func(e bus.Event) error {
		return fn(e.Data().(BodyEvent).Body)
	})
}

func (w *World) OnRemoveBody(fn func(*Body) error) (bus.Subscription, error) {
	return w.On(EventRemoveBody, func(e bus.Event) error {
		return fn(e.Data().(BodyEvent).Body)
	})
}

func (w *World) OnAddSpring(fn func(*Spring) error) (bus.Subscription, error) {
	return w.On(EventAddSpring, func(e bus.Event) error {
		return fn(e.Data().(SpringEvent).Spring)
	})
}

// OnPostStep runs fn once per step after integration. Forces added here act
// during the next step.
func (w *World) OnPostStep(fn func(PostStepEvent) error) (bus.Subscription, error) {
	return w.On(EventPostStep, func(e bus.Event) error {
		return fn(e.Data().(PostStepEvent))
	})
}

func (w *World) OnBeginContact(fn func(ContactEvent) error) (bus.Subscription, error) {
	return w.On(EventBeginContact, func(e bus.Event) error {
		return fn(e.Data().(ContactEvent))
	})
}

func (w *World) OnEndContact(fn func(ContactEvent) error) (bus.Subscription, error) {
	return w.On(EventEndContact, func(e bus.Event) error {
		return fn(e.Data().(ContactEvent))
	})
}

func (w *World) emit(eventType string, data any) error {
	if !w.events.HasSubscribers(eventType) {
		return nil
	}
	return w.events.Publish(bus.NewEvent(eventType, w.source, data))
}

type shapePair struct {
	a, b uint64
}

type activePair struct {
	key            shapePair
	shapeA, shapeB *Shape
}

// trackContacts diffs the touching shape pairs of this step against the
// previous one. Both lists keep contact order so events fire in a stable order.
func (w *World) trackContacts() (begin, end []ContactEvent) {
	seen := make(map[shapePair]struct{}, len(w.contacts))
	current := w.pairBuf[:0]
	for _, c := range w.contacts {
		k := shapePair{c.ShapeA.id, c.ShapeB.id}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		current = append(current, activePair{key: k, shapeA: c.ShapeA, shapeB: c.ShapeB})
	}

	prev := make(map[shapePair]struct{}, len(w.activePairs))
	for _, p := range w.activePairs {
		prev[p.key] = struct{}{}
	}
	for _, p := range current {
		if _, ok := prev[p.key]; !ok {
			begin = append(begin, p.event())
		}
	}
	for _, p := range w.activePairs {
		if _, ok := seen[p.key]; !ok {
			end = append(end, p.event())
		}
	}

	w.pairBuf = w.activePairs
	w.activePairs = current
	return begin, end
}

func (p activePair) event() ContactEvent {
	return ContactEvent{ShapeA: p.shapeA, ShapeB: p.shapeB, BodyA: p.shapeA.body, BodyB: p.shapeB.body}
}
