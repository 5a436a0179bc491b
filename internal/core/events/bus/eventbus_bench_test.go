package bus

import (
	"sync/atomic"
	"testing"
	"time"
)

func benchEvt(t string) Event {
	return NewEvent(t, "bench", nil)
}

// counting handler so the compiler keeps the delivery loop
func makeHandler(c *int64) EventHandler {
	return func(e Event) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnDelivered(Event, int, error, time.Duration) {}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("post_step", makeHandler(&c))
	evt := benchEvt("post_step")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(evt)
	}
}

func BenchmarkPublishManySubscribersObserved(b *testing.B) {
	bus := New()
	bus.AddObserver(nopObserver{})
	var c int64
	for i := 0; i < 16; i++ {
		_, _ = bus.Subscribe("post_step", makeHandler(&c))
	}
	evt := benchEvt("post_step")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(evt)
	}
}
