package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	types          []string
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnDelivered(e Event, handlers int, err error, _ time.Duration) {
	o.types = append(o.types, e.Type())
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got any
	_, err := b.Subscribe("test.event", func(e Event) error {
		got = e.Data()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, b.Publish(NewEvent("test.event", "tester", 123)))
	assert.Equal(t, 123, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, err := b.Subscribe("ev", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return errB })

	err := b.Publish(NewEvent("x", "src", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("ev", func(Event) error { count++; return nil })
	require.NoError(t, err)

	_ = b.Publish(NewEvent("ev", "src", nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	_ = b.Publish(NewEvent("ev", "src", nil))

	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
	assert.False(t, b.HasSubscribers("ev"))
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestSubscribeDuringDelivery(t *testing.T) {
	b := New()
	late := 0
	_, _ = b.Subscribe("ev", func(Event) error {
		_, err := b.Subscribe("ev", func(Event) error { late++; return nil })
		return err
	})
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	assert.Equal(t, 0, late)
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	assert.Equal(t, 1, late)
}

func TestSubscribeValidation(t *testing.T) {
	b := New()
	_, err := b.Subscribe("ev", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
	_, err = b.Subscribe("", func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyEventType)
}

func TestMetricsCountedWithoutObservers(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_, _ = b.Subscribe("e", func(Event) error { return boom })

	_ = b.Publish(NewEvent("e", "s", nil))
	_ = b.Publish(NewEvent("nobody", "s", nil))

	m := b.GetMetrics()
	assert.Equal(t, uint64(2), m.Published)
	assert.Equal(t, uint64(2), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(2), m.SubscribersActive)
}

func TestObserverSeesDeliveries(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	sub, _ := b.Subscribe("e", func(Event) error { return boom })
	_, _ = b.Subscribe("e", func(Event) error { return nil })

	obs := &testObserver{}
	b.AddObserver(obs)
	b.AddObserver(nil)

	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Equal(t, []string{"e"}, obs.types)
	assert.Equal(t, 2, obs.deliveredCount)
	assert.ErrorIs(t, obs.lastErr, boom)

	require.NoError(t, sub.Cancel())
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Equal(t, 3, obs.deliveredCount, "cancelled handlers are not counted")
	assert.NoError(t, obs.lastErr)
}
