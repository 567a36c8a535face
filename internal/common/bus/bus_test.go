package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRAITOU555/reservationvtc6/internal/common/bus"
)

func TestPublishReachesAllCurrentSubscribers(t *testing.T) {
	b := bus.New(nil)
	defer b.Close()

	subs := make([]*bus.Subscription, 3)
	for i := range subs {
		subs[i] = b.Subscribe()
	}

	b.Publish("hello")

	for i, s := range subs {
		select {
		case got := <-s.C:
			assert.Equal(t, "hello", got, "subscriber %d", i)
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	b := bus.New(nil)
	defer b.Close()

	early := b.Subscribe()
	b.Publish("first")

	late := b.Subscribe()
	b.Publish("second")

	require.Len(t, drain(early), 2)
	got := drain(late)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0])
}

func TestCancelStopsDelivery(t *testing.T) {
	b := bus.New(nil)
	defer b.Close()

	s := b.Subscribe()
	s.Cancel()
	require.Equal(t, 0, b.SubscriberCount())

	b.Publish("after-cancel")

	_, open := <-s.C
	assert.False(t, open, "channel should be closed after cancel")
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := bus.New(nil)
	defer b.Close()

	s := b.Subscribe()
	// overflow the buffer; Publish must never block
	for i := 0; i < 100; i++ {
		b.Publish(i)
	}

	got := drain(s)
	assert.LessOrEqual(t, len(got), 16)
	assert.NotEmpty(t, got)
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := bus.New(nil)
	s := b.Subscribe()
	b.Close()

	_, open := <-s.C
	assert.False(t, open)
	assert.NotPanics(t, func() { b.Publish("x") })
}

func drain(s *bus.Subscription) []any {
	var out []any
	for {
		select {
		case v, ok := <-s.C:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}
