package sse

import (
	"encoding/json"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/advista/advista-server-go/internal/redis"
)

// The address is never dialed in these tests; the reader goroutine's pubsub
// connection retries in the background until its stop channel closes.
func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	client := &redisclient.Client{Client: goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})}
	b := NewBroker(client)
	t.Cleanup(func() {
		b.Close()
		client.Close()
	})
	return b
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatal("channel is still open")
	}
}

func TestBrokerSubscribeUnsubscribe(t *testing.T) {
	t.Run("last unsubscribe stops the thread subscription", func(t *testing.T) {
		b := newTestBroker(t)

		client := b.Subscribe("thread-1")
		b.mu.RLock()
		sub := b.subs["thread-1"]
		b.mu.RUnlock()
		require.NotNil(t, sub)

		b.Unsubscribe(client)

		assertClosed(t, sub.stop)
		assertClosed(t, client.Done)
		assert.Equal(t, 0, b.ClientCount("thread-1"))
	})

	t.Run("resubscribe starts a fresh generation", func(t *testing.T) {
		b := newTestBroker(t)

		first := b.Subscribe("thread-1")
		b.mu.RLock()
		firstSub := b.subs["thread-1"]
		b.mu.RUnlock()
		b.Unsubscribe(first)

		second := b.Subscribe("thread-1")
		b.mu.RLock()
		secondSub := b.subs["thread-1"]
		b.mu.RUnlock()

		require.NotNil(t, secondSub)
		assert.NotSame(t, firstSub, secondSub)
		select {
		case <-secondSub.stop:
			t.Fatal("fresh subscription must not be stopped")
		default:
		}

		// A single publish must reach the resubscribed client exactly once.
		b.broadcast("thread-1", Event{Type: EventStatus, Data: json.RawMessage(`{"status":"researching"}`)})
		assert.Len(t, second.Events, 1)
	})

	t.Run("subscription survives while other clients remain", func(t *testing.T) {
		b := newTestBroker(t)

		first := b.Subscribe("thread-1")
		second := b.Subscribe("thread-1")
		b.mu.RLock()
		sub := b.subs["thread-1"]
		b.mu.RUnlock()

		b.Unsubscribe(first)

		select {
		case <-sub.stop:
			t.Fatal("subscription stopped with a client still attached")
		default:
		}
		assert.Equal(t, 1, b.ClientCount("thread-1"))

		b.Unsubscribe(second)
		assertClosed(t, sub.stop)
	})

	t.Run("double unsubscribe is a no-op", func(t *testing.T) {
		b := newTestBroker(t)

		client := b.Subscribe("thread-1")
		b.Unsubscribe(client)
		assert.NotPanics(t, func() { b.Unsubscribe(client) })
	})
}

func TestBrokerBroadcast(t *testing.T) {
	b := newTestBroker(t)

	client := b.Subscribe("thread-1")
	other := b.Subscribe("thread-2")

	b.broadcast("thread-1", Event{Type: EventCompleted, Data: json.RawMessage(`{}`)})

	require.Len(t, client.Events, 1)
	event := <-client.Events
	assert.Equal(t, EventCompleted, event.Type)
	assert.Empty(t, other.Events)
}
