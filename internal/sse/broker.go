package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/advista/advista-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types emitted over a thread's research stream.
const (
	EventStatus    = "status"
	EventStage     = "stage_completed"
	EventToken     = "token"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	ThreadID string
	Events   chan Event
	Done     chan struct{}
}

// threadSub tracks one Redis subscription generation for a thread. The stop
// channel is closed when the last client leaves so the reader goroutine and
// its pubsub connection go away with it.
type threadSub struct {
	clients map[*Client]bool
	stop    chan struct{}
}

// Broker fans Redis pub/sub messages out to connected SSE clients, keyed by
// thread. One Redis subscription is held per thread with at least one client.
type Broker struct {
	redis  *redisclient.Client
	subs   map[string]*threadSub
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:  redisClient,
		subs:   make(map[string]*threadSub),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Broker) Subscribe(threadID string) *Client {
	client := &Client{
		ThreadID: threadID,
		Events:   make(chan Event, 100),
		Done:     make(chan struct{}),
	}

	b.mu.Lock()
	sub := b.subs[threadID]
	if sub == nil {
		sub = &threadSub{
			clients: make(map[*Client]bool),
			stop:    make(chan struct{}),
		}
		b.subs[threadID] = sub
		go b.subscribeToRedis(threadID, sub.stop)
	}
	sub.clients[client] = true
	clientCount := len(sub.clients)
	b.mu.Unlock()

	log.Info().
		Str("threadId", threadID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[client.ThreadID]
	if !ok || !sub.clients[client] {
		return
	}

	delete(sub.clients, client)
	close(client.Done)

	if len(sub.clients) == 0 {
		close(sub.stop)
		delete(b.subs, client.ThreadID)
	}

	log.Info().
		Str("threadId", client.ThreadID).
		Int("clientCount", len(sub.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, threadID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.ThreadChannel(threadID)
	return b.redis.Publish(ctx, channel, data).Err()
}

// PublishJSON marshals payload and publishes it as an event of the given type.
func (b *Broker) PublishJSON(ctx context.Context, threadID string, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.Publish(ctx, threadID, Event{Type: eventType, Data: data})
}

func (b *Broker) subscribeToRedis(threadID string, stop <-chan struct{}) {
	channel := redisclient.ThreadChannel(threadID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("threadId", threadID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-stop:
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(threadID, event)
		}
	}
}

func (b *Broker) broadcast(threadID string, event Event) {
	b.mu.RLock()
	var clients []*Client
	if sub := b.subs[threadID]; sub != nil {
		clients = make([]*Client, 0, len(sub.clients))
		for client := range sub.clients {
			clients = append(clients, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("threadId", threadID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		for client := range sub.clients {
			close(client.Done)
		}
	}
	b.subs = make(map[string]*threadSub)
}

func (b *Broker) ClientCount(threadID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if sub := b.subs[threadID]; sub != nil {
		return len(sub.clients)
	}
	return 0
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, sub := range b.subs {
		total += len(sub.clients)
	}
	return total
}
