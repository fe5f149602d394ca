package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/pol60/bastshin-sessions/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Change event types on the session feed.
const (
	EventSessionUpsert = "session_upsert"
	EventSessionDelete = "session_delete"
	EventSessionSweep  = "session_sweep"
	EventStats         = "stats"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Events chan Event
	Done   chan struct{}
}

// Broker fans session-table change notifications out to connected admin
// dashboards. Redis pub/sub carries the events between instances so every
// dashboard sees every change regardless of which replica produced it.
type Broker struct {
	redis   *redisclient.Client
	clients map[*Client]bool
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe() *Client {
	client := &Client{
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client] = true
	clientCount := len(b.clients)
	b.mu.Unlock()

	b.once.Do(func() {
		go b.subscribeToRedis()
	})

	log.Info().Int("clientCount", clientCount).Msg("sse client subscribed")
	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.Done)
		log.Info().Int("clientCount", len(b.clients)).Msg("sse client unsubscribed")
	}
}

// Publish pushes a change event through Redis so all instances broadcast it.
func (b *Broker) Publish(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, redisclient.SessionChangeChannel, raw).Err()
}

func (b *Broker) subscribeToRedis() {
	pubsub := b.redis.Subscribe(b.ctx, redisclient.SessionChangeChannel)
	defer pubsub.Close()

	log.Debug().Str("channel", redisclient.SessionChangeChannel).Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal session change event")
				continue
			}

			b.broadcast(event)
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		close(client.Done)
	}
	b.clients = make(map[*Client]bool)
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
