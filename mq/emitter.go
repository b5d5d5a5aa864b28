package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel carrying itinerary lifecycle events.
const Channel = "itinerary-events"

const (
	EventGenerated = "itinerary.generated"
	EventAdjusted  = "itinerary.adjusted"
	EventReplaced  = "itinerary.replaced"
	EventMigrated  = "session.migrated"
)

type Event struct {
	Type        string    `json:"type"`
	ItineraryID string    `json:"itineraryId,omitempty"`
	OwnerKind   string    `json:"ownerKind"`
	OwnerID     string    `json:"ownerId"`
	Count       int       `json:"count,omitempty"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type RedisPublisher struct {
	conn *redis.Client
}

func NewRedisPublisher(conn *redis.Client) *RedisPublisher {
	return &RedisPublisher{conn: conn}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

// Noop drops every event. Used when Redis is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Emit publishes evt and logs, rather than returns, any failure.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, evt Event) {
	if pub == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	log.Debug("event published", zap.String("type", evt.Type), zap.String("itinerary", evt.ItineraryID))
}
