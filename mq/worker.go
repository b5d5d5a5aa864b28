package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wayfarer/db"
)

// UserToucher is the slice of the store the worker needs.
type UserToucher interface {
	TouchUser(ctx context.Context, uid string) error
}

// Worker consumes itinerary events and records user activity.
type Worker struct {
	conn  *redis.Client
	users UserToucher
	log   *zap.Logger
}

func NewWorker(conn *redis.Client, users UserToucher, log *zap.Logger) *Worker {
	return &Worker{conn: conn, users: users, log: log}
}

// Run subscribes to Channel and handles messages until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	sub := w.conn.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	w.log.Info("event worker listening", zap.String("channel", Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, msg.Payload); err != nil {
				w.log.Warn("event handling failed", zap.Error(err))
			}
		}
	}
}

// Handle processes one raw event payload.
func (w *Worker) Handle(ctx context.Context, payload string) error {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return fmt.Errorf("parse event: %w", err)
	}
	if evt.OwnerKind != string(db.OwnerUser) || evt.OwnerID == "" {
		return nil
	}
	err := w.users.TouchUser(ctx, evt.OwnerID)
	if errors.Is(err, db.ErrNotFound) {
		w.log.Debug("event for unknown user", zap.String("uid", evt.OwnerID))
		return nil
	}
	return err
}
