package notif

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clipshare/internal/dbmysql"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type DatabaseNotificationObserver struct {
	repo Repository
	now  func() time.Time
}

func NewDatabaseNotificationObserver(repo Repository) *DatabaseNotificationObserver {
	return &DatabaseNotificationObserver{
		repo: repo,
		now:  time.Now,
	}
}

func (d *DatabaseNotificationObserver) Name() string {
	return "database_observer"
}

func (d *DatabaseNotificationObserver) Update(ctx context.Context, event Event) error {
	notification := &dbmysql.Notification{
		ID:            uuid.NewString(),
		UserID:        event.UserID,
		TriggerUserID: event.TriggerUserID,
		ItemID:        event.ItemID,
		Type:          string(event.Type),
		Message:       event.Message,
		CreatedAt:     d.now(),
	}

	if err := d.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

// Publisher is the slice of *redis.Client the realtime observer needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotificationObserver publishes every event on "<prefix>:<user id>" so
// connected clients can refresh their unread badge.
type RedisNotificationObserver struct {
	publisher Publisher
	prefix    string
}

func NewRedisNotificationObserver(publisher Publisher, prefix string) *RedisNotificationObserver {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisNotificationObserver{publisher: publisher, prefix: prefix}
}

func (r *RedisNotificationObserver) Name() string {
	return "redis_observer"
}

type realtimeMessage struct {
	Type          string  `json:"type"`
	Message       string  `json:"message"`
	TriggerUserID *string `json:"trigger_user_id,omitempty"`
	ItemID        *string `json:"item_id,omitempty"`
}

func (r *RedisNotificationObserver) Channel(userID string) string {
	return r.prefix + ":" + userID
}

func (r *RedisNotificationObserver) Update(ctx context.Context, event Event) error {
	payload, err := json.Marshal(realtimeMessage{
		Type:          string(event.Type),
		Message:       event.Message,
		TriggerUserID: event.TriggerUserID,
		ItemID:        event.ItemID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := r.publisher.Publish(ctx, r.Channel(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
