package notif

import (
	"context"
	"errors"
	"sync"
	"time"

	"clipshare/internal/config"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
	"clipshare/internal/metrics"

	"go.uber.org/zap"
)

type Type string

const (
	TypeLike    Type = "like"
	TypeComment Type = "comment"
	TypeSystem  Type = "system"
)

// Event is one notification addressed to UserID.
type Event struct {
	Type          Type
	UserID        string
	TriggerUserID *string
	ItemID        *string
	Message       string
}

type Observer interface {
	Update(ctx context.Context, event Event) error
	Name() string
}

type Repository interface {
	Create(ctx context.Context, notif *dbmysql.Notification) error
	ByUserID(ctx context.Context, userID string, limit, offset int) ([]*dbmysql.Notification, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

const deliveryTimeout = 5 * time.Second

// NotificationManager fans events out to its observers, either inline or
// through a fixed pool of workers.
type NotificationManager struct {
	observers    map[string]Observer
	eventChannel chan Event
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewNotificationManager(workerPoolSize, bufferSize int, log *zap.Logger) *NotificationManager {
	if workerPoolSize < 1 {
		workerPoolSize = 1
	}
	if bufferSize < 1 {
		bufferSize = 1000
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	nm := &NotificationManager{
		observers:    make(map[string]Observer),
		eventChannel: make(chan Event, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
		log:          log,
		metrics:      metrics.Get(),
	}

	for i := 0; i < workerPoolSize; i++ {
		nm.wg.Add(1)
		go nm.processEvents()
	}

	return nm
}

func (nm *NotificationManager) Subscribe(observer Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.observers[observer.Name()] = observer
	nm.log.Info("observer subscribed", zap.String("observer", observer.Name()))
}

func (nm *NotificationManager) Unsubscribe(observer Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.observers, observer.Name())
	nm.log.Info("observer unsubscribed", zap.String("observer", observer.Name()))
}

// Notify delivers the event to every observer and returns the first failure.
// Every observer is tried regardless.
func (nm *NotificationManager) Notify(ctx context.Context, event Event) error {
	nm.mu.RLock()
	observers := make([]Observer, 0, len(nm.observers))
	for _, obs := range nm.observers {
		observers = append(observers, obs)
	}
	nm.mu.RUnlock()

	var first error
	for _, observer := range observers {
		status := "success"
		if err := observer.Update(ctx, event); err != nil {
			status = "failure"
			nm.log.Warn("observer update failed",
				zap.String("observer", observer.Name()),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
			if first == nil {
				first = err
			}
		}
		nm.metrics.NotificationsDispatched.WithLabelValues(observer.Name(), status).Inc()
	}
	return first
}

// NotifyAsync queues the event and reports whether it was accepted. A full
// buffer or a stopped manager drops the event.
func (nm *NotificationManager) NotifyAsync(event Event) bool {
	if nm.ctx.Err() != nil {
		return false
	}
	select {
	case nm.eventChannel <- event:
		return true
	default:
		nm.metrics.NotificationsDropped.Inc()
		nm.log.Warn("notification channel full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("user_id", event.UserID),
		)
		return false
	}
}

func (nm *NotificationManager) processEvents() {
	defer nm.wg.Done()

	for {
		select {
		case event := <-nm.eventChannel:
			nm.deliver(event)
		case <-nm.ctx.Done():
			// drain what was accepted before shutdown
			for {
				select {
				case event := <-nm.eventChannel:
					nm.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (nm *NotificationManager) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	_ = nm.Notify(ctx, event)
}

func (nm *NotificationManager) Shutdown() {
	nm.cancel()
	nm.wg.Wait()
	nm.log.Info("notification manager shutdown complete")
}

type NotificationService struct {
	manager *NotificationManager
	repo    Repository
	log     *zap.Logger
}

// NewNotificationService always persists notifications; publisher may be nil
// when realtime fan-out is disabled.
func NewNotificationService(cfg *config.Config, repo Repository, publisher Publisher, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	manager := NewNotificationManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize, log)

	manager.Subscribe(NewDatabaseNotificationObserver(repo))

	if publisher != nil {
		manager.Subscribe(NewRedisNotificationObserver(publisher, cfg.Redis.Channel))
	}

	return &NotificationService{
		manager: manager,
		repo:    repo,
		log:     log,
	}
}

func (s *NotificationService) SendNotification(ctx context.Context, event Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	if err := s.manager.Notify(ctx, event); err != nil {
		return domain.E(domain.KindRemoteMutation, "send notification", err)
	}

	s.log.Debug("notification sent", zap.String("type", string(event.Type)), zap.String("user_id", event.UserID))
	return nil
}

// SendNotificationAsync validates the event and hands it to the worker pool.
func (s *NotificationService) SendNotificationAsync(event Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if !s.manager.NotifyAsync(event) {
		return domain.E(domain.KindRemoteMutation, "queue notification", errors.New("notification queue unavailable"))
	}
	return nil
}

// SendLikeNotification tells an item's owner about a like. Self-likes are ignored.
func (s *NotificationService) SendLikeNotification(ctx context.Context, itemID, ownerID, likerID, message string) error {
	if ownerID == likerID {
		return nil
	}
	return s.SendNotificationAsync(Event{
		Type:          TypeLike,
		UserID:        ownerID,
		TriggerUserID: &likerID,
		ItemID:        &itemID,
		Message:       message,
	})
}

type Response struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Message       string     `json:"message"`
	TriggerUserID *string    `json:"trigger_user_id,omitempty"`
	ItemID        *string    `json:"item_id,omitempty"`
	Read          bool       `json:"read"`
	CreatedAt     time.Time  `json:"created_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, limit, offset int) ([]*Response, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.ByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, domain.E(domain.KindRemoteFetch, "list notifications", err)
	}

	responses := make([]*Response, len(notifications))
	for i, n := range notifications {
		responses[i] = &Response{
			ID:            n.ID,
			Type:          n.Type,
			Message:       n.Message,
			TriggerUserID: n.TriggerUserID,
			ItemID:        n.ItemID,
			Read:          n.Read,
			CreatedAt:     n.CreatedAt,
			ReadAt:        n.ReadAt,
		}
	}

	return responses, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	return s.repo.Delete(ctx, notificationID, userID)
}

func (s *NotificationService) ClearAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAll(ctx, userID)
}

func validateEvent(event Event) error {
	var err error
	switch {
	case event.UserID == "":
		err = errors.New("user_id is required")
	case event.Message == "":
		err = errors.New("message is required")
	case event.Type == "":
		err = errors.New("type is required")
	}
	if err != nil {
		return domain.E(domain.KindInvalid, "validate notification", err)
	}
	return nil
}

func (s *NotificationService) Shutdown() {
	s.manager.Shutdown()
	s.log.Info("notification service shutdown complete")
}
