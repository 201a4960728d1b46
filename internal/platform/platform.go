// Package platform is the store behind the gallery: items, memberships, counters,
// comments and media, served in-process over gorm and GridFS.
package platform

import (
	"context"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/config"
	"clipshare/internal/dbmongo"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
	"clipshare/internal/gallery"
	"clipshare/internal/metrics"
	"clipshare/internal/notif"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Blobs is the write side of dbmongo.MediaStorage.
type Blobs interface {
	UploadFile(ctx context.Context, up dbmongo.Upload) (*dbmongo.MediaFile, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Notifications is served by notif.NotificationService.
type Notifications interface {
	SendNotificationAsync(event notif.Event) error
}

type Platform struct {
	items     *dbmysql.ItemRepository
	members   *dbmysql.MembershipRepository
	comments  *dbmysql.CommentRepository
	mediaRefs *dbmysql.MediaRefRepository

	blobs         Blobs
	notifications Notifications

	mediaBaseURL string
	maxUpload    int64

	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

var (
	_ gallery.Backend         = (*Platform)(nil)
	_ gallery.SessionResolver = (*Platform)(nil)
)

// New builds a Platform over db. blobs and notifications may be nil; uploads
// then fail and notifications are skipped.
func New(db *gorm.DB, blobs Blobs, notifications Notifications, cfg *config.Config, log *zap.Logger) *Platform {
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := cfg.Upload.MaxBytes
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	return &Platform{
		items:         dbmysql.NewItemRepository(db),
		members:       dbmysql.NewMembershipRepository(db),
		comments:      dbmysql.NewCommentRepository(db),
		mediaRefs:     dbmysql.NewMediaRefRepository(db),
		blobs:         blobs,
		notifications: notifications,
		mediaBaseURL:  cfg.Server.MediaBaseURL,
		maxUpload:     maxUpload,
		log:           log,
		metrics:       metrics.Get(),
		now:           time.Now,
	}
}

// CurrentSession reads the session the transport put on ctx.
func (p *Platform) CurrentSession(ctx context.Context) (domain.Session, error) {
	return common.SessionFrom(ctx), nil
}

func (p *Platform) ListItems(ctx context.Context, q domain.ItemQuery) ([]domain.ContentItem, error) {
	rows, err := p.items.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContentItem, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

func (p *Platform) ListMembership(ctx context.Context, userID string, rel domain.Relation) ([]string, error) {
	return p.members.List(ctx, userID, rel)
}

func (p *Platform) InsertMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	return p.members.Insert(ctx, userID, itemID, rel)
}

func (p *Platform) DeleteMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	return p.members.Delete(ctx, userID, itemID, rel)
}

func (p *Platform) AdjustCounter(ctx context.Context, itemID string, delta int) error {
	return p.items.AdjustLikes(ctx, itemID, delta)
}

// CreateNotification queues the notification; delivery happens on the
// notification workers.
func (p *Platform) CreateNotification(ctx context.Context, userID, message, kind string) error {
	if p.notifications == nil {
		p.log.Debug("notifications disabled, dropping", zap.String("user_id", userID))
		return nil
	}
	return p.notifications.SendNotificationAsync(notif.Event{
		Type:    notif.Type(kind),
		UserID:  userID,
		Message: message,
	})
}

// IsMember answers a single membership question for detail views.
func (p *Platform) IsMember(ctx context.Context, userID, itemID string, rel domain.Relation) (bool, error) {
	return p.members.IsMember(ctx, userID, itemID, rel)
}

func (p *Platform) notify(event notif.Event) {
	if p.notifications == nil || event.UserID == "" {
		return
	}
	if err := p.notifications.SendNotificationAsync(event); err != nil {
		p.log.Warn("failed to queue notification",
			zap.String("type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

func displayName(s domain.Session) string {
	if s.Username == "" {
		return "Alguém"
	}
	return s.Username
}
