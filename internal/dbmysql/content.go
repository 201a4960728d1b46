package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipshare/internal/domain"

	"gorm.io/gorm"
)

// Item is one image, gif or clip. LikeCount is only written through AdjustLikes.
type Item struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	MediaURL     string    `gorm:"type:varchar(512);not null" json:"media_url"`
	ThumbnailURL string    `gorm:"type:varchar(512)" json:"thumbnail_url"`
	Kind         string    `gorm:"type:varchar(16);not null;index:idx_items_kind" json:"kind"`
	OwnerID      string    `gorm:"type:varchar(36);not null;index:idx_items_owner" json:"owner_id"`
	Tags         string    `gorm:"type:varchar(512)" json:"tags"` // stored as ",tag1,tag2,"
	Game         string    `gorm:"type:varchar(128);index:idx_items_game" json:"game"`
	Duration     int       `json:"duration"`
	ViewCount    int64     `gorm:"not null;default:0" json:"view_count"`
	LikeCount    int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt    time.Time `gorm:"index:idx_items_created" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "content_items"
}

func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return ""
	}
	return "," + strings.Join(clean, ",") + ","
}

func SplitTags(stored string) []string {
	stored = strings.Trim(stored, ",")
	if stored == "" {
		return nil
	}
	return strings.Split(stored, ",")
}

func (i *Item) ToDomain() domain.ContentItem {
	return domain.ContentItem{
		ID:           i.ID,
		Title:        i.Title,
		Description:  i.Description,
		MediaURL:     i.MediaURL,
		ThumbnailURL: i.ThumbnailURL,
		Kind:         domain.ItemKind(i.Kind),
		OwnerID:      i.OwnerID,
		Tags:         SplitTags(i.Tags),
		Game:         i.Game,
		Duration:     i.Duration,
		ViewCount:    i.ViewCount,
		LikeCount:    i.LikeCount,
		CreatedAt:    i.CreatedAt,
	}
}

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	// Stored in UTC so page cursors compare equal to the stored value.
	if !item.CreatedAt.IsZero() {
		item.CreatedAt = item.CreatedAt.UTC()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) ByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindNotFound, "get item", fmt.Errorf("item %s", id))
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// List returns items newest first. When q.IDs is set the order is unspecified and
// missing ids are simply absent from the result.
func (r *ItemRepository) List(ctx context.Context, q domain.ItemQuery) ([]*Item, error) {
	query := r.db.WithContext(ctx).Model(&Item{})

	if q.OwnerID != "" {
		query = query.Where("owner_id = ?", q.OwnerID)
	}
	if q.Category != "" {
		c := strings.ToLower(q.Category)
		query = query.Where("(kind = ? OR LOWER(game) = ? OR tags LIKE ?)", c, c, "%,"+c+",%")
	}
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			return nil, nil
		}
		query = query.Where("id IN ?", q.IDs)
	}
	switch {
	case !q.Before.IsZero() && q.BeforeID != "":
		query = query.Where("(created_at < ? OR (created_at = ? AND id > ?))", q.Before, q.Before, q.BeforeID)
	case !q.Before.IsZero():
		query = query.Where("created_at < ?", q.Before)
	}

	query = query.Order("created_at DESC").Order("id")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var items []*Item
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Item{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.E(domain.KindNotFound, "delete item", fmt.Errorf("item %s", id))
	}
	return nil
}

// AdjustLikes moves like_count by delta in a single statement, never below zero.
func (r *ItemRepository) AdjustLikes(ctx context.Context, id string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&Item{}).
		Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust like count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.mustExist(ctx, "adjust like count", id)
	}
	return nil
}

func (r *ItemRepository) IncrementViews(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&Item{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment views: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.E(domain.KindNotFound, "increment views", fmt.Errorf("item %s", id))
	}
	return nil
}

// TotalLikes sums like_count over everything ownerID has posted.
func (r *ItemRepository) TotalLikes(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Item{}).
		Select("COALESCE(SUM(like_count), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum likes: %w", err)
	}
	return total, nil
}

// MySQL reports zero affected rows when a clamped update leaves the value unchanged.
func (r *ItemRepository) mustExist(ctx context.Context, op, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}
	if count == 0 {
		return domain.E(domain.KindNotFound, op, fmt.Errorf("item %s", id))
	}
	return nil
}
