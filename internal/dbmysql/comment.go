package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipshare/internal/domain"

	"gorm.io/gorm"
)

type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID    string    `gorm:"type:varchar(36);not null;index:idx_comments_item" json:"item_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	ParentID  *string   `gorm:"type:varchar(36);index:idx_comments_parent" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) ByID(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindNotFound, "get comment", fmt.Errorf("comment %s", id))
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ByItem returns an item's comments oldest first so replies follow their parents.
func (r *CommentRepository) ByItem(ctx context.Context, itemID string) ([]*Comment, error) {
	var comments []*Comment
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) DeleteForItem(ctx context.Context, itemID string) error {
	return r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&Comment{}).Error
}
