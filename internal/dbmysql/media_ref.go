package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MediaRef links an item to the GridFS file holding its bytes.
type MediaRef struct {
	FileID      string    `gorm:"type:varchar(24);primaryKey" json:"file_id"` // MongoDB ObjectID
	ItemID      string    `gorm:"type:varchar(36);index:idx_media_refs_item" json:"item_id"`
	FileName    string    `gorm:"type:varchar(255)" json:"file_name"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `gorm:"type:varchar(36);index:idx_media_refs_uploader" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MediaRef) TableName() string {
	return "media_refs"
}

func MediaURL(baseURL, fileID string) string {
	return fmt.Sprintf("%s/%s", baseURL, fileID)
}

type MediaRefRepository struct {
	db *gorm.DB
}

func NewMediaRefRepository(db *gorm.DB) *MediaRefRepository {
	return &MediaRefRepository{db: db}
}

func (r *MediaRefRepository) Create(ctx context.Context, ref *MediaRef) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		return fmt.Errorf("failed to create media ref: %w", err)
	}
	return nil
}

// ByItem returns nil without error when the item has no stored file.
func (r *MediaRefRepository) ByItem(ctx context.Context, itemID string) (*MediaRef, error) {
	var ref MediaRef
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media ref: %w", err)
	}
	return &ref, nil
}

func (r *MediaRefRepository) Delete(ctx context.Context, fileID string) error {
	return r.db.WithContext(ctx).Delete(&MediaRef{}, "file_id = ?", fileID).Error
}
