package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipshare/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// One table per relation. Index names are table-qualified because SQLite keeps them global.

type ImageLike struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_image_likes_user_item,priority:1"`
	ItemID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_image_likes_user_item,priority:2;index:idx_image_likes_item"`
	CreatedAt time.Time `gorm:"index:idx_image_likes_created"`
}

func (ImageLike) TableName() string { return "image_likes" }

type SavedImage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_saved_images_user_item,priority:1"`
	ItemID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_saved_images_user_item,priority:2;index:idx_saved_images_item"`
	CreatedAt time.Time `gorm:"index:idx_saved_images_created"`
}

func (SavedImage) TableName() string { return "saved_images" }

type Bookmark struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_bookmarks_user_item,priority:1"`
	ItemID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_bookmarks_user_item,priority:2;index:idx_bookmarks_item"`
	CreatedAt time.Time `gorm:"index:idx_bookmarks_created"`
}

func (Bookmark) TableName() string { return "bookmarks" }

type Favorite struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_favorites_user_item,priority:1"`
	ItemID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_favorites_user_item,priority:2;index:idx_favorites_item"`
	CreatedAt time.Time `gorm:"index:idx_favorites_created"`
}

func (Favorite) TableName() string { return "favorites" }

// membershipRow has the columns every relation table shares.
type membershipRow struct {
	ID        string
	UserID    string
	ItemID    string
	CreatedAt time.Time
}

func MembershipTable(rel domain.Relation) (string, error) {
	switch rel {
	case domain.RelationLiked:
		return ImageLike{}.TableName(), nil
	case domain.RelationSaved:
		return SavedImage{}.TableName(), nil
	case domain.RelationBookmarked:
		return Bookmark{}.TableName(), nil
	case domain.RelationFavorited:
		return Favorite{}.TableName(), nil
	}
	return "", domain.E(domain.KindInvalid, "membership table", fmt.Errorf("unknown relation %q", rel))
}

type MembershipRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db, now: time.Now}
}

// List returns the item ids userID holds for rel, newest membership first.
func (r *MembershipRepository) List(ctx context.Context, userID string, rel domain.Relation) ([]string, error) {
	table, err := MembershipTable(rel)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.db.WithContext(ctx).
		Table(table).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return ids, nil
}

// Insert adds the row; a row that already exists yields ErrDuplicateMembership.
func (r *MembershipRepository) Insert(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	table, err := MembershipTable(rel)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check item: %w", err)
		}
		if count == 0 {
			return domain.E(domain.KindNotFound, "insert membership", fmt.Errorf("item %s", itemID))
		}

		row := membershipRow{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    itemID,
			CreatedAt: r.now(),
		}
		result := tx.Table(table).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.E(domain.KindConflict, "insert membership", domain.ErrDuplicateMembership)
		}
		return nil
	})
}

// Delete removes the row; deleting a row that does not exist yields ErrMissingMembership.
func (r *MembershipRepository) Delete(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	table, err := MembershipTable(rel)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Table(table).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&membershipRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.E(domain.KindConflict, "delete membership", domain.ErrMissingMembership)
	}
	return nil
}

// DeleteForItem drops every membership row pointing at itemID, across all relations.
func (r *MembershipRepository) DeleteForItem(ctx context.Context, itemID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rel := range domain.Relations {
			table, _ := MembershipTable(rel)
			if err := tx.Table(table).Where("item_id = ?", itemID).Delete(&membershipRow{}).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// IsMember is used by single-item views that do not load the full membership list.
func (r *MembershipRepository) IsMember(ctx context.Context, userID, itemID string, rel domain.Relation) (bool, error) {
	table, err := MembershipTable(rel)
	if err != nil {
		return false, err
	}
	var row membershipRow
	err = r.db.WithContext(ctx).Table(table).Where("user_id = ? AND item_id = ?", userID, itemID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return true, nil
}
