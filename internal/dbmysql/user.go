package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipshare/internal/domain"

	"gorm.io/gorm"
)

type Profile struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_profiles_username" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex:uq_profiles_email" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	AvatarURL    string    `gorm:"type:varchar(512)" json:"avatar_url"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Website      string    `gorm:"type:varchar(255)" json:"website"`
	Role         string    `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProfileRepository) ByID(ctx context.Context, id string) (*Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProfileRepository) ByUsername(ctx context.Context, username string) (*Profile, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *ProfileRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&Profile{}).Where("username = ?", username)
	if email != "" {
		query = query.Or("email = ?", email)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	var profiles []*Profile
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (r *ProfileRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	result := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Update("role", string(role))
	if result.Error != nil {
		return fmt.Errorf("failed to set role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.notFoundUnlessExists(ctx, id)
	}
	return nil
}

func (r *ProfileRepository) IsAdmin(ctx context.Context, id string) (bool, error) {
	p, err := r.ByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p.Role == string(domain.RoleAdmin), nil
}

func (r *ProfileRepository) first(ctx context.Context, cond string, arg any) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindNotFound, "get profile", err)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) notFoundUnlessExists(ctx context.Context, id string) error {
	_, err := r.ByID(ctx, id)
	return err
}
