package user

import (
	"context"

	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
)

//go:generate mockgen -source=user_repository.go -destination=mock_user_repository_test.go -package=user

// UserRepository is the profile store. *dbmysql.ProfileRepository satisfies it.
type UserRepository interface {
	Create(ctx context.Context, p *dbmysql.Profile) error
	ByID(ctx context.Context, id string) (*dbmysql.Profile, error)
	ByUsername(ctx context.Context, username string) (*dbmysql.Profile, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, p *dbmysql.Profile) error
	List(ctx context.Context, limit, offset int) ([]*dbmysql.Profile, error)
	SetRole(ctx context.Context, id string, role domain.Role) error
}

// LikeTotals reports the likes received across a user's items.
type LikeTotals interface {
	TotalLikes(ctx context.Context, ownerID string) (int64, error)
}

var (
	_ UserRepository = (*dbmysql.ProfileRepository)(nil)
	_ LikeTotals     = (*dbmysql.ItemRepository)(nil)
)
