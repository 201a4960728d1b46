// Package gallery loads item collections for a session, reconciles like/save/bookmark/favorite
// toggles against the platform and projects the result into view models.
package gallery

import (
	"context"

	"clipshare/internal/domain"
)

//go:generate mockgen -source=backend.go -destination=mock_backend_test.go -package=gallery

// Backend is the fixed set of remote operations the gallery consumes.
// platform.Platform serves it in-process and rpc.Client serves it over gRPC.
type Backend interface {
	ListItems(ctx context.Context, q domain.ItemQuery) ([]domain.ContentItem, error)
	// ListMembership returns item ids newest membership first.
	ListMembership(ctx context.Context, userID string, rel domain.Relation) ([]string, error)
	InsertMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error
	DeleteMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error
	AdjustCounter(ctx context.Context, itemID string, delta int) error
	CreateNotification(ctx context.Context, userID, message, kind string) error
}

type SessionResolver interface {
	CurrentSession(ctx context.Context) (domain.Session, error)
}
