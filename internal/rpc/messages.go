// Package rpc exposes gallery.Backend as the clipshare.v1.PlatformService gRPC
// service and provides a client that implements the same interface.
package rpc

import (
	"encoding/json"

	"clipshare/internal/domain"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// Messages travel as JSON; see jsonCodec.

type Empty struct{}

type SessionReply struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

type ListItemsRequest struct {
	OwnerID  string                 `json:"owner_id,omitempty"`
	Category string                 `json:"category,omitempty"`
	IDs      []string               `json:"ids,omitempty"`
	Limit    int32                  `json:"limit,omitempty"`
	Before   *timestamppb.Timestamp `json:"before,omitempty"`
	BeforeID string                 `json:"before_id,omitempty"`
}

type Item struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description,omitempty"`
	MediaURL     string                 `json:"media_url"`
	ThumbnailURL string                 `json:"thumbnail_url,omitempty"`
	Kind         string                 `json:"kind"`
	OwnerID      string                 `json:"owner_id"`
	Tags         []string               `json:"tags,omitempty"`
	Game         string                 `json:"game,omitempty"`
	Duration     int32                  `json:"duration,omitempty"`
	ViewCount    int64                  `json:"view_count"`
	LikeCount    int64                  `json:"like_count"`
	CreatedAt    *timestamppb.Timestamp `json:"created_at"`
}

type ListItemsReply struct {
	Items []*Item `json:"items"`
}

type MembershipRequest struct {
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id,omitempty"`
	Relation string `json:"relation"`
}

type ListMembershipReply struct {
	ItemIDs []string `json:"item_ids"`
}

type AdjustCounterRequest struct {
	ItemID string `json:"item_id"`
	Delta  int32  `json:"delta"`
}

type NotificationRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// jsonCodec replaces the protobuf codec; the service has no .proto-generated types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return "json" }

func itemToWire(it domain.ContentItem) *Item {
	return &Item{
		ID:           it.ID,
		Title:        it.Title,
		Description:  it.Description,
		MediaURL:     it.MediaURL,
		ThumbnailURL: it.ThumbnailURL,
		Kind:         string(it.Kind),
		OwnerID:      it.OwnerID,
		Tags:         it.Tags,
		Game:         it.Game,
		Duration:     int32(it.Duration),
		ViewCount:    it.ViewCount,
		LikeCount:    it.LikeCount,
		CreatedAt:    timestamppb.New(it.CreatedAt),
	}
}

func itemFromWire(it *Item) domain.ContentItem {
	out := domain.ContentItem{
		ID:           it.ID,
		Title:        it.Title,
		Description:  it.Description,
		MediaURL:     it.MediaURL,
		ThumbnailURL: it.ThumbnailURL,
		Kind:         domain.ItemKind(it.Kind),
		OwnerID:      it.OwnerID,
		Tags:         it.Tags,
		Game:         it.Game,
		Duration:     int(it.Duration),
		ViewCount:    it.ViewCount,
		LikeCount:    it.LikeCount,
	}
	if it.CreatedAt != nil {
		out.CreatedAt = it.CreatedAt.AsTime()
	}
	return out
}

func queryToWire(q domain.ItemQuery) *ListItemsRequest {
	req := &ListItemsRequest{
		OwnerID:  q.OwnerID,
		Category: q.Category,
		IDs:      q.IDs,
		Limit:    int32(q.Limit),
	}
	if !q.Before.IsZero() {
		req.Before = timestamppb.New(q.Before)
		req.BeforeID = q.BeforeID
	}
	return req
}

func queryFromWire(req *ListItemsRequest) domain.ItemQuery {
	q := domain.ItemQuery{
		OwnerID:  req.OwnerID,
		Category: req.Category,
		IDs:      req.IDs,
		Limit:    int(req.Limit),
	}
	if req.Before != nil {
		q.Before = req.Before.AsTime()
		q.BeforeID = req.BeforeID
	}
	return q
}
