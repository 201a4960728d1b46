// Package domain holds the value types shared by the store, the transports and the gallery.
package domain

import (
	"fmt"
	"strings"
	"time"
)

type ItemKind string

const (
	KindImage ItemKind = "image"
	KindGIF   ItemKind = "gif"
	KindClip  ItemKind = "clip"
)

func (k ItemKind) Valid() bool {
	return k == KindImage || k == KindGIF || k == KindClip
}

// KindFromMIME maps an upload's content type to an item kind.
func KindFromMIME(mimeType string) ItemKind {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "gif"):
		return KindGIF
	case strings.HasPrefix(lower, "video/"):
		return KindClip
	default:
		return KindImage
	}
}

// ContentItem is the transient projection of a stored image, gif or clip.
type ContentItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	MediaURL     string    `json:"media_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Kind         ItemKind  `json:"kind"`
	OwnerID      string    `json:"owner_id"`
	Tags         []string  `json:"tags,omitempty"`
	Game         string    `json:"game,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Relation string

const (
	RelationLiked      Relation = "liked"
	RelationSaved      Relation = "saved"
	RelationBookmarked Relation = "bookmarked"
	RelationFavorited  Relation = "favorited"
)

// Relations lists every toggleable relation in a stable order.
var Relations = []Relation{RelationLiked, RelationSaved, RelationBookmarked, RelationFavorited}

func (r Relation) Valid() bool {
	switch r {
	case RelationLiked, RelationSaved, RelationBookmarked, RelationFavorited:
		return true
	}
	return false
}

// AdjustsCounter reports whether toggling the relation moves like_count.
func (r Relation) AdjustsCounter() bool {
	return r == RelationLiked
}

func (r Relation) String() string {
	return string(r)
}

func ParseRelation(s string) (Relation, error) {
	r := Relation(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", E(KindInvalid, "parse relation", fmt.Errorf("unknown relation %q", s))
	}
	return r, nil
}

// ToggleIntent is one user action on one (item, relation) pair.
type ToggleIntent struct {
	ItemID   string   `json:"item_id"`
	Relation Relation `json:"relation"`
	Target   bool     `json:"target"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session is either a signed-in user or anonymous (empty UserID).
type Session struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

func Anonymous() Session {
	return Session{}
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}

func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// ItemQuery is what the store understands when listing items.
// Exactly one of OwnerID, Category or IDs narrows the result; all empty means every item.
type ItemQuery struct {
	OwnerID  string    `json:"owner_id,omitempty"`
	Category string    `json:"category,omitempty"`
	IDs      []string  `json:"ids,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Before   time.Time `json:"before,omitempty"`
	// BeforeID breaks ties on Before: rows created at exactly Before are kept
	// when their id sorts after it.
	BeforeID string `json:"before_id,omitempty"`
}
