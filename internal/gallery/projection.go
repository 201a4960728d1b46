package gallery

import (
	"fmt"
	"strconv"
	"time"

	"clipshare/internal/domain"
)

type Layout string

const (
	LayoutGrid    Layout = "grid"
	LayoutList    Layout = "list"
	LayoutMasonry Layout = "masonry"
)

func ParseLayout(s string) Layout {
	switch Layout(s) {
	case LayoutList, LayoutMasonry:
		return Layout(s)
	}
	return LayoutGrid
}

// Card is a render-ready item.
type Card struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	MediaURL     string          `json:"media_url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	Kind         domain.ItemKind `json:"kind"`
	OwnerID      string          `json:"owner_id"`
	Tags         []string        `json:"tags,omitempty"`
	Game         string          `json:"game,omitempty"`
	Duration     string          `json:"duration,omitempty"`
	Likes        int64           `json:"likes"`
	LikesLabel   string          `json:"likes_label"`
	Views        int64           `json:"views"`
	ViewsLabel   string          `json:"views_label"`
	PostedAgo    string          `json:"posted_ago"`
	PostedOn     string          `json:"posted_on"`
	CreatedAt    time.Time       `json:"created_at"`
	IsLiked      bool            `json:"is_liked"`
	IsSaved      bool            `json:"is_saved"`
	IsBookmarked bool            `json:"is_bookmarked"`
	IsFavorited  bool            `json:"is_favorited"`
	Pending      []string        `json:"pending,omitempty"`
}

// Page is a projected collection. Masonry pages fill Columns instead of Cards.
type Page struct {
	Layout     Layout   `json:"layout"`
	Cards      []Card   `json:"cards,omitempty"`
	Columns    [][]Card `json:"columns,omitempty"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Project maps a collection to a page. It reads nothing but its arguments.
func Project(c Collection, layout Layout, columns int, now time.Time) Page {
	return project(c, nil, layout, columns, now)
}

// ProjectView projects the view's current state and marks keys still in flight.
func ProjectView(v *View, layout Layout, columns int, now time.Time) Page {
	return project(v.Snapshot(), v.PendingStates(), layout, columns, now)
}

func project(c Collection, pending map[string]map[domain.Relation]domain.ToggleState, layout Layout, columns int, now time.Time) Page {
	cards := make([]Card, len(c.Items))
	for i, item := range c.Items {
		cards[i] = NewCard(item, c.Membership, now)
		for _, rel := range domain.Relations {
			if st, ok := pending[item.ID][rel]; ok && st.Pending() {
				cards[i].Pending = append(cards[i].Pending, string(rel))
			}
		}
	}

	page := Page{Layout: layout, NextCursor: c.NextCursor}
	if layout != LayoutMasonry {
		page.Cards = cards
		return page
	}

	if columns < 1 {
		columns = 3
	}
	page.Columns = make([][]Card, columns)
	for i := range page.Columns {
		page.Columns[i] = []Card{}
	}
	for i, card := range cards {
		page.Columns[i%columns] = append(page.Columns[i%columns], card)
	}
	return page
}

func NewCard(item domain.ContentItem, m domain.Membership, now time.Time) Card {
	card := Card{
		ID:           item.ID,
		Title:        item.Title,
		Description:  item.Description,
		MediaURL:     item.MediaURL,
		ThumbnailURL: item.ThumbnailURL,
		Kind:         item.Kind,
		OwnerID:      item.OwnerID,
		Tags:         item.Tags,
		Game:         item.Game,
		Likes:        item.LikeCount,
		LikesLabel:   FormatCount(item.LikeCount),
		Views:        item.ViewCount,
		ViewsLabel:   FormatCount(item.ViewCount),
		PostedAgo:    RelativeTime(item.CreatedAt, now),
		PostedOn:     AbsoluteDate(item.CreatedAt),
		CreatedAt:    item.CreatedAt,
		IsLiked:      m.Has(domain.RelationLiked, item.ID),
		IsSaved:      m.Has(domain.RelationSaved, item.ID),
		IsBookmarked: m.Has(domain.RelationBookmarked, item.ID),
		IsFavorited:  m.Has(domain.RelationFavorited, item.ID),
	}
	if item.Kind == domain.KindClip {
		card.Duration = FormatDuration(item.Duration)
	}
	return card
}

// FormatCount abbreviates a count to one decimal with K or M, rounding halves up.
// 999 -> "999", 1000 -> "1.0K", 999999 -> "1000.0K", 1000000 -> "1.0M".
// Counts never go below zero; negatives print as "0".
func FormatCount(n int64) string {
	if n < 0 {
		return "0"
	}
	switch {
	case n >= 1_000_000:
		return tenths(n, 1_000_000) + "M"
	case n >= 1_000:
		return tenths(n, 1_000) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func tenths(n, unit int64) string {
	t := (n/unit)*10 + ((n%unit)*10+unit/2)/unit
	return fmt.Sprintf("%d.%d", t/10, t%10)
}

func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "agora mesmo"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minuto", "minutos")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hora", "horas")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "dia", "dias")
	default:
		return AbsoluteDate(t)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "há 1 " + one
	}
	return fmt.Sprintf("há %d %s", n, many)
}

func AbsoluteDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDuration renders clip seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
