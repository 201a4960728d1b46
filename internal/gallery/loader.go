package gallery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"clipshare/internal/domain"
	"clipshare/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeOwner    Scope = "owner"
	ScopeCategory Scope = "category"
	ScopeRelation Scope = "relation"
	ScopeItems    Scope = "items"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query selects one page. Cursor is the NextCursor of the previous page.
type Query struct {
	Scope    Scope           `json:"scope"`
	OwnerID  string          `json:"owner_id,omitempty"`
	Category string          `json:"category,omitempty"`
	Relation domain.Relation `json:"relation,omitempty"`
	IDs      []string        `json:"ids,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Cursor   string          `json:"cursor,omitempty"`
}

func (q Query) normalized() (Query, error) {
	if q.Scope == "" {
		q.Scope = ScopeAll
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	switch q.Scope {
	case ScopeAll:
	case ScopeOwner:
		if q.OwnerID == "" {
			return q, domain.E(domain.KindInvalid, "load", fmt.Errorf("owner scope needs an owner id"))
		}
	case ScopeCategory:
		if q.Category == "" {
			return q, domain.E(domain.KindInvalid, "load", fmt.Errorf("category scope needs a category"))
		}
	case ScopeRelation:
		if !q.Relation.Valid() {
			return q, domain.E(domain.KindInvalid, "load", fmt.Errorf("unknown relation %q", q.Relation))
		}
	case ScopeItems:
		if len(q.IDs) == 0 {
			return q, domain.E(domain.KindInvalid, "load", fmt.Errorf("items scope needs ids"))
		}
	default:
		return q, domain.E(domain.KindInvalid, "load", fmt.Errorf("unknown scope %q", q.Scope))
	}

	if q.Cursor != "" && q.Scope != ScopeRelation && q.Scope != ScopeItems {
		if _, _, err := parseCursor(q.Cursor); err != nil {
			return q, domain.E(domain.KindInvalid, "load", err)
		}
	}
	return q, nil
}

// Loader fetches a page of items and the session's membership sets.
type Loader struct {
	backend Backend
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewLoader(backend Backend, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{backend: backend, log: log, metrics: metrics.Get()}
}

// Open loads a page and binds it to a new view. A failed load notifies the user
// and still returns a usable, empty view alongside the error.
func (l *Loader) Open(ctx context.Context, session domain.Session, q Query, notifier Notifier) (*View, error) {
	c, err := l.Load(ctx, session, q)
	if err != nil && domain.KindOf(err) == domain.KindRemoteFetch && notifier != nil {
		notifier.Notify(noticeLoadFailed)
	}
	return NewView(ctx, session, c, notifier), err
}

// Load never returns a partial collection: on error the result is empty.
func (l *Loader) Load(ctx context.Context, session domain.Session, q Query) (Collection, error) {
	q, err := q.normalized()
	if err != nil {
		return emptyCollection(), err
	}

	c, err := l.load(ctx, session, q)
	status := "success"
	if err != nil {
		status = "failure"
		l.log.Warn("collection load failed",
			zap.String("scope", string(q.Scope)),
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
		c = emptyCollection()
		err = domain.E(domain.KindRemoteFetch, "load "+string(q.Scope), err)
	}
	l.metrics.CollectionLoads.WithLabelValues(string(q.Scope), status).Inc()
	return c, err
}

// LoadItem loads one item for a detail page. A missing item is KindNotFound.
func (l *Loader) LoadItem(ctx context.Context, session domain.Session, itemID string) (Collection, error) {
	c, err := l.Load(ctx, session, Query{Scope: ScopeItems, IDs: []string{itemID}, Limit: 1})
	if err != nil {
		return c, err
	}
	if len(c.Items) == 0 {
		return c, domain.E(domain.KindNotFound, "load item", fmt.Errorf("item %s", itemID))
	}
	return c, nil
}

func (l *Loader) load(ctx context.Context, session domain.Session, q Query) (Collection, error) {
	if q.Scope == ScopeRelation && !session.Authenticated() {
		return emptyCollection(), nil
	}

	membership := domain.EmptyMembership()
	var (
		mu        sync.Mutex
		items     []domain.ContentItem
		scopedIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	if session.Authenticated() {
		for _, rel := range domain.Relations {
			g.Go(func() error {
				ids, err := l.backend.ListMembership(gctx, session.UserID, rel)
				if err != nil {
					return fmt.Errorf("list %s: %w", rel, err)
				}
				mu.Lock()
				membership[rel] = domain.NewMembershipSet(ids...)
				if q.Scope == ScopeRelation && rel == q.Relation {
					scopedIDs = ids
				}
				mu.Unlock()
				return nil
			})
		}
	}

	if q.Scope != ScopeRelation {
		g.Go(func() error {
			got, err := l.backend.ListItems(gctx, itemQuery(q))
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			if q.Scope == ScopeItems {
				got = inOrder(q.IDs, got, q.Limit)
			}
			mu.Lock()
			items = got
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Collection{}, err
	}

	c := Collection{Items: items, Membership: membership}

	if q.Scope == ScopeRelation {
		ids := afterCursor(scopedIDs, q.Cursor)
		if len(ids) == 0 {
			c.Items = []domain.ContentItem{}
			return c, nil
		}
		got, err := l.backend.ListItems(ctx, domain.ItemQuery{IDs: ids})
		if err != nil {
			return Collection{}, fmt.Errorf("list items: %w", err)
		}
		c.Items = inOrder(ids, got, q.Limit)
		if len(c.Items) == q.Limit && len(got) > q.Limit {
			c.NextCursor = c.Items[len(c.Items)-1].ID
		}
		return c, nil
	}

	if c.Items == nil {
		c.Items = []domain.ContentItem{}
	}
	if q.Scope != ScopeItems && len(c.Items) == q.Limit {
		c.NextCursor = itemCursor(c.Items[len(c.Items)-1])
	}
	return c, nil
}

func itemQuery(q Query) domain.ItemQuery {
	iq := domain.ItemQuery{Limit: q.Limit}
	switch q.Scope {
	case ScopeOwner:
		iq.OwnerID = q.OwnerID
	case ScopeCategory:
		iq.Category = q.Category
	case ScopeItems:
		iq.IDs = q.IDs
		iq.Limit = 0
	}
	if q.Cursor != "" && q.Scope != ScopeItems {
		// already validated by normalized
		iq.Before, iq.BeforeID, _ = parseCursor(q.Cursor)
	}
	return iq
}

const cursorSep = "|"

// itemCursor positions the next page after item in (created_at DESC, id) order.
func itemCursor(item domain.ContentItem) string {
	return item.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSep + item.ID
}

// parseCursor reads "<RFC3339Nano>|<id>". A bare timestamp is accepted and
// pages strictly before it.
func parseCursor(cursor string) (time.Time, string, error) {
	ts, id, _ := strings.Cut(cursor, cursorSep)
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("bad cursor %q", cursor)
	}
	return t, id, nil
}

// inOrder arranges items in the order of ids, dropping ids with no item.
func inOrder(ids []string, items []domain.ContentItem, limit int) []domain.ContentItem {
	byID := make(map[string]domain.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]domain.ContentItem, 0, min(len(ids), limit))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, item)
		delete(byID, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func afterCursor(ids []string, cursor string) []string {
	if cursor == "" {
		return ids
	}
	for i, id := range ids {
		if id == cursor {
			return ids[i+1:]
		}
	}
	return nil
}
