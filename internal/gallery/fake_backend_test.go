package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clipshare/internal/domain"
)

var errBackendDown = errors.New("backend unavailable")

type fakeNotification struct {
	userID, message, kind string
}

// fakeBackend is an in-memory platform with switchable failures.
type fakeBackend struct {
	mu sync.Mutex

	items   []domain.ContentItem
	members map[string][]string // user|rel -> item ids, newest first

	failList    error
	failInsert  error
	failDelete  error
	failCounter error

	// gate, when set, holds every membership write until it is closed.
	gate chan struct{}

	calls         []string
	notifications []fakeNotification
}

func newFakeBackend(items ...domain.ContentItem) *fakeBackend {
	return &fakeBackend{items: items, members: make(map[string][]string)}
}

func memberKey(userID string, rel domain.Relation) string {
	return userID + "|" + string(rel)
}

func (f *fakeBackend) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeBackend) setMembers(userID string, rel domain.Relation, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[memberKey(userID, rel)] = ids
}

func (f *fakeBackend) isMember(userID, itemID string, rel domain.Relation) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.members[memberKey(userID, rel)] {
		if id == itemID {
			return true
		}
	}
	return false
}

func (f *fakeBackend) likes(itemID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == itemID {
			return item.LikeCount
		}
	}
	return -1
}

func (f *fakeBackend) sentNotifications() []fakeNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeNotification(nil), f.notifications...)
}

func (f *fakeBackend) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) ListItems(ctx context.Context, q domain.ItemQuery) ([]domain.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListItems")
	if f.failList != nil {
		return nil, f.failList
	}

	var want map[string]bool
	if q.IDs != nil {
		want = make(map[string]bool, len(q.IDs))
		for _, id := range q.IDs {
			want[id] = true
		}
	}

	var out []domain.ContentItem
	for _, item := range f.items {
		if want != nil && !want[item.ID] {
			continue
		}
		if q.OwnerID != "" && item.OwnerID != q.OwnerID {
			continue
		}
		if !q.Before.IsZero() && !item.CreatedAt.Before(q.Before) {
			if q.BeforeID == "" || !item.CreatedAt.Equal(q.Before) || item.ID <= q.BeforeID {
				continue
			}
		}
		out = append(out, item)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBackend) ListMembership(ctx context.Context, userID string, rel domain.Relation) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMembership %s", rel)
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]string(nil), f.members[memberKey(userID, rel)]...), nil
}

func (f *fakeBackend) InsertMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Insert %s %s", itemID, rel)
	if f.failInsert != nil {
		return f.failInsert
	}
	k := memberKey(userID, rel)
	for _, id := range f.members[k] {
		if id == itemID {
			return domain.E(domain.KindConflict, "insert membership", domain.ErrDuplicateMembership)
		}
	}
	f.members[k] = append([]string{itemID}, f.members[k]...)
	return nil
}

func (f *fakeBackend) DeleteMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Delete %s %s", itemID, rel)
	if f.failDelete != nil {
		return f.failDelete
	}
	k := memberKey(userID, rel)
	for i, id := range f.members[k] {
		if id == itemID {
			f.members[k] = append(f.members[k][:i:i], f.members[k][i+1:]...)
			return nil
		}
	}
	return domain.E(domain.KindConflict, "delete membership", domain.ErrMissingMembership)
}

func (f *fakeBackend) AdjustCounter(ctx context.Context, itemID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Adjust %s %+d", itemID, delta)
	if f.failCounter != nil {
		return f.failCounter
	}
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items[i].LikeCount += int64(delta)
			if f.items[i].LikeCount < 0 {
				f.items[i].LikeCount = 0
			}
			return nil
		}
	}
	return domain.E(domain.KindNotFound, "adjust counter", nil)
}

func (f *fakeBackend) CreateNotification(ctx context.Context, userID, message, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Notify %s", userID)
	f.notifications = append(f.notifications, fakeNotification{userID, message, kind})
	return nil
}

func testItems(n int) []domain.ContentItem {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := make([]domain.ContentItem, n)
	for i := range items {
		items[i] = domain.ContentItem{
			ID:        fmt.Sprintf("img_%d", i+1),
			Title:     fmt.Sprintf("Imagem %d", i+1),
			MediaURL:  fmt.Sprintf("http://localhost:8080/media/f%d", i+1),
			Kind:      domain.KindImage,
			OwnerID:   "owner_1",
			LikeCount: int64(10 * (i + 1)),
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return items
}
