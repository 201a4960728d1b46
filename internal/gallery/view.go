package gallery

import (
	"context"
	"sync"

	"clipshare/internal/domain"
)

// Collection is one loaded page: items in remote order plus the session's memberships.
type Collection struct {
	Items      []domain.ContentItem `json:"items"`
	Membership domain.Membership    `json:"-"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func emptyCollection() Collection {
	return Collection{Items: []domain.ContentItem{}, Membership: domain.EmptyMembership()}
}

type toggleKey struct {
	itemID string
	rel    domain.Relation
}

// View owns the membership cache for one page. It is the only place optimistic
// state lives; closing it discards any toggle result that arrives afterwards.
type View struct {
	session  domain.Session
	notifier Notifier
	ctx      context.Context
	cancel   context.CancelFunc

	mu         sync.RWMutex
	items      []domain.ContentItem
	index      map[string]int
	membership domain.Membership
	pending    map[toggleKey]bool
	intended   map[toggleKey]bool
	queued     map[toggleKey]int
	nextCursor string
}

// NewView binds a loaded collection to a session. parent bounds the view's lifetime.
func NewView(parent context.Context, session domain.Session, c Collection, notifier Notifier) *View {
	if notifier == nil {
		notifier = discard{}
	}
	ctx, cancel := context.WithCancel(parent)

	membership := domain.EmptyMembership()
	for rel, set := range c.Membership {
		membership[rel] = set.Clone()
	}

	v := &View{
		session:    session,
		notifier:   notifier,
		ctx:        ctx,
		cancel:     cancel,
		items:      append([]domain.ContentItem(nil), c.Items...),
		index:      make(map[string]int, len(c.Items)),
		membership: membership,
		pending:    make(map[toggleKey]bool),
		intended:   make(map[toggleKey]bool),
		queued:     make(map[toggleKey]int),
		nextCursor: c.NextCursor,
	}
	for i, item := range v.items {
		v.index[item.ID] = i
	}
	return v
}

func (v *View) Session() domain.Session { return v.session }

// Close ends the view's lifetime. Pending toggles settle without touching its state.
func (v *View) Close() { v.cancel() }

func (v *View) Closed() bool { return v.ctx.Err() != nil }

func (v *View) Done() <-chan struct{} { return v.ctx.Done() }

// Snapshot returns a copy of the displayed collection, optimistic changes included.
func (v *View) Snapshot() Collection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Collection{
		Items:      append([]domain.ContentItem(nil), v.items...),
		Membership: v.membership.Clone(),
		NextCursor: v.nextCursor,
	}
}

func (v *View) Item(id string) (domain.ContentItem, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i, ok := v.index[id]
	if !ok {
		return domain.ContentItem{}, false
	}
	return v.items[i], true
}

func (v *View) IsMember(itemID string, rel domain.Relation) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.membership.Has(rel, itemID)
}

func (v *View) State(itemID string, rel domain.Relation) domain.ToggleState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stateLocked(toggleKey{itemID, rel})
}

// PendingStates lists every key with a toggle in flight.
func (v *View) PendingStates() map[string]map[domain.Relation]domain.ToggleState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]map[domain.Relation]domain.ToggleState, len(v.pending))
	for k := range v.pending {
		if out[k.itemID] == nil {
			out[k.itemID] = make(map[domain.Relation]domain.ToggleState)
		}
		out[k.itemID][k.rel] = v.stateLocked(k)
	}
	return out
}

func (v *View) stateLocked(k toggleKey) domain.ToggleState {
	member := v.membership.Has(k.rel, k.itemID)
	if target, ok := v.pending[k]; ok {
		if target {
			return domain.StatePendingPresent
		}
		return domain.StatePendingAbsent
	}
	if member {
		return domain.StatePresent
	}
	return domain.StateAbsent
}

// nextTarget flips the most recently submitted intent for the key, or the
// displayed membership when nothing is queued.
func (v *View) nextTarget(k toggleKey) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.nextTargetLocked(k)
}

func (v *View) nextTargetLocked(k toggleKey) bool {
	if target, ok := v.intended[k]; ok {
		return !target
	}
	return !v.membership.Has(k.rel, k.itemID)
}

// reserve records an intent and takes its queue slot under one lock, so the
// targets of concurrent submissions alternate in queue order. With flip set
// the given target is ignored and derived from the latest intent instead.
func (v *View) reserve(k toggleKey, target, flip bool, enqueue func() *Ticket) (bool, *Ticket) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if flip {
		target = v.nextTargetLocked(k)
	}
	ticket := enqueue()
	v.intended[k] = target
	v.queued[k]++
	return target, ticket
}

func (v *View) finished(k toggleKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queued[k]--
	if v.queued[k] <= 0 {
		delete(v.queued, k)
		delete(v.intended, k)
	}
}

// applied records what an optimistic update changed so it can be undone exactly.
type applied struct {
	key       toggleKey
	target    bool
	likeDelta int64
	hasItem   bool
	noop      bool
}

// begin applies the optimistic update. When the key is already in the target
// state nothing changes and noop is set.
func (v *View) begin(k toggleKey, target bool) applied {
	v.mu.Lock()
	defer v.mu.Unlock()

	a := applied{key: k, target: target}
	if v.membership.Has(k.rel, k.itemID) == target {
		a.noop = true
		return a
	}

	v.membership.Set(k.rel, k.itemID, target)
	v.pending[k] = target

	if i, ok := v.index[k.itemID]; ok {
		a.hasItem = true
		if k.rel.AdjustsCounter() {
			a.likeDelta = 1
			if !target {
				a.likeDelta = -1
				if v.items[i].LikeCount == 0 {
					a.likeDelta = 0
				}
			}
			v.items[i].LikeCount += a.likeDelta
		}
	}
	return a
}

// confirm settles a successful toggle. The optimistic state is already in place.
func (v *View) confirm(a applied) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pending, a.key)
}

// rollback restores membership and like count to their values before begin.
func (v *View) rollback(a applied) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pending, a.key)
	v.membership.Set(a.key.rel, a.key.itemID, !a.target)
	v.revertDeltaLocked(a)
}

// alreadySettled handles a store that was already in the target state: the
// membership stands but the count had already included it.
func (v *View) alreadySettled(a applied) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pending, a.key)
	v.revertDeltaLocked(a)
}

func (v *View) revertDeltaLocked(a applied) {
	if !a.hasItem || a.likeDelta == 0 {
		return
	}
	if i, ok := v.index[a.key.itemID]; ok {
		v.items[i].LikeCount -= a.likeDelta
	}
}

func (v *View) likeCount(itemID string) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if i, ok := v.index[itemID]; ok {
		return v.items[i].LikeCount
	}
	return 0
}
