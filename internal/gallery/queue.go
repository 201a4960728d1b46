package gallery

import (
	"context"
	"sync"
)

// KeyedQueue runs work for the same key one at a time in submission order.
// Different keys never wait on each other. A zero KeyedQueue is ready to use.
type KeyedQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{tails: make(map[string]chan struct{})}
}

// Ticket is a reserved position in a key's line.
type Ticket struct {
	q    *KeyedQueue
	key  string
	prev <-chan struct{}
	mine chan struct{}
	once sync.Once
}

// Enqueue reserves the next position for key. The position is fixed at call time.
func (q *KeyedQueue) Enqueue(key string) *Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tails == nil {
		q.tails = make(map[string]chan struct{})
	}

	t := &Ticket{q: q, key: key, prev: q.tails[key], mine: make(chan struct{})}
	q.tails[key] = t.mine
	return t
}

// Wait blocks until every earlier ticket for the key is done, or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	if t.prev == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done hands the key to the next ticket. If an earlier ticket is still running,
// the hand-off is deferred until it finishes so later tickets keep their order.
func (t *Ticket) Done() {
	t.once.Do(func() {
		if t.prev != nil {
			select {
			case <-t.prev:
			default:
				go func() {
					<-t.prev
					t.release()
				}()
				return
			}
		}
		t.release()
	})
}

func (t *Ticket) release() {
	close(t.mine)
	t.q.mu.Lock()
	if t.q.tails[t.key] == t.mine {
		delete(t.q.tails, t.key)
	}
	t.q.mu.Unlock()
}

// Pending reports how many keys currently have work queued or running.
func (q *KeyedQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}
