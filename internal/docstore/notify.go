package docstore

import (
	"context"
	"sync"
)

// Subscription delivers query result snapshots. The channel is buffered with
// capacity one; when the receiver lags, a newer snapshot replaces the pending
// one rather than blocking the writer.
type Subscription[T Document] struct {
	ch     chan []T
	cancel func()
	once   sync.Once
}

// Snapshots yields the latest query results. The channel is closed by
// Unsubscribe.
func (s *Subscription[T]) Snapshots() <-chan []T {
	return s.ch
}

func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(s.cancel)
}

// hub fans writes out to subscriptions. Both backends are in-process, so a
// write always passes through the collection that owns the hub.
type hub[T Document] struct {
	mu   sync.Mutex
	next int
	subs map[int]*hubSub[T]
}

type hubSub[T Document] struct {
	query Query
	ch    chan []T
}

func newHub[T Document]() *hub[T] {
	return &hub[T]{subs: make(map[int]*hubSub[T])}
}

func (h *hub[T]) subscribe(q Query, initial []T) *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	sub := &hubSub[T]{query: q, ch: make(chan []T, 1)}
	sub.ch <- initial
	h.subs[id] = sub

	return &Subscription[T]{
		ch: sub.ch,
		cancel: func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
		},
	}
}

// broadcast re-runs every subscriber's query and pushes a fresh snapshot,
// replacing any undelivered one.
func (h *hub[T]) broadcast(ctx context.Context, find func(context.Context, Query) ([]T, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		snapshot, err := find(ctx, sub.query)
		if err != nil {
			continue
		}
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
}
