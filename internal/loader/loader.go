package loader

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// defaultWait is the collection window for one batch. Keys requested while a
// batch is open are merged into a single underlying query.
const defaultWait = time.Millisecond

// BatchFunc fetches values for a set of keys in one query. It must return
// one value per key, in key order, with the zero value for absent keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

type thunk[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Loader coalesces single-key lookups into batched queries and caches every
// result for its own lifetime. A Loader is scoped to one logical request and
// must never be shared across requests.
type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]
	wait  time.Duration

	mu      sync.Mutex
	cache   map[K]*thunk[V]
	pending []K
}

// New creates a loader around a batch function. wait <= 0 selects the
// default collection window.
func New[K comparable, V any](batch BatchFunc[K, V], wait time.Duration) *Loader[K, V] {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Loader[K, V]{
		batch: batch,
		wait:  wait,
		cache: make(map[K]*thunk[V]),
	}
}

// Load returns the value for key, blocking until the batch containing it has
// been fetched. Repeated loads of the same key share one result.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.await(ctx, l.enqueue(ctx, key))
}

// LoadAll returns values for all keys in order. All keys are registered
// before any waiting happens, so a LoadAll never needs more than one batch.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) ([]V, error) {
	thunks := make([]*thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.enqueue(ctx, key)
	}

	values := make([]V, len(keys))
	for i, t := range thunks {
		v, err := l.await(ctx, t)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (l *Loader[K, V]) enqueue(ctx context.Context, key K) *thunk[V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[key]; ok {
		return t
	}

	t := &thunk[V]{done: make(chan struct{})}
	l.cache[key] = t
	l.pending = append(l.pending, key)

	// First key of a new batch schedules the flush; later keys ride along.
	if len(l.pending) == 1 {
		time.AfterFunc(l.wait, func() { l.dispatch(ctx) })
	}
	return t
}

func (l *Loader[K, V]) dispatch(ctx context.Context) {
	l.mu.Lock()
	keys := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	values, err := l.batch(ctx, keys)
	if err == nil && len(values) != len(keys) {
		err = fmt.Errorf("batch returned %d values for %d keys", len(values), len(keys))
	}

	l.mu.Lock()
	for i, key := range keys {
		t := l.cache[key]
		if err != nil {
			t.err = err
		} else {
			t.val = values[i]
		}
		close(t.done)
	}
	l.mu.Unlock()
}

func (l *Loader[K, V]) await(ctx context.Context, t *thunk[V]) (V, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
