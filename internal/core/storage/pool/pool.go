// Package pool keeps one open DocumentStore per connection target.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/aevon-lab/tracelens/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize bounds the number of open stores when none is configured.
const DefaultSize = 8

// Target identifies a store as submitted by the form.
type Target struct {
	Host string
	Port int
	DB   string
}

// Key is the pool key of t: "host:port/db".
func (t Target) Key() string {
	return fmt.Sprintf("%s:%d/%s", t.Host, t.Port, t.DB)
}

// Opener opens a store for a target.
type Opener func(ctx context.Context, t Target) (storage.DocumentStore, error)

// Release hands a store obtained from Get back to the pool. Calling it more
// than once is a no-op.
type Release func()

// Pool caches open stores in an LRU. Concurrent opens of the same target
// share one attempt. An evicted store is closed once every holder has
// released it.
type Pool struct {
	open   Opener
	cache  *lru.Cache[string, *entry]
	group  singleflight.Group
	mu     sync.Mutex
	closed bool
}

// entry counts the holders of one open store.
type entry struct {
	key   string
	store storage.DocumentStore

	mu      sync.Mutex
	refs    int
	evicted bool
	shut    bool
}

// acquire takes a reference. It fails once the store has been closed.
func (e *entry) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shut {
		return false
	}
	e.refs++
	return true
}

func (e *entry) release() {
	e.mu.Lock()
	e.refs--
	closeNow := e.evicted && e.refs == 0 && !e.shut
	if closeNow {
		e.shut = true
	}
	e.mu.Unlock()
	if closeNow {
		e.close()
	}
}

func (e *entry) evict() {
	e.mu.Lock()
	e.evicted = true
	closeNow := e.refs == 0 && !e.shut
	if closeNow {
		e.shut = true
	}
	e.mu.Unlock()
	if closeNow {
		e.close()
	}
}

func (e *entry) close() {
	metrics.OpenStores.Dec()
	if err := e.store.Close(); err != nil {
		slog.Warn("[Pool] Failed to close evicted store", "target", e.key, "error", err)
		return
	}
	slog.Debug("[Pool] Closed evicted store", "target", e.key)
}

// New creates a pool holding at most size stores.
func New(size int, open Opener) (*Pool, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.NewWithEvict(size, func(_ string, e *entry) {
		e.evict()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store cache: %w", err)
	}
	return &Pool{open: open, cache: cache}, nil
}

// Get returns the store for t, opening it on first use, and the Release the
// caller must invoke when done with it. Failed opens are not cached.
func (p *Pool) Get(ctx context.Context, t Target) (storage.DocumentStore, Release, error) {
	key := t.Key()
	for {
		e, err := p.lookup(ctx, key, t)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open store %s: %w", key, err)
		}
		if e.acquire() {
			var once sync.Once
			return e.store, func() { once.Do(e.release) }, nil
		}
		// Evicted and closed between lookup and acquire; open it again.
	}
}

func (p *Pool) lookup(ctx context.Context, key string, t Target) (*entry, error) {
	if e, ok := p.cache.Get(key); ok {
		return e, nil
	}

	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		if e, ok := p.cache.Get(key); ok {
			return e, nil
		}

		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return nil, fmt.Errorf("pool closed")
		}

		store, err := p.open(ctx, t)
		if err != nil {
			return nil, err
		}
		e := &entry{key: key, store: store}
		metrics.OpenStores.Inc()
		p.cache.Add(key, e)
		slog.Info("[Pool] Opened store", "target", key, "open_stores", p.cache.Len())
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*entry), nil
}

// Len returns the number of open stores.
func (p *Pool) Len() int {
	return p.cache.Len()
}

// Close evicts every open store; stores still held close on their last
// release. Later Gets fail.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cache.Purge()
	return nil
}

// Ping checks the store of the default target, the one the configured DSN or
// path names without form overrides.
func (p *Pool) Ping(ctx context.Context) error {
	store, release, err := p.Get(ctx, Target{})
	if err != nil {
		return err
	}
	defer release()
	return store.Ping(ctx)
}
