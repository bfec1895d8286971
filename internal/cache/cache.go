package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for key from the backend.
type Fetcher[V any] func(ctx context.Context, key content.FetchKey) (V, error)

// Clock is the time source used for staleness. Tests substitute a manual
// clock so nothing depends on wall time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Persister keeps the last good value per key across runs. Restored values
// are shown but never treated as fresh.
type Persister[V any] interface {
	Restore(key content.FetchKey) (value V, fetchedAt time.Time, ok bool, err error)
	Persist(key content.FetchKey, value V, fetchedAt time.Time) error
}

// Purger is implemented by persisters that can drop everything they hold.
// Clear calls it so a reset also forgets the persisted values.
type Purger interface {
	Purge() error
}

type Options[V any] struct {
	// TTL bounds how long a fetched value counts as fresh. Zero means a
	// value stays fresh until invalidated.
	TTL       time.Duration
	Clock     Clock
	Persister Persister[V]
}

// Status describes what the cache holds for one key.
type Status struct {
	Present bool
	Fresh   bool
	Loading bool
	Err     error
}

// State is the data, error and loading triple a view renders from.
type State[V any] struct {
	Data    V
	Err     error
	Loading bool
	Present bool
}

type Stats struct {
	Hits    uint64
	Misses  uint64
	Joins   uint64
	Fetches uint64
	Errors  uint64
}

type entry[V any] struct {
	data      V
	present   bool
	fresh     bool
	fetchedAt time.Time
	err       error
	inflight  int
	// gen numbers fetches as they start. Only the most recently started
	// fetch may write data, and only fetches numbered validFrom or later
	// may mark the entry fresh.
	gen       uint64
	validFrom uint64
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu        sync.Mutex
	entries   map[content.FetchKey]*entry[V]
	group     singleflight.Group
	ttl       time.Duration
	clock     Clock
	persister Persister[V]
	// persistMu orders Persist calls against Clear so a fetch that finished
	// before a reset cannot write its value back afterwards.
	persistMu sync.Mutex
	stats     Stats
	log       *debuglog.FieldLogger
}

func New[V any](opts Options[V]) *Cache[V] {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Cache[V]{
		entries:   make(map[content.FetchKey]*entry[V]),
		ttl:       opts.TTL,
		clock:     clock,
		persister: opts.Persister,
		log:       debuglog.WithFields(map[string]any{"component": "cache"}),
	}
}

func flightKey(key content.FetchKey) string {
	return fmt.Sprintf("%s|%t|%q", key.Kind, key.Filtered, key.Tag)
}

// entryLocked returns the entry for key, creating it and restoring any
// persisted value on first use.
func (c *Cache[V]) entryLocked(key content.FetchKey) *entry[V] {
	if e, ok := c.entries[key]; ok {
		return e
	}
	e := &entry[V]{}
	c.entries[key] = e
	if c.persister != nil {
		v, at, ok, err := c.persister.Restore(key)
		switch {
		case err != nil:
			c.log.Warnf("restoring %s: %v", key, err)
		case ok:
			e.data, e.present, e.fetchedAt = v, true, at
		}
	}
	return e
}

func (c *Cache[V]) freshLocked(e *entry[V]) bool {
	if !e.present || !e.fresh {
		return false
	}
	return c.ttl <= 0 || c.clock.Now().Sub(e.fetchedAt) < c.ttl
}

// Read returns the value for key. A fresh value is returned without a
// request. Otherwise the caller joins the fetch already in flight for key,
// or starts one that later callers will join.
func (c *Cache[V]) Read(ctx context.Context, key content.FetchKey, fetch Fetcher[V]) (V, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		c.stats.Hits++
		v := e.data
		c.mu.Unlock()
		c.log.Debugf("hit %s", key)
		return v, nil
	}
	if e.inflight > 0 {
		c.stats.Joins++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()

	return c.await(ctx, key, fetch)
}

// Invalidate marks key stale and runs exactly one fresh fetch, returning its
// result. A fetch that was already in flight is not joined, and its result
// can no longer overwrite the newer one.
func (c *Cache[V]) Invalidate(ctx context.Context, key content.FetchKey, fetch Fetcher[V]) (V, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.fresh = false
	e.validFrom = e.gen + 1
	c.mu.Unlock()

	c.group.Forget(flightKey(key))
	c.log.Debugf("invalidate %s", key)
	return c.await(ctx, key, fetch)
}

// InvalidateKind marks every cached key of kind stale. Nothing is fetched
// until the next Read.
func (c *Cache[V]) InvalidateKind(kind content.Kind) {
	c.mu.Lock()
	var keys []content.FetchKey
	for key, e := range c.entries {
		if key.Kind != kind {
			continue
		}
		e.fresh = false
		e.validFrom = e.gen + 1
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(flightKey(key))
	}
	c.log.Debugf("invalidate kind %s (%d keys)", kind, len(keys))
}

// Clear drops every entry, e.g. after sign-out. A persister that is also
// a Purger loses its values too.
func (c *Cache[V]) Clear() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	var keys []content.FetchKey
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[content.FetchKey]*entry[V])
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(flightKey(key))
	}
	if p, ok := c.persister.(Purger); ok {
		if err := p.Purge(); err != nil {
			c.log.Warnf("purging persisted values: %v", err)
		}
	}
	c.log.Debugf("cleared %d keys, stats %+v", len(keys), c.Stats())
}

func (c *Cache[V]) await(ctx context.Context, key content.FetchKey, fetch Fetcher[V]) (V, error) {
	// The shared fetch outlives any one caller's cancellation; callers stop
	// waiting on their own context.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(key), func() (any, error) {
		return c.run(shared, key, fetch)
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[V]) run(ctx context.Context, key content.FetchKey, fetch Fetcher[V]) (V, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	// A caller that saw a stale entry may reach here after another flight
	// for the key already refreshed it.
	if c.freshLocked(e) {
		v := e.data
		c.mu.Unlock()
		return v, nil
	}
	e.gen++
	gen := e.gen
	e.inflight++
	c.stats.Fetches++
	c.mu.Unlock()

	v, err := fetch(ctx, key)

	c.mu.Lock()
	// Clear may have replaced the entry while the fetch ran.
	cur, ok := c.entries[key]
	if !ok || cur != e {
		c.mu.Unlock()
		return v, err
	}
	e.inflight--
	if gen != e.gen {
		c.mu.Unlock()
		c.log.Debugf("discarding superseded fetch %s (gen %d < %d)", key, gen, e.gen)
		return v, err
	}
	if err != nil {
		c.stats.Errors++
		e.err = err
		e.fresh = false
		c.mu.Unlock()
		c.log.Debugf("fetch %s failed: %v", key, err)
		return v, err
	}
	now := c.clock.Now()
	e.data, e.present, e.err = v, true, nil
	e.fetchedAt = now
	e.fresh = gen >= e.validFrom
	c.mu.Unlock()

	if c.persister != nil {
		c.persist(key, e, gen, v, now)
	}
	return v, nil
}

func (c *Cache[V]) persist(key content.FetchKey, e *entry[V], gen uint64, v V, at time.Time) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	current := c.entries[key] == e && e.gen == gen
	c.mu.Unlock()
	if !current {
		return
	}
	if err := c.persister.Persist(key, v, at); err != nil {
		c.log.Warnf("persisting %s: %v", key, err)
	}
}

// Peek returns whatever is cached for key without fetching.
func (c *Cache[V]) Peek(key content.FetchKey) (V, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	return e.data, Status{
		Present: e.present,
		Fresh:   c.freshLocked(e),
		Loading: e.inflight > 0,
		Err:     e.err,
	}
}

// State is Peek in the shape a view renders.
func (c *Cache[V]) State(key content.FetchKey) State[V] {
	v, st := c.Peek(key)
	return State[V]{Data: v, Err: st.Err, Loading: st.Loading, Present: st.Present}
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
