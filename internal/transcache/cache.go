package transcache

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ordervox/internal/logging"
)

// Entry is a completed transcription result. Entries are immutable
// once stored; expiry and invalidation replace them wholesale.
type Entry struct {
	Key               string    `json:"key"`
	TranscriptionText string    `json:"transcription_text"`
	CostAtComputation float64   `json:"cost_at_computation"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at,omitzero"`
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// ComputeFunc produces a transcription and its incurred cost for a
// cache fill. The context is detached from any single waiter: waiter
// cancellation never cancels an in-flight fill.
type ComputeFunc func(ctx context.Context) (text string, cost float64, err error)

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Options configures a Cache.
type Options struct {
	// TTL bounds entry lifetime. Zero disables expiry.
	TTL time.Duration
	// Capacity bounds the entry count; the least recently used entry
	// is evicted when exceeded. Zero or negative means unbounded.
	Capacity int
	// Path enables JSON persistence of completed entries.
	Path string
}

type inflight struct {
	done  chan struct{}
	entry Entry
	err   error
}

// Cache is a content-addressed transcription cache with an
// at-most-one-concurrent-fill-per-key guarantee.
type Cache struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	entries  map[string]*list.Element // value: Entry
	order    *list.List               // front = most recently used
	inflight map[string]*inflight
	hits     int64
	misses   int64

	// persistMu serializes snapshot writes; concurrent fills must not
	// interleave on the temp file.
	persistMu sync.Mutex
}

// New creates a cache. When opts.Path is set, a previous snapshot is
// loaded best-effort; a corrupt or missing snapshot starts empty.
func New(opts Options, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "transcache")

	c := &Cache{
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		inflight: make(map[string]*inflight),
	}

	if opts.Path != "" {
		if err := c.load(); err != nil {
			logger.Warn("failed to load cache snapshot",
				logging.Error(err),
				logging.String("path", opts.Path))
		}
	}
	return c
}

// Get returns the entry for key if present and unexpired. It never
// triggers a computation.
func (c *Cache) Get(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lookupLocked(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

// GetOrCompute returns the cached entry for key, or runs compute to
// fill it. Exactly one compute runs per key at a time; concurrent
// callers for the same key wait for the in-flight fill and share its
// result. The returned bool is true when no new spend was incurred by
// this caller (a stored entry or another caller's fill served it).
//
// The caller's context cancels only its own wait. The fill itself runs
// to completion in the background and is stored for later callers.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (Entry, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false, errors.New("cache key cannot be empty")
	}
	if compute == nil {
		return Entry{}, false, errors.New("compute function cannot be nil")
	}

	c.mu.Lock()
	if entry, ok := c.lookupLocked(key); ok {
		c.hits++
		c.mu.Unlock()
		return entry, true, nil
	}
	c.misses++

	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return c.await(ctx, fl, true)
	}

	fl := &inflight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()

	// Detach the fill from this caller so client disconnects cannot
	// abandon a computation other waiters depend on.
	go c.fill(context.WithoutCancel(ctx), key, fl, compute)

	return c.await(ctx, fl, false)
}

func (c *Cache) await(ctx context.Context, fl *inflight, shared bool) (Entry, bool, error) {
	select {
	case <-fl.done:
		if fl.err != nil {
			return Entry{}, false, fl.err
		}
		return fl.entry, shared, nil
	case <-ctx.Done():
		return Entry{}, false, ctx.Err()
	}
}

func (c *Cache) fill(ctx context.Context, key string, fl *inflight, compute ComputeFunc) {
	text, cost, err := compute(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err != nil {
		fl.err = err
	} else {
		now := c.now()
		entry := Entry{
			Key:               key,
			TranscriptionText: text,
			CostAtComputation: cost,
			CreatedAt:         now,
		}
		if c.opts.TTL > 0 {
			entry.ExpiresAt = now.Add(c.opts.TTL)
		}
		c.storeLocked(entry)
		fl.entry = entry
	}
	c.mu.Unlock()
	close(fl.done)

	if err != nil {
		c.logger.Debug("cache fill failed", logging.String(logging.FieldCacheKey, key), logging.Error(err))
		return
	}
	if c.opts.Path != "" {
		if saveErr := c.save(); saveErr != nil {
			c.logger.Warn("failed to persist cache snapshot", logging.Error(saveErr))
		}
	}
}

// Invalidate removes the entry for key if present. In-flight fills for
// other keys are unaffected.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()

	if c.opts.Path != "" {
		if err := c.save(); err != nil {
			c.logger.Warn("failed to persist cache snapshot", logging.Error(err))
		}
	}
}

// Expire removes all expired entries and returns how many were dropped.
// Expiry is also applied lazily on lookup, so calling this is optional.
func (c *Cache) Expire() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, elem := range c.entries {
		if elem.Value.(Entry).expired(now) {
			c.order.Remove(elem)
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 && c.opts.Path != "" {
		if err := c.save(); err != nil {
			c.logger.Warn("failed to persist cache snapshot", logging.Error(err))
		}
	}
	return removed
}

// CurrentStats returns hit/miss counters and the live entry count.
func (c *Cache) CurrentStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func (c *Cache) lookupLocked(key string) (Entry, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	entry := elem.Value.(Entry)
	if entry.expired(c.now()) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return Entry{}, false
	}
	c.order.MoveToFront(elem)
	return entry, true
}

func (c *Cache) storeLocked(entry Entry) {
	if elem, ok := c.entries[entry.Key]; ok {
		c.order.Remove(elem)
		delete(c.entries, entry.Key)
	}
	c.entries[entry.Key] = c.order.PushFront(entry)

	if c.opts.Capacity > 0 {
		for len(c.entries) > c.opts.Capacity {
			oldest := c.order.Back()
			if oldest == nil {
				break
			}
			c.removeLocked(oldest.Value.(Entry).Key)
		}
	}
}

func (c *Cache) removeLocked(key string) {
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}
