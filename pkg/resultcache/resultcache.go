// Package resultcache provides a short-lived, process-wide cache of fetched profile records.
package resultcache

import (
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/sfcache"

	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

// DefaultTTL is how long a fetched record is served from memory.
const DefaultTTL = 300 * time.Second

const defaultSize = 4096

// entry is stored as a whole value and never mutated after insertion.
type entry struct {
	at     time.Time
	record *profile.Record
}

// Cache memoizes profile records by identifier for a fixed TTL.
// Expired entries are removed lazily when looked up; there is no background sweep.
// It is safe for concurrent use. Concurrent writers to the same key: last write wins.
type Cache struct {
	store  *sfcache.MemoryCache[profile.Identifier, entry]
	now    func() time.Time
	logger *slog.Logger
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	now    func() time.Time
	logger *slog.Logger
	size   int
}

// WithClock sets the time source used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithSize bounds the number of entries kept in memory. A non-positive n
// keeps the default.
func WithSize(n int) Option {
	return func(c *config) { c.size = n }
}

// New creates a Cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	cfg := &config{now: time.Now, logger: slog.Default(), size: defaultSize}
	for _, opt := range opts {
		opt(cfg)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cfg.size <= 0 {
		cfg.size = defaultSize
	}

	return &Cache{
		store:  sfcache.New[profile.Identifier, entry](sfcache.Size(cfg.size)),
		now:    cfg.now,
		logger: cfg.logger,
		ttl:    ttl,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached record for id. An entry older than the TTL is
// treated as absent and removed.
func (c *Cache) Get(id profile.Identifier) (*profile.Record, bool) {
	e, ok := c.store.Get(id)
	if !ok {
		return nil, false
	}
	if age := c.now().Sub(e.at); age > c.ttl {
		c.store.Delete(id)
		c.logger.Debug("result cache expired", "id", id, "age", age)
		return nil, false
	}
	return e.record, true
}

// Set stores rec under id, replacing any previous entry.
func (c *Cache) Set(id profile.Identifier, rec *profile.Record) {
	if rec == nil {
		return
	}
	c.store.Set(id, entry{at: c.now(), record: rec})
}
