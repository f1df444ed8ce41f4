// Package throttle implements a fixed-window attempt counter keyed by an
// opaque client identity.
//
// A key is limited once it has recorded MaxAttempts attempts and the most
// recent one is no older than Window. Entries whose window has elapsed are
// treated as absent and are dropped lazily on access; the optional sweeper
// only reclaims memory and never changes results. Because the window
// restarts from the first attempt after expiry, attempts that straddle a
// reset can reach 2*MaxAttempts-1 inside one Window span.
package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/bucketing"
	"rental-site/internal/clock"
)

const (
	DefaultMaxAttempts     = 3
	DefaultWindow          = 15 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
	defaultShards          = 16
)

type Config struct {
	MaxAttempts     int
	Window          time.Duration
	CleanupInterval time.Duration
	Shards          int
}

type entry struct {
	count       int
	lastAttempt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Throttle is safe for concurrent use. Every operation on a key runs under
// that key's shard lock, so check-and-record sequences are atomic.
type Throttle struct {
	maxAttempts     int
	window          time.Duration
	cleanupInterval time.Duration

	clock   clock.Clock
	buckets *bucketing.BucketingManager
	shards  []*shard
	logger  *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type Option func(*Throttle)

func WithClock(c clock.Clock) Option {
	return func(t *Throttle) { t.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Throttle) { t.logger = l }
}

func New(cfg Config, opts ...Option) *Throttle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Shards <= 0 {
		cfg.Shards = defaultShards
	}

	t := &Throttle{
		maxAttempts:     cfg.MaxAttempts,
		window:          cfg.Window,
		cleanupInterval: cfg.CleanupInterval,
		clock:           clock.Real{},
		buckets:         bucketing.NewBucketingManager(cfg.Shards),
		logger:          zap.NewNop(),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.shards = make([]*shard, t.buckets.Buckets())
	for i := range t.shards {
		t.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return t
}

func (t *Throttle) MaxAttempts() int      { return t.maxAttempts }
func (t *Throttle) Window() time.Duration { return t.window }

// IsLimited reports whether key has used up its attempts in the current
// window. A stale entry is removed and reported as not limited.
func (t *Throttle) IsLimited(key string) bool {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.isLimitedLocked(s, key, t.clock.Now())
}

// RecordAttempt counts an attempt for key, starting a new window when none
// is open.
func (t *Throttle) RecordAttempt(key string) {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	t.recordLocked(s, key, t.clock.Now())
}

// Attempt is IsLimited followed by RecordAttempt under a single lock. It
// returns false, recording nothing, when key is limited.
func (t *Throttle) Attempt(key string) bool {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := t.clock.Now()
	if t.isLimitedLocked(s, key, now) {
		return false
	}
	t.recordLocked(s, key, now)
	return true
}

// Sweep drops every entry whose window has elapsed and returns how many
// were removed.
func (t *Throttle) Sweep() int {
	now := t.clock.Now()
	removed := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if t.expired(e, now) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked keys, stale or not.
func (t *Throttle) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Start runs Sweep every CleanupInterval until ctx is done or Stop is
// called.
func (t *Throttle) Start(ctx context.Context) {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-ticker.C:
				if removed := t.Sweep(); removed > 0 {
					t.logger.Debug("Throttle sweep removed stale entries",
						zap.Int("removed", removed),
						zap.Int("remaining", t.Len()))
				}
			}
		}
	}()
}

// Stop ends a sweeper started with Start and waits for it to exit.
func (t *Throttle) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	if t.started.Load() {
		<-t.done
	}
}

func (t *Throttle) isLimitedLocked(s *shard, key string, now time.Time) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if t.expired(e, now) {
		delete(s.entries, key)
		return false
	}
	return e.count >= t.maxAttempts
}

func (t *Throttle) recordLocked(s *shard, key string, now time.Time) {
	e, ok := s.entries[key]
	if !ok || t.expired(e, now) {
		s.entries[key] = &entry{count: 1, lastAttempt: now}
		return
	}
	e.count++
	e.lastAttempt = now
}

func (t *Throttle) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastAttempt) > t.window
}

func (t *Throttle) shardFor(key string) *shard {
	return t.shards[t.buckets.GetBucket(key)]
}
