package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/clock"
)

const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

type RegistryConfig struct {
	DefaultDuration time.Duration
	IdleTTL         time.Duration
	SweepInterval   time.Duration
}

type session struct {
	queue    *Queue
	lastSeen time.Time
}

// Registry owns one Queue per browser session. Sessions untouched for
// IdleTTL are closed by Sweep.
type Registry struct {
	mu       sync.Mutex
	cfg      RegistryConfig
	clock    clock.Clock
	logger   *zap.Logger
	sessions map[string]*session

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

type RegistryOption func(*Registry)

func WithRegistryClock(c clock.Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(cfg RegistryConfig, opts ...RegistryOption) *Registry {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = DefaultDuration
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	r := &Registry{
		cfg:      cfg,
		clock:    clock.Real{},
		logger:   zap.NewNop(),
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Queue returns the queue for sessionID, creating it on first use.
func (r *Registry) Queue(sessionID string) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{queue: NewQueue(
			WithQueueClock(r.clock),
			WithDefaultDuration(r.cfg.DefaultDuration),
		)}
		r.sessions[sessionID] = s
	}
	s.lastSeen = now
	return s.queue
}

// Lookup returns the session's queue without creating one. A hit counts as
// activity for the idle sweep.
func (r *Registry) Lookup(sessionID string) (*Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.clock.Now()
	return s.queue, true
}

func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and forgets sessions idle for longer than IdleTTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	now := r.clock.Now()
	var idle []*Queue
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.cfg.IdleTTL {
			idle = append(idle, s.queue)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, q := range idle {
		q.Close()
	}
	return len(idle)
}

// Start sweeps idle sessions every SweepInterval until ctx is done or
// Close is called.
func (r *Registry) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.logger.Debug("Evicted idle notification sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the sweeper and tears down every session queue.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.queue.Close()
	}
}
