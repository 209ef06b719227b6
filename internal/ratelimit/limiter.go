// Package ratelimit implements an in-memory, fixed-window request limiter
// keyed by caller identity.
//
// Counters live in a fixed number of shards keyed by an xxhash of the
// identifier. Every Check increments its counter inside its shard's critical
// section, so concurrent bursts from the same caller never lose updates.
// Expired windows are removed by a background sweep (Start) that locks one
// shard at a time, so a sweep over a large map only stalls the callers that
// hash to the shard being swept.
//
// The limiter is process-local. It is constructed once at startup and
// injected wherever admission checks happen; tests build a fresh instance
// per case with a fake clock.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

const shardCount = 32

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// RetryAfter returns the whole seconds until the window resets, rounded up
// and never less than one.
func (d Decision) RetryAfter(now time.Time) int {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 1
	}
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Limiter holds one counter per identifier. It is safe for concurrent use.
type Limiter struct {
	shards [shardCount]shard

	now           func() time.Time
	sweepInterval time.Duration
	denyLog       *rate.Sometimes

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects the time source used for window math.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSweepInterval sets how often Start removes expired entries.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.sweepInterval = d
		}
	}
}

// New returns an empty limiter. Call Start to enable the background sweep.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		denyLog:       &rate.Sometimes{First: 3, Interval: 10 * time.Second},
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) shardFor(identifier string) *shard {
	return &l.shards[xxhash.Sum64String(identifier)%shardCount]
}

// Check counts one request for identifier against a window of maxRequests
// per window. A missing or expired entry starts a new window with count 1.
// A non-positive maxRequests denies everything.
func (l *Limiter) Check(identifier string, maxRequests int, window time.Duration) Decision {
	now := l.now()
	sh := l.shardFor(identifier)

	sh.mu.Lock()
	e, ok := sh.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		sh.entries[identifier] = e
	} else {
		e.count++
	}
	count, resetAt := e.count, e.resetAt
	sh.mu.Unlock()

	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   count <= maxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
		Limit:     maxRequests,
	}
	if !d.Allowed {
		l.denyLog.Do(func() {
			log.Warn().
				Str("identifier", identifier).
				Int("limit", maxRequests).
				Int("count", count).
				Time("reset_at", resetAt).
				Msg("rate limit exceeded")
		})
	}
	return d
}

// Sweep deletes every entry whose window has passed and returns how many
// were removed. Shards are swept one after another, each under its own
// write lock.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	for i := range l.shards {
		removed += l.shards[i].sweep(now)
	}
	return removed
}

func (sh *shard) sweep(now time.Time) int {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	n := 0
	for k, e := range sh.entries {
		if !now.Before(e.resetAt) {
			delete(sh.entries, k)
			n++
		}
	}
	return n
}

// Now returns the limiter's current time.
func (l *Limiter) Now() time.Time { return l.now() }

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	n := 0
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Start runs Sweep every sweep interval until ctx is done or Stop is
// called. It returns immediately; repeated calls are ignored.
func (l *Limiter) Start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(l.done)
		t := time.NewTicker(l.sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stop:
				return
			case <-t.C:
				if n := l.Sweep(); n > 0 {
					log.Debug().Int("removed", n).Int("remaining", l.Len()).Msg("rate limit sweep")
				}
			}
		}
	}()
}

// Stop ends the sweep goroutine started by Start and waits for it to exit.
// It is safe to call more than once, and without a prior Start.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	if l.started.Load() {
		<-l.done
	}
}
