// Package cache implements the list cache and query controller for the
// patient collection. It is the single source of truth for list data: no
// consumer mutates cached records in place, all updates flow through
// invalidation and refetch.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"patientpanel/internal/patient/models"
	"patientpanel/internal/platform/metrics"
)

// cacheKey is the stable key for the patient collection; all consumers share
// the one entry behind it.
const cacheKey = "patients"

// State is the externally visible condition of the cache entry.
type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Snapshot is an immutable view of the cache entry. During a background
// refetch the previous records stay visible; they are swapped atomically when
// the new data lands.
type Snapshot struct {
	State      State
	Records    []models.Record
	ErrMessage string
	FetchedAt  time.Time
}

// Fetcher lists the collection from the record store.
type Fetcher interface {
	List(ctx context.Context) ([]models.Record, error)
}

const (
	defaultStaleAfter = 5 * time.Minute
	defaultAttempts   = 3
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Controller fetches the collection, tracks loading/error/success, retries
// failures with capped exponential backoff, and serves fresh reads from
// memory without a network round trip.
type Controller struct {
	fetcher    Fetcher
	store      Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	staleAfter time.Duration
	attempts   int
	baseDelay  time.Duration
	maxDelay   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu        sync.Mutex
	snap      Snapshot
	stale     bool
	inflight  bool
	cancelRun context.CancelFunc
	runSeq    uint64
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithStore enables write-through snapshot persistence and warm starts.
func WithStore(store Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

func WithStaleAfter(d time.Duration) Option {
	return func(c *Controller) {
		c.staleAfter = d
	}
}

// WithRetry bounds the automatic retry loop: attempts failed tries are
// retried with delays of min(base·2ⁿ, max) before the error surfaces.
func WithRetry(attempts int, base, max time.Duration) Option {
	return func(c *Controller) {
		c.attempts = attempts
		c.baseDelay = base
		c.maxDelay = max
	}
}

// New constructs a Controller. If a store is configured and holds a snapshot,
// the controller starts in Success with that data instead of Loading.
func New(fetcher Fetcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:    fetcher,
		logger:     slog.Default(),
		staleAfter: defaultStaleAfter,
		attempts:   defaultAttempts,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		ctx:        ctx,
		cancel:     cancel,
		snap:       Snapshot{State: StateLoading},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		if records, fetchedAt, err := c.store.Load(ctx); err == nil {
			c.snap = Snapshot{State: StateSuccess, Records: records, FetchedAt: fetchedAt}
			c.logger.Info("list cache warmed from store",
				"records", len(records),
				"fetched_at", fetchedAt,
			)
		}
	}
	return c
}

// Snapshot returns the current view of the cache entry.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.snap
	out.Records = make([]models.Record, len(c.snap.Records))
	copy(out.Records, c.snap.Records)
	return out
}

// Ensure triggers a background fetch when the entry has never loaded, has
// been invalidated, or has outlived its freshness window. A fresh entry is a
// no-op: the cached data serves without a network round trip.
func (c *Controller) Ensure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight {
		return
	}
	fresh := c.snap.State == StateSuccess && !c.stale && time.Since(c.snap.FetchedAt) < c.staleAfter
	if fresh {
		return
	}
	c.inflight = true
	go c.fetch()
}

// Invalidate marks the entry stale and refetches in the background.
// Consumers keep seeing the previous snapshot until the refetch resolves.
// A fetch already in flight is superseded: its result predates the
// invalidation and must not be served as fresh.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	c.stale = true
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.group.Forget(cacheKey)
	c.inflight = true
	c.mu.Unlock()

	go c.fetch()
}

// Retry cancels any in-progress backoff loop and re-issues the fetch
// immediately. This is the user-facing retry affordance on the error view.
func (c *Controller) Retry() {
	c.mu.Lock()
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.group.Forget(cacheKey)
	c.inflight = true
	c.mu.Unlock()

	go c.fetch()
}

// Close cancels any pending fetch or backoff. After Close the controller
// serves its last snapshot but never touches the network again.
func (c *Controller) Close() {
	c.cancel()
}

func (c *Controller) fetch() {
	_, _, _ = c.group.Do(cacheKey, func() (any, error) {
		runCtx, cancelRun := context.WithCancel(c.ctx)
		defer cancelRun()

		c.mu.Lock()
		c.runSeq++
		seq := c.runSeq
		c.cancelRun = cancelRun
		c.mu.Unlock()

		// Only the latest run may clear the in-flight flag: a cancelled run
		// finishing late must not clobber the state of the run that
		// superseded it.
		defer func() {
			c.mu.Lock()
			if c.runSeq == seq {
				c.inflight = false
				c.cancelRun = nil
			}
			c.mu.Unlock()
		}()

		var lastErr error
		for try := 0; try <= c.attempts; try++ {
			if try > 0 {
				if c.metrics != nil {
					c.metrics.IncrementListRetries()
				}
				delay := backoffDelay(try-1, c.baseDelay, c.maxDelay)
				select {
				case <-runCtx.Done():
					return nil, runCtx.Err()
				case <-time.After(delay):
				}
			}

			records, err := c.fetcher.List(runCtx)
			if runCtx.Err() != nil {
				// Cancelled mid-flight: a manual retry or teardown owns the
				// entry now, do not overwrite its state.
				return nil, runCtx.Err()
			}
			if err == nil {
				c.storeSuccess(runCtx, records)
				return nil, nil
			}
			lastErr = err
			c.logger.Warn("list fetch failed",
				"try", try+1,
				"error", err,
			)
		}

		c.storeFailure(runCtx, lastErr)
		return nil, lastErr
	})
}

func (c *Controller) storeSuccess(runCtx context.Context, records []models.Record) {
	fetchedAt := time.Now()

	c.mu.Lock()
	// Invalidate and Retry cancel the run they supersede while holding the
	// mutex, so this check under the same mutex keeps a superseded run from
	// publishing pre-invalidation data as fresh.
	if runCtx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.snap = Snapshot{State: StateSuccess, Records: records, FetchedAt: fetchedAt}
	c.stale = false
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveListFetch("success")
	}
	if c.store != nil {
		if err := c.store.Save(c.ctx, records, fetchedAt); err != nil {
			c.logger.Warn("snapshot store save failed", "error", err)
		}
	}
}

func (c *Controller) storeFailure(runCtx context.Context, err error) {
	c.mu.Lock()
	if runCtx.Err() != nil {
		c.mu.Unlock()
		return
	}
	// Previous records stay servable; only the state and message change.
	c.snap.State = StateError
	c.snap.ErrMessage = err.Error()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveListFetch("error")
	}
}

func backoffDelay(n int, base, max time.Duration) time.Duration {
	delay := base << n
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
