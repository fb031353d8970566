package listview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/pagination"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/scheduler"

	"github.com/rs/zerolog"
)

// Orchestrator drives one list view: it turns coordinate changes into
// frames, serving cached pages while a fresh fetch runs.
//
// All state transitions happen under one mutex, which plays the part of the
// UI thread. Fetches run on their own goroutines and are the only place the
// orchestrator waits. Every change bumps a sequence number; a fetch that
// completes for an older sequence still fills the cache but never renders.
type Orchestrator struct {
	name      string
	fetcher   Fetcher
	renderer  Renderer
	store     cache.PageStore
	scheduler scheduler.Scheduler
	logger    zerolog.Logger
	clock     func() time.Time
	defaults  listquery.Coordinates

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	coords  listquery.Coordinates
	loaded  bool
	seq     uint64
	version uint64
	state   State
	current Frame
	closed  bool
}

type config struct {
	name      string
	store     cache.PageStore
	scheduler scheduler.Scheduler
	logger    zerolog.Logger
	clock     func() time.Time
	defaults  listquery.Coordinates
}

// Option configures an Orchestrator
type Option func(*config)

// WithName labels logs and metrics, normally with the resource name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithCache replaces the default bounded cache.
func WithCache(store cache.PageStore) Option {
	return func(c *config) { c.store = store }
}

// WithScheduler sets where frames are rendered. The default renders inline.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(c *config) { c.scheduler = s }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithClock sets the time source used for cache timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *config) { c.clock = clock }
}

// WithDefaults sets the coordinates ResetFilters returns to.
func WithDefaults(defaults listquery.Coordinates) Option {
	return func(c *config) { c.defaults = defaults }
}

// New creates an orchestrator in the Idle state. Nothing is fetched until the
// first Load.
func New(fetcher Fetcher, renderer Renderer, opts ...Option) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, errors.New("listview: fetcher is required")
	}
	if renderer == nil {
		return nil, errors.New("listview: renderer is required")
	}

	cfg := config{
		name:      "list",
		scheduler: scheduler.Inline{},
		logger:    zerolog.Nop(),
		clock:     time.Now,
		defaults:  listquery.Defaults(listquery.SortOption{}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.store == nil {
		store, err := cache.NewBoundedPageCache(cache.WithName(cfg.name))
		if err != nil {
			return nil, fmt.Errorf("failed to create page cache: %w", err)
		}
		cfg.store = store
	}

	ctx, cancel := context.WithCancel(context.Background())
	defaults := cfg.defaults.Normalized()

	return &Orchestrator{
		name:      cfg.name,
		fetcher:   fetcher,
		renderer:  renderer,
		store:     cfg.store,
		scheduler: cfg.scheduler,
		logger:    cfg.logger.With().Str("component", "listview").Str("view", cfg.name).Logger(),
		clock:     cfg.clock,
		defaults:  defaults,
		ctx:       ctx,
		cancel:    cancel,
		coords:    defaults,
		state:     StateIdle,
		current: Frame{
			Coordinates: defaults,
			Page:        pagination.Empty(defaults.PageSize),
			Status:      StatusIdle,
			State:       StateIdle,
		},
	}, nil
}

// Load replaces the coordinates wholesale and starts the fetch cycle.
func (o *Orchestrator) Load(coords listquery.Coordinates) error {
	return o.update(scheduler.Deferred, func(listquery.Coordinates) (listquery.Coordinates, error) {
		return coords, nil
	})
}

// SetPage moves to page. Pages outside [1, totalPages] of the page on screen
// are rejected.
func (o *Orchestrator) SetPage(page int) error {
	return o.update(scheduler.Deferred, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		if page < 1 {
			return c, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
		}
		if last := o.lastPageLocked(); last > 0 && page > last {
			return c, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, last)
		}
		return c.WithPage(page), nil
	})
}

// SetPageSize changes the page size and returns to page 1.
func (o *Orchestrator) SetPageSize(size int) error {
	return o.update(scheduler.Deferred, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		if size < 1 {
			return c, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
		}
		return c.WithPageSize(size), nil
	})
}

// SetSearch changes the search term and returns to page 1. Keystrokes render
// urgently and preempt pending deferred renders.
func (o *Orchestrator) SetSearch(term string) error {
	return o.update(scheduler.Urgent, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		return c.WithSearchTerm(term), nil
	})
}

// SetStatus changes the status filter and returns to page 1.
func (o *Orchestrator) SetStatus(status listquery.StatusFilter) error {
	return o.update(scheduler.Deferred, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		if !status.IsValid() {
			return c, fmt.Errorf("%w: status %q", ErrInvalidFilter, status)
		}
		return c.WithStatus(status), nil
	})
}

// SetType changes the type filter and returns to page 1.
func (o *Orchestrator) SetType(t listquery.TypeFilter) error {
	return o.update(scheduler.Deferred, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		if !t.IsValid() {
			return c, fmt.Errorf("%w: type %q", ErrInvalidFilter, t)
		}
		return c.WithType(t), nil
	})
}

// SetSort changes the sort option and returns to page 1.
func (o *Orchestrator) SetSort(sort listquery.SortOption) error {
	return o.update(scheduler.Deferred, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		return c.WithSort(sort), nil
	})
}

// ResetFilters returns every coordinate to its default in a single
// transition, so no partially reset combination is ever fetched or rendered.
func (o *Orchestrator) ResetFilters() error {
	return o.update(scheduler.Deferred, func(listquery.Coordinates) (listquery.Coordinates, error) {
		return o.defaults, nil
	})
}

// Retry re-enters the fetch cycle with the current coordinates.
func (o *Orchestrator) Retry() error {
	return o.update(scheduler.Urgent, func(c listquery.Coordinates) (listquery.Coordinates, error) {
		if !o.loaded {
			return c, ErrNothingToRetry
		}
		return c, nil
	})
}

// update applies change under the lock and runs one cycle of the protocol:
// publish from cache or show loading, then fetch in the background.
func (o *Orchestrator) update(priority scheduler.Priority, change func(listquery.Coordinates) (listquery.Coordinates, error)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	next, err := change(o.coords)
	if err != nil {
		return err
	}
	next = next.Normalized()
	// the backend sorts by the view default when no sort is sent
	if next.Sort.IsZero() {
		next.Sort = o.defaults.Sort
	}

	o.coords = next
	o.loaded = true
	o.seq++
	seq := o.seq
	key := listquery.BuildKey(next)

	entry, hit := o.store.Get(key)
	if hit {
		o.state = StateServingCached
		o.publishLocked(priority, Frame{
			Page:      entry.Page,
			Status:    StatusCachedRevalidating,
			FromCache: true,
		})
	} else {
		// previous items stay behind the loading indicator
		o.state = StateFetchingColdCache
		o.publishLocked(priority, Frame{
			Page:   o.current.Page,
			Status: StatusLoading,
		})
	}

	o.logger.Debug().
		Uint64("seq", seq).
		Str("key", key.String()).
		Bool("cached", hit).
		Msg("coordinates changed")

	o.wg.Add(1)
	go o.fetch(seq, key, next, hit)

	return nil
}

func (o *Orchestrator) fetch(seq uint64, key listquery.Key, coords listquery.Coordinates, fromCache bool) {
	defer o.wg.Done()

	start := time.Now()
	raw, err := o.fetchRaw(coords)
	fetchSeconds.WithLabelValues(o.name).Observe(time.Since(start).Seconds())

	if err != nil {
		o.fail(seq, err, fromCache)
		return
	}

	page := pagination.Normalize(raw,
		pagination.WithPage(coords.Page),
		pagination.WithPageSize(coords.PageSize),
	)
	o.complete(seq, key, page)
}

// fetchRaw calls the fetcher, turning a panic into an error.
func (o *Orchestrator) fetchRaw(coords listquery.Coordinates) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("fetcher panicked")
			raw, err = nil, fmt.Errorf("%w: %v", errFetcherPanicked, r)
		}
	}()
	return o.fetcher.FetchPage(o.ctx, coords)
}

func (o *Orchestrator) complete(seq uint64, key listquery.Key, page pagination.Page) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		fetchesTotal.WithLabelValues(o.name, "cancelled").Inc()
		return
	}

	o.store.Put(key, page, o.clock())

	if seq != o.seq {
		fetchesTotal.WithLabelValues(o.name, "superseded").Inc()
		o.logger.Debug().Uint64("seq", seq).Uint64("current", o.seq).Msg("superseded result cached, not rendered")
		return
	}

	fetchesTotal.WithLabelValues(o.name, "success").Inc()
	o.state = StateIdle
	o.publishLocked(scheduler.Deferred, Frame{
		Page:   page,
		Status: StatusIdle,
	})
}

func (o *Orchestrator) fail(seq uint64, err error, fromCache bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		fetchesTotal.WithLabelValues(o.name, "cancelled").Inc()
		return
	}
	if seq != o.seq {
		fetchesTotal.WithLabelValues(o.name, "superseded").Inc()
		o.logger.Debug().Err(err).Uint64("seq", seq).Msg("superseded fetch failed, ignoring")
		return
	}

	fetchesTotal.WithLabelValues(o.name, "failure").Inc()
	o.logger.Warn().Err(err).Bool("cached", fromCache).Msg("list fetch failed")

	o.state = StateError
	if fromCache {
		// the cached page stays on screen, the error is shown beside it
		o.publishLocked(scheduler.Deferred, Frame{
			Page:      o.current.Page,
			Status:    StatusError,
			Error:     err.Error(),
			FromCache: true,
			Retryable: true,
		})
		return
	}

	o.publishLocked(scheduler.Deferred, Frame{
		Page:      pagination.Empty(o.coords.PageSize),
		Status:    StatusError,
		Error:     err.Error(),
		Retryable: true,
	})
}

// publishLocked stamps frame with the current coordinates, state and the next
// version, records it as current and hands it to the scheduler.
func (o *Orchestrator) publishLocked(priority scheduler.Priority, frame Frame) {
	o.version++
	frame.Version = o.version
	frame.Coordinates = o.coords
	frame.State = o.state
	o.current = frame

	framesTotal.WithLabelValues(o.name, string(frame.Status)).Inc()

	renderer := o.renderer
	o.scheduler.Schedule(priority, func() {
		renderer.Render(frame)
	})
}

func (o *Orchestrator) lastPageLocked() int {
	if !o.loaded || o.current.Status == StatusLoading {
		return 0
	}
	return max(1, o.current.Page.TotalPages)
}

// Coordinates returns the coordinates of the most recent change
func (o *Orchestrator) Coordinates() listquery.Coordinates {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.coords
}

// Current returns the most recently published frame
func (o *Orchestrator) Current() Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CacheStats reports the statistics of the orchestrator's cache
func (o *Orchestrator) CacheStats() cache.CacheStats {
	return o.store.Stats()
}

// Close stops accepting changes, cancels in-flight fetches and waits for
// their goroutines to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
}
