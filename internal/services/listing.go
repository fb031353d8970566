package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listview"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/pagination"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache status reported with every snapshot
const (
	CacheStale = "STALE" // served from cache, refreshed in the background
	CacheMiss  = "MISS"
)

// ViewSource resolves a resource name to the fetcher and default
// coordinates of its list view.
type ViewSource interface {
	View(resource string) (listview.Fetcher, listquery.Coordinates, error)
}

// Snapshot is one page answered over REST
type Snapshot struct {
	Page        pagination.Page
	Coordinates listquery.Coordinates
	CacheStatus string
	FetchedAt   time.Time
}

// ListingService answers one-off page requests with the same
// stale-while-revalidate policy the websocket views use, sharing one bounded
// cache per resource across all callers.
type ListingService struct {
	source   ViewSource
	capacity int
	timeout  time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	caches map[string]*cache.BoundedPageCache

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewListingService creates a service keeping up to capacity pages per
// resource. timeout bounds background revalidation fetches.
func NewListingService(source ViewSource, capacity int, timeout time.Duration, logger zerolog.Logger) (*ListingService, error) {
	if err := (cache.CacheConfig{Name: "snapshot", Capacity: capacity}).Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ListingService{
		source:   source,
		capacity: capacity,
		timeout:  timeout,
		logger:   logger.With().Str("component", "listing").Logger(),
		caches:   make(map[string]*cache.BoundedPageCache),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Defaults returns the starting coordinates of resource
func (s *ListingService) Defaults(resource string) (listquery.Coordinates, error) {
	_, defaults, err := s.source.View(resource)
	return defaults, err
}

// Snapshot returns the page at coords. A cached page is returned at once
// and refreshed in the background; otherwise the page is fetched, with
// concurrent requests for the same page sharing one fetch.
func (s *ListingService) Snapshot(ctx context.Context, resource string, coords listquery.Coordinates) (Snapshot, error) {
	fetcher, defaults, err := s.source.View(resource)
	if err != nil {
		return Snapshot{}, err
	}

	name := strings.ToLower(strings.TrimSpace(resource))
	coords = coords.Normalized()
	if coords.Sort.IsZero() {
		coords.Sort = defaults.Normalized().Sort
	}
	key := listquery.BuildKey(coords)
	store, err := s.cacheFor(name)
	if err != nil {
		return Snapshot{}, err
	}

	if entry, ok := store.Get(key); ok {
		s.revalidate(name, store, fetcher, key, coords)
		return Snapshot{
			Page:        entry.Page,
			Coordinates: coords,
			CacheStatus: CacheStale,
			FetchedAt:   entry.Timestamp,
		}, nil
	}

	// the first caller's context governs the shared fetch
	v, err, shared := s.group.Do(flightKey(name, key), func() (any, error) {
		return s.load(ctx, store, fetcher, key, coords)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		s.logger.Debug().Str("resource", name).Str("key", key.String()).Msg("joined in-flight fetch")
	}

	entry := v.(cache.Entry)
	return Snapshot{
		Page:        entry.Page,
		Coordinates: coords,
		CacheStatus: CacheMiss,
		FetchedAt:   entry.Timestamp,
	}, nil
}

// load fetches, normalizes and caches one page.
func (s *ListingService) load(ctx context.Context, store *cache.BoundedPageCache, fetcher listview.Fetcher, key listquery.Key, coords listquery.Coordinates) (cache.Entry, error) {
	raw, err := fetcher.FetchPage(ctx, coords)
	if err != nil {
		return cache.Entry{}, err
	}
	page := pagination.Normalize(raw,
		pagination.WithPage(coords.Page),
		pagination.WithPageSize(coords.PageSize),
	)
	now := time.Now()
	store.Put(key, page, now)
	return cache.Entry{Page: page, Timestamp: now}, nil
}

func (s *ListingService) revalidate(name string, store *cache.BoundedPageCache, fetcher listview.Fetcher, key listquery.Key, coords listquery.Coordinates) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		_, err, _ := s.group.Do(flightKey(name, key), func() (any, error) {
			return s.load(ctx, store, fetcher, key, coords)
		})
		if err != nil && s.ctx.Err() == nil {
			// the stale page stays cached
			s.logger.Warn().Err(err).Str("resource", name).Str("key", key.String()).Msg("background revalidation failed")
		}
	}()
}

func (s *ListingService) cacheFor(name string) (*cache.BoundedPageCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.caches[name]; ok {
		return store, nil
	}
	store, err := cache.NewBoundedPageCache(
		cache.WithName("snapshot_"+name),
		cache.WithCapacity(s.capacity),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	s.caches[name] = store
	return store, nil
}

// Stats returns the statistics of every snapshot cache, by name
func (s *ListingService) Stats() []cache.CacheStats {
	s.mu.Lock()
	stats := make([]cache.CacheStats, 0, len(s.caches))
	for _, store := range s.caches {
		stats = append(stats, store.Stats())
	}
	s.mu.Unlock()

	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Close cancels background revalidation and waits for it to stop
func (s *ListingService) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func flightKey(resource string, key listquery.Key) string {
	return resource + "|" + key.String()
}
