package listview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/scheduler"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// pendingFetch is one call the fake fetcher is holding open.
type pendingFetch struct {
	coords listquery.Coordinates
	result chan fetchResult
}

type fetchResult struct {
	raw any
	err error
}

func (p *pendingFetch) resolve(raw any) { p.result <- fetchResult{raw: raw} }
func (p *pendingFetch) reject(err error) { p.result <- fetchResult{err: err} }

// fakeFetcher blocks every call until the test resolves or rejects it, so
// tests decide the order in which fetches complete.
type fakeFetcher struct {
	mu      sync.Mutex
	pending []*pendingFetch
	total   int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, coords listquery.Coordinates) (any, error) {
	p := &pendingFetch{coords: coords, result: make(chan fetchResult, 1)}
	f.mu.Lock()
	f.pending = append(f.pending, p)
	f.total++
	f.mu.Unlock()

	select {
	case r := <-p.result:
		return r.raw, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// call waits for an open call whose coordinates satisfy match and claims it.
func (f *fakeFetcher) call(t *testing.T, match func(listquery.Coordinates) bool) *pendingFetch {
	t.Helper()
	var found *pendingFetch
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, p := range f.pending {
			if match(p.coords) {
				found = p
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				return true
			}
		}
		return false
	}, waitFor, time.Millisecond)
	return found
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func anyCoords(listquery.Coordinates) bool { return true }

func searchIs(term string) func(listquery.Coordinates) bool {
	return func(c listquery.Coordinates) bool { return c.SearchTerm == term }
}

func pageIs(page int) func(listquery.Coordinates) bool {
	return func(c listquery.Coordinates) bool { return c.Page == page }
}

// frameLog records rendered frames.
type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) Render(frame Frame) {
	l.mu.Lock()
	l.frames = append(l.frames, frame)
	l.mu.Unlock()
}

func (l *frameLog) all() []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Frame(nil), l.frames...)
}

func (l *frameLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

func (l *frameLog) last() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.frames) == 0 {
		return Frame{}
	}
	return l.frames[len(l.frames)-1]
}

// waitLen blocks until at least n frames were rendered and returns the last.
func (l *frameLog) waitLen(t *testing.T, n int) Frame {
	t.Helper()
	require.Eventually(t, func() bool { return l.len() >= n }, waitFor, time.Millisecond)
	return l.last()
}

// envelope builds a backend response in the upper camel case shape.
func envelope(totalCount int, ids ...string) map[string]any {
	items := make([]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]any{"id": id})
	}
	return map[string]any{
		"success": true,
		"Data": map[string]any{
			"Items":      items,
			"TotalCount": totalCount,
			"PageSize":   10,
		},
	}
}

func itemIDs(frame Frame) []string {
	ids := make([]string, 0, len(frame.Page.Items))
	for _, item := range frame.Page.Items {
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	return ids
}

var defaultSort = listquery.ParseSortOption("FullName:asc")

type harness struct {
	orch    *Orchestrator
	fetcher *fakeFetcher
	frames  *frameLog
	store   *cache.BoundedPageCache
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store, err := cache.NewBoundedPageCache(cache.WithName(t.Name()))
	require.NoError(t, err)

	h := &harness{fetcher: &fakeFetcher{}, frames: &frameLog{}, store: store}
	base := []Option{
		WithName(t.Name()),
		WithCache(store),
		WithLogger(zerolog.Nop()),
		WithDefaults(listquery.Defaults(defaultSort)),
	}
	h.orch, err = New(h.fetcher, h.frames, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(h.orch.Close)
	return h
}

// loadFirstPage performs the initial load and resolves it with total records.
func (h *harness) loadFirstPage(t *testing.T, total int, ids ...string) Frame {
	t.Helper()
	before := h.frames.len()
	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))
	h.fetcher.call(t, anyCoords).resolve(envelope(total, ids...))
	return h.frames.waitLen(t, before+2)
}

func TestOrchestrator_ColdLoad(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, StateIdle, h.orch.State())

	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))

	loading := h.frames.waitLen(t, 1)
	assert.Equal(t, StatusLoading, loading.Status)
	assert.Equal(t, StateFetchingColdCache, loading.State)
	assert.False(t, loading.FromCache)

	h.fetcher.call(t, anyCoords).resolve(envelope(1, "c-1"))

	done := h.frames.waitLen(t, 2)
	assert.Equal(t, StatusIdle, done.Status)
	assert.Equal(t, StateIdle, done.State)
	assert.Equal(t, []string{"c-1"}, itemIDs(done))
	assert.Equal(t, 1, done.Page.TotalPages)
	assert.Greater(t, done.Version, loading.Version)
	assert.Equal(t, 1, h.store.Len())
}

func TestOrchestrator_CachedPageServedWhileRevalidating(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 25, "a", "b")

	require.NoError(t, h.orch.SetPage(2))
	h.fetcher.call(t, pageIs(2)).resolve(envelope(25, "k", "l"))
	h.frames.waitLen(t, 4)

	require.NoError(t, h.orch.SetPage(1))

	// published before the fetch has even been picked up
	cached := h.frames.waitLen(t, 5)
	assert.Equal(t, StatusCachedRevalidating, cached.Status)
	assert.Equal(t, StateServingCached, cached.State)
	assert.True(t, cached.FromCache)
	assert.Equal(t, []string{"a", "b"}, itemIDs(cached))

	h.fetcher.call(t, pageIs(1)).resolve(envelope(26, "a", "b", "new"))
	fresh := h.frames.waitLen(t, 6)
	assert.Equal(t, StatusIdle, fresh.Status)
	assert.Equal(t, []string{"a", "b", "new"}, itemIDs(fresh))
}

func TestOrchestrator_FailureAfterCacheHitKeepsItems(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 25, "a", "b")

	require.NoError(t, h.orch.SetPage(2))
	h.fetcher.call(t, pageIs(2)).resolve(envelope(25, "k"))
	h.frames.waitLen(t, 4)

	require.NoError(t, h.orch.SetPage(1))
	cached := h.frames.waitLen(t, 5)
	require.Equal(t, []string{"a", "b"}, itemIDs(cached))

	h.fetcher.call(t, pageIs(1)).reject(errors.New("upstream unavailable"))

	failed := h.frames.waitLen(t, 6)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, StateError, failed.State)
	assert.Equal(t, "upstream unavailable", failed.Error)
	assert.True(t, failed.FromCache)
	assert.True(t, failed.Retryable)
	assert.Equal(t, itemIDs(cached), itemIDs(failed))
	assert.Equal(t, cached.Page, failed.Page)
}

func TestOrchestrator_ColdFailureRendersRetryableError(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))
	h.fetcher.call(t, anyCoords).reject(errors.New("connection refused"))

	failed := h.frames.waitLen(t, 2)
	assert.Equal(t, StatusError, failed.Status)
	assert.Empty(t, failed.Page.Items)
	assert.Zero(t, failed.Page.TotalCount)
	assert.Zero(t, failed.Page.TotalPages)
	assert.False(t, failed.FromCache)
	assert.True(t, failed.Retryable)
	assert.Equal(t, 0, h.store.Len())

	require.NoError(t, h.orch.Retry())
	retrying := h.frames.waitLen(t, 3)
	assert.Equal(t, StatusLoading, retrying.Status)

	h.fetcher.call(t, anyCoords).resolve(envelope(1, "x"))
	recovered := h.frames.waitLen(t, 4)
	assert.Equal(t, StatusIdle, recovered.Status)
	assert.Empty(t, recovered.Error)
	assert.Equal(t, []string{"x"}, itemIDs(recovered))
}

func TestOrchestrator_LastRequestedWins(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 3, "a", "b", "c")

	require.NoError(t, h.orch.SetSearch("alpha"))
	require.NoError(t, h.orch.SetSearch("beta"))

	fetchA := h.fetcher.call(t, searchIs("alpha"))
	fetchB := h.fetcher.call(t, searchIs("beta"))

	fetchB.resolve(envelope(1, "beta-1"))
	h.frames.waitLen(t, 5)

	// the older request resolves last and must not take over the screen
	fetchA.resolve(envelope(1, "alpha-1"))
	require.Eventually(t, func() bool { return h.store.Len() == 3 }, waitFor, time.Millisecond)

	assert.Equal(t, 5, h.frames.len())
	final := h.orch.Current()
	assert.Equal(t, "beta", final.Coordinates.SearchTerm)
	assert.Equal(t, []string{"beta-1"}, itemIDs(final))
	assert.Equal(t, []string{"beta-1"}, itemIDs(h.frames.last()))

	// the superseded result was still cached
	require.NoError(t, h.orch.SetSearch("ALPHA "))
	revisit := h.frames.waitLen(t, 6)
	assert.Equal(t, StatusCachedRevalidating, revisit.Status)
	assert.Equal(t, []string{"alpha-1"}, itemIDs(revisit))
}

func TestOrchestrator_StaleFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 3, "a")

	require.NoError(t, h.orch.SetSearch("old"))
	require.NoError(t, h.orch.SetSearch("new"))

	h.fetcher.call(t, searchIs("new")).resolve(envelope(1, "n"))
	h.frames.waitLen(t, 5)

	h.fetcher.call(t, searchIs("old")).reject(errors.New("timeout"))

	// give the stale failure a chance to be (wrongly) rendered
	assert.Never(t, func() bool { return h.frames.len() > 5 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, StatusIdle, h.orch.Current().Status)
}

func TestOrchestrator_ResetFiltersIsOneTransition(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 100, "a")

	require.NoError(t, h.orch.SetSearch("tesla"))
	require.NoError(t, h.orch.SetStatus(listquery.StatusActive))
	require.NoError(t, h.orch.SetType(listquery.TypeFilterFromID(2)))
	require.NoError(t, h.orch.SetSort(listquery.ParseSortOption("TotalSpent:desc")))
	require.NoError(t, h.orch.SetPageSize(50))

	// initial load plus one fetch per change
	require.Eventually(t, func() bool { return h.fetcher.calls() == 6 }, waitFor, time.Millisecond)
	before := h.frames.len()
	fetchesBefore := h.fetcher.calls()

	require.NoError(t, h.orch.ResetFilters())

	frames := h.frames.all()
	require.Len(t, frames, before+1)
	reset := frames[before]
	assert.Equal(t, listquery.Defaults(defaultSort).Normalized(), reset.Coordinates)
	assert.Equal(t, listquery.Defaults(defaultSort).Normalized(), h.orch.Coordinates())

	// the initial page is still cached, so the reset is served instantly
	assert.Equal(t, StatusCachedRevalidating, reset.Status)
	assert.Equal(t, []string{"a"}, itemIDs(reset))

	require.Eventually(t, func() bool { return h.fetcher.calls() == fetchesBefore+1 }, waitFor, time.Millisecond)
	call := h.fetcher.call(t, func(c listquery.Coordinates) bool {
		return c == listquery.Defaults(defaultSort).Normalized()
	})
	assert.NotNil(t, call)
}

func TestOrchestrator_EmptySortMeansDefaultSort(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 100, "a")
	before := h.frames.len()

	require.NoError(t, h.orch.SetSort(listquery.SortOption{}))

	frame := h.frames.waitLen(t, before+1)
	assert.Equal(t, defaultSort, frame.Coordinates.Sort)
	assert.Equal(t, StatusCachedRevalidating, frame.Status)
	assert.Equal(t, []string{"a"}, itemIDs(frame))

	call := h.fetcher.call(t, anyCoords)
	assert.Equal(t, defaultSort, call.coords.Sort)
	assert.Equal(t, listquery.BuildKey(listquery.Defaults(defaultSort)), listquery.BuildKey(h.orch.Coordinates()))
}

func TestOrchestrator_SetPageBounds(t *testing.T) {
	h := newHarness(t)
	h.loadFirstPage(t, 30, "a")
	before := h.frames.len()

	assert.ErrorIs(t, h.orch.SetPage(0), ErrPageOutOfRange)
	assert.ErrorIs(t, h.orch.SetPage(4), ErrPageOutOfRange)
	assert.Equal(t, before, h.frames.len())
	assert.Equal(t, 1, h.orch.Coordinates().Page)

	require.NoError(t, h.orch.SetPage(3))
	assert.Equal(t, 3, h.orch.Coordinates().Page)
}

func TestOrchestrator_InvalidChangesAreRejected(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.orch.Retry(), ErrNothingToRetry)
	assert.ErrorIs(t, h.orch.SetPageSize(0), ErrInvalidPageSize)
	assert.ErrorIs(t, h.orch.SetStatus("archived"), ErrInvalidFilter)
	assert.ErrorIs(t, h.orch.SetType("premium"), ErrInvalidFilter)
	assert.Zero(t, h.frames.len())
	assert.Zero(t, h.fetcher.calls())
}

func TestOrchestrator_FetcherPanicBecomesError(t *testing.T) {
	frames := &frameLog{}
	orch, err := New(FetcherFunc(func(context.Context, listquery.Coordinates) (any, error) {
		panic("nil map")
	}), frames)
	require.NoError(t, err)
	defer orch.Close()

	require.NoError(t, orch.Load(listquery.Defaults(defaultSort)))

	failed := frames.waitLen(t, 2)
	assert.Equal(t, StatusError, failed.Status)
	assert.Contains(t, failed.Error, "fetcher panicked")
}

func TestOrchestrator_MalformedResponseRendersEmptyPage(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))
	h.fetcher.call(t, anyCoords).resolve("<html>gateway error</html>")

	frame := h.frames.waitLen(t, 2)
	assert.Equal(t, StatusIdle, frame.Status)
	assert.Empty(t, frame.Page.Items)
	assert.Zero(t, frame.Page.TotalPages)
}

func TestOrchestrator_CloseCancelsInFlightFetches(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))
	h.frames.waitLen(t, 1)

	done := make(chan struct{})
	go func() {
		h.orch.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Close did not return")
	}

	assert.ErrorIs(t, h.orch.SetSearch("x"), ErrClosed)
	assert.Equal(t, 1, h.frames.len())
}

func TestOrchestrator_UrgentSearchPreemptsDeferredRender(t *testing.T) {
	loop := scheduler.NewLoop(zerolog.Nop())
	h := newHarness(t, WithScheduler(loop))

	// nothing renders until the loop runs, so both frames are queued
	require.NoError(t, h.orch.Load(listquery.Defaults(defaultSort)))
	require.NoError(t, h.orch.SetSearch("v"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	first := h.frames.waitLen(t, 1)
	assert.Equal(t, "v", first.Coordinates.SearchTerm)
	assert.Equal(t, uint64(2), first.Version)
	assert.Equal(t, int64(1), loop.Stats().Abandoned)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchPage(ctx context.Context, coords listquery.Coordinates) (any, error) {
	args := m.Called(ctx, coords)
	return args.Get(0), args.Error(1)
}

func TestOrchestrator_PassesNormalizedCoordinatesToFetcher(t *testing.T) {
	fetcher := &mockFetcher{}
	want := listquery.Coordinates{
		Page:       1,
		PageSize:   20,
		SearchTerm: "Nguyen",
		Status:     listquery.StatusActive,
		Type:       listquery.TypeAll,
		Sort:       listquery.ParseSortOption("CreatedDate:desc"),
	}
	fetcher.On("FetchPage", mock.Anything, want).Return([]any{map[string]any{"id": "1"}}, nil).Once()

	frames := &frameLog{}
	orch, err := New(fetcher, frames, WithName(t.Name()))
	require.NoError(t, err)
	defer orch.Close()

	require.NoError(t, orch.Load(listquery.Coordinates{
		Page:       0,
		PageSize:   20,
		SearchTerm: "  Nguyen ",
		Status:     "ACTIVE",
		Sort:       listquery.SortOption{Field: "CreatedDate", Direction: "DESC"},
	}))

	frame := frames.waitLen(t, 2)
	assert.Equal(t, 20, frame.Page.PageSize)
	assert.Len(t, frame.Page.Items, 1)
	fetcher.AssertExpectations(t)
}
