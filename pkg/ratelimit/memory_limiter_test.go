package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(testConfig(2, time.Minute))
	defer limiter.Close()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "client1", CategoryViews)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	now = now.Add(20 * time.Second)
	decision, err := limiter.Allow(ctx, "client1", CategoryViews)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 40*time.Second, decision.RetryAfter)

	now = now.Add(40 * time.Second)
	decision, err = limiter.Allow(ctx, "client1", CategoryViews)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining)
}

func TestMemoryRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(testConfig(2, time.Minute))
	defer limiter.Close()
	limiter.now = func() time.Time { return now }

	_, err := limiter.Allow(context.Background(), "client1", CategoryViews)
	require.NoError(t, err)
	_, err = limiter.Allow(context.Background(), "10.0.0.1:abc", CategoryHealth)
	require.NoError(t, err)
	assert.Equal(t, 2, limiter.GetStats().ActiveKeys)

	now = now.Add(2 * time.Minute)
	limiter.cleanup()
	assert.Equal(t, 0, limiter.GetStats().ActiveKeys)
}

func TestConfig_CategoryFor(t *testing.T) {
	config := DefaultConfig()
	config.Routes["GET /debug/*"] = CategoryHealth

	tests := []struct {
		method, route string
		want          string
	}{
		{"GET", "/api/v1/views/:resource/ws", CategorySessions},
		{"get", "/api/v1/views/:resource", CategoryViews},
		{"GET", "/api/v1/views/stats", CategoryStats},
		{"GET", "/api/v1/health", CategoryHealth},
		{"GET", "/debug/pprof/heap", CategoryHealth},
		{"POST", "/api/v1/views/:resource", CategoryDefault},
		{"GET", "", CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, config.CategoryFor(tt.method, tt.route))
		})
	}
}

func TestConfig_LimitFor(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, config.Limits[CategoryViews], config.LimitFor(CategoryViews))
	assert.Equal(t, config.Limits[CategoryDefault], config.LimitFor("unknown"))

	config.Limits[CategoryViews] = RateLimit{}
	assert.Equal(t, config.Limits[CategoryDefault], config.LimitFor(CategoryViews))

	delete(config.Limits, CategoryDefault)
	assert.Equal(t, RateLimit{Requests: 60, Window: time.Minute}, config.LimitFor("unknown"))
}
