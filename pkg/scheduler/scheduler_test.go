package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) task(name string) Task {
	return func() {
		r.mu.Lock()
		r.ran = append(r.ran, name)
		r.mu.Unlock()
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

// drain runs the loop until every queued task has executed.
func drain(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	require.Eventually(t, func() bool { return l.Stats().Pending == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestLoop_UrgentAbandonsPendingDeferred(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	rec := &recorder{}

	l.Schedule(Deferred, rec.task("page 2"))
	l.Schedule(Urgent, rec.task("keystroke"))

	stats := l.Stats()
	assert.Equal(t, int64(1), stats.Abandoned)
	assert.Equal(t, 1, stats.Pending)

	drain(t, l)
	assert.Equal(t, []string{"keystroke"}, rec.names())
}

func TestLoop_NewerDeferredReplacesOlder(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	rec := &recorder{}

	l.Schedule(Deferred, rec.task("page 2"))
	l.Schedule(Deferred, rec.task("page 3"))
	l.Schedule(Deferred, rec.task("page 4"))

	assert.Equal(t, int64(2), l.Stats().Abandoned)

	drain(t, l)
	assert.Equal(t, []string{"page 4"}, rec.names())
}

func TestLoop_UrgentTasksKeepOrderAndRunFirst(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	rec := &recorder{}

	l.Schedule(Urgent, rec.task("t"))
	l.Schedule(Urgent, rec.task("te"))
	l.Schedule(Deferred, rec.task("filter"))
	l.Schedule(Urgent, rec.task("tes"))
	l.Schedule(Deferred, rec.task("sort"))

	drain(t, l)
	assert.Equal(t, []string{"t", "te", "tes", "sort"}, rec.names())
	assert.Equal(t, int64(1), l.Stats().Abandoned)
}

func TestLoop_RunsTasksScheduledWhileRunning(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	ran := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		l.Schedule(Urgent, func() { ran <- i })
	}

	for want := 1; want <= 3; want++ {
		select {
		case got := <-ran:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("task did not run")
		}
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestLoop_SurvivesPanickingTask(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	rec := &recorder{}

	l.Schedule(Urgent, func() { panic("renderer blew up") })
	l.Schedule(Urgent, rec.task("after"))

	drain(t, l)
	assert.Equal(t, []string{"after"}, rec.names())
}

func TestLoop_DropsWorkAfterStop(t *testing.T) {
	l := NewLoop(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, l.Run(ctx), context.Canceled)

	l.Schedule(Urgent, func() { t.Error("must not run") })
	assert.Equal(t, 0, l.Stats().Pending)
}

func TestInline(t *testing.T) {
	rec := &recorder{}
	var s Scheduler = Inline{}

	s.Schedule(Deferred, rec.task("a"))
	s.Schedule(Urgent, rec.task("b"))
	s.Schedule(Urgent, nil)

	assert.Equal(t, []string{"a", "b"}, rec.names())
}
