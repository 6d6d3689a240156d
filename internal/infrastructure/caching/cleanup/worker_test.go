package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
)

type fakeSessions struct {
	idle    []string
	maxIdle time.Duration
}

func (f *fakeSessions) CloseIdle(_ context.Context, maxIdle time.Duration, busy func(string) bool) int {
	f.maxIdle = maxIdle
	closed := 0
	for _, id := range f.idle {
		if busy == nil || !busy(id) {
			closed++
		}
	}
	return closed
}

func TestRunOnce(t *testing.T) {
	sessions := &fakeSessions{idle: []string{"a", "b", "c"}}
	cache := caching.NewRenderCache(time.Minute)
	cache.Set("p1", false, "x")

	busy := func(id string) bool { return id == "b" }
	w := NewWorker(sessions, busy, []Purger{cache}, &Config{
		CleanupInterval:    time.Minute,
		SessionIdleTimeout: 30 * time.Minute,
	}, logging.NewDiscardLogger())

	closed, purged := w.RunOnce(context.Background(), time.Now().UTC().Add(5*time.Minute))
	assert.Equal(t, 2, closed)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 30*time.Minute, sessions.maxIdle)
	assert.Equal(t, 0, cache.Len())
}

func TestStartDisabled(t *testing.T) {
	w := NewWorker(nil, nil, nil, &Config{}, logging.NewDiscardLogger())
	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker did not return")
	}
}
