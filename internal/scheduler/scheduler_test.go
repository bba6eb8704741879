package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runs struct {
	mu      sync.Mutex
	success map[string]int
	failure map[string]int
}

func newRuns() *runs {
	return &runs{success: make(map[string]int), failure: make(map[string]int)}
}

func (r *runs) JobRun(job string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.success[job]++
	} else {
		r.failure[job]++
	}
}

func (r *runs) count(job string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success[job] + r.failure[job]
}

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := New()
	err := s.Add("broken", "not a schedule", func(context.Context) error { return nil })
	assert.ErrorContains(t, err, `failed to add job "broken"`)
}

func TestRun_RecordsOutcome(t *testing.T) {
	rec := newRuns()
	s := New(WithRecorder(rec))

	s.Run("ok", func(context.Context) error { return nil })
	s.Run("bad", func(context.Context) error { return errors.New("boom") })

	assert.Equal(t, 1, rec.success["ok"])
	assert.Equal(t, 1, rec.failure["bad"])
}

func TestStartStop(t *testing.T) {
	rec := newRuns()
	s := New(WithRecorder(rec), WithLocation(time.UTC))
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error { return nil }))

	s.Start()
	require.Eventually(t, func() bool { return rec.count("tick") > 0 }, 3*time.Second, 10*time.Millisecond)
	s.Stop()

	after := rec.count("tick")
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, rec.count("tick"))
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := New()
	done := make(chan error, 1)
	go s.Run("wait", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	s.Stop()
	assert.ErrorIs(t, <-done, context.Canceled)
}
