package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

func TestInitialDelay_NoHistoryRunsImmediately(t *testing.T) {
	d := InitialDelay(nil, 4*time.Hour, time.Now())
	assert.Equal(t, time.Duration(0), d)
}

func TestInitialDelay_OverdueRunsImmediately(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	last := &domain.RunRecord{EndedAt: now.Add(-9 * time.Hour)}

	d := InitialDelay(last, 4*time.Hour, now)
	assert.Equal(t, time.Duration(0), d)
}

func TestInitialDelay_ExactBoundaryIsDue(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	last := &domain.RunRecord{EndedAt: now.Add(-4 * time.Hour)}

	d := InitialDelay(last, 4*time.Hour, now)
	assert.Equal(t, time.Duration(0), d)
}

func TestInitialDelay_WaitsOutTheRemainder(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	last := &domain.RunRecord{EndedAt: now.Add(-3*time.Hour - 59*time.Minute)}

	d := InitialDelay(last, 4*time.Hour, now)
	assert.Equal(t, time.Minute, d)
}

func TestTriggerNow_DropsOverlappingTrigger(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	s := &Scheduler{
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			close(started)
			<-release
			return nil
		},
	}

	ctx := context.Background()
	require.True(t, s.TriggerNow(ctx))
	<-started

	assert.False(t, s.TriggerNow(ctx), "trigger during an active run must be dropped")
	close(release)

	require.Eventually(t, func() bool { return !s.running.Load() },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStart_FiresAfterInitialDelayAndStopsOnCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := &Scheduler{
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			select {
			case fired <- struct{}{}:
			default:
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired after initial delay")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	assert.Equal(t, StateIdle, s.State())
}
