package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumtree-relister/config"
	"gumtree-relister/models"
)

type fakeRunner struct {
	runs  int
	times []time.Time
	onRun func(run int)
	clock func() time.Time
}

func (f *fakeRunner) RunOnce() models.RunOutcome {
	f.runs++
	if f.clock != nil {
		f.times = append(f.times, f.clock())
	}
	if f.onRun != nil {
		f.onRun(f.runs)
	}
	return models.RunOutcome{Succeeded: true}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(interval time.Duration) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Email = "user@example.com"
	cfg.Password = "secret"
	cfg.RelistInterval = interval
	cfg.RandomDelayMin = 0
	cfg.RandomDelayMax = 0
	return cfg
}

// fakeClock drives the scheduler deterministically: sleeping advances time.
type fakeClock struct {
	current time.Time
	sleeps  []time.Duration
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) bool {
	c.sleeps = append(c.sleeps, d)
	c.current = c.current.Add(d)
	return ctx.Err() == nil
}

func newTestScheduler(runner Runner, cfg *config.Config, clock *fakeClock) *Scheduler {
	s := New(runner, cfg, discardLogger())
	s.now = clock.now
	s.sleep = clock.sleep
	return s
}

func TestStartRunsImmediatelyThenOnInterval(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{clock: clock.now}

	ctx, cancel := context.WithCancel(context.Background())
	runner.onRun = func(run int) {
		if run == 3 {
			cancel()
		}
	}

	s := newTestScheduler(runner, testConfig(time.Hour), clock)
	s.jitter = func() time.Duration { return 0 }
	s.Start(ctx)

	require.Equal(t, 3, runner.runs)
	// Run 1 fires immediately; runs 2 and 3 fire one interval apart.
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), runner.times[0])
	assert.Equal(t, runner.times[0].Add(time.Hour), runner.times[1])
	assert.Equal(t, runner.times[1].Add(time.Hour), runner.times[2])

	// Between firings, the loop polls at the fixed short interval.
	for _, d := range clock.sleeps {
		assert.Equal(t, defaultPollInterval, d)
	}
}

func TestStartAppliesJitterBeforeEveryFiring(t *testing.T) {
	clock := &fakeClock{current: time.Unix(0, 0)}
	runner := &fakeRunner{}

	ctx, cancel := context.WithCancel(context.Background())
	runner.onRun = func(run int) {
		if run == 2 {
			cancel()
		}
	}

	const jitter = 77 * time.Second
	s := newTestScheduler(runner, testConfig(time.Hour), clock)
	s.jitter = func() time.Duration { return jitter }
	s.Start(ctx)

	require.Equal(t, 2, runner.runs)
	jitterSleeps := 0
	for _, d := range clock.sleeps {
		if d == jitter {
			jitterSleeps++
		}
	}
	assert.Equal(t, 2, jitterSleeps, "jitter is drawn per firing, including the first")
}

func TestStartStopsCleanlyDuringSleep(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, testConfig(time.Hour), discardLogger())
	s.jitter = func() time.Duration { return 30 * time.Minute }
	// Every sleep reports cancellation: the pre-run jitter is interrupted,
	// so the run never starts, and the next poll stops the loop.
	s.sleep = func(ctx context.Context, d time.Duration) bool { return false }

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, runner.runs, "a run interrupted before starting must not execute")
}

func TestStartHonoursPreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	s := New(runner, testConfig(time.Hour), discardLogger())
	s.Start(ctx)

	assert.Zero(t, runner.runs)
}

func TestDrawJitterStaysWithinBounds(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.RandomDelayMin = 5 * time.Minute
	cfg.RandomDelayMax = 10 * time.Minute

	s := New(&fakeRunner{}, cfg, discardLogger())
	for i := 0; i < 200; i++ {
		d := s.drawJitter()
		assert.GreaterOrEqual(t, d, 5*time.Minute)
		assert.Less(t, d, 10*time.Minute)
	}
}

func TestDrawJitterDegenerateRange(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.RandomDelayMin = 3 * time.Minute
	cfg.RandomDelayMax = 3 * time.Minute

	s := New(&fakeRunner{}, cfg, discardLogger())
	assert.Equal(t, 3*time.Minute, s.drawJitter())
}
