package alerts

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xelth-com/soletrack/internal/models"
)

type countingGenerator struct {
	calls    atomic.Int32
	triggers chan string
	err      error
}

func (g *countingGenerator) Generate(ctx context.Context, trigger string) (*Result, error) {
	g.calls.Add(1)
	select {
	case g.triggers <- trigger:
	default:
	}
	if _, ok := ctx.Deadline(); !ok {
		panic("scheduled run without deadline")
	}
	return &Result{}, g.err
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	gen := &countingGenerator{triggers: make(chan string, 1)}
	s := NewScheduler(gen, SchedulerConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	})
	s.Start()

	select {
	case trigger := <-gen.triggers:
		assert.Equal(t, models.RunTriggerScheduled, trigger)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not run")
	}

	assert.Eventually(t, func() bool { return gen.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := gen.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, gen.calls.Load())
}

func TestSchedulerSurvivesFailures(t *testing.T) {
	for _, err := range []error{ErrRunInProgress, errBoom} {
		gen := &countingGenerator{triggers: make(chan string, 1), err: err}
		s := NewScheduler(gen, SchedulerConfig{Enabled: true, Interval: 5 * time.Millisecond})
		s.Start()

		assert.Eventually(t, func() bool { return gen.calls.Load() >= 3 }, time.Second, 5*time.Millisecond, err.Error())
		s.Stop()
	}
}

func TestSchedulerStopBeforeFirstRun(t *testing.T) {
	gen := &countingGenerator{triggers: make(chan string, 1)}
	s := NewScheduler(gen, SchedulerConfig{Enabled: true, InitialDelay: time.Hour})
	s.Start()
	s.Stop()
	s.Stop()

	assert.Zero(t, gen.calls.Load())
}

func TestSchedulerDisabled(t *testing.T) {
	gen := &countingGenerator{triggers: make(chan string, 1)}
	s := NewScheduler(gen, SchedulerConfig{})
	s.Start()
	s.Stop()

	assert.Zero(t, gen.calls.Load())
	assert.Equal(t, time.Hour, s.cfg.Interval)
	assert.Equal(t, 2*time.Minute, s.cfg.RunTimeout)
}
