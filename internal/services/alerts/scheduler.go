package alerts

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/xelth-com/soletrack/internal/models"
)

// SchedulerConfig holds the periodic generation settings
type SchedulerConfig struct {
	Enabled      bool
	Interval     time.Duration
	InitialDelay time.Duration
	RunTimeout   time.Duration
}

// Generator is the part of Service the scheduler drives
type Generator interface {
	Generate(ctx context.Context, trigger string) (*Result, error)
}

// Scheduler runs alert generation on a fixed interval
type Scheduler struct {
	gen  Generator
	cfg  SchedulerConfig
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewScheduler creates a new scheduler for gen
func NewScheduler(gen Generator, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	return &Scheduler{
		gen:  gen,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the background generation loop
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		log.Println("Alert scheduler disabled: ALERT_ENABLED=false")
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)
		log.Printf("⏰ Alert scheduler started (every %s)", s.cfg.Interval)

		select {
		case <-time.After(s.cfg.InitialDelay):
			s.runOnce()
		case <-s.stop:
			log.Println("🛑 Alert scheduler stopped")
			return
		}

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				log.Println("🛑 Alert scheduler stopped")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for a running generation to finish
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	if _, err := s.gen.Generate(ctx, models.RunTriggerScheduled); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Println("⏭️  Alerts: scheduled run skipped, another run is in progress")
			return
		}
		log.Printf("❌ Alerts: scheduled run failed: %v", err)
	}
}
