/*
scheduler.go - Automated monthly generation scheduler

PURPOSE:
  Periodically checks whether the current month has been generated and,
  if not, runs the generator for it. Manual runs through the API and
  scheduled runs share the handler's generation lock.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips the month once a completed run exists for it
  - A failed run is retried on the next tick; generation replaces the
    month's records, so retries never duplicate them

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: false)

USAGE:
  scheduler := NewGenerationScheduler(handler)
  scheduler.Enabled = cfg.SchedulerEnabled
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Generate endpoint (manual generation)
  - billing/generator.go: Generator
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/mateatletas/cuotas/billing"
)

// GenerationScheduler generates the current month automatically.
type GenerationScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	// Now is the clock used to pick the month.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewGenerationScheduler creates a new, disabled scheduler.
func NewGenerationScheduler(handler *Handler) *GenerationScheduler {
	return &GenerationScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (gs *GenerationScheduler) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	log := gs.Handler.Logger.With("component", "scheduler")
	if !gs.Enabled {
		log.Info("scheduler disabled, not starting")
		return
	}
	if gs.ticker != nil {
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.stop = make(chan struct{})
	gs.wg.Add(1)

	go gs.run()

	log.Info("scheduler started", "interval", gs.CheckInterval)
}

// Stop stops the scheduler and waits for a run in progress.
func (gs *GenerationScheduler) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		gs.ticker = nil
		gs.Handler.Logger.Info("scheduler stopped", "component", "scheduler")
	}
}

func (gs *GenerationScheduler) run() {
	defer gs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-gs.stop
		cancel()
	}()

	// Run immediately on start
	gs.CheckAndGenerate(ctx)

	for {
		select {
		case <-gs.ticker.C:
			gs.CheckAndGenerate(ctx)
		case <-gs.stop:
			return
		}
	}
}

// CheckAndGenerate generates the current month unless a completed run
// exists for it. It reports whether a run was attempted.
func (gs *GenerationScheduler) CheckAndGenerate(ctx context.Context) bool {
	period := billing.PeriodOf(gs.Now())
	log := gs.Handler.Logger.With("component", "scheduler", "period", period.String())

	done, err := gs.Handler.Store.IsPeriodGenerated(ctx, period)
	if err != nil {
		log.Error("failed to check generation status", "error", err)
		return false
	}
	if done {
		log.Debug("period already generated")
		return false
	}

	summary, err := gs.Handler.GeneratePeriod(ctx, period)
	if err != nil {
		if billing.IsCanceled(err) {
			log.Info("scheduled generation canceled")
		} else {
			log.Error("scheduled generation failed", "error", err)
		}
		return true
	}

	log.Info("scheduled generation completed", "records", summary.Records, "revenue", summary.Revenue)
	return true
}
