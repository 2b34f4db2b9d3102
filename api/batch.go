/*
batch.go - Automated batch generation runner

PURPOSE:
  Periodically runs batch generation across all active templates, so
  expected transactions stay materialized through the look-ahead horizon
  without manual triggering.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick delegates to the scheduler's batch run; the run itself
    handles per-template isolation, timeouts and retries
  - Generation is idempotent, so overlapping manual triggers are harmless

CONFIGURATION:
  - Interval: How often to run (default: 1 hour)
  - Enabled:  Whether the runner is active (default: true)

USAGE:
  runner := NewBatchRunner(handler.Scheduler)
  runner.Start()
  // ... later
  runner.Stop()

SEE ALSO:
  - handlers.go: GenerateAll endpoint (manual trigger)
  - forecast/scheduler.go: The batch run itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/forecast-engine/forecast"
)

// BatchRunner triggers batch generation on a fixed interval.
type BatchRunner struct {
	Scheduler *forecast.Scheduler
	Interval  time.Duration
	Enabled   bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchRunner creates a new runner around the given scheduler.
func NewBatchRunner(scheduler *forecast.Scheduler) *BatchRunner {
	return &BatchRunner{
		Scheduler: scheduler,
		Interval:  1 * time.Hour,
		Enabled:   true,
		stop:      make(chan bool),
	}
}

// Start begins the runner.
func (br *BatchRunner) Start() {
	br.mu.Lock()
	defer br.mu.Unlock()

	if !br.Enabled {
		log.Println("[Batch] Disabled, not starting")
		return
	}

	br.ticker = time.NewTicker(br.Interval)
	br.wg.Add(1)

	go br.run()

	log.Printf("[Batch] Started with interval: %v", br.Interval)
}

// Stop stops the runner.
func (br *BatchRunner) Stop() {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.ticker != nil {
		br.ticker.Stop()
		close(br.stop)
		br.wg.Wait()
		log.Println("[Batch] Stopped")
	}
}

func (br *BatchRunner) run() {
	defer br.wg.Done()

	// Run immediately on start
	br.runOnce()

	for {
		select {
		case <-br.ticker.C:
			br.runOnce()
		case <-br.stop:
			return
		}
	}
}

func (br *BatchRunner) runOnce() {
	report, err := br.Scheduler.GenerateForAllActiveTemplates(context.Background())
	if err != nil {
		log.Printf("[Batch] Run failed: %v", err)
		return
	}
	if report.TotalCreated() > 0 || report.Failed() > 0 {
		log.Printf("[Batch] Run finished: %d templates ok, %d failed, %d rows created",
			report.Succeeded(), report.Failed(), report.TotalCreated())
	}
}

// RunNow triggers an immediate run (for testing/admin).
func (br *BatchRunner) RunNow() {
	br.runOnce()
}
