/*
scheduler.go - Batch generation across all active templates

PURPOSE:
  Enumerates every active template and runs generation for each under a
  bounded worker pool. Templates are independent units of work: one
  template's failure never aborts the run, and the caller always gets a
  per-template outcome report.

FAILURE POLICY:
  - Transient store failures are retried with backoff (RetryOptions).
  - Per-template work runs under a bounded timeout; a timeout is a
    per-template failure, reported and moved past.
  - Cancelling the batch context stops workers from picking up new
    templates; in-flight atomic steps finish or roll back cleanly.

SEE ALSO:
  - generator.go: the per-template atomic step
  - api/batch.go: the interval trigger that calls this on a schedule
*/
package forecast

import (
	"context"
	"log"
	"sync"
	"time"
)

// SchedulerConfig bounds the batch run. All knobs are explicit; there is
// no ambient global configuration.
type SchedulerConfig struct {
	// Workers is the number of templates processed concurrently.
	Workers int

	// TemplateTimeout bounds one template's generation step.
	TemplateTimeout time.Duration

	// Retry governs transient-failure retries per template.
	Retry RetryOptions
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:         4,
		TemplateTimeout: 30 * time.Second,
		Retry:           RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
	}
}

// =============================================================================
// OUTCOME REPORT
// =============================================================================

// TemplateOutcome records one template's result within a batch run.
type TemplateOutcome struct {
	TemplateID TemplateID
	Created    int
	Err        error
}

func (o TemplateOutcome) Failed() bool { return o.Err != nil }

// Report aggregates a whole batch run. It enumerates every active template,
// including those skipped because the batch was cancelled.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []TemplateOutcome
}

func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int { return len(r.Outcomes) - r.Succeeded() }

func (r *Report) TotalCreated() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Created
	}
	return n
}

// =============================================================================
// TEMPLATE SCHEDULER
// =============================================================================

// Scheduler orchestrates generation across all active templates.
type Scheduler struct {
	Generator *Generator
	Store     TemplateStore
	Config    SchedulerConfig
}

func NewScheduler(store TxStore, config SchedulerConfig) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = DefaultSchedulerConfig().Workers
	}
	if config.TemplateTimeout <= 0 {
		config.TemplateTimeout = DefaultSchedulerConfig().TemplateTimeout
	}
	return &Scheduler{
		Generator: NewGenerator(store),
		Store:     store,
		Config:    config,
	}
}

// GenerateForAllActiveTemplates runs generation for every active template
// and returns the per-template outcome report. The only error returned
// directly is a failure to enumerate templates; everything after that is
// isolated per template inside the report.
func (s *Scheduler) GenerateForAllActiveTemplates(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	templates, err := s.Store.ListActiveTemplates(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make(chan RecurringTransactionTemplate)
	results := make(chan TemplateOutcome)

	var wg sync.WaitGroup
	for i := 0; i < s.Config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tpl := range jobs {
				if ctx.Err() != nil {
					// Stop picking up real work; still report the skip so
					// the caller sees which templates were not processed.
					results <- TemplateOutcome{TemplateID: tpl.ID, Err: ctx.Err()}
					continue
				}
				results <- s.processTemplate(ctx, tpl.ID)
			}
		}()
	}

	go func() {
		for _, tpl := range templates {
			jobs <- tpl
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		if outcome.Failed() {
			log.Printf("[Scheduler] template %s failed: %v", outcome.TemplateID, outcome.Err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.FinishedAt = time.Now()
	log.Printf("[Scheduler] batch completed: %d ok, %d failed, %d rows created",
		report.Succeeded(), report.Failed(), report.TotalCreated())
	return report, nil
}

// processTemplate runs one template's generation under its timeout, with
// transient failures retried.
func (s *Scheduler) processTemplate(ctx context.Context, id TemplateID) TemplateOutcome {
	tctx, cancel := context.WithTimeout(ctx, s.Config.TemplateTimeout)
	defer cancel()

	var created int
	err := WithRetry(tctx, func() error {
		n, genErr := s.Generator.GenerateForTemplate(tctx, id)
		if genErr != nil {
			return genErr
		}
		created = n
		return nil
	}, s.Config.Retry)

	return TemplateOutcome{TemplateID: id, Created: created, Err: err}
}
