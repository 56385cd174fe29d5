// Package dispatch turns approved suggestions into persisted execution plans
// via a store-backed job queue and a worker pool. The approving request hands
// off and returns; workers report their outcome through dispatch job rows, so
// a failed or stalled dispatch stays observable.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/activity"
	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/metrics"
	"github.com/openclaw/mission-control/internal/store"
)

// Config holds dispatcher configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// Dispatcher consumes dispatch jobs and produces execution plans.
type Dispatcher struct {
	queue   chan *store.DispatchJob
	workers int
	store   *store.Store
	plans   PlanStore
	sink    *activity.Sink
	metrics *metrics.Metrics
	logger  zerolog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// New creates a dispatcher.
func New(cfg Config, s *store.Store, plans PlanStore, sink *activity.Sink, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Dispatcher{
		queue:   make(chan *store.DispatchJob, cfg.QueueSize),
		workers: cfg.Workers,
		store:   s,
		plans:   plans,
		sink:    sink,
		metrics: m,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Start fails jobs stuck in running from a previous process, re-enqueues
// persisted pending jobs, and launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.running.Swap(true) {
		return nil // already running
	}

	ctx, d.cancel = context.WithCancel(ctx)

	if n, err := d.store.FailStuckDispatchJobs(); err != nil {
		return fmt.Errorf("failing stuck dispatch jobs: %w", err)
	} else if n > 0 {
		d.logger.Warn().Int64("count", n).Msg("failed dispatch jobs stuck from previous run")
	}

	pending, err := d.store.PendingDispatchJobs()
	if err != nil {
		return fmt.Errorf("loading pending dispatch jobs: %w", err)
	}
	for _, job := range pending {
		select {
		case d.queue <- job:
		default:
			d.logger.Warn().Str("job_id", job.ID).Msg("queue full during startup requeue")
		}
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	d.logger.Info().Int("workers", d.workers).Int("requeued", len(pending)).Msg("dispatcher started")
	return nil
}

// Stop gracefully shuts down the worker pool.
func (d *Dispatcher) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info().Msg("dispatcher stopped")
}

// Enqueue persists a dispatch job for the suggestion and hands it to the
// worker pool. The caller never waits for the dispatch to run.
func (d *Dispatcher) Enqueue(ctx context.Context, suggestionID int64) (string, error) {
	job := &store.DispatchJob{
		ID:           uuid.New().String(),
		SuggestionID: suggestionID,
		Status:       store.JobPending,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := d.store.SaveDispatchJob(job); err != nil {
		return "", fmt.Errorf("persisting dispatch job: %w", err)
	}

	select {
	case d.queue <- job:
		if d.metrics != nil {
			d.metrics.DispatchQueueSize.Set(float64(len(d.queue)))
		}
		d.logger.Info().
			Str("job_id", job.ID).
			Int64("suggestion_id", suggestionID).
			Msg("dispatch job enqueued")
		return job.ID, nil
	default:
		_ = d.store.CompleteDispatchJob(job.ID, "dispatch queue is full")
		return "", fmt.Errorf("dispatch queue is full")
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log := d.logger.With().Int("worker", id).Logger()
	log.Debug().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("worker stopping")
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			if d.metrics != nil {
				d.metrics.DispatchQueueSize.Set(float64(len(d.queue)))
			}
			d.process(ctx, job, log)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, job *store.DispatchJob, log zerolog.Logger) {
	if err := d.store.StartDispatchJob(job.ID); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job running")
		return
	}

	suggestionType, err := d.dispatch(ctx, job.SuggestionID)

	result := store.JobCompleted
	errMsg := ""
	if err != nil {
		result = store.JobFailed
		errMsg = err.Error()
		log.Error().Err(err).
			Str("job_id", job.ID).
			Int64("suggestion_id", job.SuggestionID).
			Msg("dispatch failed")
	} else {
		log.Info().
			Str("job_id", job.ID).
			Int64("suggestion_id", job.SuggestionID).
			Str("type", suggestionType).
			Msg("dispatch completed")
	}

	if err := d.store.CompleteDispatchJob(job.ID, errMsg); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to record job outcome")
	}

	if d.metrics != nil {
		if suggestionType == "" {
			suggestionType = "unknown"
		}
		d.metrics.RecordDispatch(suggestionType, result)
	}

	if d.sink != nil {
		summary := fmt.Sprintf("dispatch %s for suggestion %d", result, job.SuggestionID)
		if errMsg != "" {
			summary += ": " + errMsg
		}
		entry := activity.Entry{
			ActionType:    "suggestion_dispatch",
			ToolName:      "dispatcher",
			ResultSummary: summary,
			SessionID:     job.ID,
			Success:       errMsg == "",
		}
		if err == nil {
			entry.FilesModified = []string{fmt.Sprintf("suggestion-%d.json", job.SuggestionID)}
		}
		if recErr := d.sink.Record(entry); recErr != nil {
			log.Warn().Err(recErr).Msg("failed to record dispatch activity")
		}
	}
}

// dispatch resolves the plan, persists it, then promotes the suggestion. Any
// failure leaves the suggestion in its approved state; nothing is retried.
func (d *Dispatcher) dispatch(_ context.Context, suggestionID int64) (string, error) {
	detail, err := d.store.GetSuggestionDetail(suggestionID)
	if err != nil {
		return "", err
	}
	if detail == nil {
		return "", fmt.Errorf("%w: suggestion %d", mcerrors.ErrNotFound, suggestionID)
	}

	tmpl, err := ResolveTemplate(detail.Type)
	if err != nil {
		// Suggestion stays approved; no plan artifact is produced.
		return detail.Type, err
	}

	config := json.RawMessage(detail.ProjectConfig)
	if !json.Valid(config) {
		config = json.RawMessage("{}")
	}

	plan := &ExecutionPlan{
		SuggestionID: detail.ID,
		Type:         detail.Type,
		Project:      detail.ProjectName,
		Title:        detail.Title,
		Description:  detail.Description,
		Config:       config,
		Steps:        tmpl.Steps,
	}

	// The plan must be durable before the status changes: a suggestion is
	// never executed with a missing plan.
	if err := d.plans.Save(plan); err != nil {
		return detail.Type, fmt.Errorf("persisting plan for suggestion %d: %w", suggestionID, err)
	}

	if err := d.store.MarkExecuted(suggestionID); err != nil {
		return detail.Type, fmt.Errorf("marking suggestion %d executed: %w", suggestionID, err)
	}

	return detail.Type, nil
}
