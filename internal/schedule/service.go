// Package schedule manages the calendar of recurring tasks. Tasks carry a
// five-field cron expression; the service validates expressions and keeps
// next-run timestamps current, while execution stays outside mission control.
package schedule

import (
	"fmt"
	"strings"
	"time"

	gocron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/store"
)

// Service validates cron schedules and maintains scheduled task records.
type Service struct {
	store  *store.Store
	parser gocron.Parser
	logger zerolog.Logger
}

// NewService creates a schedule service using standard five-field cron
// expressions (minute hour dom month dow).
func NewService(s *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  s,
		parser: gocron.NewParser(gocron.Minute | gocron.Hour | gocron.Dom | gocron.Month | gocron.Dow),
		logger: logger.With().Str("component", "schedule").Logger(),
	}
}

// ValidateExpression parses a cron expression and returns an error wrapping
// ErrInvalidInput when it cannot be scheduled.
func (s *Service) ValidateExpression(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("%w: empty schedule", mcerrors.ErrInvalidInput)
	}
	if _, err := s.parser.Parse(expr); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", mcerrors.ErrInvalidInput, expr, err)
	}
	return nil
}

// NextRun computes the next execution time for expr after now, in unix ms.
// Returns 0 for unparseable expressions.
func (s *Service) NextRun(expr string, now time.Time) int64 {
	sched, err := s.parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return 0
	}
	return sched.Next(now.UTC()).UnixMilli()
}

// Create validates the task's schedule, computes its first run and persists
// it. The stored NextRun lets the calendar sort without reparsing cron
// expressions on every read.
func (s *Service) Create(task *store.ScheduledTask) error {
	if strings.TrimSpace(task.Name) == "" {
		return fmt.Errorf("%w: task name is required", mcerrors.ErrInvalidInput)
	}
	if err := s.ValidateExpression(task.Schedule); err != nil {
		return err
	}
	if task.NextRun == 0 {
		task.NextRun = s.NextRun(task.Schedule, time.Now())
	}
	if err := s.store.CreateScheduledTask(task); err != nil {
		return err
	}
	s.logger.Info().
		Int64("task_id", task.ID).
		Str("name", task.Name).
		Str("schedule", task.Schedule).
		Msg("scheduled task created")
	return nil
}

// Get returns a scheduled task by id, or ErrNotFound.
func (s *Service) Get(id int64) (*store.ScheduledTask, error) {
	task, err := s.store.GetScheduledTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("scheduled task %d: %w", id, mcerrors.ErrNotFound)
	}
	return task, nil
}

// List returns the calendar: all tasks, soonest next run first.
func (s *Service) List() ([]*store.ScheduledTask, error) {
	return s.store.ListScheduledTasks()
}

// MarkRan records a completed run and advances the task's next-run time.
func (s *Service) MarkRan(id int64, ranAt time.Time) error {
	task, err := s.Get(id)
	if err != nil {
		return err
	}
	next := s.NextRun(task.Schedule, ranAt)
	return s.store.UpdateScheduledTaskRuns(id, next, ranAt.UnixMilli())
}

// SetStatus enables or disables a task. Enabling recomputes the next run so
// a long-disabled task does not surface a stale timestamp.
func (s *Service) SetStatus(id int64, status string) error {
	if status != store.TaskEnabled && status != store.TaskDisabled {
		return fmt.Errorf("%w: status %q", mcerrors.ErrInvalidInput, status)
	}
	task, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.SetScheduledTaskStatus(id, status); err != nil {
		return err
	}
	if status == store.TaskEnabled {
		next := s.NextRun(task.Schedule, time.Now())
		if err := s.store.UpdateScheduledTaskRuns(id, next, task.LastRun); err != nil {
			return err
		}
	}
	return nil
}
