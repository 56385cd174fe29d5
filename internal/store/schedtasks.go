package store

import (
	"database/sql"
	"fmt"
	"time"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// Scheduled task states. Tasks are scheduling metadata only; execution is
// external to mission control.
const (
	TaskEnabled  = "enabled"
	TaskDisabled = "disabled"
)

// ScheduledTask describes a named recurring job shown on the calendar.
type ScheduledTask struct {
	ID          int64
	Name        string
	Schedule    string // cron expression
	NextRun     int64  // unix ms, 0 = unknown
	LastRun     int64  // unix ms, 0 = never
	Status      string
	Description string
	Category    string
	CreatedAt   int64
	UpdatedAt   int64
}

// CreateScheduledTask inserts a new scheduled task and sets its ID.
func (s *Store) CreateScheduledTask(t *ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = TaskEnabled
	}

	query := `
	INSERT INTO scheduled_tasks (name, schedule, next_run, last_run, status, description, category, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		t.Name, t.Schedule,
		sql.NullInt64{Int64: t.NextRun, Valid: t.NextRun != 0},
		sql.NullInt64{Int64: t.LastRun, Valid: t.LastRun != 0},
		t.Status, t.Description, t.Category, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scheduled task id: %w", err)
	}
	t.ID = id
	return nil
}

// GetScheduledTask retrieves a scheduled task by ID. Returns nil if not found.
func (s *Store) GetScheduledTask(id int64) (*ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &ScheduledTask{}
	var nextRun, lastRun sql.NullInt64

	query := `
	SELECT id, name, schedule, next_run, last_run, status, description, category, created_at, updated_at
	FROM scheduled_tasks WHERE id = ?
	`

	err := s.db.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &t.Schedule, &nextRun, &lastRun,
		&t.Status, &t.Description, &t.Category, &t.CreatedAt, &t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled task: %w", err)
	}

	if nextRun.Valid {
		t.NextRun = nextRun.Int64
	}
	if lastRun.Valid {
		t.LastRun = lastRun.Int64
	}

	return t, nil
}

// ListScheduledTasks returns all scheduled tasks ordered by next run, soonest
// first; tasks without a computed next run sort last.
func (s *Store) ListScheduledTasks() ([]*ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, name, schedule, next_run, last_run, status, description, category, created_at, updated_at
	FROM scheduled_tasks ORDER BY next_run IS NULL, next_run ASC, id ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*ScheduledTask
	for rows.Next() {
		t := &ScheduledTask{}
		var nextRun, lastRun sql.NullInt64

		err := rows.Scan(
			&t.ID, &t.Name, &t.Schedule, &nextRun, &lastRun,
			&t.Status, &t.Description, &t.Category, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled task: %w", err)
		}

		if nextRun.Valid {
			t.NextRun = nextRun.Int64
		}
		if lastRun.Valid {
			t.LastRun = lastRun.Int64
		}

		tasks = append(tasks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled tasks: %w", err)
	}

	return tasks, nil
}

// UpdateScheduledTaskRuns sets the next/last run timestamps after a schedule
// recomputation or an externally reported run.
func (s *Store) UpdateScheduledTaskRuns(id int64, nextRun, lastRun int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE scheduled_tasks SET next_run = ?, last_run = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.Exec(query,
		sql.NullInt64{Int64: nextRun, Valid: nextRun != 0},
		sql.NullInt64{Int64: lastRun, Valid: lastRun != 0},
		time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduled task runs: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("scheduled task %d: %w", id, mcerrors.ErrNotFound)
	}

	return nil
}

// SetScheduledTaskStatus enables or disables a scheduled task.
func (s *Store) SetScheduledTaskStatus(id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE scheduled_tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set scheduled task status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("scheduled task %d: %w", id, mcerrors.ErrNotFound)
	}

	return nil
}
