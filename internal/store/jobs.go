package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Dispatch job states.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// DispatchJob is one unit of execution work handed off by an approval. The
// job row is how a worker's outcome becomes observable: the approving request
// returns immediately, the worker reports back here.
type DispatchJob struct {
	ID           string
	SuggestionID int64
	Status       string
	Error        string
	CreatedAt    int64 // unix ms
	StartedAt    int64 // unix ms, 0 = not started
	CompletedAt  int64 // unix ms, 0 = not completed
}

// SaveDispatchJob inserts or updates a dispatch job.
func (s *Store) SaveDispatchJob(j *DispatchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.CreatedAt == 0 {
		j.CreatedAt = time.Now().UnixMilli()
	}
	if j.Status == "" {
		j.Status = JobPending
	}

	query := `
	INSERT OR REPLACE INTO dispatch_jobs (id, suggestion_id, status, error, created_at, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		j.ID, j.SuggestionID, j.Status,
		sql.NullString{String: j.Error, Valid: j.Error != ""},
		j.CreatedAt,
		sql.NullInt64{Int64: j.StartedAt, Valid: j.StartedAt != 0},
		sql.NullInt64{Int64: j.CompletedAt, Valid: j.CompletedAt != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to save dispatch job: %w", err)
	}
	return nil
}

// GetDispatchJob retrieves a dispatch job by ID. Returns nil if not found.
func (s *Store) GetDispatchJob(id string) (*DispatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j := &DispatchJob{}
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullInt64

	query := `
	SELECT id, suggestion_id, status, error, created_at, started_at, completed_at
	FROM dispatch_jobs WHERE id = ?
	`

	err := s.db.QueryRow(query, id).Scan(
		&j.ID, &j.SuggestionID, &j.Status, &errMsg,
		&j.CreatedAt, &startedAt, &completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatch job: %w", err)
	}

	if errMsg.Valid {
		j.Error = errMsg.String
	}
	if startedAt.Valid {
		j.StartedAt = startedAt.Int64
	}
	if completedAt.Valid {
		j.CompletedAt = completedAt.Int64
	}

	return j, nil
}

// StartDispatchJob marks a job as running.
func (s *Store) StartDispatchJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE dispatch_jobs SET status = ?, started_at = ? WHERE id = ?`,
		JobRunning, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to start dispatch job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatch job not found: %s", id)
	}

	return nil
}

// CompleteDispatchJob marks a job completed, or failed when errMsg is set.
func (s *Store) CompleteDispatchJob(id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := JobCompleted
	if errMsg != "" {
		status = JobFailed
	}

	res, err := s.db.Exec(
		`UPDATE dispatch_jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status,
		sql.NullString{String: errMsg, Valid: errMsg != ""},
		time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete dispatch job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatch job not found: %s", id)
	}

	return nil
}

// PendingDispatchJobs returns pending jobs oldest-first, for re-enqueue on startup.
func (s *Store) PendingDispatchJobs() ([]*DispatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, suggestion_id, status, error, created_at, started_at, completed_at
	FROM dispatch_jobs WHERE status = 'pending' ORDER BY created_at ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending dispatch jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*DispatchJob
	for rows.Next() {
		j := &DispatchJob{}
		var errMsg sql.NullString
		var startedAt, completedAt sql.NullInt64

		err := rows.Scan(
			&j.ID, &j.SuggestionID, &j.Status, &errMsg,
			&j.CreatedAt, &startedAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch job: %w", err)
		}

		if errMsg.Valid {
			j.Error = errMsg.String
		}
		if startedAt.Valid {
			j.StartedAt = startedAt.Int64
		}
		if completedAt.Valid {
			j.CompletedAt = completedAt.Int64
		}

		jobs = append(jobs, j)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatch jobs: %w", err)
	}

	return jobs, nil
}

// FailStuckDispatchJobs marks running jobs as failed (startup recovery).
// A worker that died mid-dispatch would otherwise be invisible forever.
func (s *Store) FailStuckDispatchJobs() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	query := `
	UPDATE dispatch_jobs
	SET status = 'failed', error = 'stuck_on_startup', completed_at = ?
	WHERE status = 'running'
	`

	res, err := s.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stuck dispatch jobs: %w", err)
	}

	return res.RowsAffected()
}
