package store

import (
	"database/sql"
	"fmt"
	"time"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// Suggestion review states.
const (
	SuggestionPending  = "pending"
	SuggestionApproved = "approved"
	SuggestionDeclined = "declined"
	SuggestionSnoozed  = "snoozed"
	SuggestionExecuted = "executed"
)

// Suggestion represents an AI-sourced recommendation attached to a project.
// Invariant: ActedAt is zero iff Status is pending.
type Suggestion struct {
	ID          int64
	ProjectID   int64
	Type        string
	Title       string
	Description string
	Confidence  int // 0-100, advisory only
	Status      string
	CreatedAt   int64 // unix ms
	ActedAt     int64 // unix ms, 0 = not acted on
}

// SuggestionAction is an append-only audit record of a review decision.
type SuggestionAction struct {
	ID           int64
	SuggestionID int64
	Action       string // approve, decline, snooze
	Reason       string
	ExecutedAt   int64 // unix ms
}

// SuggestionDetail joins a suggestion with its owning project's display context.
type SuggestionDetail struct {
	Suggestion
	ProjectName   string
	ProjectConfig string
}

// CreateSuggestion inserts a new pending suggestion and sets its ID.
func (s *Store) CreateSuggestion(sg *Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sg.CreatedAt == 0 {
		sg.CreatedAt = time.Now().UnixMilli()
	}
	sg.Status = SuggestionPending
	sg.ActedAt = 0
	if sg.Confidence == 0 {
		sg.Confidence = 50
	}

	query := `
	INSERT INTO project_suggestions (project_id, suggestion_type, title, description, confidence, status, created_at, acted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`

	res, err := s.db.Exec(query,
		sg.ProjectID, sg.Type, sg.Title, sg.Description, sg.Confidence, sg.Status, sg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create suggestion: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get suggestion id: %w", err)
	}
	sg.ID = id
	return nil
}

// GetSuggestion retrieves a suggestion by ID. Returns nil if not found.
func (s *Store) GetSuggestion(id int64) (*Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sg := &Suggestion{}
	var actedAt sql.NullInt64

	query := `
	SELECT id, project_id, suggestion_type, title, description, confidence, status, created_at, acted_at
	FROM project_suggestions WHERE id = ?
	`

	err := s.db.QueryRow(query, id).Scan(
		&sg.ID, &sg.ProjectID, &sg.Type, &sg.Title, &sg.Description,
		&sg.Confidence, &sg.Status, &sg.CreatedAt, &actedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}

	if actedAt.Valid {
		sg.ActedAt = actedAt.Int64
	}

	return sg, nil
}

// GetSuggestionDetail joins a suggestion with its owning project.
// Returns nil if the suggestion does not exist.
func (s *Store) GetSuggestionDetail(id int64) (*SuggestionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &SuggestionDetail{}
	var actedAt sql.NullInt64

	query := `
	SELECT sg.id, sg.project_id, sg.suggestion_type, sg.title, sg.description,
	       sg.confidence, sg.status, sg.created_at, sg.acted_at,
	       p.name, p.config_json
	FROM project_suggestions sg
	JOIN projects p ON sg.project_id = p.id
	WHERE sg.id = ?
	`

	err := s.db.QueryRow(query, id).Scan(
		&d.ID, &d.ProjectID, &d.Type, &d.Title, &d.Description,
		&d.Confidence, &d.Status, &d.CreatedAt, &actedAt,
		&d.ProjectName, &d.ProjectConfig,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion detail: %w", err)
	}

	if actedAt.Valid {
		d.ActedAt = actedAt.Int64
	}

	return d, nil
}

// ApplyDecision atomically sets the suggestion's status and appends the audit
// row. Both writes share one transaction so the audit trail and status can
// never diverge. Returns ErrNotFound (zero rows written) for unknown ids.
func (s *Store) ApplyDecision(suggestionID int64, action, status, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin decision transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE project_suggestions SET status = ?, acted_at = ? WHERE id = ?`,
		status, now, suggestionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update suggestion status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, mcerrors.ErrNotFound
	}

	_, err = tx.Exec(
		`INSERT INTO suggestion_actions (suggestion_id, action, reason, executed_at) VALUES (?, ?, ?, ?)`,
		suggestionID, action, reason, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record suggestion action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit decision: %w", err)
	}

	return now, nil
}

// MarkExecuted promotes an approved suggestion to executed with a fresh
// acted_at. Executed means a plan artifact was durably written, not that the
// plan ran to completion.
func (s *Store) MarkExecuted(suggestionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE project_suggestions SET status = ?, acted_at = ? WHERE id = ?`,
		SuggestionExecuted, time.Now().UnixMilli(), suggestionID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark suggestion executed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return mcerrors.ErrNotFound
	}

	return nil
}

// ListSuggestionsByProject returns a project's suggestions, newest first.
func (s *Store) ListSuggestionsByProject(projectID int64) ([]*Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, project_id, suggestion_type, title, description, confidence, status, created_at, acted_at
	FROM project_suggestions WHERE project_id = ? ORDER BY created_at DESC, id DESC
	`

	return s.querySuggestions(query, projectID)
}

// ActiveSuggestions returns the "needs review" set: pending suggestions plus
// snoozed ones still inside the snooze window, ordered by confidence desc then
// newest first. A snoozed suggestion re-surfaces only by a later decision; once
// the window elapses it drops out of this set entirely.
func (s *Store) ActiveSuggestions(snoozeWindow time.Duration) ([]*Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-snoozeWindow).UnixMilli()

	query := `
	SELECT id, project_id, suggestion_type, title, description, confidence, status, created_at, acted_at
	FROM project_suggestions
	WHERE status = 'pending'
	   OR (status = 'snoozed' AND created_at > ?)
	ORDER BY confidence DESC, created_at DESC
	`

	return s.querySuggestions(query, cutoff)
}

func (s *Store) querySuggestions(query string, args ...interface{}) ([]*Suggestion, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*Suggestion
	for rows.Next() {
		sg := &Suggestion{}
		var actedAt sql.NullInt64

		err := rows.Scan(
			&sg.ID, &sg.ProjectID, &sg.Type, &sg.Title, &sg.Description,
			&sg.Confidence, &sg.Status, &sg.CreatedAt, &actedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		if actedAt.Valid {
			sg.ActedAt = actedAt.Int64
		}

		suggestions = append(suggestions, sg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}

// ListActions returns a suggestion's full decision history in insertion order.
func (s *Store) ListActions(suggestionID int64) ([]*SuggestionAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, suggestion_id, action, reason, executed_at
	FROM suggestion_actions WHERE suggestion_id = ? ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.db.Query(query, suggestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*SuggestionAction
	for rows.Next() {
		a := &SuggestionAction{}
		err := rows.Scan(&a.ID, &a.SuggestionID, &a.Action, &a.Reason, &a.ExecutedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}

	return actions, nil
}
