package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultActivityLimit bounds activity reads so the UI never receives an
// unbounded payload.
const DefaultActivityLimit = 50

// ActivityEntry is a write-once audit record of a system or agent event.
type ActivityEntry struct {
	ID            int64
	Timestamp     int64 // unix ms
	ActionType    string
	ToolName      string
	Params        string
	ResultSummary string
	FilesModified string // JSON array of paths
	SessionID     string
	Success       bool
}

// RecordActivity appends one activity log row. Rows are never updated or
// deleted after insertion.
func (s *Store) RecordActivity(e *ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	query := `
	INSERT INTO activity_logs (timestamp, action_type, tool_name, params, result_summary, files_modified, session_id, success)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		e.Timestamp, e.ActionType,
		sql.NullString{String: e.ToolName, Valid: e.ToolName != ""},
		sql.NullString{String: e.Params, Valid: e.Params != ""},
		sql.NullString{String: e.ResultSummary, Valid: e.ResultSummary != ""},
		sql.NullString{String: e.FilesModified, Valid: e.FilesModified != ""},
		sql.NullString{String: e.SessionID, Valid: e.SessionID != ""},
		boolToInt(e.Success),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get activity id: %w", err)
	}
	e.ID = id
	return nil
}

// RecentActivity returns entries ordered by timestamp descending, most recent
// first. A non-positive limit falls back to DefaultActivityLimit.
func (s *Store) RecentActivity(limit int) ([]*ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	query := `
	SELECT id, timestamp, action_type, tool_name, params, result_summary, files_modified, session_id, success
	FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*ActivityEntry
	for rows.Next() {
		e := &ActivityEntry{}
		var toolName, params, summary, files, sessionID sql.NullString
		var success int

		err := rows.Scan(
			&e.ID, &e.Timestamp, &e.ActionType,
			&toolName, &params, &summary, &files, &sessionID, &success,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		if toolName.Valid {
			e.ToolName = toolName.String
		}
		if params.Valid {
			e.Params = params.String
		}
		if summary.Valid {
			e.ResultSummary = summary.String
		}
		if files.Valid {
			e.FilesModified = files.String
		}
		if sessionID.Valid {
			e.SessionID = sessionID.String
		}
		e.Success = success != 0

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
