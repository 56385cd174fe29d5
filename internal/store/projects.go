package store

import (
	"database/sql"
	"fmt"
	"time"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// Project lifecycle states.
const (
	ProjectActive    = "active"
	ProjectPaused    = "paused"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

var validProjectStatuses = map[string]bool{
	ProjectActive:    true,
	ProjectPaused:    true,
	ProjectCompleted: true,
	ProjectArchived:  true,
}

// Project represents a project in the database
type Project struct {
	ID           int64
	Name         string
	Description  string
	Status       string // active, paused, completed, archived
	Progress     int    // 0-100
	LastActivity int64  // unix ms
	ConfigJSON   string
	CreatedAt    int64 // unix ms
}

// ProjectWithSuggestions bundles a project with its suggestions for the query surface.
type ProjectWithSuggestions struct {
	Project
	Suggestions []*Suggestion
}

// CreateProject inserts a new project and sets its ID.
func (s *Store) CreateProject(p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.LastActivity == 0 {
		p.LastActivity = now
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if !validProjectStatuses[p.Status] {
		return fmt.Errorf("%w: project status %q", mcerrors.ErrInvalidInput, p.Status)
	}
	if p.ConfigJSON == "" {
		p.ConfigJSON = "{}"
	}
	p.Progress = clampProgress(p.Progress)

	query := `
	INSERT INTO projects (name, description, status, progress, last_activity, config_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		p.Name, p.Description, p.Status, p.Progress, p.LastActivity, p.ConfigJSON, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get project id: %w", err)
	}
	p.ID = id
	return nil
}

// GetProject retrieves a project by ID. Returns nil if not found.
func (s *Store) GetProject(id int64) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProject(id)
}

func (s *Store) getProject(id int64) (*Project, error) {
	p := &Project{}

	query := `
	SELECT id, name, description, status, progress, last_activity, config_json, created_at
	FROM projects WHERE id = ?
	`

	err := s.db.QueryRow(query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Status, &p.Progress,
		&p.LastActivity, &p.ConfigJSON, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// ListProjects returns all projects ordered by last activity, most recent first.
func (s *Store) ListProjects() ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, name, description, status, progress, last_activity, config_json, created_at
	FROM projects ORDER BY last_activity DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Status, &p.Progress,
			&p.LastActivity, &p.ConfigJSON, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// ListProjectsWithSuggestions returns all projects with their suggestions nested,
// projects by last activity desc, suggestions newest-first.
func (s *Store) ListProjectsWithSuggestions() ([]*ProjectWithSuggestions, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}

	result := make([]*ProjectWithSuggestions, 0, len(projects))
	for _, p := range projects {
		suggestions, err := s.ListSuggestionsByProject(p.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &ProjectWithSuggestions{Project: *p, Suggestions: suggestions})
	}

	return result, nil
}

// UpdateProjectStatus updates a project's lifecycle status.
// Archival is a status change, never a hard delete.
func (s *Store) UpdateProjectStatus(id int64, status string) error {
	if !validProjectStatuses[status] {
		return fmt.Errorf("%w: project status %q", mcerrors.ErrInvalidInput, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE projects SET status = ?, last_activity = ? WHERE id = ?`
	result, err := s.db.Exec(query, status, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", id, mcerrors.ErrNotFound)
	}

	return nil
}

// UpdateProjectProgress sets progress (clamped to 0-100) and refreshes last activity.
func (s *Store) UpdateProjectProgress(id int64, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE projects SET progress = ?, last_activity = ? WHERE id = ?`
	result, err := s.db.Exec(query, clampProgress(progress), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update project progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", id, mcerrors.ErrNotFound)
	}

	return nil
}

// TouchProject refreshes a project's last activity timestamp.
func (s *Store) TouchProject(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE projects SET last_activity = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	return nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
