package api

import (
	"github.com/openclaw/mission-control/internal/store"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// CreateProjectRequest is the body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Config      string `json:"config"`
}

// UpdateProjectRequest is the body for PATCH /api/v1/projects/:id.
type UpdateProjectRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

// ProjectResponse is the wire form of a project.
type ProjectResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	LastActivity int64  `json:"last_activity"`
	Config       string `json:"config,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// ProjectWithSuggestionsResponse adds the project's suggestions for the
// dashboard listing.
type ProjectWithSuggestionsResponse struct {
	ProjectResponse
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// CreateSuggestionRequest is the body for POST /api/v1/projects/:id/suggestions.
type CreateSuggestionRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

// DecisionRequest is the optional body for the decision endpoints.
type DecisionRequest struct {
	Reason string `json:"reason"`
}

// SuggestionResponse is the wire form of a suggestion.
type SuggestionResponse struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Confidence  int    `json:"confidence"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	ActedAt     int64  `json:"acted_at,omitempty"`
}

// SuggestionDetailResponse is a suggestion with project context and its
// decision history.
type SuggestionDetailResponse struct {
	SuggestionResponse
	ProjectName string                     `json:"project_name"`
	Actions     []SuggestionActionResponse `json:"actions"`
}

// SuggestionActionResponse is one audit record of a review decision.
type SuggestionActionResponse struct {
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	ExecutedAt int64  `json:"executed_at"`
}

// DecisionResponse reports the outcome of a decision endpoint.
type DecisionResponse struct {
	SuggestionID int64  `json:"suggestion_id"`
	Status       string `json:"status"`
	JobID        string `json:"job_id,omitempty"`
}

// JobResponse is the wire form of a dispatch job.
type JobResponse struct {
	ID           string `json:"id"`
	SuggestionID int64  `json:"suggestion_id"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	StartedAt    int64  `json:"started_at,omitempty"`
	CompletedAt  int64  `json:"completed_at,omitempty"`
}

// ActivityResponse is one activity feed entry.
type ActivityResponse struct {
	ID            int64  `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	ActionType    string `json:"action_type"`
	ToolName      string `json:"tool_name,omitempty"`
	ResultSummary string `json:"result_summary,omitempty"`
	FilesModified string `json:"files_modified,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	Success       bool   `json:"success"`
}

// SearchResultResponse is one full-text match.
type SearchResultResponse struct {
	FilePath     string `json:"file_path"`
	Snippet      string `json:"snippet"`
	FileType     string `json:"file_type"`
	ModifiedDate int64  `json:"modified_date"`
}

// CreateTaskRequest is the body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Schedule    string `json:"schedule"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UpdateTaskStatusRequest is the body for PATCH /api/v1/tasks/:id/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// TaskResponse is the wire form of a scheduled task.
type TaskResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Schedule    string `json:"schedule"`
	NextRun     int64  `json:"next_run,omitempty"`
	LastRun     int64  `json:"last_run,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func projectResponse(p *store.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Status:       p.Status,
		Progress:     p.Progress,
		LastActivity: p.LastActivity,
		Config:       p.ConfigJSON,
		CreatedAt:    p.CreatedAt,
	}
}

func suggestionResponse(sg *store.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:          sg.ID,
		ProjectID:   sg.ProjectID,
		Type:        sg.Type,
		Title:       sg.Title,
		Description: sg.Description,
		Confidence:  sg.Confidence,
		Status:      sg.Status,
		CreatedAt:   sg.CreatedAt,
		ActedAt:     sg.ActedAt,
	}
}

func jobResponse(j *store.DispatchJob) JobResponse {
	return JobResponse{
		ID:           j.ID,
		SuggestionID: j.SuggestionID,
		Status:       j.Status,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}

func activityResponse(e *store.ActivityEntry) ActivityResponse {
	return ActivityResponse{
		ID:            e.ID,
		Timestamp:     e.Timestamp,
		ActionType:    e.ActionType,
		ToolName:      e.ToolName,
		ResultSummary: e.ResultSummary,
		FilesModified: e.FilesModified,
		SessionID:     e.SessionID,
		Success:       e.Success,
	}
}

func taskResponse(t *store.ScheduledTask) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Schedule:    t.Schedule,
		NextRun:     t.NextRun,
		LastRun:     t.LastRun,
		Status:      t.Status,
		Description: t.Description,
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
