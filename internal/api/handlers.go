package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/activity"
	"github.com/openclaw/mission-control/internal/demo"
	"github.com/openclaw/mission-control/internal/dispatch"
	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/health"
	"github.com/openclaw/mission-control/internal/lifecycle"
	"github.com/openclaw/mission-control/internal/schedule"
	"github.com/openclaw/mission-control/internal/search"
	"github.com/openclaw/mission-control/internal/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store        *store.Store
	lifecycle    *lifecycle.Service
	plans        dispatch.PlanStore
	sink         *activity.Sink
	indexer      *search.Indexer
	schedule     *schedule.Service
	seeder       *demo.Seeder
	checker      *health.Checker
	snoozeWindow time.Duration
	logger       zerolog.Logger
	startTime    time.Time
}

// HandlersConfig wires handler dependencies. indexer and seeder may be nil;
// the corresponding endpoints then report unavailable.
type HandlersConfig struct {
	Store        *store.Store
	Lifecycle    *lifecycle.Service
	Plans        dispatch.PlanStore
	Sink         *activity.Sink
	Indexer      *search.Indexer
	Schedule     *schedule.Service
	Seeder       *demo.Seeder
	Checker      *health.Checker
	SnoozeWindow time.Duration
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:        cfg.Store,
		lifecycle:    cfg.Lifecycle,
		plans:        cfg.Plans,
		sink:         cfg.Sink,
		indexer:      cfg.Indexer,
		schedule:     cfg.Schedule,
		seeder:       cfg.Seeder,
		checker:      cfg.Checker,
		snoozeWindow: cfg.SnoozeWindow,
		logger:       logger.With().Str("component", "handlers").Logger(),
		startTime:    time.Now(),
	}
}

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// storeProblem maps service errors onto RFC 7807 responses.
func storeProblem(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, mcerrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, mcerrors.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_input", "Bad Request", err.Error())
	case errors.Is(err, mcerrors.ErrDemoModeOnly):
		return problemResponse(c, fiber.StatusForbidden,
			"demo_mode_only", "Forbidden",
			"This endpoint is only available in demo mode")
	default:
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error",
			"The operation could not be completed")
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	for _, s := range results {
		if s == health.StatusDown {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": results,
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":     "ready",
		"checks":     results,
		"uptime_sec": int64(time.Since(h.startTime).Seconds()),
	})
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request", "Project name is required")
	}

	p := &store.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Progress:    req.Progress,
		ConfigJSON:  req.Config,
	}
	if err := h.store.CreateProject(p); err != nil {
		h.logger.Error().Err(err).Msg("failed to create project")
		return storeProblem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(projectResponse(p))
}

// ListProjects handles GET /api/v1/projects. Every project is returned with
// its suggestions nested, newest project activity first.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.store.ListProjectsWithSuggestions()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list projects")
		return storeProblem(c, err)
	}

	out := make([]ProjectWithSuggestionsResponse, 0, len(projects))
	for _, p := range projects {
		resp := ProjectWithSuggestionsResponse{
			ProjectResponse: projectResponse(&p.Project),
			Suggestions:     make([]SuggestionResponse, 0, len(p.Suggestions)),
		}
		for _, sg := range p.Suggestions {
			resp.Suggestions = append(resp.Suggestions, suggestionResponse(sg))
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Project id must be a positive integer")
	}

	p, err := h.store.GetProject(id)
	if err != nil {
		return storeProblem(c, err)
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Project not found")
	}
	return c.JSON(projectResponse(p))
}

// UpdateProject handles PATCH /api/v1/projects/:id.
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Project id must be a positive integer")
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.Status == nil && req.Progress == nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"empty_update", "Bad Request", "Provide status and/or progress")
	}

	if req.Status != nil {
		if err := h.store.UpdateProjectStatus(id, *req.Status); err != nil {
			return storeProblem(c, err)
		}
	}
	if req.Progress != nil {
		if err := h.store.UpdateProjectProgress(id, *req.Progress); err != nil {
			return storeProblem(c, err)
		}
	}

	p, err := h.store.GetProject(id)
	if err != nil || p == nil {
		return storeProblem(c, mcerrors.ErrNotFound)
	}
	return c.JSON(projectResponse(p))
}

// CreateSuggestion handles POST /api/v1/projects/:id/suggestions. New
// suggestions always start pending regardless of the request.
func (h *Handlers) CreateSuggestion(c *fiber.Ctx) error {
	projectID, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Project id must be a positive integer")
	}

	var req CreateSuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}
	if req.Title == "" || req.Type == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_fields", "Bad Request", "type and title are required")
	}

	p, err := h.store.GetProject(projectID)
	if err != nil {
		return storeProblem(c, err)
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Project not found")
	}

	sg := &store.Suggestion{
		ProjectID:   projectID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Confidence:  req.Confidence,
	}
	if err := h.store.CreateSuggestion(sg); err != nil {
		h.logger.Error().Err(err).Msg("failed to create suggestion")
		return storeProblem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(suggestionResponse(sg))
}

// ActiveSuggestions handles GET /api/v1/suggestions/active: pending
// suggestions plus recently snoozed ones, highest confidence first.
func (h *Handlers) ActiveSuggestions(c *fiber.Ctx) error {
	suggestions, err := h.store.ActiveSuggestions(h.snoozeWindow)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list active suggestions")
		return storeProblem(c, err)
	}
	out := make([]SuggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, suggestionResponse(sg))
	}
	return c.JSON(out)
}

// GetSuggestion handles GET /api/v1/suggestions/:id with project context and
// decision history.
func (h *Handlers) GetSuggestion(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Suggestion id must be a positive integer")
	}

	detail, err := h.store.GetSuggestionDetail(id)
	if err != nil {
		return storeProblem(c, err)
	}
	if detail == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Suggestion not found")
	}

	actions, err := h.store.ListActions(id)
	if err != nil {
		return storeProblem(c, err)
	}

	resp := SuggestionDetailResponse{
		SuggestionResponse: suggestionResponse(&detail.Suggestion),
		ProjectName:        detail.ProjectName,
		Actions:            make([]SuggestionActionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, SuggestionActionResponse{
			Action:     a.Action,
			Reason:     a.Reason,
			ExecutedAt: a.ExecutedAt,
		})
	}
	return c.JSON(resp)
}

// Decide handles the POST decision endpoints; the action is bound into the
// route registration.
func (h *Handlers) Decide(action lifecycle.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_id", "Bad Request", "Suggestion id must be a positive integer")
		}

		var req DecisionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return problemResponse(c, fiber.StatusBadRequest,
					"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
			}
		}

		res, err := h.lifecycle.Decide(c.Context(), id, action, req.Reason)
		if err != nil {
			return storeProblem(c, err)
		}
		return c.JSON(DecisionResponse{
			SuggestionID: res.SuggestionID,
			Status:       res.Status,
			JobID:        res.JobID,
		})
	}
}

// GetPlan handles GET /api/v1/suggestions/:id/plan: the execution plan
// artifact produced by dispatch.
func (h *Handlers) GetPlan(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Suggestion id must be a positive integer")
	}

	plan, err := h.plans.Load(id)
	if err != nil {
		return storeProblem(c, err)
	}
	return c.JSON(plan)
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *Handlers) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	job, err := h.store.GetDispatchJob(jobID)
	if err != nil {
		return storeProblem(c, err)
	}
	if job == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Job not found")
	}
	return c.JSON(jobResponse(job))
}

// Activity handles GET /api/v1/activity?limit=N.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	entries, err := h.sink.Recent(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read activity")
		return storeProblem(c, err)
	}
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse(e))
	}
	return c.JSON(out)
}

// Search handles GET /api/v1/search?q=term&limit=N.
func (h *Handlers) Search(c *fiber.Ctx) error {
	if h.indexer == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"search_unavailable", "Service Unavailable",
			"No workspace directory is configured")
	}

	term := c.Query("q")
	if term == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_query", "Bad Request", "Query parameter q is required")
	}

	results, err := h.indexer.Search(term, c.QueryInt("limit", 0))
	if err != nil {
		h.logger.Error().Err(err).Str("term", term).Msg("search failed")
		return storeProblem(c, err)
	}
	out := make([]SearchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResultResponse{
			FilePath:     r.FilePath,
			Snippet:      r.Snippet,
			FileType:     r.FileType,
			ModifiedDate: r.ModifiedDate,
		})
	}
	return c.JSON(out)
}

// Reindex handles POST /api/v1/search/reindex.
func (h *Handlers) Reindex(c *fiber.Ctx) error {
	if h.indexer == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"search_unavailable", "Service Unavailable",
			"No workspace directory is configured")
	}
	stats, err := h.indexer.Reindex(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("reindex failed")
		return storeProblem(c, err)
	}
	return c.JSON(stats)
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	task := &store.ScheduledTask{
		Name:        req.Name,
		Schedule:    req.Schedule,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.schedule.Create(task); err != nil {
		return storeProblem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(taskResponse(task))
}

// ListTasks handles GET /api/v1/tasks: the calendar, soonest run first.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.schedule.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list tasks")
		return storeProblem(c, err)
	}
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return c.JSON(out)
}

// UpdateTaskStatus handles PATCH /api/v1/tasks/:id/status.
func (h *Handlers) UpdateTaskStatus(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_id", "Bad Request", "Task id must be a positive integer")
	}

	var req UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request", "Invalid request body: "+err.Error())
	}

	if err := h.schedule.SetStatus(id, req.Status); err != nil {
		return storeProblem(c, err)
	}
	task, err := h.schedule.Get(id)
	if err != nil {
		return storeProblem(c, err)
	}
	return c.JSON(taskResponse(task))
}

// Seed handles POST /api/v1/seed. Demo mode only.
func (h *Handlers) Seed(c *fiber.Ctx) error {
	if h.seeder == nil {
		return storeProblem(c, mcerrors.ErrDemoModeOnly)
	}
	res, err := h.seeder.Seed()
	if err != nil {
		return storeProblem(c, err)
	}
	return c.JSON(res)
}
