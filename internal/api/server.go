// Package api serves the mission control HTTP surface: the suggestion review
// endpoints, the project and calendar query surface, full-text search and the
// operational probes.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/openclaw/mission-control/internal/lifecycle"
	"github.com/openclaw/mission-control/internal/metrics"
	"github.com/openclaw/mission-control/internal/requestid"
)

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	ListenAddr  string
	APIKey      string
	CORSOrigins string
	RateLimit   RateLimitConfig
}

// Server is the mission control Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, handlers *Handlers, m *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:      app,
		handlers: handlers,
		logger:   logger.With().Str("component", "api_server").Logger(),
		config:   cfg,
	}

	s.setupMiddleware(cfg, m, logger)
	s.setupRoutes(handlers, m)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, m *metrics.Metrics, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		rl := cfg.RateLimit
		if rl.Burst <= 0 {
			rl.Burst = rl.RPS
		}
		s.app.Use(NewRateLimitMiddleware(rl))
	}

	s.app.Use(NewAuthMiddleware(cfg.APIKey, logger))

	// Audit middleware (log every request, time the route)
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		// Skip noisy probe logging
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		if m != nil {
			m.ObserveDuration(c.Route().Path, time.Since(start).Seconds())
		}

		// Errors resolve to a response in the error handler after this
		// middleware returns, so the status must come from the error itself.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")

		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, m *metrics.Metrics) {
	// Probe endpoints (no auth required, handled in auth middleware)
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	// Prometheus metrics
	if m != nil {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			fasthttpadaptor.NewFastHTTPHandler(m.Handler())(c.Context())
			return nil
		})
	}

	v1 := s.app.Group("/api/v1")

	// Projects
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects", h.ListProjects)
	v1.Get("/projects/:id", h.GetProject)
	v1.Patch("/projects/:id", h.UpdateProject)
	v1.Post("/projects/:id/suggestions", h.CreateSuggestion)

	// Suggestion lifecycle
	v1.Get("/suggestions/active", h.ActiveSuggestions)
	v1.Get("/suggestions/:id", h.GetSuggestion)
	v1.Post("/suggestions/:id/approve", h.Decide(lifecycle.ActionApprove))
	v1.Post("/suggestions/:id/decline", h.Decide(lifecycle.ActionDecline))
	v1.Post("/suggestions/:id/snooze", h.Decide(lifecycle.ActionSnooze))
	v1.Get("/suggestions/:id/plan", h.GetPlan)

	// Dispatch jobs
	v1.Get("/jobs/:id", h.GetJob)

	// Activity feed
	v1.Get("/activity", h.Activity)

	// Workspace search
	v1.Get("/search", h.Search)
	v1.Post("/search/reindex", h.Reindex)

	// Calendar
	v1.Post("/tasks", h.CreateTask)
	v1.Get("/tasks", h.ListTasks)
	v1.Patch("/tasks/:id/status", h.UpdateTaskStatus)

	// Demo mode
	v1.Post("/seed", h.Seed)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Msg("api server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("api server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
