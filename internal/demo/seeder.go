// Package demo seeds sample data for local exploration. Seeding is an
// explicit, demo-mode-only operation; it never runs implicitly at startup.
package demo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/activity"
	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/schedule"
	"github.com/openclaw/mission-control/internal/store"
)

// Seeder loads demo fixtures into the store.
type Seeder struct {
	store    *store.Store
	schedule *schedule.Service
	sink     *activity.Sink
	enabled  bool
	logger   zerolog.Logger
}

// Result reports what a seeding run inserted.
type Result struct {
	Projects    int  `json:"projects"`
	Suggestions int  `json:"suggestions"`
	Tasks       int  `json:"tasks"`
	Skipped     bool `json:"skipped"`
}

// NewSeeder creates a seeder. enabled should come from the demo-mode config
// flag; when false every Seed call is rejected.
func NewSeeder(s *store.Store, sched *schedule.Service, sink *activity.Sink, enabled bool, logger zerolog.Logger) *Seeder {
	return &Seeder{
		store:    s,
		schedule: sched,
		sink:     sink,
		enabled:  enabled,
		logger:   logger.With().Str("component", "demo").Logger(),
	}
}

// Enabled reports whether demo mode is on.
func (d *Seeder) Enabled() bool { return d.enabled }

// Seed inserts the demo dataset. It refuses to run outside demo mode and
// skips when projects already exist, so repeated calls never duplicate data.
func (d *Seeder) Seed() (*Result, error) {
	if !d.enabled {
		return nil, mcerrors.ErrDemoModeOnly
	}

	var existing int
	if err := d.store.DB().QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check existing projects: %w", err)
	}
	if existing > 0 {
		d.logger.Info().Int("projects", existing).Msg("seed skipped, data already present")
		return &Result{Skipped: true}, nil
	}

	res := &Result{}

	projects := []*store.Project{
		{Name: "Harborlight Marketing", Description: "Digital marketing strategy for the coastal logistics client", Status: store.ProjectActive, Progress: 65},
		{Name: "Forecast Engine", Description: "Demand prediction model for the retail pilot", Status: store.ProjectActive, Progress: 40},
		{Name: "Bookings MVP", Description: "Appointment booking platform prototype", Status: store.ProjectPaused, Progress: 20},
		{Name: "Repo Cleanup", Description: "Repository maintenance and organization", Status: store.ProjectActive, Progress: 80},
		{Name: "Mission Control", Description: "This dashboard", Status: store.ProjectActive, Progress: 95},
	}
	for _, p := range projects {
		if err := d.store.CreateProject(p); err != nil {
			return nil, fmt.Errorf("failed to seed project %s: %w", p.Name, err)
		}
		res.Projects++
	}

	suggestions := []*store.Suggestion{
		{ProjectID: projects[0].ID, Type: "email_drip_campaign", Title: "Launch email campaign", Description: "Targeted emails to port operators", Confidence: 85},
		{ProjectID: projects[0].ID, Type: "linkedin_posts", Title: "Weekly LinkedIn series", Description: "Thought-leadership posts from case notes", Confidence: 75},
		{ProjectID: projects[0].ID, Type: "competitor_analysis", Title: "Quarterly competitor scan", Description: "Track pricing and positioning changes", Confidence: 70},
		{ProjectID: projects[1].ID, Type: "seo_audit", Title: "Audit landing pages", Description: "Crawl and score the pilot microsite", Confidence: 90},
		{ProjectID: projects[3].ID, Type: "newsletter_digest", Title: "Monthly changelog digest", Description: "Summarize merged work for stakeholders", Confidence: 65},
		{ProjectID: projects[4].ID, Type: "seo_audit", Title: "Dashboard docs audit", Description: "Review public docs for stale content", Confidence: 60},
	}
	for _, sg := range suggestions {
		if err := d.store.CreateSuggestion(sg); err != nil {
			return nil, fmt.Errorf("failed to seed suggestion %s: %w", sg.Title, err)
		}
		res.Suggestions++
	}

	tasks := []*store.ScheduledTask{
		{Name: "health-check", Schedule: "*/5 * * * *", Description: "Ping downstream services every 5 minutes", Category: "system"},
		{Name: "activity-rollup", Schedule: "*/30 * * * *", Description: "Refresh the activity feed cache", Category: "maintenance"},
		{Name: "morning-email-batch", Schedule: "0 9 * * *", Description: "Send the daily campaign batch", Category: "marketing"},
	}
	for _, task := range tasks {
		if err := d.schedule.Create(task); err != nil {
			return nil, fmt.Errorf("failed to seed task %s: %w", task.Name, err)
		}
		res.Tasks++
	}

	if d.sink != nil {
		_ = d.sink.Record(activity.Entry{
			ActionType: "database_seeded",
			ToolName:   "demo",
			ResultSummary: fmt.Sprintf("demo data loaded: %d projects, %d suggestions, %d tasks",
				res.Projects, res.Suggestions, res.Tasks),
			Success: true,
		})
	}

	d.logger.Info().
		Int("projects", res.Projects).
		Int("suggestions", res.Suggestions).
		Int("tasks", res.Tasks).
		Msg("demo data seeded")
	return res, nil
}

// Reset wipes demo data so Seed can run again. Demo mode only.
func (d *Seeder) Reset() error {
	if !d.enabled {
		return mcerrors.ErrDemoModeOnly
	}
	tables := []string{"suggestion_actions", "project_suggestions", "projects", "scheduled_tasks", "activity_logs", "dispatch_jobs"}
	for _, table := range tables {
		if _, err := d.store.DB().Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	d.logger.Info().Msg("demo data reset")
	return nil
}
