package dispatch

import (
	"fmt"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// PlanStep is one named step of an execution plan. Steps are declarative
// metadata for the worker carrying out the plan, not executable code.
type PlanStep struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// PlanTemplate maps a suggestion type to its ordered execution steps.
type PlanTemplate struct {
	Type        string
	Description string
	Steps       []PlanStep
}

// templates is the fixed registry of known execution-plan templates.
var templates = map[string]PlanTemplate{
	"email_drip_campaign": {
		Type:        "email_drip_campaign",
		Description: "Create email drip campaign",
		Steps: []PlanStep{
			{Type: "research", Description: "Research target audience and email segments"},
			{Type: "design", Description: "Design email templates for drip sequence"},
			{Type: "implement", Description: "Set up Mailchimp/Brevo automation workflow"},
		},
	},
	"linkedin_posts": {
		Type:        "linkedin_posts",
		Description: "Generate LinkedIn posts from blog",
		Steps: []PlanStep{
			{Type: "analyze", Description: "Analyze existing blog content for repurposing opportunities"},
			{Type: "generate", Description: "Generate LinkedIn post variants using AI"},
			{Type: "schedule", Description: "Schedule posts across next 7 days"},
		},
	},
	"competitor_analysis": {
		Type:        "competitor_analysis",
		Description: "Review competitor pricing",
		Steps: []PlanStep{
			{Type: "research", Description: "Research competitor pricing and feature lists"},
			{Type: "analyze", Description: "Analyze pricing strategy gaps and opportunities"},
			{Type: "report", Description: "Create detailed comparative analysis report"},
		},
	},
	"seo_audit": {
		Type:        "seo_audit",
		Description: "Run technical SEO audit",
		Steps: []PlanStep{
			{Type: "crawl", Description: "Crawl site pages and collect metadata"},
			{Type: "analyze", Description: "Analyze rankings, broken links and page speed"},
			{Type: "report", Description: "Summarize findings with prioritized fixes"},
		},
	},
	"newsletter_digest": {
		Type:        "newsletter_digest",
		Description: "Assemble newsletter digest",
		Steps: []PlanStep{
			{Type: "collect", Description: "Collect recent posts and product updates"},
			{Type: "draft", Description: "Draft digest copy and subject line variants"},
			{Type: "schedule", Description: "Schedule send via the email provider"},
		},
	},
}

// ResolveTemplate looks up the plan template for a suggestion type.
func ResolveTemplate(suggestionType string) (PlanTemplate, error) {
	tmpl, ok := templates[suggestionType]
	if !ok {
		return PlanTemplate{}, fmt.Errorf("%w: %s", mcerrors.ErrUnknownType, suggestionType)
	}
	return tmpl, nil
}

// KnownTypes returns the registered suggestion types.
func KnownTypes() []string {
	types := make([]string, 0, len(templates))
	for t := range templates {
		types = append(types, t)
	}
	return types
}
