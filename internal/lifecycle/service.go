// Package lifecycle implements the suggestion review state machine:
// pending -> approved | declined | snoozed, with executed reachable only via
// the execution dispatcher after approval.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/activity"
	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/metrics"
	"github.com/openclaw/mission-control/internal/store"
)

// Action is a review decision applied to a suggestion.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
	ActionSnooze  Action = "snooze"
)

// statusFor maps a review action to the resulting suggestion status.
var statusFor = map[Action]string{
	ActionApprove: store.SuggestionApproved,
	ActionDecline: store.SuggestionDeclined,
	ActionSnooze:  store.SuggestionSnoozed,
}

// Enqueuer hands an approved suggestion to the execution dispatcher.
type Enqueuer interface {
	Enqueue(ctx context.Context, suggestionID int64) (jobID string, err error)
}

// Result reports the outcome of a decision.
type Result struct {
	SuggestionID int64  `json:"suggestion_id"`
	Status       string `json:"status"`
	JobID        string `json:"job_id,omitempty"`
}

// Service applies review decisions and triggers dispatch on approval.
type Service struct {
	store      *store.Store
	dispatcher Enqueuer
	sink       *activity.Sink
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewService creates a lifecycle service. dispatcher, sink and metrics may be
// nil in tests.
func NewService(s *store.Store, dispatcher Enqueuer, sink *activity.Sink, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:      s,
		dispatcher: dispatcher,
		sink:       sink,
		metrics:    m,
		logger:     logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Decide applies a review action to a suggestion. Any existing suggestion may
// be redecided regardless of its current status; the audit trail keeps the
// full history while status reflects only the latest action. Approvals hand
// off to the dispatcher and return without waiting for it.
func (s *Service) Decide(ctx context.Context, suggestionID int64, action Action, reason string) (*Result, error) {
	status, ok := statusFor[action]
	if !ok {
		return nil, fmt.Errorf("%w: action %q", mcerrors.ErrInvalidInput, action)
	}

	_, err := s.store.ApplyDecision(suggestionID, string(action), status, reason)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDecision(string(action), "error")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(string(action), "ok")
	}

	s.logger.Info().
		Int64("suggestion_id", suggestionID).
		Str("action", string(action)).
		Str("status", status).
		Msg("suggestion decided")

	// The owning project's last-activity tracks suggestion state changes.
	if sg, err := s.store.GetSuggestion(suggestionID); err == nil && sg != nil {
		if err := s.store.TouchProject(sg.ProjectID); err != nil {
			s.logger.Warn().Err(err).Int64("project_id", sg.ProjectID).Msg("failed to touch project")
		}
	}

	s.recordDecisionActivity(suggestionID, action, reason)

	result := &Result{SuggestionID: suggestionID, Status: status}

	if action == ActionApprove && s.dispatcher != nil {
		jobID, err := s.dispatcher.Enqueue(ctx, suggestionID)
		if err != nil {
			// The decision already committed; the suggestion stays approved
			// and a future approval retries the dispatch.
			s.logger.Error().Err(err).
				Int64("suggestion_id", suggestionID).
				Msg("dispatch handoff failed")
			if s.metrics != nil {
				s.metrics.RecordError("lifecycle", "enqueue")
			}
			if s.sink != nil {
				_ = s.sink.Record(activity.Entry{
					ActionType:    "dispatch_handoff_failed",
					ToolName:      "lifecycle",
					ResultSummary: fmt.Sprintf("suggestion %d: %v", suggestionID, err),
					Success:       false,
				})
			}
		} else {
			result.JobID = jobID
		}
	}

	return result, nil
}

func (s *Service) recordDecisionActivity(suggestionID int64, action Action, reason string) {
	if s.sink == nil {
		return
	}
	err := s.sink.Record(activity.Entry{
		ActionType:    "suggestion_" + string(action),
		ToolName:      "lifecycle",
		ResultSummary: fmt.Sprintf("suggestion %d %sd: %s", suggestionID, action, reason),
		Success:       true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record decision activity")
	}
}
