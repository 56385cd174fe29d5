// Package activity provides the append-only audit trail of system and agent events.
package activity

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/store"
)

// Entry describes one event to record. ActionType is required; everything
// else is optional context.
type Entry struct {
	ActionType    string
	ToolName      string
	Params        string
	ResultSummary string
	FilesModified []string
	SessionID     string
	Success       bool
}

// Sink writes and reads the activity log. Entries are immutable once written.
type Sink struct {
	store    *store.Store
	maxLimit int
	logger   zerolog.Logger
}

// NewSink creates an activity sink. maxLimit bounds Recent reads; non-positive
// values fall back to the store default.
func NewSink(s *store.Store, maxLimit int, logger zerolog.Logger) *Sink {
	if maxLimit <= 0 {
		maxLimit = store.DefaultActivityLimit
	}
	return &Sink{
		store:    s,
		maxLimit: maxLimit,
		logger:   logger.With().Str("component", "activity").Logger(),
	}
}

// Record appends one timestamped entry.
func (k *Sink) Record(e Entry) error {
	// Stored as a JSON array so paths containing commas survive round-trips.
	// An empty list stays "" and the column stays NULL.
	var files string
	if len(e.FilesModified) > 0 {
		encoded, err := json.Marshal(e.FilesModified)
		if err != nil {
			return err
		}
		files = string(encoded)
	}

	err := k.store.RecordActivity(&store.ActivityEntry{
		ActionType:    e.ActionType,
		ToolName:      e.ToolName,
		Params:        e.Params,
		ResultSummary: e.ResultSummary,
		FilesModified: files,
		SessionID:     e.SessionID,
		Success:       e.Success,
	})
	if err != nil {
		return err
	}

	k.logger.Debug().
		Str("action_type", e.ActionType).
		Bool("success", e.Success).
		Msg("activity recorded")
	return nil
}

// Recent returns entries newest-first. The limit is clamped to the sink's
// configured bound so the UI never receives an unbounded payload.
func (k *Sink) Recent(limit int) ([]*store.ActivityEntry, error) {
	if limit <= 0 || limit > k.maxLimit {
		limit = k.maxLimit
	}
	return k.store.RecentActivity(limit)
}
