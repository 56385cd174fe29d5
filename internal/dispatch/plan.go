package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// ExecutionPlan is the durable artifact handed to a worker after approval.
type ExecutionPlan struct {
	SuggestionID int64           `json:"suggestionId"`
	Type         string          `json:"type"`
	Project      string          `json:"project"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Config       json.RawMessage `json:"config"`
	Steps        []PlanStep      `json:"executionSteps"`
}

// PlanStore persists execution plans keyed by suggestion id.
type PlanStore interface {
	Save(plan *ExecutionPlan) error
	Load(suggestionID int64) (*ExecutionPlan, error)
}

// FilePlanStore writes one JSON file per suggestion under a directory.
type FilePlanStore struct {
	dir string
}

// NewFilePlanStore creates the plan directory if needed.
func NewFilePlanStore(dir string) (*FilePlanStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plan directory: %w", err)
	}
	return &FilePlanStore{dir: dir}, nil
}

func (f *FilePlanStore) path(suggestionID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("suggestion-%d.json", suggestionID))
}

// Save durably writes the plan. The write goes to a temp file first and is
// renamed into place so a crash never leaves a half-written artifact.
func (f *FilePlanStore) Save(plan *ExecutionPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "plan-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp plan file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing plan file: %w", err)
	}

	if err := os.Rename(tmpName, f.path(plan.SuggestionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persisting plan: %w", err)
	}

	return nil
}

// Load reads the plan for a suggestion. Returns ErrNotFound if no plan was
// ever persisted.
func (f *FilePlanStore) Load(suggestionID int64) (*ExecutionPlan, error) {
	data, err := os.ReadFile(f.path(suggestionID))
	if os.IsNotExist(err) {
		return nil, mcerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	var plan ExecutionPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &plan, nil
}
