package activity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/mission-control/internal/store"
)

func newTestSink(t *testing.T, maxLimit int) *Sink {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "activity-test.db")
	logger := zerolog.New(os.Stderr)
	s, err := store.New(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewSink(s, maxLimit, logger)
}

func TestRecordAndRecent(t *testing.T) {
	sink := newTestSink(t, 50)

	err := sink.Record(Entry{
		ActionType:    "suggestion_dispatched",
		ToolName:      "dispatcher",
		ResultSummary: "plan written for suggestion 3",
		FilesModified: []string{"execution_plans/suggestion-3.json", "mission-control.db"},
		SessionID:     "sess-9",
		Success:       true,
	})
	require.NoError(t, err)

	entries, err := sink.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "suggestion_dispatched", entries[0].ActionType)
	assert.Equal(t, `["execution_plans/suggestion-3.json","mission-control.db"]`, entries[0].FilesModified)
	assert.True(t, entries[0].Success)
}

func TestRecord_FilesModifiedRoundTrip(t *testing.T) {
	sink := newTestSink(t, 50)

	// A comma inside a path must survive storage intact.
	files := []string{"reports/q3, final.md", "plain.txt"}
	require.NoError(t, sink.Record(Entry{ActionType: "edit", FilesModified: files, Success: true}))

	entries, err := sink.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var got []string
	require.NoError(t, json.Unmarshal([]byte(entries[0].FilesModified), &got))
	assert.Equal(t, files, got)
}

func TestRecord_NoFilesLeavesColumnEmpty(t *testing.T) {
	sink := newTestSink(t, 50)
	require.NoError(t, sink.Record(Entry{ActionType: "noop", Success: true}))

	entries, err := sink.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].FilesModified)
}

func TestRecent_ClampsToMaxLimit(t *testing.T) {
	sink := newTestSink(t, 5)

	for i := 0; i < 10; i++ {
		require.NoError(t, sink.Record(Entry{ActionType: "event", Success: true}))
	}

	// Requests above the bound are clamped
	entries, err := sink.Recent(100)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	// Non-positive limit means "default bound"
	entries, err = sink.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	// Smaller explicit limits are honored
	entries, err = sink.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNewSink_DefaultBound(t *testing.T) {
	sink := newTestSink(t, 0)
	assert.Equal(t, store.DefaultActivityLimit, sink.maxLimit)
}
