package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivity(t *testing.T) {
	s := newTestStore(t)

	e := &ActivityEntry{
		ActionType:    "suggestion_approved",
		ToolName:      "lifecycle",
		ResultSummary: "suggestion 1 approved",
		FilesModified: "execution_plans/suggestion-1.json",
		SessionID:     "sess-1",
		Success:       true,
	}
	require.NoError(t, s.RecordActivity(e))
	assert.NotZero(t, e.ID)
	assert.NotZero(t, e.Timestamp)

	entries, err := s.RecentActivity(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "suggestion_approved", entries[0].ActionType)
	assert.Equal(t, "lifecycle", entries[0].ToolName)
	assert.True(t, entries[0].Success)
}

func TestRecentActivity_BoundAndOrder(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 60; i++ {
		require.NoError(t, s.RecordActivity(&ActivityEntry{
			ActionType: "event",
			Timestamp:  int64(1000 + i),
			Success:    true,
		}))
	}

	// Explicit limit is honored
	entries, err := s.RecentActivity(5)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Strictly descending by timestamp, most recent first
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Timestamp, entries[i].Timestamp)
	}
	assert.Equal(t, int64(1059), entries[0].Timestamp)

	// Non-positive limit falls back to the default bound
	entries, err = s.RecentActivity(0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultActivityLimit)
}

func TestRecentActivity_Empty(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.RecentActivity(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordActivity_OptionalFieldsNull(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordActivity(&ActivityEntry{ActionType: "bare", Success: false}))

	entries, err := s.RecentActivity(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ToolName)
	assert.Empty(t, entries[0].SessionID)
	assert.False(t, entries[0].Success)
}

func TestActivity_AppendOnlyOrderWithEqualTimestamps(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordActivity(&ActivityEntry{
			ActionType: fmt.Sprintf("event-%d", i),
			Timestamp:  5000,
			Success:    true,
		}))
	}

	entries, err := s.RecentActivity(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Ties break by insertion order, newest row first
	assert.Equal(t, "event-2", entries[0].ActionType)
	assert.Equal(t, "event-0", entries[2].ActionType)
}
