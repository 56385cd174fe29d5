package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchJob_Lifecycle(t *testing.T) {
	s := newTestStore(t)

	j := &DispatchJob{ID: "job-1", SuggestionID: 7}
	require.NoError(t, s.SaveDispatchJob(j))
	assert.Equal(t, JobPending, j.Status)

	got, err := s.GetDispatchJob("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.SuggestionID)
	assert.Zero(t, got.StartedAt)

	require.NoError(t, s.StartDispatchJob("job-1"))
	got, err = s.GetDispatchJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, JobRunning, got.Status)
	assert.NotZero(t, got.StartedAt)

	require.NoError(t, s.CompleteDispatchJob("job-1", ""))
	got, err = s.GetDispatchJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	assert.NotZero(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestDispatchJob_Failure(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "job-2", SuggestionID: 9}))
	require.NoError(t, s.StartDispatchJob("job-2"))
	require.NoError(t, s.CompleteDispatchJob("job-2", "unknown suggestion type: blocked"))

	got, err := s.GetDispatchJob("job-2")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Contains(t, got.Error, "unknown suggestion type")
}

func TestDispatchJob_NotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetDispatchJob("nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, s.StartDispatchJob("nope"))
	assert.Error(t, s.CompleteDispatchJob("nope", ""))
}

func TestPendingDispatchJobs_OldestFirst(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "new", SuggestionID: 1, CreatedAt: 2000}))
	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "old", SuggestionID: 2, CreatedAt: 1000}))
	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "done", SuggestionID: 3, CreatedAt: 500}))
	require.NoError(t, s.StartDispatchJob("done"))
	require.NoError(t, s.CompleteDispatchJob("done", ""))

	pending, err := s.PendingDispatchJobs()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "old", pending[0].ID)
	assert.Equal(t, "new", pending[1].ID)
}

func TestFailStuckDispatchJobs(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "running-1", SuggestionID: 1}))
	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "running-2", SuggestionID: 2}))
	require.NoError(t, s.SaveDispatchJob(&DispatchJob{ID: "pending-1", SuggestionID: 3}))
	require.NoError(t, s.StartDispatchJob("running-1"))
	require.NoError(t, s.StartDispatchJob("running-2"))

	n, err := s.FailStuckDispatchJobs()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.GetDispatchJob("running-1")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "stuck_on_startup", got.Error)

	got, err = s.GetDispatchJob("pending-1")
	require.NoError(t, err)
	assert.Equal(t, JobPending, got.Status)
}
