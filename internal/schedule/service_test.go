package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
	"github.com/openclaw/mission-control/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := zerolog.New(os.Stderr)
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, logger)
}

func TestValidateExpression(t *testing.T) {
	svc := newTestService(t)

	assert.NoError(t, svc.ValidateExpression("*/5 * * * *"))
	assert.NoError(t, svc.ValidateExpression("0 9 * * 1"))

	assert.ErrorIs(t, svc.ValidateExpression(""), mcerrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.ValidateExpression("not a cron"), mcerrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.ValidateExpression("61 * * * *"), mcerrors.ErrInvalidInput)
}

func TestNextRun(t *testing.T) {
	svc := newTestService(t)

	now := time.Date(2025, 3, 10, 12, 2, 0, 0, time.UTC)
	next := svc.NextRun("*/5 * * * *", now)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 5, 0, 0, time.UTC).UnixMilli(), next)

	assert.Zero(t, svc.NextRun("bogus", now))
}

func TestCreate(t *testing.T) {
	svc := newTestService(t)

	task := &store.ScheduledTask{
		Name:     "weekly digest",
		Schedule: "0 9 * * 1",
		Category: "content",
	}
	require.NoError(t, svc.Create(task))
	assert.NotZero(t, task.ID)
	assert.Greater(t, task.NextRun, time.Now().UnixMilli())

	got, err := svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekly digest", got.Name)
	assert.Equal(t, store.TaskEnabled, got.Status)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := newTestService(t)

	err := svc.Create(&store.ScheduledTask{Name: "", Schedule: "* * * * *"})
	assert.ErrorIs(t, err, mcerrors.ErrInvalidInput)

	err = svc.Create(&store.ScheduledTask{Name: "x", Schedule: "once a day"})
	assert.ErrorIs(t, err, mcerrors.ErrInvalidInput)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(42)
	assert.ErrorIs(t, err, mcerrors.ErrNotFound)
}

func TestListSoonestFirst(t *testing.T) {
	svc := newTestService(t)

	far := &store.ScheduledTask{Name: "monthly", Schedule: "0 0 1 * *"}
	near := &store.ScheduledTask{Name: "minutely", Schedule: "* * * * *"}
	require.NoError(t, svc.Create(far))
	require.NoError(t, svc.Create(near))

	tasks, err := svc.List()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "minutely", tasks[0].Name)
}

func TestMarkRan(t *testing.T) {
	svc := newTestService(t)

	task := &store.ScheduledTask{Name: "audit", Schedule: "*/10 * * * *"}
	require.NoError(t, svc.Create(task))

	ranAt := time.Date(2025, 3, 10, 12, 3, 0, 0, time.UTC)
	require.NoError(t, svc.MarkRan(task.ID, ranAt))

	got, err := svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, ranAt.UnixMilli(), got.LastRun)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 10, 0, 0, time.UTC).UnixMilli(), got.NextRun)

	assert.ErrorIs(t, svc.MarkRan(999, ranAt), mcerrors.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	svc := newTestService(t)

	task := &store.ScheduledTask{Name: "seo", Schedule: "0 6 * * *"}
	require.NoError(t, svc.Create(task))

	require.NoError(t, svc.SetStatus(task.ID, store.TaskDisabled))
	got, err := svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskDisabled, got.Status)

	require.NoError(t, svc.SetStatus(task.ID, store.TaskEnabled))
	got, err = svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskEnabled, got.Status)
	assert.Greater(t, got.NextRun, time.Now().UnixMilli()-time.Minute.Milliseconds())

	assert.ErrorIs(t, svc.SetStatus(task.ID, "paused"), mcerrors.ErrInvalidInput)
}
