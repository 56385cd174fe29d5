package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/mission-control/internal/store"
)

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusOK })
	c.Register("plans", func(ctx context.Context) Status { return StatusOK })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusOK })
	c.Register("plans", func(ctx context.Context) Status { return StatusDown })

	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_Degraded_StillReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusDegraded })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_NoChecks(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	assert.True(t, c.IsReady(context.Background()))
}

func TestStoreCheck(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)

	check := StoreCheck(s)
	assert.Equal(t, StatusOK, check(context.Background()))

	s.Close()
	assert.Equal(t, StatusDown, check(context.Background()))
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusOK, DirCheck(dir)(context.Background()))
	assert.Equal(t, StatusDegraded, DirCheck(filepath.Join(dir, "missing"))(context.Background()))

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Equal(t, StatusDegraded, DirCheck(file)(context.Background()))
}
