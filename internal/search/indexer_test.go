package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/mission-control/internal/store"
)

func newTestIndexer(t *testing.T, root string, exts []string) (*Indexer, *store.Store) {
	t.Helper()
	logger := zerolog.New(os.Stderr)
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewIndexer(s, root, exts, logger), s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReindex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "mission control keeps projects moving")
	writeFile(t, filepath.Join(root, "notes", "plan.txt"), "quarterly newsletter planning")
	writeFile(t, filepath.Join(root, "binary.png"), "not indexable")

	ix, _ := newTestIndexer(t, root, []string{".md", ".txt"})
	stats, err := ix.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Failed)

	results, err := ix.Search("newsletter", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes/plan.txt", results[0].FilePath)
	assert.Contains(t, results[0].Snippet, "<mark>newsletter</mark>")
	assert.Equal(t, "txt", results[0].FileType)
	assert.Greater(t, results[0].ModifiedDate, int64(0))
}

func TestReindexSkipsHiddenAndDependencyDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.md"), "visible document")
	writeFile(t, filepath.Join(root, ".git", "conf.md"), "hidden document")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "readme.md"), "dependency document")
	writeFile(t, filepath.Join(root, ".hidden.md"), "dotfile document")

	ix, _ := newTestIndexer(t, root, []string{".md"})
	stats, err := ix.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	count, err := ix.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReindexReplacesExisting(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doc.md")
	writeFile(t, path, "first revision")

	ix, _ := newTestIndexer(t, root, []string{".md"})
	_, err := ix.Reindex(context.Background())
	require.NoError(t, err)

	writeFile(t, path, "second revision")
	_, err = ix.Reindex(context.Background())
	require.NoError(t, err)

	count, err := ix.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "reindexing must not duplicate documents")

	results, err := ix.Search("second", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	stale, err := ix.Search("first", 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestReindexMissingRoot(t *testing.T) {
	ix, _ := newTestIndexer(t, filepath.Join(t.TempDir(), "nope"), []string{".md"})
	_, err := ix.Reindex(context.Background())
	assert.Error(t, err)

	ix, _ = newTestIndexer(t, "", []string{".md"})
	_, err = ix.Reindex(context.Background())
	assert.Error(t, err)
}

func TestIndexFileAndRemove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "single.md")
	writeFile(t, path, "one-off document about drip campaigns")

	ix, _ := newTestIndexer(t, root, []string{".md"})
	require.NoError(t, ix.IndexFile(context.Background(), path))

	results, err := ix.Search("drip", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "single.md", results[0].FilePath)

	require.NoError(t, ix.Remove("single.md"))
	results, err = ix.Search("drip", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmptyTerm(t *testing.T) {
	ix, _ := newTestIndexer(t, t.TempDir(), []string{".md"})
	results, err := ix.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTruncateUTF8(t *testing.T) {
	// 3-byte runes: a 7-byte cap lands mid-rune and must back off to 6.
	b := []byte("日本語")
	got := truncateUTF8(b, 7)
	assert.Equal(t, []byte("日本"), got)
	assert.True(t, utf8.Valid(got))

	// Exact boundary and under-limit inputs pass through untouched.
	assert.Equal(t, []byte("日本"), truncateUTF8([]byte("日本"), 6))
	assert.Equal(t, []byte("ok"), truncateUTF8([]byte("ok"), 10))

	// ASCII truncates at the requested byte.
	assert.Equal(t, []byte("abc"), truncateUTF8([]byte("abcdef"), 3))
}

func TestExtensionNormalization(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.MD"), "uppercase extension")

	// Extensions configured without leading dots still match.
	ix, _ := newTestIndexer(t, root, []string{"md"})
	stats, err := ix.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
}
