// Package search indexes workspace documents into the store's full-text
// index and serves highlighted search queries over it.
package search

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/openclaw/mission-control/internal/retry"
	"github.com/openclaw/mission-control/internal/store"
)

// maxDocumentBytes caps the content stored per document. Larger files are
// indexed from their head only, which is enough for snippet search.
const maxDocumentBytes = 512 * 1024

// skipDirs are directory names never descended into during a walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Indexer walks the workspace and maintains the full-text index.
type Indexer struct {
	store  *store.Store
	root   string
	exts   map[string]bool
	logger zerolog.Logger
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NewIndexer creates an indexer rooted at root that indexes files whose
// extension appears in exts (e.g. ".md", ".ts").
func NewIndexer(s *store.Store, root string, exts []string, logger zerolog.Logger) *Indexer {
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = true
	}
	return &Indexer{
		store:  s,
		root:   root,
		exts:   extSet,
		logger: logger.With().Str("component", "indexer").Logger(),
	}
}

// Reindex walks the workspace root and (re)indexes every matching file.
// Individual file failures are counted, not fatal; the walk continues.
func (ix *Indexer) Reindex(ctx context.Context) (*IndexStats, error) {
	if ix.root == "" {
		return nil, fmt.Errorf("no workspace directory configured")
	}
	info, err := os.Stat(ix.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace %s: %w", ix.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", ix.root)
	}

	stats := &IndexStats{}
	err = filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.logger.Warn().Err(err).Str("path", path).Msg("walk error")
			stats.Failed++
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if path != ix.root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !ix.exts[strings.ToLower(filepath.Ext(path))] {
			stats.Skipped++
			return nil
		}
		if err := ix.indexFile(ctx, path, d); err != nil {
			ix.logger.Warn().Err(err).Str("path", path).Msg("failed to index file")
			stats.Failed++
			return nil
		}
		stats.Indexed++
		return nil
	})
	if err != nil {
		return stats, err
	}

	ix.logger.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("workspace reindexed")
	return stats, nil
}

// truncateUTF8 caps b at limit bytes without splitting a multi-byte rune.
func truncateUTF8(b []byte, limit int) []byte {
	if len(b) <= limit {
		return b
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return b[:cut]
}

func (ix *Indexer) indexFile(ctx context.Context, path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw = truncateUTF8(raw, maxDocumentBytes)

	rel, err := filepath.Rel(ix.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	// Indexing competes with request-path writes on the same database, so
	// retry on lock contention.
	return retry.Do(ctx, retry.DefaultConfig(), func(context.Context) error {
		return ix.store.IndexDocument(rel, string(raw), fileType, info.ModTime().UnixMilli())
	})
}

// IndexFile indexes a single file by absolute path.
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return ix.indexFile(ctx, path, fs.FileInfoToDirEntry(info))
}

// Remove drops a document from the index by its workspace-relative path.
func (ix *Indexer) Remove(path string) error {
	return ix.store.RemoveDocument(filepath.ToSlash(path))
}

// Search runs a full-text query and returns highlighted matches.
func (ix *Indexer) Search(term string, limit int) ([]*store.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*store.SearchResult{}, nil
	}
	return ix.store.SearchDocuments(term, limit)
}

// DocumentCount returns the number of indexed documents.
func (ix *Indexer) DocumentCount() (int, error) {
	return ix.store.IndexedDocumentCount()
}
