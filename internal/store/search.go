package store

import (
	"fmt"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

// DefaultSearchLimit bounds full-text query results.
const DefaultSearchLimit = 20

// SearchResult is one full-text match with a highlighted snippet.
type SearchResult struct {
	FilePath     string
	Snippet      string
	FileType     string
	ModifiedDate int64 // unix ms
}

// IndexDocument inserts or replaces a document in the full-text index.
// FTS5 has no unique constraint on unindexed columns, so replace is a
// delete+insert in one transaction.
func (s *Store) IndexDocument(path, content, fileType string, modified int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return mcerrors.NewStoreError("search.index", "search_index", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM search_index WHERE file_path = ?`, path); err != nil {
		return mcerrors.NewStoreError("search.index", "search_index", err)
	}

	_, err = tx.Exec(
		`INSERT INTO search_index (content, file_path, file_type, modified_date) VALUES (?, ?, ?, ?)`,
		content, path, fileType, modified,
	)
	if err != nil {
		return mcerrors.NewStoreError("search.index", "search_index", err)
	}

	if err := tx.Commit(); err != nil {
		return mcerrors.NewStoreError("search.index", "search_index", err)
	}

	return nil
}

// RemoveDocument drops a document from the index.
func (s *Store) RemoveDocument(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM search_index WHERE file_path = ?`, path); err != nil {
		return mcerrors.NewStoreError("search.remove", "search_index", err)
	}
	return nil
}

// SearchDocuments runs an FTS5 MATCH query and returns ranked matches with
// <mark>-highlighted snippets. A non-positive limit falls back to
// DefaultSearchLimit.
func (s *Store) SearchDocuments(term string, limit int) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := `
	SELECT file_path, snippet(search_index, 0, '<mark>', '</mark>', '...', 32), file_type, modified_date
	FROM search_index
	WHERE search_index MATCH ?
	ORDER BY rank
	LIMIT ?
	`

	rows, err := s.db.Query(query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		r := &SearchResult{}
		err := rows.Scan(&r.FilePath, &r.Snippet, &r.FileType, &r.ModifiedDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// IndexedDocumentCount returns the number of documents in the index.
func (s *Store) IndexedDocumentCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM search_index`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count indexed documents: %w", err)
	}
	return count, nil
}
