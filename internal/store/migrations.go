package store

import (
	"fmt"
	"strconv"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	if err := s.migrateV2(); err != nil {
		return err
	}
	return s.migrateV3()
}

// schemaVersion reads the numeric schema version from meta. The value is
// stored as text, so it must be parsed before comparing ("10" < "2" as
// strings). A missing or unparseable row reads as 0.
func (s *Store) schemaVersion() int {
	var value string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value); err != nil {
		return 0
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return version
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'active',
		progress      INTEGER NOT NULL DEFAULT 0,
		last_activity INTEGER NOT NULL,
		config_json   TEXT NOT NULL DEFAULT '{}',
		created_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
	CREATE INDEX IF NOT EXISTS idx_projects_activity ON projects(last_activity);

	CREATE TABLE IF NOT EXISTS project_suggestions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id      INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		suggestion_type TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		confidence      INTEGER NOT NULL DEFAULT 50,
		status          TEXT NOT NULL DEFAULT 'pending',
		created_at      INTEGER NOT NULL,
		acted_at        INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_suggestions_project ON project_suggestions(project_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_suggestions_status ON project_suggestions(status);

	CREATE TABLE IF NOT EXISTS suggestion_actions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		suggestion_id INTEGER NOT NULL,
		action        TEXT NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		executed_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_suggestion ON suggestion_actions(suggestion_id, executed_at);

	CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		schedule    TEXT NOT NULL,
		next_run    INTEGER,
		last_run    INTEGER,
		status      TEXT NOT NULL DEFAULT 'enabled',
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sched_next ON scheduled_tasks(next_run);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp      INTEGER NOT NULL,
		action_type    TEXT NOT NULL,
		tool_name      TEXT,
		params         TEXT,
		result_summary TEXT,
		files_modified TEXT,
		session_id     TEXT,
		success        INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity_logs(timestamp);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}

func (s *Store) migrateV2() error {
	if s.schemaVersion() >= 2 {
		return nil // already at v2+
	}

	schema := `
	CREATE TABLE IF NOT EXISTS dispatch_jobs (
		id            TEXT PRIMARY KEY,
		suggestion_id INTEGER NOT NULL,
		status        TEXT NOT NULL DEFAULT 'pending',
		error         TEXT,
		created_at    INTEGER NOT NULL,
		started_at    INTEGER,
		completed_at  INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON dispatch_jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_suggestion ON dispatch_jobs(suggestion_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}

func (s *Store) migrateV3() error {
	if s.schemaVersion() >= 3 {
		return nil
	}

	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS search_index USING fts5(
		content,
		file_path UNINDEXED,
		file_type UNINDEXED,
		modified_date UNINDEXED
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v3: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '3')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}
