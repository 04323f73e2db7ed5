package history

// schemaVersion is recorded in schema_version once migrations have run.
// Bump it with every schema change.
const schemaVersion = 1

// migrations is the ordered list of SQL migration statements.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		prompt TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		attempted INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_started_at ON reports(started_at)`,
	`CREATE TABLE IF NOT EXISTS results (
		report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		provider TEXT NOT NULL,
		ok INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (report_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`,
}
