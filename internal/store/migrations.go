package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	repository  TEXT NOT NULL,
	number      INTEGER NOT NULL DEFAULT 0,
	sha         TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	succeeded   INTEGER NOT NULL DEFAULT 1,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activities_repo_number ON activities(repository, number);
CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
