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

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	related_to  TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT 'Info'
		CHECK(type IN ('Alert', 'Info', 'Success', 'Warning')),
	read        INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_type ON notifications(type);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
