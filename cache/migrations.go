package cache

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS messages (
    namespace  TEXT    NOT NULL,
    id         TEXT    NOT NULL,
    raw        TEXT    NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (namespace, id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
