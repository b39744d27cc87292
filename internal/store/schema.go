// Package store persists Almanac records in SQLite.
//
// Every table is owner-scoped: reads and writes always filter on user_id, so a
// record owned by someone else is indistinguishable from a missing one.
package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS people (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	profession     TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	relationship   TEXT NOT NULL DEFAULT '',
	skills         TEXT NOT NULL DEFAULT '[]',
	tags           TEXT NOT NULL DEFAULT '[]',
	notes          TEXT NOT NULL DEFAULT '',
	linkedin       TEXT NOT NULL DEFAULT '',
	is_favorite    BOOLEAN NOT NULL DEFAULT 0,
	last_contacted TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS skills (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	level          TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	progress       INTEGER NOT NULL DEFAULT 0,
	practice_hours REAL NOT NULL DEFAULT 0,
	started_at     TEXT NOT NULL DEFAULT '',
	target_date    TEXT NOT NULL DEFAULT '',
	resources      TEXT NOT NULL DEFAULT '[]',
	tags           TEXT NOT NULL DEFAULT '[]',
	description    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS projects (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	priority       TEXT NOT NULL DEFAULT '',
	progress       INTEGER NOT NULL DEFAULT 0,
	start_date     TEXT NOT NULL DEFAULT '',
	end_date       TEXT NOT NULL DEFAULT '',
	budget         REAL NOT NULL DEFAULT 0,
	repository_url TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	is_featured    BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL DEFAULT '',
	cost        REAL NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT '',
	rating      INTEGER NOT NULL DEFAULT 0,
	tags        TEXT NOT NULL DEFAULT '[]',
	is_featured BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'todo',
	priority    TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	due_date    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	skill_id    TEXT NOT NULL DEFAULT '',
	project_id  TEXT NOT NULL DEFAULT '',
	event_id    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS subtasks (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	title        TEXT NOT NULL,
	is_completed BOOLEAN NOT NULL DEFAULT 0,
	order_index  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	note_type   TEXT NOT NULL DEFAULT 'other',
	tags        TEXT NOT NULL DEFAULT '[]',
	attachments TEXT NOT NULL DEFAULT '[]',
	skill_id    TEXT NOT NULL DEFAULT '',
	project_id  TEXT NOT NULL DEFAULT '',
	event_id    TEXT NOT NULL DEFAULT '',
	task_id     TEXT NOT NULL DEFAULT '',
	is_pinned   BOOLEAN NOT NULL DEFAULT 0,
	is_favorite BOOLEAN NOT NULL DEFAULT 0,
	view_count  INTEGER NOT NULL DEFAULT 0,
	version     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS note_versions (
	id             TEXT PRIMARY KEY,
	note_id        TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	version_number INTEGER NOT NULL,
	title          TEXT NOT NULL,
	content        TEXT NOT NULL,
	content_hash   TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ingested_files (
	path        TEXT PRIMARY KEY,
	checksum    TEXT NOT NULL,
	ingested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_people_user ON people(user_id);
CREATE INDEX IF NOT EXISTS idx_skills_user ON skills(user_id);
CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);
CREATE INDEX IF NOT EXISTS idx_note_versions_note ON note_versions(note_id, version_number);
`
