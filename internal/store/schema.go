package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS exams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	questions_per_page INTEGER NOT NULL DEFAULT 0,
	navigation TEXT NOT NULL DEFAULT 'free',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	qtype TEXT NOT NULL,
	name TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	length INTEGER NOT NULL DEFAULT 1,
	category_id INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS exam_slots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	page INTEGER NOT NULL,
	max_mark REAL NOT NULL DEFAULT 1,
	require_previous INTEGER NOT NULL DEFAULT 0,
	display_number TEXT NOT NULL DEFAULT '',
	UNIQUE (exam_id, position)
);

CREATE TABLE IF NOT EXISTS slot_question_refs (
	slot_id INTEGER PRIMARY KEY REFERENCES exam_slots(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	question_id INTEGER NOT NULL DEFAULT 0,
	requested_version INTEGER,
	category_id INTEGER NOT NULL DEFAULT 0,
	recurse_subcategories INTEGER NOT NULL DEFAULT 0,
	tag_filters TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS exam_sections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	heading TEXT NOT NULL DEFAULT '',
	first_slot INTEGER NOT NULL,
	shuffle INTEGER NOT NULL DEFAULT 0,
	UNIQUE (exam_id, first_slot)
);

CREATE TABLE IF NOT EXISTS attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	user_name TEXT NOT NULL,
	started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL UNIQUE,
	exam_id INTEGER NOT NULL,
	typ TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	exam_id INTEGER NOT NULL,
	imported_at DATETIME NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS exams (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	questions_per_page INTEGER NOT NULL DEFAULT 0,
	navigation TEXT NOT NULL DEFAULT 'free',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	qtype TEXT NOT NULL,
	name TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	length INTEGER NOT NULL DEFAULT 1,
	category_id BIGINT NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS exam_slots (
	id BIGSERIAL PRIMARY KEY,
	exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	page INTEGER NOT NULL,
	max_mark DOUBLE PRECISION NOT NULL DEFAULT 1,
	require_previous BOOLEAN NOT NULL DEFAULT FALSE,
	display_number TEXT NOT NULL DEFAULT '',
	UNIQUE (exam_id, position)
);

CREATE TABLE IF NOT EXISTS slot_question_refs (
	slot_id BIGINT PRIMARY KEY REFERENCES exam_slots(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	question_id BIGINT NOT NULL DEFAULT 0,
	requested_version INTEGER,
	category_id BIGINT NOT NULL DEFAULT 0,
	recurse_subcategories BOOLEAN NOT NULL DEFAULT FALSE,
	tag_filters TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS exam_sections (
	id BIGSERIAL PRIMARY KEY,
	exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	heading TEXT NOT NULL DEFAULT '',
	first_slot INTEGER NOT NULL,
	shuffle BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (exam_id, first_slot)
);

CREATE TABLE IF NOT EXISTS attempts (
	id BIGSERIAL PRIMARY KEY,
	exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
	user_name TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
	seq BIGSERIAL PRIMARY KEY,
	event_id TEXT NOT NULL UNIQUE,
	exam_id BIGINT NOT NULL,
	typ TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	exam_id BIGINT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);
`
