package storage

var schemas = map[string]string{
	DriverSQLite:   sqliteSchema,
	DriverPostgres: postgresSchema,
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at BIGINT NOT NULL
);

-- One row per (user, card) ever rated; card_id points into the file catalog.
CREATE TABLE IF NOT EXISTS schedule_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    card_id TEXT NOT NULL,
    next_review_at BIGINT NOT NULL,
    UNIQUE (user_id, card_id)
);

CREATE INDEX IF NOT EXISTS idx_schedule_entries_due ON schedule_entries (user_id, next_review_at);

CREATE TABLE IF NOT EXISTS study_positions (
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    set_id TEXT NOT NULL,
    current_index INTEGER NOT NULL DEFAULT 0,
    UNIQUE (user_id, set_id)
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_entries (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    card_id TEXT NOT NULL,
    next_review_at BIGINT NOT NULL,
    UNIQUE (user_id, card_id)
);

CREATE INDEX IF NOT EXISTS idx_schedule_entries_due ON schedule_entries (user_id, next_review_at);

CREATE TABLE IF NOT EXISTS study_positions (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    set_id TEXT NOT NULL,
    current_index INTEGER NOT NULL DEFAULT 0,
    UNIQUE (user_id, set_id)
);
`
