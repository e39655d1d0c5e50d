// Package storetest provides an in-memory SQLite database mirroring the
// Postgres migrations, so store-level behavior is testable without a server.
// Production SQL stays inside the Postgres/SQLite common subset to keep this
// mirror honest.
package storetest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wordarena/backend/internal/store"
)

const schema = `
CREATE TABLE participants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    token TEXT NOT NULL UNIQUE,
    created_at REAL NOT NULL
);

CREATE TABLE environments (
    id TEXT PRIMARY KEY,
    num_players INTEGER NOT NULL
);

CREATE TABLE queue_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    env_id TEXT NOT NULL,
    participant_name TEXT NOT NULL,
    joined_at REAL NOT NULL,
    time_limit REAL NOT NULL,
    last_checked REAL NOT NULL,
    is_human BOOLEAN NOT NULL DEFAULT FALSE,
    human_ip TEXT
);

CREATE TABLE games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    env_id TEXT NOT NULL,
    specific_env_id TEXT,
    started_at REAL NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    reason TEXT
);

CREATE TABLE player_games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id INTEGER NOT NULL,
    participant_name TEXT NOT NULL,
    player_id INTEGER NOT NULL,
    reward REAL,
    outcome TEXT,
    last_action_time REAL,
    is_human BOOLEAN NOT NULL DEFAULT FALSE,
    human_ip TEXT,
    UNIQUE (game_id, player_id)
);

CREATE TABLE turn_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    player_game_id INTEGER NOT NULL,
    participant_name TEXT NOT NULL,
    observation TEXT NOT NULL,
    ts_observation REAL NOT NULL,
    action TEXT,
    ts_action REAL
);

CREATE TABLE ratings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_name TEXT NOT NULL,
    env_id TEXT NOT NULL,
    elo REAL NOT NULL,
    updated_at REAL NOT NULL
);

CREATE TABLE humans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ip TEXT NOT NULL UNIQUE,
    games_played INTEGER NOT NULL DEFAULT 0,
    created_at REAL NOT NULL,
    last_active REAL NOT NULL
);

CREATE TABLE admin_accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    token_hash TEXT NOT NULL,
    created_at REAL NOT NULL
);

CREATE TABLE admin_audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    admin_name TEXT NOT NULL,
    ip TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at REAL NOT NULL
);
`

// New returns a Store over a fresh in-memory database. The handle is capped
// at one connection: every :memory: connection is its own database.
func New(t *testing.T) (*store.Store, *sqlx.DB) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return store.New(db), db
}
