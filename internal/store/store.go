// Package store is the record layer: snapshots out, transactional mutations
// in, no business logic. All timestamps are float64 seconds-since-epoch and
// are supplied by callers, which keeps the SQL free of NOW() and lets the
// same queries run against Postgres in production and SQLite in tests.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrExists        = errors.New("already exists")
	ErrGameNotActive = errors.New("game is not active")
)

// Store wraps the database handle. Safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Now is the wall clock used across the system.
func Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// notFound maps the driver's empty-result error to the package sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
