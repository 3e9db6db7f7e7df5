// Package sqlite is the durable store of record for players, rooms, items and the inventory relation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists world state in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// classify maps driver errors onto the game error taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, game.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return game.Unavailable(op, err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullRoom(o game.Owner) sql.NullString {
	if r, ok := o.Room(); ok {
		return sql.NullString{String: string(r), Valid: true}
	}
	return sql.NullString{}
}

func nullHolder(o game.Owner) sql.NullInt64 {
	if p, ok := o.Player(); ok {
		return sql.NullInt64{Int64: int64(p), Valid: true}
	}
	return sql.NullInt64{}
}
