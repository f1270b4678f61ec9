// Package sqlite implements store.Store on a single SQLite table.
// Keys are stored as BLOBs so SQLite compares them bytewise, matching the
// order every other backend produces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/store/sqlite/migrations"
)

// Store handles SQLite operations for the ordered key space.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open creates the database file if needed and migrates it to the latest schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one writer, and ":memory:" is per-connection
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("sqlite store ready", logger.String("path", path))
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB, log logger.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through the application logger.
type gooseLogger struct{ log logger.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) { g.log.Debugf(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.log.Fatalf(format, v...) }

func (s *Store) Get(ctx context.Context, key store.Key) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, []byte(key.Encode())).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key store.Key, value []byte) error {
	return s.Commit(ctx, store.Put(key, value))
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	return s.Commit(ctx, store.Del(key))
}

const (
	upsertSQL = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	deleteSQL = `DELETE FROM kv WHERE key = ?`
)

// Commit runs every op in one transaction.
func (s *Store) Commit(ctx context.Context, ops ...store.Op) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range ops {
		k := []byte(op.Key.Encode())
		switch op.Kind {
		case store.OpSet:
			value := op.Value
			if value == nil {
				value = []byte{}
			}
			_, err = tx.ExecContext(ctx, upsertSQL, k, value)
		case store.OpDelete:
			_, err = tx.ExecContext(ctx, deleteSQL, k)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", op.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d ops: %w", len(ops), err)
	}
	return nil
}

// Scan loads one page per query and closes the rows before yielding, so the
// consumer may write through the same single connection.
func (s *Store) Scan(ctx context.Context, prefix store.Key, opts store.ScanOptions) iter.Seq2[store.Entry, error] {
	p := prefix.Prefix()
	return func(yield func(store.Entry, error) bool) {
		lo, hi := []byte(p), []byte(store.UpperBound(p))
		emitted := 0
		for {
			page, err := s.page(ctx, lo, hi, opts.Reverse)
			if err != nil {
				yield(store.Entry{}, fmt.Errorf("failed to scan %q: %w", p, err))
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				emitted++
				if opts.Limit > 0 && emitted >= opts.Limit {
					return
				}
			}
			if len(page) < store.DefaultPageSize {
				return
			}
			last := []byte(page[len(page)-1].Key)
			if opts.Reverse {
				hi = last
			} else {
				// smallest key strictly greater than last
				lo = append(last, 0)
			}
		}
	}
}

func (s *Store) page(ctx context.Context, lo, hi []byte, reverse bool) ([]store.Entry, error) {
	query := `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key ASC LIMIT ?`
	if reverse {
		query = `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key DESC LIMIT ?`
	}
	rows, err := s.db.QueryContext(ctx, query, lo, hi, store.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := make([]store.Entry, 0, store.DefaultPageSize)
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		page = append(page, store.Entry{Key: string(k), Value: v})
	}
	return page, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
