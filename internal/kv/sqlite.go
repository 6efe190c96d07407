package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const defaultSQLitePoolSize = 4

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	origin  TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS changes (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	key    TEXT NOT NULL,
	value  BLOB NOT NULL,
	origin TEXT NOT NULL
);`

// SQLite is a file-backed implementation of [Backend] and [Journal].
//
// Every Set also appends to the changes table, so other processes
// polling the same file (see the poller package) see each write and
// the origin that made it, even when later writes replace the value.
type SQLite struct {
	pool   *sqlitex.Pool
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
//
// The parent directory must exist. A nil logger discards output.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("kv: sqlite path is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := defaultSQLitePoolSize
	if path == ":memory:" {
		// each in-memory connection is its own database
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("kv: opening sqlite %s: %w", path, err)
	}

	logger.Info("sqlite backend opened", "path", path, "pool_size", poolSize)

	return &SQLite{
		pool:   pool,
		path:   path,
		logger: logger,
	}, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, p, nil); err != nil {
			return fmt.Errorf("kv: %s: %w", p, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return fmt.Errorf("kv: creating schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	e, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Load returns the value, origin and version stored under key.
func (s *SQLite) Load(ctx context.Context, key string) (Entry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("kv: sqlite take: %w", err)
	}
	defer s.pool.Put(conn)

	var (
		entry Entry
		found bool
	)
	err = sqlitex.Execute(conn,
		`SELECT value, origin, version FROM kv WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				entry.Value = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, entry.Value)
				entry.Origin = stmt.ColumnText(1)
				entry.Version = stmt.ColumnInt64(2)
				return nil
			},
		})
	if err != nil {
		return Entry{}, fmt.Errorf("kv: sqlite load %q: %w", key, err)
	}
	if !found {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Set upserts value under key, increments its version and journals
// the write, in one transaction.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, origin string) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("kv: sqlite take: %w", err)
	}
	defer s.pool.Put(conn)

	if value == nil {
		value = []byte{}
	}

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("kv: sqlite begin: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		`INSERT INTO kv (key, value, origin, version) VALUES (?, ?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			origin = excluded.origin,
			version = kv.version + 1`,
		&sqlitex.ExecOptions{
			Args: []any{key, value, origin},
		})
	if err != nil {
		return fmt.Errorf("kv: sqlite set %q: %w", key, err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO changes (key, value, origin) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{key, value, origin},
		})
	if err != nil {
		return fmt.Errorf("kv: sqlite journal %q: %w", key, err)
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM changes WHERE seq <= ?`,
		&sqlitex.ExecOptions{
			Args: []any{conn.LastInsertRowID() - journalRetain},
		})
	if err != nil {
		return fmt.Errorf("kv: sqlite trim journal: %w", err)
	}
	return nil
}

// Head returns the sequence number of the latest journaled write.
func (s *SQLite) Head(ctx context.Context) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("kv: sqlite take: %w", err)
	}
	defer s.pool.Put(conn)

	var head int64
	err = sqlitex.Execute(conn,
		`SELECT COALESCE(MAX(seq), 0) FROM changes`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				head = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("kv: sqlite journal head: %w", err)
	}
	return head, nil
}

// Since returns up to limit journaled writes after seq, oldest first.
func (s *SQLite) Since(ctx context.Context, seq int64, limit int) ([]Logged, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv: sqlite take: %w", err)
	}
	defer s.pool.Put(conn)

	if limit <= 0 {
		limit = journalRetain
	}

	var out []Logged
	err = sqlitex.Execute(conn,
		`SELECT seq, key, value, origin FROM changes WHERE seq > ? ORDER BY seq LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{seq, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				l := Logged{Seq: stmt.ColumnInt64(0)}
				l.Key = stmt.ColumnText(1)
				l.Value = make([]byte, stmt.ColumnLen(2))
				stmt.ColumnBytes(2, l.Value)
				l.Origin = stmt.ColumnText(3)
				out = append(out, l)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("kv: sqlite journal since %d: %w", seq, err)
	}
	return out, nil
}

// Close closes all pooled connections.
func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("sqlite backend close error", "path", s.path, "error", err)
		return fmt.Errorf("kv: closing sqlite %s: %w", s.path, err)
	}
	s.logger.Info("sqlite backend closed", "path", s.path)
	return nil
}
