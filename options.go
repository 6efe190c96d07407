package inoutboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zachittx/inoutboard/internal/roster"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	port            int
	namespace       string
	defaultTheme    Theme
	records         []Record
	groups          []Group
	storage         storageConfig
	logger          *slog.Logger
	changeCallbacks []func([]Record)
}

// Option is a function that configures a [Board] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithPort sets the HTTP port for the views and API.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the title shown in the views' header and browser tab.
//
// If not specified, defaults to "In/Out Board".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRecords replaces the default people.
//
// The list seeds empty storage and is reconciled with what is already
// stored on every load: stored records win by id, and stored ids not in
// this list are kept after it.
//
// Example:
//
//	board, err := inoutboard.New(
//	    inoutboard.WithRecords(
//	        inoutboard.Record{ID: "ada", Name: "Ada", Status: inoutboard.StatusOut},
//	    ),
//	    inoutboard.WithGroups(
//	        inoutboard.Group{Key: "eng", Title: "Engineering", Members: []string{"ada"}},
//	    ),
//	)
func WithRecords(records ...Record) Option {
	return func(cfg *boardConfig) error {
		if err := roster.ValidateRecords(records); err != nil {
			return err
		}
		cfg.records = roster.CopyRecords(records)
		return nil
	}
}

// WithGroups replaces the default team table.
//
// Every member id must belong to a configured record; [New] checks this
// once all options are applied.
func WithGroups(groups ...Group) Option {
	return func(cfg *boardConfig) error {
		cp := make([]Group, len(groups))
		for i, g := range groups {
			g.Members = append([]string(nil), g.Members...)
			cp[i] = g
		}
		cfg.groups = cp
		return nil
	}
}

// WithNamespace sets the prefix of every storage key and channel.
//
// Boards sharing a backend see each other only when their namespaces
// match. Defaults to "inoutboard".
func WithNamespace(ns string) Option {
	return func(cfg *boardConfig) error {
		if ns == "" {
			return errors.New("namespace cannot be empty")
		}
		cfg.namespace = ns
		return nil
	}
}

// WithDefaultTheme sets the theme used until one is stored.
//
// Defaults to [ThemeDark].
func WithDefaultTheme(t Theme) Option {
	return func(cfg *boardConfig) error {
		if _, ok := roster.ParseTheme(string(t)); !ok {
			return fmt.Errorf("theme must be %q or %q, got %q", ThemeDark, ThemeLight, t)
		}
		cfg.defaultTheme = t
		return nil
	}
}

// WithMemoryStorage keeps state in process memory.
//
// This is the default. State is lost on restart and is not shared with
// other processes.
func WithMemoryStorage() Option {
	return func(cfg *boardConfig) error {
		cfg.storage = storageConfig{kind: storageMemory}
		return nil
	}
}

// WithSQLiteStorage keeps state in a SQLite database file.
//
// Several processes may open the same file; each polls it every
// pollInterval to pick up the others' writes. A zero pollInterval uses
// one second.
//
// Returns an error if path is empty or pollInterval is negative.
func WithSQLiteStorage(path string, pollInterval time.Duration) Option {
	return func(cfg *boardConfig) error {
		if path == "" {
			return errors.New("sqlite path cannot be empty")
		}
		if pollInterval < 0 {
			return errors.New("sqlite poll interval cannot be negative")
		}
		if pollInterval == 0 {
			pollInterval = defaultSQLitePollInterval
		}
		cfg.storage = storageConfig{
			kind:         storageSQLite,
			path:         path,
			pollInterval: pollInterval,
		}
		return nil
	}
}

// WithRedisStorage keeps state on a Redis-protocol server, such as Redis
// itself or the hub started by "inoutboard hub". Changes reach other
// boards immediately over pub/sub.
//
// Returns an error if addr is empty or db is negative.
func WithRedisStorage(addr, password string, db int) Option {
	return func(cfg *boardConfig) error {
		if addr == "" {
			return errors.New("redis addr cannot be empty")
		}
		if db < 0 {
			return errors.New("redis db cannot be negative")
		}
		cfg.storage = storageConfig{
			kind:     storageRedis,
			addr:     addr,
			password: password,
			db:       db,
		}
		return nil
	}
}

// WithChangeCallback registers a function called with the full record
// list whenever it changes, whether through this board's kiosk or from
// another board sharing the storage.
//
// Callbacks run synchronously on the goroutine that observed the
// change and must not block. Panics are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithChangeCallback(cb func([]Record)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.changeCallbacks = append(cfg.changeCallbacks, cb)
		return nil
	}
}
