package inoutboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zachittx/inoutboard/dashboard"
	"github.com/zachittx/inoutboard/internal/kv"
	"github.com/zachittx/inoutboard/internal/roster"
	"github.com/zachittx/inoutboard/internal/server"
	"github.com/zachittx/inoutboard/internal/store"
)

const defaultPort = 8080

// Board is the main orchestrator for shared presence state and the views
// that render it.
//
// Board owns the configuration: people, groups, storage backend, theme
// default and HTTP port. It is created using [New] with functional
// options and started with [Board.Start].
//
// The typical lifecycle is:
//
//	board, err := inoutboard.New(inoutboard.WithSQLiteStorage("board.db", 0))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until context cancelled
type Board struct {
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

// New creates a new [Board] instance with the given options.
//
// Defaults:
//   - People and groups: [DefaultRecords] and [DefaultGroups]
//   - Storage: in-process memory
//   - Port: 8080
//   - Namespace: "inoutboard"
//   - Theme: dark
//
// Returns an error if any option is invalid or if a group names an id
// that is not among the configured people.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:         defaultPort,
		namespace:    store.DefaultNamespace,
		defaultTheme: roster.DefaultTheme,
		storage:      storageConfig{kind: storageMemory},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.records == nil {
		cfg.records = roster.DefaultRecords()
		if cfg.groups == nil {
			cfg.groups = roster.DefaultGroups()
		}
	}
	if cfg.groups == nil {
		// custom people without groups: show everyone together
		cfg.groups = []Group{{Key: "everyone", Title: "Everyone", Members: recordIDs(cfg.records)}}
	}
	if err := roster.ValidateGroups(cfg.groups, cfg.records); err != nil {
		return nil, err
	}

	if cfg.storage.kind == storageMemory {
		cfg.storage.mem = kv.NewMemory()
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		port:            cfg.port,
		namespace:       cfg.namespace,
		defaultTheme:    cfg.defaultTheme,
		records:         cfg.records,
		groups:          cfg.groups,
		storage:         cfg.storage,
		logger:          logger,
		changeCallbacks: cfg.changeCallbacks,
	}, nil
}

// Start connects to storage and serves the views until ctx is cancelled.
//
// During execution:
//
//   - The stored list is loaded, reconciled with the configured people and
//     written back
//   - Change callbacks fire for every change, local or from another board
//   - The HTTP server listens on the configured port
//
// Returns nil on graceful shutdown. Returns an error if storage cannot be
// opened or the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("inoutboard starting",
		"people", len(b.records),
		"groups", len(b.groups),
		"storage", b.storage.kind.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	client, err := b.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			b.logger.Warn("failed to close storage", "error", err)
		}
	}()

	records, err := client.Records(ctx)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	b.logger.Info("records loaded", "count", len(records), "in", roster.CountIn(records))

	unsubscribe := client.Subscribe(func(records []Record) {
		b.logger.Debug("records changed", "in", roster.CountIn(records))
		for _, cb := range b.changeCallbacks {
			invokeCallbackSafe(cb, records, b.logger)
		}
	})
	defer unsubscribe()

	httpServer := server.NewServer(client.store, client.prefs, server.Roster{
		Defaults: b.records,
		Groups:   b.groups,
	}, b.port, dashboard.Assets, b.title, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.logger.Info("board available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	<-ctx.Done()
	b.logger.Info("inoutboard stopped")
	return nil
}

// Records returns a copy of the configured people.
func (b *Board) Records() []Record {
	return roster.CopyRecords(b.records)
}

// Groups returns a copy of the configured groups.
func (b *Board) Groups() []Group {
	cp := make([]Group, len(b.groups))
	for i, g := range b.groups {
		g.Members = append([]string(nil), g.Members...)
		cp[i] = g
	}
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// Namespace returns the storage key prefix.
func (b *Board) Namespace() string {
	return b.namespace
}

func recordIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// invokeCallbackSafe calls a change callback with its own copy of
// records and panic recovery. Panics are logged with a correlation id
// but do not propagate.
func invokeCallbackSafe(cb func([]Record), records []Record, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("change callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
			)
		}
	}()
	cb(roster.CopyRecords(records))
}
