package inoutboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zachittx/inoutboard/internal/kv"
	"github.com/zachittx/inoutboard/internal/poller"
	"github.com/zachittx/inoutboard/internal/store"
)

const (
	defaultSQLitePollInterval = time.Second

	// redisConnectTimeout bounds the ping and subscribe handshake.
	redisConnectTimeout = 10 * time.Second
)

type storageKind int

const (
	storageMemory storageKind = iota
	storageSQLite
	storageRedis
)

// String returns the name used in logs and config files.
func (k storageKind) String() string {
	switch k {
	case storageSQLite:
		return "sqlite"
	case storageRedis:
		return "redis"
	default:
		return "memory"
	}
}

// storageConfig selects and parameterises the backend.
type storageConfig struct {
	kind storageKind

	// sqlite
	path         string
	pollInterval time.Duration

	// redis
	addr     string
	password string
	db       int

	// memory, shared by every Connect of one Board
	mem *kv.Memory
}

// storage is an opened backend with the notifier that carries its
// changes between contexts.
type storage struct {
	backend  kv.Backend
	notifier kv.Notifier
}

// Close closes the notifier, then the backend.
func (s *storage) Close() error {
	return errors.Join(s.notifier.Close(), s.backend.Close())
}

// openStorage connects to the configured backend. Background delivery
// (the SQLite watcher, the Redis subscription) runs until Close or
// until ctx is cancelled.
func openStorage(ctx context.Context, cfg storageConfig, namespace string, logger *slog.Logger) (*storage, error) {
	switch cfg.kind {
	case storageSQLite:
		db, err := kv.OpenSQLite(cfg.path, logger)
		if err != nil {
			return nil, err
		}
		watcher := poller.NewWatcher(db,
			[]string{store.RecordsKey(namespace), store.ThemeKey(namespace)},
			cfg.pollInterval, logger)
		watcher.Start(ctx)
		return &storage{backend: db, notifier: watcher}, nil

	case storageRedis:
		r, err := kv.NewRedis(kv.RedisOptions{
			Addr:     cfg.addr,
			Password: cfg.password,
			DB:       cfg.db,
		}, logger)
		if err != nil {
			return nil, err
		}
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		if err := r.Ping(connectCtx); err != nil {
			_ = r.Close()
			return nil, err
		}
		n, err := r.Notifier(connectCtx, store.ChangesChannel(namespace))
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		return &storage{backend: r, notifier: n}, nil

	case storageMemory:
		if cfg.mem == nil {
			return nil, errors.New("memory storage not initialised")
		}
		return &storage{backend: cfg.mem, notifier: cfg.mem}, nil
	}
	return nil, fmt.Errorf("unknown storage kind %d", cfg.kind)
}
