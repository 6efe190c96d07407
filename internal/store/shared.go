package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zachittx/inoutboard/internal/kv"
	"github.com/zachittx/inoutboard/internal/roster"
)

// Config holds the dependencies of a [SharedStore] or [Preferences].
type Config struct {
	// Backend persists values. Required.
	Backend kv.Backend

	// Notifier carries writes between contexts. Required.
	Notifier kv.Notifier

	// Namespace prefixes keys. Defaults to [DefaultNamespace].
	Namespace string

	// DefaultTheme is returned when no theme is stored.
	// Defaults to [roster.DefaultTheme].
	DefaultTheme roster.Theme

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Now supplies the time used for updatedAt. Defaults to time.Now.
	Now func() time.Time
}

func (c *Config) applyDefaults() error {
	if c.Backend == nil {
		return errors.New("store: backend is required")
	}
	if c.Notifier == nil {
		return errors.New("store: notifier is required")
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.DefaultTheme == "" {
		c.DefaultTheme = roster.DefaultTheme
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// SharedStore is the canonical record list of one execution context.
//
// Construct one per process with [NewShared] and inject it into the
// views that need it.
type SharedStore struct {
	backend  kv.Backend
	notifier kv.Notifier
	key      string
	origin   string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	next int
	subs map[int]func([]roster.Record)
}

// NewShared creates a [SharedStore] with a fresh origin id.
func NewShared(cfg Config) (*SharedStore, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &SharedStore{
		backend:  cfg.Backend,
		notifier: cfg.Notifier,
		key:      RecordsKey(cfg.Namespace),
		origin:   uuid.NewString(),
		logger:   cfg.Logger,
		now:      cfg.Now,
		subs:     make(map[int]func([]roster.Record)),
	}, nil
}

// Origin returns the id this context stamps on its writes.
func (s *SharedStore) Origin() string {
	return s.origin
}

// Initialize loads the persisted list and reconciles it with defaults.
//
// A missing or unparsable value is replaced by defaults. Otherwise the
// result of [Reconcile] is written back, unless it encodes to exactly
// the stored bytes. Anything written is announced to other contexts;
// local subscribers are not notified.
func (s *SharedStore) Initialize(ctx context.Context, defaults []roster.Record) ([]roster.Record, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return s.seed(ctx, defaults)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	persisted, err := decodeRecords(raw)
	if err != nil {
		s.logger.Warn("discarding unparsable records",
			"key", s.key,
			"error", err,
		)
		return s.seed(ctx, defaults)
	}

	merged := Reconcile(defaults, persisted)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	if bytes.Equal(data, raw) {
		return merged, nil
	}
	if err := s.persist(ctx, data); err != nil {
		return nil, err
	}
	return merged, nil
}

// seed persists and returns a copy of defaults.
func (s *SharedStore) seed(ctx context.Context, defaults []roster.Record) ([]roster.Record, error) {
	records := roster.CopyRecords(defaults)
	if records == nil {
		records = []roster.Record{}
	}
	if err := s.write(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Subscribe registers fn for list changes.
//
// fn is called with the full list after every SetStatus in this
// context, and after every write by another context that reaches this
// one through the notifier. Notifications whose payload cannot be
// decoded are dropped. Callbacks run synchronously in the notifying
// goroutine; a panicking callback is logged and skipped.
func (s *SharedStore) Subscribe(fn func([]roster.Record)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	stopListening := s.notifier.Listen(func(c kv.Change) {
		s.handleChange(c, fn)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			stopListening()

			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// handleChange forwards a change from another context to fn.
func (s *SharedStore) handleChange(c kv.Change, fn func([]roster.Record)) {
	if c.Origin == s.origin || c.Key != s.key {
		return
	}

	records, err := decodeRecords(c.Value)
	if err != nil {
		s.logger.Debug("dropping unparsable change",
			"key", c.Key,
			"origin", c.Origin,
			"error", err,
		)
		return
	}
	s.invokeSafe(fn, records)
}

// SetStatus sets the status of record id and stamps updatedAt with the
// current time, persists the list, notifies local subscribers and
// announces the write to other contexts.
//
// Setting the current status again still refreshes updatedAt. An id
// that is not in the persisted list is ignored and nil is returned.
func (s *SharedStore) SetStatus(ctx context.Context, id string, status roster.Status) error {
	if !status.Valid() {
		return fmt.Errorf("set status of %q: %w, got %q", id, roster.ErrInvalidStatus, status)
	}

	raw, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		s.logger.Debug("set status ignored: no records stored", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		s.logger.Debug("set status ignored: stored records unparsable", "id", id, "error", err)
		return nil
	}

	i := roster.IndexOf(records, id)
	if i < 0 {
		s.logger.Debug("set status ignored: unknown id", "id", id)
		return nil
	}

	records[i].Status = status
	records[i].UpdatedAt = s.now().UnixMilli()

	if err := s.write(ctx, records); err != nil {
		return err
	}

	s.notifyLocal(records)
	return nil
}

// write persists records and announces them to other contexts.
func (s *SharedStore) write(ctx context.Context, records []roster.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return s.persist(ctx, data)
}

// persist stores an encoded list and announces it. Announce failures
// are logged; the write has already landed.
func (s *SharedStore) persist(ctx context.Context, data []byte) error {
	if err := s.backend.Set(ctx, s.key, data, s.origin); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}

	err := s.notifier.Publish(ctx, kv.Change{
		Key:    s.key,
		Value:  data,
		Origin: s.origin,
	})
	if err != nil {
		s.logger.Warn("failed to announce records change", "key", s.key, "error", err)
	}
	return nil
}

// notifyLocal calls every local subscriber with its own copy of records.
func (s *SharedStore) notifyLocal(records []roster.Record) {
	s.mu.RLock()
	fns := make([]func([]roster.Record), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		s.invokeSafe(fn, roster.CopyRecords(records))
	}
}

// invokeSafe calls a subscriber with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func (s *SharedStore) invokeSafe(fn func([]roster.Record), records []roster.Record) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store subscriber panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
			)
		}
	}()
	fn(records)
}

// decodeRecords parses a persisted list. A JSON null decodes to an
// empty list.
func decodeRecords(data []byte) ([]roster.Record, error) {
	var records []roster.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []roster.Record{}
	}
	return records, nil
}
