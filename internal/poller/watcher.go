package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zachittx/inoutboard/internal/kv"
)

// minWatchInterval floors the poll period to keep an idle board from
// spinning on the database.
const minWatchInterval = 50 * time.Millisecond

// watchBatch is how many journal rows one read fetches.
const watchBatch = 256

// Watcher replays a backend's write journal as [kv.Change] events.
//
// Watcher implements [kv.Notifier] for backends without push delivery
// (SQLite). Publish is a no-op: the journaled write itself is what
// other watchers observe. Every write to a watched key is reported
// once, in journal order, including writes made by the watcher's own
// process; listeners filter those by origin.
type Watcher struct {
	source   kv.Journal
	keys     map[string]struct{}
	interval time.Duration
	logger   *slog.Logger
	fanout   kv.Fanout

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	// pollMu serializes polls so each journal row is dispatched once.
	pollMu   sync.Mutex
	seq      int64
	baseline bool
}

// NewWatcher creates a [Watcher] over keys in source.
//
// The watcher must be started with [Watcher.Start] and stopped with
// [Watcher.Close].
func NewWatcher(source kv.Journal, keys []string, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval < minWatchInterval {
		interval = minWatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &Watcher{
		source:   source,
		keys:     set,
		interval: interval,
		logger:   logger,
	}
}

// Start records the journal head as a baseline and then polls in a
// background goroutine until ctx is cancelled or [Watcher.Close] is
// called. Start is idempotent; it is a no-op after Close.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	pollCtx := w.ctx
	w.wg.Add(1)
	w.mu.Unlock()

	// writes made before Start are not changes
	w.poll(pollCtx)

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				w.poll(pollCtx)
			}
		}
	}()
}

// PollNow reads the journal once and dispatches any changes before
// returning.
func (w *Watcher) PollNow(ctx context.Context) {
	w.poll(ctx)
}

func (w *Watcher) poll(ctx context.Context) {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	if !w.baseline {
		head, err := w.source.Head(ctx)
		if err != nil {
			w.warn(ctx, "watch baseline failed", err)
			return
		}
		w.seq = head
		w.baseline = true
		return
	}

	for {
		rows, err := w.source.Since(ctx, w.seq, watchBatch)
		if err != nil {
			w.warn(ctx, "watch poll failed", err)
			return
		}

		for _, row := range rows {
			w.seq = row.Seq
			if _, ok := w.keys[row.Key]; ok {
				w.fanout.Dispatch(row.Change)
			}
		}

		if len(rows) < watchBatch {
			return
		}
	}
}

func (w *Watcher) warn(ctx context.Context, msg string, err error) {
	if ctx.Err() == nil {
		w.logger.Warn(msg, "error", err)
	}
}

// Publish is a no-op; see [Watcher].
func (w *Watcher) Publish(context.Context, kv.Change) error {
	return nil
}

// Listen registers fn for detected changes.
func (w *Watcher) Listen(fn func(kv.Change)) func() {
	return w.fanout.Add(fn)
}

// Close stops polling and waits for the loop to exit. Safe to call
// multiple times and before Start.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		if w.cancel != nil {
			w.cancel()
		}
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}
