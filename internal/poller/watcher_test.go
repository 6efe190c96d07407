package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/zachittx/inoutboard/internal/kv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects changes delivered to a listener.
type recorder struct {
	mu      sync.Mutex
	changes []kv.Change
}

func (r *recorder) add(c kv.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []kv.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kv.Change(nil), r.changes...)
}

func TestWatcher_BaselineIsNotAChange(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	_ = m.Set(ctx, "k", []byte("old"), "a")

	w := NewWatcher(m, []string{"k"}, time.Hour, testLogger())
	var rec recorder
	w.Listen(rec.add)

	w.Start(ctx)
	defer func() { _ = w.Close() }()

	w.PollNow(ctx)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("changes after baseline = %v, want none", got)
	}
}

func TestWatcher_ReportsWriteWithOrigin(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	w := NewWatcher(m, []string{"k"}, time.Hour, testLogger())
	var rec recorder
	w.Listen(rec.add)
	w.Start(ctx)
	defer func() { _ = w.Close() }()

	_ = m.Set(ctx, "k", []byte("v1"), "writer")
	w.PollNow(ctx)

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("len(changes) = %d, want 1", len(got))
	}
	if got[0].Key != "k" || string(got[0].Value) != "v1" || got[0].Origin != "writer" {
		t.Errorf("change = %+v", got[0])
	}

	// no new write, no new change
	w.PollNow(ctx)
	if n := len(rec.snapshot()); n != 1 {
		t.Errorf("len(changes) after idle poll = %d, want 1", n)
	}
}

func TestWatcher_ReplaysEveryWriteBetweenPolls(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	w := NewWatcher(m, []string{"k"}, time.Hour, testLogger())
	var rec recorder
	w.Listen(rec.add)
	w.Start(ctx)
	defer func() { _ = w.Close() }()

	_ = m.Set(ctx, "k", []byte("v1"), "a")
	_ = m.Set(ctx, "k", []byte("v2"), "b")
	w.PollNow(ctx)

	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("len(changes) = %d, want 2", len(got))
	}
	if string(got[0].Value) != "v1" || got[0].Origin != "a" {
		t.Errorf("changes[0] = %+v, want v1 from a", got[0])
	}
	if string(got[1].Value) != "v2" || got[1].Origin != "b" {
		t.Errorf("changes[1] = %+v, want v2 from b", got[1])
	}
}

func TestWatcher_ReadsJournalInBatches(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	w := NewWatcher(m, []string{"k"}, time.Hour, testLogger())
	var rec recorder
	w.Listen(rec.add)
	w.Start(ctx)
	defer func() { _ = w.Close() }()

	const writes = watchBatch*2 + 7
	for i := 0; i < writes; i++ {
		_ = m.Set(ctx, "k", []byte("v"), "a")
	}
	w.PollNow(ctx)

	if n := len(rec.snapshot()); n != writes {
		t.Errorf("len(changes) = %d, want %d", n, writes)
	}
}

func TestWatcher_IgnoresUnwatchedKeys(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()

	w := NewWatcher(m, []string{"k"}, time.Hour, testLogger())
	var rec recorder
	w.Listen(rec.add)
	w.Start(ctx)
	defer func() { _ = w.Close() }()

	_ = m.Set(ctx, "other", []byte("v"), "a")
	w.PollNow(ctx)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("changes = %v, want none", got)
	}
}

func TestWatcher_TickerDetectsSQLiteWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	writer, err := kv.OpenSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer func() { _ = writer.Close() }()

	reader, err := kv.OpenSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer func() { _ = reader.Close() }()

	w := NewWatcher(reader, []string{"inoutboard:records"}, 50*time.Millisecond, testLogger())
	received := make(chan kv.Change, 4)
	w.Listen(func(c kv.Change) { received <- c })
	w.Start(ctx)
	defer func() { _ = w.Close() }()

	if err := writer.Set(ctx, "inoutboard:records", []byte("[]"), "other-process"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case c := <-received:
		if c.Origin != "other-process" {
			t.Errorf("Origin = %q, want %q", c.Origin, "other-process")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report sqlite write")
	}
}

// failingSource always errors; the watcher must keep running.
type failingSource struct{}

func (failingSource) Head(context.Context) (int64, error) {
	return 0, errors.New("disk on fire")
}

func (failingSource) Since(context.Context, int64, int) ([]kv.Logged, error) {
	return nil, errors.New("disk on fire")
}

func TestWatcher_SurvivesJournalErrors(t *testing.T) {
	w := NewWatcher(failingSource{}, []string{"k"}, time.Hour, testLogger())
	w.Start(context.Background())
	w.PollNow(context.Background())

	done := make(chan struct{})
	go func() {
		_ = w.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close() blocked")
	}
}

func TestWatcher_CloseBeforeStart(t *testing.T) {
	w := NewWatcher(kv.NewMemory(), []string{"k"}, time.Hour, testLogger())
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Start after Close is a no-op and must not leak a goroutine
	w.Start(context.Background())
	_ = w.Close()
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(kv.NewMemory(), []string{"k"}, minWatchInterval, testLogger())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after context cancel")
	}
}
