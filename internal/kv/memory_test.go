package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("hello")
	if err := m.Set(ctx, "k", value, "ctx-a"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// caller's buffer must not alias stored data
	value[0] = 'J'

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Get() = %q, want %q", got, "hello")
	}
}

func TestMemory_JournalRecordsEveryWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Set(ctx, "k", []byte("1"), "a")
	_ = m.Set(ctx, "k", []byte("2"), "b")

	head, err := m.Head(ctx)
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head != 2 {
		t.Errorf("Head() = %d, want 2", head)
	}

	rows, err := m.Since(ctx, 0, 0)
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(Since(0)) = %d, want 2", len(rows))
	}
	if rows[0].Origin != "a" || string(rows[0].Value) != "1" {
		t.Errorf("rows[0] = %+v, want value 1 from a", rows[0])
	}
	if rows[1].Seq != 2 || rows[1].Origin != "b" || string(rows[1].Value) != "2" {
		t.Errorf("rows[1] = %+v, want seq 2 value 2 from b", rows[1])
	}

	rows, _ = m.Since(ctx, 1, 0)
	if len(rows) != 1 || rows[0].Seq != 2 {
		t.Errorf("Since(1) = %+v, want only seq 2", rows)
	}
	rows, _ = m.Since(ctx, 0, 1)
	if len(rows) != 1 || rows[0].Seq != 1 {
		t.Errorf("Since(0, limit 1) = %+v, want only seq 1", rows)
	}
}

func TestMemory_JournalIsBounded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < journalRetain+10; i++ {
		_ = m.Set(ctx, "k", []byte("v"), "a")
	}

	rows, _ := m.Since(ctx, 0, 0)
	if len(rows) != journalRetain {
		t.Fatalf("len(Since(0)) = %d, want %d", len(rows), journalRetain)
	}
	if rows[0].Seq != 11 {
		t.Errorf("oldest retained seq = %d, want 11", rows[0].Seq)
	}
}

func TestMemory_PublishReachesAllListeners(t *testing.T) {
	m := NewMemory()

	var got []string
	stop1 := m.Listen(func(c Change) { got = append(got, "1:"+c.Origin) })
	stop2 := m.Listen(func(c Change) { got = append(got, "2:"+c.Origin) })
	defer stop2()

	_ = m.Publish(context.Background(), Change{Key: "k", Origin: "x"})
	if len(got) != 2 {
		t.Fatalf("listeners called %d times, want 2", len(got))
	}

	stop1()
	stop1() // idempotent

	got = nil
	_ = m.Publish(context.Background(), Change{Key: "k", Origin: "y"})
	if len(got) != 1 || got[0] != "2:y" {
		t.Errorf("after stop got = %v, want [2:y]", got)
	}
}

func TestMemory_ListenerMayUnsubscribeDuringDispatch(t *testing.T) {
	m := NewMemory()

	var stop func()
	calls := 0
	stop = m.Listen(func(Change) {
		calls++
		stop()
	})

	_ = m.Publish(context.Background(), Change{})
	_ = m.Publish(context.Background(), Change{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "k", []byte("v"), "o")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = m.Get(ctx, "k")
			}
		}()
		go func() {
			defer wg.Done()
			stop := m.Listen(func(Change) {})
			_ = m.Publish(ctx, Change{Key: "k"})
			stop()
		}()
	}
	wg.Wait()

	head, err := m.Head(ctx)
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head != 1000 {
		t.Errorf("Head() = %d, want 1000", head)
	}
}
