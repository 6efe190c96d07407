package kv

import (
	"context"
	"sync"
)

// Memory is an in-process implementation of [Backend], [Journal] and
// [Notifier].
//
// Several stores sharing one Memory behave like several browser tabs
// sharing one origin's storage: they see each other's writes, and
// published changes reach every listener synchronously.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	log     []Logged
	seq     int64
	fanout  Fanout
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
	}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.Value...), nil
}

// Set stores a copy of value and records the write in the journal.
func (m *Memory) Set(_ context.Context, key string, value []byte, origin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value = append([]byte(nil), value...)
	m.entries[key] = Entry{Value: value, Origin: origin}

	m.seq++
	m.log = append(m.log, Logged{
		Seq:    m.seq,
		Change: Change{Key: key, Value: value, Origin: origin},
	})
	if len(m.log) > journalRetain {
		m.log = append([]Logged(nil), m.log[len(m.log)-journalRetain:]...)
	}
	return nil
}

// Head returns the sequence number of the latest write.
func (m *Memory) Head(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq, nil
}

// Since returns up to limit journaled writes after seq.
func (m *Memory) Since(_ context.Context, seq int64, limit int) ([]Logged, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Logged
	for _, l := range m.log {
		if l.Seq <= seq {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		l.Value = append([]byte(nil), l.Value...)
		out = append(out, l)
	}
	return out, nil
}

// Publish delivers c to every listener before returning.
func (m *Memory) Publish(_ context.Context, c Change) error {
	m.fanout.Dispatch(c)
	return nil
}

// Listen registers fn for published changes.
func (m *Memory) Listen(fn func(Change)) func() {
	return m.fanout.Add(fn)
}

// Close is a no-op; Memory holds no external resources.
func (m *Memory) Close() error {
	return nil
}
