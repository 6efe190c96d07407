package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by [Backend.Get] when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Backend stores raw values under string keys.
//
// Implementations must be safe for concurrent use. Writes replace the
// whole value; there is no compare-and-swap, so concurrent writers to
// the same key follow last-writer-wins.
type Backend interface {
	// Get returns the value stored under key, or [ErrNotFound].
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. origin identifies the writing
	// context; backends that can record it do so for change detection.
	Set(ctx context.Context, key string, value []byte, origin string) error

	// Close releases backend resources.
	Close() error
}

// Entry is a stored value together with its bookkeeping.
type Entry struct {
	Value   []byte
	Origin  string
	Version int64
}

// journalRetain is how many recent writes a [Journal] keeps. A reader
// that falls further behind than this misses the oldest of them.
const journalRetain = 1024

// Logged is one write recorded in a [Journal].
type Logged struct {
	Seq int64
	Change
}

// Journal is implemented by backends that record every write in
// order, so that other processes can replay them by polling.
type Journal interface {
	// Head returns the sequence number of the latest recorded write,
	// or 0 if nothing has been written.
	Head(ctx context.Context) (int64, error)

	// Since returns up to limit writes with a sequence number greater
	// than seq, oldest first.
	Since(ctx context.Context, seq int64, limit int) ([]Logged, error)
}

// Change describes a write made by one execution context.
type Change struct {
	// Key is the key that was written.
	Key string `cbor:"1,keyasint"`

	// Value is the new raw value.
	Value []byte `cbor:"2,keyasint"`

	// Origin identifies the context that wrote the value.
	Origin string `cbor:"3,keyasint"`
}

// Notifier carries [Change] events between execution contexts.
type Notifier interface {
	// Publish announces a change to every listener.
	Publish(ctx context.Context, c Change) error

	// Listen registers fn for every change delivered to this notifier,
	// including changes made by the caller's own context; filtering by
	// origin is the listener's job. The returned func deregisters fn and
	// is safe to call more than once.
	Listen(fn func(Change)) (stop func())

	// Close stops delivery and releases resources.
	Close() error
}
