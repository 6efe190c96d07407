package store

import (
	"context"

	"github.com/zachittx/inoutboard/internal/roster"
)

// DefaultNamespace prefixes every key the store writes.
const DefaultNamespace = "inoutboard"

// RecordsKey returns the key holding the serialized record list.
func RecordsKey(namespace string) string {
	return namespace + ":records"
}

// ThemeKey returns the key holding the theme preference.
func ThemeKey(namespace string) string {
	return namespace + ":theme"
}

// ChangesChannel returns the pub/sub channel used to announce writes.
func ChangesChannel(namespace string) string {
	return namespace + ":changes"
}

// Store defines the record operations the views depend on.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Initialize loads the persisted list, reconciles it with defaults,
	// writes the result back and returns it.
	Initialize(ctx context.Context, defaults []roster.Record) ([]roster.Record, error)

	// Subscribe registers fn for list changes and returns an idempotent
	// func that removes it.
	Subscribe(fn func([]roster.Record)) (unsubscribe func())

	// SetStatus changes one record's status and timestamp. Unknown ids
	// are ignored without error.
	SetStatus(ctx context.Context, id string, status roster.Status) error
}

// ThemeStore defines the theme preference operations.
type ThemeStore interface {
	// Theme returns the stored theme, or the default if none is stored.
	Theme(ctx context.Context) (roster.Theme, error)

	// SetTheme persists t.
	SetTheme(ctx context.Context, t roster.Theme) error

	// ApplyOverride persists param when it names a theme and returns the
	// theme in effect afterwards. Other values are ignored.
	ApplyOverride(ctx context.Context, param string) (roster.Theme, error)
}
