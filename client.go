package inoutboard

import (
	"context"
	"fmt"

	"github.com/zachittx/inoutboard/internal/roster"
	"github.com/zachittx/inoutboard/internal/store"
)

// Client is one execution context attached to a board's storage.
//
// Each Client has its own identity: changes it makes reach every other
// Client and [Board] on the same storage, while its own subscribers
// hear them directly. Obtain one with [Board.Connect] and release it
// with [Client.Close].
type Client struct {
	store    *store.SharedStore
	prefs    *store.Preferences
	storage  *storage
	defaults []Record
	groups   []Group
}

// Connect opens the board's storage as a new execution context.
//
// With memory storage the Clients of one Board share a single
// in-process store; use SQLite or Redis storage to share state between
// processes.
func (b *Board) Connect(ctx context.Context) (*Client, error) {
	st, err := openStorage(ctx, b.storage, b.namespace, b.logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", b.storage.kind, err)
	}

	cfg := store.Config{
		Backend:      st.backend,
		Notifier:     st.notifier,
		Namespace:    b.namespace,
		DefaultTheme: b.defaultTheme,
		Logger:       b.logger,
	}
	shared, err := store.NewShared(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	prefs, err := store.NewPreferences(cfg, shared.Origin())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &Client{
		store:    shared,
		prefs:    prefs,
		storage:  st,
		defaults: b.records,
		groups:   b.groups,
	}, nil
}

// Records loads the stored list, reconciles it with the board's people
// and writes the result back.
func (c *Client) Records(ctx context.Context) ([]Record, error) {
	return c.store.Initialize(ctx, c.defaults)
}

// Board returns the grouped projection of [Client.Records].
func (c *Client) Board(ctx context.Context) ([]GroupView, error) {
	records, err := c.Records(ctx)
	if err != nil {
		return nil, err
	}
	return roster.Project(records, c.groups), nil
}

// SetStatus marks one person in or out and stamps the change time.
// Unknown ids are ignored.
func (c *Client) SetStatus(ctx context.Context, id string, status Status) error {
	return c.store.SetStatus(ctx, id, status)
}

// Subscribe registers fn for record list changes. The returned func
// removes it and may be called more than once.
func (c *Client) Subscribe(fn func([]Record)) func() {
	return c.store.Subscribe(fn)
}

// Theme returns the stored theme preference.
func (c *Client) Theme(ctx context.Context) (Theme, error) {
	return c.prefs.Theme(ctx)
}

// SetTheme stores the theme preference.
func (c *Client) SetTheme(ctx context.Context, t Theme) error {
	return c.prefs.SetTheme(ctx, t)
}

// Close releases the storage connection.
func (c *Client) Close() error {
	return c.storage.Close()
}
