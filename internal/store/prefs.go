package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zachittx/inoutboard/internal/kv"
	"github.com/zachittx/inoutboard/internal/roster"
)

// Preferences persists the theme under its own key, independent of the
// record list.
type Preferences struct {
	backend      kv.Backend
	notifier     kv.Notifier
	key          string
	origin       string
	defaultTheme roster.Theme
	logger       *slog.Logger
}

// NewPreferences creates a [Preferences] sharing cfg's backend. origin
// tags writes the same way the record store does.
func NewPreferences(cfg Config, origin string) (*Preferences, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if _, ok := roster.ParseTheme(string(cfg.DefaultTheme)); !ok {
		return nil, fmt.Errorf("store: invalid default theme %q", cfg.DefaultTheme)
	}
	return &Preferences{
		backend:      cfg.Backend,
		notifier:     cfg.Notifier,
		key:          ThemeKey(cfg.Namespace),
		origin:       origin,
		defaultTheme: cfg.DefaultTheme,
		logger:       cfg.Logger,
	}, nil
}

// Theme returns the stored theme. A missing or unrecognised value
// yields the default theme.
func (p *Preferences) Theme(ctx context.Context) (roster.Theme, error) {
	raw, err := p.backend.Get(ctx, p.key)
	if errors.Is(err, kv.ErrNotFound) {
		return p.defaultTheme, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading theme: %w", err)
	}

	t, ok := roster.ParseTheme(string(raw))
	if !ok {
		p.logger.Debug("ignoring unknown stored theme", "value", string(raw))
		return p.defaultTheme, nil
	}
	return t, nil
}

// SetTheme persists t.
func (p *Preferences) SetTheme(ctx context.Context, t roster.Theme) error {
	if _, ok := roster.ParseTheme(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}

	value := []byte(t)
	if err := p.backend.Set(ctx, p.key, value, p.origin); err != nil {
		return fmt.Errorf("writing theme: %w", err)
	}

	err := p.notifier.Publish(ctx, kv.Change{Key: p.key, Value: value, Origin: p.origin})
	if err != nil {
		p.logger.Warn("failed to announce theme change", "error", err)
	}
	return nil
}

// ApplyOverride persists param if it is "dark" or "light" and returns
// the theme in effect afterwards. Any other value leaves the stored
// preference untouched.
func (p *Preferences) ApplyOverride(ctx context.Context, param string) (roster.Theme, error) {
	if t, ok := roster.ParseTheme(param); ok {
		if err := p.SetTheme(ctx, t); err != nil {
			return "", err
		}
		return t, nil
	}
	return p.Theme(ctx)
}
