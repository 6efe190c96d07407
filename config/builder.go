package config

import (
	"github.com/zachittx/inoutboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options do not include a logger; callers append
// [inoutboard.WithLogger] themselves.
func BuildOptions(cfg *Config) ([]inoutboard.Option, error) {
	opts := []inoutboard.Option{
		inoutboard.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, inoutboard.WithTitle(cfg.Title))
	}
	if cfg.Namespace != "" {
		opts = append(opts, inoutboard.WithNamespace(cfg.Namespace))
	}
	if cfg.Theme != "" {
		opts = append(opts, inoutboard.WithDefaultTheme(inoutboard.Theme(cfg.Theme)))
	}

	records, err := cfg.Records()
	if err != nil {
		return nil, err
	}
	if records != nil {
		opts = append(opts, inoutboard.WithRecords(records...))
	}
	if groups := cfg.RosterGroups(); groups != nil {
		opts = append(opts, inoutboard.WithGroups(groups...))
	}

	switch cfg.Storage.Backend {
	case BackendSQLite:
		opts = append(opts, inoutboard.WithSQLiteStorage(cfg.Storage.Path, cfg.Storage.PollInterval.Duration()))
	case BackendRedis:
		r := cfg.Storage.Redis
		opts = append(opts, inoutboard.WithRedisStorage(r.Addr, r.Password, r.DB))
	default:
		opts = append(opts, inoutboard.WithMemoryStorage())
	}

	return opts, nil
}
