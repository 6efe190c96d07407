// Package config provides file configuration parsing for inoutboard.
//
// This package enables running the board as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// YAML is the primary format; files ending in .json or .jsonc are read
// as JSON with comments and trailing commas allowed.
//
// Example configuration:
//
//	title: Front Desk
//	port: 8080
//	theme: dark
//
//	storage:
//	  backend: sqlite
//	  path: ${BOARD_DB:-board.db}
//	  poll_interval: 1s
//
//	people:
//	  - id: ada
//	    name: Ada Lovelace
//	  - id: alan
//	    name: Alan Turing
//	    status: in
//
//	groups:
//	  - key: eng
//	    title: Engineering
//	    members: [ada, alan]
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/zachittx/inoutboard/internal/roster"
)

// minPollInterval is the smallest SQLite poll interval accepted from a file.
const minPollInterval = 100 * time.Millisecond

const (
	defaultPort         = 8080
	defaultPollInterval = time.Second
)

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the root configuration structure for inoutboard.
//
// It maps directly to the configuration file structure.
// Use [Load] or [Parse] to create a Config.
type Config struct {
	// Title is the board title. Defaults to "In/Out Board" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Namespace prefixes storage keys. Defaults to "inoutboard".
	Namespace string `yaml:"namespace"`

	// Theme is the default theme, "dark" or "light". Defaults to dark.
	Theme string `yaml:"theme"`

	// Storage selects where state is kept.
	Storage StorageConfig `yaml:"storage"`

	// People replaces the built-in people when non-empty.
	People []PersonConfig `yaml:"people"`

	// Groups replaces the built-in groups when non-empty.
	Groups []GroupConfig `yaml:"groups"`
}

// StorageConfig selects and configures the state backend.
type StorageConfig struct {
	// Backend is "memory", "sqlite" or "redis". Defaults to memory.
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Required for sqlite.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Path string `yaml:"path"`

	// PollInterval is how often SQLite is checked for other processes'
	// writes. Defaults to 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig locates a Redis-protocol server.
type RedisConfig struct {
	// Addr is host:port. Required for redis. Supports substitution.
	Addr string `yaml:"addr"`

	// Password is sent with AUTH when set. Supports substitution.
	Password string `yaml:"password"`

	// DB is the database number.
	DB int `yaml:"db"`
}

// PersonConfig defines one person on the board.
type PersonConfig struct {
	// ID is the stable identifier used by groups and the API.
	ID string `yaml:"id"`

	// Name is the display name.
	Name string `yaml:"name"`

	// Status is the initial status, "in" or "out". Defaults to out.
	// Only used when the person is not yet in storage.
	Status string `yaml:"status"`
}

// GroupConfig defines one group on the display.
type GroupConfig struct {
	Key     string   `yaml:"key"`
	Title   string   `yaml:"title"`
	Members []string `yaml:"members"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Files ending in .json or .jsonc are stripped of comments and trailing
// commas before parsing. Returns an error if the file cannot be read or
// parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the cleaned document parses as-is
		data = jsonc.ToJSON(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the storage path and Redis
// settings. Defaults are applied for Port, Storage.Backend and
// Storage.PollInterval.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Storage.PollInterval == 0 {
		cfg.Storage.PollInterval = Duration(defaultPollInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.Theme != "" {
		if _, ok := roster.ParseTheme(c.Theme); !ok {
			return fmt.Errorf("theme must be %q or %q, got %q", roster.ThemeDark, roster.ThemeLight, c.Theme)
		}
	}

	if err := c.Storage.expandAndValidate(); err != nil {
		return err
	}

	records, err := c.Records()
	if err != nil {
		return err
	}

	if len(c.Groups) > 0 {
		if records == nil {
			records = roster.DefaultRecords()
		}
		for i, g := range c.Groups {
			if g.Title == "" {
				return fmt.Errorf("groups[%d] (%s): title is required", i, g.Key)
			}
		}
		if err := roster.ValidateGroups(c.RosterGroups(), records); err != nil {
			return err
		}
	}

	return nil
}

func (s *StorageConfig) expandAndValidate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendSQLite:
		if s.Path == "" {
			return fmt.Errorf("storage: path is required for backend %q", BackendSQLite)
		}
		expanded, err := expandEnvVars(s.Path)
		if err != nil {
			return fmt.Errorf("storage: path: %w", err)
		}
		s.Path = expanded

		if s.PollInterval.Duration() < minPollInterval {
			return fmt.Errorf("storage: poll_interval must be at least %s, got %s",
				minPollInterval, s.PollInterval.Duration())
		}
	case BackendRedis:
		addr, err := expandEnvVars(s.Redis.Addr)
		if err != nil {
			return fmt.Errorf("storage: redis.addr: %w", err)
		}
		if addr == "" {
			return fmt.Errorf("storage: redis.addr is required for backend %q", BackendRedis)
		}
		s.Redis.Addr = addr

		password, err := expandEnvVars(s.Redis.Password)
		if err != nil {
			return fmt.Errorf("storage: redis.password: %w", err)
		}
		s.Redis.Password = password

		if s.Redis.DB < 0 {
			return fmt.Errorf("storage: redis.db cannot be negative, got %d", s.Redis.DB)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q (expected %q, %q or %q)",
			s.Backend, BackendMemory, BackendSQLite, BackendRedis)
	}
	return nil
}

// Records converts People to records. Returns nil when no people are
// configured.
func (c *Config) Records() ([]roster.Record, error) {
	if len(c.People) == 0 {
		return nil, nil
	}

	records := make([]roster.Record, len(c.People))
	for i, p := range c.People {
		status := roster.StatusOut
		if p.Status != "" {
			s, err := roster.ParseStatus(p.Status)
			if err != nil {
				return nil, fmt.Errorf("people[%d] (%s): %w", i, p.ID, err)
			}
			status = s
		}
		records[i] = roster.Record{ID: p.ID, Name: p.Name, Status: status}
	}

	if err := roster.ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

// RosterGroups converts Groups to roster groups. Returns nil when no
// groups are configured.
func (c *Config) RosterGroups() []roster.Group {
	if len(c.Groups) == 0 {
		return nil
	}
	groups := make([]roster.Group, len(c.Groups))
	for i, g := range c.Groups {
		groups[i] = roster.Group{
			Key:     g.Key,
			Title:   g.Title,
			Members: append([]string(nil), g.Members...),
		}
	}
	return groups
}
