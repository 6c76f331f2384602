package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imkarma/planner/internal/pomodoro"
	"github.com/imkarma/planner/internal/store"
)

// Storage engine selections.
const (
	EngineAuto   = "auto"   // sqlite, falling back to kv
	EngineSQLite = "sqlite" // sqlite only
	EngineKV     = "kv"     // kv only
)

// Config is the root configuration for a planner project.
type Config struct {
	Version  int      `yaml:"version"`
	Storage  Storage  `yaml:"storage"`
	Tasks    Tasks    `yaml:"tasks"`
	Undo     Undo     `yaml:"undo"`
	Pomodoro Pomodoro `yaml:"pomodoro"`
	Log      Log      `yaml:"log"`
}

// Storage selects and locates the durable engines.
type Storage struct {
	Engine       string `yaml:"engine"`        // auto, sqlite or kv
	Path         string `yaml:"path"`          // SQLite file, relative to the project dir
	FallbackPath string `yaml:"fallback_path"` // KV file, relative to the project dir
}

// Tasks holds defaults stamped on new tasks.
type Tasks struct {
	DefaultKind string `yaml:"default_kind"`
	TimeZone    string `yaml:"time_zone"` // empty = environment zone
}

type Undo struct {
	Capacity int `yaml:"capacity"`
}

// Pomodoro lengths in minutes.
type Pomodoro struct {
	WorkMinutes       int `yaml:"work_minutes"`
	ShortBreakMinutes int `yaml:"short_break_minutes"`
	LongBreakMinutes  int `yaml:"long_break_minutes"`
	LongBreakEvery    int `yaml:"long_break_every"`
}

type Log struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Timer converts the minute lengths into a timer config.
func (p Pomodoro) Timer() pomodoro.Config {
	return pomodoro.Config{
		Work:           time.Duration(p.WorkMinutes) * time.Minute,
		ShortBreak:     time.Duration(p.ShortBreakMinutes) * time.Minute,
		LongBreak:      time.Duration(p.LongBreakMinutes) * time.Minute,
		LongBreakEvery: p.LongBreakEvery,
	}
}

// SlogLevel maps the configured level name to a slog level.
func (l Log) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// DBPath returns the SQLite file path resolved against dir.
func (s Storage) DBPath(dir string) string { return resolve(dir, s.Path) }

// KVPath returns the fallback file path resolved against dir.
func (s Storage) KVPath(dir string) string { return resolve(dir, s.FallbackPath) }

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Load reads and parses the config file at the given path. Keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the starter config written by init.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Storage: Storage{
			Engine:       EngineAuto,
			Path:         "planner.db",
			FallbackPath: "planner.kv.json",
		},
		Tasks: Tasks{
			DefaultKind: string(store.KindHomework),
		},
		Undo: Undo{Capacity: 50},
		Pomodoro: Pomodoro{
			WorkMinutes:       25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
			LongBreakEvery:    4,
		},
		Log: Log{Level: "warn"},
	}
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case EngineAuto, EngineSQLite, EngineKV:
	default:
		return fmt.Errorf("storage.engine must be auto, sqlite or kv, got %q", c.Storage.Engine)
	}
	if c.Storage.Engine != EngineKV && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for engine %q", c.Storage.Engine)
	}
	if !store.Kind(c.Tasks.DefaultKind).Valid() {
		return fmt.Errorf("tasks.default_kind must be homework or life, got %q", c.Tasks.DefaultKind)
	}
	if c.Tasks.TimeZone != "" {
		if _, err := time.LoadLocation(c.Tasks.TimeZone); err != nil {
			return fmt.Errorf("tasks.time_zone: %w", err)
		}
	}
	if c.Undo.Capacity <= 0 {
		return fmt.Errorf("undo.capacity must be positive, got %d", c.Undo.Capacity)
	}
	if err := c.Pomodoro.Timer().Validate(); err != nil {
		return fmt.Errorf("pomodoro: %w", err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}
