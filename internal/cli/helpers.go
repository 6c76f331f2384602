package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/imkarma/planner/internal/config"
	"github.com/imkarma/planner/internal/planner"
	"github.com/imkarma/planner/internal/store"
)

const plannerDirName = ".planner"

// plannerPath returns the path to a file inside .planner/.
func plannerPath(parts ...string) string {
	elems := append([]string{plannerDirName}, parts...)
	return filepath.Join(elems...)
}

// loadConfig reads .planner/config.yaml, returning an error if the project
// is not initialized.
func loadConfig() (*config.Config, error) {
	cfgPath := plannerPath("config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("planner not initialized. Run: planner init")
	}
	return config.Load(cfgPath)
}

// newLogger builds the stderr logger at the configured level; --debug wins.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.SlogLevel()
	if debugFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openers maps the configured engine to primary and fallback openers.
func openers(cfg *config.Config, dir string) (primary, fallback store.Opener) {
	sqlite := store.OpenSQLite(cfg.Storage.DBPath(dir))
	kv := store.OpenKV(cfg.Storage.KVPath(dir))
	switch cfg.Storage.Engine {
	case config.EngineSQLite:
		return sqlite, nil
	case config.EngineKV:
		return nil, kv
	default:
		return sqlite, kv
	}
}

// session is an initialized planner plus the resources backing it.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter *store.Adapter
	planner *planner.Planner
}

func (s *session) Close() error {
	return s.adapter.Close()
}

// mustPlanner loads config, opens storage and loads the task collection.
func mustPlanner(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	primary, fallback := openers(cfg, plannerDirName)
	adapter := store.NewAdapter(store.AdapterConfig{
		Primary:  primary,
		Fallback: fallback,
		Logger:   logger,
	})
	p := planner.New(planner.Config{
		Storage:      adapter,
		Logger:       logger,
		TimeZone:     cfg.Tasks.TimeZone,
		DefaultKind:  store.Kind(cfg.Tasks.DefaultKind),
		UndoCapacity: cfg.Undo.Capacity,
	})
	if err := p.Initialize(ctx); err != nil {
		adapter.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, adapter: adapter, planner: p}, nil
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(p *planner.Planner, ref string) (store.Task, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return store.Task{}, fmt.Errorf("task id is required")
	}
	if t, ok := p.Get(ref); ok {
		return t, nil
	}

	var matches []store.Task
	for _, t := range p.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return store.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return store.Task{}, fmt.Errorf("%q is ambiguous: matches %d tasks", ref, len(matches))
	}
}

// shortID is the id prefix shown in listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
