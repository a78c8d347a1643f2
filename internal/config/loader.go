package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:default} patterns in a string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// LoadFile reads a YAML file, expands env vars, and unmarshals into dest.
func LoadFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), dest); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Loader owns gateway.yaml and apis.yaml of a config dir and reloads them on change.
type Loader struct {
	configDir string
	logger    *slog.Logger

	mu   sync.RWMutex
	cfg  *Config
	apis *APIsConfig

	watchMu  sync.Mutex
	watchers []func()
}

func NewLoader(configDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{configDir: configDir, logger: logger}
}

// Load reads both files. gateway.yaml is required; apis.yaml only overrides the
// built-in API table. Nothing is swapped in unless both files validate.
func (l *Loader) Load() error {
	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(l.configDir, "gateway.yaml"), cfg); err != nil {
		return fmt.Errorf("load gateway config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("load gateway config: %w", err)
	}

	apis := DefaultAPIs()
	err := LoadFile(filepath.Join(l.configDir, "apis.yaml"), apis)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.logger.Info("apis.yaml not found, using built-in api table", "dir", l.configDir)
	case err != nil:
		return fmt.Errorf("load apis config: %w", err)
	}
	if err := Validate(apis); err != nil {
		return fmt.Errorf("load apis config: %w", err)
	}

	l.mu.Lock()
	l.cfg = cfg
	l.apis = apis
	l.mu.Unlock()

	l.logger.Info("configuration loaded", "dir", l.configDir, "apis", len(apis.APIs))
	return nil
}

func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *Loader) APIs() *APIsConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.apis
}

// OnReload registers a callback that fires after config is reloaded.
func (l *Loader) OnReload(fn func()) {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	l.watchers = append(l.watchers, fn)
}

func (l *Loader) reloaded() {
	l.watchMu.Lock()
	fns := append([]func(){}, l.watchers...)
	l.watchMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Watch reloads on writes to the config dir until done is closed. A reload
// that fails keeps the previous config.
func (l *Loader) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(l.configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir %s: %w", l.configDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".yaml" {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					l.logger.Info("config file changed, reloading", "file", event.Name)
					if err := l.Load(); err != nil {
						l.logger.Error("failed to reload config", "error", err)
						continue
					}
					l.reloaded()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Error("fsnotify error", "error", err)
			}
		}
	}()

	return nil
}
