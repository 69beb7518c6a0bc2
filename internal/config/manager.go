package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"
)

// PublicURLEnv overrides system.public_base_url when set.
const PublicURLEnv = "SENTRYBRIDGE_PUBLIC_URL"

// Manager loads config once and serves concurrent reads. The config is
// never mutated at runtime.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	filePath string
}

// NewManager creates a Manager and loads config from the given file
// path. If the file does not exist, a default config is used (but not
// persisted). Environment overrides apply in either case.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		slog.Warn("config file not found, using defaults", "path", filePath)
		m.cfg = DefaultConfig()
		applyEnv(&m.cfg)
		if err := m.cfg.Validate(); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return m, nil
}

// Get returns a copy of the current config (safe for concurrent reads).
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.filePath)
	if err != nil {
		return err
	}

	jsonData, err := coerceToJSON(m.filePath, data)
	if err != nil {
		return err
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.cfg = cfg
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(PublicURLEnv); v != "" {
		cfg.System.PublicBaseURL = v
	}
}

// coerceToJSON converts YAML config files to JSON bytes so one decoder
// handles both formats.
func coerceToJSON(path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert config YAML: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
