// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tableflow/tableflow/pkg/sink"
)

// Config holds all tableflow configuration.
type Config struct {
	Version int `yaml:"version"`

	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Sink      sink.Config     `yaml:"sink"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch"`
}

// PipelineConfig controls the reconciliation run.
type PipelineConfig struct {
	// SampleSize bounds how many rows the analyzer inspects (0 = default).
	SampleSize int `yaml:"sample_size"`

	// SchemaPath points at a YAML or JSON schema file (optional).
	SchemaPath string `yaml:"schema_path"`

	// Deduplicate removes exact duplicate records after fixing.
	Deduplicate bool `yaml:"deduplicate"`
}

// TelemetryConfig for optional trace export.
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"`
	SamplingRatio float64 `yaml:"sampling_ratio"`
}

// WatchConfig for the directory watcher.
type WatchConfig struct {
	// Dir is the directory to watch for new source files.
	Dir string `yaml:"dir"`

	// Debounce is how long a file must be quiet before it is processed.
	Debounce time.Duration `yaml:"debounce"`

	// Workers bounds concurrent file runs.
	Workers int `yaml:"workers"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Pipeline: PipelineConfig{
			SampleSize: 100,
		},
		Sink: sink.Config{
			Provider:  "file",
			Path:      filepath.Join(os.TempDir(), "tableflow", "records.jsonl"),
			BatchSize: sink.DefaultBatchSize,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			Endpoint:      "localhost:4317",
			SamplingRatio: 1.0,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
			Workers:  2,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string
}

// NewManager creates a manager holding defaults; call Load to pick up files
// and environment overrides.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load reads configuration from all sources in priority order. Missing files
// are skipped; malformed existing files fail the load.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			continue
		}
		m.paths = append(m.paths, path)
	}

	m.loadEnv()
	return nil
}

// configPaths returns config file paths in priority order, weakest first.
func (m *Manager) configPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/tableflow/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".tableflow", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".tableflow.yaml"))
	}

	return paths
}

func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge overlays non-zero values from src onto the current config.
func (m *Manager) merge(src *Config) {
	if src.Pipeline.SampleSize != 0 {
		m.config.Pipeline.SampleSize = src.Pipeline.SampleSize
	}
	if src.Pipeline.SchemaPath != "" {
		m.config.Pipeline.SchemaPath = src.Pipeline.SchemaPath
	}
	if src.Pipeline.Deduplicate {
		m.config.Pipeline.Deduplicate = true
	}

	if src.Sink.Provider != "" {
		m.config.Sink.Provider = src.Sink.Provider
	}
	if src.Sink.Path != "" {
		m.config.Sink.Path = src.Sink.Path
	}
	if src.Sink.Table != "" {
		m.config.Sink.Table = src.Sink.Table
	}
	if src.Sink.BatchSize != 0 {
		m.config.Sink.BatchSize = src.Sink.BatchSize
	}
	if src.Sink.S3.Bucket != "" {
		m.config.Sink.S3 = src.Sink.S3
	}
	if src.Sink.Redis.Address != "" {
		m.config.Sink.Redis = src.Sink.Redis
	}

	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.SamplingRatio != 0 {
		m.config.Telemetry.SamplingRatio = src.Telemetry.SamplingRatio
	}

	if src.Watch.Dir != "" {
		m.config.Watch.Dir = src.Watch.Dir
	}
	if src.Watch.Debounce != 0 {
		m.config.Watch.Debounce = src.Watch.Debounce
	}
	if src.Watch.Workers != 0 {
		m.config.Watch.Workers = src.Watch.Workers
	}
}

// loadEnv applies environment variable overrides.
func (m *Manager) loadEnv() {
	if v := os.Getenv("TABLEFLOW_SINK"); v != "" {
		m.config.Sink.Provider = v
	}
	if v := os.Getenv("TABLEFLOW_SCHEMA"); v != "" {
		m.config.Pipeline.SchemaPath = v
	}
	if v := os.Getenv("TABLEFLOW_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
	if v := os.Getenv("TABLEFLOW_SAMPLE_SIZE"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			m.config.Pipeline.SampleSize = n
		}
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Paths returns the config files that were actually loaded.
func (m *Manager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".tableflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the process-wide configuration manager. A failed load is
// reported and the manager falls back to defaults.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		if err := globalManager.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		}
	})
	return globalManager
}
