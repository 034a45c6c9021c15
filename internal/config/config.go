package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aliyun/tablestore-timeline-sub000/internal/codec"
	pebblestore "github.com/aliyun/tablestore-timeline-sub000/internal/storage/pebble"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the Pebble directory. Empty selects DefaultDataDir().
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Table is the table holding every timeline.
	Table string        `json:"table" yaml:"table"`
	Store StoreConfig   `json:"store" yaml:"store"`
	Codec codec.Config  `json:"codec" yaml:"codec"`
	Write WriterConfig  `json:"writer" yaml:"writer"`
	Log   logpkg.Config `json:"log" yaml:"log"`
}

// StoreConfig tunes durability.
type StoreConfig struct {
	// Fsync is always|interval|never.
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// SlowCommitMs logs batch commits that take at least this long. Zero
	// disables the log.
	SlowCommitMs int `json:"slowCommitMs" yaml:"slowCommitMs"`
}

// WriterConfig tunes the async batch writer.
type WriterConfig struct {
	BatchSize       int `json:"batchSize" yaml:"batchSize"`
	FlushIntervalMs int `json:"flushIntervalMs" yaml:"flushIntervalMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Table: "timeline",
		Store: StoreConfig{Fsync: "interval", FsyncIntervalMs: 5, SlowCommitMs: 100},
		Codec: codec.DefaultConfig(),
		Write: WriterConfig{BatchSize: 100, FlushIntervalMs: 10},
		Log:   logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("config: table must not be empty")
	}
	if _, err := pebblestore.ParseFsyncMode(c.Store.Fsync); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Store.SlowCommitMs < 0 {
		return fmt.Errorf("config: store slowCommitMs must not be negative")
	}
	if c.Write.BatchSize < 0 || c.Write.FlushIntervalMs < 0 {
		return fmt.Errorf("config: writer batchSize and flushIntervalMs must not be negative")
	}
	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CodecConfig returns the codec section.
func (c Config) CodecConfig() codec.Config { return c.Codec }

// StoreOptions converts the store section into Pebble options for dataDir.
func (c Config) StoreOptions(dataDir string) (pebblestore.Options, error) {
	mode, err := pebblestore.ParseFsyncMode(c.Store.Fsync)
	if err != nil {
		return pebblestore.Options{}, err
	}
	return pebblestore.Options{
		DataDir:       dataDir,
		Fsync:         mode,
		FsyncInterval: time.Duration(c.Store.FsyncIntervalMs) * time.Millisecond,
	}, nil
}

// SlowCommit returns the slow commit threshold, 0 when disabled.
func (c Config) SlowCommit() time.Duration {
	return time.Duration(c.Store.SlowCommitMs) * time.Millisecond
}

// FlushInterval returns the writer flush interval.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.Write.FlushIntervalMs) * time.Millisecond
}
