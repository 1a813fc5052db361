package config

import (
	"fmt"
	"os"
	"time"

	"github.com/milk9111/ldtkimport/common"
	"gopkg.in/yaml.v3"
)

// Eviction selects what the level cache does when it is full.
type Eviction string

const (
	// EvictNone returns the new level without caching it.
	EvictNone Eviction = "none"
	// EvictLRU drops the least recently used level to make room.
	EvictLRU Eviction = "lru"
)

type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
	Watch  WatchConfig  `yaml:"watch"`
}

// CacheConfig bounds the importer's level cache. MemoryBudget is checked
// when a level is inserted and, with lru eviction, on every later load. Under
// eviction none, lazily read layer images and grids can push a cached level
// past the budget until it is unloaded. A level evicted while a caller still
// holds it reloads itself on the next query and is not counted by the
// importer.
type CacheConfig struct {
	Capacity     int      `yaml:"capacity"`
	Eviction     Eviction `yaml:"eviction"`
	MemoryBudget int      `yaml:"memory_budget"` // bytes, 0 = unlimited
}

// ExportConfig names the files of a super simple export.
type ExportConfig struct {
	CompositeFile string `yaml:"composite_file"`
	MetadataFile  string `yaml:"metadata_file"`
	GridExtension string `yaml:"grid_extension"`
	GridCellSize  int    `yaml:"grid_cell_size"` // pixels
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file. Missing keys take their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = common.Capacity
	}
	if c.Cache.Capacity > common.Capacity {
		c.Cache.Capacity = common.Capacity
	}
	if c.Cache.Eviction == "" {
		c.Cache.Eviction = EvictNone
	}
	if c.Export.CompositeFile == "" {
		c.Export.CompositeFile = "_composite.png"
	}
	if c.Export.MetadataFile == "" {
		c.Export.MetadataFile = "data.json"
	}
	if c.Export.GridExtension == "" {
		c.Export.GridExtension = ".csv"
	}
	if c.Export.GridCellSize == 0 {
		c.Export.GridCellSize = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 100 * time.Millisecond
	}
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("config: cache.capacity %d must be at least 1", c.Cache.Capacity)
	}
	switch c.Cache.Eviction {
	case EvictNone, EvictLRU:
	default:
		return fmt.Errorf("config: cache.eviction %q must be %q or %q", c.Cache.Eviction, EvictNone, EvictLRU)
	}
	if c.Cache.MemoryBudget < 0 {
		return fmt.Errorf("config: cache.memory_budget %d must not be negative", c.Cache.MemoryBudget)
	}
	if c.Export.GridCellSize < 1 {
		return fmt.Errorf("config: export.grid_cell_size %d must be positive", c.Export.GridCellSize)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format %q must be console or json", c.Log.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("config: watch.debounce %s must not be negative", c.Watch.Debounce)
	}
	return nil
}
