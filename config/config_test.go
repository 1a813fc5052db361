package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	want := Config{
		Cache:  CacheConfig{Capacity: 32, Eviction: EvictNone},
		Export: ExportConfig{CompositeFile: "_composite.png", MetadataFile: "data.json", GridExtension: ".csv", GridCellSize: 16},
		Log:    LogConfig{Level: "info", Format: "console"},
		Watch:  WatchConfig{Debounce: 100 * time.Millisecond},
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Fatalf("default config mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, Default().Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
cache:
  capacity: 2
  eviction: lru
  memory_budget: 1048576
export:
  grid_cell_size: 8
log:
  level: debug
  format: json
watch:
  debounce: 250ms
`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Cache.Capacity)
	assert.Equal(t, EvictLRU, cfg.Cache.Eviction)
	assert.Equal(t, 1<<20, cfg.Cache.MemoryBudget)
	assert.Equal(t, 8, cfg.Export.GridCellSize)
	assert.Equal(t, "data.json", cfg.Export.MetadataFile, "unset keys take defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad_eviction", "cache:\n  eviction: fifo\n"},
		{"negative_capacity", "cache:\n  capacity: -1\n"},
		{"negative_budget", "cache:\n  memory_budget: -5\n"},
		{"negative_cell_size", "export:\n  grid_cell_size: -16\n"},
		{"bad_format", "log:\n  format: xml\n"},
		{"not_yaml", "cache: [\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseClampsCapacity(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  capacity: 500\n"))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Cache.Capacity)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldtk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Cache.Capacity)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
