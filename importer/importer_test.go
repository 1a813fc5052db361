package importer

import (
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/config"
	"github.com/milk9111/ldtkimport/export/exporttest"
	"github.com/milk9111/ldtkimport/levels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newImporter(t *testing.T, fsys fstest.MapFS, mutate func(*config.Config)) *Importer {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	imp := New(cfg, WithFS(fsys), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, imp.LoadProject("game"))
	return imp
}

func TestLoadProject(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0", "Level_1", "Level_2"), nil)

	assert.True(t, imp.IsLoaded())
	info := imp.ProjectInfo()
	assert.Equal(t, "game", info.Name.String())
	assert.Equal(t, 3, info.LevelCount)
	assert.Equal(t, []string{"Level_0", "Level_1", "Level_2"}, imp.AvailableLevels())
	assert.True(t, imp.HasLevel("Level_1"))
	assert.False(t, imp.HasLevel("Level_9"))
	assert.Equal(t, 0, imp.CachedCount(), "discovery loads no level bodies")
	assert.Equal(t, levels.MemoryStats{}, imp.MemoryStats())
}

func TestLoadProjectFailures(t *testing.T) {
	t.Run("bad_structure", func(t *testing.T) {
		imp := New(config.Default(), WithFS(fstest.MapFS{"a.txt": {Data: []byte("x")}}))
		err := imp.LoadProject("game")
		assert.ErrorIs(t, err, common.CodeInvalidExportStructure)
		assert.False(t, imp.IsLoaded())
	})

	t.Run("missing_path", func(t *testing.T) {
		imp := New(config.Default())
		err := imp.LoadProject(t.TempDir() + "/nope")
		assert.ErrorIs(t, err, common.CodeFileNotFound)
	})

	t.Run("empty_path", func(t *testing.T) {
		err := New(config.Default()).LoadProject("")
		assert.ErrorIs(t, err, common.CodeInvalidPath)
	})

	t.Run("too_many_levels", func(t *testing.T) {
		names := make([]string, common.Capacity+1)
		for i := range names {
			names[i] = string(rune('A'+i/26)) + string(rune('a'+i%26))
		}
		imp := New(config.Default(), WithFS(exporttest.Project(names...)))
		assert.ErrorIs(t, imp.LoadProject("game"), common.CodeMemory)
	})

	t.Run("level_before_project", func(t *testing.T) {
		_, err := New(config.Default()).LoadLevel("Level_0")
		assert.Error(t, err)
	})
}

func TestLoadLevelCacheFirst(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0"), nil)

	first, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)
	assert.True(t, first.IsLoaded())
	assert.True(t, imp.IsCached("Level_0"))

	second, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, imp.CachedCount())
	assert.Equal(t, first.MemoryBreakdown(), imp.MemoryStats())

	_, err = imp.LoadLevel("Level_9")
	assert.ErrorIs(t, err, common.CodeFileNotFound)
}

func TestCacheFullWithoutEviction(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0", "Level_1", "Level_2"), func(c *config.Config) {
		c.Cache.Capacity = 2
	})

	for _, n := range []string{"Level_0", "Level_1"} {
		_, err := imp.LoadLevel(n)
		require.NoError(t, err)
	}
	third, err := imp.LoadLevel("Level_2")
	require.NoError(t, err)

	assert.True(t, third.IsLoaded(), "the level is still usable")
	assert.False(t, imp.IsCached("Level_2"), "but it is returned uncached")
	assert.Equal(t, []string{"Level_0", "Level_1"}, imp.CachedLevels())
	assert.Equal(t, 2, imp.CachedCount())

	require.True(t, imp.UnloadLevel("Level_0"))
	_, err = imp.LoadLevel("Level_2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Level_1", "Level_2"}, imp.CachedLevels())
}

func TestCacheFullWithLRU(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0", "Level_1", "Level_2"), func(c *config.Config) {
		c.Cache.Capacity = 2
		c.Cache.Eviction = config.EvictLRU
	})

	first, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)
	_, err = imp.LoadLevel("Level_1")
	require.NoError(t, err)
	_, err = imp.LoadLevel("Level_2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Level_1", "Level_2"}, imp.CachedLevels())
	assert.False(t, first.IsLoaded(), "the evicted level is cleared")
	assert.Equal(t, 0, first.MemoryUsage())

	_, err = imp.LoadLevel("Level_1")
	require.NoError(t, err)
	_, err = imp.LoadLevel("Level_0")
	require.NoError(t, err)
	assert.Equal(t, []string{"Level_1", "Level_0"}, imp.CachedLevels(), "a cache hit refreshes recency")
}

func TestCacheMemoryBudget(t *testing.T) {
	sizer := newImporter(t, exporttest.Project("Level_0"), nil)
	lvl, err := sizer.LoadLevel("Level_0")
	require.NoError(t, err)
	one := lvl.MemoryUsage()

	t.Run("none", func(t *testing.T) {
		imp := newImporter(t, exporttest.Project("Level_0", "Level_1"), func(c *config.Config) {
			c.Cache.MemoryBudget = one + one/2
		})
		_, err := imp.LoadLevel("Level_0")
		require.NoError(t, err)
		_, err = imp.LoadLevel("Level_1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Level_0"}, imp.CachedLevels())
	})

	t.Run("lru", func(t *testing.T) {
		imp := newImporter(t, exporttest.Project("Level_0", "Level_1"), func(c *config.Config) {
			c.Cache.MemoryBudget = one + one/2
			c.Cache.Eviction = config.EvictLRU
		})
		_, err := imp.LoadLevel("Level_0")
		require.NoError(t, err)
		_, err = imp.LoadLevel("Level_1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Level_1"}, imp.CachedLevels())
		assert.LessOrEqual(t, imp.MemoryStats().Total, one+one/2)
	})

	t.Run("level_larger_than_budget", func(t *testing.T) {
		imp := newImporter(t, exporttest.Project("Level_0"), func(c *config.Config) {
			c.Cache.MemoryBudget = one / 2
			c.Cache.Eviction = config.EvictLRU
		})
		lvl, err := imp.LoadLevel("Level_0")
		require.NoError(t, err)
		assert.True(t, lvl.IsLoaded())
		assert.Equal(t, 0, imp.CachedCount())
	})

	t.Run("oversized_level_keeps_working_set", func(t *testing.T) {
		fsys := exporttest.Project("Level_0", "Level_1", "Level_2")
		fsys["Level_2/_composite.png"] = &fstest.MapFile{Data: exporttest.PNG(256, 256, color.NRGBA{A: 255})}
		imp := newImporter(t, fsys, func(c *config.Config) {
			c.Cache.MemoryBudget = 3 * one
			c.Cache.Eviction = config.EvictLRU
		})
		require.NoError(t, imp.PreloadLevels("Level_0", "Level_1"))
		before := imp.MemoryStats()

		big, err := imp.LoadLevel("Level_2")
		require.NoError(t, err)
		assert.Greater(t, big.MemoryUsage(), 3*one)
		assert.Equal(t, []string{"Level_0", "Level_1"}, imp.CachedLevels())
		assert.Equal(t, before, imp.MemoryStats())
	})

	t.Run("lazy_growth_is_trimmed", func(t *testing.T) {
		imp := newImporter(t, exporttest.Project("Level_0", "Level_1"), func(c *config.Config) {
			c.Cache.MemoryBudget = 2*one + 16
			c.Cache.Eviction = config.EvictLRU
		})
		require.NoError(t, imp.PreloadLevels("Level_0", "Level_1"))
		first, err := imp.LoadLevel("Level_0")
		require.NoError(t, err)
		_, err = first.LayerImage(0)
		require.NoError(t, err)
		assert.Greater(t, imp.MemoryStats().Total, 2*one+16)

		_, err = imp.LoadLevel("Level_0")
		require.NoError(t, err)
		assert.Equal(t, []string{"Level_0"}, imp.CachedLevels())
		assert.LessOrEqual(t, imp.MemoryStats().Total, 2*one+16)
	})
}

func TestFailedLoadLeavesCacheUntouched(t *testing.T) {
	fsys := exporttest.Project("Level_0", "Level_1")
	fsys["Level_1/_composite.png"] = &fstest.MapFile{Data: []byte("not a png")}
	imp := newImporter(t, fsys, nil)

	_, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)
	before := imp.MemoryStats()

	_, err = imp.LoadLevel("Level_1")
	assert.ErrorIs(t, err, common.CodeImageLoading)
	assert.Equal(t, []string{"Level_0"}, imp.CachedLevels())
	assert.Equal(t, before, imp.MemoryStats())
}

func TestPreloadLevelsFailFast(t *testing.T) {
	fsys := exporttest.Project("Level_0", "Level_1", "Level_2", "Level_3")
	fsys["Level_2/data.json"] = &fstest.MapFile{Data: []byte("{broken")}
	imp := newImporter(t, fsys, nil)

	err := imp.PreloadLevels("Level_0", "Level_1", "Level_2", "Level_3")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.CodeJSONParsing)

	assert.True(t, imp.IsCached("Level_0"))
	assert.True(t, imp.IsCached("Level_1"))
	assert.False(t, imp.IsCached("Level_2"))
	assert.False(t, imp.IsCached("Level_3"), "loading stops at the failure")
	assert.True(t, imp.HasLevel("Level_3"))
}

func TestUnloadAndClear(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0", "Level_1"), nil)
	require.NoError(t, imp.PreloadLevels("Level_0", "Level_1"))

	lvl0, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)
	_, err = lvl0.Grid("Collisions")
	require.NoError(t, err)

	stats := imp.MemoryStats()
	assert.Positive(t, stats.GridData)
	assert.Equal(t, stats.Images+stats.GridData+stats.Entities, stats.Total)

	assert.True(t, imp.UnloadLevel("Level_0"))
	assert.False(t, imp.UnloadLevel("Level_0"))
	assert.False(t, lvl0.IsLoaded())
	assert.Equal(t, []string{"Level_1"}, imp.CachedLevels())
	assert.True(t, imp.HasLevel("Level_0"), "unloading keeps discovery")

	imp.ClearCache()
	assert.Equal(t, 0, imp.CachedCount())
	assert.Equal(t, levels.MemoryStats{}, imp.MemoryStats())
}

func TestLevelContentThroughImporter(t *testing.T) {
	imp := newImporter(t, exporttest.Project("Level_0"), nil)
	lvl, err := imp.LoadLevel("Level_0")
	require.NoError(t, err)

	player, ok := lvl.EntityTypeID("Player")
	require.True(t, ok)
	buf := make([]levels.Entity, 4)
	n, truncated := lvl.EntitiesOfType(player, buf)
	require.Equal(t, 1, n)
	assert.False(t, truncated)
	assert.Equal(t, common.Rect{X: 0, Y: 0, Width: 16, Height: 16}, buf[0].Bounds())

	dark, ok := lvl.CustomField("dark")
	require.True(t, ok)
	v, _ := dark.AsBool()
	assert.True(t, v)
}
