package importer

import (
	"io/fs"
	"path/filepath"

	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/config"
	"github.com/milk9111/ldtkimport/export"
	"github.com/milk9111/ldtkimport/levels"
	"go.uber.org/zap"
)

// ProjectInfo describes a discovered export.
type ProjectInfo struct {
	Name       common.FixedString
	Levels     common.Seq[common.FixedString]
	LevelCount int
}

type entry struct {
	level *levels.Level
	hash  uint64
	used  uint64
}

// Importer owns a discovered project and a bounded cache of loaded levels.
// It is not safe for concurrent use.
type Importer struct {
	cfg  config.Config
	log  *zap.Logger
	fsys fs.FS

	dir    *export.Dir
	info   ProjectInfo
	loaded bool

	cache common.Seq[entry]
	clock uint64
}

type Option func(*Importer)

func WithLogger(log *zap.Logger) Option {
	return func(i *Importer) {
		if log != nil {
			i.log = log
		}
	}
}

// WithFS serves the project from fsys instead of the path given to
// LoadProject.
func WithFS(fsys fs.FS) Option {
	return func(i *Importer) {
		i.fsys = fsys
	}
}

func New(cfg config.Config, opts ...Option) *Importer {
	imp := &Importer{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.cfg.Cache.Capacity < 1 || imp.cfg.Cache.Capacity > common.Capacity {
		imp.cfg.Cache.Capacity = common.Capacity
	}
	return imp
}

// LoadProject discovers the levels of an export without loading any of
// them. On failure the importer keeps its previous project.
func (i *Importer) LoadProject(path string) error {
	var (
		dir *export.Dir
		err error
	)
	if i.fsys != nil {
		dir = export.New(i.fsys, i.cfg.Export)
	} else if dir, err = export.Open(path, i.cfg.Export); err != nil {
		return err
	}
	dir.SetLogger(i.log)

	names, err := dir.Discover()
	if err != nil {
		return err
	}
	if len(names) > common.Capacity {
		return common.Errorf(common.CodeMemory, "load project", path, "%d levels exceeds limit of %d", len(names), common.Capacity)
	}

	var info ProjectInfo
	if info.Name, err = common.NewFixedString(projectName(path)); err != nil {
		return err
	}
	for _, n := range names {
		id, err := common.NewFixedString(n)
		if err != nil {
			return err
		}
		info.Levels.Append(id)
	}
	info.LevelCount = info.Levels.Len()

	i.ClearCache()
	i.dir = dir
	i.info = info
	i.loaded = true
	i.log.Info("project loaded", zap.String("project", info.Name.String()), zap.Int("levels", info.LevelCount))
	return nil
}

func projectName(path string) string {
	if path == "" {
		return "project"
	}
	return filepath.Base(filepath.Clean(path))
}

func (i *Importer) IsLoaded() bool {
	return i.loaded
}

func (i *Importer) ProjectInfo() ProjectInfo {
	return i.info
}

// Root is the directory the project was read from.
func (i *Importer) Root() string {
	if i.dir == nil {
		return ""
	}
	return i.dir.Root()
}

// AvailableLevels lists discovered level names in name order.
func (i *Importer) AvailableLevels() []string {
	out := make([]string, 0, i.info.Levels.Len())
	i.info.Levels.Each(func(_ int, n common.FixedString) bool {
		out = append(out, n.String())
		return true
	})
	return out
}

// HasLevel reports whether name was discovered, cached or not.
func (i *Importer) HasLevel(name string) bool {
	found := false
	i.info.Levels.Each(func(_ int, n common.FixedString) bool {
		found = n.EqualString(name)
		return !found
	})
	return found
}

func (i *Importer) IsCached(name string) bool {
	return i.cacheIndex(name) >= 0
}

func (i *Importer) CachedCount() int {
	return i.cache.Len()
}

// CachedLevels lists resident level names in insertion order.
func (i *Importer) CachedLevels() []string {
	out := make([]string, 0, i.cache.Len())
	i.cache.Each(func(_ int, e entry) bool {
		out = append(out, e.level.Name())
		return true
	})
	return out
}

// LoadLevel returns a cached level or loads it. A loaded level is cached
// when there is room; with lru eviction room is made by dropping the least
// recently used levels, otherwise the level is returned uncached. A level
// larger than the whole memory budget is always returned uncached. A failed
// load leaves the cache untouched.
//
// Cached levels grow when their layer images or grids are read lazily. With
// lru eviction every call re-checks the budget and drops other levels until
// the resident set fits again.
func (i *Importer) LoadLevel(name string) (*levels.Level, error) {
	if !i.loaded {
		return nil, common.Errorf(common.CodeInvalidExportStructure, "load level", name, "no project loaded")
	}
	if idx := i.cacheIndex(name); idx >= 0 {
		e := i.cache.At(idx)
		e.used = i.tick()
		i.log.Debug("cache hit", zap.String("level", name))
		i.trim(e.level)
		return e.level, nil
	}
	if !i.HasLevel(name) {
		return nil, common.Errorf(common.CodeFileNotFound, "load level", name, "unknown level")
	}

	id, err := common.NewFixedString(name)
	if err != nil {
		return nil, err
	}
	lvl := levels.NewLevel(id, common.Size{}, common.Point{}, 0)
	lvl.SetLogger(i.log)
	if err := lvl.Load(i.dir); err != nil {
		i.log.Debug("level load failed", zap.String("level", name), zap.Error(err))
		return nil, err
	}
	i.log.Debug("cache miss", zap.String("level", name), zap.Int("bytes", lvl.MemoryUsage()))

	i.insert(lvl)
	return lvl, nil
}

func (i *Importer) insert(lvl *levels.Level) {
	if budget := i.cfg.Cache.MemoryBudget; budget > 0 && lvl.MemoryUsage() > budget {
		i.log.Debug("level returned uncached, larger than budget",
			zap.String("level", lvl.Name()),
			zap.Int("bytes", lvl.MemoryUsage()),
			zap.Int("budget", budget),
		)
		return
	}
	if i.cfg.Cache.Eviction == config.EvictLRU {
		for !i.fits(lvl) && i.cache.Len() > 0 {
			i.evictOldest(!i.overBudget(lvl))
		}
	}
	if !i.fits(lvl) {
		i.log.Debug("level returned uncached",
			zap.String("level", lvl.Name()),
			zap.Int("cached", i.cache.Len()),
			zap.Int("bytes", lvl.MemoryUsage()),
		)
		return
	}
	i.cache.Append(entry{level: lvl, hash: lvl.Identifier().Hash(), used: i.tick()})
}

func (i *Importer) fits(lvl *levels.Level) bool {
	return i.cache.Len() < i.cfg.Cache.Capacity && !i.overBudget(lvl)
}

// trim evicts least recently used levels other than keep while the resident
// set is over budget. It does nothing without lru eviction.
func (i *Importer) trim(keep *levels.Level) {
	budget := i.cfg.Cache.MemoryBudget
	if budget <= 0 || i.cfg.Cache.Eviction != config.EvictLRU {
		return
	}
	for i.MemoryStats().Total > budget {
		idx := i.oldest(keep)
		if idx < 0 {
			return
		}
		i.log.Warn("level evicted over memory budget",
			zap.String("level", i.cache.At(idx).level.Name()),
			zap.Int("budget", budget),
		)
		i.remove(idx)
	}
}

func (i *Importer) overBudget(lvl *levels.Level) bool {
	budget := i.cfg.Cache.MemoryBudget
	return budget > 0 && i.MemoryStats().Total+lvl.MemoryUsage() > budget
}

// evictOldest drops the least recently used level. full tells whether the
// slot count or the memory budget forced it.
func (i *Importer) evictOldest(full bool) {
	oldest := i.oldest(nil)
	victim := i.cache.At(oldest).level
	if full {
		i.log.Debug("level evicted", zap.String("level", victim.Name()))
	} else {
		i.log.Warn("level evicted over memory budget",
			zap.String("level", victim.Name()),
			zap.Int("budget", i.cfg.Cache.MemoryBudget),
		)
	}
	i.remove(oldest)
}

// oldest is the index of the least recently used level other than skip, or
// -1 when there is none.
func (i *Importer) oldest(skip *levels.Level) int {
	found := -1
	i.cache.Each(func(idx int, e entry) bool {
		if e.level != skip && (found < 0 || e.used < i.cache.At(found).used) {
			found = idx
		}
		return true
	})
	return found
}

// remove clears the level at idx and rebuilds the cache without it.
func (i *Importer) remove(idx int) {
	i.cache.At(idx).level.ClearCache()
	var kept common.Seq[entry]
	i.cache.Each(func(j int, e entry) bool {
		if j != idx {
			kept.Append(e)
		}
		return true
	})
	i.cache = kept
}

// UnloadLevel clears a cached level and removes it from the cache.
func (i *Importer) UnloadLevel(name string) bool {
	idx := i.cacheIndex(name)
	if idx < 0 {
		return false
	}
	i.remove(idx)
	i.log.Debug("level unloaded", zap.String("level", name))
	return true
}

// PreloadLevels loads names in order and stops at the first failure.
// Levels loaded before the failure stay loaded.
func (i *Importer) PreloadLevels(names ...string) error {
	for _, n := range names {
		if _, err := i.LoadLevel(n); err != nil {
			return err
		}
	}
	return nil
}

// ClearCache clears and drops every cached level.
func (i *Importer) ClearCache() {
	i.cache.Each(func(_ int, e entry) bool {
		e.level.ClearCache()
		return true
	})
	i.cache.Clear()
}

// MemoryStats sums the resident payloads of the cached levels.
func (i *Importer) MemoryStats() levels.MemoryStats {
	var total levels.MemoryStats
	i.cache.Each(func(_ int, e entry) bool {
		total = total.Add(e.level.MemoryBreakdown())
		return true
	})
	return total
}

func (i *Importer) cacheIndex(name string) int {
	h := common.HashString(name)
	found := -1
	i.cache.Each(func(idx int, e entry) bool {
		if e.hash == h && e.level.Identifier().EqualString(name) {
			found = idx
			return false
		}
		return true
	})
	return found
}

func (i *Importer) tick() uint64 {
	i.clock++
	return i.clock
}
