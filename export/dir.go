package export

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/milk9111/ldtkimport/assets"
	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/config"
	"go.uber.org/zap"
)

// Dir is a super simple export: one subdirectory per level holding the
// composite image, the data file, layer images and grid-value files.
type Dir struct {
	fsys fs.FS
	root string
	cfg  config.ExportConfig
	log  *zap.Logger
}

// Open checks that path is a directory and serves it from disk.
func Open(path string, cfg config.ExportConfig) (*Dir, error) {
	if path == "" {
		return nil, common.Errorf(common.CodeInvalidPath, "open export", path, "empty path")
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewError(common.CodeFileNotFound, "open export", path, err)
	}
	if err != nil {
		return nil, common.NewError(common.CodeInvalidPath, "open export", path, err)
	}
	if !info.IsDir() {
		return nil, common.Errorf(common.CodeInvalidExportStructure, "open export", path, "not a directory")
	}
	d := New(os.DirFS(path), cfg)
	d.root = path
	return d, nil
}

// New serves an export from any file system rooted at the project directory.
func New(fsys fs.FS, cfg config.ExportConfig) *Dir {
	return &Dir{fsys: fsys, root: ".", cfg: cfg, log: zap.NewNop()}
}

func (d *Dir) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	d.log = log
}

// Root is the directory the export was opened from.
func (d *Dir) Root() string {
	return d.root
}

// Discover lists the level directories in name order. Every directory
// must hold the composite and the data file; files at the root and hidden
// directories are ignored.
func (d *Dir) Discover() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil, common.NewError(common.CodeInvalidExportStructure, "discover", d.root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		for _, required := range []string{d.cfg.CompositeFile, d.cfg.MetadataFile} {
			if !d.exists(path.Join(e.Name(), required)) {
				return nil, common.Errorf(common.CodeInvalidExportStructure, "discover", e.Name(), "missing %s", required)
			}
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, common.Errorf(common.CodeInvalidExportStructure, "discover", d.root, "no level directories")
	}
	d.log.Debug("export discovered", zap.String("root", d.root), zap.Int("levels", len(names)))
	return names, nil
}

// ListLevel returns the file names inside a level directory.
func (d *Dir) ListLevel(level string) ([]string, error) {
	if err := checkName(level); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(d.fsys, level)
	if err != nil {
		return nil, fileError("list level", level, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// ReadFile reads one file of a level.
func (d *Dir) ReadFile(level, file string) ([]byte, error) {
	if err := checkName(level); err != nil {
		return nil, err
	}
	if err := checkName(file); err != nil {
		return nil, err
	}
	p := path.Join(level, file)
	data, err := fs.ReadFile(d.fsys, p)
	if err != nil {
		return nil, fileError("read", p, err)
	}
	return data, nil
}

// ReadImage decodes an image file of a level.
func (d *Dir) ReadImage(level, file string) (assets.Image, error) {
	data, err := d.ReadFile(level, file)
	if err != nil {
		return assets.Image{}, err
	}
	return assets.Decode(path.Join(level, file), data)
}

// ReadGrid parses a grid-value file of a level into dst.
func (d *Dir) ReadGrid(level, file string, width, height int, dst []int32) error {
	data, err := d.ReadFile(level, file)
	if err != nil {
		return err
	}
	if err := ParseCSV(data, width, height, dst); err != nil {
		var e *common.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = path.Join(level, file)
		}
		return err
	}
	return nil
}

func (d *Dir) exists(name string) bool {
	_, err := fs.Stat(d.fsys, name)
	return err == nil
}

func (d *Dir) size(name string) uint32 {
	info, err := fs.Stat(d.fsys, name)
	if err != nil {
		return 0
	}
	return uint32(min(info.Size(), int64(^uint32(0))))
}

// checkName accepts a single path element.
func checkName(name string) error {
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name) {
		return common.Errorf(common.CodeInvalidPath, "check name", name, "not a plain file or directory name")
	}
	return nil
}

func fileError(op, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return common.NewError(common.CodeFileNotFound, op, name, err)
	}
	return common.NewError(common.CodeInvalidPath, op, name, err)
}
