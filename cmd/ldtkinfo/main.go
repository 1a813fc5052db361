package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/config"
	"github.com/milk9111/ldtkimport/importer"
	"github.com/milk9111/ldtkimport/levels"
	"github.com/milk9111/ldtkimport/logging"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	levelNames := flag.String("levels", "", "comma separated levels to load (default: all)")
	grids := flag.Bool("grids", false, "print grid cells")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ldtkinfo [flags] <export dir>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	log := logging.Must(cfg.Log)
	defer log.Sync()

	if err := run(os.Stdout, cfg, log, flag.Arg(0), *levelNames, *grids); err != nil {
		log.Error("ldtkinfo failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(w io.Writer, cfg config.Config, log *zap.Logger, root, only string, grids bool) error {
	imp := importer.New(cfg, importer.WithLogger(log))
	if err := imp.LoadProject(root); err != nil {
		return err
	}

	info := imp.ProjectInfo()
	fmt.Fprintf(w, "project %s: %d levels\n", info.Name, info.LevelCount)

	names := imp.AvailableLevels()
	if only != "" {
		names = strings.Split(only, ",")
	}
	for _, name := range names {
		lvl, err := imp.LoadLevel(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if err := describe(w, lvl, grids); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\ncache: %d levels, %s\n", imp.CachedCount(), imp.MemoryStats())
	return nil
}

func describe(w io.Writer, lvl *levels.Level, grids bool) error {
	size := lvl.Size()
	world := lvl.WorldPosition()
	fmt.Fprintf(w, "\n%s  %dx%d px at (%d,%d)  bg #%06x\n", lvl.Name(), size.Width, size.Height, world.X, world.Y, lvl.Background())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  layer\tkind\tz\tfile\tbytes")
	for i := 0; i < lvl.LayerCount(); i++ {
		ly, _ := lvl.Layer(i)
		meta := ly.Meta()
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%d\n", ly.Name(), meta.Kind, meta.ZIndex, meta.File, meta.FileSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for i := 0; i < lvl.IntGridCount(); i++ {
		g, err := lvl.GridAt(i)
		if err != nil {
			return err
		}
		var cells [common.Capacity]common.Point
		n, truncated := g.Positions(0, cells[:])
		empty := fmt.Sprint(n)
		if truncated {
			empty += "+"
		}
		fmt.Fprintf(w, "  grid %s: %dx%d cells of %dpx, %s empty\n", g.Name(), g.Width(), g.Height(), g.CellSize(), empty)
		if grids {
			printGrid(w, &g)
		}
	}

	for id := 0; id < lvl.EntityTypeCount(); id++ {
		name, _ := lvl.EntityTypeName(uint16(id))
		var buf [common.Capacity]levels.Entity
		n, _ := lvl.EntitiesOfType(uint16(id), buf[:])
		fmt.Fprintf(w, "  entity %s x%d\n", name, n)
		for _, e := range buf[:n] {
			b := e.Bounds()
			fmt.Fprintf(w, "    #%d at (%d,%d) %dx%d", e.InstanceID(), b.X, b.Y, b.Width, b.Height)
			fields := e.Fields()
			fields.Each(func(_ int, p common.FieldPair) bool {
				fmt.Fprintf(w, " %s=%s", p.Key, p.Value)
				return true
			})
			fmt.Fprintln(w)
		}
	}

	fields := lvl.Fields()
	fields.Each(func(_ int, p common.FieldPair) bool {
		fmt.Fprintf(w, "  field %s = %s\n", p.Key, p.Value)
		return true
	})
	fmt.Fprintf(w, "  memory: %s\n", lvl.MemoryBreakdown())
	return nil
}

func printGrid(w io.Writer, g *levels.IntGrid) {
	for y := 0; y < int(g.Height()); y++ {
		var sb strings.Builder
		sb.WriteString("    ")
		for x := 0; x < int(g.Width()); x++ {
			v := g.Value(x, y)
			if v == 0 {
				sb.WriteByte('.')
			} else {
				fmt.Fprintf(&sb, "%d", v%10)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}
