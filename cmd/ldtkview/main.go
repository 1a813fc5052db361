package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/ldtkimport/config"
	"github.com/milk9111/ldtkimport/importer"
	"github.com/milk9111/ldtkimport/logging"
	"github.com/milk9111/ldtkimport/watch"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	levelName := flag.String("level", "", "level to open first")
	scale := flag.Float64("scale", 2, "pixel scale")
	noWatch := flag.Bool("nowatch", false, "do not reload levels changed on disk")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ldtkview [flags] <export dir>")
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

	imp := importer.New(cfg, importer.WithLogger(log))
	if err := imp.LoadProject(flag.Arg(0)); err != nil {
		log.Fatal("load project", zap.Error(err))
	}

	var w *watch.Watcher
	if !*noWatch {
		var err error
		w, err = watch.New(imp.Root(), imp.AvailableLevels(), cfg.Watch.Debounce)
		if err != nil {
			log.Warn("watch disabled", zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	v, err := newViewer(imp, w, log, *levelName, *scale)
	if err != nil {
		log.Fatal("open level", zap.Error(err))
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(960, 640)
	ebiten.SetWindowTitle("ldtkview - " + imp.ProjectInfo().Name.String())

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal("run", zap.Error(err))
	}
}
