package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/importer"
	"github.com/milk9111/ldtkimport/levels"
	"github.com/milk9111/ldtkimport/physics"
	"github.com/milk9111/ldtkimport/watch"
	"go.uber.org/zap"
)

const panSpeed = 4

type viewer struct {
	imp     *importer.Importer
	watcher *watch.Watcher
	log     *zap.Logger
	names   []string
	current int

	level     *levels.Level
	composite *ebiten.Image
	world     *physics.World

	cam            *camera
	targetX        float64
	targetY        float64
	showEntities   bool
	showGrid       bool
	showCollisions bool
	status         string
}

func newViewer(imp *importer.Importer, w *watch.Watcher, log *zap.Logger, first string, scale float64) (*viewer, error) {
	v := &viewer{
		imp:          imp,
		watcher:      w,
		log:          log,
		names:        imp.AvailableLevels(),
		cam:          newCamera(scale),
		showEntities: true,
	}
	if first != "" {
		v.current = indexOf(v.names, first)
		if v.current < 0 {
			return nil, fmt.Errorf("unknown level %q", first)
		}
	}
	if err := v.open(); err != nil {
		return nil, err
	}
	return v, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// step moves the selection by delta, wrapping around.
func step(current, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((current+delta)%n + n) % n
}

func (v *viewer) open() error {
	lvl, err := v.imp.LoadLevel(v.names[v.current])
	if err != nil {
		return err
	}
	v.level = lvl
	v.composite = nil
	if img, ok := lvl.CompositeImage(); ok {
		v.composite = ebiten.NewImageFromImage(img.NRGBA())
	}
	v.world, err = physics.Build(lvl, physics.Options{Bounds: true, Entities: true})
	if err != nil {
		v.log.Warn("collision shapes", zap.String("level", lvl.Name()), zap.Error(err))
		v.world = nil
	}
	v.cam.setWorld(lvl.Size())
	v.targetX, v.targetY = 0, 0
	v.cam.snapTo(v.targetX, v.targetY)
	v.status = ""
	return nil
}

func (v *viewer) Update() error {
	v.drainWatcher()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeyN):
		v.switchTo(step(v.current, 1, len(v.names)))
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp), inpututil.IsKeyJustPressed(ebiten.KeyP):
		v.switchTo(step(v.current, -1, len(v.names)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		v.showEntities = !v.showEntities
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		v.showGrid = !v.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.showCollisions = !v.showCollisions
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyU) {
		v.imp.ClearCache()
		v.reopen()
	}

	if ebiten.IsKeyPressed(ebiten.KeyLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		v.targetX -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		v.targetX += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		v.targetY -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		v.targetY += panSpeed
	}
	v.targetX, v.targetY = v.cam.clamp(v.targetX, v.targetY)
	v.cam.update(v.targetX, v.targetY)
	return nil
}

func (v *viewer) switchTo(i int) {
	prev := v.current
	v.current = i
	if err := v.open(); err != nil {
		v.log.Warn("open level", zap.String("level", v.names[i]), zap.Error(err))
		v.current = prev
		v.status = err.Error()
	}
}

func (v *viewer) reopen() {
	if err := v.open(); err != nil {
		v.log.Warn("reopen level", zap.Error(err))
		v.status = err.Error()
	}
}

// drainWatcher drops levels changed on disk so the next access rereads them.
func (v *viewer) drainWatcher() {
	if v.watcher == nil {
		return
	}
	names, closed := drain(v.watcher.Events, v.watcher.Errors, v.log)
	if closed {
		v.watcher = nil
	}
	for _, name := range names {
		if !v.imp.HasLevel(name) {
			continue
		}
		v.imp.UnloadLevel(name)
		v.log.Info("level changed on disk", zap.String("level", name))
		if name == v.names[v.current] {
			v.reopen()
		}
	}
}

// drain collects the pending change notifications without blocking. It
// returns closed as soon as either channel is closed.
func drain(events <-chan string, errs <-chan error, log *zap.Logger) (names []string, closed bool) {
	for {
		select {
		case name, ok := <-events:
			if !ok {
				return names, true
			}
			names = append(names, name)
		case err, ok := <-errs:
			if !ok {
				return names, true
			}
			log.Warn("watch", zap.Error(err))
		default:
			return names, false
		}
	}
}

func (v *viewer) Draw(screen *ebiten.Image) {
	bg := v.level.Background()
	screen.Fill(color.RGBA{R: uint8(bg >> 16), G: uint8(bg >> 8), B: uint8(bg), A: 0xff})

	if v.composite != nil {
		left, top := v.cam.viewTopLeft()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-left, -top)
		op.GeoM.Scale(v.cam.zoom, v.cam.zoom)
		op.Filter = ebiten.FilterNearest
		screen.DrawImage(v.composite, op)
	}

	if v.showGrid {
		v.drawGrids(screen)
	}
	if v.showCollisions && v.world != nil {
		v.drawCollisions(screen)
	}
	if v.showEntities {
		v.drawEntities(screen)
	}

	stats := v.imp.MemoryStats()
	msg := fmt.Sprintf("%s (%d/%d)  cached %d  %s\nN/P level  E entities  G grid  C collisions  U clear cache",
		v.level.Name(), v.current+1, len(v.names), v.imp.CachedCount(), stats)
	if v.status != "" {
		msg += "\n" + v.status
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (v *viewer) drawEntities(screen *ebiten.Image) {
	var buf [common.Capacity]levels.Entity
	n, _ := v.level.AllEntities(buf[:])
	for i := range buf[:n] {
		e := &buf[i]
		c := e.Color()
		clr := color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
		x, y, w, h := v.cam.toScreen(e.Bounds())
		vector.StrokeRect(screen, x, y, w, h, 1.0, clr, false)
		if name, ok := v.level.EntityTypeName(e.TypeID()); ok {
			ebitenutil.DebugPrintAt(screen, name.String(), int(x), int(y+h))
		}
	}
}

func (v *viewer) drawGrids(screen *ebiten.Image) {
	for i := 0; i < v.level.IntGridCount(); i++ {
		g, err := v.level.GridAt(i)
		if err != nil {
			continue
		}
		for y := 0; y < int(g.Height()); y++ {
			for x := 0; x < int(g.Width()); x++ {
				if g.IsEmpty(x, y) {
					continue
				}
				cx, cy, cw, ch := v.cam.toScreen(g.CellBounds(int32(x), int32(y)))
				vector.FillRect(screen, cx, cy, cw, ch, color.RGBA{R: 255, G: 255, A: 48}, false)
			}
		}
	}
}

func (v *viewer) drawCollisions(screen *ebiten.Image) {
	var rects [common.Capacity * common.Capacity]common.Rect
	for i := 0; i < v.level.IntGridCount(); i++ {
		g, err := v.level.GridAt(i)
		if err != nil {
			continue
		}
		n, _ := g.MergedRects(levels.NonZero, rects[:])
		for _, r := range rects[:n] {
			x, y, w, h := v.cam.toScreen(r)
			vector.StrokeRect(screen, x, y, w, h, 1.0, color.RGBA{R: 255, A: 200}, false)
		}
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.cam.setScreenSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
