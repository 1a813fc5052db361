package main

import (
	"math"

	"github.com/milk9111/ldtkimport/common"
)

// camera centers the view on a level point and eases toward its target.
type camera struct {
	posX float64
	posY float64

	screenW int
	screenH int
	zoom    float64

	// smoothing factor (0..1), higher follows faster
	smooth float64
	// level size in pixels, 0 means unbounded
	worldW float64
	worldH float64
}

func newCamera(zoom float64) *camera {
	return &camera{zoom: max(zoom, 1), smooth: 0.15}
}

func (c *camera) setScreenSize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.screenW = w
	c.screenH = h
}

func (c *camera) setWorld(size common.Size) {
	c.worldW = float64(size.Width)
	c.worldH = float64(size.Height)
}

// update moves the camera toward the target. Call it from the fixed-rate
// Update loop.
func (c *camera) update(targetX, targetY float64) {
	c.posX = common.Lerp(c.posX, targetX, c.smooth)
	c.posY = common.Lerp(c.posY, targetY, c.smooth)
	c.constrain()
}

// snapTo places the camera without easing, e.g. after switching levels.
func (c *camera) snapTo(x, y float64) {
	c.posX = x
	c.posY = y
	c.constrain()
}

// constrain snaps to whole screen pixels and keeps the view inside the
// level, centering on it when the level is smaller than the view.
func (c *camera) constrain() {
	c.posX = math.Round(c.posX*c.zoom) / c.zoom
	c.posY = math.Round(c.posY*c.zoom) / c.zoom
	c.posX, c.posY = c.clamp(c.posX, c.posY)
}

// clamp limits a center point to positions that keep the view inside the
// level.
func (c *camera) clamp(x, y float64) (float64, float64) {
	if c.worldW > 0 {
		x = clampAxis(x, float64(c.screenW)/c.zoom/2, c.worldW)
	}
	if c.worldH > 0 {
		y = clampAxis(y, float64(c.screenH)/c.zoom/2, c.worldH)
	}
	return x, y
}

func clampAxis(pos, half, world float64) float64 {
	lo, hi := half, world-half
	if hi < lo {
		return world / 2
	}
	return min(max(pos, lo), hi)
}

// viewTopLeft is the level point drawn at the screen origin.
func (c *camera) viewTopLeft() (float64, float64) {
	return c.posX - float64(c.screenW)/c.zoom/2, c.posY - float64(c.screenH)/c.zoom/2
}

// toScreen maps a level rectangle to screen space.
func (c *camera) toScreen(r common.Rect) (x, y, w, h float32) {
	left, top := c.viewTopLeft()
	return float32((float64(r.X) - left) * c.zoom),
		float32((float64(r.Y) - top) * c.zoom),
		float32(float64(r.Width) * c.zoom),
		float32(float64(r.Height) * c.zoom)
}
