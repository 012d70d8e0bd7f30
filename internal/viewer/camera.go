package viewer

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/poser"
)

const (
	minZoom = 0.2
	maxZoom = 5.0
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera maps world space (waist at the origin, Y down) onto the window.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = one pixel per world unit).
	Zoom float64
	// Width and Height are the viewport size in pixels.
	Width, Height float64

	scrollTween *scrollAnim
}

// NewCamera returns a camera centered on (x, y) at zoom 1.
func NewCamera(width, height, x, y float64) *Camera {
	return &Camera{X: x, Y: y, Zoom: 1, Width: width, Height: height}
}

// WorldToScreen converts a world position to screen pixels.
func (c *Camera) WorldToScreen(w poser.Vec2) (sx, sy float64) {
	sx = c.Width/2 + (w.X-c.X)*c.Zoom
	sy = c.Height/2 + (w.Y-c.Y)*c.Zoom
	return
}

// ScreenToWorld converts screen pixels to a world position.
func (c *Camera) ScreenToWorld(sx, sy float64) poser.Vec2 {
	return poser.Vec2{
		X: c.X + (sx-c.Width/2)/c.Zoom,
		Y: c.Y + (sy-c.Height/2)/c.Zoom,
	}
}

// ZoomAt scales the view by factor while keeping the world point under
// (sx, sy) fixed on screen.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	before := c.ScreenToWorld(sx, sy)
	c.Zoom = max(minZoom, min(maxZoom, c.Zoom*factor))
	after := c.ScreenToWorld(sx, sy)
	c.X += before.X - after.X
	c.Y += before.Y - after.Y
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool { return c.scrollTween != nil }

// update advances the scroll animation by dt seconds.
func (c *Camera) update(dt float32) {
	if c.scrollTween == nil {
		return
	}
	if !c.scrollTween.doneX {
		val, done := c.scrollTween.tweenX.Update(dt)
		c.X = float64(val)
		c.scrollTween.doneX = done
	}
	if !c.scrollTween.doneY {
		val, done := c.scrollTween.tweenY.Update(dt)
		c.Y = float64(val)
		c.scrollTween.doneY = done
	}
	if c.scrollTween.doneX && c.scrollTween.doneY {
		c.scrollTween = nil
	}
}
