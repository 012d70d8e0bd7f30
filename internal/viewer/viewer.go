// Package viewer is an interactive ebiten window onto a posing Studio.
//
// Left-drag a joint to rotate it; horizontal motion drives the rotation.
// Right-drag a hand or foot to pin it; shift+right-click unpins. Keys:
//
//	C        calibrate
//	1-6      play a preset command
//	K        capture a keyframe
//	P        play or stop the keyframe timeline
//	L        toggle timeline looping
//	G        toggle ghosting
//	A        toggle auto-capture
//	R        recenter the camera
//	F3       toggle solver debug output
//	F12      screenshot
//	wheel    zoom
package viewer

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/poser"
)

const flashLength = 2 * time.Second

// Options configures a Game.
type Options struct {
	Width, Height int
	// ScreenshotDir is where F12 writes PNGs. Empty uses "screenshots".
	ScreenshotDir string
	Logger        *slog.Logger
}

// Game implements ebiten.Game around a Studio.
type Game struct {
	studio *poser.Studio
	cam    *Camera
	log    *slog.Logger

	width, height int
	started       time.Time
	frame         poser.Frame

	hover   poser.Joint
	hovered bool
	pinning poser.Joint
	pinHeld bool
	debug   bool
	loop    bool

	message      string
	messageUntil time.Time

	posts           chan func(*poser.Studio)
	screenshotDir   string
	screenshotQueue []string
}

// New returns a game driving studio.
func New(studio *poser.Studio, opts Options) *Game {
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = "screenshots"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	g := &Game{
		studio:        studio,
		log:           opts.Logger,
		width:         opts.Width,
		height:        opts.Height,
		started:       time.Now(),
		posts:         make(chan func(*poser.Studio), 8),
		screenshotDir: opts.ScreenshotDir,
	}
	g.cam = NewCamera(float64(opts.Width), float64(opts.Height), 0, g.focusY())
	g.frame = studio.Update(0)
	return g
}

// focusY is the world Y the camera rests on: halfway between the head and
// the feet of the default figure.
func (g *Game) focusY() float64 {
	return -0.5 * g.studio.BaseUnit()
}

// Post queues fn to run on the game goroutine before the next frame.
// It is the only safe way to touch the studio from another goroutine.
func (g *Game) Post(fn func(*poser.Studio)) {
	select {
	case g.posts <- fn:
	default:
		g.log.Warn("viewer post queue full, dropping update")
	}
}

// Run opens the window and blocks until it closes.
func Run(g *Game, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	for drained := false; !drained; {
		select {
		case fn := <-g.posts:
			fn(g.studio)
		default:
			drained = true
		}
	}

	g.handleKeys()
	g.handlePointer()

	g.frame = g.studio.Update(time.Since(g.started))
	g.cam.update(float32(1 / float64(ebiten.TPS())))
	return nil
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.cam.Width, g.cam.Height = float64(outsideWidth), float64(outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *Game) flash(msg string) {
	g.message = msg
	g.messageUntil = time.Now().Add(flashLength)
}

func (g *Game) report(err error) {
	if err != nil {
		g.flash(err.Error())
		g.log.Debug("studio rejected input", "err", err)
	}
}

func (g *Game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.studio.Calibrate()
		g.flash("calibrating")
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		kf := g.studio.AddKeyframe(g.studio.Pose())
		g.flash("captured " + kf.Name)
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		if g.frame.Playing {
			g.studio.StopTimeline()
			g.flash("stopped")
		} else {
			g.report(g.studio.PlayTimeline(g.loop))
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.loop = !g.loop
		g.flash(onOff("loop", g.loop))
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		on := !g.studio.Ghosting()
		g.studio.SetGhosting(on)
		g.flash(onOff("ghosting", on))
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		on := !g.studio.AutoCapture()
		g.studio.SetAutoCapture(on)
		g.flash(onOff("auto-capture", on))
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.cam.ScrollTo(0, g.focusY(), 0.4, ease.OutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		g.debug = !g.debug
		g.studio.SetDebugMode(g.debug)
		g.flash(onOff("debug", g.debug))
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		g.Screenshot("pose")
	}

	commands := poser.Commands()
	for i, key := range []ebiten.Key{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6} {
		if i < len(commands) && inpututil.IsKeyJustPressed(key) {
			g.report(g.studio.ApplyCommand(commands[i]))
			g.flash(commands[i])
		}
	}
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}

func (g *Game) handlePointer() {
	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)
	world := g.cam.ScreenToWorld(sx, sy)
	radius := pickRadius / g.cam.Zoom

	if _, wy := ebiten.Wheel(); wy != 0 {
		factor := 1.1
		if wy < 0 {
			factor = 1 / factor
		}
		g.cam.ZoomAt(sx, sy, factor)
	}

	table := g.frame.Table
	if g.frame.PreviewTable != nil {
		table = *g.frame.PreviewTable
	}
	g.hover, g.hovered = pickJoint(&table, world, radius, nil)

	// Rotation drags.
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && g.hovered:
		g.report(g.studio.BeginDrag(g.hover, world.X))
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && g.studio.Dragging():
		g.report(g.studio.DragTo(world.X))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.studio.Dragging():
		g.report(g.studio.EndDrag())
	}

	// Pins.
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		j, ok := pickEffector(&table, world, radius)
		if !ok {
			if pinned, hit := pickJoint(&table, world, radius, pinnedJoints(g.frame.Pins)); hit {
				j, ok = pinned, true
			}
		}
		if !ok {
			return
		}
		if shift {
			g.studio.Unpin(j)
			g.flash("unpinned " + j.String())
			return
		}
		g.pinning, g.pinHeld = j, true
		g.report(g.studio.Pin(j, world))
	case g.pinHeld && ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		g.report(g.studio.Pin(g.pinning, world))
	case g.pinHeld:
		g.pinHeld = false
	}
}

func pinnedJoints(pins map[poser.Joint]poser.Vec2) []poser.Joint {
	out := make([]poser.Joint, 0, len(pins))
	for j := range pins {
		out = append(out, j)
	}
	return out
}
