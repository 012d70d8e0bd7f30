package viewer

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/poser"
)

var (
	colorBackground = color.RGBA{0x1b, 0x1d, 0x23, 0xff}
	colorGrid       = color.RGBA{0x2a, 0x2d, 0x35, 0xff}
	colorBoneLeft   = color.RGBA{0x5d, 0x9c, 0xec, 0xff}
	colorBoneRight  = color.RGBA{0xec, 0x87, 0x5d, 0xff}
	colorBoneTrunk  = color.RGBA{0xd8, 0xd8, 0xd8, 0xff}
	colorGhost      = color.RGBA{0x80, 0x80, 0x80, 0x60}
	colorJoint      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHover      = color.RGBA{0xff, 0xe0, 0x40, 0xff}
	colorPin        = color.RGBA{0x40, 0xe0, 0x80, 0xff}
	colorStretched  = color.RGBA{0xff, 0x40, 0x40, 0xff}
	colorHUD        = color.RGBA{0x00, 0x00, 0x00, 0x90}
)

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	g.drawGround(screen)

	if g.frame.PreviewTable != nil {
		// Committed pose fades behind the preview.
		g.drawFigure(screen, &g.frame.Table, true)
		g.drawFigure(screen, g.frame.PreviewTable, false)
	} else {
		g.drawFigure(screen, &g.frame.Table, false)
	}
	g.drawPins(screen)
	g.drawHUD(screen)
	g.flushScreenshots(screen)
}

// drawGround draws the line the default figure stands on.
func (g *Game) drawGround(screen *ebiten.Image) {
	rest := poser.Evaluate(poser.TPose, g.studio.Proportions(), g.studio.BaseUnit())
	y := max(rest[poser.PartLToe].End.Y, rest[poser.PartRToe].End.Y)
	_, sy := g.cam.WorldToScreen(poser.Vec2{Y: y})
	vector.StrokeLine(screen, 0, float32(sy), float32(g.cam.Width), float32(sy), 1, colorGrid, false)
}

func boneColor(p poser.Part) color.Color {
	if poser.DrawsUpward(p) {
		return colorBoneTrunk
	}
	if poser.IsLeft(poser.PartJoint(p)) {
		return colorBoneLeft
	}
	return colorBoneRight
}

// connector returns the gap between p's pivot and the nearer end of its
// parent. ok is false when p sits on its parent.
func connector(table *poser.Table, p poser.Part) (from, to poser.Vec2, ok bool) {
	parent, ok := poser.ParentPart(p)
	if !ok {
		return poser.Vec2{}, poser.Vec2{}, false
	}
	to = table[p].Position
	from = table[parent].End
	if d := table[parent].Position.Dist(to); d < from.Dist(to) {
		from = table[parent].Position
	}
	if from.Dist(to) < 1e-6 {
		return poser.Vec2{}, poser.Vec2{}, false
	}
	return from, to, true
}

func (g *Game) drawFigure(screen *ebiten.Image, table *poser.Table, ghost bool) {
	zoom := float32(g.cam.Zoom)
	for _, p := range poser.Parts() {
		if from, to, ok := connector(table, p); ok {
			x0, y0 := g.cam.WorldToScreen(from)
			x1, y1 := g.cam.WorldToScreen(to)
			clr := color.Color(colorBoneTrunk)
			if ghost {
				clr = colorGhost
			}
			vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), max(1, 2*zoom), clr, true)
		}
	}
	for _, p := range poser.Parts() {
		t := table[p]
		x0, y0 := g.cam.WorldToScreen(t.Position)
		x1, y1 := g.cam.WorldToScreen(t.End)
		clr := boneColor(p)
		if ghost {
			clr = colorGhost
		}
		width := max(2, float32(t.Width)*zoom*0.35)
		if p == poser.PartHead {
			mid := t.Position.Add(t.End).Mul(0.5)
			cx, cy := g.cam.WorldToScreen(mid)
			vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(t.Length/2)*zoom, clr, true)
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, clr, true)
	}
	if ghost {
		return
	}
	for _, j := range poser.Joints() {
		x, y := g.cam.WorldToScreen(jointPosition(table, j))
		clr, r := color.Color(colorJoint), float32(3)
		if g.hovered && j == g.hover {
			clr, r = colorHover, 6
		}
		vector.DrawFilledCircle(screen, float32(x), float32(y), r, clr, true)
	}
}

func (g *Game) drawPins(screen *ebiten.Image) {
	for j, target := range g.frame.Pins {
		x, y := g.cam.WorldToScreen(target)
		clr := color.Color(colorPin)
		if g.frame.Stretch[j] > 1 {
			clr = colorStretched
		}
		const arm = 7
		fx, fy := float32(x), float32(y)
		vector.StrokeLine(screen, fx-arm, fy-arm, fx+arm, fy+arm, 2, clr, true)
		vector.StrokeLine(screen, fx-arm, fy+arm, fx+arm, fy-arm, 2, clr, true)
		vector.StrokeCircle(screen, fx, fy, arm+3, 1, clr, true)
	}
}

// hoverLine shows j's angle and, for limb joints, its mirror's.
func hoverLine(pose poser.Pose, j poser.Joint) string {
	if m, ok := poser.Symmetric(j); ok {
		return fmt.Sprintf("%s: %.1f  %s: %.1f", j, pose[j], m, pose[m])
	}
	return fmt.Sprintf("%s: %.1f", j, pose[j])
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	var b strings.Builder
	state := "idle"
	switch {
	case !g.frame.Calibrated:
		state = "uncalibrated (C)"
	case g.frame.Dragging:
		state = "dragging"
	case g.frame.Playing:
		state = "playing"
		if clip, ok := g.studio.PlayingClip(); ok {
			state = fmt.Sprintf("playing clip %d/%d", clip+1, len(g.studio.Keyframes())-1)
		}
	case g.frame.Transitioning:
		state = "transitioning"
	}
	fmt.Fprintf(&b, "state: %s\n", state)
	fmt.Fprintf(&b, "friction: %.0f  ghost: %v  auto: %v  loop: %v\n",
		g.studio.Friction(), g.studio.Ghosting(), g.studio.AutoCapture(), g.loop)
	fmt.Fprintf(&b, "keyframes: %d  pins: %d\n", len(g.studio.Keyframes()), len(g.frame.Pins))
	if g.hovered {
		fmt.Fprintln(&b, hoverLine(g.frame.Pose, g.hover))
	}
	fmt.Fprintf(&b, "FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())

	vector.DrawFilledRect(screen, 0, 0, 300, 84, colorHUD, false)
	ebitenutil.DebugPrintAt(screen, b.String(), 6, 4)

	help := "drag: rotate  rmb: pin  1-6: " + strings.Join(poser.Commands(), " ")
	ebitenutil.DebugPrintAt(screen, help, 6, int(g.cam.Height)-18)

	if g.message != "" && time.Now().Before(g.messageUntil) {
		ebitenutil.DebugPrintAt(screen, g.message, 6, int(g.cam.Height)-36)
	}
}
