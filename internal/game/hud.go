package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// drawProgressRail draws the thin scroll indicator on the right edge.
func (g *Game) drawProgressRail(screen *ebiten.Image) {
	if !g.started {
		return
	}
	x := float32(g.width - 6)
	h := float32(g.height)
	p := g.last.Progress()
	vector.DrawFilledRect(screen, x, 0, 3, h, color.RGBA{R: 20, G: 25, B: 35, A: 120}, false)
	vector.DrawFilledRect(screen, x, 0, 3, h*float32(p), hsvToRGBA((g.colorPhase+p*0.5)*360, 0.8, 0.9, 0.8), false)
}

// drawHUD shows the output level bars and the engine read-out.
func (g *Game) drawHUD(screen *ebiten.Image) {
	st := g.engine.Stats()
	lines := []string{
		fmt.Sprintf("state %s  muted %v  audio %v", st.State, st.Muted, st.Available),
		fmt.Sprintf("progress %.3f  tempo %.1f bpm  beats %d", st.Progress, st.Tempo, st.Beats),
		fmt.Sprintf("speed %.2f  override %v  colors %s  nodes %d", st.Speed, st.Override, st.Mode, st.Nodes),
		fmt.Sprintf("time %s  tps %.0f  fps %.0f", formatClock(g.time), ebiten.ActualTPS(), ebiten.ActualFPS()),
	}
	for i, l := range lines {
		ebitenutil.DebugPrintAt(screen, l, 12, 12+i*16)
	}
	if g.tap == nil {
		return
	}

	barHeight := 60
	barY := g.height - barHeight - 20
	barWidth := g.width - 40
	barX := 20
	segmentWidth := float64(barWidth) / float64(len(g.levels))

	vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), color.RGBA{R: 20, G: 25, B: 35, A: 200}, false)
	vector.StrokeRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), 2, color.RGBA{R: 60, G: 70, B: 90, A: 255}, false)

	for i, level := range g.levels {
		segmentX := float64(barX) + float64(i)*segmentWidth
		segmentHeight := max(level*float64(barHeight-10), 2)

		hue := (g.colorPhase + float64(i)/float64(len(g.levels))*0.5) * 360
		c := hsvToRGBA(hue, 0.8, 0.9, 0.4+0.6*level)

		segmentY := float64(barY+barHeight) - segmentHeight
		vector.DrawFilledRect(screen, float32(segmentX), float32(segmentY), float32(segmentWidth-1), float32(segmentHeight), c, false)
		if level > 0.3 {
			vector.StrokeRect(screen, float32(segmentX), float32(segmentY), float32(segmentWidth-1), float32(segmentHeight), 1, fade(color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0.4*level), false)
		}
	}
	ebitenutil.DebugPrintAt(screen, "output", barX, barY-15)
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	var status string
	switch {
	case !g.started:
		status = "Space to enter"
		if !g.engine.Available() {
			status += " (no audio output)"
		}
	case !g.engine.Running() && g.engine.Available():
		status = "Paused - Space to resume"
	}
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	if status != "" {
		ebitenutil.DebugPrintAt(screen, status, 12, g.height-16)
	}
}
