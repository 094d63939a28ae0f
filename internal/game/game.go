// Package game runs the engine inside an ebiten window: a transparent,
// resizable overlay where the wheel scrolls a virtual page and the pointer
// pushes the particles around.
package game

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/iburimskiy/scrollwave/internal/config"
	"github.com/iburimskiy/scrollwave/internal/engine"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/sfx"
	"github.com/pion/logging"
)

const (
	levelBands  = 64
	levelWindow = 2048
)

type Game struct {
	log    logging.LeveledLogger
	engine *engine.Engine
	tap    *Tap
	scroll *scroll.Smoother

	width, height int
	last          scroll.Sample
	haveSample    bool

	// viz
	time       float64
	colorPhase float64
	levels     []float64

	// input edge detection
	prevKey map[ebiten.Key]bool
	touches []ebiten.TouchID

	started bool
	hud     bool
	lastErr error
}

// New builds the game around eng. tap may be nil when there is no audio
// output; the HUD then shows no level bars.
func New(eng *engine.Engine, tap *Tap, log logging.LeveledLogger) *Game {
	return &Game{
		log:     log,
		engine:  eng,
		tap:     tap,
		scroll:  scroll.NewSmoother(ebiten.DefaultTPS, 0),
		levels:  make([]float64, levelBands),
		prevKey: map[ebiten.Key]bool{},
	}
}

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if justPressed(ebiten.KeySpace) || justPressed(ebiten.KeyEnter) {
		g.togglePlayback()
	}
	if justPressed(ebiten.KeyM) {
		g.toggleMute()
	}
	if justPressed(ebiten.KeyF) {
		g.engine.TriggerSound(sfx.TransientClick)
	}
	if justPressed(ebiten.KeyH) {
		g.hud = !g.hud
	}

	// the page stays locked until the visitor enters
	if g.started {
		g.handleScroll(justPressed)
	}
	g.handlePointer()

	sample := g.scroll.Update()
	if !g.haveSample || sample != g.last {
		g.engine.OnScroll(sample)
		g.last, g.haveSample = sample, true
	}

	g.time += 1.0 / float64(ebiten.DefaultTPS)
	g.colorPhase += config.ColorShiftSpeed
	g.engine.Frame(g.time)
	if g.tap != nil && g.hud {
		g.tap.levels(g.levels, levelWindow)
	}
	return nil
}

func (g *Game) handleScroll(justPressed func(ebiten.Key) bool) {
	_, dy := ebiten.Wheel()
	if dy != 0 {
		g.scroll.Scroll(-dy * config.WheelStep)
	}
	page := float64(g.height) * 0.9
	switch {
	case justPressed(ebiten.KeyArrowDown):
		g.scroll.Scroll(config.WheelStep)
	case justPressed(ebiten.KeyArrowUp):
		g.scroll.Scroll(-config.WheelStep)
	case justPressed(ebiten.KeyPageDown):
		g.scroll.Scroll(page)
	case justPressed(ebiten.KeyPageUp):
		g.scroll.Scroll(-page)
	case justPressed(ebiten.KeyHome):
		g.scroll.ScrollTo(0)
	case justPressed(ebiten.KeyEnd):
		g.scroll.ScrollTo(g.last.Scrollable)
	}
}

// handlePointer follows the first touch, or the cursor while it is inside
// the window.
func (g *Game) handlePointer() {
	g.touches = ebiten.AppendTouchIDs(g.touches[:0])
	if len(g.touches) > 0 {
		x, y := ebiten.TouchPosition(g.touches[0])
		g.engine.SetPointer(float64(x), float64(y))
		return
	}
	x, y := ebiten.CursorPosition()
	if x < 0 || y < 0 || x >= g.width || y >= g.height || !ebiten.IsFocused() {
		g.engine.ClearPointer()
		return
	}
	g.engine.SetPointer(float64(x), float64(y))
}

func (g *Game) togglePlayback() {
	if g.engine.Running() {
		g.lastErr = g.engine.Suspend()
		return
	}
	if err := g.engine.Start(); err != nil {
		g.lastErr = err
		g.log.Errorf("start: %v", err)
		return
	}
	if !g.started {
		g.started = true
		g.engine.TriggerSound(sfx.EtherealSwoosh)
	}
	g.lastErr = nil
}

// toggleMute plays the power cue while it can still be heard: before muting
// and after unmuting.
func (g *Game) toggleMute() {
	if g.engine.Muted() {
		g.engine.SetMuted(false)
		g.engine.TriggerSound(sfx.PowerUp)
		return
	}
	g.engine.TriggerSound(sfx.PowerDown)
	g.engine.SetMuted(true)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.engine.Draw(screenSurface{img: screen})
	g.drawProgressRail(screen)
	if g.hud {
		g.drawHUD(screen)
	}
	g.drawStatus(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.engine.Resize(outsideWidth, outsideHeight)
		g.scroll.SetScrollable(float64((config.DocumentScreens - 1) * outsideHeight))
		g.log.Debugf("resized to %dx%d", outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, width, height int) error {
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("scrollwave - Space: start/pause, wheel: scroll, M: mute, H: HUD, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowDecorated(true)

	err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{ScreenTransparent: true})
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
