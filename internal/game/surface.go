package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/iburimskiy/scrollwave/internal/particles"
)

// screenSurface draws the particle field straight onto the ebiten screen.
type screenSurface struct {
	img *ebiten.Image
}

var _ particles.Surface = screenSurface{}

// Clear leaves the screen fully transparent so the desktop shows through.
func (s screenSurface) Clear() {
	s.img.Clear()
}

func (s screenSurface) FillCircle(x, y, r float64, c color.RGBA, alpha float64) {
	vector.DrawFilledCircle(s.img, float32(x), float32(y), float32(r), fade(c, alpha), true)
}

func (s screenSurface) StrokeLine(x0, y0, x1, y1, width float64, c color.RGBA, alpha float64) {
	vector.StrokeLine(s.img, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), fade(c, alpha), true)
}
