package game

import (
	"fmt"
	"image/color"
	"math"

	"github.com/iburimskiy/scrollwave/internal/scroll"
)

// hsvToRGBA converts HSV (hue 0-360, saturation and value 0-1) to a
// premultiplied colour with opacity a.
func hsvToRGBA(h, s, v, a float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return fade(color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}, a)
}

// fade scales an opaque colour to opacity alpha. color.RGBA is
// premultiplied, so every channel scales.
func fade(c color.RGBA, alpha float64) color.RGBA {
	a := scroll.Clamp01(alpha)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

// formatClock formats elapsed seconds as MM:SS.
func formatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
