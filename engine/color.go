package engine

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
)

// fcolor is a premultiplied RGBA colour with channels in 0..1.
type fcolor [4]float64

func toF(c color.NRGBA) fcolor {
	a := float64(c.A) / 255
	return fcolor{
		float64(c.R) / 255 * a,
		float64(c.G) / 255 * a,
		float64(c.B) / 255 * a,
		a,
	}
}

func (f fcolor) diff(o fcolor) float64 {
	dr := f[0] - o[0]
	dg := f[1] - o[1]
	db := f[2] - o[2]
	da := f[3] - o[3]
	return dr*dr + dg*dg + db*db + da*da
}

func (f fcolor) nrgba() color.NRGBA {
	a := f[3]
	if a <= 0.5/255 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: to8(f[0] / a),
		G: to8(f[1] / a),
		B: to8(f[2] / a),
		A: to8(a),
	}
}

func to8(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// canonical collapses every fully transparent colour to a single value.
func canonical(c color.NRGBA) color.NRGBA {
	if c.A == 0 {
		return color.NRGBA{}
	}
	return c
}

// labCoordinates maps a colour into clustering space: Lab scaled to roughly
// 0..1 per axis, plus alpha.
func labCoordinates(c color.NRGBA) clusters.Coordinates {
	l, a, b := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Lab()
	return clusters.Coordinates{l, (a + 1) / 2, (b + 1) / 2, float64(c.A) / 255}
}

func fromLabCoordinates(p clusters.Coordinates) fcolor {
	if len(p) < 4 {
		return fcolor{}
	}
	rgb := colorful.Lab(p[0], p[1]*2-1, p[2]*2-1).Clamped()
	a := math.Max(0, math.Min(1, p[3]))
	return fcolor{rgb.R * a, rgb.G * a, rgb.B * a, a}
}

// gammaByte re-encodes an 8-bit channel value with the given exponent.
func gammaByte(v uint8, exp float64) uint8 {
	if v == 0 || v == 255 {
		return v
	}
	return to8(math.Pow(float64(v)/255, exp))
}
