package engine

import (
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"go.uber.org/zap"
)

// WriteRemappedImage writes one palette index per pixel of img into out,
// row-major. out must hold at least Width*Height bytes. Error diffusion is
// applied only when a non-zero dithering level is set and both the palette
// and the image are fully opaque.
func (r *Result) WriteRemappedImage(img *Image, out []byte) error {
	if img == nil {
		return InvalidPointer
	}
	if len(r.palette) == 0 {
		return BitmapNotAvailable
	}
	n := img.width * img.height
	if len(out) < n {
		return BufferTooSmall
	}

	var errSum float64
	if r.dither > 0 && r.opaque && len(r.palette) >= 2 {
		if sum, ok := r.remapDithered(img, out); ok {
			errSum = sum
		} else {
			errSum = r.remapNearest(img, out)
		}
	} else {
		errSum = r.remapNearest(img, out)
	}

	r.remapMSE = errSum / float64(n)
	r.remapped = true
	return nil
}

func (r *Result) remapNearest(img *Image, out []byte) float64 {
	type hit struct {
		idx byte
		d   float64
	}
	cache := make(map[color.NRGBA]hit)
	var errSum float64

	img.eachRow(func(y int, row []color.NRGBA) {
		base := y * img.width
		for x, c := range row {
			c = canonical(c)
			h, ok := cache[c]
			if !ok {
				i, d := r.nearest(toF(c))
				h = hit{idx: byte(i), d: d}
				cache[c] = h
			}
			out[base+x] = h.idx
			errSum += h.d
		}
	})
	return errSum
}

// remapDithered reports false when the image has translucent pixels; the
// caller then falls back to nearest-colour mapping.
func (r *Result) remapDithered(img *Image, out []byte) (float64, bool) {
	src := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	opaque := true
	img.eachRow(func(y int, row []color.NRGBA) {
		for x, c := range row {
			if c.A != 255 {
				opaque = false
			}
			src.SetNRGBA(x, y, c)
		}
	})
	if !opaque {
		return 0, false
	}

	colors := make([]color.Color, len(r.palette))
	for i, c := range r.palette {
		colors[i] = c
	}
	d := dither.NewDitherer(colors)
	if d == nil {
		return 0, false
	}
	d.Matrix = dither.ErrorDiffusionStrength(dither.FloydSteinberg, r.dither)
	d.Serpentine = true

	pi := d.DitherPaletted(src)
	if pi == nil {
		return 0, false
	}

	var errSum float64
	for y := 0; y < img.height; y++ {
		row := pi.Pix[y*pi.Stride : y*pi.Stride+img.width]
		for x, idx := range row {
			if int(idx) >= len(r.palette) {
				Logger().Warn("ditherer produced out of range index", zap.Uint8("index", idx))
				return 0, false
			}
			out[y*img.width+x] = idx
			errSum += r.fpal[idx].diff(toF(src.NRGBAAt(x, y)))
		}
	}
	return errSum, true
}

func (r *Result) nearest(f fcolor) (int, float64) {
	best, bestD := 0, r.fpal[0].diff(f)
	for i := 1; i < len(r.fpal) && bestD > 0; i++ {
		if d := r.fpal[i].diff(f); d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}
