package pixel

import (
	"image"
	"image/color"
)

// Pack converts img into the caller byte layout, row-major from the top-left
// of its bounds.
func Pack(img image.Image, layout Layout) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bpp := layout.Components()
	out := make([]byte, w*h*bpp)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+4]
				layout.Encode(out[(y*w+x)*bpp:], color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
			}
		}
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			layout.Encode(out[(y*w+x)*bpp:], c)
		}
	}
	return out
}

// Paletted builds an image from remapped indices and a palette, the inverse
// step callers use to write results.
func Paletted(indices []byte, palette []color.NRGBA, width, height int) *image.Paletted {
	pal := make(color.Palette, len(palette))
	for i, c := range palette {
		pal[i] = c
	}
	img := image.NewPaletted(image.Rect(0, 0, width, height), pal)
	copy(img.Pix, indices)
	return img
}
