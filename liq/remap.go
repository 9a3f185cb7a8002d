package liq

import (
	"image"

	"github.com/wippyai/liqbridge/pixel"
	"github.com/wippyai/liqbridge/resource"
)

// Remapped is the outcome of a one-shot Remap.
type Remapped struct {
	Image   *image.Paletted
	MSE     float64
	Quality int
}

// Remap quantizes img under attr and returns the indexed image. Every
// intermediate handle is released before Remap returns, on success or not.
func (s *Session) Remap(attr resource.Handle, img image.Image, dither float32) (*Remapped, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	src, err := s.ImageCreate(attr, pixel.Pack(img, pixel.LayoutABGR), w, h, int(pixel.LayoutABGR))
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.ImageDestroy(src) }()

	res, err := s.Quantize(attr, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.ResultDestroy(res) }()

	if err := s.SetDitheringLevel(res, dither); err != nil {
		return nil, err
	}

	indices := make([]byte, w*h)
	if err := s.WriteRemappedImage(res, src, indices); err != nil {
		return nil, err
	}

	pal, err := s.Palette(res)
	if err != nil {
		return nil, err
	}
	entries, err := s.PaletteEntries(pal)
	if err != nil {
		return nil, err
	}

	out := &Remapped{Image: pixel.Paletted(indices, entries, w, h)}
	if out.MSE, err = s.QuantizationError(res); err != nil {
		return nil, err
	}
	if out.Quality, err = s.QuantizationQuality(res); err != nil {
		return nil, err
	}
	return out, nil
}
