package pixel

import (
	"fmt"
	"image/color"

	"github.com/wippyai/liqbridge/errors"
)

// Layout is a caller pixel packing, identified by its bytes per pixel.
type Layout int

const (
	// LayoutRGB packs R, G, B per pixel; alpha is implicitly 255.
	LayoutRGB Layout = 3
	// LayoutABGR packs A, B, G, R per pixel, the byte order of a
	// little-endian 0xRRGGBBAA word as produced by common platform image
	// buffers. It is not RGBA.
	LayoutABGR Layout = 4
)

// LayoutFor returns the layout for a component count. Counts other than 3
// and 4 are rejected.
func LayoutFor(components int) (Layout, error) {
	switch Layout(components) {
	case LayoutRGB, LayoutABGR:
		return Layout(components), nil
	}
	return 0, errors.Unsupported(errors.PhaseImage,
		fmt.Sprintf("component count %d is not 3 (RGB) or 4 (ABGR)", components))
}

// Components returns the bytes per pixel.
func (l Layout) Components() int {
	return int(l)
}

func (l Layout) String() string {
	switch l {
	case LayoutRGB:
		return "RGB"
	case LayoutABGR:
		return "ABGR"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Decode converts len(dst) packed pixels from src into canonical colours.
// src must hold at least len(dst)*Components bytes.
func (l Layout) Decode(dst []color.NRGBA, src []byte) {
	switch l {
	case LayoutABGR:
		for i := range dst {
			p := src[i*4 : i*4+4 : i*4+4]
			dst[i] = color.NRGBA{R: p[3], G: p[2], B: p[1], A: p[0]}
		}
	case LayoutRGB:
		for i := range dst {
			p := src[i*3 : i*3+3 : i*3+3]
			dst[i] = color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}
		}
	}
}

// Encode packs c into dst, the inverse of Decode for one pixel. LayoutRGB
// drops alpha.
func (l Layout) Encode(dst []byte, c color.NRGBA) {
	switch l {
	case LayoutABGR:
		dst[0], dst[1], dst[2], dst[3] = c.A, c.B, c.G, c.R
	case LayoutRGB:
		dst[0], dst[1], dst[2] = c.R, c.G, c.B
	}
}
