package engine

import (
	"image/color"
)

// DefaultGamma is the gamma assumed for input images and palettes, 1/2.2.
const DefaultGamma = 0.45455

// MaxFixedColors is the number of colours that may be forced into a palette.
const MaxFixedColors = 256

const maxPixels = 1 << 28

// RowFunc fills row with the canonical colours of image row y. It is called
// synchronously by Quantize and WriteRemappedImage, possibly several times for
// the same row, and must not retain row after returning.
type RowFunc func(row []color.NRGBA, y int)

// Image is a pixel source the engine pulls rows from on demand.
type Image struct {
	rows   RowFunc
	fixed  []color.NRGBA
	width  int
	height int
	gamma  float64
}

// NewImageCustom creates an image whose rows are produced by rows. A gamma of
// 0 selects DefaultGamma.
func NewImageCustom(attr *Attr, rows RowFunc, width, height int, gamma float64) (*Image, error) {
	if attr == nil || rows == nil {
		return nil, InvalidPointer
	}
	if width <= 0 || height <= 0 || width > maxPixels/height {
		return nil, ValueOutOfRange
	}
	if gamma == 0 {
		gamma = DefaultGamma
	}
	if gamma < 0 || gamma >= 1 {
		return nil, ValueOutOfRange
	}
	return &Image{
		rows:   rows,
		width:  width,
		height: height,
		gamma:  gamma,
	}, nil
}

// AddFixedColor reserves a palette entry for c.
func (img *Image) AddFixedColor(c color.NRGBA) error {
	if len(img.fixed) >= MaxFixedColors {
		return Unsupported
	}
	img.fixed = append(img.fixed, c)
	return nil
}

// FixedColors returns the colours reserved so far.
func (img *Image) FixedColors() []color.NRGBA {
	return append([]color.NRGBA(nil), img.fixed...)
}

func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

// Gamma returns the input gamma.
func (img *Image) Gamma() float64 { return img.gamma }

// eachRow pulls every row in order into a reused buffer.
func (img *Image) eachRow(fn func(y int, row []color.NRGBA)) {
	row := make([]color.NRGBA, img.width)
	for y := 0; y < img.height; y++ {
		clear(row)
		img.rows(row, y)
		fn(y, row)
	}
}
