package engine

import (
	"image/color"
)

// Result is the outcome of Quantize: a palette plus the controls used when
// remapping images against it.
type Result struct {
	palette     []color.NRGBA
	fpal        []fcolor
	inputGamma  float64
	outputGamma float64
	mse         float64
	remapMSE    float64
	remapped    bool
	dither      float32
	opaque      bool
}

func newResult(palette []color.NRGBA, gamma, mse float64) *Result {
	r := &Result{
		palette:     palette,
		fpal:        make([]fcolor, len(palette)),
		inputGamma:  gamma,
		outputGamma: DefaultGamma,
		mse:         mse,
		opaque:      true,
	}
	for i, c := range palette {
		r.fpal[i] = toF(c)
		if c.A != 255 {
			r.opaque = false
		}
	}
	return r
}

// SetDitheringLevel sets error diffusion strength for remapping, 0..1.
// Zero disables dithering.
func (r *Result) SetDitheringLevel(level float32) error {
	if level < 0 || level > 1 {
		return ValueOutOfRange
	}
	r.dither = level
	return nil
}

// DitheringLevel returns the current error diffusion strength.
func (r *Result) DitheringLevel() float32 {
	return r.dither
}

// SetOutputGamma sets the gamma palette colours are reported in. It must be
// in the open range (0, 1).
func (r *Result) SetOutputGamma(gamma float64) error {
	if gamma <= 0 || gamma >= 1 {
		return ValueOutOfRange
	}
	r.outputGamma = gamma
	return nil
}

func (r *Result) OutputGamma() float64 {
	return r.outputGamma
}

// QuantizationError returns the mean square error of the most recent
// remapping, or of the palette when nothing has been remapped yet.
func (r *Result) QuantizationError() float64 {
	return standardMSE(r.currentMSE())
}

// QuantizationQuality returns the achieved quality, 0..100.
func (r *Result) QuantizationQuality() int {
	return mseToQuality(r.currentMSE())
}

func (r *Result) currentMSE() float64 {
	if r.remapped {
		return r.remapMSE
	}
	return r.mse
}

// Len returns the number of palette entries.
func (r *Result) Len() int {
	return len(r.palette)
}

// Palette returns the palette converted to the output gamma.
func (r *Result) Palette() []color.NRGBA {
	out := make([]color.NRGBA, len(r.palette))
	copy(out, r.palette)

	if diff := r.outputGamma - r.inputGamma; diff > -1e-6 && diff < 1e-6 {
		return out
	}
	exp := r.outputGamma / r.inputGamma
	for i := range out {
		out[i].R = gammaByte(out[i].R, exp)
		out[i].G = gammaByte(out[i].G, exp)
		out[i].B = gammaByte(out[i].B, exp)
	}
	return out
}
