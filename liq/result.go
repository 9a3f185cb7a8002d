package liq

import (
	"go.uber.org/zap"

	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/resource"
)

// Quantize selects a palette for img under attr. On success img is frozen:
// further fixed colours are rejected.
func (s *Session) Quantize(attr, img resource.Handle) (resource.Handle, error) {
	const op = "quantize"
	a, err := s.attr(op, attr)
	if err != nil {
		return 0, err
	}
	src, err := s.image(op, img)
	if err != nil {
		return 0, err
	}

	res, err := engine.Quantize(a, src.Image())
	if err != nil {
		return 0, s.engineErr(errors.PhaseQuantize, op, err)
	}
	if err := src.Freeze(); err != nil {
		return 0, err
	}

	h, err := s.results.Insert(res)
	if err != nil {
		return 0, errors.Handle(op, err)
	}
	s.log.Debug("quantized",
		zap.Int("colors", res.Len()),
		zap.Int("quality", res.QuantizationQuality()),
	)
	return h, nil
}

// ResultDestroy releases h. Palette references obtained from h go stale.
func (s *Session) ResultDestroy(h resource.Handle) error {
	if _, err := s.results.Remove(h); err != nil {
		return errors.Handle("result_destroy", err)
	}
	return nil
}

// SetDitheringLevel sets error diffusion strength, 0..1. Zero disables
// dithering.
func (s *Session) SetDitheringLevel(h resource.Handle, level float32) error {
	const op = "set_dithering_level"
	r, err := s.result(op, h)
	if err != nil {
		return err
	}
	if !(level >= 0 && level <= 1) {
		return errors.OutOfRange(errors.PhaseRemap, op, level, 0, 1)
	}
	if err := r.SetDitheringLevel(level); err != nil {
		return s.engineErr(errors.PhaseRemap, op, err)
	}
	return nil
}

// SetOutputGamma sets the gamma palette colours are reported in.
func (s *Session) SetOutputGamma(h resource.Handle, gamma float64) error {
	const op = "set_output_gamma"
	r, err := s.result(op, h)
	if err != nil {
		return err
	}
	if !(gamma > 0) {
		return errors.New(errors.PhasePalette, errors.KindOutOfRange).
			Op(op).
			Value(gamma).
			Detail("gamma must be positive").
			Build()
	}
	if err := r.SetOutputGamma(gamma); err != nil {
		return s.engineErr(errors.PhasePalette, op, err)
	}
	return nil
}

func (s *Session) OutputGamma(h resource.Handle) (float64, error) {
	r, err := s.result("get_output_gamma", h)
	if err != nil {
		return 0, err
	}
	return r.OutputGamma(), nil
}

// QuantizationError returns the mean square error of the latest remap, or of
// the palette before any remap. It is never negative.
func (s *Session) QuantizationError(h resource.Handle) (float64, error) {
	r, err := s.result("get_quantization_error", h)
	if err != nil {
		return 0, err
	}
	return r.QuantizationError(), nil
}

// QuantizationQuality returns the achieved quality, 0..100.
func (s *Session) QuantizationQuality(h resource.Handle) (int, error) {
	r, err := s.result("get_quantization_quality", h)
	if err != nil {
		return 0, err
	}
	return r.QuantizationQuality(), nil
}

// RemappedSize returns the number of bytes WriteRemappedImage needs for img.
func (s *Session) RemappedSize(img resource.Handle) (int, error) {
	src, err := s.image("remapped_size", img)
	if err != nil {
		return 0, err
	}
	return src.Width() * src.Height(), nil
}

// WriteRemappedImage writes width*height palette indices for img into out.
// Nothing is written when out is absent or shorter than required.
func (s *Session) WriteRemappedImage(res, img resource.Handle, out []byte) error {
	const op = "write_remapped_image"
	r, err := s.result(op, res)
	if err != nil {
		return err
	}
	src, err := s.image(op, img)
	if err != nil {
		return err
	}
	if out == nil {
		return errors.MissingBuffer(errors.PhaseRemap, op)
	}
	need := src.Width() * src.Height()
	if len(out) < need {
		return errors.BufferTooSmall(errors.PhaseRemap, op, need, len(out))
	}
	if err := r.WriteRemappedImage(src.Image(), out[:need]); err != nil {
		return s.engineErr(errors.PhaseRemap, op, err)
	}
	return nil
}
