package liq

import (
	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/resource"
)

// Setting bounds accepted by the attribute setters.
const (
	MinColors       = 1
	MaxColors       = 256
	MinQuality      = 0
	MaxQuality      = 100
	MinSpeed        = 1
	MaxSpeed        = 11
	DefaultSpeed    = 3
	MaxPosterizeBit = 4
)

// AttrCreate creates an attribute with engine defaults.
func (s *Session) AttrCreate() (resource.Handle, error) {
	h, err := s.attrs.Insert(engine.NewAttr())
	if err != nil {
		return 0, errors.Handle("attr_create", err)
	}
	return h, nil
}

// AttrCopy creates an independent clone of h.
func (s *Session) AttrCopy(h resource.Handle) (resource.Handle, error) {
	a, err := s.attr("attr_copy", h)
	if err != nil {
		return 0, err
	}
	c, err := s.attrs.Insert(a.Copy())
	if err != nil {
		return 0, errors.Handle("attr_copy", err)
	}
	return c, nil
}

// AttrDestroy releases h.
func (s *Session) AttrDestroy(h resource.Handle) error {
	if _, err := s.attrs.Remove(h); err != nil {
		return errors.Handle("attr_destroy", err)
	}
	return nil
}

// SetMaxColors limits the palette to colors entries, 1..256.
func (s *Session) SetMaxColors(h resource.Handle, colors int) error {
	const op = "set_max_colors"
	a, err := s.attr(op, h)
	if err != nil {
		return err
	}
	if colors < MinColors || colors > MaxColors {
		return errors.OutOfRange(errors.PhaseAttribute, op, colors, MinColors, MaxColors)
	}
	if err := a.SetMaxColors(colors); err != nil {
		return s.engineErr(errors.PhaseAttribute, op, err)
	}
	return nil
}

func (s *Session) MaxColors(h resource.Handle) (int, error) {
	a, err := s.attr("get_max_colors", h)
	if err != nil {
		return 0, err
	}
	return a.MaxColors(), nil
}

// SetQuality sets the range [target/2, target].
func (s *Session) SetQuality(h resource.Handle, target int) error {
	return s.setQuality("set_quality", h, target/2, target)
}

// SetQualityRange sets an explicit range; both ends must be 0..100 and
// min <= max.
func (s *Session) SetQualityRange(h resource.Handle, min, max int) error {
	return s.setQuality("set_quality_range", h, min, max)
}

func (s *Session) setQuality(op string, h resource.Handle, min, max int) error {
	a, err := s.attr(op, h)
	if err != nil {
		return err
	}
	if min < MinQuality || min > MaxQuality {
		return errors.OutOfRange(errors.PhaseAttribute, op, min, MinQuality, MaxQuality)
	}
	if max < MinQuality || max > MaxQuality {
		return errors.OutOfRange(errors.PhaseAttribute, op, max, MinQuality, MaxQuality)
	}
	if min > max {
		return errors.New(errors.PhaseAttribute, errors.KindOutOfRange).
			Op(op).
			Value(min).
			Detail("min quality %d above max %d", min, max).
			Build()
	}
	if err := a.SetQuality(min, max); err != nil {
		return s.engineErr(errors.PhaseAttribute, op, err)
	}
	return nil
}

// QualityRange returns the configured (min, max) quality.
func (s *Session) QualityRange(h resource.Handle) (min, max int, err error) {
	a, err := s.attr("get_quality_range", h)
	if err != nil {
		return 0, 0, err
	}
	return a.MinQuality(), a.MaxQuality(), nil
}

// SetSpeed sets speed 1 (slowest, best) .. 11 (fastest).
func (s *Session) SetSpeed(h resource.Handle, speed int) error {
	const op = "set_speed"
	a, err := s.attr(op, h)
	if err != nil {
		return err
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return errors.OutOfRange(errors.PhaseAttribute, op, speed, MinSpeed, MaxSpeed)
	}
	if err := a.SetSpeed(speed); err != nil {
		return s.engineErr(errors.PhaseAttribute, op, err)
	}
	return nil
}

func (s *Session) Speed(h resource.Handle) (int, error) {
	a, err := s.attr("get_speed", h)
	if err != nil {
		return 0, err
	}
	return a.Speed(), nil
}

// SetMinPosterization forwards bits to the engine, which accepts 0..4.
func (s *Session) SetMinPosterization(h resource.Handle, bits int) error {
	const op = "set_min_posterization"
	a, err := s.attr(op, h)
	if err != nil {
		return err
	}
	if err := a.SetMinPosterization(bits); err != nil {
		return s.engineErr(errors.PhaseAttribute, op, err)
	}
	return nil
}

func (s *Session) MinPosterization(h resource.Handle) (int, error) {
	a, err := s.attr("get_min_posterization", h)
	if err != nil {
		return 0, err
	}
	return a.MinPosterization(), nil
}

// SetLastIndexTransparent places translucent palette entries last.
func (s *Session) SetLastIndexTransparent(h resource.Handle, last bool) error {
	a, err := s.attr("set_last_index_transparent", h)
	if err != nil {
		return err
	}
	a.SetLastIndexTransparent(last)
	return nil
}
