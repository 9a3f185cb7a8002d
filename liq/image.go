package liq

import (
	"image/color"

	"go.uber.org/zap"

	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/pixel"
	"github.com/wippyai/liqbridge/resource"
)

// ImageCreate copies raw, a width*height*components buffer in the layout
// selected by components (3: RGB, 4: ABGR), into a new pixel source built
// under attr.
func (s *Session) ImageCreate(attr resource.Handle, raw []byte, width, height, components int) (resource.Handle, error) {
	const op = "image_create"
	a, err := s.attr(op, attr)
	if err != nil {
		return 0, err
	}
	src, err := pixel.NewSource(a, raw, width, height, components)
	if err != nil {
		s.log.Debug("image rejected", zap.Error(err))
		return 0, err
	}
	h, err := s.images.Insert(src)
	if err != nil {
		src.Drop()
		return 0, errors.Handle(op, err)
	}
	return h, nil
}

// ImageDestroy releases the pixel copy and engine image of h.
func (s *Session) ImageDestroy(h resource.Handle) error {
	if _, err := s.images.Remove(h); err != nil {
		return errors.Handle("image_destroy", err)
	}
	return nil
}

// AddFixedColor reserves a palette entry. Components must be 0..255 and the
// image must not have been quantized yet.
func (s *Session) AddFixedColor(h resource.Handle, r, g, b, a int) error {
	const op = "image_add_fixed_color"
	src, err := s.image(op, h)
	if err != nil {
		return err
	}
	for _, v := range [...]int{r, g, b, a} {
		if v < 0 || v > 255 {
			return errors.OutOfRange(errors.PhaseImage, op, v, 0, 255)
		}
	}
	return src.AddFixedColor(color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)})
}

func (s *Session) ImageWidth(h resource.Handle) (int, error) {
	src, err := s.image("image_get_width", h)
	if err != nil {
		return 0, err
	}
	return src.Width(), nil
}

func (s *Session) ImageHeight(h resource.Handle) (int, error) {
	src, err := s.image("image_get_height", h)
	if err != nil {
		return 0, err
	}
	return src.Height(), nil
}

// ImageState returns the lifecycle stage of h.
func (s *Session) ImageState(h resource.Handle) (pixel.State, error) {
	src, err := s.image("image_get_state", h)
	if err != nil {
		return pixel.StateReleased, err
	}
	return src.State(), nil
}
