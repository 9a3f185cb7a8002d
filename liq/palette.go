package liq

import (
	"image/color"

	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/resource"
)

// BytesPerEntry is the packed size of one palette entry: R, G, B, A.
const BytesPerEntry = 4

// Palette returns a reference to the palette of res. The reference shares
// the result's slot and generation, so it goes stale when res is destroyed.
func (s *Session) Palette(res resource.Handle) (resource.Handle, error) {
	if _, err := s.result("get_palette", res); err != nil {
		return 0, err
	}
	return resource.WithKind(res, resource.KindPalette), nil
}

func (s *Session) paletteOwner(op string, p resource.Handle) (*engine.Result, error) {
	if p == 0 {
		return nil, errors.Handle(op, resource.ErrNullHandle)
	}
	if resource.KindOf(p) != resource.KindPalette {
		return nil, errors.Handle(op, resource.ErrKindMismatch)
	}
	return s.result(op, resource.WithKind(p, resource.KindResult))
}

// PaletteCount returns the number of entries in palette p.
func (s *Session) PaletteCount(p resource.Handle) (int, error) {
	r, err := s.paletteOwner("get_palette_count", p)
	if err != nil {
		return 0, err
	}
	return r.Len(), nil
}

// PaletteSize returns the byte count CopyPaletteData needs for p.
func (s *Session) PaletteSize(p resource.Handle) (int, error) {
	n, err := s.PaletteCount(p)
	if err != nil {
		return 0, err
	}
	return n * BytesPerEntry, nil
}

// PaletteEntries returns the entries of p in output gamma.
func (s *Session) PaletteEntries(p resource.Handle) ([]color.NRGBA, error) {
	r, err := s.paletteOwner("get_palette_entries", p)
	if err != nil {
		return nil, err
	}
	return r.Palette(), nil
}

// CopyPaletteData packs the entries of p into dst as R, G, B, A bytes and
// returns the number of bytes written. dst is left untouched unless it holds
// every entry.
func (s *Session) CopyPaletteData(p resource.Handle, dst []byte) (int, error) {
	const op = "copy_palette_data"
	r, err := s.paletteOwner(op, p)
	if err != nil {
		return 0, err
	}
	if dst == nil {
		return 0, errors.MissingBuffer(errors.PhasePalette, op)
	}
	entries := r.Palette()
	need := len(entries) * BytesPerEntry
	if len(dst) < need {
		return 0, errors.BufferTooSmall(errors.PhasePalette, op, need, len(dst))
	}
	for i, c := range entries {
		o := i * BytesPerEntry
		dst[o], dst[o+1], dst[o+2], dst[o+3] = c.R, c.G, c.B, c.A
	}
	return need, nil
}
