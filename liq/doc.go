// Package liq is the typed face of the bridge.
//
// A Session owns one generation-checked handle table per object kind and
// exposes every bridge operation with an explicit (value, error) result, so
// a legitimate zero width or quality is never confused with a failure.
//
//	s := liq.NewSession(liq.DefaultConfig())
//	defer s.Close()
//
//	attr, _ := s.AttrCreate()
//	_ = s.SetMaxColors(attr, 64)
//
//	img, err := s.ImageCreate(attr, abgr, width, height, 4)
//	res, err := s.Quantize(attr, img)
//
//	indices := make([]byte, width*height)
//	err = s.WriteRemappedImage(res, img, indices)
//
//	pal, _ := s.Palette(res)
//	buf := make([]byte, 256*liq.BytesPerEntry)
//	n, err := s.CopyPaletteData(pal, buf)
//
// Errors are *errors.Error values. Handle problems carry PhaseHandle with
// KindNullHandle, KindStaleHandle or KindKindMismatch; engine failures carry
// KindEngine with the engine code as cause.
package liq
