package liq

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	lerrors "github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/pixel"
	"github.com/wippyai/liqbridge/resource"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(DefaultConfig())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustAttr(t *testing.T, s *Session) resource.Handle {
	t.Helper()
	h, err := s.AttrCreate()
	if err != nil {
		t.Fatalf("AttrCreate failed: %v", err)
	}
	return h
}

func isKind(err error, phase lerrors.Phase, kind lerrors.Kind) bool {
	return errors.Is(err, &lerrors.Error{Phase: phase, Kind: kind})
}

// checker builds a width x height buffer cycling through colors.
func checker(width, height, components int, colors []color.NRGBA) []byte {
	layout, _ := pixel.LayoutFor(components)
	buf := make([]byte, width*height*components)
	for i := 0; i < width*height; i++ {
		layout.Encode(buf[i*components:], colors[i%len(colors)])
	}
	return buf
}

func gradientBuf(width, height, components int) []byte {
	layout, _ := pixel.LayoutFor(components)
	buf := make([]byte, width*height*components)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: uint8((x ^ y) * 8), A: 255}
			layout.Encode(buf[(y*width+x)*components:], c)
		}
	}
	return buf
}

func TestAttr_SetQualityTarget(t *testing.T) {
	s := newSession(t)
	h := mustAttr(t, s)

	tests := []struct {
		target   int
		min, max int
	}{
		{50, 25, 50},
		{51, 25, 51},
		{100, 50, 100},
		{1, 0, 1},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if err := s.SetQuality(h, tt.target); err != nil {
			t.Fatalf("SetQuality(%d): %v", tt.target, err)
		}
		min, max, err := s.QualityRange(h)
		if err != nil {
			t.Fatal(err)
		}
		if min != tt.min || max != tt.max {
			t.Errorf("SetQuality(%d) range = %d..%d, want %d..%d", tt.target, min, max, tt.min, tt.max)
		}
	}

	if err := s.SetQuality(h, 101); !isKind(err, lerrors.PhaseAttribute, lerrors.KindOutOfRange) {
		t.Errorf("SetQuality(101) = %v", err)
	}
	if err := s.SetQualityRange(h, 60, 40); !isKind(err, lerrors.PhaseAttribute, lerrors.KindOutOfRange) {
		t.Errorf("SetQualityRange(60, 40) = %v", err)
	}
}

func TestAttr_CopyIsIndependent(t *testing.T) {
	s := newSession(t)
	orig := mustAttr(t, s)
	if err := s.SetMaxColors(orig, 128); err != nil {
		t.Fatal(err)
	}

	clone, err := s.AttrCopy(orig)
	if err != nil {
		t.Fatalf("AttrCopy failed: %v", err)
	}
	if clone == orig {
		t.Fatal("copy returned the original handle")
	}
	if err := s.SetMaxColors(clone, 8); err != nil {
		t.Fatal(err)
	}

	if n, _ := s.MaxColors(orig); n != 128 {
		t.Fatalf("original max colors = %d, want 128", n)
	}
	if n, _ := s.MaxColors(clone); n != 8 {
		t.Fatalf("clone max colors = %d, want 8", n)
	}
}

func TestAttr_SetterRanges(t *testing.T) {
	s := newSession(t)
	h := mustAttr(t, s)

	tests := []struct {
		name string
		call func() error
		ok   bool
	}{
		{"colors 1", func() error { return s.SetMaxColors(h, 1) }, true},
		{"colors 256", func() error { return s.SetMaxColors(h, 256) }, true},
		{"colors 0", func() error { return s.SetMaxColors(h, 0) }, false},
		{"colors 257", func() error { return s.SetMaxColors(h, 257) }, false},
		{"speed 1", func() error { return s.SetSpeed(h, 1) }, true},
		{"speed 11", func() error { return s.SetSpeed(h, 11) }, true},
		{"speed 0", func() error { return s.SetSpeed(h, 0) }, false},
		{"posterize 2", func() error { return s.SetMinPosterization(h, 2) }, true},
		{"posterize 9", func() error { return s.SetMinPosterization(h, 9) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	if v, _ := s.Speed(h); v != 11 {
		t.Errorf("speed = %d after rejected update, want 11", v)
	}
	if v, _ := s.MinPosterization(h); v != 2 {
		t.Errorf("posterization = %d, want 2", v)
	}
}

func TestZeroHandle(t *testing.T) {
	s := newSession(t)

	checks := map[string]error{}
	_, checks["AttrCopy"] = s.AttrCopy(0)
	checks["AttrDestroy"] = s.AttrDestroy(0)
	checks["SetMaxColors"] = s.SetMaxColors(0, 10)
	checks["SetQuality"] = s.SetQuality(0, 50)
	checks["SetSpeed"] = s.SetSpeed(0, 3)
	checks["SetMinPosterization"] = s.SetMinPosterization(0, 1)
	_, checks["ImageCreate"] = s.ImageCreate(0, []byte{1, 2, 3}, 1, 1, 3)
	checks["AddFixedColor"] = s.AddFixedColor(0, 1, 2, 3, 4)
	_, checks["ImageWidth"] = s.ImageWidth(0)
	_, checks["ImageHeight"] = s.ImageHeight(0)
	checks["ImageDestroy"] = s.ImageDestroy(0)
	_, checks["Quantize"] = s.Quantize(0, 0)
	checks["SetDitheringLevel"] = s.SetDitheringLevel(0, 0.5)
	checks["SetOutputGamma"] = s.SetOutputGamma(0, 0.5)
	_, checks["OutputGamma"] = s.OutputGamma(0)
	_, checks["QuantizationError"] = s.QuantizationError(0)
	_, checks["QuantizationQuality"] = s.QuantizationQuality(0)
	checks["WriteRemappedImage"] = s.WriteRemappedImage(0, 0, make([]byte, 4))
	checks["ResultDestroy"] = s.ResultDestroy(0)
	_, checks["Palette"] = s.Palette(0)
	_, checks["PaletteCount"] = s.PaletteCount(0)
	_, checks["CopyPaletteData"] = s.CopyPaletteData(0, make([]byte, 16))

	for name, err := range checks {
		if !isKind(err, lerrors.PhaseHandle, lerrors.KindNullHandle) {
			t.Errorf("%s(0) = %v, want null handle error", name, err)
		}
	}
	if s.Live(0) {
		t.Error("Live(0) = true")
	}
}

func TestStaleAndMismatchedHandles(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)

	if err := s.AttrDestroy(attr); err != nil {
		t.Fatal(err)
	}
	if err := s.AttrDestroy(attr); !isKind(err, lerrors.PhaseHandle, lerrors.KindStaleHandle) {
		t.Fatalf("double destroy = %v", err)
	}
	if err := s.SetMaxColors(attr, 10); !isKind(err, lerrors.PhaseHandle, lerrors.KindStaleHandle) {
		t.Fatalf("use after destroy = %v", err)
	}

	attr2 := mustAttr(t, s)
	if _, err := s.ImageWidth(attr2); !isKind(err, lerrors.PhaseHandle, lerrors.KindKindMismatch) {
		t.Fatalf("attribute used as image = %v", err)
	}
	if err := s.ImageDestroy(attr2); !isKind(err, lerrors.PhaseHandle, lerrors.KindKindMismatch) {
		t.Fatalf("ImageDestroy(attribute) = %v", err)
	}
	if !s.Live(attr2) {
		t.Fatal("mismatched destroy removed the attribute")
	}
}

func TestImageCreate_Validation(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)

	tests := []struct {
		name       string
		raw        []byte
		w, h, comp int
		kind       lerrors.Kind
	}{
		{"absent buffer", nil, 1, 1, 4, lerrors.KindMissingBuffer},
		{"two components", make([]byte, 2), 1, 1, 2, lerrors.KindUnsupported},
		{"five components", make([]byte, 5), 1, 1, 5, lerrors.KindUnsupported},
		{"zero width", make([]byte, 4), 0, 1, 4, lerrors.KindOutOfRange},
		{"short", make([]byte, 7), 2, 1, 4, lerrors.KindBufferTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := s.ImageCreate(attr, tt.raw, tt.w, tt.h, tt.comp)
			if h != 0 {
				t.Fatalf("handle = %#x, want 0", uint64(h))
			}
			if !isKind(err, lerrors.PhaseImage, tt.kind) {
				t.Fatalf("err = %v, want image/%s", err, tt.kind)
			}
		})
	}

	if st := s.Stats(); st.Images != 0 {
		t.Fatalf("failed creates left %d images", st.Images)
	}
}

func TestImage_Dimensions(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)

	img, err := s.ImageCreate(attr, make([]byte, 5*3*3), 5, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	w, err := s.ImageWidth(img)
	if err != nil || w != 5 {
		t.Fatalf("ImageWidth = %d, %v", w, err)
	}
	h, err := s.ImageHeight(img)
	if err != nil || h != 3 {
		t.Fatalf("ImageHeight = %d, %v", h, err)
	}
}

func TestQuantizeAndRemap(t *testing.T) {
	for _, comp := range []int{3, 4} {
		for _, dims := range [][2]int{{1, 1}, {7, 3}, {32, 32}} {
			w, h := dims[0], dims[1]
			s := newSession(t)
			attr := mustAttr(t, s)
			_ = s.SetMaxColors(attr, 16)
			_ = s.SetSpeed(attr, 10)

			img, err := s.ImageCreate(attr, gradientBuf(w, h, comp), w, h, comp)
			if err != nil {
				t.Fatalf("%d comps %dx%d: ImageCreate: %v", comp, w, h, err)
			}
			res, err := s.Quantize(attr, img)
			if err != nil {
				t.Fatalf("%d comps %dx%d: Quantize: %v", comp, w, h, err)
			}
			_ = s.SetDitheringLevel(res, 1)

			size, err := s.RemappedSize(img)
			if err != nil || size != w*h {
				t.Fatalf("RemappedSize = %d, %v", size, err)
			}
			out := make([]byte, size)
			if err := s.WriteRemappedImage(res, img, out); err != nil {
				t.Fatalf("%d comps %dx%d: WriteRemappedImage: %v", comp, w, h, err)
			}

			pal, err := s.Palette(res)
			if err != nil {
				t.Fatal(err)
			}
			count, err := s.PaletteCount(pal)
			if err != nil || count < 1 || count > 16 {
				t.Fatalf("PaletteCount = %d, %v", count, err)
			}
			for i, idx := range out {
				if int(idx) >= count {
					t.Fatalf("%d comps %dx%d: pixel %d index %d >= %d", comp, w, h, i, idx, count)
				}
			}

			mse, err := s.QuantizationError(res)
			if err != nil || mse < 0 {
				t.Fatalf("QuantizationError = %v, %v", mse, err)
			}
			q, err := s.QuantizationQuality(res)
			if err != nil || q < 0 || q > 100 {
				t.Fatalf("QuantizationQuality = %d, %v", q, err)
			}
		}
	}
}

func TestWriteRemappedImage_Buffers(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	img, _ := s.ImageCreate(attr, gradientBuf(4, 4, 4), 4, 4, 4)
	res, err := s.Quantize(attr, img)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.WriteRemappedImage(res, img, nil); !isKind(err, lerrors.PhaseRemap, lerrors.KindMissingBuffer) {
		t.Fatalf("nil buffer = %v", err)
	}

	short := []byte{0xee, 0xee, 0xee}
	if err := s.WriteRemappedImage(res, img, short); !isKind(err, lerrors.PhaseRemap, lerrors.KindBufferTooSmall) {
		t.Fatalf("short buffer = %v", err)
	}
	for _, b := range short {
		if b != 0xee {
			t.Fatal("short buffer was written")
		}
	}

	long := make([]byte, 20)
	for i := range long {
		long[i] = 0xee
	}
	if err := s.WriteRemappedImage(res, img, long); err != nil {
		t.Fatal(err)
	}
	for _, b := range long[16:] {
		if b != 0xee {
			t.Fatal("bytes past width*height were written")
		}
	}
}

func TestPalette_CopyProtocol(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	colors := []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}
	img, _ := s.ImageCreate(attr, checker(3, 3, 4, colors), 3, 3, 4)
	res, err := s.Quantize(attr, img)
	if err != nil {
		t.Fatal(err)
	}
	pal, _ := s.Palette(res)

	size, err := s.PaletteSize(pal)
	if err != nil || size != 12 {
		t.Fatalf("PaletteSize = %d, %v", size, err)
	}

	short := make([]byte, size-1)
	for i := range short {
		short[i] = 0xaa
	}
	if _, err := s.CopyPaletteData(pal, short); !isKind(err, lerrors.PhasePalette, lerrors.KindBufferTooSmall) {
		t.Fatalf("short copy = %v", err)
	}
	for _, b := range short {
		if b != 0xaa {
			t.Fatal("short copy wrote into the buffer")
		}
	}

	if _, err := s.CopyPaletteData(pal, nil); !isKind(err, lerrors.PhasePalette, lerrors.KindMissingBuffer) {
		t.Fatalf("absent copy = %v", err)
	}

	buf := make([]byte, size)
	n, err := s.CopyPaletteData(pal, buf)
	if err != nil || n != size {
		t.Fatalf("CopyPaletteData = %d, %v", n, err)
	}
	seen := map[color.NRGBA]bool{}
	for i := 0; i < n; i += BytesPerEntry {
		seen[color.NRGBA{R: buf[i], G: buf[i+1], B: buf[i+2], A: buf[i+3]}] = true
	}
	for _, c := range colors {
		if !seen[c] {
			t.Errorf("palette data missing %v", c)
		}
	}
}

func TestPalette_StaleAfterResultDestroy(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	img, _ := s.ImageCreate(attr, []byte{255, 1, 2, 3}, 1, 1, 4)
	res, err := s.Quantize(attr, img)
	if err != nil {
		t.Fatal(err)
	}
	pal, err := s.Palette(res)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Live(pal) {
		t.Fatal("palette reference not live")
	}
	if _, err := s.PaletteCount(res); !isKind(err, lerrors.PhaseHandle, lerrors.KindKindMismatch) {
		t.Fatalf("PaletteCount(result) = %v", err)
	}

	if err := s.ResultDestroy(res); err != nil {
		t.Fatal(err)
	}
	if s.Live(pal) {
		t.Fatal("palette reference outlived its result")
	}
	if _, err := s.PaletteCount(pal); !isKind(err, lerrors.PhaseHandle, lerrors.KindStaleHandle) {
		t.Fatalf("PaletteCount after destroy = %v", err)
	}
}

func TestFixedColorOrdering(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	img, _ := s.ImageCreate(attr, gradientBuf(4, 4, 3), 4, 4, 3)

	if err := s.AddFixedColor(img, 0, 0, 0, 256); !isKind(err, lerrors.PhaseImage, lerrors.KindOutOfRange) {
		t.Fatalf("component 256 = %v", err)
	}
	if err := s.AddFixedColor(img, 9, 9, 9, 255); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.ImageState(img); st != pixel.StateBuilding {
		t.Fatalf("state = %v", st)
	}

	if _, err := s.Quantize(attr, img); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.ImageState(img); st != pixel.StateFrozen {
		t.Fatalf("state after quantize = %v", st)
	}
	if err := s.AddFixedColor(img, 1, 1, 1, 255); !isKind(err, lerrors.PhaseImage, lerrors.KindInvalidState) {
		t.Fatalf("AddFixedColor after quantize = %v", err)
	}
}

func TestQuantize_QualityTooLow(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	_ = s.SetMaxColors(attr, 2)
	_ = s.SetQualityRange(attr, 100, 100)

	img, _ := s.ImageCreate(attr, gradientBuf(8, 8, 4), 8, 8, 4)
	res, err := s.Quantize(attr, img)
	if res != 0 {
		t.Fatalf("result = %#x, want 0", uint64(res))
	}
	if !isKind(err, lerrors.PhaseQuantize, lerrors.KindEngine) {
		t.Fatalf("err = %v", err)
	}
	if code, ok := lerrors.EngineCause(err); !ok || code.Error() != "quality too low" {
		t.Fatalf("EngineCause = %v, %v", code, ok)
	}
	if st, _ := s.ImageState(img); st != pixel.StateBuilding {
		t.Fatalf("failed quantize froze the image: %v", st)
	}
}

func TestResult_GammaAndDither(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	img, _ := s.ImageCreate(attr, []byte{128, 128, 128}, 1, 1, 3)
	res, err := s.Quantize(attr, img)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetOutputGamma(res, 0); !isKind(err, lerrors.PhasePalette, lerrors.KindOutOfRange) {
		t.Fatalf("gamma 0 = %v", err)
	}
	if err := s.SetOutputGamma(res, 0.8); err != nil {
		t.Fatal(err)
	}
	if g, err := s.OutputGamma(res); err != nil || g != 0.8 {
		t.Fatalf("OutputGamma = %v, %v", g, err)
	}

	for _, bad := range []float32{-1, 1.5} {
		if err := s.SetDitheringLevel(res, bad); !isKind(err, lerrors.PhaseRemap, lerrors.KindOutOfRange) {
			t.Errorf("dither %v = %v", bad, err)
		}
	}
}

func TestRemap_OneShot(t *testing.T) {
	s := newSession(t)
	attr := mustAttr(t, s)
	_ = s.SetMaxColors(attr, 4)

	src := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 90, A: 255})
		}
	}

	out, err := s.Remap(attr, src, 0.5)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}
	if out.Image.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v", out.Image.Bounds())
	}
	if len(out.Image.Palette) < 1 || len(out.Image.Palette) > 4 {
		t.Fatalf("palette size = %d", len(out.Image.Palette))
	}
	for _, idx := range out.Image.Pix {
		if int(idx) >= len(out.Image.Palette) {
			t.Fatalf("index %d out of palette", idx)
		}
	}
	if out.Quality < 0 || out.Quality > 100 || out.MSE < 0 {
		t.Fatalf("quality %d mse %v", out.Quality, out.MSE)
	}

	st := s.Stats()
	if st.Images != 0 || st.Results != 0 || st.Attributes != 1 {
		t.Fatalf("Remap leaked handles: %+v", st)
	}
}

func TestSession_CloseAndLimits(t *testing.T) {
	s := NewSession(Config{MaxHandles: 2})
	a1 := mustAttr(t, s)
	_ = mustAttr(t, s)
	if _, err := s.AttrCreate(); !isKind(err, lerrors.PhaseHandle, lerrors.KindAllocation) {
		t.Fatalf("third create = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MaxColors(a1); !isKind(err, lerrors.PhaseHandle, lerrors.KindClosed) {
		t.Fatalf("use after Close = %v", err)
	}
}

func TestSession_LogsLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSession(Config{Logger: zap.New(core)})
	defer s.Close()

	h := mustAttr(t, s)
	_ = s.AttrDestroy(h)
	_ = s.AttrDestroy(h)

	if n := logs.FilterMessage("handle created").Len(); n != 1 {
		t.Errorf("created logs = %d", n)
	}
	if n := logs.FilterMessage("handle dropped").Len(); n != 1 {
		t.Errorf("dropped logs = %d", n)
	}
	rejected := logs.FilterMessage("handle rejected").All()
	if len(rejected) != 1 {
		t.Fatalf("rejected logs = %d", len(rejected))
	}
	if _, ok := rejected[0].ContextMap()["error"]; !ok {
		t.Error("rejected log has no error field")
	}
}
