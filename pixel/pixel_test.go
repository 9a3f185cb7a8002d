package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/wippyai/liqbridge/engine"
	lerrors "github.com/wippyai/liqbridge/errors"
)

func TestLayout_Decode(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		src    []byte
		want   []color.NRGBA
	}{
		{
			name:   "ABGR red",
			layout: LayoutABGR,
			src:    []byte{255, 0, 0, 255},
			want:   []color.NRGBA{{R: 255, G: 0, B: 0, A: 255}},
		},
		{
			name:   "ABGR byte order",
			layout: LayoutABGR,
			src:    []byte{0x40, 0x30, 0x20, 0x10, 0xff, 0x03, 0x02, 0x01},
			want: []color.NRGBA{
				{R: 0x10, G: 0x20, B: 0x30, A: 0x40},
				{R: 0x01, G: 0x02, B: 0x03, A: 0xff},
			},
		},
		{
			name:   "RGB implicit alpha",
			layout: LayoutRGB,
			src:    []byte{10, 20, 30},
			want:   []color.NRGBA{{R: 10, G: 20, B: 30, A: 255}},
		},
		{
			name:   "RGB two pixels",
			layout: LayoutRGB,
			src:    []byte{1, 2, 3, 4, 5, 6},
			want:   []color.NRGBA{{R: 1, G: 2, B: 3, A: 255}, {R: 4, G: 5, B: 6, A: 255}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]color.NRGBA, len(tt.want))
			tt.layout.Decode(got, tt.src)
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pixel %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLayout_EncodeInvertsDecode(t *testing.T) {
	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	for _, l := range []Layout{LayoutABGR, LayoutRGB} {
		buf := make([]byte, l.Components())
		l.Encode(buf, c)
		got := make([]color.NRGBA, 1)
		l.Decode(got, buf)

		want := c
		if l == LayoutRGB {
			want.A = 255
		}
		if got[0] != want {
			t.Errorf("%v: got %v, want %v", l, got[0], want)
		}
	}
}

func TestLayoutFor(t *testing.T) {
	for _, n := range []int{3, 4} {
		l, err := LayoutFor(n)
		if err != nil || l.Components() != n {
			t.Errorf("LayoutFor(%d) = %v, %v", n, l, err)
		}
	}
	for _, n := range []int{0, 1, 2, 5, -4} {
		_, err := LayoutFor(n)
		if !errors.Is(err, &lerrors.Error{Phase: lerrors.PhaseImage, Kind: lerrors.KindUnsupported}) {
			t.Errorf("LayoutFor(%d) err = %v", n, err)
		}
		if want := fmt.Sprintf("component count %d is not 3", n); !strings.Contains(err.Error(), want) {
			t.Errorf("LayoutFor(%d) err = %q, want %q", n, err, want)
		}
	}
}

func TestNewSource_Validation(t *testing.T) {
	attr := engine.NewAttr()

	tests := []struct {
		name       string
		attr       *engine.Attr
		raw        []byte
		w, h, comp int
		kind       lerrors.Kind
	}{
		{"nil attr", nil, make([]byte, 4), 1, 1, 4, lerrors.KindInvalidInput},
		{"nil buffer", attr, nil, 1, 1, 4, lerrors.KindMissingBuffer},
		{"bad components", attr, make([]byte, 8), 1, 1, 2, lerrors.KindUnsupported},
		{"zero width", attr, make([]byte, 4), 0, 1, 4, lerrors.KindOutOfRange},
		{"negative height", attr, make([]byte, 4), 1, -1, 4, lerrors.KindOutOfRange},
		{"short buffer", attr, make([]byte, 11), 2, 2, 3, lerrors.KindBufferTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource(tt.attr, tt.raw, tt.w, tt.h, tt.comp)
			var le *lerrors.Error
			if !errors.As(err, &le) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if le.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", le.Kind, tt.kind)
			}
			if le.Phase != lerrors.PhaseImage {
				t.Fatalf("phase = %s, want %s", le.Phase, lerrors.PhaseImage)
			}
			if tt.attr == nil && le.Detail != "attribute is absent" {
				t.Fatalf("detail = %q", le.Detail)
			}
		})
	}
}

func TestSource_OwnsCopy(t *testing.T) {
	raw := []byte{255, 0, 0, 255}
	s, err := NewSource(engine.NewAttr(), raw, 1, 1, 4)
	if err != nil {
		t.Fatal(err)
	}

	raw[3] = 0
	row := make([]color.NRGBA, 1)
	s.NextRow(0, row)
	if row[0] != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("row = %v; source must not alias caller buffer", row[0])
	}
}

func TestSource_NextRow(t *testing.T) {
	raw := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	s, err := NewSource(engine.NewAttr(), raw, 2, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if s.Width() != 2 || s.Height() != 2 || s.Layout() != LayoutRGB {
		t.Fatalf("got %dx%d %v", s.Width(), s.Height(), s.Layout())
	}

	row := make([]color.NRGBA, 2)
	s.NextRow(1, row)
	want := []color.NRGBA{{R: 7, G: 8, B: 9, A: 255}, {R: 10, G: 11, B: 12, A: 255}}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}

	s.NextRow(5, row)
	if row[0] != (color.NRGBA{}) || row[1] != (color.NRGBA{}) {
		t.Errorf("out of range row = %v", row)
	}
}

func TestSource_StateMachine(t *testing.T) {
	s, err := NewSource(engine.NewAttr(), make([]byte, 16), 2, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateBuilding {
		t.Fatalf("initial state = %v", s.State())
	}

	if err := s.AddFixedColor(color.NRGBA{R: 9, A: 255}); err != nil {
		t.Fatalf("AddFixedColor while building: %v", err)
	}

	if err := s.Freeze(); err != nil {
		t.Fatal(err)
	}
	err = s.AddFixedColor(color.NRGBA{A: 255})
	if !errors.Is(err, &lerrors.Error{Phase: lerrors.PhaseImage, Kind: lerrors.KindInvalidState}) {
		t.Fatalf("AddFixedColor while frozen: %v", err)
	}

	s.Drop()
	if s.State() != StateReleased || s.Image() != nil {
		t.Fatalf("after Drop: state %v image %v", s.State(), s.Image())
	}
	if err := s.Freeze(); err == nil {
		t.Fatal("Freeze after Drop succeeded")
	}

	row := make([]color.NRGBA, 2)
	row[0] = color.NRGBA{R: 1}
	s.NextRow(0, row)
	if row[0] != (color.NRGBA{}) {
		t.Fatal("released source served pixel data")
	}
}

func TestSource_QuantizeThroughEngine(t *testing.T) {
	attr := engine.NewAttr()
	raw := []byte{
		255, 0, 0, 255, 255, 0, 255, 0,
		255, 255, 0, 0, 255, 0, 0, 255,
	}
	s, err := NewSource(attr, raw, 2, 2, 4)
	if err != nil {
		t.Fatal(err)
	}

	res, err := engine.Quantize(attr, s.Image())
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 3 {
		t.Fatalf("palette has %d entries, want 3", res.Len())
	}

	out := make([]byte, 4)
	if err := res.WriteRemappedImage(s.Image(), out); err != nil {
		t.Fatal(err)
	}
	pal := res.Palette()
	want := []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}, {R: 255, A: 255}}
	for i, idx := range out {
		if pal[idx] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, pal[idx], want[i])
		}
	}
}

func TestPack(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	img.SetNRGBA(1, 0, color.NRGBA{R: 5, G: 6, B: 7, A: 255})

	abgr := Pack(img, LayoutABGR)
	wantABGR := []byte{4, 3, 2, 1, 255, 7, 6, 5}
	if string(abgr) != string(wantABGR) {
		t.Errorf("ABGR = %v, want %v", abgr, wantABGR)
	}

	rgb := Pack(img, LayoutRGB)
	wantRGB := []byte{1, 2, 3, 5, 6, 7}
	if string(rgb) != string(wantRGB) {
		t.Errorf("RGB = %v, want %v", rgb, wantRGB)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 200
	if got := Pack(gray, LayoutRGB); string(got) != string([]byte{200, 200, 200}) {
		t.Errorf("gray RGB = %v", got)
	}
}

func TestPaletted(t *testing.T) {
	pal := []color.NRGBA{{R: 255, A: 255}, {B: 255, A: 255}}
	img := Paletted([]byte{1, 0}, pal, 2, 1)
	if img.ColorIndexAt(0, 0) != 1 || img.ColorIndexAt(1, 0) != 0 {
		t.Fatalf("indices = %v", img.Pix)
	}
}
