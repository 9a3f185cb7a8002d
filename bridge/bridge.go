package bridge

import (
	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/liq"
	"github.com/wippyai/liqbridge/resource"
)

// Config configures a Bridge.
type Config struct {
	Session liq.Config
}

// DefaultConfig returns the default bridge configuration.
func DefaultConfig() Config {
	return Config{Session: liq.DefaultConfig()}
}

// Bridge is the primitive-only surface: handles are int64, setters return
// an int32 status, accessors return documented sentinels for handles that
// do not name a live object. No call panics, whatever the handle value.
type Bridge struct {
	s *liq.Session
}

// New creates a bridge over a fresh session.
func New(cfg Config) *Bridge {
	return &Bridge{s: liq.NewSession(cfg.Session)}
}

// Session exposes the typed session the bridge flattens.
func (b *Bridge) Session() *liq.Session {
	return b.s
}

// Close releases every object still live.
func (b *Bridge) Close() error {
	return b.s.Close()
}

func handle(h int64) resource.Handle {
	return resource.Handle(uint64(h))
}

func wire(h resource.Handle) int64 {
	return int64(h)
}

func status(err error) int32 {
	return int32(errors.Status(err))
}

// buffer returns the first capacity bytes of buf, or false when buf is
// absent or capacity is negative.
func buffer(buf []byte, capacity int32) ([]byte, bool) {
	if buf == nil || capacity < 0 {
		return nil, false
	}
	return buf[:min(len(buf), int(capacity))], true
}

// Attribute

// AttrCreate returns a new attribute handle with default settings, or 0.
func (b *Bridge) AttrCreate() int64 {
	h, _ := b.s.AttrCreate()
	return wire(h)
}

// AttrCopy returns an independent copy of h, or 0 when h is invalid.
func (b *Bridge) AttrCopy(h int64) int64 {
	c, _ := b.s.AttrCopy(handle(h))
	return wire(c)
}

// AttrDestroy releases h. Invalid or stale handles are ignored.
func (b *Bridge) AttrDestroy(h int64) {
	_ = b.s.AttrDestroy(handle(h))
}

// SetMaxColors returns OK for 1..256 colours and ERROR otherwise.
func (b *Bridge) SetMaxColors(h int64, colors int32) int32 {
	return status(b.s.SetMaxColors(handle(h), int(colors)))
}

// SetQuality sets the range [target/2, target].
func (b *Bridge) SetQuality(h int64, target int32) int32 {
	return status(b.s.SetQuality(handle(h), int(target)))
}

// SetQualityRange returns ERROR unless 0 <= min <= max <= 100.
func (b *Bridge) SetQualityRange(h int64, min, max int32) int32 {
	return status(b.s.SetQualityRange(handle(h), int(min), int(max)))
}

// SetSpeed returns OK for speeds 1..11 and ERROR otherwise.
func (b *Bridge) SetSpeed(h int64, speed int32) int32 {
	return status(b.s.SetSpeed(handle(h), int(speed)))
}

// SetMinPosterization returns OK for 0..4 bits and ERROR otherwise.
func (b *Bridge) SetMinPosterization(h int64, bits int32) int32 {
	return status(b.s.SetMinPosterization(handle(h), int(bits)))
}

// Pixel source

// ImageCreate copies raw into a new pixel source. components is 3 (R, G, B)
// or 4 (A, B, G, R). Returns 0 on any failure.
func (b *Bridge) ImageCreate(attr int64, raw []byte, width, height, components int32) int64 {
	h, _ := b.s.ImageCreate(handle(attr), raw, int(width), int(height), int(components))
	return wire(h)
}

// ImageDestroy releases h and its pixel copy. Invalid handles are ignored.
func (b *Bridge) ImageDestroy(h int64) {
	_ = b.s.ImageDestroy(handle(h))
}

// AddFixedColor reserves a palette entry. Returns ERROR for components
// outside 0..255, an invalid handle or an image already quantized.
func (b *Bridge) AddFixedColor(h int64, r, g, bl, a int32) int32 {
	return status(b.s.AddFixedColor(handle(h), int(r), int(g), int(bl), int(a)))
}

// Width returns the image width, or SentinelWidth for an invalid handle.
func (b *Bridge) Width(h int64) int32 {
	w, err := b.s.ImageWidth(handle(h))
	if err != nil {
		return liqbridge.SentinelWidth
	}
	return int32(w)
}

// Height returns the image height, or SentinelHeight for an invalid handle.
func (b *Bridge) Height(h int64) int32 {
	v, err := b.s.ImageHeight(handle(h))
	if err != nil {
		return liqbridge.SentinelHeight
	}
	return int32(v)
}

// Result

// Quantize returns a result handle, or 0 when either input is invalid or the
// engine fails for any reason.
func (b *Bridge) Quantize(attr, img int64) int64 {
	h, _ := b.s.Quantize(handle(attr), handle(img))
	return wire(h)
}

// ResultDestroy releases h; palette references from it go stale.
func (b *Bridge) ResultDestroy(h int64) {
	_ = b.s.ResultDestroy(handle(h))
}

// SetDitheringLevel returns OK for levels in 0..1 and ERROR otherwise.
func (b *Bridge) SetDitheringLevel(h int64, level float32) int32 {
	return status(b.s.SetDitheringLevel(handle(h), level))
}

// SetGamma sets the output gamma. Returns ERROR unless 0 < gamma < 1.
func (b *Bridge) SetGamma(h int64, gamma float64) int32 {
	return status(b.s.SetOutputGamma(handle(h), gamma))
}

// Gamma returns the output gamma, or SentinelGamma for an invalid handle.
func (b *Bridge) Gamma(h int64) float64 {
	g, err := b.s.OutputGamma(handle(h))
	if err != nil {
		return liqbridge.SentinelGamma
	}
	return g
}

// MeanSquareError returns the quantization error, or SentinelMSE (-1) for
// an invalid handle. Valid results never report a negative error.
func (b *Bridge) MeanSquareError(h int64) float64 {
	mse, err := b.s.QuantizationError(handle(h))
	if err != nil {
		return liqbridge.SentinelMSE
	}
	return mse
}

// Quality returns the achieved quality, or SentinelQuality for an invalid
// handle.
func (b *Bridge) Quality(h int64) int32 {
	q, err := b.s.QuantizationQuality(handle(h))
	if err != nil {
		return liqbridge.SentinelQuality
	}
	return int32(q)
}

// WriteRemappedImage writes width*height palette indices into the first
// capacity bytes of out.
func (b *Bridge) WriteRemappedImage(res, img int64, out []byte, capacity int32) int32 {
	buf, ok := buffer(out, capacity)
	if !ok {
		return int32(liqbridge.StatusError)
	}
	return status(b.s.WriteRemappedImage(handle(res), handle(img), buf))
}

// Palette

// Palette returns a palette reference valid while res is live, or 0.
func (b *Bridge) Palette(res int64) int64 {
	p, _ := b.s.Palette(handle(res))
	return wire(p)
}

// PaletteCount returns the entry count, or SentinelCount for an invalid
// reference.
func (b *Bridge) PaletteCount(p int64) int32 {
	n, err := b.s.PaletteCount(handle(p))
	if err != nil {
		return liqbridge.SentinelCount
	}
	return int32(n)
}

// CopyPaletteData packs count*4 bytes of R, G, B, A entries into buf.
// Returns ERROR without writing when buf is absent or capacity is short.
func (b *Bridge) CopyPaletteData(p int64, buf []byte, capacity int32) int32 {
	dst, ok := buffer(buf, capacity)
	if !ok {
		return int32(liqbridge.StatusError)
	}
	_, err := b.s.CopyPaletteData(handle(p), dst)
	return status(err)
}

// PaletteBytes is the size-query half of the palette protocol, keyed by
// result. With an absent or empty buffer it returns the required byte count;
// otherwise it copies the entries and returns the bytes written. Returns
// SentinelSize (-1) on any failure.
func (b *Bridge) PaletteBytes(res int64, buf []byte, capacity int32) int32 {
	p, err := b.s.Palette(handle(res))
	if err != nil {
		return liqbridge.SentinelSize
	}
	if len(buf) == 0 {
		n, err := b.s.PaletteSize(p)
		if err != nil {
			return liqbridge.SentinelSize
		}
		return int32(n)
	}
	dst, ok := buffer(buf, capacity)
	if !ok {
		return liqbridge.SentinelSize
	}
	n, err := b.s.CopyPaletteData(p, dst)
	if err != nil {
		return liqbridge.SentinelSize
	}
	return int32(n)
}

// Diagnostics

// Version returns the engine version number.
func (b *Bridge) Version() int32 {
	return int32(engine.Version())
}

// IsValidHandle returns OK when h names a live object of any kind.
func (b *Bridge) IsValidHandle(h int64) int32 {
	if b.s.Live(handle(h)) {
		return int32(liqbridge.StatusOK)
	}
	return int32(liqbridge.StatusError)
}
