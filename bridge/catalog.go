package bridge

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/errors"
)

// Function describes one bridge operation in the flat calling convention
// shared by the wasm host module and the explorer: every argument and result
// is a single core value on a uint64 stack, and each buffer is a pair of i32
// (pointer, length) into caller memory where pointer 0 means absent.
type Function struct {
	Name    string
	Doc     string
	Params  []liqbridge.ValueType
	Results []liqbridge.ValueType
	// Call reads Params from stack and writes Results to its front. mem is
	// only consulted for buffer arguments and may be nil otherwise.
	Call func(ctx context.Context, mem liqbridge.Memory, stack []uint64)
}

const (
	i32 = liqbridge.ValueI32
	i64 = liqbridge.ValueI64
	f32 = liqbridge.ValueF32
	f64 = liqbridge.ValueF64
)

func types(ts ...liqbridge.ValueType) []liqbridge.ValueType { return ts }

// view resolves a (pointer, length) pair. ok is false when the range is not
// inside mem; a zero pointer yields (nil, true).
func view(mem liqbridge.Memory, ptr, length uint64) (buf []byte, ok bool) {
	p, n := api.DecodeU32(ptr), api.DecodeU32(length)
	if p == 0 {
		return nil, true
	}
	if mem == nil || int32(n) < 0 {
		return nil, false
	}
	b, err := mem.Read(p, n)
	if err != nil {
		return nil, false
	}
	return b, true
}

func h(v uint64) int64 { return int64(v) }

func okStatus() uint64  { return api.EncodeI32(int32(liqbridge.StatusOK)) }
func errStatus() uint64 { return api.EncodeI32(int32(liqbridge.StatusError)) }

// Functions returns the catalog of bridge operations, sorted by name.
func (b *Bridge) Functions() []Function {
	fns := []Function{
		{
			Name: "attr_create", Doc: "create an attribute; 0 on failure",
			Results: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI64(b.AttrCreate())
			},
		},
		{
			Name: "attr_copy", Doc: "clone an attribute; 0 on failure",
			Params: types(i64), Results: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI64(b.AttrCopy(h(s[0])))
			},
		},
		{
			Name: "attr_destroy", Doc: "release an attribute",
			Params: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				b.AttrDestroy(h(s[0]))
			},
		},
		{
			Name: "set_max_colors", Doc: "palette size 1..256",
			Params: types(i64, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetMaxColors(h(s[0]), api.DecodeI32(s[1])))
			},
		},
		{
			Name: "set_quality", Doc: "quality range [target/2, target]",
			Params: types(i64, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetQuality(h(s[0]), api.DecodeI32(s[1])))
			},
		},
		{
			Name: "set_quality_range", Doc: "explicit quality range min..max",
			Params: types(i64, i32, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetQualityRange(h(s[0]), api.DecodeI32(s[1]), api.DecodeI32(s[2])))
			},
		},
		{
			Name: "set_speed", Doc: "speed 1 (best) .. 11 (fastest)",
			Params: types(i64, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetSpeed(h(s[0]), api.DecodeI32(s[1])))
			},
		},
		{
			Name: "set_min_posterization", Doc: "drop 0..4 low bits per channel",
			Params: types(i64, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetMinPosterization(h(s[0]), api.DecodeI32(s[1])))
			},
		},
		{
			Name: "image_create", Doc: "(attr, ptr, len, width, height, components) -> image; 0 on failure",
			Params: types(i64, i32, i32, i32, i32, i32), Results: types(i64),
			Call: func(_ context.Context, mem liqbridge.Memory, s []uint64) {
				raw, ok := view(mem, s[1], s[2])
				if !ok {
					s[0] = api.EncodeI64(liqbridge.NullHandle)
					return
				}
				s[0] = api.EncodeI64(b.ImageCreate(h(s[0]), raw,
					api.DecodeI32(s[3]), api.DecodeI32(s[4]), api.DecodeI32(s[5])))
			},
		},
		{
			Name: "image_destroy", Doc: "release a pixel source",
			Params: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				b.ImageDestroy(h(s[0]))
			},
		},
		{
			Name: "add_fixed_color", Doc: "(image, r, g, b, a) reserve a palette entry before quantize",
			Params: types(i64, i32, i32, i32, i32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.AddFixedColor(h(s[0]),
					api.DecodeI32(s[1]), api.DecodeI32(s[2]), api.DecodeI32(s[3]), api.DecodeI32(s[4])))
			},
		},
		{
			Name: "get_width", Doc: "image width; 0 for an invalid handle",
			Params: types(i64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.Width(h(s[0])))
			},
		},
		{
			Name: "get_height", Doc: "image height; 0 for an invalid handle",
			Params: types(i64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.Height(h(s[0])))
			},
		},
		{
			Name: "quantize_image", Doc: "(attr, image) -> result; 0 on failure",
			Params: types(i64, i64), Results: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI64(b.Quantize(h(s[0]), h(s[1])))
			},
		},
		{
			Name: "result_destroy", Doc: "release a result and its palette",
			Params: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				b.ResultDestroy(h(s[0]))
			},
		},
		{
			Name: "set_dithering_level", Doc: "error diffusion 0.0..1.0",
			Params: types(i64, f32), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetDitheringLevel(h(s[0]), api.DecodeF32(s[1])))
			},
		},
		{
			Name: "set_gamma", Doc: "output gamma, 0 < gamma < 1",
			Params: types(i64, f64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.SetGamma(h(s[0]), api.DecodeF64(s[1])))
			},
		},
		{
			Name: "get_gamma", Doc: "output gamma; 0.0 for an invalid handle",
			Params: types(i64), Results: types(f64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeF64(b.Gamma(h(s[0])))
			},
		},
		{
			Name: "get_mean_square_error", Doc: "quantization error; -1.0 for an invalid handle",
			Params: types(i64), Results: types(f64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeF64(b.MeanSquareError(h(s[0])))
			},
		},
		{
			Name: "get_quality", Doc: "achieved quality 0..100; 0 for an invalid handle",
			Params: types(i64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.Quality(h(s[0])))
			},
		},
		{
			Name: "write_remapped_image", Doc: "(result, image, ptr, capacity) write width*height indices",
			Params: types(i64, i64, i32, i32), Results: types(i32),
			Call: func(_ context.Context, mem liqbridge.Memory, s []uint64) {
				out, ok := view(mem, s[2], s[3])
				if !ok {
					s[0] = errStatus()
					return
				}
				s[0] = api.EncodeI32(b.WriteRemappedImage(h(s[0]), h(s[1]), out, int32(len(out))))
			},
		},
		{
			Name: "get_palette", Doc: "(result) -> palette reference; 0 for an invalid handle",
			Params: types(i64), Results: types(i64),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI64(b.Palette(h(s[0])))
			},
		},
		{
			Name: "get_palette_count", Doc: "palette entries; 0 for an invalid reference",
			Params: types(i64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.PaletteCount(h(s[0])))
			},
		},
		{
			Name: "copy_palette_data", Doc: "(palette, ptr, capacity) copy count*4 RGBA bytes",
			Params: types(i64, i32, i32), Results: types(i32),
			Call: func(_ context.Context, mem liqbridge.Memory, s []uint64) {
				buf, ok := view(mem, s[1], s[2])
				if !ok {
					s[0] = errStatus()
					return
				}
				s[0] = api.EncodeI32(b.CopyPaletteData(h(s[0]), buf, int32(len(buf))))
			},
		},
		{
			Name: "get_palette_bytes", Doc: "(result, ptr, capacity) required size if ptr or capacity is 0, else bytes copied; -1 on failure",
			Params: types(i64, i32, i32), Results: types(i32),
			Call: func(_ context.Context, mem liqbridge.Memory, s []uint64) {
				buf, ok := view(mem, s[1], s[2])
				if !ok {
					s[0] = api.EncodeI32(liqbridge.SentinelSize)
					return
				}
				s[0] = api.EncodeI32(b.PaletteBytes(h(s[0]), buf, int32(len(buf))))
			},
		},
		{
			Name: "version", Doc: "engine version number",
			Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.Version())
			},
		},
		{
			Name: "is_valid_handle", Doc: "OK when the handle names a live object",
			Params: types(i64), Results: types(i32),
			Call: func(_ context.Context, _ liqbridge.Memory, s []uint64) {
				s[0] = api.EncodeI32(b.IsValidHandle(h(s[0])))
			},
		},
	}

	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
	return fns
}

// Lookup returns the catalog entry named name.
func (b *Bridge) Lookup(name string) (Function, bool) {
	for _, fn := range b.Functions() {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// StackSize returns the number of stack slots fn needs.
func (fn Function) StackSize() int {
	return max(len(fn.Params), len(fn.Results), 1)
}

// Invoke runs the named catalog function with raw stack arguments and returns
// its raw results.
func (b *Bridge) Invoke(ctx context.Context, mem liqbridge.Memory, name string, args ...uint64) ([]uint64, error) {
	fn, ok := b.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "function", name)
	}
	if len(args) != len(fn.Params) {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Op(name).
			Value(len(args)).
			Detail("expected %d arguments, got %d", len(fn.Params), len(args)).
			Build()
	}
	stack := make([]uint64, fn.StackSize())
	copy(stack, args)
	fn.Call(ctx, mem, stack)
	return stack[:len(fn.Results)], nil
}
