// Package liqbridge lets a caller that can only pass integers, floats and byte
// buffers drive a colour-quantization engine built from rich Go objects.
//
// The bridge hands out opaque 64-bit handles for engine objects, adapts
// caller-packed pixel bytes into the engine's canonical colour rows, and
// exposes variable-length outputs (palette, remapped image) through a
// query-then-fill protocol.
//
// # Architecture Overview
//
//	liqbridge/        Root package with Status codes, sentinels, Memory and Allocator
//	├── resource/     Generation-checked handle tables, handle encoding
//	├── errors/       Structured error types and the OK/ERROR mapper
//	├── engine/       Pure Go quantization engine (palette, remap, dithering)
//	├── pixel/        Caller pixel layouts and the row-producing pixel source
//	├── liq/          Typed API with explicit (value, error) results
//	├── bridge/       Primitive-only surface and its function catalog
//	├── host/         wazero host module exposing the bridge to WASM guests
//	└── cmd/liqquant  Batch compressor, analyzer and interactive explorer
//
// # Quick Start
//
// Drive the primitive surface directly:
//
//	b := bridge.New(bridge.DefaultConfig())
//	defer b.Close()
//
//	attr := b.AttrCreate()
//	defer b.AttrDestroy(attr)
//	b.SetMaxColors(attr, 16)
//
//	img := b.ImageCreate(attr, pixels, width, height, 4)
//	defer b.ImageDestroy(img)
//
//	res := b.Quantize(attr, img)
//	defer b.ResultDestroy(res)
//
//	indices := make([]byte, width*height)
//	b.WriteRemappedImage(res, img, indices, int32(len(indices)))
//
// # Handles
//
// Every handle is an int64. Zero never names an object. Handles carry a kind
// tag and a slot generation, so a destroyed, double-destroyed or mismatched
// handle yields ERROR or a sentinel instead of undefined behaviour.
//
// # Thread Safety
//
// Handle tables are safe for concurrent use. Concurrent calls on the same
// handle still need caller-side synchronization, because engine objects are
// not internally locked.
//
// # Memory Model
//
// Nothing is reclaimed automatically. The caller destroys every handle it
// creates; Close on a bridge releases whatever is left.
package liqbridge
