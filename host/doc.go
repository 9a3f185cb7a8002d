// Package host exposes the bridge to WebAssembly guests through wazero.
//
// Instantiate registers every catalog function under one import module
// (default "liq"). Guests pass handles as i64, scalars as i32/f32/f64 and
// buffers as (pointer, length) pairs into their own exported memory; pointer
// 0 means the buffer is absent.
//
//	(import "liq" "quantize_image" (func (param i64 i64) (result i64)))
//	(import "liq" "get_palette_bytes" (func (param i64 i32 i32) (result i32)))
//
// Accesses outside the guest's memory are logged at Warn and reported to
// the guest as ERROR or the operation's sentinel; they never trap.
//
// Runner bundles a runtime, WASI preview1 and the host module for running
// guest commands.
package host
