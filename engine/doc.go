// Package engine is a pure Go colour quantizer with a libimagequant-shaped
// object model.
//
// # Objects
//
//	Attr    - settings: palette size, quality range, speed, posterization
//	Image   - a pixel source the engine pulls rows from through a RowFunc
//	Result  - a chosen palette plus dithering and output gamma controls
//
// # Flow
//
//  1. NewAttr() and its setters configure quantization
//  2. NewImageCustom() wraps a row producer; AddFixedColor() reserves entries
//  3. Quantize() builds a histogram, clusters it and returns a Result
//  4. Result.WriteRemappedImage() maps every pixel to a palette index
//
// Rows are requested synchronously on the calling goroutine, once per row
// for each pass over the image. The engine never retains a row buffer across
// calls.
//
// # Palette Selection
//
// Colours are counted after posterization. When the distinct colours fit in
// the palette they are used as is. Otherwise k-means over Lab coordinates
// (github.com/muesli/kmeans) seeds the palette, which is then refined against
// the weighted histogram in premultiplied RGBA until the maximum quality is
// reached or the speed-dependent iteration budget runs out.
//
// # Errors
//
// Every failure is an Error value. Callers that need a coarser contract map
// any non-nil error to a single failure code.
package engine
