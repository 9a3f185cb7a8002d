// Package pixel adapts caller-packed pixel bytes to the engine's canonical
// colour rows.
//
// Two packings are supported, selected by bytes per pixel:
//
//	3  R, G, B        alpha is implicitly 255
//	4  A, B, G, R     reversed order, not RGBA
//
// A Source copies the caller buffer once at construction and never touches
// caller memory again. The engine pulls rows from the copy through NextRow
// whenever it needs them.
//
// # State
//
//	Building --quantize--> Frozen --Drop--> Released
//
// Fixed colours may only be added while Building.
package pixel
