// Package bridge flattens the liq session into calls that take and return
// only int32, int64, float32, float64 and byte buffers.
//
// Every method is total: an invalid, destroyed or mismatched handle yields
// StatusError, a zero handle or one of the documented sentinels, never a
// panic. Outputs of variable length follow a query-then-fill protocol: ask
// for the size, allocate, then pass the buffer with its capacity.
//
// The same surface is described by Functions as a catalog of flat
// functions over a uint64 value stack. The host package registers that
// catalog as a wazero host module, and Arena lets Go code drive it against
// an in-process linear memory.
package bridge
