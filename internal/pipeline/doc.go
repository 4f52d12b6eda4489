// Package pipeline runs a per-record function over an ordered record stream
// with a pool of workers, re-serializing results so the sink sees them in
// exactly the order the source produced them.
//
// The only contracts to implement are the next/apply/sink callbacks passed
// to Run. This keeps the pool generic and testable without any sequence I/O.
package pipeline
