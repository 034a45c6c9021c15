// Package tablestore stores timeline rows, each a column.Set under a
// (timeline, sequence) primary key, in Pebble.
//
// # Keyspace
//
// Keys are lexicographically ordered for efficient range scans:
//   - tl/{table}/meta                                  table metadata (JSON)
//   - tl/{table}/last                                  highest sequence written (be8)
//   - tl/{table}/r/{timeline}\x00{seq_be8}/{column}    one cell per column
//
// Cells are CBOR-encoded typed values.
//
// # Row model
//
// PutRow writes the given cells and leaves the row's other cells alone, the
// same contract as a put on a wide-column store. Callers that rewrite a row
// with fewer columns must either use ReplaceRow or, like the chunk codec, be
// able to tell stale cells apart on read.
//
// # Batching
//
// BatchWriter buffers puts and commits them in one Pebble batch per flush
// from a single goroutine, reporting each row's outcome to its RowCallback.
package tablestore
