// Package timeline stores and reads messages of named timelines.
//
// Each message is one row keyed by (timeline id, sequence id). The payload is
// split into chunk columns by the codec, attributes become string columns,
// and the store assigns increasing sequence ids. Writes are synchronous
// (Append, Update) or buffered (AppendAsync), the latter resolving a
// promise once the batch writer has committed the row.
//
// Scan accepts an optional CEL expression evaluated per entry with the
// variables sequence, message_id, size, text, attributes and now_ms. The
// range limit bounds rows read, not rows matched.
package timeline
