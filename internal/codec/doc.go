// Package codec maps timeline message payloads onto column sets.
//
// # Chunking
//
// A table store caps the size of a single column value, so a payload is
// split into fixed-size binary chunk columns:
//
//	__content10000, __content10001, ...   chunk bytes (binary)
//	__count                                number of chunks written (integer)
//	__crc32                                CRC-32 (IEEE) of the whole payload (integer)
//	__messageid                            message id (string)
//
// Chunk indices start at Config.StartIndex and are left-padded to
// Config.IndexWidth digits so that lexicographic column order equals numeric
// chunk order.
//
// # Shrinking rows
//
// A put over an existing row does not delete the row's other columns. When a
// payload is rewritten shorter, the higher-indexed chunks of the previous
// version stay in the store. Decode reads __count and ignores every chunk past
// it. Rows written before the count column existed decode by contiguity only.
//
// # Attributes
//
// User attributes are stored as plain string columns. Names starting with the
// reserved prefix are rejected by Merge so user data never collides with the
// columns above.
package codec
