package tablestore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	tablePrefix = []byte("tl/")
	metaSuffix  = []byte("/meta")
	lastSuffix  = []byte("/last")
	rowSeg      = []byte("/r/")
	// timelineEnd terminates the timeline id so that one id is never a
	// prefix-match of another.
	timelineEnd = byte(0x00)
	cellSep     = byte('/')
)

// ErrInvalidKey is returned for table names, timeline ids or sequences that
// cannot be encoded into the keyspace.
var ErrInvalidKey = errors.New("tablestore: invalid key")

func validateTableName(name string) error {
	if name == "" || bytes.ContainsAny([]byte(name), "/\x00") {
		return fmt.Errorf("%w: table name %q", ErrInvalidKey, name)
	}
	return nil
}

func validateRowKey(k RowKey) error {
	if k.Timeline == "" || bytes.IndexByte([]byte(k.Timeline), timelineEnd) >= 0 {
		return fmt.Errorf("%w: timeline id %q", ErrInvalidKey, k.Timeline)
	}
	if k.Sequence < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrInvalidKey, k.Sequence)
	}
	return nil
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyTableMeta builds the table metadata key.
func keyTableMeta(table string) []byte {
	k := make([]byte, 0, len(tablePrefix)+len(table)+len(metaSuffix))
	k = append(k, tablePrefix...)
	k = append(k, table...)
	return append(k, metaSuffix...)
}

// keyTableLast builds the key holding the highest sequence written.
func keyTableLast(table string) []byte {
	k := make([]byte, 0, len(tablePrefix)+len(table)+len(lastSuffix))
	k = append(k, tablePrefix...)
	k = append(k, table...)
	return append(k, lastSuffix...)
}

// keyTimelinePrefix is the prefix of every cell of a timeline.
func keyTimelinePrefix(table, timeline string) []byte {
	k := make([]byte, 0, len(tablePrefix)+len(table)+len(rowSeg)+len(timeline)+1)
	k = append(k, tablePrefix...)
	k = append(k, table...)
	k = append(k, rowSeg...)
	k = append(k, timeline...)
	return append(k, timelineEnd)
}

// keyRowPrefix is the prefix of every cell of one row. Sequences are encoded
// big-endian so byte order equals numeric order.
func keyRowPrefix(table, timeline string, seq uint64) []byte {
	k := keyTimelinePrefix(table, timeline)
	k = appendBE8(k, seq)
	return append(k, cellSep)
}

// keyCell builds the key of a single column of a row.
func keyCell(table, timeline string, seq uint64, column string) []byte {
	return append(keyRowPrefix(table, timeline, seq), column...)
}

// parseCellKey splits a cell key under timelinePrefix into sequence and column.
func parseCellKey(timelinePrefix, key []byte) (int64, string, bool) {
	if !bytes.HasPrefix(key, timelinePrefix) {
		return 0, "", false
	}
	rest := key[len(timelinePrefix):]
	if len(rest) < 9 || rest[8] != cellSep {
		return 0, "", false
	}
	seq := binary.BigEndian.Uint64(rest[:8])
	return int64(seq), string(rest[9:]), true
}
