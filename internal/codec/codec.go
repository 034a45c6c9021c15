package codec

import (
	"fmt"
	"hash/crc32"
	"math"
	"sort"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

// Record is a decoded row. SequenceID is assigned by the store and filled in
// by the caller that read the row.
type Record struct {
	SequenceID int64
	Payload    []byte
	MessageID  string
	Attributes map[string]string
}

// Codec encodes payloads into column sets and back. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	cfg Config
}

// New validates cfg and returns a Codec.
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// Config returns the codec configuration.
func (c *Codec) Config() Config { return c.cfg }

// Encode splits payload into chunk columns and adds the count and CRC columns.
// Chunk values alias payload; the caller must not modify it afterwards.
func (c *Codec) Encode(payload []byte) (column.Set, error) {
	if len(payload) > c.cfg.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, len(payload), c.cfg.MaxPayloadBytes)
	}
	n := (len(payload) + c.cfg.MaxChunkBytes - 1) / c.cfg.MaxChunkBytes
	set := make(column.Set, n+3)
	for i := 0; i < n; i++ {
		lo := i * c.cfg.MaxChunkBytes
		hi := min(lo+c.cfg.MaxChunkBytes, len(payload))
		set[c.cfg.chunkName(c.cfg.StartIndex+i)] = column.Binary(payload[lo:hi:hi])
	}
	set[c.cfg.countName()] = column.Int(int64(n))
	if c.cfg.VerifyCRC {
		set[c.cfg.crcName()] = column.Int(int64(crc32.ChecksumIEEE(payload)))
	}
	return set, nil
}

// Decode reassembles the payload from set and verifies its layout and CRC.
// Chunks past the stored count are leftovers of a longer earlier write and
// are ignored. Without a count column every contiguous chunk is used.
func (c *Codec) Decode(set column.Set) (Record, error) {
	count := int64(-1)
	if v, ok := set[c.cfg.countName()]; ok {
		n, ok := v.Int64()
		if !ok || n < 0 {
			return Record{}, fmt.Errorf("%w: count column is %s", ErrMalformedRecord, describe(v))
		}
		count = n
	}

	var chunks []string
	for name := range set {
		if c.cfg.classify(name).kind == slotContent {
			chunks = append(chunks, name)
		}
	}
	sort.Strings(chunks)

	var (
		buf     []byte
		counter int64
	)
	for _, name := range chunks {
		if count >= 0 && counter >= count {
			continue
		}
		want := int64(c.cfg.StartIndex) + counter
		if got := c.cfg.classify(name).index; int64(got) != want {
			return Record{}, fmt.Errorf("%w: chunk column %q found where index %d expected", ErrMalformedRecord, name, want)
		}
		b, ok := set[name].Bytes()
		if !ok {
			return Record{}, fmt.Errorf("%w: chunk column %q is %s", ErrMalformedRecord, name, describe(set[name]))
		}
		buf = append(buf, b...)
		counter++
	}
	if count >= 0 && counter != count {
		return Record{}, fmt.Errorf("%w: found %d chunks, count column says %d", ErrMalformedRecord, counter, count)
	}
	if buf == nil {
		buf = []byte{}
	}

	if v, ok := set[c.cfg.crcName()]; ok && c.cfg.VerifyCRC {
		stored, ok := v.Int64()
		if !ok || stored < 0 || stored > math.MaxUint32 {
			return Record{}, fmt.Errorf("%w: crc column is %s", ErrMalformedRecord, describe(v))
		}
		if sum := crc32.ChecksumIEEE(buf); uint32(stored) != sum {
			return Record{}, fmt.Errorf("%w: crc %08x, stored %08x", ErrCorruptRecord, sum, uint32(stored))
		}
	}

	rec := Record{Payload: buf, Attributes: c.Extract(set)}
	if v, ok := set[c.cfg.messageIDName()]; ok {
		id, ok := v.Str()
		if !ok {
			return Record{}, fmt.Errorf("%w: message id column is %s", ErrMalformedRecord, describe(v))
		}
		rec.MessageID = id
	}
	return rec, nil
}

func describe(v column.Value) string {
	if v.Kind() == column.KindInteger {
		n, _ := v.Int64()
		return fmt.Sprintf("integer %d", n)
	}
	return v.Kind().String()
}
