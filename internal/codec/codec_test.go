package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxChunkBytes = 1024
	cfg.MaxPayloadBytes = 8 * 1024
	return cfg
}

func newTestCodec(t *testing.T, cfg Config) *Codec {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func payloadOf(n int, seed int64) []byte {
	p := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(p)
	return p
}

func TestRoundTripBoundaries(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	m := cfg.MaxChunkBytes
	for _, n := range []int{0, 1, m - 1, m, m + 1, 3*m + 7} {
		p := payloadOf(n, int64(n))
		set, err := c.Encode(p)
		if err != nil {
			t.Fatalf("encode %d: %v", n, err)
		}
		rec, err := c.Decode(set)
		if err != nil {
			t.Fatalf("decode %d: %v", n, err)
		}
		if !bytes.Equal(rec.Payload, p) {
			t.Fatalf("len %d: payload mismatch (got %d bytes)", n, len(rec.Payload))
		}
	}
}

func TestRoundTripDefaultConfigAtCap(t *testing.T) {
	cfg := DefaultConfig()
	c := newTestCodec(t, cfg)
	p := payloadOf(cfg.MaxPayloadBytes, 7)
	set, err := c.Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := set["__content10000"]; !ok {
		t.Fatalf("missing first chunk column: %v", set.Names())
	}
	if _, ok := set["__content10001"]; !ok {
		t.Fatalf("missing second chunk column: %v", set.Names())
	}
	if n, _ := set["__count"].Int64(); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	rec, err := c.Decode(set)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(rec.Payload, p) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncodeEmptyPayload(t *testing.T) {
	c := newTestCodec(t, DefaultConfig())
	set, err := c.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("want only count and crc columns, got %v", set.Names())
	}
	if n, _ := set["__count"].Int64(); n != 0 {
		t.Fatalf("count = %d", n)
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	_, err := c.Encode(make([]byte, cfg.MaxPayloadBytes+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("want ErrPayloadTooLarge, got %v", err)
	}
}

func TestEncodeWithoutCRC(t *testing.T) {
	cfg := smallConfig()
	cfg.VerifyCRC = false
	c := newTestCodec(t, cfg)
	set, _ := c.Encode([]byte("abc"))
	if _, ok := set["__crc32"]; ok {
		t.Fatalf("crc column written with VerifyCRC=false")
	}
}

func TestStaleChecksumAfterUncheckedWrite(t *testing.T) {
	cfg := smallConfig()
	checked := newTestCodec(t, cfg)
	cfg.VerifyCRC = false
	unchecked := newTestCodec(t, cfg)

	old, _ := checked.Encode([]byte("old payload"))
	fresh, _ := unchecked.Encode([]byte("new"))
	stale := unchecked.Config().StaleColumns(fresh)
	if len(stale) != 1 || stale[0] != "__crc32" {
		t.Fatalf("stale columns %v", stale)
	}
	if _, err := checked.Decode(old.Overlay(fresh)); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("overlay keeping the old checksum: want ErrCorruptRecord, got %v", err)
	}
	row := old.Clone()
	for _, name := range stale {
		delete(row, name)
	}
	rec, err := checked.Decode(row.Overlay(fresh))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(rec.Payload) != "new" {
		t.Fatalf("payload %q", rec.Payload)
	}

	withCRC, _ := checked.Encode([]byte("new"))
	if got := checked.Config().StaleColumns(withCRC); len(got) != 0 {
		t.Fatalf("stale columns %v for a checksummed write", got)
	}
}

func TestShrinkIgnoresStaleChunks(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	old, err := c.Encode(payloadOf(5*cfg.MaxChunkBytes, 1))
	if err != nil {
		t.Fatalf("encode old: %v", err)
	}
	newer, err := c.Encode([]byte{0x42})
	if err != nil {
		t.Fatalf("encode new: %v", err)
	}
	union := old.Overlay(newer)
	if len(union) != len(old) {
		t.Fatalf("expected stale chunks to remain in union: %v", union.Names())
	}
	rec, err := c.Decode(union)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(rec.Payload, []byte{0x42}) {
		t.Fatalf("got %d bytes, want the 1-byte payload", len(rec.Payload))
	}
}

func TestShrinkToEmpty(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	old, _ := c.Encode(payloadOf(2*cfg.MaxChunkBytes, 2))
	newer, _ := c.Encode(nil)
	rec, err := c.Decode(old.Overlay(newer))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rec.Payload) != 0 {
		t.Fatalf("got %d bytes", len(rec.Payload))
	}
}

func TestFlippedByteIsCorrupt(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	p := payloadOf(3*cfg.MaxChunkBytes+7, 3)
	clean, err := c.Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for idx := 0; idx < 4; idx++ {
		name := cfg.chunkName(cfg.StartIndex + idx)
		orig, _ := clean[name].Bytes()
		for _, pos := range []int{0, len(orig) / 2, len(orig) - 1} {
			mutated := append([]byte(nil), orig...)
			mutated[pos] ^= 0x01
			set := clean.Clone()
			set[name] = column.Binary(mutated)
			if _, err := c.Decode(set); !errors.Is(err, ErrCorruptRecord) {
				t.Fatalf("chunk %s byte %d: want ErrCorruptRecord, got %v", name, pos, err)
			}
		}
	}
}

func TestCRCIgnoredWhenDisabled(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	set, _ := c.Encode([]byte("hello"))
	set["__content10000"] = column.Binary([]byte("jello"))

	cfg.VerifyCRC = false
	lenient := newTestCodec(t, cfg)
	rec, err := lenient.Decode(set)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(rec.Payload) != "jello" {
		t.Fatalf("payload %q", rec.Payload)
	}
}

func TestIndexContiguity(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	p := payloadOf(3*cfg.MaxChunkBytes+7, 4)

	tests := []struct {
		name   string
		mutate func(column.Set)
	}{
		{"remove middle chunk", func(s column.Set) { delete(s, "__content10001") }},
		{"remove last chunk", func(s column.Set) { delete(s, "__content10003") }},
		{"remove first chunk", func(s column.Set) { delete(s, "__content10000") }},
		{"renumber chunk", func(s column.Set) {
			s["__content10009"] = s["__content10001"]
			delete(s, "__content10001")
		}},
		{"unpadded index", func(s column.Set) {
			s["__content1001"] = s["__content10001"]
			delete(s, "__content10001")
		}},
		{"non-numeric index in legacy record", func(s column.Set) {
			delete(s, "__count")
			s["__contentx"] = column.Binary([]byte("x"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := c.Encode(p)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			tt.mutate(set)
			if _, err := c.Decode(set); !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("want ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestDecodeWrongColumnKinds(t *testing.T) {
	c := newTestCodec(t, smallConfig())
	tests := []struct {
		name   string
		mutate func(column.Set)
	}{
		{"chunk not binary", func(s column.Set) { s["__content10000"] = column.String("a") }},
		{"count not integer", func(s column.Set) { s["__count"] = column.String("1") }},
		{"negative count", func(s column.Set) { s["__count"] = column.Int(-3) }},
		{"crc not integer", func(s column.Set) { s["__crc32"] = column.Binary([]byte{1}) }},
		{"crc out of range", func(s column.Set) { s["__crc32"] = column.Int(1 << 40) }},
		{"message id not string", func(s column.Set) { s["__messageid"] = column.Int(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, _ := c.Encode([]byte("a"))
			tt.mutate(set)
			if _, err := c.Decode(set); !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("want ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestLegacyRecordWithoutCount(t *testing.T) {
	cfg := smallConfig()
	c := newTestCodec(t, cfg)
	p := payloadOf(2*cfg.MaxChunkBytes+5, 5)
	set, _ := c.Encode(p)
	delete(set, "__count")
	rec, err := c.Decode(set)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(rec.Payload, p) {
		t.Fatalf("payload mismatch")
	}

	// Without a count a gap still breaks contiguity.
	delete(set, "__content10001")
	if _, err := c.Decode(set); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("want ErrMalformedRecord, got %v", err)
	}
}

func TestDecodeIgnoresUnknownReservedColumns(t *testing.T) {
	c := newTestCodec(t, smallConfig())
	set, _ := c.Encode([]byte("x"))
	set["__future"] = column.Int(1)
	rec, err := c.Decode(set)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := rec.Attributes["__future"]; ok {
		t.Fatalf("reserved column exposed as attribute")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.ReservedPrefix = "" }},
		{"empty stem", func(c *Config) { c.CountStem = "" }},
		{"duplicate stems", func(c *Config) { c.CRCStem = c.CountStem }},
		{"stem looks like chunk", func(c *Config) { c.CountStem = c.ContentStem + "99" }},
		{"zero chunk size", func(c *Config) { c.MaxChunkBytes = 0 }},
		{"negative start", func(c *Config) { c.StartIndex = -1 }},
		{"index overflows width", func(c *Config) { c.StartIndex = 99999 }},
		{"zero width", func(c *Config) { c.IndexWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestChunkNamePadding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartIndex = 7
	if got := cfg.chunkName(7); got != "__content00007" {
		t.Fatalf("got %q", got)
	}
	if s := cfg.classify("__content00012"); s.kind != slotContent || s.index != 12 {
		t.Fatalf("classify: %+v", s)
	}
}
