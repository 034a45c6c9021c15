package codec

import (
	"errors"
	"testing"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

func TestMergeRejectsReservedPrefix(t *testing.T) {
	c := newTestCodec(t, DefaultConfig())
	set, _ := c.Encode([]byte("body"))
	before := len(set)
	_, err := c.Merge(set, map[string]string{"__custom": "x", "ok": "y"})
	if !errors.Is(err, ErrReservedNameCollision) {
		t.Fatalf("want ErrReservedNameCollision, got %v", err)
	}
	if len(set) != before {
		t.Fatalf("set modified on failed merge")
	}
}

func TestMergeRejectsEmptyName(t *testing.T) {
	c := newTestCodec(t, DefaultConfig())
	if _, err := c.Merge(column.Set{}, map[string]string{"": "x"}); !errors.Is(err, ErrInvalidAttribute) {
		t.Fatalf("want ErrInvalidAttribute, got %v", err)
	}
}

func TestMergeExtractRoundTrip(t *testing.T) {
	c := newTestCodec(t, DefaultConfig())
	set, _ := c.Encode([]byte("body"))
	set = c.SetMessageID(set, "msg-1")
	set, err := c.Merge(set, map[string]string{"custom": "value", "from": "alice"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	attrs := c.Extract(set)
	if len(attrs) != 2 || attrs["custom"] != "value" || attrs["from"] != "alice" {
		t.Fatalf("attrs = %v", attrs)
	}

	rec, err := c.Decode(set)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.MessageID != "msg-1" {
		t.Fatalf("message id %q", rec.MessageID)
	}
	if string(rec.Payload) != "body" || rec.Attributes["custom"] != "value" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestMergeCustomPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReservedPrefix = "sys:"
	c := newTestCodec(t, cfg)
	if _, err := c.Merge(column.Set{}, map[string]string{"__custom": "x"}); err != nil {
		t.Fatalf("__custom is a user name under prefix sys: (%v)", err)
	}
	if _, err := c.Merge(column.Set{}, map[string]string{"sys:x": "x"}); !errors.Is(err, ErrReservedNameCollision) {
		t.Fatalf("want ErrReservedNameCollision, got %v", err)
	}
}

func TestExtractRendersNonStringValues(t *testing.T) {
	c := newTestCodec(t, DefaultConfig())
	attrs := c.Extract(column.Set{"n": column.Int(5), "b": column.Binary([]byte("raw")), "__count": column.Int(1)})
	if attrs["n"] != "5" || attrs["b"] != "raw" {
		t.Fatalf("attrs = %v", attrs)
	}
	if _, ok := attrs["__count"]; ok {
		t.Fatalf("reserved column extracted")
	}
}
