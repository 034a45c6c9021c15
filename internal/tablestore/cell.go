package tablestore

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

// cell is the stored form of a column.Value.
type cell struct {
	Kind uint8  `cbor:"1,keyasint"`
	B    []byte `cbor:"2,keyasint,omitempty"`
	S    string `cbor:"3,keyasint,omitempty"`
	I    int64  `cbor:"4,keyasint,omitempty"`
}

func encodeCell(v column.Value) ([]byte, error) {
	c := cell{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case column.KindBinary:
		c.B, _ = v.Bytes()
	case column.KindString:
		c.S, _ = v.Str()
	case column.KindInteger:
		c.I, _ = v.Int64()
	default:
		return nil, fmt.Errorf("tablestore: cannot store %s value", v.Kind())
	}
	return cbor.Marshal(c)
}

func decodeCell(b []byte) (column.Value, error) {
	var c cell
	if err := cbor.Unmarshal(b, &c); err != nil {
		return column.Value{}, fmt.Errorf("tablestore: decode cell: %w", err)
	}
	switch column.Kind(c.Kind) {
	case column.KindBinary:
		return column.Binary(c.B), nil
	case column.KindString:
		return column.String(c.S), nil
	case column.KindInteger:
		return column.Int(c.I), nil
	}
	return column.Value{}, fmt.Errorf("tablestore: unknown cell kind %d", c.Kind)
}
