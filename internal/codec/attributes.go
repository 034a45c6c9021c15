package codec

import (
	"fmt"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

// Merge adds one string column per attribute to a set produced by Encode.
// It fails without modifying set if any name is empty or reserved.
func (c *Codec) Merge(set column.Set, attrs map[string]string) (column.Set, error) {
	for name := range attrs {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidAttribute)
		}
		if c.cfg.IsReserved(name) {
			return nil, fmt.Errorf("%w: %q starts with %q", ErrReservedNameCollision, name, c.cfg.ReservedPrefix)
		}
	}
	if set == nil {
		set = make(column.Set, len(attrs))
	}
	for name, v := range attrs {
		set[name] = column.String(v)
	}
	return set, nil
}

// SetMessageID stores id in the reserved message id column.
func (c *Codec) SetMessageID(set column.Set, id string) column.Set {
	if set == nil {
		set = make(column.Set, 1)
	}
	set[c.cfg.messageIDName()] = column.String(id)
	return set
}

// Extract returns every user attribute in set: columns outside the reserved
// prefix, excluding the message id column. Non-string values are rendered
// as text.
func (c *Codec) Extract(set column.Set) map[string]string {
	attrs := make(map[string]string)
	for name, v := range set {
		if c.cfg.classify(name).kind != slotAttribute || name == c.cfg.messageIDName() {
			continue
		}
		attrs[name] = v.Text()
	}
	return attrs
}
