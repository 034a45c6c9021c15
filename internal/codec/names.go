package codec

import (
	"strconv"
	"strings"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
)

// slotKind tags what a column name means to the codec. Names are only
// flattened to prefixed strings at the column-set boundary.
type slotKind uint8

const (
	slotAttribute slotKind = iota
	slotContent
	slotCount
	slotCRC
	slotMessageID
	// slotReserved is a prefixed name the codec does not own, e.g. written by
	// a newer version. It is neither decoded nor exposed as an attribute.
	slotReserved
)

type slot struct {
	kind slotKind
	// index is the chunk index for slotContent, -1 when the suffix is not numeric.
	index int
}

func (c Config) countName() string     { return c.ReservedPrefix + c.CountStem }
func (c Config) crcName() string       { return c.ReservedPrefix + c.CRCStem }
func (c Config) messageIDName() string { return c.ReservedPrefix + c.MessageIDStem }
func (c Config) contentPrefix() string { return c.ReservedPrefix + c.ContentStem }

// chunkName returns the column name of chunk index i, zero-padded to IndexWidth.
func (c Config) chunkName(i int) string {
	digits := strconv.Itoa(i)
	if pad := c.IndexWidth - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return c.contentPrefix() + digits
}

// classify maps a column name back to its slot.
func (c Config) classify(name string) slot {
	if !strings.HasPrefix(name, c.ReservedPrefix) {
		return slot{kind: slotAttribute}
	}
	switch name {
	case c.countName():
		return slot{kind: slotCount}
	case c.crcName():
		return slot{kind: slotCRC}
	case c.messageIDName():
		return slot{kind: slotMessageID}
	}
	if rest, ok := strings.CutPrefix(name, c.contentPrefix()); ok {
		if !isDigits(rest) {
			return slot{kind: slotContent, index: -1}
		}
		idx, err := strconv.Atoi(rest)
		if err != nil {
			return slot{kind: slotContent, index: -1}
		}
		return slot{kind: slotContent, index: idx}
	}
	return slot{kind: slotReserved}
}

// IsReserved reports whether name lies in the codec's reserved namespace.
func (c Config) IsReserved(name string) bool {
	return strings.HasPrefix(name, c.ReservedPrefix)
}

// MessageIDColumn returns the column name carrying the message id.
func (c Config) MessageIDColumn() string { return c.messageIDName() }

// StaleColumns returns the reserved columns an earlier write may have left
// that fresh does not overwrite and that would misread alongside it. Stale
// chunks are not listed since the count column hides them.
func (c Config) StaleColumns(fresh column.Set) []string {
	if _, ok := fresh[c.crcName()]; ok {
		return nil
	}
	return []string{c.crcName()}
}
