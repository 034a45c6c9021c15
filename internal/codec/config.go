package codec

import (
	"fmt"
	"strings"
)

// Config controls column naming and chunk sizing. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// ReservedPrefix marks codec-owned column names.
	ReservedPrefix string `json:"reservedPrefix" yaml:"reservedPrefix"`
	ContentStem    string `json:"contentStem" yaml:"contentStem"`
	CountStem      string `json:"countStem" yaml:"countStem"`
	CRCStem        string `json:"crcStem" yaml:"crcStem"`
	MessageIDStem  string `json:"messageIdStem" yaml:"messageIdStem"`
	// MaxChunkBytes caps a single chunk column value.
	MaxChunkBytes int `json:"maxChunkBytes" yaml:"maxChunkBytes"`
	// MaxPayloadBytes caps the whole payload.
	MaxPayloadBytes int `json:"maxPayloadBytes" yaml:"maxPayloadBytes"`
	// StartIndex is the index of the first chunk column.
	StartIndex int `json:"startIndex" yaml:"startIndex"`
	// IndexWidth is the zero-padded digit count of chunk indices.
	IndexWidth int `json:"indexWidth" yaml:"indexWidth"`
	// VerifyCRC enables writing and checking the CRC column.
	VerifyCRC bool `json:"verifyCrc" yaml:"verifyCrc"`
}

// DefaultConfig returns the wire-compatible defaults.
func DefaultConfig() Config {
	return Config{
		ReservedPrefix:  "__",
		ContentStem:     "content",
		CountStem:       "count",
		CRCStem:         "crc32",
		MessageIDStem:   "messageid",
		MaxChunkBytes:   1 << 20, // 1 MiB
		MaxPayloadBytes: 2 << 20, // 2 MiB
		StartIndex:      10000,
		IndexWidth:      5,
		VerifyCRC:       true,
	}
}

// Validate checks that the config yields unambiguous, order-preserving names.
func (c Config) Validate() error {
	if c.ReservedPrefix == "" {
		return fmt.Errorf("%w: empty reserved prefix", ErrInvalidConfig)
	}
	stems := map[string]string{
		"content":   c.ContentStem,
		"count":     c.CountStem,
		"crc":       c.CRCStem,
		"messageid": c.MessageIDStem,
	}
	seen := make(map[string]string, len(stems))
	for role, stem := range stems {
		if stem == "" {
			return fmt.Errorf("%w: empty %s stem", ErrInvalidConfig, role)
		}
		if other, ok := seen[stem]; ok {
			return fmt.Errorf("%w: %s and %s stems are both %q", ErrInvalidConfig, role, other, stem)
		}
		seen[stem] = role
	}
	// A reserved column that looks like a chunk would be read as one.
	for _, stem := range []string{c.CountStem, c.CRCStem, c.MessageIDStem} {
		if rest, ok := strings.CutPrefix(stem, c.ContentStem); ok && isDigits(rest) {
			return fmt.Errorf("%w: stem %q is indistinguishable from a chunk column", ErrInvalidConfig, stem)
		}
	}
	if c.MaxChunkBytes <= 0 {
		return fmt.Errorf("%w: maxChunkBytes must be positive", ErrInvalidConfig)
	}
	if c.MaxPayloadBytes < 0 {
		return fmt.Errorf("%w: maxPayloadBytes must not be negative", ErrInvalidConfig)
	}
	if c.StartIndex < 0 {
		return fmt.Errorf("%w: startIndex must not be negative", ErrInvalidConfig)
	}
	if c.IndexWidth <= 0 || c.IndexWidth > 18 {
		return fmt.Errorf("%w: indexWidth must be in [1,18]", ErrInvalidConfig)
	}
	last := c.StartIndex + c.maxChunks() - 1
	if last >= pow10(c.IndexWidth) {
		return fmt.Errorf("%w: chunk index %d does not fit in %d digits", ErrInvalidConfig, last, c.IndexWidth)
	}
	return nil
}

// maxChunks is the chunk count of a payload at the hard cap.
func (c Config) maxChunks() int {
	if c.MaxPayloadBytes == 0 {
		return 1
	}
	return (c.MaxPayloadBytes + c.MaxChunkBytes - 1) / c.MaxChunkBytes
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
