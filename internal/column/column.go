// Package column defines the typed column values and column sets exchanged
// between the chunk codec and the table store.
package column

import (
	"bytes"
	"sort"
	"strconv"
)

// Kind identifies the type carried by a Value.
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindBinary
	KindString
	KindInteger
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	default:
		return "unspecified"
	}
}

// Value is a single column value: a binary blob, a UTF-8 string or an int64.
type Value struct {
	kind Kind
	b    []byte
	s    string
	i    int64
}

// Binary returns a binary value. The slice is not copied.
func Binary(b []byte) Value { return Value{kind: KindBinary, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Kind reports the value type.
func (v Value) Kind() Kind { return v.kind }

// Bytes returns the blob and true when v is binary.
func (v Value) Bytes() ([]byte, bool) { return v.b, v.kind == KindBinary }

// Str returns the string and true when v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Int64 returns the integer and true when v is an integer.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInteger }

// Text renders any value as a string: strings verbatim, blobs as their raw
// bytes, integers in base 10.
func (v Value) Text() string {
	switch v.kind {
	case KindBinary:
		return string(v.b)
	case KindString:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBinary:
		return bytes.Equal(v.b, o.b)
	case KindString:
		return v.s == o.s
	case KindInteger:
		return v.i == o.i
	}
	return true
}

// Set maps column names to values. A name appears at most once.
type Set map[string]Value

// Names returns the column names in ascending lexicographic order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of s. Blob contents are shared.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Overlay returns a new set holding every column of s, with columns of upper
// replacing same-named ones. It models a put over an existing row that does
// not delete the row's other columns.
func (s Set) Overlay(upper Set) Set {
	out := s.Clone()
	for k, v := range upper {
		out[k] = v
	}
	return out
}

// Size returns the approximate encoded size of the set in bytes.
func (s Set) Size() int {
	n := 0
	for k, v := range s {
		n += len(k)
		switch v.kind {
		case KindBinary:
			n += len(v.b)
		case KindString:
			n += len(v.s)
		case KindInteger:
			n += 8
		}
	}
	return n
}
