// Package sbon implements SBON ("Starbound Object Notation"), the
// self-describing binary value format used by SBAsset6 archives to encode
// the metatable's metadata map and the virtual path strings of its file
// table.
//
// All operations read from or write to a stream.Reader / stream.Sink; sbon
// itself never touches the host file system.
package sbon

import (
	"math"
	"unicode/utf8"

	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/stream"
)

// MaxDepth bounds the recursion depth of ReadValue against hostile nesting.
// The wire format has no depth field, so a reader must impose its own limit
// (spec: default 64).
const MaxDepth = 64

// ErrMalformed indicates the byte stream does not contain valid SBON: an
// unknown dynamic-value tag, a non-UTF-8 string, a boolean byte other than
// 0x00/0x01, or nesting beyond MaxDepth.
var ErrMalformed = xerrors.New("sbon: malformed input")

// ReadVarint reads an unsigned base-128 varint: each byte contributes its
// low 7 bits, most significant byte first, and the sequence ends at the
// first byte whose top bit is clear.
func ReadVarint(r stream.Reader) (uint64, error) {
	var acc uint64
	for {
		b, err := r.Read(1)
		if err != nil {
			return 0, xerrors.Errorf("sbon: read varint: %w", err)
		}
		acc = (acc << 7) | uint64(b[0]&0x7f)
		if b[0]&0x80 == 0 {
			return acc, nil
		}
	}
}

// WriteVarint appends the unsigned base-128 encoding of n to sink.
func WriteVarint(w stream.Sink, n uint64) error {
	// 10 bytes is enough for the full 64-bit range.
	var buf [10]byte
	i := len(buf)
	i--
	buf[i] = byte(n & 0x7f)
	n >>= 7
	for n > 0 {
		i--
		buf[i] = byte(n&0x7f) | 0x80
		n >>= 7
	}
	_, err := w.Write(buf[i:])
	return err
}

// ReadSignedVarint reads a varint encoding an integer using the format's
// low-bit sign convention: the unsigned varint u decodes to u>>1 if its low
// bit is 0, else -((u>>1)+1).
func ReadSignedVarint(r stream.Reader) (int64, error) {
	u, err := ReadVarint(r)
	if err != nil {
		return 0, err
	}
	if u&1 == 0 {
		return int64(u >> 1), nil
	}
	return -int64(u>>1) - 1, nil
}

// WriteSignedVarint writes n using the low-bit sign convention.
func WriteSignedVarint(w stream.Sink, n int64) error {
	var u uint64
	if n >= 0 {
		u = uint64(n) << 1
	} else {
		u = (uint64(-n-1) << 1) | 1
	}
	return WriteVarint(w, u)
}

// ReadBytes reads a varint byte count followed by that many raw bytes. A
// count of 0 yields an empty, non-nil slice with no further read.
func ReadBytes(r stream.Reader) ([]byte, error) {
	n, err := ReadVarint(r)
	if err != nil {
		return nil, xerrors.Errorf("sbon: read byte string length: %w", err)
	}
	if n == 0 {
		return []byte{}, nil
	}
	b, err := r.Read(int(n))
	if err != nil {
		return nil, xerrors.Errorf("sbon: read byte string body: %w", err)
	}
	return b, nil
}

// WriteBytes writes a varint byte count followed by b's bytes.
func WriteBytes(w stream.Sink, b []byte) error {
	if err := WriteVarint(w, uint64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

// ReadString reads a length-prefixed byte string and validates it as UTF-8.
// Invalid UTF-8 is reported as ErrMalformed rather than silently replaced.
func ReadString(r stream.Reader) (string, error) {
	b, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", xerrors.Errorf("sbon: string is not valid utf-8: %w", ErrMalformed)
	}
	return string(b), nil
}

// WriteString writes s as a length-prefixed UTF-8 byte string.
func WriteString(w stream.Sink, s string) error {
	return WriteBytes(w, []byte(s))
}

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = 1 + iota
	KindFloat64
	KindBool
	KindInt64
	KindString
	KindList
	KindMap
)

// Value is a dynamically typed SBON value: exactly one of the fields below
// is meaningful, selected by Kind. Map preserves insertion order, which
// existing archives and this module's round-trip tests rely on.
type Value struct {
	Kind   Kind
	Float  float64
	Bool   bool
	Int    int64
	Str    string
	List   []Value
	MapVal *Map
}

// Map is an insertion-order-preserving string-keyed map, as SBON's map
// variant requires (spec §4.D, §9 "Maps vs objects").
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set assigns key to value. If key already exists its value is replaced in
// place, preserving its original position; otherwise key is appended.
func (m *Map) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return len(m.keys)
}

// Null returns the SBON null value.
func Null() Value { return Value{Kind: KindNull} }

// Float64Value returns an SBON float value.
func Float64Value(f float64) Value { return Value{Kind: KindFloat64, Float: f} }

// BoolValue returns an SBON bool value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int64Value returns an SBON integer value.
func Int64Value(n int64) Value { return Value{Kind: KindInt64, Int: n} }

// StringValue returns an SBON string value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// ListValue returns an SBON list value.
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }

// MapValue returns an SBON map value.
func MapValue(m *Map) Value { return Value{Kind: KindMap, MapVal: m} }

// ReadValue reads one dynamic value: a one-byte type tag followed by its
// payload. Tags outside 1..7 are ErrMalformed.
func ReadValue(r stream.Reader) (Value, error) {
	return readValue(r, 0)
}

func readValue(r stream.Reader, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, xerrors.Errorf("sbon: nesting exceeds depth %d: %w", MaxDepth, ErrMalformed)
	}
	tagb, err := r.Read(1)
	if err != nil {
		return Value{}, xerrors.Errorf("sbon: read value tag: %w", err)
	}
	switch Kind(tagb[0]) {
	case KindNull:
		return Null(), nil

	case KindFloat64:
		b, err := r.Read(8)
		if err != nil {
			return Value{}, xerrors.Errorf("sbon: read float64: %w", err)
		}
		bits := uint64(0)
		for _, c := range b {
			bits = (bits << 8) | uint64(c)
		}
		return Float64Value(math.Float64frombits(bits)), nil

	case KindBool:
		b, err := r.Read(1)
		if err != nil {
			return Value{}, xerrors.Errorf("sbon: read bool: %w", err)
		}
		switch b[0] {
		case 0x00:
			return BoolValue(false), nil
		case 0x01:
			return BoolValue(true), nil
		default:
			return Value{}, xerrors.Errorf("sbon: bool byte %#x: %w", b[0], ErrMalformed)
		}

	case KindInt64:
		n, err := ReadSignedVarint(r)
		if err != nil {
			return Value{}, err
		}
		return Int64Value(n), nil

	case KindString:
		s, err := ReadString(r)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil

	case KindList:
		n, err := ReadVarint(r)
		if err != nil {
			return Value{}, xerrors.Errorf("sbon: read list length: %w", err)
		}
		items := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := readValue(r, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ListValue(items), nil

	case KindMap:
		n, err := ReadVarint(r)
		if err != nil {
			return Value{}, xerrors.Errorf("sbon: read map length: %w", err)
		}
		m := NewMap()
		for i := uint64(0); i < n; i++ {
			key, err := ReadString(r)
			if err != nil {
				return Value{}, err
			}
			v, err := readValue(r, depth+1)
			if err != nil {
				return Value{}, err
			}
			// Duplicate keys: last write wins, no error (spec §4.D).
			m.Set(key, v)
		}
		return MapValue(m), nil

	default:
		return Value{}, xerrors.Errorf("sbon: tag %#x: %w", tagb[0], ErrMalformed)
	}
}

// WriteValue writes v's type tag and payload.
func WriteValue(w stream.Sink, v Value) error {
	if _, err := w.Write([]byte{byte(v.Kind)}); err != nil {
		return err
	}
	switch v.Kind {
	case KindNull:
		return nil

	case KindFloat64:
		bits := math.Float64bits(v.Float)
		var b [8]byte
		for i := 7; i >= 0; i-- {
			b[i] = byte(bits)
			bits >>= 8
		}
		_, err := w.Write(b[:])
		return err

	case KindBool:
		if v.Bool {
			_, err := w.Write([]byte{0x01})
			return err
		}
		_, err := w.Write([]byte{0x00})
		return err

	case KindInt64:
		return WriteSignedVarint(w, v.Int)

	case KindString:
		return WriteString(w, v.Str)

	case KindList:
		if err := WriteVarint(w, uint64(len(v.List))); err != nil {
			return err
		}
		for _, item := range v.List {
			if err := WriteValue(w, item); err != nil {
				return err
			}
		}
		return nil

	case KindMap:
		if v.MapVal == nil {
			return WriteVarint(w, 0)
		}
		if err := WriteVarint(w, uint64(v.MapVal.Len())); err != nil {
			return err
		}
		for _, key := range v.MapVal.Keys() {
			val, _ := v.MapVal.Get(key)
			if err := WriteString(w, key); err != nil {
				return err
			}
			if err := WriteValue(w, val); err != nil {
				return err
			}
		}
		return nil

	default:
		return xerrors.Errorf("sbon: write value: unsupported kind %d", v.Kind)
	}
}
