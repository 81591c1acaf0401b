package models

import (
	"encoding/hex"
	"strconv"
)

// Digest is an opaque checksum produced by the query engine's checksum
// aggregate. It has no structure beyond value equality.
type Digest []byte

// Equal reports value equality of two digests.
func (d Digest) Equal(other Digest) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the digest as lowercase hex for diagnostics.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// ValueKind tags the variants a checksum field can hold.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt64
	KindFloat64
	KindDigest
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindDigest:
		return "digest"
	default:
		return "unknown"
	}
}

// Value is one field of a checksum result: an integer count or cardinality
// sum, a floating-point sum, an opaque digest, or null. The zero Value is
// null.
type Value struct {
	kind   ValueKind
	i      int64
	f      float64
	digest Digest
}

// NullValue is the null field value; also what a missing field reads as.
var NullValue = Value{}

func Int64Value(v int64) Value {
	return Value{kind: KindInt64, i: v}
}

func Float64Value(v float64) Value {
	return Value{kind: KindFloat64, f: v}
}

func DigestValue(d Digest) Value {
	return Value{kind: KindDigest, digest: d}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the integer payload; ok is false when the value is null.
// A non-integer payload is a FieldTypeError at the compare boundary, checked
// by the caller via Kind.
func (v Value) Int64() (int64, bool) {
	return v.i, v.kind == KindInt64
}

func (v Value) Float64() (float64, bool) {
	return v.f, v.kind == KindFloat64
}

func (v Value) Digest() (Digest, bool) {
	return v.digest, v.kind == KindDigest
}

// String renders the payload for diagnostics; null renders as "null".
func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDigest:
		return v.digest.String()
	default:
		return "null"
	}
}
