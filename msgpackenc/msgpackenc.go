// Package msgpackenc is a serde.Encoder that streams MessagePack.
//
// Map and array headers carry the exact lengths serde announces. Integers and
// floats keep their bit width unless compact encoding is enabled. Enums are
// written as their variant names.
package msgpackenc

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anirudhraja/protoserde/serde"
)

// Option configures an Encoder.
type Option func(*Encoder)

// Compact writes integers in the smallest encoding that holds the value and
// integral floats as integers. Readers lose the original widths.
func Compact(on bool) Option {
	return func(e *Encoder) { e.compact = on }
}

// Encoder implements serde.Encoder.
type Encoder struct {
	enc     *msgpack.Encoder
	compact bool
}

var _ serde.Encoder = (*Encoder)(nil)

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	e := &Encoder{enc: msgpack.NewEncoder(w)}
	for _, opt := range opts {
		opt(e)
	}
	e.enc.UseCompactFloats(e.compact)
	return e
}

// Marshal serializes m to MessagePack.
func Marshal(m serde.Message, opts ...serde.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := serde.Serialize(NewEncoder(&buf), m, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) BeginMap(n int) error    { return e.enc.EncodeMapLen(n) }
func (e *Encoder) MapKey(key string) error { return e.enc.EncodeString(key) }
func (e *Encoder) EndMap() error           { return nil }
func (e *Encoder) BeginSeq(n int) error    { return e.enc.EncodeArrayLen(n) }
func (e *Encoder) EndSeq() error           { return nil }

func (e *Encoder) Int32(v int32) error {
	if e.compact {
		return e.enc.EncodeInt(int64(v))
	}
	return e.enc.EncodeInt32(v)
}

func (e *Encoder) Int64(v int64) error {
	if e.compact {
		return e.enc.EncodeInt(v)
	}
	return e.enc.EncodeInt64(v)
}

func (e *Encoder) Uint32(v uint32) error {
	if e.compact {
		return e.enc.EncodeUint(uint64(v))
	}
	return e.enc.EncodeUint32(v)
}

func (e *Encoder) Uint64(v uint64) error {
	if e.compact {
		return e.enc.EncodeUint(v)
	}
	return e.enc.EncodeUint64(v)
}

func (e *Encoder) Bool(v bool) error       { return e.enc.EncodeBool(v) }
func (e *Encoder) Float32(v float32) error { return e.enc.EncodeFloat32(v) }
func (e *Encoder) Float64(v float64) error { return e.enc.EncodeFloat64(v) }
func (e *Encoder) String(v string) error   { return e.enc.EncodeString(v) }

func (e *Encoder) Bytes(v []byte) error {
	if v == nil {
		// nil would encode as msgpack nil
		v = []byte{}
	}
	return e.enc.EncodeBytes(v)
}

func (e *Encoder) Enum(_, variant string) error { return e.enc.EncodeString(variant) }
