// Package jsonenc is a serde.Encoder that streams JSON through jsontext.
//
// Bytes are standard base64 strings and enums are their variant names. Floats
// use the shortest representation for their bit width; NaN and the infinities
// become the strings "NaN", "Infinity" and "-Infinity".
package jsonenc

import (
	"bytes"
	"encoding/base64"
	"io"
	"math"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/anirudhraja/protoserde/serde"
)

// Option configures an Encoder.
type Option func(*config)

type config struct {
	indent     string
	quoteInt64 bool
}

// WithIndent writes multiline output indented by indent per level.
func WithIndent(indent string) Option {
	return func(c *config) { c.indent = indent }
}

// QuoteInt64 writes 64-bit integers as strings, so readers that parse numbers
// as float64 keep every digit.
func QuoteInt64(v bool) Option {
	return func(c *config) { c.quoteInt64 = v }
}

// Encoder implements serde.Encoder.
type Encoder struct {
	enc        *jsontext.Encoder
	quoteInt64 bool
}

var _ serde.Encoder = (*Encoder)(nil)

// NewEncoder returns an Encoder writing to w. A newline follows the top-level
// value.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	var jopts []jsontext.Options
	if c.indent != "" {
		jopts = append(jopts, jsontext.WithIndent(c.indent))
	}
	return &Encoder{enc: jsontext.NewEncoder(w, jopts...), quoteInt64: c.quoteInt64}
}

// Marshal serializes m to JSON without a trailing newline.
func Marshal(m serde.Message, opts ...Option) ([]byte, error) {
	return MarshalWith(m, opts, nil)
}

// MarshalWith is Marshal with serialization options.
func MarshalWith(m serde.Message, opts []Option, serdeOpts []serde.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := serde.Serialize(NewEncoder(&buf, opts...), m, serdeOpts...); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (e *Encoder) BeginMap(int) error      { return e.enc.WriteToken(jsontext.BeginObject) }
func (e *Encoder) MapKey(key string) error { return e.enc.WriteToken(jsontext.String(key)) }
func (e *Encoder) EndMap() error           { return e.enc.WriteToken(jsontext.EndObject) }
func (e *Encoder) BeginSeq(int) error      { return e.enc.WriteToken(jsontext.BeginArray) }
func (e *Encoder) EndSeq() error           { return e.enc.WriteToken(jsontext.EndArray) }

func (e *Encoder) Int32(v int32) error   { return e.enc.WriteToken(jsontext.Int(int64(v))) }
func (e *Encoder) Uint32(v uint32) error { return e.enc.WriteToken(jsontext.Uint(uint64(v))) }
func (e *Encoder) Bool(v bool) error     { return e.enc.WriteToken(jsontext.Bool(v)) }
func (e *Encoder) String(v string) error { return e.enc.WriteToken(jsontext.String(v)) }

func (e *Encoder) Int64(v int64) error {
	if e.quoteInt64 {
		return e.enc.WriteToken(jsontext.String(strconv.FormatInt(v, 10)))
	}
	return e.enc.WriteToken(jsontext.Int(v))
}

func (e *Encoder) Uint64(v uint64) error {
	if e.quoteInt64 {
		return e.enc.WriteToken(jsontext.String(strconv.FormatUint(v, 10)))
	}
	return e.enc.WriteToken(jsontext.Uint(v))
}

func (e *Encoder) Float64(v float64) error { return e.enc.WriteToken(jsontext.Float(v)) }

func (e *Encoder) Float32(v float32) error {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.enc.WriteToken(jsontext.Float(f))
	}
	return e.enc.WriteValue(jsontext.Value(appendFloat32(nil, v)))
}

func (e *Encoder) Bytes(v []byte) error {
	return e.enc.WriteToken(jsontext.String(base64.StdEncoding.EncodeToString(v)))
}

func (e *Encoder) Enum(_, variant string) error {
	return e.enc.WriteToken(jsontext.String(variant))
}

// appendFloat32 formats v with 32-bit shortest precision, switching to
// exponent notation outside [1e-6, 1e21) the way JavaScript does.
func appendFloat32(b []byte, v float32) []byte {
	abs := math.Abs(float64(v))
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(b, float64(v), format, -1, 32)
}
