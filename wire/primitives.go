package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// DecodeZigZag32 decodes a zigzag-encoded 32-bit integer
func DecodeZigZag32(encoded uint64) int32 {
	return int32(protowire.DecodeZigZag(encoded & math.MaxUint32))
}

// DecodeZigZag64 decodes a zigzag-encoded 64-bit integer
func DecodeZigZag64(encoded uint64) int64 {
	return protowire.DecodeZigZag(encoded)
}

// readTag reads a field tag at the current position.
func (d *Decoder) readTag() (FieldNumber, WireType, error) {
	num, typ, n := protowire.ConsumeTag(d.buf[d.pos:])
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	d.pos += n
	return num, typ, nil
}

// DecodeVarint decodes a varint from the current position
func (d *Decoder) DecodeVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.pos:])
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.pos += n
	return v, nil
}

// DecodeFixed32 decodes a 32-bit fixed-width value
func (d *Decoder) DecodeFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(d.buf[d.pos:])
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.pos += n
	return v, nil
}

// DecodeFixed64 decodes a 64-bit fixed-width value
func (d *Decoder) DecodeFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(d.buf[d.pos:])
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.pos += n
	return v, nil
}

// DecodeBytes decodes a length-delimited byte array. The result shares the
// decoder's buffer.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(d.buf[d.pos:])
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	d.pos += n
	return v, nil
}

// skipField skips the value of a field, including whole groups
func (d *Decoder) skipField(num FieldNumber, wireType WireType) error {
	n := protowire.ConsumeFieldValue(num, wireType, d.buf[d.pos:])
	if n < 0 {
		return fmt.Errorf("failed to skip field %d: %w", num, protowire.ParseError(n))
	}
	d.pos += n
	return nil
}

// readRaw reads one value of the given wire type as its raw bits. Length
// delimited values are returned as bytes.
func (d *Decoder) readRaw(wireType WireType) (uint64, []byte, error) {
	switch wireType {
	case WireVarint:
		v, err := d.DecodeVarint()
		return v, nil, err
	case WireFixed32:
		v, err := d.DecodeFixed32()
		return uint64(v), nil, err
	case WireFixed64:
		v, err := d.DecodeFixed64()
		return v, nil, err
	case WireBytes:
		b, err := d.DecodeBytes()
		return 0, b, err
	default:
		return 0, nil, fmt.Errorf("%w: unexpected wire type %d", ErrWireType, wireType)
	}
}

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodeTag appends a field tag
func (e *Encoder) EncodeTag(num FieldNumber, wireType WireType) *Encoder {
	e.buf = protowire.AppendTag(e.buf, num, wireType)
	return e
}

// EncodeVarint appends a uint64 as varint
func (e *Encoder) EncodeVarint(v uint64) *Encoder {
	e.buf = protowire.AppendVarint(e.buf, v)
	return e
}

// EncodeSint32 appends a signed int32 with zigzag encoding
func (e *Encoder) EncodeSint32(v int32) *Encoder {
	return e.EncodeVarint(protowire.EncodeZigZag(int64(v)))
}

// EncodeSint64 appends a signed int64 with zigzag encoding
func (e *Encoder) EncodeSint64(v int64) *Encoder {
	return e.EncodeVarint(protowire.EncodeZigZag(v))
}

// EncodeFixed32 appends a 32-bit fixed-width value
func (e *Encoder) EncodeFixed32(v uint32) *Encoder {
	e.buf = protowire.AppendFixed32(e.buf, v)
	return e
}

// EncodeFixed64 appends a 64-bit fixed-width value
func (e *Encoder) EncodeFixed64(v uint64) *Encoder {
	e.buf = protowire.AppendFixed64(e.buf, v)
	return e
}

// EncodeFloat32 appends a float as fixed32
func (e *Encoder) EncodeFloat32(v float32) *Encoder {
	return e.EncodeFixed32(math.Float32bits(v))
}

// EncodeFloat64 appends a double as fixed64
func (e *Encoder) EncodeFloat64(v float64) *Encoder {
	return e.EncodeFixed64(math.Float64bits(v))
}

// EncodeBytes appends a length-delimited byte array
func (e *Encoder) EncodeBytes(data []byte) *Encoder {
	e.buf = protowire.AppendBytes(e.buf, data)
	return e
}

// EncodeString appends a length-delimited string
func (e *Encoder) EncodeString(s string) *Encoder {
	e.buf = protowire.AppendString(e.buf, s)
	return e
}

// Field appends a tag followed by a varint value
func (e *Encoder) Field(num FieldNumber, v uint64) *Encoder {
	return e.EncodeTag(num, WireVarint).EncodeVarint(v)
}

// Embedded appends a length-delimited field holding inner's bytes
func (e *Encoder) Embedded(num FieldNumber, inner *Encoder) *Encoder {
	return e.EncodeTag(num, WireBytes).EncodeBytes(inner.Bytes())
}
