package wire

import "google.golang.org/protobuf/encoding/protowire"

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType = protowire.Type

const (
	WireVarint     WireType = protowire.VarintType     // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = protowire.Fixed64Type    // fixed64, sfixed64, double
	WireBytes      WireType = protowire.BytesType      // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = protowire.StartGroupType // proto2 group start
	WireEndGroup   WireType = protowire.EndGroupType   // proto2 group end
	WireFixed32    WireType = protowire.Fixed32Type    // fixed32, sfixed32, float
)

// FieldNumber represents a protobuf field number
type FieldNumber = protowire.Number

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(protowire.EncodeTag(fieldNumber, wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return protowire.DecodeTag(uint64(tag))
}
