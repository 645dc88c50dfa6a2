package serde

import "fmt"

// Kind is the declared type of a field, independent of its repetition.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindFloat
	KindDouble
	KindBool
	KindString
	KindBytes
	KindMessage
	KindEnum
	KindGroup
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindFixed32:  "fixed32",
	KindFixed64:  "fixed64",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindMessage:  "message",
	KindEnum:     "enum",
	KindGroup:    "group",
}

// String returns the protobuf spelling of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindGroup
}

// ParseKind maps a protobuf type keyword to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if Kind(k) != KindInvalid && name == s {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}
