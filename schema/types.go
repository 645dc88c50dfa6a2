package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []*Import  `json:"imports"`  // imported files
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
	Services []*Service `json:"services"` // service definitions
}

// Import represents an import statement
type Import struct {
	Path   string `json:"path"`   // "google/protobuf/timestamp.proto"
	Public bool   `json:"public"` // public import
	Weak   bool   `json:"weak"`   // weak import
}

// Message represents a protobuf message definition
type Message struct {
	Name        string     `json:"name"`         // "User"
	FullName    string     `json:"full_name"`    // "shop.v1.User", set by the registry
	Fields      []*Field   `json:"fields"`       // fields in declaration order, oneof members included
	NestedTypes []*Message `json:"nested_types"` // nested messages
	NestedEnums []*Enum    `json:"nested_enums"` // nested enums
	OneofGroups []*Oneof   `json:"oneof_groups"` // oneof groups
	MapEntry    bool       `json:"map_entry"`    // is this a map entry?
	IsWrapper   bool       `json:"is_wrapper"`   // is this a wrapper?
	Group       bool       `json:"group"`        // declared with the proto2 group syntax
}

// FieldByNumber returns the field with the given tag number, or nil.
func (m *Message) FieldByNumber(n int32) *Field {
	for _, f := range m.Fields {
		if f.Number == n {
			return f
		}
	}
	return nil
}

// FieldByName returns the field with the given name, or nil.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a message field
type Field struct {
	Name         string     `json:"name"`          // "user_name"
	Number       int32      `json:"number"`        // 1
	Label        FieldLabel `json:"label"`         // optional, required, repeated
	Type         FieldType  `json:"type"`          // field type information
	DefaultValue string     `json:"default_value"` // default value (proto2)
	OneofIndex   int32      `json:"oneof_index"`   // oneof group index (-1 if not in oneof)
}

// IsRepeated reports whether the field is repeated. Map fields are repeated.
func (f *Field) IsRepeated() bool {
	return f.Label == LabelRepeated || f.Type.Kind == KindMap
}

// Oneof represents a oneof group
type Oneof struct {
	Name   string   `json:"name"`   // "user_info"
	Fields []*Field `json:"fields"` // fields in this oneof
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum, map, wrapper, group
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message and group types: "User", "google.protobuf.Timestamp"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
	WrapperType   WrapperType   `json:"wrapper_type,omitempty"`   // for wrapper types
	MapKey        *FieldType    `json:"map_key,omitempty"`        // for map key type
	MapValue      *FieldType    `json:"map_value,omitempty"`      // for map value type
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
	KindMap       TypeKind = "map"
	KindWrapper   TypeKind = "wrapper"
	KindGroup     TypeKind = "group"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitives = map[PrimitiveType]bool{
	TypeDouble: true, TypeFloat: true, TypeInt64: true, TypeUint64: true,
	TypeInt32: true, TypeFixed64: true, TypeFixed32: true, TypeBool: true,
	TypeUint32: true, TypeSfixed32: true, TypeSfixed64: true, TypeSint32: true,
	TypeSint64: true,
	// not packable
	TypeString: false, TypeBytes: false,
}

// IsPrimitive reports whether name is a scalar type keyword.
func IsPrimitive(name string) bool {
	_, ok := primitives[PrimitiveType(name)]
	return ok
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	return primitives[t]
}

// WrapperType represents protobuf wrapper types
type WrapperType string

const (
	WrapperDoubleValue WrapperType = "google.protobuf.DoubleValue"
	WrapperFloatValue  WrapperType = "google.protobuf.FloatValue"
	WrapperInt64Value  WrapperType = "google.protobuf.Int64Value"
	WrapperUInt64Value WrapperType = "google.protobuf.UInt64Value"
	WrapperInt32Value  WrapperType = "google.protobuf.Int32Value"
	WrapperUInt32Value WrapperType = "google.protobuf.UInt32Value"
	WrapperBoolValue   WrapperType = "google.protobuf.BoolValue"
	WrapperStringValue WrapperType = "google.protobuf.StringValue"
	WrapperBytesValue  WrapperType = "google.protobuf.BytesValue"
)

var wrapped = map[WrapperType]PrimitiveType{
	WrapperDoubleValue: TypeDouble,
	WrapperFloatValue:  TypeFloat,
	WrapperInt64Value:  TypeInt64,
	WrapperUInt64Value: TypeUint64,
	WrapperInt32Value:  TypeInt32,
	WrapperUInt32Value: TypeUint32,
	WrapperBoolValue:   TypeBool,
	WrapperStringValue: TypeString,
	WrapperBytesValue:  TypeBytes,
}

// Primitive returns the scalar type carried in the wrapper's "value" field.
func (w WrapperType) Primitive() (PrimitiveType, bool) {
	p, ok := wrapped[w]
	return p, ok
}

// Enum represents an enum definition
type Enum struct {
	Name       string       `json:"name"`        // "Status"
	FullName   string       `json:"full_name"`   // "shop.v1.Status", set by the registry
	Values     []*EnumValue `json:"values"`      // enum values
	AllowAlias bool         `json:"allow_alias"` // allow_alias option
}

// ValueByNumber returns the first declared value with number n, or nil.
func (e *Enum) ValueByNumber(n int32) *EnumValue {
	for _, v := range e.Values {
		if v.Number == n {
			return v
		}
	}
	return nil
}

// ValueByName returns the value called name, or nil.
func (e *Enum) ValueByName(name string) *EnumValue {
	for _, v := range e.Values {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Default returns the value an unset enum field takes: the first declared value.
func (e *Enum) Default() *EnumValue {
	if len(e.Values) == 0 {
		return nil
	}
	return e.Values[0]
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "ACTIVE"
	Number int32  `json:"number"` // 1
}

// Service represents a service definition
type Service struct {
	Name    string    `json:"name"`    // "UserService"
	Methods []*Method `json:"methods"` // service methods
}

// Method represents a service method
type Method struct {
	Name            string `json:"name"`             // "GetUser"
	InputType       string `json:"input_type"`       // "GetUserRequest"
	OutputType      string `json:"output_type"`      // "GetUserResponse"
	ClientStreaming bool   `json:"client_streaming"` // stream input
	ServerStreaming bool   `json:"server_streaming"` // stream output
}
