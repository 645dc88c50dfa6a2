// Package testdesc builds the descriptors shared by the package tests. The file
// mirrors this proto2 source:
//
//	package test;
//
//	enum Color { RED = 0; GREEN = 1; NEGATIVE = -1; }
//
//	message Inner { optional int32 n = 1; }
//
//	message All {
//	  optional int32    i32   = 1;  optional int64    i64   = 2;
//	  optional uint32   u32   = 3;  optional uint64   u64   = 4;
//	  optional sint32   s32   = 5;  optional sint64   s64   = 6;
//	  optional fixed32  f32   = 7;  optional fixed64  f64   = 8;
//	  optional sfixed32 sf32  = 9;  optional sfixed64 sf64  = 10;
//	  optional float    flt   = 11; optional double   dbl   = 12;
//	  optional bool     flag  = 13; optional string   name  = 14;
//	  optional bytes    blob  = 15; optional Color    color = 16;
//	  optional Inner    inner = 17;
//	  repeated int32    nums   = 18;
//	  repeated Inner    inners = 19;
//	  map<string, int32> counts = 20;
//	  repeated Color    colors = 21;
//	}
//
//	message Legacy {
//	  optional int32 id = 1;
//	  optional group Item = 2 { optional int32 x = 3; }
//	}
//
//	message Node { optional string label = 1; optional Node next = 2; }
package testdesc

import (
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	once sync.Once
	file protoreflect.FileDescriptor
)

// File returns the compiled test file. It panics if the descriptor is invalid.
func File() protoreflect.FileDescriptor {
	once.Do(func() {
		fd, err := protodesc.NewFile(fileProto(), nil)
		if err != nil {
			panic(err)
		}
		file = fd
	})
	return file
}

// Message returns the named top-level message descriptor, e.g. "All".
func Message(name string) protoreflect.MessageDescriptor {
	md := File().Messages().ByName(protoreflect.Name(name))
	if md == nil {
		panic("testdesc: no message " + name)
	}
	return md
}

// Source is the same schema as .proto text, extended with the Choice message
// for schema-driven decoding tests.
const Source = `syntax = "proto2";
package test;

import "google/protobuf/wrappers.proto";

enum Color {
  RED = 0;
  GREEN = 1;
  NEGATIVE = -1;
}

message Inner {
  optional int32 n = 1;
}

message All {
  optional int32 i32 = 1;
  optional int64 i64 = 2;
  optional uint32 u32 = 3;
  optional uint64 u64 = 4;
  optional sint32 s32 = 5;
  optional sint64 s64 = 6;
  optional fixed32 f32 = 7;
  optional fixed64 f64 = 8;
  optional sfixed32 sf32 = 9;
  optional sfixed64 sf64 = 10;
  optional float flt = 11;
  optional double dbl = 12;
  optional bool flag = 13;
  optional string name = 14;
  optional bytes blob = 15;
  optional Color color = 16;
  optional Inner inner = 17;
  repeated int32 nums = 18;
  repeated Inner inners = 19;
  map<string, int32> counts = 20;
  repeated Color colors = 21;
}

message Legacy {
  optional int32 id = 1;
  optional group Item = 2 {
    optional int32 x = 3;
  }
}

message Choice {
  oneof pick {
    string text = 1;
    int32 number = 2;
  }
  optional google.protobuf.StringValue note = 3;
  map<int64, Inner> by_id = 4;
  optional int32 limit = 5 [default = 25];
  optional string label = 6 [default = "none"];
  optional Color shade = 7 [default = GREEN];
}

message Node {
  optional string label = 1;
  optional Node next = 2;
}
`

// New returns an empty dynamic message of the named type.
func New(name string) *dynamicpb.Message {
	return dynamicpb.NewMessage(Message(name))
}

const (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

func field(name string, number int32, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  label.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func fileProto() *descriptorpb.FileDescriptorProto {
	type T = descriptorpb.FieldDescriptorProto_Type
	const (
		i32  T = descriptorpb.FieldDescriptorProto_TYPE_INT32
		i64  T = descriptorpb.FieldDescriptorProto_TYPE_INT64
		u32  T = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		u64  T = descriptorpb.FieldDescriptorProto_TYPE_UINT64
		s32  T = descriptorpb.FieldDescriptorProto_TYPE_SINT32
		s64  T = descriptorpb.FieldDescriptorProto_TYPE_SINT64
		f32  T = descriptorpb.FieldDescriptorProto_TYPE_FIXED32
		f64  T = descriptorpb.FieldDescriptorProto_TYPE_FIXED64
		sf32 T = descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
		sf64 T = descriptorpb.FieldDescriptorProto_TYPE_SFIXED64
		flt  T = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
		dbl  T = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		bl   T = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		str  T = descriptorpb.FieldDescriptorProto_TYPE_STRING
		byt  T = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		enm  T = descriptorpb.FieldDescriptorProto_TYPE_ENUM
		msg  T = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
		grp  T = descriptorpb.FieldDescriptorProto_TYPE_GROUP
	)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("test.proto"),
		Package: proto.String("test"),
		Syntax:  proto.String("proto2"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Color"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("RED"), Number: proto.Int32(0)},
				{Name: proto.String("GREEN"), Number: proto.Int32(1)},
				{Name: proto.String("NEGATIVE"), Number: proto.Int32(-1)},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name:  proto.String("Inner"),
				Field: []*descriptorpb.FieldDescriptorProto{field("n", 1, optional, i32, "")},
			},
			{
				Name: proto.String("All"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("i32", 1, optional, i32, ""),
					field("i64", 2, optional, i64, ""),
					field("u32", 3, optional, u32, ""),
					field("u64", 4, optional, u64, ""),
					field("s32", 5, optional, s32, ""),
					field("s64", 6, optional, s64, ""),
					field("f32", 7, optional, f32, ""),
					field("f64", 8, optional, f64, ""),
					field("sf32", 9, optional, sf32, ""),
					field("sf64", 10, optional, sf64, ""),
					field("flt", 11, optional, flt, ""),
					field("dbl", 12, optional, dbl, ""),
					field("flag", 13, optional, bl, ""),
					field("name", 14, optional, str, ""),
					field("blob", 15, optional, byt, ""),
					field("color", 16, optional, enm, ".test.Color"),
					field("inner", 17, optional, msg, ".test.Inner"),
					field("nums", 18, repeated, i32, ""),
					field("inners", 19, repeated, msg, ".test.Inner"),
					field("counts", 20, repeated, msg, ".test.All.CountsEntry"),
					field("colors", 21, repeated, enm, ".test.Color"),
				},
				NestedType: []*descriptorpb.DescriptorProto{{
					Name: proto.String("CountsEntry"),
					Field: []*descriptorpb.FieldDescriptorProto{
						field("key", 1, optional, str, ""),
						field("value", 2, optional, i32, ""),
					},
					Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
				}},
			},
			{
				Name: proto.String("Legacy"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("id", 1, optional, i32, ""),
					field("item", 2, optional, grp, ".test.Legacy.Item"),
				},
				NestedType: []*descriptorpb.DescriptorProto{{
					Name:  proto.String("Item"),
					Field: []*descriptorpb.FieldDescriptorProto{field("x", 3, optional, i32, "")},
				}},
			},
			{
				Name: proto.String("Node"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("label", 1, optional, str, ""),
					field("next", 2, optional, msg, ".test.Node"),
				},
			},
		},
	}
}
