package registry

import "github.com/anirudhraja/protoserde/schema"

// wellKnownFiles returns the google.protobuf types every registry knows without
// loading their sources. Imports of google/protobuf/*.proto resolve to these.
func wellKnownFiles() []*schema.ProtoFile {
	scalar := func(name string, number int32, t schema.PrimitiveType) *schema.Field {
		return &schema.Field{
			Name:       name,
			Number:     number,
			Label:      schema.LabelOptional,
			Type:       schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: t},
			OneofIndex: -1,
		}
	}
	message := func(name string, number int32, typeName string, oneof int32) *schema.Field {
		return &schema.Field{
			Name:       name,
			Number:     number,
			Label:      schema.LabelOptional,
			Type:       schema.FieldType{Kind: schema.KindMessage, MessageType: typeName},
			OneofIndex: oneof,
		}
	}

	wrappers := &schema.ProtoFile{Name: "google/protobuf/wrappers.proto", Package: "google.protobuf", Syntax: "proto3"}
	for _, w := range []schema.WrapperType{
		schema.WrapperDoubleValue, schema.WrapperFloatValue,
		schema.WrapperInt64Value, schema.WrapperUInt64Value,
		schema.WrapperInt32Value, schema.WrapperUInt32Value,
		schema.WrapperBoolValue, schema.WrapperStringValue, schema.WrapperBytesValue,
	} {
		p, _ := w.Primitive()
		wrappers.Messages = append(wrappers.Messages, &schema.Message{
			Name:      string(w)[len("google.protobuf."):],
			Fields:    []*schema.Field{scalar("value", 1, p)},
			IsWrapper: true,
		})
	}

	timestamp := &schema.ProtoFile{
		Name: "google/protobuf/timestamp.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{{
			Name:   "Timestamp",
			Fields: []*schema.Field{scalar("seconds", 1, schema.TypeInt64), scalar("nanos", 2, schema.TypeInt32)},
		}},
	}
	duration := &schema.ProtoFile{
		Name: "google/protobuf/duration.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{{
			Name:   "Duration",
			Fields: []*schema.Field{scalar("seconds", 1, schema.TypeInt64), scalar("nanos", 2, schema.TypeInt32)},
		}},
	}
	empty := &schema.ProtoFile{
		Name: "google/protobuf/empty.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{{Name: "Empty"}},
	}
	anyFile := &schema.ProtoFile{
		Name: "google/protobuf/any.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{{
			Name:   "Any",
			Fields: []*schema.Field{scalar("type_url", 1, schema.TypeString), scalar("value", 2, schema.TypeBytes)},
		}},
	}
	paths := scalar("paths", 1, schema.TypeString)
	paths.Label = schema.LabelRepeated
	fieldMask := &schema.ProtoFile{
		Name: "google/protobuf/field_mask.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{{Name: "FieldMask", Fields: []*schema.Field{paths}}},
	}

	valueType := schema.FieldType{Kind: schema.KindMessage, MessageType: "Value"}
	keyType := schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}
	values := message("values", 1, "Value", -1)
	values.Label = schema.LabelRepeated
	kind := []*schema.Field{
		{
			Name: "null_value", Number: 1, Label: schema.LabelOptional,
			Type: schema.FieldType{Kind: schema.KindEnum, EnumType: "NullValue"}, OneofIndex: 0,
		},
		scalar("number_value", 2, schema.TypeDouble),
		scalar("string_value", 3, schema.TypeString),
		scalar("bool_value", 4, schema.TypeBool),
		message("struct_value", 5, "Struct", 0),
		message("list_value", 6, "ListValue", 0),
	}
	for _, f := range kind {
		f.OneofIndex = 0
	}
	structFile := &schema.ProtoFile{
		Name: "google/protobuf/struct.proto", Package: "google.protobuf", Syntax: "proto3",
		Messages: []*schema.Message{
			{
				Name: "Struct",
				Fields: []*schema.Field{{
					Name: "fields", Number: 1, Label: schema.LabelRepeated,
					Type:       schema.FieldType{Kind: schema.KindMap, MapKey: &keyType, MapValue: &valueType},
					OneofIndex: -1,
				}},
			},
			{
				Name:        "Value",
				Fields:      kind,
				OneofGroups: []*schema.Oneof{{Name: "kind", Fields: kind}},
			},
			{Name: "ListValue", Fields: []*schema.Field{values}},
		},
		Enums: []*schema.Enum{{
			Name:   "NullValue",
			Values: []*schema.EnumValue{{Name: "NULL_VALUE", Number: 0}},
		}},
	}

	return []*schema.ProtoFile{wrappers, timestamp, duration, empty, anyFile, fieldMask, structFile}
}
