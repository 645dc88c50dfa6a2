package protoserde_test

import (
	"fmt"
	"log"
	"os"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/anirudhraja/protoserde"
	"github.com/anirudhraja/protoserde/jsonenc"
	"github.com/anirudhraja/protoserde/schema"
	"github.com/anirudhraja/protoserde/wire"
	"github.com/anirudhraja/protoserde/yamlenc"
)

func ExampleProtoserde_Serialize() {
	p := protoserde.New(nil)
	err := p.LoadRepo(&schema.ProtoRepo{ProtoFiles: map[string]*schema.ProtoFile{
		"greet.proto": {
			Name:    "greet.proto",
			Package: "greet",
			Syntax:  "proto3",
			Messages: []*schema.Message{{
				Name: "Hello",
				Fields: []*schema.Field{
					{
						Name: "name", Number: 1, Label: schema.LabelOptional, OneofIndex: -1,
						Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString},
					},
					{
						Name: "count", Number: 2, Label: schema.LabelOptional, OneofIndex: -1,
						Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeInt64},
					},
				},
			}},
		},
	}})
	if err != nil {
		log.Fatal(err)
	}

	// field 1 = "world", field 2 = 3
	payload := wire.NewEncoder().
		EncodeTag(1, wire.WireBytes).EncodeString("world").
		Field(2, 3).
		Bytes()

	if err := p.Serialize(jsonenc.NewEncoder(os.Stdout, jsonenc.QuoteInt64(true)), payload, "greet.Hello"); err != nil {
		log.Fatal(err)
	}
	// Output: {"name":"world","count":"3"}
}

func ExampleSerializeProto() {
	enc := yamlenc.NewEncoder()
	if err := protoserde.SerializeProto(enc, wrapperspb.Int32(42)); err != nil {
		log.Fatal(err)
	}
	if err := enc.Encode(os.Stdout, 2); err != nil {
		log.Fatal(err)
	}
	fmt.Println("---")
	// Output:
	// value: 42
	// ---
}
