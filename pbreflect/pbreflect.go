// Package pbreflect exposes google.golang.org/protobuf messages as serde.Message
// views, so generated and dynamic messages can be walked by their descriptors.
//
// Singular fields read through protoreflect defaults: an unset scalar reports its
// default value and an unset message field reports the empty read-only message.
// Map fields are exposed as repeated entry messages with "key" and "value"
// fields, ordered by key.
package pbreflect

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/serde"
)

// Message is a serde.Message view over a protoreflect.Message.
type Message struct {
	m      protoreflect.Message
	md     protoreflect.MessageDescriptor
	fields []serde.Field
}

var _ serde.Message = (*Message)(nil)

// New returns a view over m.
func New(m protoreflect.Message) *Message {
	md := m.Descriptor()
	return &Message{m: m, md: md, fields: Fields(md)}
}

// Of returns a view over a proto.Message.
func Of(m proto.Message) *Message {
	return New(m.ProtoReflect())
}

// NewWithDescriptor returns a view over m described by md. The descriptor must
// describe m's runtime type: same full name, and every field of md present in m
// with the same number, kind and cardinality. Otherwise it fails with
// serde.ErrSchemaMismatch.
func NewWithDescriptor(m protoreflect.Message, md protoreflect.MessageDescriptor) (*Message, error) {
	actual := m.Descriptor()
	if md.FullName() != actual.FullName() {
		return nil, fmt.Errorf("%w: descriptor %s does not describe message %s", serde.ErrSchemaMismatch, md.FullName(), actual.FullName())
	}
	if md != actual {
		fds := md.Fields()
		if fds.Len() != actual.Fields().Len() {
			return nil, fmt.Errorf("%w: %s declares %d fields, message has %d", serde.ErrSchemaMismatch, md.FullName(), fds.Len(), actual.Fields().Len())
		}
		for i := 0; i < fds.Len(); i++ {
			want := fds.Get(i)
			got := actual.Fields().ByNumber(want.Number())
			if got == nil || got.Name() != want.Name() || got.Kind() != want.Kind() || got.Cardinality() != want.Cardinality() {
				return nil, fmt.Errorf("%w: field %s does not match message %s", serde.ErrSchemaMismatch, want.FullName(), actual.FullName())
			}
		}
	}
	return New(m), nil
}

// Fields lists the fields of md in declaration order. Each call returns a new
// slice.
func Fields(md protoreflect.MessageDescriptor) []serde.Field {
	fds := md.Fields()
	fields := make([]serde.Field, fds.Len())
	for i := range fields {
		fd := fds.Get(i)
		fields[i] = serde.Field{
			Name:     string(fd.Name()),
			Number:   int32(fd.Number()),
			Kind:     KindOf(fd),
			Repeated: fd.Cardinality() == protoreflect.Repeated,
			Index:    i,
		}
	}
	return fields
}

// KindOf classifies a field descriptor.
func KindOf(fd protoreflect.FieldDescriptor) serde.Kind {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return serde.KindBool
	case protoreflect.EnumKind:
		return serde.KindEnum
	case protoreflect.Int32Kind:
		return serde.KindInt32
	case protoreflect.Sint32Kind:
		return serde.KindSint32
	case protoreflect.Uint32Kind:
		return serde.KindUint32
	case protoreflect.Int64Kind:
		return serde.KindInt64
	case protoreflect.Sint64Kind:
		return serde.KindSint64
	case protoreflect.Uint64Kind:
		return serde.KindUint64
	case protoreflect.Sfixed32Kind:
		return serde.KindSfixed32
	case protoreflect.Fixed32Kind:
		return serde.KindFixed32
	case protoreflect.FloatKind:
		return serde.KindFloat
	case protoreflect.Sfixed64Kind:
		return serde.KindSfixed64
	case protoreflect.Fixed64Kind:
		return serde.KindFixed64
	case protoreflect.DoubleKind:
		return serde.KindDouble
	case protoreflect.StringKind:
		return serde.KindString
	case protoreflect.BytesKind:
		return serde.KindBytes
	case protoreflect.MessageKind:
		return serde.KindMessage
	case protoreflect.GroupKind:
		return serde.KindGroup
	default:
		return serde.KindInvalid
	}
}

// Name returns the full name of the message type.
func (v *Message) Name() string { return string(v.md.FullName()) }

// Fields implements serde.Message.
func (v *Message) Fields() []serde.Field { return v.fields }

// Get implements serde.Message.
func (v *Message) Get(f serde.Field) (any, error) {
	fd, err := lookup(v.md, f)
	if err != nil {
		return nil, err
	}
	if fd.IsList() || fd.IsMap() {
		return nil, fmt.Errorf("%w: repeated field %s read as singular", serde.ErrSchemaMismatch, fd.FullName())
	}
	return convert(fd, v.m.Get(fd))
}

// List implements serde.Message.
func (v *Message) List(f serde.Field) (serde.List, error) {
	fd, err := lookup(v.md, f)
	if err != nil {
		return nil, err
	}
	switch {
	case fd.IsMap():
		return newEntries(fd, v.m.Get(fd).Map()), nil
	case fd.IsList():
		return &list{fd: fd, l: v.m.Get(fd).List()}, nil
	default:
		return nil, fmt.Errorf("%w: singular field %s read as repeated", serde.ErrSchemaMismatch, fd.FullName())
	}
}

// lookup resolves f against md by position and checks the name still matches.
func lookup(md protoreflect.MessageDescriptor, f serde.Field) (protoreflect.FieldDescriptor, error) {
	fds := md.Fields()
	if f.Index < 0 || f.Index >= fds.Len() {
		return nil, fmt.Errorf("%w: %s has no field at index %d", serde.ErrSchemaMismatch, md.FullName(), f.Index)
	}
	fd := fds.Get(f.Index)
	if string(fd.Name()) != f.Name {
		return nil, fmt.Errorf("%w: %s field %d is %s, not %s", serde.ErrSchemaMismatch, md.FullName(), f.Index, fd.Name(), f.Name)
	}
	return fd, nil
}

// convert turns a protoreflect value into the Go type serde expects for the kind.
func convert(fd protoreflect.FieldDescriptor, val protoreflect.Value) (any, error) {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(val.Int()), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return val.Int(), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(val.Uint()), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return val.Uint(), nil
	case protoreflect.FloatKind:
		return float32(val.Float()), nil
	case protoreflect.DoubleKind:
		return val.Float(), nil
	case protoreflect.BoolKind:
		return val.Bool(), nil
	case protoreflect.StringKind:
		return val.String(), nil
	case protoreflect.BytesKind:
		return val.Bytes(), nil
	case protoreflect.EnumKind:
		return enumValue(fd.Enum(), val.Enum())
	case protoreflect.MessageKind:
		return New(val.Message()), nil
	case protoreflect.GroupKind:
		return nil, fmt.Errorf("%w: group field %s", serde.ErrUnsupportedFieldKind, fd.FullName())
	default:
		return nil, fmt.Errorf("%w: field %s has unknown kind %v", serde.ErrSchemaMismatch, fd.FullName(), fd.Kind())
	}
}

func enumValue(ed protoreflect.EnumDescriptor, n protoreflect.EnumNumber) (serde.EnumValue, error) {
	ev := ed.Values().ByNumber(n)
	if ev == nil {
		return serde.EnumValue{}, fmt.Errorf("%w: enum %s has no value %d", serde.ErrSchemaMismatch, ed.FullName(), n)
	}
	return serde.EnumValue{
		Enum:   string(ed.FullName()),
		Name:   string(ev.Name()),
		Number: int32(n),
	}, nil
}

type list struct {
	fd protoreflect.FieldDescriptor
	l  protoreflect.List
}

func (l *list) Len() int { return l.l.Len() }

func (l *list) Get(i int) (any, error) {
	if i < 0 || i >= l.l.Len() {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", serde.ErrSchemaMismatch, i, l.l.Len())
	}
	return convert(l.fd, l.l.Get(i))
}
