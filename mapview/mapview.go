// Package mapview exposes messages decoded by package wire, held as
// map[string]interface{}, as serde.Message views described by registry schemas.
//
// Absent fields report protobuf defaults: zero scalars or the proto2 default
// option, the first declared enum value, empty repeated fields and an empty
// nested message. Map fields are repeated entry messages ordered by key, and
// wrapper fields are messages with a single "value" field.
package mapview

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/anirudhraja/protoserde/registry"
	"github.com/anirudhraja/protoserde/schema"
	"github.com/anirudhraja/protoserde/serde"
	"github.com/anirudhraja/protoserde/wire"
)

// Message is a serde.Message view over a decoded message.
type Message struct {
	data   map[string]interface{}
	msg    *schema.Message
	reg    *registry.Registry
	fields []serde.Field
}

var _ serde.Message = (*Message)(nil)

// New returns a view of data as a message of type msg. reg resolves nested
// message, enum and map entry types.
func New(data map[string]interface{}, msg *schema.Message, reg *registry.Registry) *Message {
	return &Message{data: data, msg: msg, reg: reg, fields: Fields(msg)}
}

// Fields lists the fields of msg in declaration order. Each call returns a new
// slice.
func Fields(msg *schema.Message) []serde.Field {
	fields := make([]serde.Field, len(msg.Fields))
	for i, f := range msg.Fields {
		fields[i] = serde.Field{
			Name:     f.Name,
			Number:   f.Number,
			Kind:     KindOf(&f.Type),
			Repeated: f.IsRepeated(),
			Index:    i,
		}
	}
	return fields
}

var primitiveKinds = map[schema.PrimitiveType]serde.Kind{
	schema.TypeDouble:   serde.KindDouble,
	schema.TypeFloat:    serde.KindFloat,
	schema.TypeInt64:    serde.KindInt64,
	schema.TypeUint64:   serde.KindUint64,
	schema.TypeInt32:    serde.KindInt32,
	schema.TypeFixed64:  serde.KindFixed64,
	schema.TypeFixed32:  serde.KindFixed32,
	schema.TypeBool:     serde.KindBool,
	schema.TypeString:   serde.KindString,
	schema.TypeBytes:    serde.KindBytes,
	schema.TypeUint32:   serde.KindUint32,
	schema.TypeSfixed32: serde.KindSfixed32,
	schema.TypeSfixed64: serde.KindSfixed64,
	schema.TypeSint32:   serde.KindSint32,
	schema.TypeSint64:   serde.KindSint64,
}

// KindOf classifies a schema field type.
func KindOf(ft *schema.FieldType) serde.Kind {
	switch ft.Kind {
	case schema.KindPrimitive:
		return primitiveKinds[ft.PrimitiveType]
	case schema.KindMessage, schema.KindMap, schema.KindWrapper:
		return serde.KindMessage
	case schema.KindEnum:
		return serde.KindEnum
	case schema.KindGroup:
		return serde.KindGroup
	default:
		return serde.KindInvalid
	}
}

// Name returns the full name of the message type.
func (m *Message) Name() string {
	if m.msg.FullName != "" {
		return m.msg.FullName
	}
	return m.msg.Name
}

// Fields implements serde.Message.
func (m *Message) Fields() []serde.Field { return m.fields }

// Get implements serde.Message.
func (m *Message) Get(f serde.Field) (any, error) {
	field, err := m.lookup(f)
	if err != nil {
		return nil, err
	}
	if field.IsRepeated() {
		return nil, fmt.Errorf("%w: repeated field %s read as singular", serde.ErrSchemaMismatch, field.Name)
	}
	v, ok := m.data[field.Name]
	if !ok || v == nil {
		return m.absent(field)
	}
	return m.value(&field.Type, v)
}

// List implements serde.Message.
func (m *Message) List(f serde.Field) (serde.List, error) {
	field, err := m.lookup(f)
	if err != nil {
		return nil, err
	}
	if !field.IsRepeated() {
		return nil, fmt.Errorf("%w: singular field %s read as repeated", serde.ErrSchemaMismatch, field.Name)
	}
	v := m.data[field.Name]

	if field.Type.Kind == schema.KindMap {
		entry, err := m.reg.MapEntryFor(m.msg, field)
		if err != nil {
			return nil, err
		}
		return newEntries(m, entry, v)
	}

	var items []interface{}
	switch t := v.(type) {
	case nil:
	case []interface{}:
		items = t
	default:
		return nil, fmt.Errorf("%w: repeated field %s holds %T", serde.ErrSchemaMismatch, field.Name, v)
	}
	return &list{owner: m, ft: &field.Type, items: items}, nil
}

func (m *Message) lookup(f serde.Field) (*schema.Field, error) {
	if f.Index < 0 || f.Index >= len(m.msg.Fields) {
		return nil, fmt.Errorf("%w: %s has no field at index %d", serde.ErrSchemaMismatch, m.Name(), f.Index)
	}
	field := m.msg.Fields[f.Index]
	if field.Name != f.Name {
		return nil, fmt.Errorf("%w: %s field %d is %s, not %s", serde.ErrSchemaMismatch, m.Name(), f.Index, field.Name, f.Name)
	}
	return field, nil
}

// absent returns the default of a singular field missing from the data.
func (m *Message) absent(field *schema.Field) (any, error) {
	switch field.Type.Kind {
	case schema.KindPrimitive:
		return wire.ScalarDefault(field)
	case schema.KindEnum:
		enum, err := m.reg.GetEnum(field.Type.EnumType)
		if err != nil {
			return nil, err
		}
		v := enum.Default()
		if field.DefaultValue != "" {
			v = enum.ValueByName(field.DefaultValue)
		}
		if v == nil {
			return nil, fmt.Errorf("%w: enum %s has no default value", serde.ErrSchemaMismatch, enum.FullName)
		}
		return serde.EnumValue{Enum: enum.FullName, Name: v.Name, Number: v.Number}, nil
	default:
		return m.value(&field.Type, map[string]interface{}{})
	}
}

// value converts one decoded value of type ft.
func (m *Message) value(ft *schema.FieldType, v interface{}) (any, error) {
	switch ft.Kind {
	case schema.KindPrimitive:
		return checkScalar(ft.PrimitiveType, v)
	case schema.KindEnum:
		return m.enumValue(ft.EnumType, v)
	case schema.KindMessage:
		return m.nested(ft.MessageType, v)
	case schema.KindWrapper:
		if _, ok := v.(map[string]interface{}); !ok {
			// unwrapped on decode
			v = map[string]interface{}{"value": v}
		}
		return m.nested(string(ft.WrapperType), v)
	case schema.KindGroup:
		return nil, fmt.Errorf("%w: group %s", serde.ErrUnsupportedFieldKind, ft.MessageType)
	default:
		return nil, fmt.Errorf("%w: type kind %q", serde.ErrSchemaMismatch, ft.Kind)
	}
}

func (m *Message) nested(typeName string, v interface{}) (any, error) {
	data, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: message %s holds %T", serde.ErrSchemaMismatch, typeName, v)
	}
	msg, err := m.reg.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	return New(data, msg, m.reg), nil
}

func (m *Message) enumValue(enumType string, v interface{}) (any, error) {
	enum, err := m.reg.GetEnum(enumType)
	if err != nil {
		return nil, err
	}
	var ev *schema.EnumValue
	switch t := v.(type) {
	case string:
		ev = enum.ValueByName(t)
	case int32:
		ev = enum.ValueByNumber(t)
	default:
		return nil, fmt.Errorf("%w: enum %s holds %T", serde.ErrSchemaMismatch, enum.FullName, v)
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: enum %s has no value %v", serde.ErrSchemaMismatch, enum.FullName, v)
	}
	return serde.EnumValue{Enum: enum.FullName, Name: ev.Name, Number: ev.Number}, nil
}

// checkScalar verifies v has the Go type serde expects for pt.
func checkScalar(pt schema.PrimitiveType, v interface{}) (any, error) {
	var ok bool
	switch pt {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		_, ok = v.(int32)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		_, ok = v.(int64)
	case schema.TypeUint32, schema.TypeFixed32:
		_, ok = v.(uint32)
	case schema.TypeUint64, schema.TypeFixed64:
		_, ok = v.(uint64)
	case schema.TypeFloat:
		_, ok = v.(float32)
	case schema.TypeDouble:
		_, ok = v.(float64)
	case schema.TypeBool:
		_, ok = v.(bool)
	case schema.TypeString:
		_, ok = v.(string)
	case schema.TypeBytes:
		_, ok = v.([]byte)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s field holds %T", serde.ErrSchemaMismatch, pt, v)
	}
	return v, nil
}

type list struct {
	owner *Message
	ft    *schema.FieldType
	items []interface{}
}

func (l *list) Len() int { return len(l.items) }

func (l *list) Get(i int) (any, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", serde.ErrSchemaMismatch, i, len(l.items))
	}
	if l.items[i] == nil {
		return nil, fmt.Errorf("%w: nil element", serde.ErrSchemaMismatch)
	}
	return l.owner.value(l.ft, l.items[i])
}

// entries presents a decoded map as entry messages sorted by key.
type entries struct {
	owner *Message
	entry *schema.Message
	keys  []interface{}
	m     map[interface{}]interface{}
}

func newEntries(owner *Message, entry *schema.Message, v interface{}) (*entries, error) {
	e := &entries{owner: owner, entry: entry}
	switch t := v.(type) {
	case nil:
	case map[interface{}]interface{}:
		e.m = t
	case map[string]interface{}:
		e.m = make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			e.m[k] = val
		}
	default:
		return nil, fmt.Errorf("%w: map field holds %T", serde.ErrSchemaMismatch, v)
	}
	e.keys = make([]interface{}, 0, len(e.m))
	for k := range e.m {
		e.keys = append(e.keys, k)
	}
	slices.SortFunc(e.keys, compareKeys)
	return e, nil
}

func (e *entries) Len() int { return len(e.keys) }

func (e *entries) Get(i int) (any, error) {
	if i < 0 || i >= len(e.keys) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", serde.ErrSchemaMismatch, i, len(e.keys))
	}
	k := e.keys[i]
	data := map[string]interface{}{"key": k}
	if v := e.m[k]; v != nil {
		data["value"] = v
	}
	return New(data, e.entry, e.owner.reg), nil
}

// compareKeys orders map keys of one type; keys of different types order by
// type name.
func compareKeys(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case int32:
		if bv, ok := b.(int32); ok {
			return cmp.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case uint32:
		if bv, ok := b.(uint32); ok {
			return cmp.Compare(av, bv)
		}
	case uint64:
		if bv, ok := b.(uint64); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}
