package serde

import (
	"errors"
	"fmt"
)

// Field describes one declared field of a message.
type Field struct {
	Name     string // unique within the message
	Number   int32
	Kind     Kind
	Repeated bool
	Index    int // position in the owning message's Fields()
}

// EnumValue is a resolved enum value. Only Name is ever emitted.
type EnumValue struct {
	Enum   string // full name of the enum type, e.g. "shop.v1.Status"
	Name   string // variant name, e.g. "STATUS_ACTIVE"
	Number int32
}

// Message is the capability a schema/reflection provider exposes for one message
// value. Implementations are read-only views; the walk never mutates them.
//
// Get returns the value of a singular field and List the elements of a repeated
// one. Values carry the Go type of the field's kind:
//
//	int32, sint32, sfixed32   int32
//	int64, sint64, sfixed64   int64
//	uint32, fixed32           uint32
//	uint64, fixed64           uint64
//	float                     float32
//	double                    float64
//	bool                      bool
//	string                    string
//	bytes                     []byte
//	message                   Message
//	enum                      EnumValue
//
// Unset singular fields report the provider's default. A value of any other
// type is reported as ErrSchemaMismatch.
type Message interface {
	Name() string
	Fields() []Field
	Get(f Field) (any, error)
	List(f Field) (List, error)
}

// List is an indexable repeated field. Get must be O(1).
type List interface {
	Len() int
	Get(i int) (any, error)
}

// Serializer writes itself into an Encoder. The three adapters implement it.
type Serializer interface {
	Serialize(enc Encoder) error
}

// MessageAdapter serializes a message as a map of field name to field value, in
// declaration order, with one entry per declared field.
type MessageAdapter struct {
	msg   Message
	depth int
	opts  *options
}

var _ Serializer = MessageAdapter{}

// NewMessageAdapter wraps m for a single serialization pass.
func NewMessageAdapter(m Message, opts ...Option) MessageAdapter {
	return MessageAdapter{msg: m, opts: buildOptions(opts)}
}

// Serialize implements Serializer.
func (a MessageAdapter) Serialize(enc Encoder) error {
	return finish(a.serialize(enc), a.msg)
}

func (a MessageAdapter) serialize(enc Encoder) error {
	if a.msg == nil {
		return mismatchf("nil message")
	}
	if a.opts == nil {
		a.opts = buildOptions(nil)
	}
	if a.depth > a.opts.maxDepth {
		return fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, a.msg.Name(), a.depth)
	}

	fields := a.msg.Fields()
	if name, ok := duplicateName(fields); ok {
		return wrapWithField(mismatchf("%s: field name declared twice", a.msg.Name()), name)
	}
	if err := enc.BeginMap(len(fields)); err != nil {
		return fromEncoder(err)
	}
	for i, f := range fields {
		if f.Index != i {
			return wrapWithField(mismatchf("%s: field reports index %d at position %d", a.msg.Name(), f.Index, i), f.Name)
		}
		if err := enc.MapKey(f.Name); err != nil {
			return fromEncoder(err)
		}
		fa := FieldAdapter{msg: a.msg, field: f, depth: a.depth, opts: a.opts}
		if err := fa.serialize(enc); err != nil {
			return wrapWithField(err, f.Name)
		}
	}
	return fromEncoder(enc.EndMap())
}

// duplicateName reports the first field name that appears twice in fields.
func duplicateName(fields []Field) (string, bool) {
	if len(fields) <= 16 {
		for i := 1; i < len(fields); i++ {
			for j := 0; j < i; j++ {
				if fields[i].Name == fields[j].Name {
					return fields[i].Name, true
				}
			}
		}
		return "", false
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return f.Name, true
		}
		seen[f.Name] = struct{}{}
	}
	return "", false
}

// Serialize writes m into enc. It is the entry point of a serialization pass and
// returns nil, one of this package's errors wrapped in a *FieldError, or the
// encoder's own error unchanged.
func Serialize(enc Encoder, m Message, opts ...Option) error {
	if enc == nil {
		return errors.New("serde: nil encoder")
	}
	return NewMessageAdapter(m, opts...).Serialize(enc)
}

func finish(err error, m Message) error {
	if err == nil {
		return nil
	}
	name := "<nil>"
	if m != nil {
		name = m.Name()
	}
	err = settle(err)
	log().Debug("serialize failed", "message", name, "error", err)
	return err
}
