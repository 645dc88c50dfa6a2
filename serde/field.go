package serde

import "fmt"

// FieldAdapter serializes one field of a message: a single value for singular
// fields, a sequence for repeated ones.
type FieldAdapter struct {
	msg   Message
	field Field
	depth int
	opts  *options
}

var _ Serializer = FieldAdapter{}

// NewFieldAdapter wraps field f of m for a single serialization pass.
func NewFieldAdapter(m Message, f Field, opts ...Option) FieldAdapter {
	return FieldAdapter{msg: m, field: f, opts: buildOptions(opts)}
}

// Serialize implements Serializer.
func (a FieldAdapter) Serialize(enc Encoder) error {
	return finish(wrapWithField(a.serialize(enc), a.field.Name), a.msg)
}

func (a FieldAdapter) serialize(enc Encoder) error {
	if a.msg == nil {
		return mismatchf("nil message")
	}
	if a.opts == nil {
		a.opts = buildOptions(nil)
	}
	switch {
	case a.field.Kind == KindGroup:
		return fmt.Errorf("%w: %s", ErrUnsupportedFieldKind, a.field.Kind)
	case !a.field.Kind.Valid():
		return mismatchf("invalid field kind %s", a.field.Kind)
	}

	if a.field.Repeated {
		return a.serializeRepeated(enc)
	}
	v, err := a.msg.Get(a.field)
	if err != nil {
		return err
	}
	return a.emit(enc, v)
}

func (a FieldAdapter) serializeRepeated(enc Encoder) error {
	l, err := a.msg.List(a.field)
	if err != nil {
		return err
	}
	if l == nil {
		return mismatchf("nil list for repeated field")
	}

	n := l.Len()
	if err := enc.BeginSeq(n); err != nil {
		return fromEncoder(err)
	}
	for i := 0; i < n; i++ {
		v, err := l.Get(i)
		if err == nil {
			err = a.emit(enc, v)
		}
		if err != nil {
			return wrapWithIndex(err, i)
		}
	}
	return fromEncoder(enc.EndSeq())
}

// emit writes one value, singular or list element, by the field's declared kind.
func (a FieldAdapter) emit(enc Encoder, v any) error {
	switch a.field.Kind {
	case KindMessage:
		m, err := expect[Message](v, a.field.Kind)
		if err != nil {
			return err
		}
		if m == nil {
			return mismatchf("nil message value")
		}
		return MessageAdapter{msg: m, depth: a.depth + 1, opts: a.opts}.serialize(enc)
	case KindEnum:
		e, err := expect[EnumValue](v, a.field.Kind)
		if err != nil {
			return err
		}
		return EnumAdapter{value: e}.serialize(enc)
	case KindString:
		s, err := expect[string](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.String(s))
	case KindBytes:
		b, err := expect[[]byte](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Bytes(b))
	case KindInt32, KindSint32, KindSfixed32:
		i, err := expect[int32](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Int32(i))
	case KindInt64, KindSint64, KindSfixed64:
		i, err := expect[int64](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Int64(i))
	case KindUint32, KindFixed32:
		u, err := expect[uint32](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Uint32(u))
	case KindUint64, KindFixed64:
		u, err := expect[uint64](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Uint64(u))
	case KindBool:
		b, err := expect[bool](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Bool(b))
	case KindFloat:
		f, err := expect[float32](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Float32(f))
	case KindDouble:
		f, err := expect[float64](v, a.field.Kind)
		if err != nil {
			return err
		}
		return fromEncoder(enc.Float64(f))
	case KindGroup:
		return fmt.Errorf("%w: %s", ErrUnsupportedFieldKind, a.field.Kind)
	default:
		return mismatchf("invalid field kind %s", a.field.Kind)
	}
}

func expect[T any](v any, k Kind) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, mismatchf("%s field holds %T", k, v)
	}
	return t, nil
}
