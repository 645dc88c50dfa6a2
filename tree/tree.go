// Package tree is a serde.Encoder that builds an in-memory, order-preserving
// value tree. It records the length hints it was given so callers can check
// them against what was actually emitted.
package tree

import (
	"errors"
	"fmt"

	"github.com/anirudhraja/protoserde/serde"
)

// Map is an ordered map node.
type Map struct {
	Hint    int
	Entries []Entry
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value any
}

// Keys returns the keys in emission order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Seq is a sequence node.
type Seq struct {
	Hint  int
	Items []any
}

// Enum is an emitted enum variant.
type Enum struct {
	Type    string
	Variant string
}

var (
	// ErrUnbalanced is returned when an End call does not match the open
	// container, or the tree is read while incomplete.
	ErrUnbalanced = errors.New("tree: unbalanced begin/end")

	// ErrNoKey is returned when a map value arrives before its MapKey call.
	ErrNoKey = errors.New("tree: map value without key")
)

type frame struct {
	m      *Map
	s      *Seq
	key    string
	hasKey bool
}

// Builder implements serde.Encoder.
type Builder struct {
	stack []*frame
	root  any
	done  bool
}

var _ serde.Encoder = (*Builder)(nil)

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Result returns the completed tree. It fails if a map or sequence is still open
// or nothing was written.
func (b *Builder) Result() (any, error) {
	if len(b.stack) != 0 || !b.done {
		return nil, ErrUnbalanced
	}
	return b.root, nil
}

func (b *Builder) put(v any) error {
	if len(b.stack) == 0 {
		if b.done {
			return fmt.Errorf("tree: second root value %T", v)
		}
		b.root, b.done = v, true
		return nil
	}
	top := b.stack[len(b.stack)-1]
	if top.m != nil {
		if !top.hasKey {
			return ErrNoKey
		}
		top.m.Entries = append(top.m.Entries, Entry{Key: top.key, Value: v})
		top.hasKey = false
		return nil
	}
	top.s.Items = append(top.s.Items, v)
	return nil
}

func (b *Builder) BeginMap(n int) error {
	m := &Map{Hint: n, Entries: make([]Entry, 0, n)}
	if err := b.put(m); err != nil {
		return err
	}
	b.stack = append(b.stack, &frame{m: m})
	return nil
}

func (b *Builder) MapKey(key string) error {
	if len(b.stack) == 0 || b.stack[len(b.stack)-1].m == nil {
		return fmt.Errorf("tree: key %q outside a map", key)
	}
	top := b.stack[len(b.stack)-1]
	top.key, top.hasKey = key, true
	return nil
}

func (b *Builder) EndMap() error {
	if len(b.stack) == 0 || b.stack[len(b.stack)-1].m == nil {
		return ErrUnbalanced
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

func (b *Builder) BeginSeq(n int) error {
	s := &Seq{Hint: n, Items: make([]any, 0, n)}
	if err := b.put(s); err != nil {
		return err
	}
	b.stack = append(b.stack, &frame{s: s})
	return nil
}

func (b *Builder) EndSeq() error {
	if len(b.stack) == 0 || b.stack[len(b.stack)-1].s == nil {
		return ErrUnbalanced
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

func (b *Builder) Int32(v int32) error     { return b.put(v) }
func (b *Builder) Int64(v int64) error     { return b.put(v) }
func (b *Builder) Uint32(v uint32) error   { return b.put(v) }
func (b *Builder) Uint64(v uint64) error   { return b.put(v) }
func (b *Builder) Bool(v bool) error       { return b.put(v) }
func (b *Builder) Float32(v float32) error { return b.put(v) }
func (b *Builder) Float64(v float64) error { return b.put(v) }
func (b *Builder) String(v string) error   { return b.put(v) }

func (b *Builder) Bytes(v []byte) error {
	out := make([]byte, len(v))
	copy(out, v)
	return b.put(out)
}

func (b *Builder) Enum(enum, variant string) error {
	return b.put(Enum{Type: enum, Variant: variant})
}

// Plain converts a tree into plain Go values: *Map becomes map[string]any, *Seq
// becomes []any and Enum becomes its variant name. Scalars keep their Go type.
func Plain(v any) any {
	switch t := v.(type) {
	case *Map:
		out := make(map[string]any, len(t.Entries))
		for _, e := range t.Entries {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case *Seq:
		out := make([]any, len(t.Items))
		for i, item := range t.Items {
			out[i] = Plain(item)
		}
		return out
	case Enum:
		return t.Variant
	default:
		return v
	}
}

// Build serializes m into a fresh Builder and returns the tree.
func Build(m serde.Message, opts ...serde.Option) (any, error) {
	b := NewBuilder()
	if err := serde.Serialize(b, m, opts...); err != nil {
		return nil, err
	}
	return b.Result()
}
