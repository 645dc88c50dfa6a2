package pbreflect

import (
	"cmp"
	"fmt"
	"slices"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/serde"
)

// entries presents a map field as a list of entry messages sorted by key.
type entries struct {
	md   protoreflect.MessageDescriptor
	m    protoreflect.Map
	keys []protoreflect.MapKey
}

func newEntries(fd protoreflect.FieldDescriptor, m protoreflect.Map) *entries {
	keys := make([]protoreflect.MapKey, 0, m.Len())
	m.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	slices.SortFunc(keys, compareKeys)
	return &entries{md: fd.Message(), m: m, keys: keys}
}

func (e *entries) Len() int { return len(e.keys) }

func (e *entries) Get(i int) (any, error) {
	if i < 0 || i >= len(e.keys) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", serde.ErrSchemaMismatch, i, len(e.keys))
	}
	k := e.keys[i]
	return &entry{md: e.md, key: k, value: e.m.Get(k)}, nil
}

// entry is a single key/value pair of a map field.
type entry struct {
	md    protoreflect.MessageDescriptor
	key   protoreflect.MapKey
	value protoreflect.Value
}

func (e *entry) Name() string { return string(e.md.FullName()) }

func (e *entry) Fields() []serde.Field { return Fields(e.md) }

func (e *entry) Get(f serde.Field) (any, error) {
	fd, err := lookup(e.md, f)
	if err != nil {
		return nil, err
	}
	if fd.Number() == 1 {
		return convert(fd, e.key.Value())
	}
	return convert(fd, e.value)
}

func (e *entry) List(f serde.Field) (serde.List, error) {
	return nil, fmt.Errorf("%w: map entry field %s is not repeated", serde.ErrSchemaMismatch, f.Name)
}

func compareKeys(a, b protoreflect.MapKey) int {
	switch av := a.Interface().(type) {
	case bool:
		bv := b.Bool()
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case int32, int64:
		return cmp.Compare(a.Int(), b.Int())
	case uint32, uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	case string:
		return cmp.Compare(av, b.String())
	default:
		return 0
	}
}
