package serde_test

import (
	"fmt"

	"github.com/anirudhraja/protoserde/serde"
)

// fakeMessage is a provider over a plain value map. Repeated fields hold []any.
type fakeMessage struct {
	name   string
	fields []serde.Field
	values map[string]any
}

func newFake(name string, values map[string]any, fields ...serde.Field) *fakeMessage {
	for i := range fields {
		fields[i].Index = i
		if fields[i].Number == 0 {
			fields[i].Number = int32(i + 1)
		}
	}
	return &fakeMessage{name: name, fields: fields, values: values}
}

func (m *fakeMessage) Name() string          { return m.name }
func (m *fakeMessage) Fields() []serde.Field { return m.fields }

func (m *fakeMessage) Get(f serde.Field) (any, error) {
	v, ok := m.values[f.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no value", serde.ErrSchemaMismatch, f.Name)
	}
	return v, nil
}

func (m *fakeMessage) List(f serde.Field) (serde.List, error) {
	v, ok := m.values[f.Name]
	if !ok {
		return fakeList(nil), nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not a list", serde.ErrSchemaMismatch, f.Name, v)
	}
	return fakeList(items), nil
}

type fakeList []any

func (l fakeList) Len() int { return len(l) }

func (l fakeList) Get(i int) (any, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("%w: index %d out of range", serde.ErrSchemaMismatch, i)
	}
	return l[i], nil
}

func field(name string, kind serde.Kind) serde.Field {
	return serde.Field{Name: name, Kind: kind}
}

func repeated(name string, kind serde.Kind) serde.Field {
	return serde.Field{Name: name, Kind: kind, Repeated: true}
}

// recorder logs every encoder call; failAt makes the call with that index fail.
type recorder struct {
	calls  []string
	failAt int
	err    error
}

func (r *recorder) rec(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	if r.err != nil && len(r.calls)-1 == r.failAt {
		return r.err
	}
	return nil
}

func (r *recorder) BeginMap(n int) error            { return r.rec("map(%d)", n) }
func (r *recorder) MapKey(k string) error           { return r.rec("key %s", k) }
func (r *recorder) EndMap() error                   { return r.rec("end map") }
func (r *recorder) BeginSeq(n int) error            { return r.rec("seq(%d)", n) }
func (r *recorder) EndSeq() error                   { return r.rec("end seq") }
func (r *recorder) Int32(v int32) error             { return r.rec("int32 %d", v) }
func (r *recorder) Int64(v int64) error             { return r.rec("int64 %d", v) }
func (r *recorder) Uint32(v uint32) error           { return r.rec("uint32 %d", v) }
func (r *recorder) Uint64(v uint64) error           { return r.rec("uint64 %d", v) }
func (r *recorder) Bool(v bool) error               { return r.rec("bool %t", v) }
func (r *recorder) Float32(v float32) error         { return r.rec("float32 %v", v) }
func (r *recorder) Float64(v float64) error         { return r.rec("float64 %v", v) }
func (r *recorder) String(v string) error           { return r.rec("string %q", v) }
func (r *recorder) Bytes(v []byte) error            { return r.rec("bytes %x", v) }
func (r *recorder) Enum(enum, variant string) error { return r.rec("enum %s.%s", enum, variant) }
