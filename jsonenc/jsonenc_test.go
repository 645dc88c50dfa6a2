package jsonenc_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/internal/testdesc"
	"github.com/anirudhraja/protoserde/jsonenc"
	"github.com/anirudhraja/protoserde/pbreflect"
	"github.com/anirudhraja/protoserde/serde"
)

func write(t *testing.T, e serde.Encoder, calls ...func(serde.Encoder) error) {
	t.Helper()
	for _, call := range calls {
		require.NoError(t, call(e))
	}
}

func key(k string) func(serde.Encoder) error { return func(e serde.Encoder) error { return e.MapKey(k) } }

func TestScalars(t *testing.T) {
	tests := []struct {
		name string
		call func(serde.Encoder) error
		opts []jsonenc.Option
		want string
	}{
		{"int32", func(e serde.Encoder) error { return e.Int32(-5) }, nil, "-5"},
		{"uint32", func(e serde.Encoder) error { return e.Uint32(math.MaxUint32) }, nil, "4294967295"},
		{"int64", func(e serde.Encoder) error { return e.Int64(math.MinInt64) }, nil, "-9223372036854775808"},
		{"int64 quoted", func(e serde.Encoder) error { return e.Int64(7) }, []jsonenc.Option{jsonenc.QuoteInt64(true)}, `"7"`},
		{"uint64 quoted", func(e serde.Encoder) error { return e.Uint64(math.MaxUint64) }, []jsonenc.Option{jsonenc.QuoteInt64(true)}, `"18446744073709551615"`},
		{"bool", func(e serde.Encoder) error { return e.Bool(true) }, nil, "true"},
		{"string", func(e serde.Encoder) error { return e.String("a\"b") }, nil, `"a\"b"`},
		{"bytes", func(e serde.Encoder) error { return e.Bytes([]byte("raw")) }, nil, `"cmF3"`},
		{"empty bytes", func(e serde.Encoder) error { return e.Bytes(nil) }, nil, `""`},
		{"float32", func(e serde.Encoder) error { return e.Float32(0.1) }, nil, "0.1"},
		{"float32 large", func(e serde.Encoder) error { return e.Float32(1e30) }, nil, "1e+30"},
		{"float32 nan", func(e serde.Encoder) error { return e.Float32(float32(math.NaN())) }, nil, `"NaN"`},
		{"float64", func(e serde.Encoder) error { return e.Float64(-2.5) }, nil, "-2.5"},
		{"float64 inf", func(e serde.Encoder) error { return e.Float64(math.Inf(-1)) }, nil, `"-Infinity"`},
		{"enum", func(e serde.Encoder) error { return e.Enum("test.Color", "GREEN") }, nil, `"GREEN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			write(t, jsonenc.NewEncoder(&buf, tt.opts...), tt.call)
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestNesting(t *testing.T) {
	var buf bytes.Buffer
	write(t, jsonenc.NewEncoder(&buf),
		func(e serde.Encoder) error { return e.BeginMap(2) },
		key("list"),
		func(e serde.Encoder) error { return e.BeginSeq(2) },
		func(e serde.Encoder) error { return e.Int32(1) },
		func(e serde.Encoder) error { return e.Int32(2) },
		func(e serde.Encoder) error { return e.EndSeq() },
		key("empty"),
		func(e serde.Encoder) error { return e.BeginMap(0) },
		func(e serde.Encoder) error { return e.EndMap() },
		func(e serde.Encoder) error { return e.EndMap() },
	)
	assert.Equal(t, `{"list":[1,2],"empty":{}}`+"\n", buf.String())
}

func TestIndent(t *testing.T) {
	var buf bytes.Buffer
	write(t, jsonenc.NewEncoder(&buf, jsonenc.WithIndent("  ")),
		func(e serde.Encoder) error { return e.BeginMap(1) },
		key("a"),
		func(e serde.Encoder) error { return e.Int32(1) },
		func(e serde.Encoder) error { return e.EndMap() },
	)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestMarshal(t *testing.T) {
	msg := testdesc.New("Inner")
	msg.Set(msg.Descriptor().Fields().ByName("n"), protoreflect.ValueOfInt32(42))

	out, err := jsonenc.Marshal(pbreflect.New(msg))
	require.NoError(t, err)
	assert.Equal(t, `{"n":42}`, string(out))
}

func TestMarshalPropagatesErrors(t *testing.T) {
	_, err := jsonenc.MarshalWith(pbreflect.New(testdesc.New("Node")), nil, []serde.Option{serde.WithMaxDepth(4)})
	assert.ErrorIs(t, err, serde.ErrMaxDepth)
}
