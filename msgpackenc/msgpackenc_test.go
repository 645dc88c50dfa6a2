package msgpackenc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/internal/testdesc"
	"github.com/anirudhraja/protoserde/msgpackenc"
	"github.com/anirudhraja/protoserde/pbreflect"
	"github.com/anirudhraja/protoserde/serde"
)

func TestWidths(t *testing.T) {
	tests := []struct {
		name    string
		call    func(serde.Encoder) error
		compact bool
		want    []byte
	}{
		{"int32", func(e serde.Encoder) error { return e.Int32(1) }, false, []byte{0xd2, 0, 0, 0, 1}},
		{"int32 compact", func(e serde.Encoder) error { return e.Int32(1) }, true, []byte{0x01}},
		{"int64", func(e serde.Encoder) error { return e.Int64(-1) }, false, []byte{0xd3, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"int64 compact", func(e serde.Encoder) error { return e.Int64(-1) }, true, []byte{0xff}},
		{"uint32", func(e serde.Encoder) error { return e.Uint32(2) }, false, []byte{0xce, 0, 0, 0, 2}},
		{"uint64 compact", func(e serde.Encoder) error { return e.Uint64(200) }, true, []byte{0xcc, 200}},
		{"float32", func(e serde.Encoder) error { return e.Float32(1) }, false, []byte{0xca, 0x3f, 0x80, 0, 0}},
		{"float32 compact", func(e serde.Encoder) error { return e.Float32(1) }, true, []byte{0x01}},
		{"bool", func(e serde.Encoder) error { return e.Bool(true) }, false, []byte{0xc3}},
		{"empty bytes", func(e serde.Encoder) error { return e.Bytes(nil) }, false, []byte{0xc4, 0}},
		{"enum", func(e serde.Encoder) error { return e.Enum("test.Color", "RED") }, false, []byte{0xa3, 'R', 'E', 'D'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.call(msgpackenc.NewEncoder(&buf, msgpackenc.Compact(tt.compact))))
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestMarshal(t *testing.T) {
	msg := testdesc.New("All")
	fields := msg.Descriptor().Fields()
	msg.Set(fields.ByName("i32"), protoreflect.ValueOfInt32(-7))
	msg.Set(fields.ByName("name"), protoreflect.ValueOfString("x"))
	msg.Set(fields.ByName("color"), protoreflect.ValueOfEnum(1))
	counts := msg.Mutable(fields.ByName("counts")).Map()
	counts.Set(protoreflect.ValueOfString("b").MapKey(), protoreflect.ValueOfInt32(2))
	counts.Set(protoreflect.ValueOfString("a").MapKey(), protoreflect.ValueOfInt32(1))

	out, err := msgpackenc.Marshal(pbreflect.New(msg))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(out, &got))
	assert.Len(t, got, fields.Len())
	assert.Equal(t, int32(-7), got["i32"])
	assert.Equal(t, "x", got["name"])
	assert.Equal(t, "GREEN", got["color"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"key": "a", "value": int32(1)},
		map[string]interface{}{"key": "b", "value": int32(2)},
	}, got["counts"])
	assert.Equal(t, map[string]interface{}{"n": int32(0)}, got["inner"])
	assert.Equal(t, []interface{}{}, got["nums"])
}
