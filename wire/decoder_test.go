package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/internal/testdesc"
)

func TestDecoder_AllTypes(t *testing.T) {
	reg := loadRegistry(t)

	inner := NewEncoder().Field(1, 42)
	e := NewEncoder().
		Field(1, uint64(0xffffffffffffff9c)). // int32 -100 sign-extended
		Field(2, uint64(1<<40)).
		Field(3, 7).
		Field(4, math.MaxUint64)
	e.EncodeTag(5, WireVarint).EncodeSint32(-3)
	e.EncodeTag(6, WireVarint).EncodeSint64(-4)
	e.EncodeTag(7, WireFixed32).EncodeFixed32(5)
	e.EncodeTag(8, WireFixed64).EncodeFixed64(6)
	e.EncodeTag(9, WireFixed32).EncodeFixed32(uint32(0xfffffff8)) // -8
	e.EncodeTag(10, WireFixed64).EncodeFixed64(uint64(0xfffffffffffffff7))
	e.EncodeTag(11, WireFixed32).EncodeFloat32(1.5)
	e.EncodeTag(12, WireFixed64).EncodeFloat64(2.25)
	e.Field(13, 1)
	e.EncodeTag(14, WireBytes).EncodeString("widget")
	e.EncodeTag(15, WireBytes).EncodeBytes([]byte{0xde, 0xad})
	e.Field(16, uint64(0xffffffffffffffff)) // NEGATIVE
	e.Embedded(17, inner)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "test.All"), reg)
	require.NoError(t, err)

	want := map[string]interface{}{
		"i32":   int32(-100),
		"i64":   int64(1 << 40),
		"u32":   uint32(7),
		"u64":   uint64(math.MaxUint64),
		"s32":   int32(-3),
		"s64":   int64(-4),
		"f32":   uint32(5),
		"f64":   uint64(6),
		"sf32":  int32(-8),
		"sf64":  int64(-9),
		"flt":   float32(1.5),
		"dbl":   2.25,
		"flag":  true,
		"name":  "widget",
		"blob":  []byte{0xde, 0xad},
		"color": "NEGATIVE",
		"inner": map[string]interface{}{"n": int32(42)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded message mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoder_MatchesProtoMarshal(t *testing.T) {
	reg := loadRegistry(t)

	msg := testdesc.New("All")
	fields := msg.Descriptor().Fields()
	msg.Set(fields.ByName("i32"), protoreflect.ValueOfInt32(-1))
	msg.Set(fields.ByName("s64"), protoreflect.ValueOfInt64(-1<<33))
	msg.Set(fields.ByName("name"), protoreflect.ValueOfString("héllo"))
	msg.Set(fields.ByName("color"), protoreflect.ValueOfEnum(1))
	nums := msg.Mutable(fields.ByName("nums")).List()
	for _, n := range []int32{3, -1, 300} {
		nums.Append(protoreflect.ValueOfInt32(n))
	}
	counts := msg.Mutable(fields.ByName("counts")).Map()
	counts.Set(protoreflect.ValueOfString("a").MapKey(), protoreflect.ValueOfInt32(1))
	counts.Set(protoreflect.ValueOfString("b").MapKey(), protoreflect.ValueOfInt32(0))
	inners := msg.Mutable(fields.ByName("inners")).List()
	el := inners.NewElement()
	el.Message().Set(el.Message().Descriptor().Fields().ByName("n"), protoreflect.ValueOfInt32(9))
	inners.Append(el)

	data, err := proto.Marshal(msg)
	require.NoError(t, err)

	got, err := DecodeMessage(data, message(t, reg, "test.All"), reg)
	require.NoError(t, err)

	want := map[string]interface{}{
		"i32":    int32(-1),
		"s64":    int64(-1 << 33),
		"name":   "héllo",
		"color":  "GREEN",
		"nums":   []interface{}{int32(3), int32(-1), int32(300)},
		"counts": map[interface{}]interface{}{"a": int32(1), "b": int32(0)},
		"inners": []interface{}{map[string]interface{}{"n": int32(9)}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded message mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoder_PackedAndUnpacked(t *testing.T) {
	reg := loadRegistry(t)
	all := message(t, reg, "test.All")

	packed := NewEncoder().EncodeVarint(1).EncodeVarint(2)
	colors := NewEncoder().EncodeVarint(1).EncodeVarint(0)
	e := NewEncoder().
		Field(18, 5). // unpacked element first
		Embedded(18, packed).
		Embedded(21, colors).
		Field(21, uint64(0xffffffffffffffff))

	got, err := DecodeMessage(e.Bytes(), all, reg)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(5), int32(1), int32(2)}, got["nums"])
	assert.Equal(t, []interface{}{"GREEN", "RED", "NEGATIVE"}, got["colors"])
}

func TestDecoder_NestedMessageMerges(t *testing.T) {
	reg := loadRegistry(t)

	first := NewEncoder().Field(1, 1)
	second := NewEncoder().Field(1, 2)
	e := NewEncoder().Embedded(17, first).Embedded(17, second)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "test.All"), reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"n": int32(2)}, got["inner"])
}

func TestDecoder_OneofLastWins(t *testing.T) {
	reg := loadRegistry(t)
	e := NewEncoder()
	e.EncodeTag(1, WireBytes).EncodeString("first")
	e.Field(2, 7)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "test.Choice"), reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"number": int32(7)}, got)
}

func TestDecoder_MapWithMessageValues(t *testing.T) {
	reg := loadRegistry(t)

	entry := NewEncoder().Field(1, 10).Embedded(2, NewEncoder().Field(1, 3))
	keyOnly := NewEncoder().Field(1, 11)
	e := NewEncoder().Embedded(4, entry).Embedded(4, keyOnly)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "test.Choice"), reg)
	require.NoError(t, err)
	assert.Equal(t, map[interface{}]interface{}{
		int64(10): map[string]interface{}{"n": int32(3)},
		int64(11): map[string]interface{}{},
	}, got["by_id"])
}

func TestDecoder_MapEnumValueDefault(t *testing.T) {
	reg := loadSource(t, `syntax = "proto2";
package p2;
enum Level {
  LOW = 1;
  HIGH = 2;
}
message M {
  map<string, Level> levels = 1;
}
`)

	keyOnly := NewEncoder()
	keyOnly.EncodeTag(1, WireBytes).EncodeString("k")
	e := NewEncoder().Embedded(1, keyOnly)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "p2.M"), reg)
	require.NoError(t, err)
	assert.Equal(t, map[interface{}]interface{}{"k": "LOW"}, got["levels"])
}

func TestDecoder_GroupsAreSkipped(t *testing.T) {
	reg := loadRegistry(t)

	e := NewEncoder().Field(1, 4)
	e.EncodeTag(2, WireStartGroup).Field(3, 99).EncodeTag(2, WireEndGroup)
	e.Field(1, 5)

	got, err := DecodeMessage(e.Bytes(), message(t, reg, "test.Legacy"), reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int32(5)}, got)
}

func TestDecoder_UnknownFields(t *testing.T) {
	reg := loadRegistry(t)
	inner := message(t, reg, "test.Inner")

	e := NewEncoder().Field(1, 1).Field(99, 5)
	e.EncodeTag(100, WireBytes).EncodeString("x")

	t.Run("discarded", func(t *testing.T) {
		withConfig(t, Config{})
		got, err := DecodeMessage(e.Bytes(), inner, reg)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"n": int32(1)}, got)
	})

	t.Run("preserved", func(t *testing.T) {
		withConfig(t, Config{PreserveUnknownBytesOnDecode: true})
		got, err := DecodeMessage(e.Bytes(), inner, reg)
		require.NoError(t, err)
		unknown := NewEncoder().Field(99, 5)
		unknown.EncodeTag(100, WireBytes).EncodeString("x")
		assert.Equal(t, unknown.Bytes(), got[UnknownFieldsKey])
	})
}

func TestDecoder_UnknownEnumNumber(t *testing.T) {
	reg := loadRegistry(t)
	all := message(t, reg, "test.All")
	payload := NewEncoder().Field(16, 7).Bytes()

	t.Run("rejected", func(t *testing.T) {
		withConfig(t, Config{})
		_, err := DecodeMessage(payload, all, reg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownEnumNumber))

		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, []string{"color"}, fe.FieldPath)
	})

	t.Run("allowed", func(t *testing.T) {
		withConfig(t, Config{AllowUnknownEnumNumberDecode: true})
		got, err := DecodeMessage(payload, all, reg)
		require.NoError(t, err)
		assert.Equal(t, int32(7), got["color"])
	})
}

func TestDecoder_StrictWireType(t *testing.T) {
	reg := loadRegistry(t)
	all := message(t, reg, "test.All")

	// fixed32 field sent as a varint
	payload := NewEncoder().Field(7, 5).Bytes()

	got, err := NewDecoderWithRegistry(payload, reg).WithConfig(Config{}).DecodeWithSchema(all)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got["f32"])

	_, err = NewDecoderWithRegistry(payload, reg).WithConfig(Config{StrictWireTypeOnDecode: true}).DecodeWithSchema(all)
	assert.ErrorIs(t, err, ErrWireType)
}

func TestDecoder_PopulateDefaults(t *testing.T) {
	reg := loadRegistry(t)

	got, err := NewDecoderWithRegistry(nil, reg).
		WithConfig(Config{PopulateDefaultsOnDecode: true}).
		DecodeWithSchema(message(t, reg, "test.Choice"))
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"limit": int32(25),
		"label": "none",
		"shade": "GREEN",
	}, got)
}

func TestDecoder_ErrorPaths(t *testing.T) {
	reg := loadRegistry(t)
	all := message(t, reg, "test.All")

	tests := []struct {
		name    string
		payload []byte
		path    []string
	}{
		{
			name:    "truncated string",
			payload: append(NewEncoder().EncodeTag(14, WireBytes).Bytes(), 5, 'a'),
			path:    []string{"name"},
		},
		{
			name:    "wrong wire type inside repeated message",
			payload: NewEncoder().Embedded(19, NewEncoder().Field(1, 1)).Embedded(19, NewEncoder().EncodeTag(1, WireBytes).EncodeString("x")).Bytes(),
			path:    []string{"inners", "[1]", "n"},
		},
		{
			name:    "bad packed element",
			payload: NewEncoder().Embedded(21, NewEncoder().EncodeVarint(0).EncodeVarint(9)).Bytes(),
			path:    []string{"colors", "[1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t, Config{})
			_, err := DecodeMessage(tt.payload, all, reg)
			require.Error(t, err)
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.path, fe.FieldPath)
		})
	}
}

func TestDecoder_TruncatedTag(t *testing.T) {
	reg := loadRegistry(t)
	_, err := DecodeMessage([]byte{0x80}, message(t, reg, "test.Inner"), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode message Inner")
}

func TestDecoder_NoRegistry(t *testing.T) {
	reg := loadRegistry(t)
	payload := NewEncoder().Embedded(17, NewEncoder()).Bytes()

	_, err := NewDecoder(payload).DecodeWithSchema(message(t, reg, "test.All"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry")
}

func TestScalarDefault(t *testing.T) {
	reg := loadRegistry(t)
	choice := message(t, reg, "test.Choice")

	v, err := ScalarDefault(choice.FieldByName("limit"))
	require.NoError(t, err)
	assert.Equal(t, int32(25), v)

	inner := message(t, reg, "test.Inner")
	v, err = ScalarDefault(inner.FieldByName("n"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)
}

func TestTags(t *testing.T) {
	tag := MakeTag(17, WireBytes)
	assert.Equal(t, Tag(17<<3|2), tag)
	num, typ := ParseTag(tag)
	assert.Equal(t, FieldNumber(17), num)
	assert.Equal(t, WireBytes, typ)

	assert.Equal(t, int32(-2), DecodeZigZag32(3))
	assert.Equal(t, int64(-1<<40), DecodeZigZag64(1<<41-1))
}
