package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/protoserde/internal/testdesc"
	"github.com/anirudhraja/protoserde/loader"
	"github.com/anirudhraja/protoserde/pbreflect"
	"github.com/anirudhraja/protoserde/tree"
)

func loadSources(t *testing.T) *loader.Set {
	t.Helper()
	set, err := loader.LoadSources(context.Background(), map[string]string{"test.proto": testdesc.Source}, "test.proto")
	require.NoError(t, err)
	return set
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.proto"), []byte(testdesc.Source), 0o644))

	set, err := loader.Load(context.Background(), []string{dir}, "test.proto")
	require.NoError(t, err)
	require.Len(t, set.Files(), 1)
	assert.Equal(t, "test.proto", set.Files()[0].Path())

	md, err := set.FindMessage(".test.Choice")
	require.NoError(t, err)
	assert.Equal(t, protoreflect.FullName("test.Choice"), md.FullName())
}

func TestLoadErrors(t *testing.T) {
	_, err := loader.Load(context.Background(), nil)
	assert.Error(t, err)

	_, err = loader.LoadSources(context.Background(), map[string]string{"bad.proto": "message {"}, "bad.proto")
	assert.Error(t, err)

	_, err = loader.Load(context.Background(), []string{t.TempDir()}, "missing.proto")
	assert.Error(t, err)
}

func TestFindMessage(t *testing.T) {
	set := loadSources(t)

	_, err := set.FindMessage("test.Missing")
	assert.ErrorIs(t, err, loader.ErrNotFound)

	_, err = set.FindMessage("test.Color")
	assert.ErrorIs(t, err, loader.ErrNotFound)

	md, err := set.FindMessage("google.protobuf.StringValue")
	require.NoError(t, err)
	assert.Equal(t, 1, md.Fields().Len())
}

// A descriptor compiled from source views the same as the hand-built one.
func TestCompiledMatchesBuiltDescriptor(t *testing.T) {
	set := loadSources(t)

	built := testdesc.New("All")
	fields := built.Descriptor().Fields()
	built.Set(fields.ByName("i64"), protoreflect.ValueOfInt64(-1<<40))
	built.Set(fields.ByName("name"), protoreflect.ValueOfString("x"))
	built.Set(fields.ByName("color"), protoreflect.ValueOfEnum(-1))
	built.Mutable(fields.ByName("counts")).Map().Set(protoreflect.ValueOfString("k").MapKey(), protoreflect.ValueOfInt32(1))
	data, err := proto.Marshal(built)
	require.NoError(t, err)

	compiled, err := set.Unmarshal(data, "test.All")
	require.NoError(t, err)

	want, err := tree.Build(pbreflect.New(built))
	require.NoError(t, err)
	got, err := tree.Build(pbreflect.New(compiled))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("compiled view differs (-built +compiled):\n%s", diff)
	}
}

func TestChoiceDefaults(t *testing.T) {
	set := loadSources(t)
	msg, err := set.NewMessage("test.Choice")
	require.NoError(t, err)

	got, err := tree.Build(pbreflect.New(msg))
	require.NoError(t, err)

	want := map[string]any{
		"text":   "",
		"number": int32(0),
		"note":   map[string]any{"value": ""},
		"by_id":  []any{},
		"limit":  int32(25),
		"label":  "none",
		"shade":  "GREEN",
	}
	if diff := cmp.Diff(want, tree.Plain(got)); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	set := loadSources(t)

	_, err := set.Unmarshal([]byte{0xff}, "test.All")
	assert.Error(t, err)

	_, err = set.Unmarshal(nil, "test.Nope")
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestImportedMessages(t *testing.T) {
	sources := map[string]string{
		"common/money.proto": "syntax = \"proto3\";\npackage common;\nmessage Money { int64 units = 1; }\n",
		"wallet.proto": "syntax = \"proto3\";\npackage w;\nimport \"common/money.proto\";\nimport \"google/protobuf/timestamp.proto\";\n" +
			"message Wallet { common.Money balance = 1; google.protobuf.Timestamp opened = 2; }\n",
	}
	set, err := loader.LoadSources(context.Background(), sources, "wallet.proto")
	require.NoError(t, err)
	require.Len(t, set.Files(), 1)

	for _, name := range []string{"w.Wallet", "common.Money", "google.protobuf.Timestamp"} {
		md, err := set.FindMessage(name)
		require.NoError(t, err, name)
		assert.Equal(t, protoreflect.FullName(name), md.FullName())
	}

	money, err := set.NewMessage("common.Money")
	require.NoError(t, err)
	money.Set(money.Descriptor().Fields().ByName("units"), protoreflect.ValueOfInt64(12))
	data, err := proto.Marshal(money)
	require.NoError(t, err)

	got, err := set.Unmarshal(data, "common.Money")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Get(got.Descriptor().Fields().ByName("units")).Int())
}
