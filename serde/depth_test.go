package serde_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/anirudhraja/protoserde/serde"
	"github.com/anirudhraja/protoserde/tree"
)

// endless is a self-referencing message whose child is always present, the shape
// a provider produces when it expands unset message fields to defaults.
type endless struct{}

var endlessFields = []serde.Field{{Name: "child", Number: 1, Kind: serde.KindMessage}}

func (endless) Name() string          { return "Node" }
func (endless) Fields() []serde.Field { return endlessFields }
func (endless) Get(serde.Field) (any, error) {
	return endless{}, nil
}
func (endless) List(serde.Field) (serde.List, error) {
	return nil, fmt.Errorf("%w: not repeated", serde.ErrSchemaMismatch)
}

func chain(depth int) serde.Message {
	var m serde.Message = newFake("Leaf", map[string]any{"v": int32(depth)}, field("v", serde.KindInt32))
	for i := 0; i < depth; i++ {
		m = newFake("Link", map[string]any{"next": m}, field("next", serde.KindMessage))
	}
	return m
}

func TestSerialize_MaxDepth(t *testing.T) {
	err := serde.Serialize(tree.NewBuilder(), endless{}, serde.WithMaxDepth(32))
	assert.ErrorIs(t, err, serde.ErrMaxDepth)
}

func TestSerialize_DefaultMaxDepthStopsRecursion(t *testing.T) {
	err := serde.Serialize(&recorder{}, endless{})
	assert.ErrorIs(t, err, serde.ErrMaxDepth)
}

func TestSerialize_DepthErrorPathIsElided(t *testing.T) {
	err := serde.Serialize(&recorder{}, endless{})
	require.ErrorIs(t, err, serde.ErrMaxDepth)

	var fe *serde.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe.FieldPath, 10001)
	assert.Contains(t, fe.Path(), "child.child.<9969 more>.child.child")
	assert.Less(t, len(err.Error()), 512)
}

func TestSerialize_DeepSchemaWithinLimit(t *testing.T) {
	const depth = 2000

	got, err := tree.Build(chain(depth))
	require.NoError(t, err)

	n := 0
	v := got
	for {
		m := v.(*tree.Map)
		next, ok := m.Get("next")
		if !ok {
			leaf, _ := m.Get("v")
			assert.Equal(t, int32(depth), leaf)
			break
		}
		v = next
		n++
	}
	assert.Equal(t, depth, n)
}

func TestSerialize_DepthLimitBoundary(t *testing.T) {
	require.NoError(t, serde.Serialize(tree.NewBuilder(), chain(10), serde.WithMaxDepth(10)))
	assert.ErrorIs(t, serde.Serialize(tree.NewBuilder(), chain(11), serde.WithMaxDepth(10)), serde.ErrMaxDepth)
}

func TestSerialize_ConcurrentPasses(t *testing.T) {
	shared := newFake("Shared", map[string]any{
		"id":   int64(99),
		"tags": []any{"x", "y", "z"},
		"sub":  chain(20),
	},
		field("id", serde.KindInt64),
		repeated("tags", serde.KindString),
		field("sub", serde.KindMessage),
	)

	want, err := tree.Build(shared)
	require.NoError(t, err)

	var g errgroup.Group
	results := make([]any, 16)
	for i := range results {
		g.Go(func() error {
			got, err := tree.Build(shared)
			results[i] = got
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
