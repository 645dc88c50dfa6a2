package wire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anirudhraja/protoserde/internal/testdesc"
	"github.com/anirudhraja/protoserde/registry"
	"github.com/anirudhraja/protoserde/schema"
)

func loadRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return loadSource(t, testdesc.Source)
}

func loadSource(t *testing.T, source string) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.proto")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	reg := registry.NewRegistry(nil)
	require.NoError(t, reg.LoadSchema(path))
	return reg
}

func message(t *testing.T, reg *registry.Registry, name string) *schema.Message {
	t.Helper()
	msg, err := reg.GetMessage(name)
	require.NoError(t, err)
	return msg
}

// withConfig swaps the global configuration for the duration of a test.
func withConfig(t *testing.T, c Config) {
	t.Helper()
	prev := CurrentConfig()
	SetConfig(c)
	t.Cleanup(func() { SetConfig(prev) })
}
